package confidence

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Handler serves confidence meter reads.
type Handler struct {
	service *Service
}

// NewHandler creates a confidence HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers confidence endpoints on the router group.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/users/:userId/confidence", h.GetMeter)
}

// GetMeter returns the confidence meter for a user.
// New users get a meter at the default level.
func (h *Handler) GetMeter(c *gin.Context) {
	userID := c.Param("userId")

	m, err := h.service.Get(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "internal_error",
			"message": "failed to load confidence meter",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"meter": m})
}
