package leaderboard

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

const defaultTopLimit = 10

// Handler serves leaderboard reads.
type Handler struct {
	service *Service
}

// NewHandler creates a leaderboard HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers leaderboard endpoints on the router group.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/leaderboard", h.Top)
	r.GET("/leaderboard/rank/:userId", h.Rank)
}

// Top returns the current week's standings.
func (h *Handler) Top(c *gin.Context) {
	limit := defaultTopLimit
	if raw := c.Query("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}

	entries, err := h.service.Top(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "internal_error",
			"message": "failed to load leaderboard",
		})
		return
	}
	if entries == nil {
		entries = []*Entry{}
	}

	c.JSON(http.StatusOK, gin.H{"entries": entries})
}

// Rank returns one user's standing for the current week.
func (h *Handler) Rank(c *gin.Context) {
	userID := c.Param("userId")

	rank, entry, err := h.service.Rank(c.Request.Context(), userID)
	if errors.Is(err, ErrEntryNotFound) {
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "not_ranked",
			"message": "user has no activity this week",
		})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "internal_error",
			"message": "failed to load rank",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"rank": rank, "entry": entry})
}
