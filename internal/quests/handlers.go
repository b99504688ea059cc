package quests

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/rejectionhero/backend/internal/integrity"
	"github.com/rejectionhero/backend/internal/pagination"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// Handler provides HTTP endpoints for quests.
type Handler struct {
	svc *Service
}

// NewHandler creates a new quest handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes sets up quest endpoints.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/quests", h.CreateQuest)
	r.GET("/quests/:id", h.GetQuest)
	r.POST("/quests/:id/start", h.StartQuest)
	r.POST("/quests/:id/abandon", h.AbandonQuest)
	r.POST("/quests/:id/actions", h.RecordAction)
	r.GET("/quests/:id/actions", h.ListActions)
	r.GET("/quests/:id/integrity", h.ListVerdicts)
	r.GET("/users/:userId/quests", h.ListUserQuests)
}

// CreateQuestRequest is the body for POST /quests.
type CreateQuestRequest struct {
	UserID    string `json:"userId" binding:"required"`
	Title     string `json:"title" binding:"required"`
	GoalCount int    `json:"goalCount" binding:"required"`
}

// CreateQuest handles POST /v1/quests.
func (h *Handler) CreateQuest(c *gin.Context) {
	var req CreateQuestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": "userId, title, and goalCount are required",
		})
		return
	}

	q, err := h.svc.Create(c.Request.Context(), req.UserID, req.Title, req.GoalCount)
	if err != nil {
		if errors.Is(err, ErrInvalidGoal) {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "invalid_goal",
				"message": "goalCount must be a positive integer",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "internal_error",
			"message": "Failed to create quest",
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"quest": q})
}

// GetQuest handles GET /v1/quests/:id.
func (h *Handler) GetQuest(c *gin.Context) {
	q, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.questError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"quest": q})
}

// StartQuest handles POST /v1/quests/:id/start.
func (h *Handler) StartQuest(c *gin.Context) {
	q, err := h.svc.Start(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.questError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"quest": q})
}

// AbandonQuest handles POST /v1/quests/:id/abandon.
func (h *Handler) AbandonQuest(c *gin.Context) {
	q, err := h.svc.Abandon(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.questError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"quest": q})
}

// RecordActionRequest is the body for POST /quests/:id/actions.
type RecordActionRequest struct {
	Kind string `json:"kind"`
}

// RecordAction handles POST /v1/quests/:id/actions. The response carries
// the updated quest and, when the integrity check produced one, the
// motivational message to surface. The action itself always succeeds
// regardless of the verdict.
func (h *Handler) RecordAction(c *gin.Context) {
	var req RecordActionRequest
	// Body is optional; an empty body logs a generic action.
	_ = c.ShouldBindJSON(&req)

	kind := integrity.ActionKind(req.Kind)
	switch kind {
	case integrity.ActionNo, integrity.ActionYes, integrity.ActionGeneric:
	case "":
		kind = integrity.ActionGeneric
	default:
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_kind",
			"message": "kind must be one of: no, yes, action",
		})
		return
	}

	q, verdict, err := h.svc.RecordAction(c.Request.Context(), c.Param("id"), kind)
	if err != nil {
		h.questError(c, err)
		return
	}

	resp := gin.H{"quest": q}
	if verdict.Message != "" {
		resp["message"] = verdict.Message
	}
	c.JSON(http.StatusOK, resp)
}

// ListActions handles GET /v1/quests/:id/actions.
func (h *Handler) ListActions(c *gin.Context) {
	limit := pageLimit(c)

	var opts []ListOption
	if cursor := c.Query("cursor"); cursor != "" {
		opts = append(opts, WithCursor(cursor))
	}

	// Fetch one extra to compute the next cursor.
	actions, err := h.svc.ListActions(c.Request.Context(), c.Param("id"), limit+1, opts...)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "internal_error",
			"message": "Failed to list actions",
		})
		return
	}

	actions, next, hasMore := pagination.ComputePage(actions, limit, func(e *ActionEvent) (time.Time, string) {
		return e.RecordedAt, e.ID
	})

	c.JSON(http.StatusOK, gin.H{
		"actions":    actions,
		"nextCursor": next,
		"hasMore":    hasMore,
	})
}

// ListVerdicts handles GET /v1/quests/:id/integrity.
func (h *Handler) ListVerdicts(c *gin.Context) {
	verdicts, err := h.svc.ListVerdicts(c.Request.Context(), c.Param("id"), pageLimit(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "internal_error",
			"message": "Failed to list verdicts",
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"verdicts": verdicts})
}

// ListUserQuests handles GET /v1/users/:userId/quests.
func (h *Handler) ListUserQuests(c *gin.Context) {
	limit := pageLimit(c)

	var opts []ListOption
	if cursor := c.Query("cursor"); cursor != "" {
		opts = append(opts, WithCursor(cursor))
	}

	questsList, err := h.svc.ListByUser(c.Request.Context(), c.Param("userId"), limit+1, opts...)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "internal_error",
			"message": "Failed to list quests",
		})
		return
	}

	questsList, next, hasMore := pagination.ComputePage(questsList, limit, func(q *Quest) (time.Time, string) {
		return q.CreatedAt, q.ID
	})

	c.JSON(http.StatusOK, gin.H{
		"quests":     questsList,
		"nextCursor": next,
		"hasMore":    hasMore,
	})
}

func (h *Handler) questError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrQuestNotFound):
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "quest_not_found",
			"message": "Quest not found",
		})
	case errors.Is(err, ErrNotStarted):
		c.JSON(http.StatusConflict, gin.H{
			"error":   "quest_not_started",
			"message": "Start the quest before logging actions",
		})
	case errors.Is(err, ErrAlreadyStarted):
		c.JSON(http.StatusConflict, gin.H{
			"error":   "quest_already_started",
			"message": "Quest already started",
		})
	case errors.Is(err, ErrQuestFinished):
		c.JSON(http.StatusConflict, gin.H{
			"error":   "quest_finished",
			"message": "Quest is already completed or abandoned",
		})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "internal_error",
			"message": "An unexpected error occurred",
		})
	}
}

func pageLimit(c *gin.Context) int {
	limit := defaultPageSize
	if raw := c.Query("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	return limit
}
