package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/clientflow/clientflow/pkg/store"
)

type ActivityHandler struct {
	activity store.ActivityStore
	logger   *zap.Logger
}

func NewActivityHandler(activity store.ActivityStore, logger *zap.Logger) *ActivityHandler {
	return &ActivityHandler{activity: activity, logger: logger}
}

type activityResponse struct {
	ID        string  `json:"id"`
	Kind      string  `json:"kind"`
	Message   string  `json:"message,omitempty"`
	ActorID   *string `json:"actor_id,omitempty"`
	CreatedAt string  `json:"created_at"`
}

func (h *ActivityHandler) List(c *gin.Context) {
	approvalID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid approval id"})
		return
	}

	limit := parseLimit(c.Query("limit"), 50)

	entries, err := h.activity.List(c.Request.Context(), approvalID, limit)
	if err != nil {
		h.logger.Error("failed to list activity", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list activity"})
		return
	}

	response := make([]activityResponse, 0, len(entries))
	for _, entry := range entries {
		item := activityResponse{
			ID:        entry.ID.String(),
			Kind:      entry.Kind,
			Message:   entry.Message,
			CreatedAt: entry.CreatedAt.UTC().Format(timeRFC3339Nano),
		}
		if entry.ActorID != nil {
			actor := entry.ActorID.String()
			item.ActorID = &actor
		}
		response = append(response, item)
	}

	c.JSON(http.StatusOK, response)
}
