package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/clientflow/clientflow/pkg/model"
	"github.com/clientflow/clientflow/pkg/store/postgres"
)

type NotificationHandler struct {
	db     *postgres.Store
	logger *zap.Logger
}

func NewNotificationHandler(db *postgres.Store, logger *zap.Logger) *NotificationHandler {
	return &NotificationHandler{db: db, logger: logger}
}

type notificationResponse struct {
	ID        string      `json:"id"`
	UserID    string      `json:"user_id"`
	Type      string      `json:"type"`
	Data      model.JSONB `json:"data"`
	ReadAt    *string     `json:"read_at,omitempty"`
	CreatedAt string      `json:"created_at"`
}

func (h *NotificationHandler) List(c *gin.Context) {
	userID := strings.TrimSpace(c.Query("user_id"))
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id is required"})
		return
	}
	userUUID, err := uuid.Parse(userID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user_id"})
		return
	}

	limit := parseLimit(c.Query("limit"), 50)
	offset := parseOffset(c.Query("offset"))

	repo := postgres.NewNotificationRepository(h.db.DB())
	records, err := repo.ListByUser(c.Request.Context(), userUUID, limit, offset)
	if err != nil {
		h.logger.Error("failed to list notifications", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list notifications"})
		return
	}

	response := make([]notificationResponse, 0, len(records))
	for _, record := range records {
		response = append(response, notificationResponse{
			ID:        record.ID.String(),
			UserID:    record.UserID.String(),
			Type:      record.Type,
			Data:      record.Data,
			ReadAt:    formatTime(record.ReadAt),
			CreatedAt: record.CreatedAt.UTC().Format(timeRFC3339Nano),
		})
	}

	c.JSON(http.StatusOK, response)
}
