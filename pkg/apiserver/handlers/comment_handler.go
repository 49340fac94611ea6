package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/clientflow/clientflow/pkg/engine"
)

type CommentHandler struct {
	engine *engine.Engine
	logger *zap.Logger
}

func NewCommentHandler(eng *engine.Engine, logger *zap.Logger) *CommentHandler {
	return &CommentHandler{engine: eng, logger: logger}
}

type commentUpdateRequest struct {
	Content  *string `json:"content"`
	Resolved *bool   `json:"resolved"`
	ActorID  string  `json:"actor_id"`
}

type commentDeleteRequest struct {
	ActorID string `json:"actor_id"`
}

func (h *CommentHandler) Update(c *gin.Context) {
	commentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid comment id"})
		return
	}

	var req commentUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": err.Error()})
		return
	}

	actorID, ok := h.actor(c, req.ActorID)
	if !ok {
		return
	}

	if err := h.engine.UpdateComment(c.Request.Context(), commentID, req.Content, req.Resolved, actorID); err != nil {
		respondEngineError(c, h.logger, err, "failed to update comment")
		return
	}

	c.JSON(http.StatusOK, gin.H{})
}

func (h *CommentHandler) Delete(c *gin.Context) {
	commentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid comment id"})
		return
	}

	var req commentDeleteRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": err.Error()})
		return
	}

	actorID, ok := h.actor(c, req.ActorID)
	if !ok {
		return
	}

	if err := h.engine.DeleteComment(c.Request.Context(), commentID, actorID); err != nil {
		respondEngineError(c, h.logger, err, "failed to delete comment")
		return
	}

	c.JSON(http.StatusOK, gin.H{})
}

// actor resolves the acting user, preferring the authenticated session over
// the request body. Comment mutations always need an actor for the
// author-only rule.
func (h *CommentHandler) actor(c *gin.Context, bodyActor string) (uuid.UUID, bool) {
	raw := c.GetString("user_id")
	if raw == "" {
		raw = bodyActor
	}
	if raw == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "actor_id is required"})
		return uuid.Nil, false
	}
	actorID, err := uuid.Parse(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid actor_id"})
		return uuid.Nil, false
	}
	return actorID, true
}
