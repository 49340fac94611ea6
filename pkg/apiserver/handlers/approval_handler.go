package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/clientflow/clientflow/pkg/engine"
	"github.com/clientflow/clientflow/pkg/model"
	"github.com/clientflow/clientflow/pkg/store/postgres"
)

type ApprovalHandler struct {
	db     *postgres.Store
	engine *engine.Engine
	logger *zap.Logger
}

func NewApprovalHandler(db *postgres.Store, eng *engine.Engine, logger *zap.Logger) *ApprovalHandler {
	return &ApprovalHandler{db: db, engine: eng, logger: logger}
}

type recomputeRequest struct {
	ActorID *string `json:"actor_id"`
}

type itemUpdateRequest struct {
	Status string `json:"status" binding:"required"`
}

type approvalResponse struct {
	ID             string  `json:"id"`
	ClientID       string  `json:"client_id"`
	Title          string  `json:"title"`
	Status         string  `json:"status"`
	ExternalTaskID string  `json:"external_task_id,omitempty"`
	AutoApproveAt  *string `json:"auto_approve_at,omitempty"`
	CreatedAt      string  `json:"created_at"`
	UpdatedAt      string  `json:"updated_at"`
}

type approvalDetailResponse struct {
	approvalResponse
	Items     []itemResponse `json:"items"`
	Assignees []string       `json:"assignees"`
}

type itemResponse struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Status     string   `json:"status"`
	AssetLinks []string `json:"asset_links,omitempty"`
}

// Recompute reconciles one approval's status from its items and, when the
// write transitions it to approved, fires the downstream fanout. The
// response reflects only the status write; fanout is best-effort.
func (h *ApprovalHandler) Recompute(c *gin.Context) {
	approvalID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid approval id"})
		return
	}

	var req recomputeRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": err.Error()})
		return
	}

	actorID, ok := h.resolveActor(c, req.ActorID)
	if !ok {
		return
	}

	previous, status, err := h.engine.Recompute(c.Request.Context(), approvalID, actorID)
	if err != nil {
		respondEngineError(c, h.logger, err, "failed to recompute approval")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":          string(status),
		"previous_status": string(previous),
	})
}

// UpdateItem sets one item's status and reconciles the parent approval.
func (h *ApprovalHandler) UpdateItem(c *gin.Context) {
	approvalID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid approval id"})
		return
	}
	itemID, err := uuid.Parse(c.Param("itemID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid item id"})
		return
	}

	var req itemUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": err.Error()})
		return
	}

	status := model.ItemStatus(req.Status)
	if !isValidItemStatus(status) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status"})
		return
	}

	actorID, ok := h.resolveActor(c, nil)
	if !ok {
		return
	}

	approvalStatus, err := h.engine.SetItemStatus(c.Request.Context(), approvalID, itemID, status, actorID)
	if err != nil {
		respondEngineError(c, h.logger, err, "failed to update item")
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": string(approvalStatus)})
}

func (h *ApprovalHandler) Get(c *gin.Context) {
	approvalID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid approval id"})
		return
	}

	repo := postgres.NewApprovalRepository(h.db.DB())
	approval, err := repo.GetApproval(c.Request.Context(), approvalID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "approval not found"})
			return
		}
		h.logger.Error("failed to get approval", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get approval"})
		return
	}

	items, err := repo.ListItems(c.Request.Context(), approvalID)
	if err != nil {
		h.logger.Error("failed to list items", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get approval"})
		return
	}

	assignees, err := repo.ListAssignees(c.Request.Context(), approvalID)
	if err != nil {
		h.logger.Error("failed to list assignees", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get approval"})
		return
	}

	itemsResponse := make([]itemResponse, 0, len(items))
	for _, item := range items {
		itemsResponse = append(itemsResponse, itemResponse{
			ID:         item.ID.String(),
			Name:       item.Name,
			Status:     string(item.Status),
			AssetLinks: item.AssetLinks,
		})
	}

	assigneeIDs := make([]string, 0, len(assignees))
	for _, assignee := range assignees {
		assigneeIDs = append(assigneeIDs, assignee.UserID.String())
	}

	c.JSON(http.StatusOK, approvalDetailResponse{
		approvalResponse: mapApproval(approval),
		Items:            itemsResponse,
		Assignees:        assigneeIDs,
	})
}

func (h *ApprovalHandler) List(c *gin.Context) {
	clientID := strings.TrimSpace(c.Query("client_id"))
	if clientID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "client_id is required"})
		return
	}
	clientUUID, err := uuid.Parse(clientID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid client_id"})
		return
	}

	limit := parseLimit(c.Query("limit"), 20)
	offset := parseOffset(c.Query("offset"))

	repo := postgres.NewApprovalRepository(h.db.DB())
	approvals, total, err := repo.ListByClient(c.Request.Context(), clientUUID, limit, offset)
	if err != nil {
		h.logger.Error("failed to list approvals", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list approvals"})
		return
	}

	response := make([]approvalResponse, 0, len(approvals))
	for i := range approvals {
		response = append(response, mapApproval(&approvals[i]))
	}

	c.JSON(http.StatusOK, gin.H{
		"approvals": response,
		"total":     total,
	})
}

func (h *ApprovalHandler) Delete(c *gin.Context) {
	approvalID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid approval id"})
		return
	}

	if err := h.engine.DeleteApproval(c.Request.Context(), approvalID); err != nil {
		respondEngineError(c, h.logger, err, "failed to delete approval")
		return
	}

	c.JSON(http.StatusOK, gin.H{})
}

// resolveActor prefers the authenticated user over a body-supplied actor id.
func (h *ApprovalHandler) resolveActor(c *gin.Context, bodyActor *string) (*uuid.UUID, bool) {
	raw := c.GetString("user_id")
	if raw == "" && bodyActor != nil {
		raw = *bodyActor
	}
	if raw == "" {
		return nil, true
	}
	actorID, err := uuid.Parse(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid actor_id"})
		return nil, false
	}
	return &actorID, true
}

func mapApproval(approval *model.Approval) approvalResponse {
	return approvalResponse{
		ID:             approval.ID.String(),
		ClientID:       approval.ClientID.String(),
		Title:          approval.Title,
		Status:         string(approval.Status),
		ExternalTaskID: approval.ExternalTaskID,
		AutoApproveAt:  formatTime(approval.AutoApproveAt),
		CreatedAt:      approval.CreatedAt.UTC().Format(timeRFC3339Nano),
		UpdatedAt:      approval.UpdatedAt.UTC().Format(timeRFC3339Nano),
	}
}

func isValidItemStatus(status model.ItemStatus) bool {
	switch status {
	case model.ItemPending, model.ItemApproved, model.ItemRejected:
		return true
	default:
		return false
	}
}
