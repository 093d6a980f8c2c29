package handler

import (
	"webhook-dispatcher/internal/adapter/http/dto"
	"webhook-dispatcher/internal/core/domain"
	"webhook-dispatcher/internal/core/ports"
	"webhook-dispatcher/pkg/apperror"
	"webhook-dispatcher/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// DeadLetterHandler handles dead letter queue inspection and recovery.
type DeadLetterHandler struct {
	dlq              ports.DeadLetterQueue
	defaultBatchSize int
}

// NewDeadLetterHandler creates a new DeadLetterHandler.
func NewDeadLetterHandler(dlq ports.DeadLetterQueue, defaultBatchSize int) *DeadLetterHandler {
	if defaultBatchSize < 1 {
		defaultBatchSize = 100
	}
	return &DeadLetterHandler{dlq: dlq, defaultBatchSize: defaultBatchSize}
}

// List handles GET /api/v1/dead-letters.
func (h *DeadLetterHandler) List(c *gin.Context) {
	var q dto.DeadLetterListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	if q.Page == 0 {
		q.Page = 1
	}
	if q.PageSize == 0 {
		q.PageSize = defaultPageSize
	}

	filter := ports.DeadLetterFilter{
		IncludeProcessed: q.IncludeProcessed,
		Page:             q.Page,
		PageSize:         q.PageSize,
	}
	if q.Reason != "" {
		reason := domain.DeadLetterReason(q.Reason)
		filter.Reason = &reason
	}
	if q.EndpointID != "" {
		endpointID, err := uuid.Parse(q.EndpointID)
		if err != nil {
			response.Error(c, invalidParam("endpoint_id"))
			return
		}
		filter.EndpointID = &endpointID
	}

	entries, total, err := h.dlq.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Page(c, entries, total, q.Page, q.PageSize)
}

// Process handles POST /api/v1/dead-letters/process.
func (h *DeadLetterHandler) Process(c *gin.Context) {
	var req dto.ProcessDeadLettersRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		response.Error(c, err)
		return
	}
	batchSize := req.BatchSize
	if batchSize == 0 {
		batchSize = h.defaultBatchSize
	}

	result, err := h.dlq.ProcessQueue(c.Request.Context(), batchSize)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, result)
}

// Retry handles POST /api/v1/dead-letters/:delivery_id/retry.
func (h *DeadLetterHandler) Retry(c *gin.Context) {
	deliveryID, ok := uuidParam(c, "delivery_id")
	if !ok {
		response.Error(c, invalidParam("delivery id"))
		return
	}

	var req dto.RetryDeadLetterRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		response.Error(c, err)
		return
	}
	var newEndpointID *uuid.UUID
	if req.NewEndpointID != nil {
		id, err := uuid.Parse(*req.NewEndpointID)
		if err != nil {
			response.Error(c, invalidParam("new_endpoint_id"))
			return
		}
		newEndpointID = &id
	}

	d, err := h.dlq.RetryEntry(c.Request.Context(), deliveryID, newEndpointID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, d)
}

// Cleanup handles POST /api/v1/dead-letters/cleanup.
func (h *DeadLetterHandler) Cleanup(c *gin.Context) {
	removed, err := h.dlq.CleanupExpired(c.Request.Context())
	if err != nil {
		response.Error(c, apperror.ErrDatabaseError(err))
		return
	}
	response.OK(c, dto.CountResponse{Removed: removed})
}
