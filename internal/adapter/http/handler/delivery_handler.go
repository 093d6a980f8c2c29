package handler

import (
	"webhook-dispatcher/internal/adapter/http/dto"
	"webhook-dispatcher/internal/core/ports"
	"webhook-dispatcher/pkg/apperror"
	"webhook-dispatcher/pkg/response"

	"github.com/gin-gonic/gin"
)

// DeliveryHandler handles delivery inspection and control.
type DeliveryHandler struct {
	deliverySvc       ports.DeliveryService
	defaultRetryLimit int
}

// NewDeliveryHandler creates a new DeliveryHandler.
func NewDeliveryHandler(deliverySvc ports.DeliveryService, defaultRetryLimit int) *DeliveryHandler {
	if defaultRetryLimit < 1 {
		defaultRetryLimit = 100
	}
	return &DeliveryHandler{deliverySvc: deliverySvc, defaultRetryLimit: defaultRetryLimit}
}

// Get handles GET /api/v1/deliveries/:id.
func (h *DeliveryHandler) Get(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		response.Error(c, invalidParam("delivery id"))
		return
	}

	d, err := h.deliverySvc.GetDelivery(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, d)
}

// Cancel handles POST /api/v1/deliveries/:id/cancel.
func (h *DeliveryHandler) Cancel(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		response.Error(c, invalidParam("delivery id"))
		return
	}

	var req dto.CancelDeliveryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	d, err := h.deliverySvc.CancelDelivery(c.Request.Context(), id, req.Reason)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, d)
}

// RetryScan handles POST /api/v1/deliveries/retry.
func (h *DeliveryHandler) RetryScan(c *gin.Context) {
	var req dto.RetryScanRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		response.Error(c, err)
		return
	}
	limit := req.Limit
	if limit == 0 {
		limit = h.defaultRetryLimit
	}

	result, err := h.deliverySvc.RetryFailedDeliveries(c.Request.Context(), limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, result)
}
