package handler

import (
	"cmp"
	"slices"

	"webhook-dispatcher/internal/adapter/http/dto"
	"webhook-dispatcher/internal/core/ports"
	"webhook-dispatcher/pkg/apperror"
	"webhook-dispatcher/pkg/response"

	"github.com/gin-gonic/gin"
)

// CircuitHandler exposes the per-endpoint circuit breakers.
type CircuitHandler struct {
	breaker ports.CircuitBreaker
}

// NewCircuitHandler creates a new CircuitHandler.
func NewCircuitHandler(breaker ports.CircuitBreaker) *CircuitHandler {
	return &CircuitHandler{breaker: breaker}
}

// List handles GET /api/v1/circuits. An optional state filter narrows the
// result.
func (h *CircuitHandler) List(c *gin.Context) {
	state := c.Query("state")
	all := h.breaker.AllStats()
	out := make([]dto.CircuitResponse, 0, len(all))
	for _, s := range all {
		if state != "" && string(s.State) != state {
			continue
		}
		out = append(out, dto.NewCircuitResponse(s))
	}
	slices.SortFunc(out, func(a, b dto.CircuitResponse) int {
		return cmp.Compare(a.EndpointID, b.EndpointID)
	})
	response.OK(c, out)
}

// Get handles GET /api/v1/circuits/:endpoint_id.
func (h *CircuitHandler) Get(c *gin.Context) {
	endpointID, ok := h.endpointID(c)
	if !ok {
		return
	}
	stats, found := h.breaker.Stats(endpointID)
	if !found {
		response.Error(c, apperror.ErrCircuitNotFound())
		return
	}
	response.OK(c, dto.NewCircuitResponse(stats))
}

// Reset handles POST /api/v1/circuits/:endpoint_id/reset.
func (h *CircuitHandler) Reset(c *gin.Context) {
	endpointID, ok := h.endpointID(c)
	if !ok {
		return
	}
	if !h.breaker.Reset(endpointID) {
		response.Error(c, apperror.ErrCircuitNotFound())
		return
	}
	response.OK(c, dto.CircuitResetResponse{EndpointID: endpointID, Reset: true})
}

// ForceOpen handles POST /api/v1/circuits/:endpoint_id/force-open.
func (h *CircuitHandler) ForceOpen(c *gin.Context) {
	endpointID, ok := h.endpointID(c)
	if !ok {
		return
	}
	h.breaker.ForceOpen(endpointID)
	response.OK(c, dto.CircuitStateResponse{EndpointID: endpointID, State: h.breaker.State(endpointID)})
}

// ForceClose handles POST /api/v1/circuits/:endpoint_id/force-close.
func (h *CircuitHandler) ForceClose(c *gin.Context) {
	endpointID, ok := h.endpointID(c)
	if !ok {
		return
	}
	h.breaker.ForceClose(endpointID)
	response.OK(c, dto.CircuitStateResponse{EndpointID: endpointID, State: h.breaker.State(endpointID)})
}

// endpointID returns the canonical endpoint id, so breakers are never
// created under a malformed key.
func (h *CircuitHandler) endpointID(c *gin.Context) (string, bool) {
	id, ok := uuidParam(c, "endpoint_id")
	if !ok {
		response.Error(c, invalidParam("endpoint id"))
		return "", false
	}
	return id.String(), true
}
