package handler

import (
	"time"

	"webhook-dispatcher/internal/adapter/http/dto"
	"webhook-dispatcher/internal/core/ports"
	"webhook-dispatcher/pkg/apperror"
	"webhook-dispatcher/pkg/response"

	"github.com/gin-gonic/gin"
)

// DispatchHandler exposes manual dispatch passes and the event backlog.
type DispatchHandler struct {
	dispatcher  ports.EventDispatcher
	defaults    ports.DispatchOptions
	defaultMode string
}

// NewDispatchHandler creates a new DispatchHandler. defaults fill in any
// option the request leaves at zero.
func NewDispatchHandler(dispatcher ports.EventDispatcher, defaults ports.DispatchOptions, defaultMode string) *DispatchHandler {
	if defaultMode == "" {
		defaultMode = dto.ModeBatch
	}
	return &DispatchHandler{dispatcher: dispatcher, defaults: defaults, defaultMode: defaultMode}
}

// Trigger handles POST /api/v1/dispatch.
func (h *DispatchHandler) Trigger(c *gin.Context) {
	var req dto.DispatchRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		response.Error(c, err)
		return
	}

	mode := req.Mode
	if mode == "" {
		mode = h.defaultMode
	}
	opts := h.defaults
	if req.Limit > 0 {
		opts.Limit = req.Limit
	}
	if req.BatchSize > 0 {
		opts.BatchSize = req.BatchSize
	}
	if req.MaxConcurrentBatches > 0 {
		opts.MaxConcurrentBatches = req.MaxConcurrentBatches
	}

	ctx := c.Request.Context()
	start := time.Now()
	var (
		processed int
		err       error
	)
	switch mode {
	case dto.ModeStream:
		processed, err = h.dispatcher.DispatchStream(ctx, ports.StreamOptions{MaxEvents: opts.Limit})
	case dto.ModeHighThroughput:
		processed, err = h.dispatcher.DispatchHighThroughput(ctx, opts)
	default:
		processed, err = h.dispatcher.DispatchUnprocessedEvents(ctx, opts)
	}
	if err != nil {
		response.Error(c, apperror.InternalError(err))
		return
	}

	response.OK(c, dto.DispatchResponse{
		Mode:       mode,
		Processed:  processed,
		DurationMs: time.Since(start).Milliseconds(),
	})
}

// Backlog handles GET /api/v1/events/backlog.
func (h *DispatchHandler) Backlog(c *gin.Context) {
	page, pageSize := pageParams(c)

	events, total, err := h.dispatcher.Backlog(c.Request.Context(), pageSize, (page-1)*pageSize)
	if err != nil {
		response.Error(c, apperror.ErrDatabaseError(err))
		return
	}

	response.Page(c, events, total, page, pageSize)
}
