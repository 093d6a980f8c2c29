package handler

import (
	"webhook-dispatcher/internal/adapter/http/dto"
	"webhook-dispatcher/internal/core/ports"
	"webhook-dispatcher/pkg/apperror"
	"webhook-dispatcher/pkg/response"

	"github.com/gin-gonic/gin"
)

// CacheHandler handles subscription cache maintenance.
type CacheHandler struct {
	resolver ports.SubscriptionResolver
}

// NewCacheHandler creates a new CacheHandler.
func NewCacheHandler(resolver ports.SubscriptionResolver) *CacheHandler {
	return &CacheHandler{resolver: resolver}
}

// InvalidateSubscriptions handles POST /api/v1/cache/subscriptions/invalidate.
// Call it after subscriptions change so the next dispatch sees them.
func (h *CacheHandler) InvalidateSubscriptions(c *gin.Context) {
	removed, err := h.resolver.Invalidate(c.Request.Context())
	if err != nil {
		response.Error(c, apperror.ErrCacheUnavailable(err))
		return
	}
	response.OK(c, dto.CountResponse{Removed: removed})
}
