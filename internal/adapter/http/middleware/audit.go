package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// Operator actions recorded in the audit trail.
const (
	ActionDispatchTrigger   = "dispatch.trigger"
	ActionDeliveryCancel    = "delivery.cancel"
	ActionRetryScan         = "delivery.retry_scan"
	ActionCircuitReset      = "circuit.reset"
	ActionCircuitForceOpen  = "circuit.force_open"
	ActionCircuitForceClose = "circuit.force_close"
	ActionDeadLetterProcess = "dead_letter.process"
	ActionDeadLetterRetry   = "dead_letter.retry"
	ActionDeadLetterCleanup = "dead_letter.cleanup"
	ActionCacheInvalidate   = "cache.invalidate"
)

// AuditLog writes one audit line per successful operator write. Reads and
// rejected requests are not audited.
func AuditLog(log zerolog.Logger) gin.HandlerFunc {
	audit := log.With().Str("component", "audit").Logger()
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Status() < 200 || c.Writer.Status() >= 300 {
			return
		}
		if c.Request.Method != http.MethodPost {
			return
		}

		action, resourceType := mapRouteToAction(c.FullPath())
		if action == "" {
			return
		}

		event := audit.Info().
			Str("action", action).
			Str("resource_type", resourceType).
			Str("operator", c.GetString(CtxOperator)).
			Str("client_ip", c.ClientIP()).
			Str("request_id", c.GetString(CtxRequestID)).
			Int("status", c.Writer.Status())
		for _, p := range c.Params {
			event = event.Str(p.Key, p.Value)
		}
		event.Msg("operator action")
	}
}

func mapRouteToAction(route string) (string, string) {
	switch route {
	case "/api/v1/dispatch":
		return ActionDispatchTrigger, "event"
	case "/api/v1/deliveries/:id/cancel":
		return ActionDeliveryCancel, "delivery"
	case "/api/v1/deliveries/retry":
		return ActionRetryScan, "delivery"
	case "/api/v1/circuits/:endpoint_id/reset":
		return ActionCircuitReset, "circuit"
	case "/api/v1/circuits/:endpoint_id/force-open":
		return ActionCircuitForceOpen, "circuit"
	case "/api/v1/circuits/:endpoint_id/force-close":
		return ActionCircuitForceClose, "circuit"
	case "/api/v1/dead-letters/process":
		return ActionDeadLetterProcess, "dead_letter"
	case "/api/v1/dead-letters/:delivery_id/retry":
		return ActionDeadLetterRetry, "dead_letter"
	case "/api/v1/dead-letters/cleanup":
		return ActionDeadLetterCleanup, "dead_letter"
	case "/api/v1/cache/subscriptions/invalidate":
		return ActionCacheInvalidate, "subscription_cache"
	}
	return "", ""
}
