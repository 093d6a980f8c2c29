package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// DomainEvent is an immutable fact emitted by a producer. The dispatcher only
// ever sets ProcessedAt.
type DomainEvent struct {
	ID            uuid.UUID      `json:"id"`
	EventType     string         `json:"event_type"` // category.action
	AggregateType string         `json:"aggregate_type"`
	AggregateID   string         `json:"aggregate_id"`
	Payload       map[string]any `json:"payload"`
	ContextID     *uuid.UUID     `json:"context_id,omitempty"`
	CorrelationID *string        `json:"correlation_id,omitempty"`
	CausationID   *string        `json:"causation_id,omitempty"`
	OccurredAt    time.Time      `json:"occurred_at"`
	ProcessedAt   *time.Time     `json:"processed_at,omitempty"`
}

// Category returns the part of the event type before the first dot.
func (e *DomainEvent) Category() string {
	category, _, _ := strings.Cut(e.EventType, ".")
	return category
}

// Action returns the part of the event type after the first dot, or "" when
// the type has no action segment.
func (e *DomainEvent) Action() string {
	_, action, _ := strings.Cut(e.EventType, ".")
	return action
}

// IsProcessed returns true once the event has been dispatched.
func (e *DomainEvent) IsProcessed() bool {
	return e.ProcessedAt != nil
}

// ContextKey renders the context id for cache keys and headers.
func (e *DomainEvent) ContextKey() string {
	if e.ContextID == nil {
		return ""
	}
	return e.ContextID.String()
}
