package domain

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// PatternKind orders subscription patterns by specificity.
type PatternKind int

const (
	PatternGlobal   PatternKind = iota // "*"
	PatternCategory                    // "order.*"
	PatternExact                       // "order.created"
)

// GlobalPattern matches every event type.
const GlobalPattern = "*"

// ConditionOperator is a field-level comparison.
type ConditionOperator string

const (
	OpEquals      ConditionOperator = "eq"
	OpNotEquals   ConditionOperator = "ne"
	OpIn          ConditionOperator = "in"
	OpNotIn       ConditionOperator = "not_in"
	OpExists      ConditionOperator = "exists"
	OpContains    ConditionOperator = "contains"
	OpGreaterThan ConditionOperator = "gt"
	OpGreaterEq   ConditionOperator = "gte"
	OpLessThan    ConditionOperator = "lt"
	OpLessEq      ConditionOperator = "lte"
)

// FieldCondition filters on a dotted path into the event payload.
type FieldCondition struct {
	Field    string            `json:"field"`
	Operator ConditionOperator `json:"operator"`
	Value    any               `json:"value,omitempty"`
}

// WebhookSubscription binds an endpoint to an event-type pattern.
type WebhookSubscription struct {
	ID             uuid.UUID        `json:"id"`
	EndpointID     uuid.UUID        `json:"endpoint_id"`
	EventPattern   string           `json:"event_pattern"`
	Conditions     []FieldCondition `json:"conditions,omitempty"`
	ContextFilters []uuid.UUID      `json:"context_filters,omitempty"`
	IsActive       bool             `json:"is_active"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
}

// PatternKind classifies the subscription pattern.
func (s *WebhookSubscription) PatternKind() PatternKind {
	switch {
	case s.EventPattern == GlobalPattern:
		return PatternGlobal
	case strings.HasSuffix(s.EventPattern, ".*"):
		return PatternCategory
	default:
		return PatternExact
	}
}

// MatchesType reports whether the pattern covers eventType.
func (s *WebhookSubscription) MatchesType(eventType string) bool {
	switch s.PatternKind() {
	case PatternGlobal:
		return true
	case PatternCategory:
		return strings.HasPrefix(eventType, strings.TrimSuffix(s.EventPattern, "*"))
	default:
		return s.EventPattern == eventType
	}
}

// MatchesContext reports whether the event context passes the filters. An
// empty filter list accepts every context.
func (s *WebhookSubscription) MatchesContext(contextID *uuid.UUID) bool {
	if len(s.ContextFilters) == 0 {
		return true
	}
	if contextID == nil {
		return false
	}
	for _, id := range s.ContextFilters {
		if id == *contextID {
			return true
		}
	}
	return false
}

// Matches applies type, context and field conditions; all must pass.
func (s *WebhookSubscription) Matches(event *DomainEvent) bool {
	if !s.IsActive || !s.MatchesType(event.EventType) || !s.MatchesContext(event.ContextID) {
		return false
	}
	for _, cond := range s.Conditions {
		if !cond.Evaluate(event.Payload) {
			return false
		}
	}
	return true
}

// CandidatePatterns lists every pattern that can match eventType, most
// specific first.
func CandidatePatterns(eventType string) []string {
	patterns := []string{eventType}
	if category, _, ok := strings.Cut(eventType, "."); ok {
		patterns = append(patterns, category+".*")
	}
	return append(patterns, GlobalPattern)
}

// Evaluate applies the condition to a payload.
func (c FieldCondition) Evaluate(payload map[string]any) bool {
	actual, found := lookupPath(payload, c.Field)
	switch c.Operator {
	case OpExists:
		want := true
		if b, ok := c.Value.(bool); ok {
			want = b
		}
		return found == want
	case OpNotEquals:
		return !found || !looseEqual(actual, c.Value)
	case OpNotIn:
		return !found || !inList(actual, c.Value)
	}
	if !found {
		return false
	}
	switch c.Operator {
	case OpEquals, "":
		return looseEqual(actual, c.Value)
	case OpIn:
		return inList(actual, c.Value)
	case OpContains:
		return contains(actual, c.Value)
	case OpGreaterThan, OpGreaterEq, OpLessThan, OpLessEq:
		a, okA := toFloat(actual)
		b, okB := toFloat(c.Value)
		if !okA || !okB {
			return false
		}
		switch c.Operator {
		case OpGreaterThan:
			return a > b
		case OpGreaterEq:
			return a >= b
		case OpLessThan:
			return a < b
		default:
			return a <= b
		}
	}
	return false
}

func lookupPath(payload map[string]any, path string) (any, bool) {
	if path == "" {
		return nil, false
	}
	var current any = payload
	for _, part := range strings.Split(path, ".") {
		m, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = m[part]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

func looseEqual(a, b any) bool {
	if fa, ok := toFloat(a); ok {
		if fb, ok := toFloat(b); ok {
			return fa == fb
		}
	}
	if reflect.DeepEqual(a, b) {
		return true
	}
	return fmt.Sprint(a) == fmt.Sprint(b)
}

func inList(actual, list any) bool {
	items, ok := list.([]any)
	if !ok {
		if strs, ok := list.([]string); ok {
			for _, s := range strs {
				if looseEqual(actual, s) {
					return true
				}
			}
		}
		return false
	}
	for _, item := range items {
		if looseEqual(actual, item) {
			return true
		}
	}
	return false
}

func contains(actual, want any) bool {
	switch v := actual.(type) {
	case string:
		s, ok := want.(string)
		return ok && strings.Contains(v, s)
	case []any:
		for _, item := range v {
			if looseEqual(item, want) {
				return true
			}
		}
	}
	return false
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	}
	return 0, false
}
