package dto

import (
	"html"
	"reflect"
	"strings"

	"webhook-dispatcher/internal/core/domain"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var deadLetterReasons = map[domain.DeadLetterReason]struct{}{
	domain.ReasonMaxRetriesExceeded:      {},
	domain.ReasonCircuitBreakerPermanent: {},
	domain.ReasonEndpointDisabled:        {},
	domain.ReasonEndpointDeleted:         {},
	domain.ReasonPermanent4xx:            {},
	domain.ReasonSecurityViolation:       {},
	domain.ReasonConfigurationError:      {},
	domain.ReasonManual:                  {},
}

func init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("dead_letter_reason", validateDeadLetterReason)
	}
}

func validateDeadLetterReason(fl validator.FieldLevel) bool {
	return IsDeadLetterReason(fl.Field().String())
}

// IsDeadLetterReason reports whether s names a known dead letter reason.
func IsDeadLetterReason(s string) bool {
	_, ok := deadLetterReasons[domain.DeadLetterReason(s)]
	return ok
}

// SanitizeStruct trims whitespace and HTML-escapes every exported string
// field (including *string) of a struct pointer. Operator supplied free text
// ends up in audit rows and the admin UI.
func SanitizeStruct(v any) {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Pointer || rv.Elem().Kind() != reflect.Struct {
		return
	}
	rv = rv.Elem()
	for i := 0; i < rv.NumField(); i++ {
		f := rv.Field(i)
		if !f.CanSet() {
			continue
		}
		switch f.Kind() {
		case reflect.String:
			f.SetString(sanitize(f.String()))
		case reflect.Pointer:
			if !f.IsNil() && f.Elem().Kind() == reflect.String {
				f.Elem().SetString(sanitize(f.Elem().String()))
			}
		}
	}
}

func sanitize(s string) string {
	return html.EscapeString(strings.TrimSpace(s))
}
