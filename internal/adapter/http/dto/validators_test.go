package dto

import (
	"testing"

	"github.com/gin-gonic/gin/binding"
	"github.com/stretchr/testify/assert"
)

func TestSanitizeStruct_TrimsAndEscapes(t *testing.T) {
	req := CancelDeliveryRequest{Reason: "  endpoint <script>alert('x')</script> retired  "}
	SanitizeStruct(&req)

	assert.Equal(t, "endpoint &lt;script&gt;alert(&#39;x&#39;)&lt;/script&gt; retired", req.Reason)
}

func TestSanitizeStruct_HandlesPointerString(t *testing.T) {
	id := "  0b7c1f9e-8d5c-4a43-b7f4-5a0d5fb0a1f2  "
	req := RetryDeadLetterRequest{NewEndpointID: &id}
	SanitizeStruct(&req)

	assert.Equal(t, "0b7c1f9e-8d5c-4a43-b7f4-5a0d5fb0a1f2", *req.NewEndpointID)
}

func TestSanitizeStruct_NilPointerIsNoOp(t *testing.T) {
	req := RetryDeadLetterRequest{}
	SanitizeStruct(&req)
	assert.Nil(t, req.NewEndpointID)
}

func TestSanitizeStruct_NonPointerIsNoOp(t *testing.T) {
	req := CancelDeliveryRequest{Reason: " x "}
	SanitizeStruct(req)
	assert.Equal(t, " x ", req.Reason)
}

func TestIsDeadLetterReason(t *testing.T) {
	assert.True(t, IsDeadLetterReason("MAX_RETRIES_EXCEEDED"))
	assert.True(t, IsDeadLetterReason("CIRCUIT_BREAKER_PERMANENT"))
	assert.False(t, IsDeadLetterReason("max_retries_exceeded"))
	assert.False(t, IsDeadLetterReason(""))
}

func TestDeadLetterListQuery_Validation(t *testing.T) {
	tests := []struct {
		name    string
		query   DeadLetterListQuery
		wantErr bool
	}{
		{"empty", DeadLetterListQuery{}, false},
		{"known reason", DeadLetterListQuery{Reason: "PERMANENT_4XX"}, false},
		{"unknown reason", DeadLetterListQuery{Reason: "BOGUS"}, true},
		{"bad endpoint id", DeadLetterListQuery{EndpointID: "not-a-uuid"}, true},
		{"page size too large", DeadLetterListQuery{PageSize: 500}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := binding.Validator.ValidateStruct(&tt.query)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestDispatchRequest_Validation(t *testing.T) {
	assert.NoError(t, binding.Validator.ValidateStruct(&DispatchRequest{}))
	assert.NoError(t, binding.Validator.ValidateStruct(&DispatchRequest{Mode: ModeStream, Limit: 100}))
	assert.Error(t, binding.Validator.ValidateStruct(&DispatchRequest{Mode: "turbo"}))
	assert.Error(t, binding.Validator.ValidateStruct(&DispatchRequest{Limit: 20000}))
}
