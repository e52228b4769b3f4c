package dto

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetHTTPStatus(t *testing.T) {
	tests := []struct {
		code string
		want int
	}{
		{"NOT_FOUND", http.StatusNotFound},
		{"CONCURRENCY_CONFLICT", http.StatusConflict},
		{"INSUFFICIENT_STOCK", http.StatusUnprocessableEntity},
		{"ACCOUNT_NOT_FOUND", http.StatusUnprocessableEntity},
		{"UNBALANCED_ENTRY", http.StatusInternalServerError},
		{"INVALID_QUANTITY", http.StatusBadRequest},
		{"MISSING_UNIT_COST", http.StatusBadRequest},
		{ErrCodeInternal, http.StatusInternalServerError},
		{"SOME_BUSINESS_RULE", http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.want, GetHTTPStatus(tt.code))
		})
	}
}

func TestResponses(t *testing.T) {
	ok := NewSuccessResponse(map[string]string{"k": "v"})
	assert.True(t, ok.Success)
	assert.Nil(t, ok.Error)

	fail := NewErrorResponse("INSUFFICIENT_STOCK", "Insufficient stock available", "req-1")
	assert.False(t, fail.Success)
	assert.Equal(t, "INSUFFICIENT_STOCK", fail.Error.Code)
	assert.Equal(t, "req-1", fail.Error.RequestID)
}
