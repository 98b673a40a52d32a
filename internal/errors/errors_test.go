package errors

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSentinelMatching(t *testing.T) {
	err := NewError("order not found").
		WithHint("Order not found").
		Mark(ErrNotFound)

	assert.True(t, IsNotFound(err))
	assert.False(t, IsValidation(err))
	assert.False(t, IsInvalidOperation(err))
	assert.False(t, IsVersionConflict(err))
}

func TestHTTPStatusFromErr(t *testing.T) {
	tests := []struct {
		name     string
		sentinel error
		want     int
	}{
		{"not found", ErrNotFound, http.StatusNotFound},
		{"already exists", ErrAlreadyExists, http.StatusConflict},
		{"version conflict", ErrVersionConflict, http.StatusConflict},
		{"validation", ErrValidation, http.StatusBadRequest},
		{"invalid operation", ErrInvalidOperation, http.StatusBadRequest},
		{"system", ErrSystem, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewError("boom").Mark(tt.sentinel)
			assert.Equal(t, tt.want, HTTPStatusFromErr(err))
		})
	}
}

func TestHTTPStatusFromUnmarkedErr(t *testing.T) {
	assert.Equal(t, http.StatusInternalServerError, HTTPStatusFromErr(NewError("boom").Error()))
}
