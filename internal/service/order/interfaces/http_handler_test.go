package interfaces

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"verdant/internal/service/order/domain"
)

func TestWriteDomainErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"unauthenticated", domain.ErrUnauthenticated, http.StatusUnauthorized, "UNAUTHENTICATED"},
		{"unauthorized", domain.ErrUnauthorized, http.StatusForbidden, "UNAUTHORIZED"},
		{"order not found", domain.ErrOrderNotFound, http.StatusNotFound, "NOT_FOUND"},
		{"product not found", &domain.ProductNotFoundError{ProductID: "p1"}, http.StatusNotFound, "PRODUCT_NOT_FOUND"},
		{"insufficient stock", &domain.InsufficientStockError{ProductID: "p1", Available: 1}, http.StatusConflict, "INSUFFICIENT_STOCK"},
		{"validation", &domain.ValidationError{Reason: "cart is empty"}, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"invalid transition", domain.ErrInvalidStateTransition, http.StatusConflict, "INVALID_STATE_TRANSITION"},
		{"conflict", domain.ErrTxConflict, http.StatusServiceUnavailable, "TRANSACTION_CONFLICT"},
		{"unknown", assert.AnError, http.StatusInternalServerError, "INTERNAL"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			writeDomainError(rec, tt.err)

			assert.Equal(t, tt.status, rec.Code)
			var body map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.code, body["code"])
			assert.NotEmpty(t, body["message"])
		})
	}
}
