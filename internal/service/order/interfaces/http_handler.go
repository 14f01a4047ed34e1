package interfaces

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"verdant/internal/pkg/logger"
	"verdant/internal/service/order/application"
	"verdant/internal/service/order/domain"
)

const serviceName = "order-service"

// customerHeader carries the authenticated principal id, injected by the API
// gateway after session validation. This service never sees credentials.
const customerHeader = "X-Customer-Id"

// OrderHandler exposes the order engine over HTTP.
type OrderHandler struct {
	service *application.OrderApplicationService
}

func NewOrderHandler(service *application.OrderApplicationService) *OrderHandler {
	return &OrderHandler{service: service}
}

// RegisterRoutes mounts all routes on the ServeMux.
func (h *OrderHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("POST /orders", h.placeOrder)
	mux.HandleFunc("POST /orders/cancel", h.cancelOrder)
	mux.HandleFunc("GET /orders", h.listOrders)
	mux.HandleFunc("GET /orders/get", h.getOrder)
}

func (h *OrderHandler) placeOrder(w http.ResponseWriter, r *http.Request) {
	ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))
	ctx, span := otel.Tracer(serviceName).Start(ctx, "http.PlaceOrder")
	defer span.End()

	var req application.PlaceOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", "malformed request body")
		return
	}

	resp, err := h.service.PlaceOrder(ctx, r.Header.Get(customerHeader), &req)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (h *OrderHandler) cancelOrder(w http.ResponseWriter, r *http.Request) {
	ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))
	ctx, span := otel.Tracer(serviceName).Start(ctx, "http.CancelOrder")
	defer span.End()

	orderID := r.URL.Query().Get("orderId")
	if orderID == "" {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", "orderId is required")
		return
	}

	err := h.service.CancelOrder(ctx, r.Header.Get(customerHeader), orderID)
	var partial *domain.PartialCompensationError
	if errors.As(err, &partial) {
		// The customer-visible invariant held: order cancelled, stock back.
		// Report success with a warning; the reconciler owns the rest.
		writeJSON(w, http.StatusOK, map[string]string{
			"status":  string(domain.StatusCancelled),
			"warning": "vendor sub-order updates are still propagating",
		})
		return
	}
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": string(domain.StatusCancelled)})
}

func (h *OrderHandler) listOrders(w http.ResponseWriter, r *http.Request) {
	ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))
	ctx, span := otel.Tracer(serviceName).Start(ctx, "http.ListOrders")
	defer span.End()

	views, err := h.service.ListOrders(ctx, r.Header.Get(customerHeader))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, views)
}

func (h *OrderHandler) getOrder(w http.ResponseWriter, r *http.Request) {
	ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))
	ctx, span := otel.Tracer(serviceName).Start(ctx, "http.GetOrder")
	defer span.End()

	orderID := r.URL.Query().Get("orderId")
	if orderID == "" {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", "orderId is required")
		return
	}
	view, err := h.service.GetOrder(ctx, r.Header.Get(customerHeader), orderID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// writeDomainError maps the typed error taxonomy onto stable codes. Unknown
// errors are logged and returned as opaque 500s.
func writeDomainError(w http.ResponseWriter, err error) {
	var validation *domain.ValidationError
	var notFound *domain.ProductNotFoundError
	var insufficient *domain.InsufficientStockError

	switch {
	case errors.Is(err, domain.ErrUnauthenticated):
		writeError(w, http.StatusUnauthorized, "UNAUTHENTICATED", "authentication required")
	case errors.Is(err, domain.ErrUnauthorized):
		writeError(w, http.StatusForbidden, "UNAUTHORIZED", "you do not own this order")
	case errors.Is(err, domain.ErrOrderNotFound):
		writeError(w, http.StatusNotFound, "NOT_FOUND", "order not found")
	case errors.As(err, &notFound):
		writeError(w, http.StatusNotFound, "PRODUCT_NOT_FOUND", notFound.Error())
	case errors.As(err, &insufficient):
		writeError(w, http.StatusConflict, "INSUFFICIENT_STOCK", insufficient.Error())
	case errors.As(err, &validation):
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", validation.Error())
	case errors.Is(err, domain.ErrInvalidStateTransition):
		writeError(w, http.StatusConflict, "INVALID_STATE_TRANSITION", "order can no longer be cancelled")
	case errors.Is(err, domain.ErrTxConflict):
		writeError(w, http.StatusServiceUnavailable, "TRANSACTION_CONFLICT", "store is busy, please retry")
	default:
		logger.Logger().Error().Err(err).Msg("unhandled error in order handler")
		writeError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
	}
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]string{"code": code, "message": message})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
