package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/ajayishaq/rromisim/internal/domain/order"
	"github.com/ajayishaq/rromisim/internal/domain/plan"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, errorResponse{Error: msg})
}

// writeDomainError maps domain errors to HTTP responses. Vendor failures
// surface their message for diagnostics; anything unforeseen becomes an
// opaque 500 and is logged with its full chain.
func (h *Handler) writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		vErr *order.ValidationError
		gErr *order.GatewayError
		dErr *order.DeliveryError
	)
	switch {
	case errors.As(err, &vErr):
		writeError(w, http.StatusBadRequest, vErr.Error())
	case errors.Is(err, order.ErrPaymentNotConfirmed):
		writeError(w, http.StatusBadRequest, "payment not confirmed")
	case errors.Is(err, plan.ErrNotFound):
		writeError(w, http.StatusNotFound, "plan not found")
	case errors.Is(err, order.ErrNotFound):
		writeError(w, http.StatusNotFound, "order not found")
	case errors.As(err, &gErr):
		writeError(w, http.StatusInternalServerError, gErr.Error())
	case errors.As(err, &dErr):
		writeError(w, http.StatusInternalServerError, dErr.Error())
	default:
		zctx.From(r.Context()).Error("unhandled error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

func decodeBody(r *http.Request, v any) error {
	defer func() { _ = r.Body.Close() }()
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return errors.Wrap(err, "decode request body")
	}
	return nil
}
