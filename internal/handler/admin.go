package handler

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/ajayishaq/rromisim/internal/domain/order"
)

const adminOrderLimit = 100

type adminOrderJSON struct {
	OrderID          string      `json:"orderId"`
	PlanID           string      `json:"planId"`
	Phone            string      `json:"phone"`
	Email            string      `json:"email"`
	Status           string      `json:"status"`
	PaymentReference string      `json:"paymentReference"`
	Amount           json.Number `json:"amount"`
	ESIM             *esimField  `json:"esim,omitempty"`
	CreatedAt        time.Time   `json:"createdAt"`
	UpdatedAt        time.Time   `json:"updatedAt"`
}

type esimField struct {
	ICCID          string `json:"iccid"`
	QRURL          string `json:"qrUrl"`
	ActivationCode string `json:"activationCode"`
}

type statsJSON struct {
	TotalOrders     int64       `json:"totalOrders"`
	CompletedOrders int64       `json:"completedOrders"`
	TotalRevenue    json.Number `json:"totalRevenue"`
	TotalCustomers  int64       `json:"totalCustomers"`
}

// authorized checks the Bearer token in constant time. An unset server token
// fails closed.
func (h *Handler) authorized(r *http.Request) bool {
	if h.cfg.AdminToken == "" {
		return false
	}
	auth := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(auth, "Bearer ")
	if !ok {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(token), []byte(h.cfg.AdminToken)) == 1
}

func (h *Handler) adminOrders(w http.ResponseWriter, r *http.Request) {
	if !h.authorized(r) {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	orders, err := h.orders.ListRecent(r.Context(), adminOrderLimit)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	stats, err := h.orders.Stats(r.Context())
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	out := make([]adminOrderJSON, len(orders))
	for i, o := range orders {
		out[i] = toAdminOrderJSON(o)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"orders": out,
		"stats": statsJSON{
			TotalOrders:     stats.TotalOrders,
			CompletedOrders: stats.CompletedOrders,
			TotalRevenue:    json.Number(stats.TotalRevenue.String()),
			TotalCustomers:  stats.TotalCustomers,
		},
	})
}

func toAdminOrderJSON(o order.Order) adminOrderJSON {
	out := adminOrderJSON{
		OrderID:          o.ID,
		PlanID:           o.PlanID,
		Phone:            o.Phone,
		Email:            o.Email,
		Status:           string(o.Status),
		PaymentReference: o.PaymentReference,
		Amount:           json.Number(o.Amount.String()),
		CreatedAt:        o.CreatedAt,
		UpdatedAt:        o.UpdatedAt,
	}
	if o.ESIM != nil {
		out.ESIM = &esimField{
			ICCID:          o.ESIM.ICCID,
			QRURL:          o.ESIM.QRURL,
			ActivationCode: o.ESIM.ActivationCode,
		}
	}
	return out
}
