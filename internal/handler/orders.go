package handler

import (
	"encoding/json"
	"net/http"

	"github.com/ajayishaq/rromisim/internal/domain/order"
)

type createOrderRequest struct {
	PlanID string `json:"planId"`
	Phone  string `json:"phone"`
	Email  string `json:"email"`
}

type paymentJSON struct {
	Reference        string `json:"reference"`
	AuthorizationURL string `json:"authorizationUrl"`
}

type createOrderResponse struct {
	OrderID string      `json:"orderId"`
	PlanID  string      `json:"planId"`
	Plan    string      `json:"plan"`
	Amount  json.Number `json:"amount"`
	Payment paymentJSON `json:"payment"`
}

func (h *Handler) createOrder(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	res, err := h.svc.CreateOrder(r.Context(), order.CreateOrderRequest{
		PlanID: req.PlanID,
		Phone:  req.Phone,
		Email:  req.Email,
	})
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, createOrderResponse{
		OrderID: res.Order.ID,
		PlanID:  res.Plan.ID,
		Plan:    res.Plan.Name,
		Amount:  json.Number(res.Order.Amount.String()),
		Payment: paymentJSON{
			Reference:        res.Order.PaymentReference,
			AuthorizationURL: res.AuthorizationURL,
		},
	})
}

type verifyOrderRequest struct {
	OrderID   string `json:"orderId"`
	Reference string `json:"reference"`
}

type esimJSON struct {
	ICCID          string `json:"iccid"`
	QRURL          string `json:"qrUrl"`
	ActivationCode string `json:"activationCode"`
	Instructions   string `json:"instructions"`
}

type verifyOrderResponse struct {
	OrderID   string   `json:"orderId"`
	Status    string   `json:"status"`
	EmailSent bool     `json:"emailSent"`
	ESIM      esimJSON `json:"esim"`
}

func (h *Handler) verifyOrder(w http.ResponseWriter, r *http.Request) {
	var req verifyOrderRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	res, err := h.svc.VerifyOrder(r.Context(), order.VerifyOrderRequest{
		OrderID:   req.OrderID,
		Reference: req.Reference,
	})
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, verifyOrderResponse{
		OrderID:   res.Order.ID,
		Status:    string(res.Order.Status),
		EmailSent: res.EmailSent,
		ESIM: esimJSON{
			ICCID:          res.Artifact.ICCID,
			QRURL:          res.Artifact.QRURL,
			ActivationCode: res.Artifact.ActivationCode,
			Instructions:   res.Artifact.Instructions,
		},
	})
}
