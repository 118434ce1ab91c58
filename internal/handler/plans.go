package handler

import (
	"encoding/json"
	"net/http"

	"github.com/ajayishaq/rromisim/internal/domain/plan"
)

// planJSON mirrors the catalog seed field names so API consumers see the
// same shape the plans were defined with.
type planJSON struct {
	ID       string      `json:"id"`
	Name     string      `json:"name"`
	Country  string      `json:"country"`
	Data     string      `json:"data"`
	Duration string      `json:"duration"`
	Price    json.Number `json:"price"`
	Speed    string      `json:"speed"`
}

func toPlanJSON(p plan.Plan) planJSON {
	return planJSON{
		ID:       p.ID,
		Name:     p.Name,
		Country:  p.Country,
		Data:     p.DataAllowance,
		Duration: p.DurationDays,
		Price:    json.Number(p.Price.String()),
		Speed:    p.SpeedTier,
	}
}

func (h *Handler) listPlans(w http.ResponseWriter, r *http.Request) {
	plans, err := h.plans.List(r.Context())
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	out := make([]planJSON, len(plans))
	for i, p := range plans {
		out[i] = toPlanJSON(p)
	}
	writeJSON(w, http.StatusOK, map[string]any{"plans": out})
}

func (h *Handler) getPlan(w http.ResponseWriter, r *http.Request) {
	p, err := h.plans.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toPlanJSON(*p))
}
