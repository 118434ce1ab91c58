package handler

import (
	"net/http"

	qrcode "github.com/skip2/go-qrcode"
)

const qrImageSize = 256

// esimQR renders the stored activation code as a PNG QR image. Serving the
// image locally avoids depending on the remote QR service that the stored
// qrUrl points at, which many email clients refuse to load.
func (h *Handler) esimQR(w http.ResponseWriter, r *http.Request) {
	o, err := h.orders.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	if o.ESIM == nil {
		writeError(w, http.StatusNotFound, "order has no esim issued")
		return
	}

	png, err := qrcode.Encode(o.ESIM.ActivationCode, qrcode.Medium, qrImageSize)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "private, max-age=86400")
	_, _ = w.Write(png)
}
