package handler

import (
	"errors"
	"mime"
	"net/http"
	"time"

	"ypg-admin-api/internal/apperrors"
	"ypg-admin-api/internal/models"
)

// SubmitDonation handles POST /api/donations/submit/
// The body may be JSON or a urlencoded form.
func (h *Handler) SubmitDonation(w http.ResponseWriter, r *http.Request) {
	var in models.DonationInput

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "application/x-www-form-urlencoded":
		r.Body = http.MaxBytesReader(w, r.Body, h.maxBodySize)
		if err := r.ParseForm(); err != nil {
			h.respondError(w, http.StatusBadRequest, "invalid form body")
			return
		}
		in = models.DonationInputFromValues(r.PostForm)
	default:
		if !h.decodeJSON(w, r, &in) {
			return
		}
	}

	d, err := h.service.SubmitDonation(r.Context(), in, time.Now())
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	message := "Donation submitted successfully"
	if d.Status == models.StatusVerified {
		message = "Donation received and verified"
	}

	h.respondJSON(w, http.StatusCreated, models.SubmitDonationResponse{
		Success:     true,
		Message:     message,
		DonationID:  d.ID,
		ReceiptCode: d.ReceiptCode,
		Status:      d.Status,
	})
}

// ProcessPayment handles POST /api/donations/process-payment/
func (h *Handler) ProcessPayment(w http.ResponseWriter, r *http.Request) {
	var req models.ProcessPaymentRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}
	if req.DonationID <= 0 {
		h.respondJSON(w, http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error:   "validation failed",
			Errors:  map[string]string{"donation_id": "is required"},
		})
		return
	}

	d, err := h.service.ProcessCardPayment(r.Context(), req.DonationID, req.CardToken)
	if errors.Is(err, apperrors.ErrPaymentFailed) {
		h.respondJSON(w, http.StatusBadRequest, models.PaymentDeclinedResponse{
			Success:  false,
			Error:    err.Error(),
			Donation: d,
		})
		return
	}
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	h.respondJSON(w, http.StatusOK, models.ProcessPaymentResponse{
		Success:       true,
		TransactionID: d.TransactionID,
		Donation:      d,
	})
}

// ListDonations handles GET /api/donations/
func (h *Handler) ListDonations(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := models.DonationFilter{
		Status:        q.Get("status"),
		Purpose:       q.Get("purpose"),
		PaymentMethod: q.Get("payment_method"),
	}

	donations, analytics, err := h.service.ListDonations(r.Context(), filter)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	h.respondJSON(w, http.StatusOK, models.DonationListResponse{
		Success:   true,
		Donations: donations,
		Analytics: analytics,
	})
}

// VerifyDonation handles POST /api/donations/{id}/verify/
func (h *Handler) VerifyDonation(w http.ResponseWriter, r *http.Request) {
	id, ok := h.idParam(w, r, "id")
	if !ok {
		return
	}

	d, err := h.service.VerifyDonation(r.Context(), id, supervisorName(r))
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	h.respondJSON(w, http.StatusOK, models.DonationResponse{
		Success:  true,
		Message:  "Donation verified successfully",
		Donation: d,
	})
}

// CancelDonation handles POST /api/donations/{id}/cancel/
func (h *Handler) CancelDonation(w http.ResponseWriter, r *http.Request) {
	id, ok := h.idParam(w, r, "id")
	if !ok {
		return
	}

	d, err := h.service.CancelDonation(r.Context(), id)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	h.respondJSON(w, http.StatusOK, models.DonationResponse{
		Success:  true,
		Message:  "Donation cancelled",
		Donation: d,
	})
}

// DeleteDonation handles DELETE /api/donations/{id}/delete/
func (h *Handler) DeleteDonation(w http.ResponseWriter, r *http.Request) {
	id, ok := h.idParam(w, r, "id")
	if !ok {
		return
	}

	if err := h.service.DeleteDonation(r.Context(), id); err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	h.respondJSON(w, http.StatusOK, models.MessageResponse{
		Success: true,
		Message: "Donation deleted successfully",
	})
}
