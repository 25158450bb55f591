package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/ceureg/ceureg/internal/email"
	"github.com/ceureg/ceureg/internal/model"
	"github.com/ceureg/ceureg/internal/repository"
	"github.com/ceureg/ceureg/internal/service"
)

// SendCertificatesRequest is the request body for a delivery run. A nil
// recipient list targets every attendee without a prior successful send;
// an explicit list restricts the run to those addresses.
type SendCertificatesRequest struct {
	RecipientEmails []string `json:"recipient_emails"`
	DryRun          bool     `json:"dry_run"`
}

// SendCertificates runs a certificate delivery batch for an event
func (h *Handler) SendCertificates(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("id")

	var req SendCertificatesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err != io.EOF {
		writeError(w, http.StatusBadRequest, "invalid_request", "Invalid request body")
		return
	}

	summary, err := h.deliverySvc.DeliverCertificates(r.Context(), eventID, req.RecipientEmails, req.DryRun)
	if err != nil {
		h.writeDeliveryError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, summary)
}

// GetEvent resolves an event by the public identifier embedded in
// certificate links (legacy id or primary id)
func (h *Handler) GetEvent(w http.ResponseWriter, r *http.Request) {
	event, err := h.deliverySvc.ResolveEvent(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeDeliveryError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, event)
}

// ListDeliveries returns the delivery ledger for an event, optionally
// filtered by status
func (h *Handler) ListDeliveries(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("id")
	status := model.DeliveryStatus(r.URL.Query().Get("status"))

	switch status {
	case "", model.DeliveryStatusSent, model.DeliveryStatusFailed, model.DeliveryStatusSkipped:
	default:
		writeError(w, http.StatusBadRequest, "invalid_status", "Unknown delivery status filter")
		return
	}

	deliveries, err := h.deliverySvc.Deliveries(r.Context(), eventID, status)
	if err != nil {
		h.writeDeliveryError(w, err)
		return
	}
	if deliveries == nil {
		deliveries = []model.EmailDelivery{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"deliveries": deliveries,
	})
}

// DeliveryCoverage reports which attendees already have a successful
// delivery on record
func (h *Handler) DeliveryCoverage(w http.ResponseWriter, r *http.Request) {
	coverage, err := h.deliverySvc.Coverage(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeDeliveryError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, coverage)
}

func (h *Handler) writeDeliveryError(w http.ResponseWriter, err error) {
	var authErr *email.AuthError
	switch {
	case errors.Is(err, repository.ErrNotFound):
		writeError(w, http.StatusNotFound, "event_not_found", "Event not found")
	case errors.Is(err, service.ErrMissingProviderID):
		writeError(w, http.StatusUnprocessableEntity, "event_not_deliverable", err.Error())
	case errors.As(err, &authErr):
		writeError(w, http.StatusBadGateway, "token_exchange_failed", authErr.Error())
	default:
		h.log.Error().Err(err).Msg("delivery request failed")
		writeError(w, http.StatusInternalServerError, "internal_error", "An unexpected error occurred")
	}
}
