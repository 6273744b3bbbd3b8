// Package httpapi exposes the verifier's REST surface.
package httpapi

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/Dante9988/AI-Content-Checker-Blockchain-Proof/internal/app/domain/verification"
	"github.com/Dante9988/AI-Content-Checker-Blockchain-Proof/internal/app/metrics"
	"github.com/Dante9988/AI-Content-Checker-Blockchain-Proof/internal/app/services/settlement"
	"github.com/Dante9988/AI-Content-Checker-Blockchain-Proof/internal/app/storage"
	"github.com/Dante9988/AI-Content-Checker-Blockchain-Proof/internal/ledger"
)

// maxImageBytes bounds request bodies; larger submissions are caller errors.
const maxImageBytes = 16 << 20

// handler bundles HTTP endpoints for the verifier.
type handler struct {
	settlement *settlement.Service
	store      storage.VerificationStore
}

// NewHandler returns a mux exposing the verification REST API, instrumented
// with HTTP metrics.
func NewHandler(svc *settlement.Service, store storage.VerificationStore) http.Handler {
	h := &handler{settlement: svc, store: store}
	mux := http.NewServeMux()
	mux.HandleFunc("/verify", h.verify)
	mux.HandleFunc("/verifications", h.verifications)
	mux.HandleFunc("/verifications/", h.verificationByFingerprint)
	mux.HandleFunc("/healthz", h.healthz)
	mux.Handle("/metrics", metrics.Handler())
	return metrics.InstrumentHandler(mux)
}

func (h *handler) verify(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var payload struct {
		ImageBase64        string `json:"image_base64"`
		RequireLedgerWrite bool   `json:"require_ledger_write"`
		Payer              string `json:"payer"`
		Detailed           bool   `json:"detailed"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	image, err := base64.StdEncoding.DecodeString(payload.ImageBase64)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("decode image_base64: %w", err))
		return
	}

	result, err := h.settlement.Verify(r.Context(), image, settlement.Options{
		RequireLedgerWrite: payload.RequireLedgerWrite,
		Payer:              payload.Payer,
		Detailed:           payload.Detailed,
	})
	if err != nil {
		writeFault(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *handler) verifications(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if h.store == nil {
		writeJSON(w, http.StatusOK, []verification.Entry{})
		return
	}

	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	entries, err := h.store.ListVerifications(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if entries == nil {
		entries = []verification.Entry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

func (h *handler) verificationByFingerprint(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	fp := strings.Trim(strings.TrimPrefix(r.URL.Path, "/verifications"), "/")
	if fp == "" {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	record, err := h.settlement.GetRecord(r.Context(), verification.Fingerprint(fp))
	if err != nil {
		switch {
		case errors.Is(err, ledger.ErrNotFound):
			writeError(w, http.StatusNotFound, err)
		case errors.Is(err, verification.ErrInvalidInput):
			writeError(w, http.StatusBadRequest, err)
		case errors.Is(err, ledger.ErrUnavailable):
			writeError(w, http.StatusServiceUnavailable, err)
		default:
			writeError(w, http.StatusInternalServerError, err)
		}
		return
	}
	writeJSON(w, http.StatusOK, record)
}

func (h *handler) healthz(w http.ResponseWriter, r *http.Request) {
	ledgerHealthy := h.settlement.Healthy(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "healthy",
		"ledger": ledgerHealthy,
	})
}

// writeFault maps classified verification faults onto HTTP statuses and
// serialises their structured detail.
func writeFault(w http.ResponseWriter, err error) {
	var fault *verification.Fault
	if !errors.As(err, &fault) {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	status := http.StatusInternalServerError
	switch fault.Kind {
	case verification.KindInvalidInput:
		status = http.StatusBadRequest
	case verification.KindOracle:
		status = http.StatusBadGateway
	case verification.KindPaymentPrecondition:
		status = http.StatusPaymentRequired
	case verification.KindNotAuthorized:
		status = http.StatusForbidden
	case verification.KindDuplicateRecord:
		status = http.StatusConflict
	}

	body := map[string]any{
		"error":     fault.Kind,
		"detail":    fault.Detail,
		"retryable": fault.Kind.Retryable(),
	}
	if fault.RawValue != "" {
		body["raw_value"] = fault.RawValue
	}
	if fault.Kind == verification.KindPaymentPrecondition {
		body["required"] = fault.Required
		body["balance"] = fault.Balance
		body["allowance"] = fault.Allowance
	}
	writeJSON(w, status, body)
}

func decodeJSON(r io.Reader, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r, maxImageBytes))
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("decode request body: %w", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
