package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/dermaline/clinic-platform/internal/messagelog"
	"github.com/dermaline/clinic-platform/internal/pending"
	"github.com/dermaline/clinic-platform/internal/phone"
	"github.com/dermaline/clinic-platform/pkg/logging"
)

const defaultListLimit = 50

// PendingLister lists open pending requests.
type PendingLister interface {
	ListOpen(ctx context.Context, limit int) ([]*pending.Request, error)
}

// MessageReader reads recent log entries for a phone number.
type MessageReader interface {
	RecentByPhone(ctx context.Context, phoneVariants []string, limit int) ([]*messagelog.Entry, error)
}

// AdminHandler serves the front-desk review endpoints.
type AdminHandler struct {
	requests    PendingLister
	messages    MessageReader
	countryCode string
	logger      *logging.Logger
}

// NewAdminHandler creates the admin API handler.
func NewAdminHandler(requests PendingLister, messages MessageReader, countryCode string, logger *logging.Logger) *AdminHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &AdminHandler{
		requests:    requests,
		messages:    messages,
		countryCode: countryCode,
		logger:      logger,
	}
}

// PendingRequestsResponse lists requests awaiting a human.
type PendingRequestsResponse struct {
	Requests []*pending.Request `json:"requests"`
	Count    int                `json:"count"`
}

// ListPendingRequests handles GET /admin/pending-requests.
func (h *AdminHandler) ListPendingRequests(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", defaultListLimit)
	requests, err := h.requests.ListOpen(r.Context(), limit)
	if err != nil {
		h.logger.Error("list pending requests failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if requests == nil {
		requests = []*pending.Request{}
	}
	writeJSON(w, http.StatusOK, PendingRequestsResponse{Requests: requests, Count: len(requests)})
}

// MessagesResponse is a phone number's recent conversation history.
type MessagesResponse struct {
	Phone    string              `json:"phone"`
	Messages []*messagelog.Entry `json:"messages"`
}

// ListMessages handles GET /admin/messages?phone=...
func (h *AdminHandler) ListMessages(w http.ResponseWriter, r *http.Request) {
	rawPhone := strings.TrimSpace(r.URL.Query().Get("phone"))
	if rawPhone == "" {
		http.Error(w, "phone query parameter required", http.StatusBadRequest)
		return
	}
	limit := queryInt(r, "limit", defaultListLimit)
	variants := phone.Variants(rawPhone, h.countryCode)
	entries, err := h.messages.RecentByPhone(r.Context(), variants, limit)
	if err != nil {
		h.logger.Error("list messages failed", "error", err, "phone", rawPhone)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if entries == nil {
		entries = []*messagelog.Entry{}
	}
	writeJSON(w, http.StatusOK, MessagesResponse{Phone: rawPhone, Messages: entries})
}

func queryInt(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
