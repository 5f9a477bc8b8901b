package webhook

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/dermaline/clinic-platform/internal/observability/metrics"
	"github.com/dermaline/clinic-platform/pkg/logging"
)

var webhookTracer = otel.Tracer("clinic.internal.webhook")

const maxPayloadBytes = 1 << 20

// Envelope is the JSON response for every webhook outcome, success or not.
type Envelope struct {
	Success       bool     `json:"success"`
	Intent        string   `json:"intent,omitempty"`
	AppointmentID string   `json:"appointment_id,omitempty"`
	Issues        []string `json:"issues,omitempty"`
	Error         string   `json:"error,omitempty"`
}

// Handler exposes the inbound WhatsApp webhook over HTTP.
type Handler struct {
	orchestrator *Orchestrator
	metrics      *metrics.WebhookMetrics
	logger       *logging.Logger
}

// NewHandler creates the webhook HTTP handler.
func NewHandler(orchestrator *Orchestrator, m *metrics.WebhookMetrics, logger *logging.Logger) *Handler {
	if orchestrator == nil {
		panic("webhook: orchestrator cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{orchestrator: orchestrator, metrics: m, logger: logger}
}

// Inbound handles POST /webhooks/whatsapp. Every code path answers with a
// JSON envelope; nothing is allowed to escape uncaught.
func (h *Handler) Inbound(w http.ResponseWriter, r *http.Request) {
	ctx, span := webhookTracer.Start(r.Context(), "webhook.whatsapp.inbound")
	defer span.End()
	start := time.Now()

	defer func() {
		if rec := recover(); rec != nil {
			h.logger.Error("webhook handler panicked", "panic", rec)
			h.metrics.ObserveInbound("panic", "")
			writeEnvelope(w, http.StatusInternalServerError, Envelope{Success: false, Error: "internal error"})
		}
	}()

	body, err := io.ReadAll(io.LimitReader(r.Body, maxPayloadBytes))
	if err != nil {
		span.RecordError(err)
		h.metrics.ObserveInbound("bad_request", "")
		writeEnvelope(w, http.StatusBadRequest, Envelope{Success: false, Error: "unreadable request body"})
		return
	}

	in, err := ParsePayload(body, time.Now())
	if err != nil {
		span.RecordError(err)
		h.logger.Warn("malformed webhook payload", "error", err)
		h.metrics.ObserveInbound("bad_request", "")
		writeEnvelope(w, http.StatusBadRequest, Envelope{Success: false, Error: payloadErrorMessage(err)})
		return
	}

	span.SetAttributes(attribute.Int("clinic.message_length", len(in.Text)))

	res, err := h.orchestrator.Handle(ctx, in)
	if err != nil {
		span.RecordError(err)
		h.logger.Error("webhook processing failed", "error", err, "phone", in.Phone)
		h.metrics.ObserveInbound("error", "")
		h.metrics.ObserveLatency("error", time.Since(start).Seconds())
		writeEnvelope(w, http.StatusInternalServerError, Envelope{Success: false, Error: "internal error"})
		return
	}

	span.SetAttributes(attribute.String("clinic.outcome", res.Outcome))
	h.metrics.ObserveInbound(res.Outcome, res.Intent)
	h.metrics.ObserveLatency(res.Outcome, time.Since(start).Seconds())

	envelope := Envelope{Success: true, Intent: res.Intent, Issues: res.Issues}
	if res.AppointmentID != nil {
		envelope.AppointmentID = res.AppointmentID.String()
	}
	writeEnvelope(w, http.StatusOK, envelope)
}

func payloadErrorMessage(err error) string {
	switch {
	case errors.Is(err, ErrMissingPhone):
		return "missing sender phone"
	case errors.Is(err, ErrMissingText):
		return "missing message text"
	default:
		return "malformed payload"
	}
}

func writeEnvelope(w http.ResponseWriter, status int, envelope Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(envelope)
}
