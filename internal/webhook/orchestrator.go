// Package webhook receives inbound WhatsApp messages and turns them into
// appointment bookings, conversation-turn answers, conflict resolutions or
// intent classifications. All conversational state is read back from the
// message log on every call; there is no in-process session.
package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/dermaline/clinic-platform/internal/appointments"
	"github.com/dermaline/clinic-platform/internal/gateway"
	"github.com/dermaline/clinic-platform/internal/intent"
	"github.com/dermaline/clinic-platform/internal/messagelog"
	"github.com/dermaline/clinic-platform/internal/observability/metrics"
	"github.com/dermaline/clinic-platform/internal/parse"
	"github.com/dermaline/clinic-platform/internal/pending"
	"github.com/dermaline/clinic-platform/internal/phone"
	"github.com/dermaline/clinic-platform/pkg/logging"
)

// Outcomes reported per handled message.
const (
	OutcomeBookingCreated      = "booking_created"
	OutcomeDuplicateSuppressed = "duplicate_suppressed"
	OutcomeConflictPrompted    = "conflict_prompted"
	OutcomeConflictReplaced    = "conflict_replaced"
	OutcomeConflictKept        = "conflict_kept"
	OutcomeAnswerApplied       = "answer_applied"
	OutcomeAnswerRejected      = "answer_rejected"
	OutcomeBookingComplete     = "booking_complete"
	OutcomeConfirmed           = "confirmed"
	OutcomeEscalated           = "escalated"
)

// MessageLog is the slice of the message log the orchestrator reads/writes.
type MessageLog interface {
	Append(ctx context.Context, entry *messagelog.Entry) error
	LatestOutbound(ctx context.Context, phoneVariants []string) (*messagelog.Entry, error)
	LatestByTag(ctx context.Context, phoneVariants []string, direction, tag string) (*messagelog.Entry, error)
}

// AppointmentStore is the slice of the appointment repository the
// orchestrator needs.
type AppointmentStore interface {
	Insert(ctx context.Context, appt *appointments.Appointment) (*appointments.Appointment, error)
	GetByID(ctx context.Context, id uuid.UUID) (*appointments.Appointment, error)
	UpdateFields(ctx context.Context, id uuid.UUID, updates appointments.FieldUpdates) error
	SetConfirmation(ctx context.Context, id uuid.UUID, confirmation string) error
	HasRecentDuplicate(ctx context.Context, patientName, date, timeStr string, window time.Duration) (bool, error)
	FindActiveByPhone(ctx context.Context, phoneVariants []string, todayISO string) (*appointments.Appointment, error)
	FindNearestUpcoming(ctx context.Context, phoneVariants []string, todayISO string) (*appointments.Appointment, error)
	ReplaceActive(ctx context.Context, oldID uuid.UUID, replacement *appointments.Appointment) (*appointments.Appointment, error)
}

// PendingStore records messages that need a human.
type PendingStore interface {
	Create(ctx context.Context, req *pending.Request) (*pending.Request, error)
}

// FollowupStore stops no-show follow-up sequences.
type FollowupStore interface {
	StopForPhone(ctx context.Context, phoneVariants []string) (int64, error)
}

// Directory returns booking-capable staff names.
type Directory interface {
	BookingCapableNames(ctx context.Context) ([]string, error)
}

// IntentService classifies free text; it never fails (fallback is internal).
type IntentService interface {
	Classify(ctx context.Context, message string, appt intent.AppointmentContext) intent.Result
}

// Alerter notifies the front desk about a new pending request.
type Alerter interface {
	AlertPendingRequest(ctx context.Context, req *pending.Request)
}

// Settings carries per-clinic processing knobs.
type Settings struct {
	ClinicName       string
	Location         *time.Location
	OpenHour         int
	CloseHour        int
	CountryCode      string
	DuplicateWindow  time.Duration
	ConfirmThreshold float64
}

// Result is what one handled inbound message produced.
type Result struct {
	Outcome       string
	Intent        string
	AppointmentID *uuid.UUID
	Issues        []string
}

// Orchestrator sequences conflict resolution, pending-answer handling,
// booking parsing and intent classification for each inbound message.
type Orchestrator struct {
	log        MessageLog
	appts      AppointmentStore
	requests   PendingStore
	followups  FollowupStore
	directory  Directory
	messenger  gateway.Messenger
	classifier IntentService
	alerter    Alerter
	metrics    *metrics.WebhookMetrics
	settings   Settings
	logger     *logging.Logger
	now        func() time.Time
}

// Deps bundles the orchestrator's collaborators.
type Deps struct {
	Log        MessageLog
	Appts      AppointmentStore
	Requests   PendingStore
	Followups  FollowupStore
	Directory  Directory
	Messenger  gateway.Messenger
	Classifier IntentService
	Alerter    Alerter
	Metrics    *metrics.WebhookMetrics
	Logger     *logging.Logger
	Now        func() time.Time
}

// NewOrchestrator wires the webhook pipeline.
func NewOrchestrator(deps Deps, settings Settings) *Orchestrator {
	if deps.Log == nil || deps.Appts == nil || deps.Requests == nil {
		panic("webhook: message log, appointment store and pending store are required")
	}
	if deps.Logger == nil {
		deps.Logger = logging.Default()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if settings.Location == nil {
		settings.Location = time.UTC
	}
	if settings.DuplicateWindow <= 0 {
		settings.DuplicateWindow = 2 * time.Minute
	}
	if settings.ConfirmThreshold <= 0 {
		settings.ConfirmThreshold = 0.7
	}
	return &Orchestrator{
		log:        deps.Log,
		appts:      deps.Appts,
		requests:   deps.Requests,
		followups:  deps.Followups,
		directory:  deps.Directory,
		messenger:  deps.Messenger,
		classifier: deps.Classifier,
		alerter:    deps.Alerter,
		metrics:    deps.Metrics,
		settings:   settings,
		logger:     deps.Logger,
		now:        deps.Now,
	}
}

// Handle processes one inbound message end to end. Every branch re-reads
// state from the stores, so concurrent deliveries and staff UI edits between
// turns are tolerated.
func (o *Orchestrator) Handle(ctx context.Context, in Inbound) (*Result, error) {
	variants := phone.Variants(in.Phone, o.settings.CountryCode)
	trace.SpanFromContext(ctx).SetAttributes(attribute.Int("clinic.phone_variants", len(variants)))

	// Any reply at all means the patient is reachable.
	o.stopFollowups(ctx, variants)

	latestOut, err := o.log.LatestOutbound(ctx, variants)
	if err != nil && !errors.Is(err, messagelog.ErrNotFound) {
		return nil, fmt.Errorf("webhook: read latest outbound: %w", err)
	}

	if latestOut != nil && isConflictAsk(latestOut) {
		if yes, ok := parseYesNo(in.Text); ok {
			return o.resolveConflictReply(ctx, in, variants, latestOut, yes)
		}
	}

	if latestOut != nil {
		if fields := pendingFields(latestOut); len(fields) > 0 {
			return o.resolvePendingAnswer(ctx, in, variants, latestOut, fields)
		}
	}

	if parse.IsBookingMessage(in.Text) {
		return o.handleBooking(ctx, in, variants)
	}

	return o.handleIntent(ctx, in, variants)
}

func (o *Orchestrator) stopFollowups(ctx context.Context, variants []string) {
	if o.followups == nil {
		return
	}
	stopped, err := o.followups.StopForPhone(ctx, variants)
	if err != nil {
		o.logger.Error("followup stop failed", "error", err)
		return
	}
	if stopped > 0 {
		o.logger.Info("followup sequence stopped by patient reply", "count", stopped)
	}
}

func (o *Orchestrator) handleBooking(ctx context.Context, in Inbound, variants []string) (*Result, error) {
	rules, err := o.bookingRules(ctx)
	if err != nil {
		return nil, err
	}
	draft, issues := parse.ParseBooking(in.Text, in.Phone, in.SenderName, rules)

	// The (name, date, time) key still suppresses redeliveries when date or
	// time failed to parse; both sides of the comparison are empty then.
	dup, err := o.appts.HasRecentDuplicate(ctx, draft.PatientName, draft.Date, draft.Time, o.settings.DuplicateWindow)
	if err != nil {
		return nil, fmt.Errorf("webhook: duplicate check: %w", err)
	}
	if dup {
		o.logger.Info("duplicate booking delivery suppressed",
			"patient", draft.PatientName, "date", draft.Date, "time", draft.Time)
		return &Result{Outcome: OutcomeDuplicateSuppressed}, nil
	}

	// The one-active-appointment rule is keyed on the appointment's phone,
	// which is the parsed "Phone:" field when staff book on a patient's
	// behalf from their own number.
	bookedVariants := variants
	if draft.Phone != "" {
		bookedVariants = phone.Variants(draft.Phone, o.settings.CountryCode)
	}
	existing, err := o.appts.FindActiveByPhone(ctx, bookedVariants, o.today())
	if err != nil && !errors.Is(err, appointments.ErrNotFound) {
		return nil, fmt.Errorf("webhook: active lookup: %w", err)
	}
	if existing != nil {
		return o.promptConflict(ctx, in, existing, draft)
	}

	stored, err := o.appts.Insert(ctx, o.draftToAppointment(draft))
	if err != nil {
		return nil, fmt.Errorf("webhook: insert appointment: %w", err)
	}

	if err := o.appendInbound(ctx, in, draft.PatientName, &stored.ID, "", nil); err != nil {
		return nil, err
	}

	if len(issues) > 0 {
		if err := o.askValidation(ctx, in.Phone, stored, issues); err != nil {
			return nil, err
		}
		return &Result{
			Outcome:       OutcomeBookingCreated,
			AppointmentID: &stored.ID,
			Issues:        issueMessages(issues),
		}, nil
	}

	reply := bookingConfirmed(o.settings.ClinicName, stored)
	if err := o.sendAndLog(ctx, in.Phone, stored.PatientName, reply, &stored.ID, "", nil, "booking_confirmation"); err != nil {
		return nil, err
	}
	return &Result{Outcome: OutcomeBookingCreated, AppointmentID: &stored.ID}, nil
}

func (o *Orchestrator) handleIntent(ctx context.Context, in Inbound, variants []string) (*Result, error) {
	appt, err := o.appts.FindNearestUpcoming(ctx, variants, o.today())
	if err != nil && !errors.Is(err, appointments.ErrNotFound) {
		return nil, fmt.Errorf("webhook: upcoming lookup: %w", err)
	}

	apptCtx := intent.AppointmentContext{}
	patientName := in.SenderName
	var linkedID *uuid.UUID
	if appt != nil {
		apptCtx = intent.AppointmentContext{
			PatientName: appt.PatientName,
			Date:        appt.Date,
			Time:        appt.Time,
			Service:     appt.Service,
		}
		patientName = appt.PatientName
		linkedID = &appt.ID
	}

	res := o.classifier.Classify(ctx, in.Text, apptCtx)

	entry := &messagelog.Entry{
		Phone:               in.Phone,
		PatientName:         patientName,
		Direction:           messagelog.DirectionInbound,
		Text:                in.Text,
		LinkedAppointmentID: linkedID,
		ClassifiedIntent:    res.Intent,
		Confidence:          &res.Confidence,
	}
	if err := o.log.Append(ctx, entry); err != nil {
		return nil, fmt.Errorf("webhook: log inbound: %w", err)
	}

	if res.Intent == intent.IntentConfirm && res.Confidence >= o.settings.ConfirmThreshold && appt != nil {
		if err := o.appts.SetConfirmation(ctx, appt.ID, appointments.ConfirmWhatsapp); err != nil {
			return nil, fmt.Errorf("webhook: set confirmation: %w", err)
		}
		o.logger.Info("appointment confirmed via whatsapp",
			"appointment_id", appt.ID, "confidence", res.Confidence)
		// No outbound reply; a confirmation echo is redundant chatter.
		return &Result{Outcome: OutcomeConfirmed, Intent: res.Intent, AppointmentID: &appt.ID}, nil
	}

	req := &pending.Request{
		AppointmentID:    linkedID,
		Phone:            in.Phone,
		PatientName:      patientName,
		RequestType:      requestType(res.Intent),
		OriginalMessage:  in.Text,
		ClassifierOutput: classifierOutput(res),
	}
	created, err := o.requests.Create(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("webhook: create pending request: %w", err)
	}
	o.metrics.ObservePendingRequest(created.RequestType)
	if o.alerter != nil {
		o.alerter.AlertPendingRequest(ctx, created)
	}
	// No automatic reply on escalation paths either; a human follows up.
	return &Result{Outcome: OutcomeEscalated, Intent: res.Intent, AppointmentID: linkedID}, nil
}

// bookingRules loads the staff directory snapshot once per request and
// freezes the validation context around it.
func (o *Orchestrator) bookingRules(ctx context.Context) (parse.Rules, error) {
	var names []string
	if o.directory != nil {
		var err error
		names, err = o.directory.BookingCapableNames(ctx)
		if err != nil {
			return parse.Rules{}, fmt.Errorf("webhook: load staff directory: %w", err)
		}
	}
	return parse.Rules{
		Now:       o.now(),
		Location:  o.settings.Location,
		OpenHour:  o.settings.OpenHour,
		CloseHour: o.settings.CloseHour,
		Staff:     parse.NewStaffMatcher(names),
	}, nil
}

func (o *Orchestrator) today() string {
	return o.now().In(o.settings.Location).Format("2006-01-02")
}

func (o *Orchestrator) draftToAppointment(draft parse.Draft) *appointments.Appointment {
	return &appointments.Appointment{
		PatientName: draft.PatientName,
		Phone:       draft.Phone,
		Date:        draft.Date,
		Time:        draft.Time,
		Service:     draft.Service,
		BookedBy:    draft.BookedBy,
		Status:      appointments.StatusUpcoming,
	}
}

func (o *Orchestrator) appendInbound(ctx context.Context, in Inbound, patientName string, linkedID *uuid.UUID, tag string, pendingFields []string) error {
	entry := &messagelog.Entry{
		Phone:               in.Phone,
		PatientName:         patientName,
		Direction:           messagelog.DirectionInbound,
		Text:                in.Text,
		LinkedAppointmentID: linkedID,
		Tag:                 tag,
		PendingFields:       pendingFields,
	}
	if err := o.log.Append(ctx, entry); err != nil {
		return fmt.Errorf("webhook: log inbound: %w", err)
	}
	return nil
}

// sendAndLog sends an outbound reply best-effort and durably appends it to
// the message log. A failed send is logged but never rolls back datastore
// writes; a failed log append is a hard error because later turns infer
// state from it.
func (o *Orchestrator) sendAndLog(ctx context.Context, to, patientName, body string, linkedID *uuid.UUID, tag string, pendingFields []string, kind string) error {
	var sendErr error
	if o.messenger != nil {
		sendErr = o.messenger.Send(ctx, to, body)
		if sendErr != nil {
			o.logger.Error("outbound send failed", "error", sendErr, "to", to, "kind", kind)
		}
	}
	o.metrics.ObserveReply(kind, sendErr)

	entry := &messagelog.Entry{
		Phone:               to,
		PatientName:         patientName,
		Direction:           messagelog.DirectionOutbound,
		Text:                body,
		LinkedAppointmentID: linkedID,
		Tag:                 tag,
		PendingFields:       pendingFields,
	}
	if err := o.log.Append(ctx, entry); err != nil {
		return fmt.Errorf("webhook: log outbound: %w", err)
	}
	return nil
}

func (o *Orchestrator) askValidation(ctx context.Context, to string, appt *appointments.Appointment, issues []parse.Issue) error {
	body := validationAsk(appt.PatientName, issues)
	return o.sendAndLog(ctx, to, appt.PatientName, body, &appt.ID,
		messagelog.TagValidationAsk, issueFields(issues), "validation_ask")
}

func requestType(label string) string {
	switch label {
	case intent.IntentReschedule:
		return pending.TypeReschedule
	case intent.IntentCancel:
		return pending.TypeCancellation
	case intent.IntentInquiry:
		return pending.TypeInquiry
	default:
		return pending.TypeUnclear
	}
}

func classifierOutput(res intent.Result) string {
	data, err := json.Marshal(res)
	if err != nil {
		return res.Summary
	}
	return string(data)
}

func issueMessages(issues []parse.Issue) []string {
	out := make([]string, 0, len(issues))
	for _, issue := range issues {
		out = append(out, issue.Message)
	}
	return out
}

func issueFields(issues []parse.Issue) []string {
	out := make([]string, 0, len(issues))
	for _, issue := range issues {
		out = append(out, issue.Field)
	}
	return out
}

func parseYesNo(text string) (yes, ok bool) {
	cleaned := strings.ToLower(strings.Trim(strings.TrimSpace(text), ".!?"))
	switch cleaned {
	case "yes", "y", "yeah", "yup", "ok", "okay":
		return true, true
	case "no", "n", "nope", "nah":
		return false, true
	}
	return false, false
}
