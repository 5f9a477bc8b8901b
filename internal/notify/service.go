package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/dermaline/clinic-platform/internal/pending"
	"github.com/dermaline/clinic-platform/pkg/logging"
)

// Service emails the front desk when a patient message needs a human.
type Service struct {
	sender     EmailSender
	clinicName string
	deskEmail  string
	logger     *logging.Logger
}

// Config holds the front-desk notification settings.
type Config struct {
	ClinicName     string
	FrontDeskEmail string
}

// NewService builds a notification service. A nil sender disables email and
// every alert becomes a log line.
func NewService(sender EmailSender, cfg Config, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	if sender == nil {
		sender = NewStubEmailSender(logger)
	}
	clinicName := cfg.ClinicName
	if clinicName == "" {
		clinicName = "Clinic"
	}
	return &Service{
		sender:     sender,
		clinicName: clinicName,
		deskEmail:  cfg.FrontDeskEmail,
		logger:     logger,
	}
}

// AlertPendingRequest emails the front desk about a newly created pending
// request. Failures are logged and swallowed so a mail outage never fails
// the webhook.
func (s *Service) AlertPendingRequest(ctx context.Context, req *pending.Request) {
	if s.deskEmail == "" {
		s.logger.Info("front desk email not configured, skipping alert",
			"request_id", req.ID, "request_type", req.RequestType)
		return
	}

	subject := fmt.Sprintf("[%s] %s request from %s", s.clinicName, titleCase(req.RequestType), req.PatientName)
	body := s.buildBody(req)

	msg := EmailMessage{
		To:      s.deskEmail,
		ToName:  "Front Desk",
		Subject: subject,
		Body:    body,
	}
	if err := s.sender.Send(ctx, msg); err != nil {
		s.logger.Error("front desk alert failed",
			"error", err, "request_id", req.ID, "request_type", req.RequestType)
		return
	}
	s.logger.Info("front desk alerted",
		"request_id", req.ID, "request_type", req.RequestType, "phone", req.Phone)
}

func (s *Service) buildBody(req *pending.Request) string {
	var b strings.Builder
	fmt.Fprintf(&b, "A patient message needs attention.\n\n")
	fmt.Fprintf(&b, "Patient: %s\n", req.PatientName)
	fmt.Fprintf(&b, "Phone: %s\n", req.Phone)
	fmt.Fprintf(&b, "Request type: %s\n", req.RequestType)
	if req.AppointmentID != nil {
		fmt.Fprintf(&b, "Appointment: %s\n", req.AppointmentID)
	}
	fmt.Fprintf(&b, "\nMessage:\n%s\n", req.OriginalMessage)
	if req.ClassifierOutput != "" {
		fmt.Fprintf(&b, "\nClassifier summary:\n%s\n", req.ClassifierOutput)
	}
	return b.String()
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
