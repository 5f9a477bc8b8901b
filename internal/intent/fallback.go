package intent

import (
	"context"
	"regexp"
	"strings"

	"github.com/dermaline/clinic-platform/pkg/logging"
)

// KeywordFallback is the deterministic classifier used when the external
// capability fails. It can never itself fail.
type KeywordFallback struct {
	confirmExact *regexp.Regexp
	confirm      []string
	cancel       []string
	reschedule   []string
	inquiry      *regexp.Regexp
}

// NewKeywordFallback returns a fallback classifier with the fixed keyword sets.
func NewKeywordFallback() *KeywordFallback {
	return &KeywordFallback{
		confirmExact: regexp.MustCompile(`(?i)^(yes|yup|yeah|ok|okay|confirm|confirmed|sure)[.!]*$`),
		confirm:      []string{"yes", "confirm", "see you", "will be there", "i'll be there", "coming"},
		cancel:       []string{"cancel", "can't make", "cannot make", "not coming", "call off", "won't make"},
		reschedule:   []string{"reschedule", "change the time", "change the date", "another day", "another time", "postpone", "move my", "different time"},
		inquiry:      regexp.MustCompile(`\?\s*$`),
	}
}

// Classify maps the message onto an intent with fixed confidences: 0.9 for a
// bare confirmation word, 0.6 for a keyword hit, 0.3 for unclear.
func (k *KeywordFallback) Classify(ctx context.Context, message string, appt AppointmentContext) (Result, error) {
	_ = ctx
	text := strings.ToLower(strings.TrimSpace(message))

	if k.confirmExact.MatchString(text) {
		return Result{Intent: IntentConfirm, Confidence: 0.9, Source: "keyword"}, nil
	}
	// Cancel and reschedule outrank confirm: "yes please cancel it" is a
	// cancellation.
	if containsAny(text, k.cancel) {
		return Result{Intent: IntentCancel, Confidence: 0.6, NeedsHuman: true, Source: "keyword"}, nil
	}
	if containsAny(text, k.reschedule) {
		return Result{Intent: IntentReschedule, Confidence: 0.6, NeedsHuman: true, Source: "keyword"}, nil
	}
	if containsAny(text, k.confirm) {
		return Result{Intent: IntentConfirm, Confidence: 0.6, Source: "keyword"}, nil
	}
	if k.inquiry.MatchString(text) {
		return Result{Intent: IntentInquiry, Confidence: 0.5, NeedsHuman: true, Source: "keyword"}, nil
	}
	return Result{Intent: IntentUnclear, Confidence: 0.3, NeedsHuman: true, Source: "keyword"}, nil
}

func containsAny(text string, keywords []string) bool {
	for _, keyword := range keywords {
		if strings.Contains(text, keyword) {
			return true
		}
	}
	return false
}

// Service wraps a primary classifier with the keyword fallback so callers
// always get a usable result.
type Service struct {
	primary  Classifier
	fallback *KeywordFallback
	logger   *logging.Logger
}

// NewService builds the classifier chain. primary may be nil, in which case
// only the fallback runs.
func NewService(primary Classifier, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{primary: primary, fallback: NewKeywordFallback(), logger: logger}
}

// Classify never fails: a primary error is logged and the keyword fallback
// answers instead.
func (s *Service) Classify(ctx context.Context, message string, appt AppointmentContext) Result {
	if s.primary != nil {
		result, err := s.primary.Classify(ctx, message, appt)
		if err == nil {
			return result
		}
		s.logger.Warn("intent: primary classifier failed, using keyword fallback", "error", err)
	}
	result, _ := s.fallback.Classify(ctx, message, appt)
	return result
}
