package intent

import (
	"context"
	"errors"
	"testing"
)

func TestKeywordFallbackConfirm(t *testing.T) {
	k := NewKeywordFallback()

	result, err := k.Classify(context.Background(), "Yes!", AppointmentContext{})
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	if result.Intent != IntentConfirm || result.Confidence != 0.9 {
		t.Errorf("got %+v", result)
	}

	result, _ = k.Classify(context.Background(), "ok see you there", AppointmentContext{})
	if result.Intent != IntentConfirm || result.Confidence != 0.6 {
		t.Errorf("got %+v", result)
	}
}

func TestKeywordFallbackCancel(t *testing.T) {
	k := NewKeywordFallback()
	for _, message := range []string{"I need to cancel", "sorry, can't make it tomorrow", "we are not coming"} {
		result, _ := k.Classify(context.Background(), message, AppointmentContext{})
		if result.Intent != IntentCancel {
			t.Errorf("Classify(%q) = %s, want cancel", message, result.Intent)
		}
		if !result.NeedsHuman {
			t.Errorf("Classify(%q) should need a human", message)
		}
	}
}

func TestKeywordFallbackCancelOutranksConfirm(t *testing.T) {
	k := NewKeywordFallback()
	result, _ := k.Classify(context.Background(), "yes please cancel it", AppointmentContext{})
	if result.Intent != IntentCancel {
		t.Errorf("got %s, want cancel", result.Intent)
	}
}

func TestKeywordFallbackReschedule(t *testing.T) {
	k := NewKeywordFallback()
	result, _ := k.Classify(context.Background(), "can we reschedule to friday", AppointmentContext{})
	if result.Intent != IntentReschedule {
		t.Errorf("got %s, want reschedule", result.Intent)
	}
}

func TestKeywordFallbackInquiry(t *testing.T) {
	k := NewKeywordFallback()
	result, _ := k.Classify(context.Background(), "is parking available?", AppointmentContext{})
	if result.Intent != IntentInquiry {
		t.Errorf("got %s, want inquiry", result.Intent)
	}
}

func TestKeywordFallbackUnclear(t *testing.T) {
	k := NewKeywordFallback()
	result, _ := k.Classify(context.Background(), "banana", AppointmentContext{})
	if result.Intent != IntentUnclear || !result.NeedsHuman {
		t.Errorf("got %+v", result)
	}
}

type failingClassifier struct{}

func (failingClassifier) Classify(ctx context.Context, message string, appt AppointmentContext) (Result, error) {
	return Result{}, errors.New("unreachable")
}

type fixedClassifier struct{ result Result }

func (f fixedClassifier) Classify(ctx context.Context, message string, appt AppointmentContext) (Result, error) {
	return f.result, nil
}

func TestServiceFallsBackOnPrimaryFailure(t *testing.T) {
	svc := NewService(failingClassifier{}, nil)
	result := svc.Classify(context.Background(), "I need to cancel", AppointmentContext{})
	if result.Intent != IntentCancel {
		t.Errorf("got %s, want cancel", result.Intent)
	}
	if result.Source != "keyword" {
		t.Errorf("source = %s", result.Source)
	}
}

func TestServicePrefersPrimary(t *testing.T) {
	svc := NewService(fixedClassifier{result: Result{Intent: IntentInquiry, Confidence: 0.8, Source: "http"}}, nil)
	result := svc.Classify(context.Background(), "anything", AppointmentContext{})
	if result.Intent != IntentInquiry || result.Source != "http" {
		t.Errorf("got %+v", result)
	}
}

func TestServiceWithoutPrimary(t *testing.T) {
	svc := NewService(nil, nil)
	result := svc.Classify(context.Background(), "yes", AppointmentContext{})
	if result.Intent != IntentConfirm {
		t.Errorf("got %+v", result)
	}
}
