package webhook

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/dermaline/clinic-platform/internal/appointments"
	"github.com/dermaline/clinic-platform/internal/messagelog"
	"github.com/dermaline/clinic-platform/internal/parse"
)

// isConflictAsk recognizes the yes/no prompt this system previously sent.
// The tag is authoritative; the phrase check covers rows logged before tags
// existed.
func isConflictAsk(entry *messagelog.Entry) bool {
	if entry.Tag == messagelog.TagBookingConflictAsk {
		return true
	}
	if entry.Tag != "" {
		return false
	}
	lower := strings.ToLower(entry.Text)
	return strings.Contains(lower, "reply yes") && strings.Contains(lower, "existing appointment")
}

// promptConflict holds the parsed-but-uncommitted booking as a tagged
// inbound log entry only, and asks the sender whether to replace the
// existing appointment. Nothing is written to the appointment store until a
// "yes" arrives.
func (o *Orchestrator) promptConflict(ctx context.Context, in Inbound, existing *appointments.Appointment, draft parse.Draft) (*Result, error) {
	if err := o.appendInbound(ctx, in, draft.PatientName, &existing.ID, messagelog.TagBookingConflict, nil); err != nil {
		return nil, err
	}

	prompt := conflictPrompt(existing, draft)
	if err := o.sendAndLog(ctx, in.Phone, existing.PatientName, prompt, &existing.ID,
		messagelog.TagBookingConflictAsk, nil, "conflict_ask"); err != nil {
		return nil, err
	}

	o.logger.Info("booking conflict prompted",
		"existing_id", existing.ID, "new_date", draft.Date, "new_time", draft.Time)
	return &Result{Outcome: OutcomeConflictPrompted, AppointmentID: &existing.ID}, nil
}

// resolveConflictReply handles a bare yes/no answer to a conflict prompt.
// On "yes" the original tagged inbound message is re-parsed and re-validated
// and the old appointment is atomically cancelled and replaced. On "no"
// nothing in the appointment store changes.
func (o *Orchestrator) resolveConflictReply(ctx context.Context, in Inbound, variants []string, ask *messagelog.Entry, yes bool) (*Result, error) {
	if err := o.appendInbound(ctx, in, ask.PatientName, ask.LinkedAppointmentID, "", nil); err != nil {
		return nil, err
	}

	if !yes {
		reply := "No problem, your existing appointment is unchanged."
		if err := o.sendAndLog(ctx, in.Phone, ask.PatientName, reply, ask.LinkedAppointmentID, "", nil, "conflict_kept"); err != nil {
			return nil, err
		}
		return &Result{Outcome: OutcomeConflictKept, AppointmentID: ask.LinkedAppointmentID}, nil
	}

	original, err := o.log.LatestByTag(ctx, variants, messagelog.DirectionInbound, messagelog.TagBookingConflict)
	if errors.Is(err, messagelog.ErrNotFound) {
		reply := "Sorry, we could not find the new booking details. Please send the full booking message again."
		if err := o.sendAndLog(ctx, in.Phone, ask.PatientName, reply, ask.LinkedAppointmentID, "", nil, "conflict_lost"); err != nil {
			return nil, err
		}
		return &Result{Outcome: OutcomeConflictKept, AppointmentID: ask.LinkedAppointmentID}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("webhook: find conflict original: %w", err)
	}

	oldID, err := o.conflictOldID(ctx, variants, ask)
	if err != nil {
		return nil, err
	}

	rules, err := o.bookingRules(ctx)
	if err != nil {
		return nil, err
	}
	draft, issues := parse.ParseBooking(original.Text, in.Phone, in.SenderName, rules)

	stored, err := o.appts.ReplaceActive(ctx, oldID, o.draftToAppointment(draft))
	if err != nil {
		return nil, fmt.Errorf("webhook: replace appointment: %w", err)
	}
	o.logger.Info("appointment replaced after conflict confirmation",
		"old_id", oldID, "new_id", stored.ID)

	if len(issues) > 0 {
		if err := o.askValidation(ctx, in.Phone, stored, issues); err != nil {
			return nil, err
		}
		return &Result{
			Outcome:       OutcomeConflictReplaced,
			AppointmentID: &stored.ID,
			Issues:        issueMessages(issues),
		}, nil
	}

	reply := bookingConfirmed(o.settings.ClinicName, stored)
	if err := o.sendAndLog(ctx, in.Phone, stored.PatientName, reply, &stored.ID, "", nil, "booking_confirmation"); err != nil {
		return nil, err
	}
	return &Result{Outcome: OutcomeConflictReplaced, AppointmentID: &stored.ID}, nil
}

func (o *Orchestrator) conflictOldID(ctx context.Context, variants []string, ask *messagelog.Entry) (uuid.UUID, error) {
	if ask.LinkedAppointmentID != nil {
		return *ask.LinkedAppointmentID, nil
	}
	existing, err := o.appts.FindActiveByPhone(ctx, variants, o.today())
	if err != nil {
		return uuid.Nil, fmt.Errorf("webhook: locate conflicting appointment: %w", err)
	}
	return existing.ID, nil
}
