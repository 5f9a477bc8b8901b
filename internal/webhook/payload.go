package webhook

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Inbound is the typed form of an inbound WhatsApp webhook callback.
type Inbound struct {
	Phone      string
	Text       string
	SenderName string
	ReceivedAt time.Time
}

// Gateways disagree on field naming, so each logical field carries an
// ordered list of accepted keys. First non-empty wins.
var (
	phoneKeys     = []string{"senderPhone", "sender_phone", "phone", "from", "waId", "wa_id"}
	textKeys      = []string{"messageText", "message_text", "message", "text", "body"}
	nameKeys      = []string{"senderName", "sender_name", "name", "profileName", "profile_name"}
	timestampKeys = []string{"timestamp", "receivedAt", "received_at"}
)

// ErrMissingPhone and ErrMissingText classify malformed payloads so the
// handler can answer 400 instead of 500.
var (
	ErrMissingPhone = errors.New("webhook: payload has no sender phone")
	ErrMissingText  = errors.New("webhook: payload has no message text")
)

// ParsePayload decodes a gateway callback body defensively and validates it
// at the boundary before anything touches the domain model.
func ParsePayload(body []byte, now time.Time) (Inbound, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return Inbound{}, fmt.Errorf("webhook: decode payload: %w", err)
	}

	in := Inbound{
		Phone:      firstString(raw, phoneKeys),
		Text:       firstString(raw, textKeys),
		SenderName: firstString(raw, nameKeys),
		ReceivedAt: firstTimestamp(raw, timestampKeys, now),
	}
	if strings.TrimSpace(in.Phone) == "" {
		return Inbound{}, ErrMissingPhone
	}
	if strings.TrimSpace(in.Text) == "" {
		return Inbound{}, ErrMissingText
	}
	return in, nil
}

func firstString(raw map[string]json.RawMessage, keys []string) string {
	for _, key := range keys {
		value, ok := raw[key]
		if !ok {
			continue
		}
		var s string
		if err := json.Unmarshal(value, &s); err == nil && strings.TrimSpace(s) != "" {
			return strings.TrimSpace(s)
		}
		// Some gateways send phone numbers as bare JSON numbers.
		var n json.Number
		if err := json.Unmarshal(value, &n); err == nil && n.String() != "" {
			return n.String()
		}
	}
	return ""
}

func firstTimestamp(raw map[string]json.RawMessage, keys []string, fallback time.Time) time.Time {
	for _, key := range keys {
		value, ok := raw[key]
		if !ok {
			continue
		}
		var s string
		if err := json.Unmarshal(value, &s); err == nil {
			if ts, err := time.Parse(time.RFC3339, s); err == nil {
				return ts
			}
		}
		var unix int64
		if err := json.Unmarshal(value, &unix); err == nil && unix > 0 {
			return time.Unix(unix, 0)
		}
	}
	return fallback
}
