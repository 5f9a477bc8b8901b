// Package gateway sends outbound WhatsApp messages through the clinic's
// messaging provider.
package gateway

import "context"

// Messenger delivers a WhatsApp text message to a phone number.
type Messenger interface {
	Send(ctx context.Context, to, body string) error
}
