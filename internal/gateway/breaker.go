package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"
)

// ErrUnavailable is returned when the breaker refuses a send.
var ErrUnavailable = errors.New("gateway: provider unavailable")

// BreakerMessenger wraps a Messenger with a circuit breaker so a flapping
// provider does not stall webhook handling.
type BreakerMessenger struct {
	next   Messenger
	cb     *gobreaker.CircuitBreaker
	logger *slog.Logger
}

// NewBreakerMessenger builds a breaker-wrapped Messenger.
func NewBreakerMessenger(next Messenger, logger *slog.Logger) *BreakerMessenger {
	if logger == nil {
		logger = slog.Default()
	}
	settings := gobreaker.Settings{
		Name:        "whatsapp-gateway",
		MaxRequests: 3,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Info("gateway breaker state changed",
				"name", name,
				"from", from.String(),
				"to", to.String(),
			)
		},
	}
	return &BreakerMessenger{
		next:   next,
		cb:     gobreaker.NewCircuitBreaker(settings),
		logger: logger,
	}
}

// Send delivers the message through the breaker.
func (b *BreakerMessenger) Send(ctx context.Context, to, body string) error {
	_, err := b.cb.Execute(func() (interface{}, error) {
		return nil, b.next.Send(ctx, to, body)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			b.logger.Warn("gateway breaker open, send blocked", "to", to)
			return fmt.Errorf("%w: circuit open", ErrUnavailable)
		}
		return err
	}
	return nil
}

// State reports the breaker state for health reporting.
func (b *BreakerMessenger) State() gobreaker.State {
	return b.cb.State()
}
