package messaging

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/loja/cadastroprodutos/pkg/config"
	"github.com/loja/cadastroprodutos/pkg/resilience"
	"github.com/sony/gobreaker/v2"
)

type Event interface {
	Subject() string
	Payload() ([]byte, error)
}

type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// NoopPublisher drops every event. It is used when no broker is configured.
type NoopPublisher struct {
	logger *slog.Logger
}

func NewNoopPublisher(logger *slog.Logger) *NoopPublisher {
	return &NoopPublisher{logger: logger}
}

func (p *NoopPublisher) Publish(ctx context.Context, event Event) error {
	p.logger.DebugContext(ctx, "Event dropped, publishing disabled", "subject", event.Subject())
	return nil
}

// BreakerPublisher stops calling the wrapped publisher while it keeps failing.
// While the breaker is open Publish returns gobreaker.ErrOpenState without touching the broker.
type BreakerPublisher struct {
	next Publisher
	cb   *gobreaker.CircuitBreaker[struct{}]
}

func NewBreakerPublisher(next Publisher, cfg config.CircuitBreakerConfig, logger *slog.Logger) *BreakerPublisher {
	st := resilience.BreakerSettings("event-publisher", cfg, nil)
	st.OnStateChange = func(name string, from, to gobreaker.State) {
		logger.Warn("Circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
	}
	return &BreakerPublisher{
		next: next,
		cb:   gobreaker.NewCircuitBreaker[struct{}](st),
	}
}

func (p *BreakerPublisher) Publish(ctx context.Context, event Event) error {
	_, err := p.cb.Execute(func() (struct{}, error) {
		return struct{}{}, p.next.Publish(ctx, event)
	})
	if err != nil {
		return fmt.Errorf("failed to publish %s: %w", event.Subject(), err)
	}
	return nil
}
