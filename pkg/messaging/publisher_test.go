package messaging

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/loja/cadastroprodutos/pkg/config"
	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type testEvent struct{}

func (testEvent) Subject() string          { return "test.happened" }
func (testEvent) Payload() ([]byte, error) { return []byte(`{}`), nil }

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) Publish(ctx context.Context, event Event) error {
	return m.Called(ctx, event).Error(0)
}

var discard = slog.New(slog.DiscardHandler)

func TestNoopPublisher(t *testing.T) {
	assert.NoError(t, NewNoopPublisher(discard).Publish(context.Background(), testEvent{}))
}

func TestBreakerPublisher(t *testing.T) {
	cfg := config.CircuitBreakerConfig{ConsecutiveFailures: 2, ErrorRatePercent: 100, OpenTimeout: time.Minute}

	t.Run("passes through", func(t *testing.T) {
		// given
		next := new(mockPublisher)
		next.On("Publish", mock.Anything, testEvent{}).Return(nil).Once()
		p := NewBreakerPublisher(next, cfg, discard)

		// when
		err := p.Publish(context.Background(), testEvent{})

		// then
		assert.NoError(t, err)
		next.AssertExpectations(t)
	})

	t.Run("opens after repeated failures", func(t *testing.T) {
		// given
		brokerDown := errors.New("no responders")
		next := new(mockPublisher)
		next.On("Publish", mock.Anything, testEvent{}).Return(brokerDown).Times(3)
		p := NewBreakerPublisher(next, cfg, discard)

		// when
		for i := 0; i < 3; i++ {
			assert.ErrorIs(t, p.Publish(context.Background(), testEvent{}), brokerDown)
		}
		err := p.Publish(context.Background(), testEvent{})

		// then
		assert.ErrorIs(t, err, gobreaker.ErrOpenState)
		next.AssertNumberOfCalls(t, "Publish", 3)
	})
}
