package resilience

import (
	"errors"
	"testing"
	"time"

	"github.com/loja/cadastroprodutos/pkg/config"
	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
)

func TestReadyToTrip(t *testing.T) {
	cfg := config.CircuitBreakerConfig{ConsecutiveFailures: 3, ErrorRatePercent: 50, OpenTimeout: time.Second}
	trip := readyToTrip(cfg)

	tests := []struct {
		name   string
		counts gobreaker.Counts
		want   bool
	}{
		{"few failures", gobreaker.Counts{ConsecutiveFailures: 2, TotalFailures: 2}, false},
		{"consecutive failures over limit", gobreaker.Counts{ConsecutiveFailures: 4, TotalFailures: 4}, true},
		{"ratio ignored below sample size", gobreaker.Counts{TotalFailures: 2, TotalSuccesses: 1, ConsecutiveFailures: 1}, false},
		{"ratio over limit", gobreaker.Counts{TotalFailures: 3, TotalSuccesses: 2, ConsecutiveFailures: 1}, true},
		{"ratio under limit", gobreaker.Counts{TotalFailures: 2, TotalSuccesses: 8, ConsecutiveFailures: 1}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, trip(tt.counts))
		})
	}
}

func TestBreakerSettings_OpensAfterFailures(t *testing.T) {
	// given
	cfg := config.CircuitBreakerConfig{ConsecutiveFailures: 2, ErrorRatePercent: 100, OpenTimeout: time.Minute}
	cb := gobreaker.NewCircuitBreaker[struct{}](BreakerSettings("test", cfg, nil))
	failure := errors.New("down")

	// when
	for i := 0; i < 3; i++ {
		_, err := cb.Execute(func() (struct{}, error) { return struct{}{}, failure })
		assert.ErrorIs(t, err, failure)
	}
	_, err := cb.Execute(func() (struct{}, error) { return struct{}{}, nil })

	// then
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, gobreaker.StateOpen, cb.State())
}
