// Package resilience holds the circuit breaker policy shared by outbound calls.
package resilience

import (
	"github.com/loja/cadastroprodutos/pkg/config"
	"github.com/sony/gobreaker/v2"
)

const halfOpenMaxRequests = 3

// BreakerSettings builds gobreaker settings that trip on more than cfg.ConsecutiveFailures failures in a row,
// or when the failure ratio exceeds cfg.ErrorRatePercent once that many requests were counted.
// isSuccessful decides which errors count as failures. Nil means every error does.
func BreakerSettings(name string, cfg config.CircuitBreakerConfig, isSuccessful func(error) bool) gobreaker.Settings {
	return gobreaker.Settings{
		Name:         name,
		MaxRequests:  halfOpenMaxRequests,
		Timeout:      cfg.OpenTimeout,
		ReadyToTrip:  readyToTrip(cfg),
		IsSuccessful: isSuccessful,
	}
}

func readyToTrip(cfg config.CircuitBreakerConfig) func(gobreaker.Counts) bool {
	return func(counts gobreaker.Counts) bool {
		if counts.ConsecutiveFailures > cfg.ConsecutiveFailures {
			return true
		}
		total := counts.TotalSuccesses + counts.TotalFailures
		if total <= cfg.ConsecutiveFailures {
			return false
		}
		return float64(counts.TotalFailures)/float64(total)*100 > float64(cfg.ErrorRatePercent)
	}
}
