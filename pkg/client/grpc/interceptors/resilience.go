package interceptors

import (
	"context"
	"slices"
	"time"

	"github.com/grpc-ecosystem/go-grpc-middleware/v2/interceptors/retry"
	"github.com/loja/cadastroprodutos/pkg/config"
	"github.com/loja/cadastroprodutos/pkg/resilience"
	"github.com/sony/gobreaker/v2"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// transientCodes are retried and count as failures for the circuit breaker.
var transientCodes = []codes.Code{codes.Unavailable, codes.ResourceExhausted, codes.Aborted}

// NewRetryInterceptor creates a gRPC unary client interceptor that retries transient errors with exponential backoff.
// Each attempt gets its own attemptTimeout, and an attempt that runs out of it is retried as well.
// The caller's deadline still bounds the whole call.
func NewRetryInterceptor(cfg config.RetryConfig, attemptTimeout time.Duration) grpc.UnaryClientInterceptor {
	return retry.UnaryClientInterceptor(
		retry.WithCodes(transientCodes...),
		retry.WithMax(cfg.MaxAttempts),
		retry.WithBackoff(retry.BackoffExponential(cfg.InitialBackoff)),
		retry.WithPerRetryTimeout(attemptTimeout),
	)
}

// NewClientChain returns the interceptors for a catalog client in call order. The breaker sits inside the
// retry loop, so every attempt counts and an open breaker ends the call without further attempts.
func NewClientChain(name string, cfg config.ProductClientConfig) []grpc.UnaryClientInterceptor {
	return []grpc.UnaryClientInterceptor{
		NewRetryInterceptor(cfg.Retry, cfg.Timeout),
		NewCircuitBreaker(name, cfg.CircuitBreaker),
	}
}

// UnaryCircuitBreakerInterceptor runs every call through cb. Only the error is evaluated, the reply passes through.
func UnaryCircuitBreakerInterceptor[T any](cb *gobreaker.CircuitBreaker[T]) grpc.UnaryClientInterceptor {
	return func(ctx context.Context, method string, req, reply any, cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption) error {
		var zero T
		_, err := cb.Execute(func() (T, error) {
			return zero, invoker(ctx, method, req, reply, cc, opts...)
		})
		return err
	}
}

// NewCircuitBreaker returns a breaker interceptor named name. Transient codes and DeadlineExceeded trip it;
// NotFound, InvalidArgument and other caller errors do not.
func NewCircuitBreaker(name string, cfg config.CircuitBreakerConfig) grpc.UnaryClientInterceptor {
	breaker := gobreaker.NewCircuitBreaker[any](resilience.BreakerSettings(name, cfg, isSystemSuccess))
	return UnaryCircuitBreakerInterceptor(breaker)
}

func isSystemSuccess(err error) bool {
	if err == nil {
		return true
	}
	st, ok := status.FromError(err)
	if !ok {
		return false
	}
	return st.Code() != codes.DeadlineExceeded && !slices.Contains(transientCodes, st.Code())
}
