// Package circuitbreaker wraps github.com/sony/gobreaker for calls to
// external delivery services.
package circuitbreaker

import (
	"errors"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"
)

// ErrOpen is returned by Execute while the circuit rejects calls.
var ErrOpen = errors.New("circuit breaker open")

// Config holds the configuration for a circuit breaker.
type Config struct {
	Name string

	// MaxRequests is the number of trial calls allowed while half-open.
	MaxRequests uint32

	// Interval clears the closed-state counts periodically.
	Interval time.Duration

	// Timeout is how long the circuit stays open before a trial call.
	Timeout time.Duration

	// FailureThreshold is the failure ratio that trips the circuit, e.g. 0.6.
	FailureThreshold float64

	// MinRequests is the sample size required before the ratio is evaluated.
	MinRequests uint32

	// IsSuccessful, when set, decides which errors count as failures.
	// Errors it accepts are still returned to the caller.
	IsSuccessful func(err error) bool
}

// PushPublishConfig needs a large sample before tripping: a broadcast issues
// many publishes quickly and some endpoints always fail.
func PushPublishConfig() Config {
	return Config{
		Name:             "sns-publish",
		MaxRequests:      5,
		Interval:         60 * time.Second,
		Timeout:          30 * time.Second,
		FailureThreshold: 0.5,
		MinRequests:      20,
	}
}

type CircuitBreaker struct {
	breaker *gobreaker.CircuitBreaker
}

func New(cfg Config) *CircuitBreaker {
	settings := gobreaker.Settings{
		Name:         cfg.Name,
		MaxRequests:  cfg.MaxRequests,
		Interval:     cfg.Interval,
		Timeout:      cfg.Timeout,
		IsSuccessful: cfg.IsSuccessful,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			slog.Warn("circuit breaker state changed",
				slog.String("circuit", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()))
		},
	}

	return &CircuitBreaker{breaker: gobreaker.NewCircuitBreaker(settings)}
}

// Execute runs fn through the breaker. Rejections caused by an open or
// saturated half-open circuit are reported as ErrOpen.
func Execute[T any](cb *CircuitBreaker, fn func() (T, error)) (T, error) {
	res, err := cb.breaker.Execute(func() (interface{}, error) {
		return fn()
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		var zero T
		return zero, ErrOpen
	}
	v, _ := res.(T)
	return v, err
}

func (cb *CircuitBreaker) IsOpen() bool {
	return cb.breaker.State() == gobreaker.StateOpen
}
