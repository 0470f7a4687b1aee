package sourcing

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// CircuitState is the state of a CircuitBreaker.
type CircuitState int

const (
	CircuitClosed CircuitState = iota
	CircuitOpen
	CircuitHalfOpen
)

func (s CircuitState) String() string {
	switch s {
	case CircuitClosed:
		return "closed"
	case CircuitOpen:
		return "open"
	case CircuitHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// CircuitBreakerConfig configures a CircuitBreaker.
type CircuitBreakerConfig struct {
	MaxFailures      int           `default:"3"`
	ResetTimeout     time.Duration `default:"30s"`
	HalfOpenMaxCalls int           `default:"1"`
}

// DefaultCircuitBreakerConfig returns sane defaults for guarding the
// external glpsol invocation: a handful of consecutive failures (solver
// binary missing, repeatedly malformed output) should stop hammering the
// process before every request pays the subprocess-spawn cost.
func DefaultCircuitBreakerConfig() *CircuitBreakerConfig {
	return &CircuitBreakerConfig{MaxFailures: 3, ResetTimeout: 30 * time.Second, HalfOpenMaxCalls: 1}
}

// CircuitBreaker guards the external LP solver invocation the way the
// teacher's optimizer package guards its price cache.
type CircuitBreaker struct {
	mu              sync.Mutex
	state           CircuitState
	failureCount    int
	successCount    int
	lastFailureTime time.Time
	config          *CircuitBreakerConfig
	logger          zerolog.Logger
	name            string
}

// NewCircuitBreaker creates a CircuitBreaker named name.
func NewCircuitBreaker(name string, config *CircuitBreakerConfig, logger zerolog.Logger) *CircuitBreaker {
	if config == nil {
		config = DefaultCircuitBreakerConfig()
	}
	return &CircuitBreaker{config: config, logger: logger, name: name}
}

// Allow reports whether a call should be let through right now.
func (cb *CircuitBreaker) Allow() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case CircuitClosed:
		return true
	case CircuitOpen:
		if time.Since(cb.lastFailureTime) >= cb.config.ResetTimeout {
			cb.state = CircuitHalfOpen
			cb.successCount = 0
			cb.logger.Info().Str("circuit_breaker", cb.name).Msg("transitioning to half-open")
			return true
		}
		return false
	case CircuitHalfOpen:
		return cb.successCount < cb.config.HalfOpenMaxCalls
	default:
		return false
	}
}

// RecordSuccess records a successful call.
func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case CircuitClosed:
		cb.failureCount = 0
	case CircuitHalfOpen:
		cb.successCount++
		if cb.successCount >= cb.config.HalfOpenMaxCalls {
			cb.state = CircuitClosed
			cb.failureCount = 0
			cb.successCount = 0
			cb.logger.Info().Str("circuit_breaker", cb.name).Msg("closing after recovery")
		}
	}
}

// RecordFailure records a failed call.
func (cb *CircuitBreaker) RecordFailure(err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.failureCount++
	cb.lastFailureTime = time.Now()
	cb.logger.Error().Err(err).Str("circuit_breaker", cb.name).Int("failures", cb.failureCount).Msg("solver call failed")

	switch cb.state {
	case CircuitClosed:
		if cb.failureCount >= cb.config.MaxFailures {
			cb.state = CircuitOpen
			cb.logger.Warn().Str("circuit_breaker", cb.name).Msg("opening after max failures")
		}
	case CircuitHalfOpen:
		cb.state = CircuitOpen
		cb.successCount = 0
		cb.logger.Warn().Str("circuit_breaker", cb.name).Msg("re-opening after half-open failure")
	}
}

// State returns the current breaker state.
func (cb *CircuitBreaker) State() CircuitState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}
