// Package backoff computes exponential retry delays with optional jitter
// and tracks retry attempts for bounded retry sequences.
package backoff

import (
	"math"
	"math/rand"
	"time"
)

// default config values
const (
	DefaultBaseDelay    = 1000 * time.Millisecond
	DefaultMaxDelay     = 30000 * time.Millisecond
	DefaultMaxRetries   = 5
	DefaultJitterFactor = 0.3
)

// Exhausted is returned by NextDelay and PeekDelay when all
// attempts are already used up.
const Exhausted = time.Duration(-1)

// Config backoff config
type Config struct {
	BaseDelay    time.Duration
	MaxDelay     time.Duration
	MaxRetries   int
	Jitter       bool
	JitterFactor float64
}

// DefaultConfig returns the default backoff config
func DefaultConfig() Config {
	return Config{
		BaseDelay:    DefaultBaseDelay,
		MaxDelay:     DefaultMaxDelay,
		MaxRetries:   DefaultMaxRetries,
		Jitter:       true,
		JitterFactor: DefaultJitterFactor,
	}
}

// Delay computes the delay before retry number 'attempt' (0-indexed).
// The exponential value is capped at MaxDelay, then perturbed by
// +/- JitterFactor when jitter is enabled. Never negative.
func Delay(attempt int, config Config) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	base := float64(config.BaseDelay) * math.Pow(2, float64(attempt))
	capped := math.Min(base, float64(config.MaxDelay))
	if !config.Jitter || config.JitterFactor <= 0 {
		return time.Duration(capped)
	}
	perturbed := capped + (rand.Float64()*2-1)*capped*config.JitterFactor //nolint:gosec // retry jitter needs no crypto rand
	if perturbed < 0 {
		perturbed = 0
	}
	return time.Duration(math.Round(perturbed))
}

// Manager tracks attempts of one retry sequence.
// It is reusable context rather than a one-shot loop because callers
// suspend wall-clock waiting between calls instead of blocking inside.
// Not safe for concurrent use.
type Manager struct {
	config    Config
	attempt   int
	lastError error
}

// NewManager new manager with given config
func NewManager(config Config) *Manager {
	return &Manager{config: config}
}

// NextDelay records err if given and returns the delay before the next
// retry, advancing the attempt counter. Returns Exhausted when attempts
// are used up. Call exactly once per retry decision.
func (m *Manager) NextDelay(err error) time.Duration {
	if err != nil {
		m.lastError = err
	}
	if m.attempt >= m.config.MaxRetries {
		return Exhausted
	}
	delay := Delay(m.attempt, m.config)
	m.attempt++
	return delay
}

// PeekDelay returns the delay NextDelay would return, without mutation.
func (m *Manager) PeekDelay() time.Duration {
	if m.attempt >= m.config.MaxRetries {
		return Exhausted
	}
	return Delay(m.attempt, m.config)
}

// Reset zeroes the attempt counter and clears the last error.
// Call on any successful operation.
func (m *Manager) Reset() {
	m.attempt = 0
	m.lastError = nil
}

// IsExhausted returns if all attempts are used up
func (m *Manager) IsExhausted() bool {
	return m.attempt >= m.config.MaxRetries
}

// Attempt returns the current attempt counter
func (m *Manager) Attempt() int {
	return m.attempt
}

// LastError returns the most recent recorded error
func (m *Manager) LastError() error {
	return m.lastError
}
