package swap

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ThrownLemon/conceal-bridge-ux-sub000/backoff"
	"github.com/ThrownLemon/conceal-bridge-ux-sub000/bridgeapi"
	"github.com/ThrownLemon/conceal-bridge-ux-sub000/log"
)

// DefaultSuccessInterval delay between status checks while the
// backend answers well-formed "not yet complete" responses
const DefaultSuccessInterval = 10 * time.Second

// StatusFunc queries the backend swap status of a payment id
type StatusFunc func(paymentID string) (*bridgeapi.SwapStatusResult, error)

// PollEvents callbacks of one polling sequence. All callbacks run on
// the polling goroutine and only while the sequence is still current.
type PollEvents struct {
	OnComplete  func(paymentID string, txData *bridgeapi.SwapTxData)
	OnTransient func(paymentID string, delay time.Duration, attempt int)
	OnExhausted func(paymentID string, lastErr error)
}

// Poller schedules repeated status checks with distinct success and
// error intervals. At most one sequence is active at a time; starting
// a new one invalidates the previous via a generation counter, so a
// stale in-flight check can never mutate state after cancellation.
type Poller struct {
	mu              sync.Mutex
	generation      uint64
	cancel          context.CancelFunc
	successInterval time.Duration
	backoffConfig   backoff.Config
}

// NewPoller new poller with the polling retry policy
func NewPoller(successInterval time.Duration, backoffConfig backoff.Config) *Poller {
	if successInterval <= 0 {
		successInterval = DefaultSuccessInterval
	}
	return &Poller{
		successInterval: successInterval,
		backoffConfig:   backoffConfig,
	}
}

// PollingBackoffConfig the polling retry policy.
// Shorter jitter and a larger base than the generic defaults.
func PollingBackoffConfig(maxRetries int) backoff.Config {
	config := backoff.DefaultConfig()
	config.BaseDelay = 2000 * time.Millisecond
	config.JitterFactor = 0.2
	if maxRetries > 0 {
		config.MaxRetries = maxRetries
	}
	return config
}

// Start begin polling for a payment id, cancelling any previous
// sequence first. The first check is issued immediately.
func (p *Poller) Start(ctx context.Context, paymentID string, fetch StatusFunc, events PollEvents) {
	p.mu.Lock()
	if p.cancel != nil {
		p.cancel()
	}
	p.generation++
	generation := p.generation
	pollCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.mu.Unlock()

	log.Info("start swap status polling", "paymentID", paymentID)
	go p.run(pollCtx, generation, paymentID, fetch, events)
}

// Stop cancel the active sequence if any
func (p *Poller) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
	p.generation++
}

func (p *Poller) isCurrent(generation uint64) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.generation == generation
}

func (p *Poller) run(ctx context.Context, generation uint64, paymentID string, fetch StatusFunc, events PollEvents) {
	manager := backoff.NewManager(p.backoffConfig)
	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Debug("swap status polling cancelled", "paymentID", paymentID)
			return
		case <-timer.C:
		}

		status, err := fetch(paymentID)

		if !p.isCurrent(generation) || ctx.Err() != nil {
			return
		}

		switch {
		case err != nil:
			delay := manager.NextDelay(err)
			if delay == backoff.Exhausted {
				log.Error("swap status polling exhausted", "paymentID", paymentID, "err", err)
				if events.OnExhausted != nil {
					events.OnExhausted(paymentID, fmt.Errorf("%w: %v", ErrPollingExhausted, err))
				}
				return
			}
			log.Warn("swap status check failed, will retry", "paymentID", paymentID, "retryIn", delay, "attempt", manager.Attempt(), "err", err)
			if events.OnTransient != nil {
				events.OnTransient(paymentID, delay, manager.Attempt())
			}
			timer.Reset(delay)

		case status.IsComplete():
			log.Info("swap status polling complete", "paymentID", paymentID, "swapHash", status.TxData.SwapHash)
			if events.OnComplete != nil {
				events.OnComplete(paymentID, status.TxData)
			}
			return

		default:
			// well-formed negative result, healthy backend
			manager.Reset()
			log.Trace("swap not yet complete", "paymentID", paymentID)
			timer.Reset(p.successInterval)
		}
	}
}
