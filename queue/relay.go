// Package queue hands rebalancing tasks from the transactional outbox to the
// downstream ledger's durable queue.
package queue

import (
	"context"
	"errors"
	"time"

	"github.com/mstgnz/carepay/infra/logger"
	"github.com/mstgnz/carepay/ledger"
)

// Outbox is the durable store of pending rebalancing tasks
type Outbox interface {
	PendingTasks(ctx context.Context, now time.Time, limit int) ([]*ledger.RebalanceTask, error)
	// ClaimTask leases a task until leaseUntil; false means another relay holds it
	ClaimTask(ctx context.Context, id string, now, leaseUntil time.Time) (bool, error)
	MarkDispatched(ctx context.Context, id string, at time.Time) error
	MarkFailed(ctx context.Context, id string, reason string, nextAttempt time.Time) error
}

// Publisher delivers one task to the ledger
type Publisher interface {
	Publish(ctx context.Context, task *ledger.RebalanceTask) error
}

// RelayConfig tunes polling and retry
type RelayConfig struct {
	PollInterval time.Duration
	BatchSize    int
	Lease        time.Duration
	BaseBackoff  time.Duration
	MaxBackoff   time.Duration
}

func (c RelayConfig) withDefaults() RelayConfig {
	if c.PollInterval <= 0 {
		c.PollInterval = 5 * time.Second
	}
	if c.BatchSize <= 0 {
		c.BatchSize = 25
	}
	if c.Lease <= 0 {
		c.Lease = time.Minute
	}
	if c.BaseBackoff <= 0 {
		c.BaseBackoff = 2 * time.Second
	}
	if c.MaxBackoff <= 0 {
		c.MaxBackoff = 10 * time.Minute
	}
	return c
}

// Relay moves outbox tasks to the publisher, retrying failures with
// exponential backoff. Several relays may share one outbox.
type Relay struct {
	outbox    Outbox
	publisher Publisher
	cfg       RelayConfig
	wake      chan struct{}
	now       func() time.Time
}

func NewRelay(outbox Outbox, publisher Publisher, cfg RelayConfig) *Relay {
	return &Relay{
		outbox:    outbox,
		publisher: publisher,
		cfg:       cfg.withDefaults(),
		wake:      make(chan struct{}, 1),
		now:       time.Now,
	}
}

// Notify asks for an early drain. It never blocks.
func (r *Relay) Notify() {
	select {
	case r.wake <- struct{}{}:
	default:
	}
}

// Run drains the outbox on every tick or notification until ctx is done
func (r *Relay) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.cfg.PollInterval)
	defer ticker.Stop()

	logger.Info("Rebalance relay started", logger.LogContext{
		Fields: map[string]any{"poll_interval": r.cfg.PollInterval.String()},
	})

	for {
		if _, err := r.Drain(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("Rebalance relay drain failed", err)
		}

		select {
		case <-ctx.Done():
			logger.Info("Rebalance relay stopped")
			return ctx.Err()
		case <-ticker.C:
		case <-r.wake:
		}
	}
}

// Drain publishes every due task once and returns how many were delivered
func (r *Relay) Drain(ctx context.Context) (int, error) {
	now := r.now().UTC()
	tasks, err := r.outbox.PendingTasks(ctx, now, r.cfg.BatchSize)
	if err != nil {
		return 0, err
	}

	published := 0
	for _, task := range tasks {
		if ctx.Err() != nil {
			return published, ctx.Err()
		}

		claimed, err := r.outbox.ClaimTask(ctx, task.ID, now, now.Add(r.cfg.Lease))
		if err != nil {
			return published, err
		}
		if !claimed {
			continue
		}

		if err := r.publisher.Publish(ctx, task); err != nil {
			next := now.Add(Backoff(task.Attempts+1, r.cfg.BaseBackoff, r.cfg.MaxBackoff))
			logger.Warn("Rebalance task publish failed", logger.LogContext{
				Fields: map[string]any{
					"task_id":      task.ID,
					"account_id":   task.AccountID,
					"attempts":     task.Attempts + 1,
					"next_attempt": next.Format(time.RFC3339),
					"error":        err.Error(),
				},
			})
			if markErr := r.outbox.MarkFailed(ctx, task.ID, err.Error(), next); markErr != nil {
				return published, markErr
			}
			continue
		}

		if err := r.outbox.MarkDispatched(ctx, task.ID, r.now().UTC()); err != nil {
			return published, err
		}
		published++
		logger.Debug("Rebalance task published", logger.LogContext{
			Fields: map[string]any{"task_id": task.ID, "account_id": task.AccountID},
		})
	}
	return published, nil
}

// Backoff is base doubled per prior attempt, capped at ceiling
func Backoff(attempts int, base, ceiling time.Duration) time.Duration {
	if attempts <= 1 {
		return base
	}
	d := base
	for i := 1; i < attempts; i++ {
		d *= 2
		if d >= ceiling {
			return ceiling
		}
	}
	return d
}
