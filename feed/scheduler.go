package feed

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/sethvargo/go-retry"

	"github.com/brianoflondon/v4vapp-hive-pricefeed/domain"
	"github.com/brianoflondon/v4vapp-hive-pricefeed/hive"
)

// ErrFailureBudgetExhausted reports that the configured ceiling of
// consecutive failures was reached and the scheduler gave up
var ErrFailureBudgetExhausted = errors.New("failure budget exhausted")

// Scheduler runs the publish loop: fetch a price, decide, publish when due,
// and keep the process alive across transient failures. It owns the only
// two suspension points in the system, the cadence sleep and the backoff
// sleep, so cancellation is always observed at a safe boundary.
type Scheduler struct {
	source    domain.RateSource
	engine    *Engine
	publisher *Publisher
	store     domain.RecordStore
	interval  time.Duration
	maxErrors int
	log       hclog.Logger

	// overridable in tests so no cycle waits on real time
	now        func() time.Time
	sleep      func(ctx context.Context, d time.Duration) error
	newBackoff func() retry.Backoff
}

// NewScheduler wires the loop together. interval is the idle time between
// successful cycles, maxErrors the consecutive-failure budget.
func NewScheduler(
	source domain.RateSource,
	engine *Engine,
	publisher *Publisher,
	store domain.RecordStore,
	interval time.Duration,
	maxErrors int,
	log hclog.Logger,
) *Scheduler {
	return &Scheduler{
		source:    source,
		engine:    engine,
		publisher: publisher,
		store:     store,
		interval:  interval,
		maxErrors: maxErrors,
		log:       log.Named("scheduler"),
		now:       time.Now,
		sleep:     sleepContext,
		newBackoff: func() retry.Backoff {
			return QuadraticBackoff(backoffBase, backoffStep)
		},
	}
}

// Run executes the loop until the context is cancelled, a fatal credential
// failure occurs, or the failure budget is exhausted. It never returns nil.
func (s *Scheduler) Run(ctx context.Context) error {
	s.log.Info("price feed scheduler running", "interval", s.interval, "max_errors", s.maxErrors)

	consecutive := 0

	var backoff retry.Backoff

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := s.cycle(ctx)
		if err == nil {
			consecutive = 0
			backoff = nil

			if err := s.sleep(ctx, s.interval); err != nil {
				return err
			}

			continue
		}

		if ctx.Err() != nil {
			return ctx.Err()
		}

		var ledgerErr *hive.Error
		if errors.As(err, &ledgerErr) && ledgerErr.Fatal() {
			s.log.Error("non-recoverable ledger failure, stopping",
				"kind", ledgerErr.Kind.String(), "error", err)

			return err
		}

		consecutive++
		s.log.Warn("cycle failed", "error", err, "consecutive_errors", consecutive)

		if consecutive >= s.maxErrors {
			s.log.Error("giving up", "consecutive_errors", consecutive)

			return fmt.Errorf("%w after %d consecutive failures", ErrFailureBudgetExhausted, consecutive)
		}

		if backoff == nil {
			backoff = s.newBackoff()
		}

		delay, stop := backoff.Next()
		if stop {
			return fmt.Errorf("%w after %d consecutive failures", ErrFailureBudgetExhausted, consecutive)
		}

		s.log.Info("backing off", "delay", delay)

		if err := s.sleep(ctx, delay); err != nil {
			return err
		}
	}
}

// cycle performs one fetch-decide-publish pass
func (s *Scheduler) cycle(ctx context.Context) error {
	observation, err := s.source.Latest(ctx)
	if err != nil {
		return fmt.Errorf("price fetch failed: %w", err)
	}

	prior, havePrior := s.store.Load()

	if !s.engine.UpdateNeeded(observation.Base, prior, havePrior, s.now()) {
		return nil
	}

	return s.publisher.Publish(ctx, observation.Base)
}

// sleepContext waits for d or until ctx is cancelled
func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
