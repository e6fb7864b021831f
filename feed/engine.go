// Package feed holds the publish decision, the publisher and the scheduler
// that keeps the feed alive
package feed

import (
	"fmt"
	"math"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/brianoflondon/v4vapp-hive-pricefeed/domain"
)

// Engine decides whether a freshly observed rate warrants a feed publish
type Engine struct {
	minDelta float64
	maxAge   time.Duration
	log      hclog.Logger
}

// NewEngine creates a decision engine that publishes on a relative change of
// at least minDelta or once the prior record is maxAge old
func NewEngine(minDelta float64, maxAge time.Duration, log hclog.Logger) *Engine {
	return &Engine{
		minDelta: minDelta,
		maxAge:   maxAge,
		log:      log.Named("engine"),
	}
}

// UpdateNeeded reports whether base should be published given the prior
// record. havePrior is false on the first run or when the stored record was
// unreadable; both force a publish since there is no known baseline.
func (e *Engine) UpdateNeeded(base float64, prior domain.FeedRecord, havePrior bool, now time.Time) bool {
	if !havePrior {
		e.log.Info("no prior feed record, publish needed", "base_now", fmt.Sprintf("%.3f", base))

		return true
	}

	mid := (base + prior.Base) / 2
	if mid == 0 {
		// The relative delta is undefined here; publish rather than divide
		// by zero.
		e.log.Info("prior and current rates sum to zero, publish needed")

		return true
	}

	delta := math.Abs(base-prior.Base) / mid
	age := now.Sub(prior.PublishedAt)
	needed := delta >= e.minDelta || age >= e.maxAge

	msg := "price feed unchanged"
	if needed {
		msg = "price feed needs update"
	}

	e.log.Info(msg,
		"base_now", fmt.Sprintf("%.3f", base),
		"prev_base", fmt.Sprintf("%.3f", prior.Base),
		"change_pct", fmt.Sprintf("%.1f", delta*100),
		"age", age.Truncate(time.Second),
	)

	return needed
}
