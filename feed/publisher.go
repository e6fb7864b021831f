package feed

import (
	"context"
	"fmt"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/brianoflondon/v4vapp-hive-pricefeed/domain"
)

// Publisher broadcasts a feed update and records it once the node confirms
type Publisher struct {
	broadcaster domain.FeedBroadcaster
	store       domain.RecordStore
	witness     string
	log         hclog.Logger
	now         func() time.Time
}

// NewPublisher creates a publisher for the given witness identity
func NewPublisher(
	broadcaster domain.FeedBroadcaster, store domain.RecordStore, witness string, log hclog.Logger,
) *Publisher {
	return &Publisher{
		broadcaster: broadcaster,
		store:       store,
		witness:     witness,
		log:         log.Named("publisher"),
		now:         time.Now,
	}
}

// Publish broadcasts base as the witness exchange rate. The record is only
// written after a confirmed broadcast, so a failed broadcast leaves the
// prior record untouched.
func (p *Publisher) Publish(ctx context.Context, base float64) error {
	confirmation, err := p.broadcaster.FeedPublish(ctx, p.witness, base)
	if err != nil {
		return fmt.Errorf("broadcast failed: %w", err)
	}

	p.log.Info("price feed published",
		"publisher", p.witness,
		"base", fmt.Sprintf("%.3f HBD", base),
		"tx", confirmation.TxID,
		"block", confirmation.BlockNum,
	)

	record := domain.FeedRecord{
		Base:        base,
		PublishedAt: p.now().UTC(),
	}

	if err := p.store.Save(record); err != nil {
		return fmt.Errorf("feed published but record not saved: %w", err)
	}

	return nil
}
