// Package domain defines core types and interfaces for the price feed service
package domain

import (
	"context"
	"time"
)

// PriceObservation is a freshly fetched HBD-per-HIVE quote
type PriceObservation struct {
	Base       float64   // HBD per 1 HIVE
	ObservedAt time.Time // When the quote was fetched
}

// FeedRecord is the last feed the witness published to the chain
type FeedRecord struct {
	Base        float64   // HBD per 1 HIVE at publish time
	PublishedAt time.Time // When the feed was broadcast
}

// Confirmation identifies a broadcast transaction accepted by a node
type Confirmation struct {
	TxID     string // Transaction id reported by the node
	BlockNum uint32 // Block the transaction was included in
}

// RateSource fetches the current exchange rate from an external price API
type RateSource interface {
	// Latest fetches a fresh price observation
	Latest(ctx context.Context) (PriceObservation, error)
}

// FeedBroadcaster signs and broadcasts a feed_publish operation on behalf
// of a witness
type FeedBroadcaster interface {
	// FeedPublish broadcasts the given HBD-per-HIVE rate and blocks until
	// the node confirms or rejects it
	FeedPublish(ctx context.Context, publisher string, base float64) (Confirmation, error)
}

// RecordStore persists the single most recent published feed record
type RecordStore interface {
	// Load returns the prior record, or ok=false when none is available
	Load() (FeedRecord, bool)

	// Save atomically replaces the stored record
	Save(FeedRecord) error
}
