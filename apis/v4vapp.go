// Package apis provides external price feed integrations
package apis

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/brianoflondon/v4vapp-hive-pricefeed/domain"
)

// V4VApp fetches the HBD-per-HIVE rate from the v4v.app crypto prices API
type V4VApp struct {
	url    string
	client *http.Client
	log    hclog.Logger
	now    func() time.Time
}

var _ domain.RateSource = (*V4VApp)(nil)

// cryptoPrices mirrors the part of the v4v.app response we consume
type cryptoPrices struct {
	V4VApp struct {
		HiveHBD float64 `json:"Hive_HBD"`
	} `json:"v4vapp"`
}

// NewV4VApp creates a new v4v.app price source
func NewV4VApp(url string, log hclog.Logger) *V4VApp {
	return &V4VApp{
		url: url,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		log: log.Named("v4vapp"),
		now: time.Now,
	}
}

// Latest fetches a fresh HBD-per-HIVE observation
func (v *V4VApp) Latest(ctx context.Context) (domain.PriceObservation, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.url, nil)
	if err != nil {
		return domain.PriceObservation{}, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := v.client.Do(req)
	if err != nil {
		return domain.PriceObservation{}, fmt.Errorf("failed to fetch prices: %w", err)
	}

	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return domain.PriceObservation{}, fmt.Errorf("price API returned non-200 status: %d", resp.StatusCode)
	}

	var prices cryptoPrices
	if err := json.NewDecoder(resp.Body).Decode(&prices); err != nil {
		return domain.PriceObservation{}, fmt.Errorf("failed to decode price response: %w", err)
	}

	base := prices.V4VApp.HiveHBD
	if base <= 0 {
		return domain.PriceObservation{}, fmt.Errorf("price API returned no usable Hive_HBD rate")
	}

	obs := domain.PriceObservation{
		Base:       base,
		ObservedAt: v.now(),
	}

	v.log.Debug("fetched price", "base", fmt.Sprintf("%.3f", obs.Base))

	return obs, nil
}
