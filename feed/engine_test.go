package feed

import (
	"testing"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"

	"github.com/brianoflondon/v4vapp-hive-pricefeed/domain"
)

func TestUpdateNeeded(t *testing.T) {
	engine := NewEngine(0.02, 12*time.Hour, hclog.NewNullLogger())
	now := time.Date(2023, 6, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		base  float64
		prior domain.FeedRecord
		want  bool
	}{
		{
			name:  "small change and fresh record",
			base:  0.351,
			prior: domain.FeedRecord{Base: 0.350, PublishedAt: now.Add(-time.Hour)},
			want:  false,
		},
		{
			name:  "change above threshold",
			base:  0.360,
			prior: domain.FeedRecord{Base: 0.350, PublishedAt: now.Add(-time.Hour)},
			want:  true,
		},
		{
			name:  "change below threshold in the other direction",
			base:  0.344,
			prior: domain.FeedRecord{Base: 0.350, PublishedAt: now.Add(-time.Hour)},
			want:  false,
		},
		{
			name:  "drop above threshold",
			base:  0.340,
			prior: domain.FeedRecord{Base: 0.350, PublishedAt: now.Add(-time.Hour)},
			want:  true,
		},
		{
			name:  "unchanged but record too old",
			base:  0.350,
			prior: domain.FeedRecord{Base: 0.350, PublishedAt: now.Add(-12 * time.Hour)},
			want:  true,
		},
		{
			name:  "unchanged just inside the age limit",
			base:  0.350,
			prior: domain.FeedRecord{Base: 0.350, PublishedAt: now.Add(-12*time.Hour + time.Minute)},
			want:  false,
		},
		{
			name:  "large change with zero age",
			base:  0.700,
			prior: domain.FeedRecord{Base: 0.350, PublishedAt: now},
			want:  true,
		},
		{
			name:  "both rates zero must not divide by zero",
			base:  0,
			prior: domain.FeedRecord{Base: 0, PublishedAt: now},
			want:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := engine.UpdateNeeded(tt.base, tt.prior, true, now)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestUpdateNeededWithoutPrior(t *testing.T) {
	engine := NewEngine(0.02, 12*time.Hour, hclog.NewNullLogger())

	got := engine.UpdateNeeded(0.400, domain.FeedRecord{}, false, time.Now())
	assert.True(t, got)
}
