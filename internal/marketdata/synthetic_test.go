package marketdata

import (
	"context"
	"errors"
	"testing"
	"time"

	"TradePulse/internal/domain/models"
	"TradePulse/pkg/cache"
	"TradePulse/pkg/logger"
)

func testConfig() SyntheticConfig {
	return SyntheticConfig{
		Indices:    []string{models.IndexNifty, models.IndexBankNifty},
		BaseLTP:    map[string]float64{models.IndexNifty: 25000, models.IndexBankNifty: 53000},
		DefaultVIX: 15.0,
		BarsPerDay: 78,
		Days:       2,
	}
}

func TestSyntheticSnapshotShape(t *testing.T) {
	p := NewSynthetic(testConfig(), 42)
	snap, err := p.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}

	if snap.Source != SourceSynthetic {
		t.Fatalf("snapshot must be flagged synthetic, got %q", snap.Source)
	}
	if len(snap.LTP) != 2 {
		t.Fatalf("expected 2 indices, got %v", snap.LTP)
	}
	if snap.VIX < 8 {
		t.Fatalf("VIX floor violated: %v", snap.VIX)
	}
	// 11 strikes x 2 types per index.
	if len(snap.OptionsChain) != 2*11*2 {
		t.Fatalf("unexpected chain size %d", len(snap.OptionsChain))
	}
	for _, opt := range snap.OptionsChain {
		if opt.Source != SourceSynthetic {
			t.Fatalf("chain row missing synthetic flag: %+v", opt)
		}
		if opt.LTP <= 0 || opt.OI <= 0 {
			t.Fatalf("implausible contract: %+v", opt)
		}
	}
	series := snap.Historical[models.IndexNifty]
	if series.Len() != 78*2 {
		t.Fatalf("unexpected history length %d", series.Len())
	}
	// Last close anchors to the reported LTP.
	if series.Close[series.Len()-1] != snap.LTP[models.IndexNifty] {
		t.Fatalf("history does not end at LTP")
	}
	if len(snap.News) == 0 {
		t.Fatalf("expected sample headlines")
	}
}

func TestSyntheticATMConcentration(t *testing.T) {
	p := NewSynthetic(testConfig(), 7)
	snap, _ := p.Snapshot(context.Background())

	var nearOI, farOI, nearN, farN float64
	base := snap.LTP[models.IndexNifty]
	for _, opt := range snap.OptionsChain {
		if opt.Index != models.IndexNifty {
			continue
		}
		d := opt.Strike - base
		if d < 0 {
			d = -d
		}
		if d <= 200 {
			nearOI += float64(opt.OI)
			nearN++
		} else {
			farOI += float64(opt.OI)
			farN++
		}
	}
	if nearN == 0 || farN == 0 {
		t.Fatalf("strike ladder not spanning ATM")
	}
	if nearOI/nearN <= farOI/farN {
		t.Fatalf("expected OI concentration near ATM: near avg %v, far avg %v", nearOI/nearN, farOI/farN)
	}
}

type failingProvider struct{ calls int }

func (f *failingProvider) Snapshot(ctx context.Context) (*models.MarketSnapshot, error) {
	f.calls++
	return nil, errors.New("feed down")
}

func TestCachedServesWithinBudget(t *testing.T) {
	mem := cache.NewMemory(time.Minute)
	defer mem.Close()

	inner := NewSynthetic(testConfig(), 1)
	p := NewCached(inner, mem, 30*time.Second, logger.Nop())

	first, err := p.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("first snapshot: %v", err)
	}
	second, err := p.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("second snapshot: %v", err)
	}
	if !first.Timestamp.Equal(second.Timestamp) {
		t.Fatalf("expected cached snapshot within budget")
	}
}

func TestCachedDegradesToStale(t *testing.T) {
	mem := cache.NewMemory(time.Minute)
	defer mem.Close()

	// Seed the cache with an expired snapshot, then fail the upstream.
	stale := &models.MarketSnapshot{VIX: 17.5, Timestamp: time.Now().Add(-time.Hour)}
	if err := mem.Set(context.Background(), snapshotKey, stale, time.Hour); err != nil {
		t.Fatalf("seed cache: %v", err)
	}

	f := &failingProvider{}
	p := NewCached(f, mem, 30*time.Second, logger.Nop())
	got, err := p.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("expected stale fallback, got error %v", err)
	}
	if got.VIX != 17.5 {
		t.Fatalf("expected the stale snapshot, got %+v", got)
	}
	if f.calls != 1 {
		t.Fatalf("upstream should have been tried once, got %d", f.calls)
	}
}

func TestCachedErrorsWithoutAnySnapshot(t *testing.T) {
	mem := cache.NewMemory(time.Minute)
	defer mem.Close()

	p := NewCached(&failingProvider{}, mem, 30*time.Second, logger.Nop())
	if _, err := p.Snapshot(context.Background()); err == nil {
		t.Fatalf("expected error with no cached snapshot")
	}
}
