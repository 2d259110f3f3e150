package agents

import (
	"context"
	"testing"

	"TradePulse/internal/domain/models"
	"TradePulse/internal/repository"
	"TradePulse/internal/services/quant"
	"TradePulse/internal/state"
	"TradePulse/pkg/logger"
)

var testThresholds = map[string]quant.OiThresholds{
	models.IndexNifty: {MinOI: 1000, MinVolume: 100},
}

func newTestAuditStore(t *testing.T) *repository.SQLiteAuditStore {
	t.Helper()
	store, err := repository.NewSQLiteAuditStore(":memory:", logger.Nop())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	if err := store.Init(context.Background()); err != nil {
		t.Fatalf("init store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestActiveTradesEmptyChain(t *testing.T) {
	st := newCycleState(t)
	agent := NewActiveTrades(nil, testThresholds, 5, logger.Nop())

	out, err := agent.Run(context.Background(), st)
	if err != nil {
		t.Fatalf("run on empty chain: %v", err)
	}
	report := out.(*models.ActivityReport)
	if report.TotalScanned != 0 || len(report.TopActive) != 0 {
		t.Fatalf("expected empty report, got %+v", report)
	}
	if _, ok := st.Get(state.KeyActiveTrades).(*models.ActivityReport); !ok {
		t.Fatalf("report not stored in state")
	}
}

func TestActiveTradesScansChain(t *testing.T) {
	store := newTestAuditStore(t)
	st := newCycleState(t)

	chain := []models.OptionQuote{
		{Index: models.IndexNifty, Strike: 25000, Type: models.OptionCall, OI: 50000, Volume: 8000, ChangeOI: 12000, LTP: 120},
		{Index: models.IndexNifty, Strike: 25000, Type: models.OptionPut, OI: 30000, Volume: 4000, ChangeOI: -2000, LTP: 110},
		{Index: models.IndexNifty, Strike: 25100, Type: models.OptionCall, OI: 8000, Volume: 900, ChangeOI: 100, LTP: 80},
		{Index: models.IndexNifty, Strike: 25100, Type: models.OptionPut, OI: 9000, Volume: 1000, ChangeOI: 300, LTP: 140},
	}
	st.Set(state.KeyOptionsChain, chain)
	agent := NewActiveTrades(store, testThresholds, 5, logger.Nop())

	out, err := agent.Run(context.Background(), st)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	report := out.(*models.ActivityReport)

	if report.TotalScanned != 4 {
		t.Fatalf("scanned = %d, want 4", report.TotalScanned)
	}
	if len(report.PCR) == 0 {
		t.Fatalf("expected PCR stats for nifty")
	}
	if _, ok := report.MaxPain[models.IndexNifty]; !ok {
		t.Fatalf("expected max pain level for nifty")
	}
	for i := 1; i < len(report.TopActive); i++ {
		if report.TopActive[i].ActivityScore > report.TopActive[i-1].ActivityScore {
			t.Fatalf("top active not sorted descending: %+v", report.TopActive)
		}
	}

	// The cycle's OI must be persisted for the next cycle's history lookup.
	samples, err := store.OiHistory(context.Background(), 25000, models.OptionCall, 5)
	if err != nil {
		t.Fatalf("oi history: %v", err)
	}
	if len(samples) != 1 || samples[0].OI != 50000 {
		t.Fatalf("persisted samples = %+v, want one row with OI 50000", samples)
	}
}

func TestActiveTradesHistoryDrivenScore(t *testing.T) {
	store := newTestAuditStore(t)
	ctx := context.Background()

	// Seed a flat history so the current reading doubles it.
	seed := []models.OptionQuote{
		{Index: models.IndexNifty, Strike: 25000, Type: models.OptionCall, OI: 10000, Volume: 1000, LTP: 100},
	}
	for _, id := range []string{"20260831_090000", "20260831_090500"} {
		if err := store.LogOiData(ctx, id, seed); err != nil {
			t.Fatalf("seed oi: %v", err)
		}
	}

	// Current reading is logged before scoring, so the rolling average
	// covers [40000, 10000, 10000] and the ratio lands at exactly 2.0.
	st := newCycleState(t)
	st.Set(state.KeyOptionsChain, []models.OptionQuote{
		{Index: models.IndexNifty, Strike: 25000, Type: models.OptionCall, OI: 40000, Volume: 4000, ChangeOI: 10000, LTP: 130},
	})
	agent := NewActiveTrades(store, testThresholds, 5, logger.Nop())

	out, err := agent.Run(ctx, st)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	report := out.(*models.ActivityReport)
	if report.HighCount != 1 {
		t.Fatalf("high count = %d, want 1 (doubled OI and volume)", report.HighCount)
	}
	got := report.TopActive[0]
	if got.ActivityScore != 2.0 {
		t.Fatalf("activity score = %.2f, want 2.0", got.ActivityScore)
	}
	if got.Comparison != "2.0x avg OI, 2.0x avg volume" {
		t.Fatalf("comparison = %q", got.Comparison)
	}
}
