package repository

import (
	"context"
	"testing"

	"strategydesk/src/model"
)

func TestBacktestRunRepository_Lifecycle(t *testing.T) {
	ctx := context.Background()
	repo := (&BacktestRunRepository{}).WithDB(newTestDB(t))

	run := &model.BacktestRun{
		StrategyID:  1,
		UserID:      1,
		RequestID:   "req-abc",
		Status:      model.RunStatusPending,
		RequestJSON: `{"index":"NIFTY"}`,
	}
	if err := repo.Create(ctx, run); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if run.ID == 0 {
		t.Fatal("expected generated ID")
	}

	run.SummaryJSON = `{"total_pnl":400}`
	run.AnalyticsJSON = `{"equity_points":[]}`
	run.TradeCount = 3
	run.TotalPnl = 400
	if err := repo.MarkCompleted(ctx, run); err != nil {
		t.Fatalf("mark completed failed: %v", err)
	}

	loaded, err := repo.FindByID(ctx, run.ID)
	if err != nil {
		t.Fatalf("find failed: %v", err)
	}
	if loaded.Status != model.RunStatusCompleted {
		t.Fatalf("expected completed status, got %q", loaded.Status)
	}
	if loaded.TradeCount != 3 || loaded.TotalPnl != 400 {
		t.Fatalf("outcome fields not persisted: %+v", loaded)
	}
	if loaded.CompletedAt == nil {
		t.Fatal("expected completion timestamp")
	}
}

func TestBacktestRunRepository_MarkFailed(t *testing.T) {
	ctx := context.Background()
	repo := (&BacktestRunRepository{}).WithDB(newTestDB(t))

	run := &model.BacktestRun{StrategyID: 1, UserID: 1, Status: model.RunStatusPending}
	if err := repo.Create(ctx, run); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if err := repo.MarkFailed(ctx, run.ID, model.RunStatusCancelled, "superseded by a newer request"); err != nil {
		t.Fatalf("mark failed errored: %v", err)
	}

	loaded, err := repo.FindByID(ctx, run.ID)
	if err != nil {
		t.Fatalf("find failed: %v", err)
	}
	if loaded.Status != model.RunStatusCancelled {
		t.Fatalf("expected cancelled status, got %q", loaded.Status)
	}
	if loaded.ErrorMessage == "" || loaded.CompletedAt == nil {
		t.Fatalf("failure details not persisted: %+v", loaded)
	}
}

func TestBacktestRunRepository_FindMissingReturnsNilNil(t *testing.T) {
	repo := (&BacktestRunRepository{}).WithDB(newTestDB(t))

	loaded, err := repo.FindByID(context.Background(), 12345)
	if err != nil {
		t.Fatalf("expected nil error for missing row, got %v", err)
	}
	if loaded != nil {
		t.Fatalf("expected nil run, got %+v", loaded)
	}
}

func TestBacktestRunRepository_ListByStrategy(t *testing.T) {
	ctx := context.Background()
	repo := (&BacktestRunRepository{}).WithDB(newTestDB(t))

	for i := 0; i < 3; i++ {
		run := &model.BacktestRun{StrategyID: 5, UserID: 1, Status: model.RunStatusPending}
		if err := repo.Create(ctx, run); err != nil {
			t.Fatalf("create failed: %v", err)
		}
	}
	other := &model.BacktestRun{StrategyID: 6, UserID: 1, Status: model.RunStatusPending}
	if err := repo.Create(ctx, other); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	runs, err := repo.ListByStrategy(ctx, 5, 0)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 3 {
		t.Fatalf("expected 3 runs for strategy 5, got %d", len(runs))
	}
	if runs[0].ID < runs[1].ID {
		t.Fatalf("expected newest first: %v, %v", runs[0].ID, runs[1].ID)
	}

	limited, err := repo.ListByStrategy(ctx, 5, 2)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(limited) != 2 {
		t.Fatalf("expected limit 2 respected, got %d", len(limited))
	}
}
