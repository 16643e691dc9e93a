package repository

import (
	"context"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"strategydesk/src/model"
)

// helper to create a new in memory gorm DB and migrate schema
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open in memory db: %v", err)
	}

	if err := db.AutoMigrate(&model.StrategyConfig{}, &model.BacktestRun{}, &model.Exception{}); err != nil {
		t.Fatalf("failed to automigrate: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to access sql db: %v", err)
	}
	// A second connection would see a fresh empty database.
	sqlDB.SetMaxOpenConns(1)

	return db
}

func sampleStrategy(userID uint) *model.StrategyConfig {
	return &model.StrategyConfig{
		UserID:                userID,
		Name:                  "weekly short straddle",
		Index:                 "NIFTY",
		UnderlyingSource:      model.UnderlyingCash,
		StrategyType:          model.StrategyIntraday,
		ExpiryBasis:           model.BasisWeekly,
		EntryDaysBeforeExpiry: 2,
		DateFrom:              time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC),
		DateTo:                time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Legs: []model.Leg{
			{
				Instrument: model.InstrumentOption,
				OptionType: model.OptionCall,
				Position:   model.PositionSell,
				Lots:       1,
				Expiry:     model.ExpiryWeekly,
				Strike:     model.StrikeAtOffset(0),
			},
			{
				Instrument: model.InstrumentOption,
				OptionType: model.OptionPut,
				Position:   model.PositionSell,
				Lots:       1,
				Expiry:     model.ExpiryWeekly,
				Strike:     model.StrikeAtOffset(0),
			},
		},
	}
}

func TestStrategyRepository_CreateAndFind(t *testing.T) {
	ctx := context.Background()
	repo := (&StrategyRepository{}).WithDB(newTestDB(t))

	cfg := sampleStrategy(1)
	if err := repo.Create(ctx, cfg); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if cfg.ID == 0 {
		t.Fatal("expected generated ID")
	}

	loaded, err := repo.FindByID(ctx, cfg.ID)
	if err != nil {
		t.Fatalf("find failed: %v", err)
	}
	if loaded == nil {
		t.Fatal("expected strategy, got nil")
	}
	if len(loaded.Legs) != 2 {
		t.Fatalf("legs not round-tripped through json serializer: %+v", loaded.Legs)
	}
	if loaded.Legs[0].Strike == nil || loaded.Legs[0].Strike.Tag != model.StrikeTagStrikeType {
		t.Fatalf("strike selection lost in persistence: %+v", loaded.Legs[0].Strike)
	}
}

func TestStrategyRepository_FindMissingReturnsNilNil(t *testing.T) {
	repo := (&StrategyRepository{}).WithDB(newTestDB(t))

	loaded, err := repo.FindByID(context.Background(), 9999)
	if err != nil {
		t.Fatalf("expected nil error for missing row, got %v", err)
	}
	if loaded != nil {
		t.Fatalf("expected nil strategy, got %+v", loaded)
	}
}

func TestStrategyRepository_ListByUser(t *testing.T) {
	ctx := context.Background()
	repo := (&StrategyRepository{}).WithDB(newTestDB(t))

	for i := 0; i < 3; i++ {
		if err := repo.Create(ctx, sampleStrategy(42)); err != nil {
			t.Fatalf("create failed: %v", err)
		}
	}
	if err := repo.Create(ctx, sampleStrategy(7)); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	out, err := repo.ListByUser(ctx, 42, 0)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(out) != 3 {
		t.Fatalf("expected 3 strategies for user 42, got %d", len(out))
	}
	if out[0].ID < out[1].ID {
		t.Fatalf("expected newest first: %v, %v", out[0].ID, out[1].ID)
	}

	limited, err := repo.ListByUser(ctx, 42, 2)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(limited) != 2 {
		t.Fatalf("expected limit 2 respected, got %d", len(limited))
	}
}

func TestStrategyRepository_ListAutoRefresh(t *testing.T) {
	ctx := context.Background()
	repo := (&StrategyRepository{}).WithDB(newTestDB(t))

	flagged := sampleStrategy(1)
	flagged.AutoRefresh = true
	if err := repo.Create(ctx, flagged); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if err := repo.Create(ctx, sampleStrategy(1)); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	out, err := repo.ListAutoRefresh(ctx)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(out) != 1 || out[0].ID != flagged.ID {
		t.Fatalf("expected only the flagged strategy, got %+v", out)
	}
}

func TestStrategyRepository_TouchLastRun(t *testing.T) {
	ctx := context.Background()
	repo := (&StrategyRepository{}).WithDB(newTestDB(t))

	cfg := sampleStrategy(1)
	if err := repo.Create(ctx, cfg); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	at := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	if err := repo.TouchLastRun(ctx, cfg.ID, at); err != nil {
		t.Fatalf("touch failed: %v", err)
	}

	loaded, err := repo.FindByID(ctx, cfg.ID)
	if err != nil {
		t.Fatalf("find failed: %v", err)
	}
	if loaded.LastRunAt == nil || !loaded.LastRunAt.Equal(at) {
		t.Fatalf("last run not stamped: %+v", loaded.LastRunAt)
	}
}
