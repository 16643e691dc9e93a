package repository

import (
	"context"
	"errors"
	"time"

	logger "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"strategydesk/src/database"
	"strategydesk/src/model"
)

// BacktestRunRepository persists engine round trips.
type BacktestRunRepository struct {
	db *gorm.DB
}

func NewBacktestRunRepository() *BacktestRunRepository {
	logger.WithField("component", "BacktestRunRepository").
		Info("Creating new BacktestRunRepository with MainDB")

	return &BacktestRunRepository{
		db: database.MainDB,
	}
}

// WithDB allows overriding the underlying *gorm.DB instance.
func (r *BacktestRunRepository) WithDB(db *gorm.DB) *BacktestRunRepository {
	return &BacktestRunRepository{db: db}
}

// Create inserts a pending run before the request goes out.
func (r *BacktestRunRepository) Create(ctx context.Context, run *model.BacktestRun) error {

	logger.WithFields(map[string]interface{}{
		"repo":        "BacktestRunRepository",
		"op":          "Create",
		"strategy_id": run.StrategyID,
		"request_id":  run.RequestID,
	}).Debug("Creating backtest run")

	err := r.db.WithContext(ctx).Create(run).Error
	if err != nil {
		logger.WithError(err).Error("Failed to create backtest run")
		return err
	}

	return nil
}

// MarkCompleted stores the engine summary and derived analytics of a
// finished run.
func (r *BacktestRunRepository) MarkCompleted(ctx context.Context, run *model.BacktestRun) error {
	now := time.Now().UTC()
	run.Status = model.RunStatusCompleted
	run.CompletedAt = &now

	err := r.db.WithContext(ctx).
		Model(&model.BacktestRun{}).
		Where("id = ?", run.ID).
		Updates(map[string]interface{}{
			"status":         run.Status,
			"summary_json":   run.SummaryJSON,
			"analytics_json": run.AnalyticsJSON,
			"trade_count":    run.TradeCount,
			"total_pnl":      run.TotalPnl,
			"completed_at":   run.CompletedAt,
		}).Error
	if err != nil {
		logger.WithError(err).Error("Failed to mark run completed")
	}
	return err
}

// MarkFailed records a failure or cancellation with its user-facing message.
func (r *BacktestRunRepository) MarkFailed(ctx context.Context, id uint, status, message string) error {
	now := time.Now().UTC()

	err := r.db.WithContext(ctx).
		Model(&model.BacktestRun{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":        status,
			"error_message": message,
			"completed_at":  &now,
		}).Error
	if err != nil {
		logger.WithError(err).Error("Failed to mark run failed")
	}
	return err
}

// FindByID fetches a single run. Returns (nil, nil) when missing.
func (r *BacktestRunRepository) FindByID(ctx context.Context, id uint) (*model.BacktestRun, error) {
	var run model.BacktestRun

	err := r.db.WithContext(ctx).First(&run, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		logger.WithError(err).Error("Failed to fetch backtest run")
		return nil, err
	}

	return &run, nil
}

// ListByStrategy returns the runs of one strategy, newest first.
func (r *BacktestRunRepository) ListByStrategy(ctx context.Context, strategyID uint, limit int) ([]model.BacktestRun, error) {
	if limit <= 0 {
		limit = 20
	}

	var out []model.BacktestRun
	err := r.db.WithContext(ctx).
		Where("strategy_id = ?", strategyID).
		Order("id DESC").
		Limit(limit).
		Find(&out).Error
	if err != nil {
		logger.WithError(err).Error("Failed to list backtest runs")
		return nil, err
	}

	return out, nil
}
