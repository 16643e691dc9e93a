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

// StrategyRepository handles read/write operations for strategy configs.
type StrategyRepository struct {
	db *gorm.DB
}

// NewStrategyRepository creates a new repository instance using the main
// read/write database.
func NewStrategyRepository() *StrategyRepository {
	logger.WithField("component", "StrategyRepository").
		Info("Creating new StrategyRepository with MainDB")

	return &StrategyRepository{
		db: database.MainDB,
	}
}

// WithDB allows overriding the underlying *gorm.DB instance.
// Useful for tests or when using a specific session/transaction.
func (r *StrategyRepository) WithDB(db *gorm.DB) *StrategyRepository {
	return &StrategyRepository{db: db}
}

// Create inserts a new strategy. The given config will be updated with the
// generated ID and timestamps.
func (r *StrategyRepository) Create(ctx context.Context, cfg *model.StrategyConfig) error {

	logger.WithFields(map[string]interface{}{
		"repo":  "StrategyRepository",
		"op":    "Create",
		"index": cfg.Index,
		"legs":  len(cfg.Legs),
	}).Debug("Creating new strategy")

	err := r.db.WithContext(ctx).Create(cfg).Error
	if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo": "StrategyRepository",
			"op":   "Create",
		}).WithError(err).Error("Failed to create strategy")
		return err
	}

	return nil
}

// FindByID fetches a single strategy by its primary ID.
// Returns (nil, nil) if the strategy is not found.
func (r *StrategyRepository) FindByID(ctx context.Context, id uint) (*model.StrategyConfig, error) {
	var cfg model.StrategyConfig

	err := r.db.WithContext(ctx).First(&cfg, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		logger.WithFields(map[string]interface{}{
			"repo": "StrategyRepository",
			"op":   "FindByID",
			"id":   id,
		}).WithError(err).Error("Failed to fetch strategy")
		return nil, err
	}

	return &cfg, nil
}

// ListByUser returns a user's strategies, newest first.
func (r *StrategyRepository) ListByUser(ctx context.Context, userID uint, limit int) ([]model.StrategyConfig, error) {
	if limit <= 0 {
		limit = 50
	}

	var out []model.StrategyConfig
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("id DESC").
		Limit(limit).
		Find(&out).Error
	if err != nil {
		logger.WithError(err).Error("Failed to list strategies")
		return nil, err
	}

	return out, nil
}

// ListAutoRefresh returns every strategy flagged for the scheduled
// re-backtest loop.
func (r *StrategyRepository) ListAutoRefresh(ctx context.Context) ([]model.StrategyConfig, error) {
	var out []model.StrategyConfig
	err := r.db.WithContext(ctx).
		Where("auto_refresh = ?", true).
		Order("id ASC").
		Find(&out).Error
	if err != nil {
		logger.WithError(err).Error("Failed to list auto-refresh strategies")
		return nil, err
	}

	return out, nil
}

// TouchLastRun stamps the time of the latest backtest of a strategy.
func (r *StrategyRepository) TouchLastRun(ctx context.Context, id uint, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&model.StrategyConfig{}).
		Where("id = ?", id).
		Update("last_run_at", at).Error
}
