package executors

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	logger "github.com/sirupsen/logrus"

	"strategydesk/src/connectors"
	"strategydesk/src/controller"
	"strategydesk/src/model"
	"strategydesk/src/repository"
	"strategydesk/src/risk"
	"strategydesk/src/strategy"
)

// StartLoop periodically re-backtests every strategy flagged auto_refresh so
// stored analytics track fresh engine data. One sweep runs the strategies
// sequentially; the session serializes engine traffic anyway.
func StartLoop(ctx context.Context) error {
	config := GetConfig()

	ticker := time.NewTicker(config.LoopPeriod)
	defer ticker.Stop()

	strategyRep := repository.NewStrategyRepository()
	engine := connectors.NewEngineClient(connectors.GetConfig())
	ctl := controller.NewBacktestController(
		strategyRep,
		repository.NewBacktestRunRepository(),
		engine,
	)

	if err := engine.Health(ctx); err != nil {
		logger.WithError(err).Error("Engine unreachable, loop will not start")
		return err
	}

	// First sweep immediately, then on the ticker.
	if err := sweep(ctx, strategyRep, ctl, config.SystemUserID); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			logger.Println("loop stopped")
			return nil

		case <-ticker.C:
			logger.Info("loop tick")
			if err := sweep(ctx, strategyRep, ctl, config.SystemUserID); err != nil {
				return err
			}
		}
	}
}

func sweep(ctx context.Context, strategyRep *repository.StrategyRepository, ctl *controller.BacktestController, userID uint) error {
	strategies, err := strategyRep.ListAutoRefresh(ctx)
	if err != nil {
		logger.WithError(err).Error("Failed to list auto-refresh strategies")
		return err
	}

	logger.WithField("count", len(strategies)).Info("Auto-refresh sweep")

	for i := range strategies {
		cfg := &strategies[i]

		result, err := ctl.RunBacktest(ctx, cfg, userID)
		if err != nil {
			if errors.Is(err, connectors.ErrRunSuperseded) || ctx.Err() != nil {
				return nil
			}
			// One bad strategy must not stall the sweep.
			logger.WithFields(map[string]interface{}{
				"strategy_id": cfg.ID,
			}).WithError(err).Error("Auto-refresh backtest failed, continuing")
			continue
		}

		if strategy.HasBlocking(result.Violations) {
			logger.WithField("strategy_id", cfg.ID).
				Warn("Stored strategy no longer validates, skipping")
			continue
		}

		logSizingAdvisory(cfg, result)
	}

	return nil
}

// logSizingAdvisory surfaces the drawdown throttle against the fresh run so
// operators see sizing pressure without opening the dashboard.
func logSizingAdvisory(cfg *model.StrategyConfig, result *controller.RunResult) {
	sizing := risk.DefaultSizingConfig()
	capital := decimal.NewFromFloat(strategy.GetConfig().InitialCapital)
	drawdown := decimal.NewFromFloat(result.Analytics.Summary.MaxDrawdown)

	baseLots := int64(0)
	for _, leg := range cfg.Legs {
		baseLots += int64(leg.Lots)
	}

	throttled, fired := risk.ThrottledLots(baseLots, capital, drawdown, sizing)
	if fired {
		logger.WithFields(map[string]interface{}{
			"strategy_id":    cfg.ID,
			"base_lots":      baseLots,
			"throttled_lots": throttled,
			"max_drawdown":   result.Analytics.Summary.MaxDrawdown,
			"lot_size":       risk.LotSize(cfg.Index),
		}).Warn("Drawdown throttle advisory")
	}
}
