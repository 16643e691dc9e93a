package backtest

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"strategydesk/src/analytics"
	"strategydesk/src/connectors"
	"strategydesk/src/mapper"
	"strategydesk/src/model"
	"strategydesk/src/strategy"
)

// Backtest is the one-shot command: read a strategy config from a JSON file,
// validate it, run it against the engine, and print the summary. No database
// involved, so it works on a laptop against a local engine.
type Backtest struct{}

func (t *Backtest) Start() error {
	config := GetConfig()
	ctx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)
	defer stop()

	raw, err := os.ReadFile(config.StrategyFile)
	if err != nil {
		logrus.WithError(err).Error("Failed to read strategy file")
		return err
	}

	var cfg model.StrategyConfig
	if err := json.Unmarshal(raw, &cfg); err != nil {
		logrus.WithError(err).Error("Failed to parse strategy file")
		return err
	}

	strategyCfg := strategy.GetConfig()
	violations := strategy.Validate(&cfg, strategyCfg.MaxLegs)
	for _, v := range violations {
		logrus.WithFields(map[string]interface{}{
			"code":     v.Code,
			"severity": v.Severity,
		}).Warn(v.Message)
	}
	if strategy.HasBlocking(violations) {
		return fmt.Errorf("strategy has blocking validation errors")
	}

	payload, err := mapper.BuildPayload(&cfg)
	if err != nil {
		logrus.WithError(err).Error("Failed to build engine payload")
		return err
	}

	engine := connectors.NewEngineClient(connectors.GetConfig())
	if err := engine.Health(ctx); err != nil {
		logrus.WithError(err).Error("Engine unreachable")
		return err
	}

	resp, requestID, err := engine.NewSession().Run(ctx, payload)
	if err != nil {
		logrus.WithError(err).Error("Backtest failed")
		return err
	}

	trades := mapper.MapEngineTrades(resp.Trades)
	groups := analytics.GroupTrades(trades)
	result := analytics.Compute(groups, analytics.Options{
		InitialCapital: strategyCfg.InitialCapital,
		DateFrom:       cfg.DateFrom,
		DateTo:         cfg.DateTo,
	})
	analytics.MergeEngineSummary(&result.Summary, mapper.MapEngineSummary(resp.Summary))

	out, err := json.MarshalIndent(map[string]interface{}{
		"request_id": requestID,
		"trades":     len(groups),
		"summary":    result.Summary,
		"meta":       resp.Meta,
	}, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))

	return nil
}
