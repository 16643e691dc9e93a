package controller

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	logger "github.com/sirupsen/logrus"

	"strategydesk/src/analytics"
	"strategydesk/src/connectors"
	"strategydesk/src/mapper"
	"strategydesk/src/model"
	"strategydesk/src/repository"
	"strategydesk/src/strategy"
)

// RunResult is the full outcome of one backtest round trip: canonical trade
// groups, derived analytics, and the engine extras passed through untouched.
type RunResult struct {
	RunID      uint                  `json:"run_id"`
	RequestID  string                `json:"request_id"`
	Violations []strategy.Violation  `json:"violations,omitempty"`
	Groups     []model.TradeGroup    `json:"trade_groups"`
	Analytics  model.AnalyticsResult `json:"analytics"`
	Pivot      connectors.PivotTable `json:"pivot"`
	Meta       connectors.RunMeta    `json:"meta"`
}

// BacktestController coordinates validation, payload building, the engine
// round trip, and persistence of the outcome. Sessions are keyed by user:
// a user's newer request supersedes their own in-flight run, never another
// user's.
type BacktestController struct {
	strategies *repository.StrategyRepository
	runs       *repository.BacktestRunRepository
	engine     *connectors.EngineClient
	cfg        strategy.Config

	mu       sync.Mutex
	sessions map[uint]*connectors.Session
}

func NewBacktestController(
	strategies *repository.StrategyRepository,
	runs *repository.BacktestRunRepository,
	engine *connectors.EngineClient,
) *BacktestController {
	return &BacktestController{
		strategies: strategies,
		runs:       runs,
		engine:     engine,
		cfg:        strategy.GetConfig(),
		sessions:   make(map[uint]*connectors.Session),
	}
}

func (c *BacktestController) sessionFor(userID uint) *connectors.Session {
	c.mu.Lock()
	defer c.mu.Unlock()

	session, ok := c.sessions[userID]
	if !ok {
		session = c.engine.NewSession()
		c.sessions[userID] = session
	}
	return session
}

// ValidateStrategy runs the full rule set and returns every violation,
// blocking and advisory alike.
func (c *BacktestController) ValidateStrategy(cfg *model.StrategyConfig) []strategy.Violation {
	return strategy.Validate(cfg, c.cfg.MaxLegs)
}

// RunBacktest validates, builds the wire payload, submits it, and persists
// the outcome. Blocking violations stop the run before anything leaves the
// process; advisories ride along in the result.
func (c *BacktestController) RunBacktest(ctx context.Context, cfg *model.StrategyConfig, userID uint) (*RunResult, error) {
	violations := strategy.Validate(cfg, c.cfg.MaxLegs)
	if strategy.HasBlocking(violations) {
		fields := map[string]interface{}{"violations": len(violations)}
		if cfg != nil {
			fields["strategy_id"] = cfg.ID
		}
		logger.WithFields(fields).Warn("Backtest refused by validation")
		return &RunResult{Violations: violations}, nil
	}

	payload, err := mapper.BuildPayload(cfg)
	if err != nil {
		Capture("controller", "RunBacktest", err, map[string]interface{}{
			"strategy_id": cfg.ID,
		})
		return nil, err
	}

	requestJSON, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	run := &model.BacktestRun{
		StrategyID:  cfg.ID,
		UserID:      userID,
		Status:      model.RunStatusPending,
		RequestJSON: string(requestJSON),
	}
	if err := c.runs.Create(ctx, run); err != nil {
		return nil, err
	}

	resp, requestID, err := c.sessionFor(userID).Run(ctx, payload)
	run.RequestID = requestID

	if err != nil {
		if errors.Is(err, connectors.ErrRunSuperseded) {
			logger.WithField("request_id", requestID).
				Info("Backtest superseded by a newer request")
			_ = c.runs.MarkFailed(ctx, run.ID, model.RunStatusCancelled, err.Error())
			return nil, err
		}

		var engineErr *connectors.EngineError
		if errors.As(err, &engineErr) {
			_ = c.runs.MarkFailed(ctx, run.ID, model.RunStatusFailed, engineErr.Message)
			return nil, err
		}

		Capture("controller", "RunBacktest", err, map[string]interface{}{
			"request_id": requestID,
		})
		_ = c.runs.MarkFailed(ctx, run.ID, model.RunStatusFailed, err.Error())
		return nil, err
	}

	trades := mapper.MapEngineTrades(resp.Trades)
	groups := analytics.GroupTrades(trades)

	result := analytics.Compute(groups, analytics.Options{
		InitialCapital: c.cfg.InitialCapital,
		DateFrom:       cfg.DateFrom,
		DateTo:         cfg.DateTo,
	})
	analytics.MergeEngineSummary(&result.Summary, mapper.MapEngineSummary(resp.Summary))

	summaryJSON, _ := json.Marshal(result.Summary)
	analyticsJSON, _ := json.Marshal(result)

	run.SummaryJSON = string(summaryJSON)
	run.AnalyticsJSON = string(analyticsJSON)
	run.TradeCount = len(groups)
	run.TotalPnl = result.Summary.TotalPnl

	if err := c.runs.MarkCompleted(ctx, run); err != nil {
		// The result is still good; persistence failure is logged upstream.
		Capture("controller", "RunBacktest", err, map[string]interface{}{
			"run_id": run.ID,
		})
	}

	if cfg.ID != 0 {
		if err := c.strategies.TouchLastRun(ctx, cfg.ID, time.Now().UTC()); err != nil {
			logger.WithError(err).Warn("Failed to stamp strategy last run time")
		}
	}

	return &RunResult{
		RunID:      run.ID,
		RequestID:  requestID,
		Violations: violations,
		Groups:     groups,
		Analytics:  result,
		Pivot:      resp.Pivot,
		Meta:       resp.Meta,
	}, nil
}

// RunStoredBacktest loads a persisted strategy and runs it.
func (c *BacktestController) RunStoredBacktest(ctx context.Context, strategyID, userID uint) (*RunResult, error) {
	cfg, err := c.strategies.FindByID(ctx, strategyID)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		return nil, ErrStrategyNotFound
	}
	return c.RunBacktest(ctx, cfg, userID)
}

// ErrStrategyNotFound signals a lookup miss to the transport layer.
var ErrStrategyNotFound = errors.New("strategy not found")
