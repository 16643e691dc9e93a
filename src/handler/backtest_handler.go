package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	logger "github.com/sirupsen/logrus"

	"strategydesk/src/auth"
	"strategydesk/src/connectors"
	"strategydesk/src/controller"
	"strategydesk/src/model"
)

type backtestRunner interface {
	RunBacktest(ctx context.Context, cfg *model.StrategyConfig, userID uint) (*controller.RunResult, error)
	RunStoredBacktest(ctx context.Context, strategyID, userID uint) (*controller.RunResult, error)
}

type runReader interface {
	FindByID(ctx context.Context, id uint) (*model.BacktestRun, error)
	ListByStrategy(ctx context.Context, strategyID uint, limit int) ([]model.BacktestRun, error)
}

// RunBacktestHandler submits an ad-hoc strategy config for backtesting. The
// body is a full strategy config; nothing is persisted except the run row.
func RunBacktestHandler(runner backtestRunner) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := auth.GetUserFromContext(r.Context())
		if !ok || user == nil {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		var cfg model.StrategyConfig
		decoder := json.NewDecoder(r.Body)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			logger.WithError(err).Warn("invalid backtest payload")
			http.Error(w, "Invalid payload", http.StatusBadRequest)
			return
		}

		result, err := runner.RunBacktest(r.Context(), &cfg, user.ID)
		writeRunResult(w, result, err)
	}
}

// RunStoredBacktestHandler backtests a previously saved strategy by id.
func RunStoredBacktestHandler(runner backtestRunner) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := auth.GetUserFromContext(r.Context())
		if !ok || user == nil {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
		if err != nil {
			http.Error(w, "invalid strategy id", http.StatusBadRequest)
			return
		}

		result, err := runner.RunStoredBacktest(r.Context(), uint(id), user.ID)
		writeRunResult(w, result, err)
	}
}

func writeRunResult(w http.ResponseWriter, result *controller.RunResult, err error) {
	if err != nil {
		if errors.Is(err, controller.ErrStrategyNotFound) {
			http.Error(w, "Not Found", http.StatusNotFound)
			return
		}
		if errors.Is(err, connectors.ErrRunSuperseded) {
			http.Error(w, "Run superseded by a newer request", http.StatusConflict)
			return
		}

		var engineErr *connectors.EngineError
		if errors.As(err, &engineErr) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadGateway)
			if encErr := json.NewEncoder(w).Encode(map[string]interface{}{
				"error":              engineErr.Message,
				"engine_status_code": engineErr.StatusCode,
			}); encErr != nil {
				logger.WithError(encErr).Error("failed to encode engine error response")
			}
			return
		}

		logger.WithError(err).Error("backtest failed")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	status := http.StatusOK
	if result != nil && result.RequestID == "" && len(result.Violations) > 0 {
		// Validation refused the run before anything left the process.
		status = http.StatusUnprocessableEntity
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if encErr := json.NewEncoder(w).Encode(result); encErr != nil {
		logger.WithError(encErr).Error("failed to encode backtest response")
	}
}

// GetRunHandler fetches one persisted run owned by the caller.
func GetRunHandler(repo runReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := auth.GetUserFromContext(r.Context())
		if !ok || user == nil {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
		if err != nil {
			http.Error(w, "invalid run id", http.StatusBadRequest)
			return
		}

		run, err := repo.FindByID(r.Context(), uint(id))
		if err != nil {
			logger.WithError(err).Error("failed to fetch run")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		if run == nil || run.UserID != user.ID {
			http.Error(w, "Not Found", http.StatusNotFound)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(run); err != nil {
			logger.WithError(err).Error("failed to encode run response")
		}
	}
}

// ListRunsHandler lists the persisted runs of one strategy, newest first.
func ListRunsHandler(repo runReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := auth.GetUserFromContext(r.Context())
		if !ok || user == nil {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		strategyID, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
		if err != nil {
			http.Error(w, "invalid strategy id", http.StatusBadRequest)
			return
		}

		limit := 0
		if limitParam := r.URL.Query().Get("limit"); limitParam != "" {
			parsed, err := strconv.Atoi(limitParam)
			if err != nil || parsed <= 0 {
				http.Error(w, "invalid limit", http.StatusBadRequest)
				return
			}
			limit = parsed
		}

		runs, err := repo.ListByStrategy(r.Context(), uint(strategyID), limit)
		if err != nil {
			logger.WithError(err).Error("failed to list runs")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		// Ownership is per run row; filter out anything not the caller's.
		own := make([]model.BacktestRun, 0, len(runs))
		for _, run := range runs {
			if run.UserID == user.ID {
				own = append(own, run)
			}
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(own); err != nil {
			logger.WithError(err).Error("failed to encode run list response")
		}
	}
}
