package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	logger "github.com/sirupsen/logrus"

	"strategydesk/src/auth"
	"strategydesk/src/controller"
	"strategydesk/src/model"
	"strategydesk/src/repository"
	"strategydesk/src/strategy"
)

type strategyWriter interface {
	Create(ctx context.Context, cfg *model.StrategyConfig) error
}

type strategyReader interface {
	FindByID(ctx context.Context, id uint) (*model.StrategyConfig, error)
	ListByUser(ctx context.Context, userID uint, limit int) ([]model.StrategyConfig, error)
}

type strategyValidator interface {
	ValidateStrategy(cfg *model.StrategyConfig) []strategy.Violation
}

// CreateStrategyHandler validates and persists a strategy config. Blocking
// violations refuse the save with 422 so a broken config never reaches the
// database.
func CreateStrategyHandler(repo strategyWriter, validator strategyValidator) http.HandlerFunc {
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
			logger.WithError(err).Warn("invalid strategy payload")
			http.Error(w, "Invalid payload", http.StatusBadRequest)
			return
		}

		cfg.ID = 0
		cfg.UserID = user.ID

		violations := validator.ValidateStrategy(&cfg)
		if strategy.HasBlocking(violations) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnprocessableEntity)
			if err := json.NewEncoder(w).Encode(map[string]interface{}{
				"violations": violations,
			}); err != nil {
				logger.WithError(err).Error("failed to encode violations response")
			}
			return
		}

		if err := repo.Create(r.Context(), &cfg); err != nil {
			logger.WithError(err).Error("failed to create strategy")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		if err := json.NewEncoder(w).Encode(map[string]interface{}{
			"strategy":   cfg,
			"violations": violations,
		}); err != nil {
			logger.WithError(err).Error("failed to encode strategy response")
		}
	}
}

// ValidateStrategyHandler runs the rule set without persisting anything.
// Always 200; the body carries every violation, blocking and advisory.
func ValidateStrategyHandler(validator strategyValidator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var cfg model.StrategyConfig
		decoder := json.NewDecoder(r.Body)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			logger.WithError(err).Warn("invalid strategy payload")
			http.Error(w, "Invalid payload", http.StatusBadRequest)
			return
		}

		violations := validator.ValidateStrategy(&cfg)

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(map[string]interface{}{
			"valid":      !strategy.HasBlocking(violations),
			"violations": violations,
		}); err != nil {
			logger.WithError(err).Error("failed to encode validation response")
		}
	}
}

// GetStrategyHandler fetches one strategy owned by the caller.
func GetStrategyHandler(repo strategyReader) http.HandlerFunc {
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

		cfg, err := repo.FindByID(r.Context(), uint(id))
		if err != nil {
			logger.WithError(err).Error("failed to fetch strategy")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		if cfg == nil || cfg.UserID != user.ID {
			http.Error(w, "Not Found", http.StatusNotFound)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(cfg); err != nil {
			logger.WithError(err).Error("failed to encode strategy response")
		}
	}
}

// ListStrategiesHandler lists the caller's strategies, newest first.
func ListStrategiesHandler(repo strategyReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := auth.GetUserFromContext(r.Context())
		if !ok || user == nil {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
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

		strategies, err := repo.ListByUser(r.Context(), user.ID, limit)
		if err != nil {
			logger.WithError(err).Error("failed to list strategies")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(strategies); err != nil {
			logger.WithError(err).Error("failed to encode strategy list response")
		}
	}
}

// DefaultStrategyHandlers wires the handlers to production repositories.
func DefaultStrategyHandlers(ctl *controller.BacktestController) (create, validate, get, list http.HandlerFunc) {
	repo := repository.NewStrategyRepository()
	return CreateStrategyHandler(repo, ctl),
		ValidateStrategyHandler(ctl),
		GetStrategyHandler(repo),
		ListStrategiesHandler(repo)
}
