package server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	logger "github.com/sirupsen/logrus"

	"strategydesk/src/auth"
	"strategydesk/src/connectors"
	"strategydesk/src/controller"
	"strategydesk/src/handler"
	"strategydesk/src/repository"
)

func StartServer(port string) {
	engine := connectors.NewEngineClient(connectors.GetConfig())
	ctl := controller.NewBacktestController(
		repository.NewStrategyRepository(),
		repository.NewBacktestRunRepository(),
		engine,
	)

	runRepo := repository.NewBacktestRunRepository()
	createStrategy, validateStrategy, getStrategy, listStrategies := handler.DefaultStrategyHandlers(ctl)

	r := chi.NewRouter()

	// Public routes
	r.Get("/healthcheck", func(w http.ResponseWriter, r *http.Request) {
		if _, err := w.Write([]byte("OK")); err != nil {
			logger.WithError(err).Error("/healthcheck error")
		}
	})
	r.Get("/engine/health", func(w http.ResponseWriter, req *http.Request) {
		if err := engine.Health(req.Context()); err != nil {
			logger.WithError(err).Warn("engine health check failed")
			http.Error(w, "Engine unavailable", http.StatusBadGateway)
			return
		}
		if _, err := w.Write([]byte("OK")); err != nil {
			logger.WithError(err).Error("/engine/health error")
		}
	})

	// Authenticated routes
	r.Group(func(r chi.Router) {
		r.Use(auth.Middleware(repository.NewUserRepository()))

		r.Post("/strategies", createStrategy)
		r.Post("/strategies/validate", validateStrategy)
		r.Get("/strategies", listStrategies)
		r.Get("/strategies/{id}", getStrategy)
		r.Post("/strategies/{id}/backtest", handler.RunStoredBacktestHandler(ctl))
		r.Get("/strategies/{id}/runs", handler.ListRunsHandler(runRepo))

		r.Post("/backtests", handler.RunBacktestHandler(ctl))
		r.Get("/backtests/{id}", handler.GetRunHandler(runRepo))
		r.Get("/backtests/progress", handler.StreamProgressHandler(engine))

		r.Post("/user/password", handler.ChangePasswordHandler())
	})

	// Graceful server
	addr := ":" + port
	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	// Start server in goroutine
	go func() {
		logger.Infof("Listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("Server crashed")
		}
	}()

	// Shutdown on SIGINT or SIGTERM
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("Shutting down gracefully...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.WithError(err).Error("Shutdown error")
	}
}
