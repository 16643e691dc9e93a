package refresher

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"strategydesk/src/database"
	"strategydesk/src/executors"
)

// Refresher runs the auto-refresh loop as a standalone process.
type Refresher struct{}

func (t *Refresher) Start() error {
	ctx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)
	defer stop()

	// Initialize main (read/write) database
	if err := database.InitMainDB(); err != nil {
		logrus.WithError(err).Fatal("Failed to connect to main database")
		return err
	}

	logrus.Info("Starting auto-refresh loop")

	if err := executors.StartLoop(ctx); err != nil {
		logrus.WithError(err).Error("Failed to run auto-refresh loop")
		return err
	}

	return nil
}
