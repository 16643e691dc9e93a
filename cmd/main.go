package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli"

	"strategydesk/cmd/backtest"
	"strategydesk/cmd/refresher"
	"strategydesk/src/database"
	"strategydesk/src/server"
)

var Version string

func main() {
	app := cli.NewApp()
	app.Name = "Strategydesk CMD"
	app.Usage = "The strategydesk command line interface"

	app.Commands = []cli.Command{
		serverCMD,
		backtestCMD,
		refresherCMD,
	}

	if err := app.Run(os.Args); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var (
	serverCMD = cli.Command{
		Name:        "server",
		Usage:       "run API server",
		Action:      serverAction,
		ArgsUsage:   "",
		Flags:       []cli.Flag{},
		Description: `Run the strategy API server`,
	}
	backtestCMD = cli.Command{
		Name:        "backtest",
		Usage:       "run one-shot backtest",
		Action:      backtestAction,
		ArgsUsage:   "",
		Flags:       []cli.Flag{},
		Description: `Run one backtest from a strategy JSON file and print the summary`,
	}
	refresherCMD = cli.Command{
		Name:        "refresher",
		Usage:       "run auto-refresh loop",
		Action:      refresherAction,
		ArgsUsage:   "",
		Flags:       []cli.Flag{},
		Description: `Periodically re-backtest strategies flagged auto_refresh`,
	}
)

func serverAction(_ *cli.Context) error {

	logrus.Info("Starting API server CMD")
	logrus.WithField("cmd", "server")

	if err := database.InitMainDB(); err != nil {
		logrus.WithError(err).Fatal("Failed to connect to database")
	}

	server.StartServer(server.GetConfig().Port)
	return nil
}

func backtestAction(_ *cli.Context) error {

	logrus.Info("Starting one-shot backtest CMD")
	logrus.WithField("cmd", "backtest")

	bt := &backtest.Backtest{}
	err := bt.Start()
	if err != nil {
		logrus.WithError(err).Error("Starting cmd")
		return err
	}

	return nil
}

func refresherAction(_ *cli.Context) error {

	logrus.Info("Starting refresher CMD")
	logrus.WithField("cmd", "refresher")

	rf := &refresher.Refresher{}
	err := rf.Start()
	if err != nil {
		logrus.WithError(err).Error("Starting cmd")
		return err
	}

	return nil
}
