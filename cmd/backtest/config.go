package backtest

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// StrategyFile points at a strategy config JSON document.
	StrategyFile string `envconfig:"STRATEGY_FILE" required:"true"`
}

func GetConfig() *Config {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		panic(fmt.Errorf("error processing env config: %w", err))
	}
	return &config
}
