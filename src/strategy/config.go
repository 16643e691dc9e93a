package strategy

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// MaxLegs bounds the number of legs a strategy may carry. Callers have
	// historically used 4 to 6; keep it configuration, not a literal.
	MaxLegs int `envconfig:"STRATEGY_MAX_LEGS" default:"6"`

	// InitialCapital feeds CAGR / CAR-MDD when the engine summary does not
	// provide them.
	InitialCapital float64 `envconfig:"INITIAL_CAPITAL" default:"100000"`
}

func GetConfig() Config {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		panic(fmt.Errorf("error processing env config: %w", err))
	}
	return config
}
