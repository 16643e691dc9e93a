package executors

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// LoopPeriod is the interval between auto-refresh sweeps. Re-backtests
	// are cheap for the engine but not free; the default keeps us honest.
	LoopPeriod time.Duration `envconfig:"LOOP_PERIOD" default:"6h"`

	// SystemUserID attributes loop-triggered runs in the audit trail.
	SystemUserID uint `envconfig:"SYSTEM_USER_ID" default:"0"`
}

func GetConfig() Config {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		panic(fmt.Errorf("error processing env config: %w", err))
	}
	return config
}
