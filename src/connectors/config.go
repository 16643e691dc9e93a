package connectors

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	EngineBaseURL string `envconfig:"ENGINE_BASE_URL" default:"http://localhost:8000"`

	// RequestTimeout bounds the single run request. Timeout policy belongs
	// to this transport layer, not to the strategy/analytics core.
	RequestTimeout time.Duration `envconfig:"ENGINE_REQUEST_TIMEOUT" default:"120s"`

	// MetaRetryAttempts applies to the idempotent health/metadata GETs
	// only. The run POST is never retried automatically.
	MetaRetryAttempts int `envconfig:"ENGINE_META_RETRY_ATTEMPTS" default:"3"`
}

func GetConfig() Config {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		panic(fmt.Errorf("error processing env config: %w", err))
	}
	return config
}
