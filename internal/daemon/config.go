package daemon

import (
	"time"

	"github.com/leg100/roster/internal/hashstore"
	"github.com/leg100/roster/internal/logr"
)

// Config configures the rosterd daemon. Descriptions of each field can be found in
// the flag definitions in ./cmd/rosterd
type Config struct {
	Address              string
	Store                string
	StoreConnectTimeout  time.Duration
	SSL                  bool
	CertFile, KeyFile    string
	EnableRequestLogging bool
	LogConfig            logr.Config
}

// NewConfig constructs a rosterd configuration with defaults.
func NewConfig() Config {
	return Config{
		Address:             DefaultAddress,
		Store:               hashstore.DefaultURL,
		StoreConnectTimeout: hashstore.DefaultConnectTimeout,
	}
}
