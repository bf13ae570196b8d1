package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/legacykeeper/internal/flagx"
	"github.com/dmitrijs2005/legacykeeper/internal/timex"
)

// JsonConfig is the on-disk form of Config. Intervals use timex.Duration so
// both "30s" and integer nanoseconds are accepted.
type JsonConfig struct {
	ServerEndpointAddr string         `json:"server_endpoint_addr"`
	DatabasePath       string         `json:"database_path"`
	StagingDir         string         `json:"staging_dir"`
	ReconcileInterval  timex.Duration `json:"reconcile_interval"`
	RequestTimeout     timex.Duration `json:"request_timeout"`
}

// parseJson overlays cfg with the file named by -c/-config. Absent or zero
// fields keep their current value. Read or parse errors panic.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	var jc JsonConfig

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	if jc.ServerEndpointAddr != "" {
		cfg.ServerEndpointAddr = jc.ServerEndpointAddr
	}
	if jc.DatabasePath != "" {
		cfg.DatabasePath = jc.DatabasePath
	}
	if jc.StagingDir != "" {
		cfg.StagingDir = jc.StagingDir
	}
	if jc.ReconcileInterval.Duration != 0 {
		cfg.ReconcileInterval = jc.ReconcileInterval.Duration
	}
	if jc.RequestTimeout.Duration != 0 {
		cfg.RequestTimeout = jc.RequestTimeout.Duration
	}
}
