// Package config loads runtime configuration for the vaultctl client.
//
// Values are applied in order: built-in defaults, an optional JSON file
// selected with -c/-config, then command-line flags.
//
//	-a string   address:port of the backend gRPC endpoint
//	-f string   path of the local SQLite database
//	-s string   staging directory for encrypted blobs awaiting upload
//	-i int      reconcile interval (seconds)
//	-t int      request timeout (seconds)
package config

import "time"

// Config holds client settings.
type Config struct {
	ServerEndpointAddr string
	DatabasePath       string
	StagingDir         string
	ReconcileInterval  time.Duration
	RequestTimeout     time.Duration
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerEndpointAddr = "127.0.0.1:50051"
	c.DatabasePath = "legacykeeper.db"
	c.StagingDir = "staging"
	c.ReconcileInterval = 30 * time.Second
	c.RequestTimeout = 15 * time.Second
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
