package config

import "os"

const (
	EnvSecret = "SEALEDFIELD_SECRET"
	EnvDSN    = "SEALEDFIELD_DSN"
)

// parseEnv overlays the values deployments usually inject through the
// environment rather than files or argv.
func parseEnv(config *Config) {
	if v, ok := os.LookupEnv(EnvSecret); ok && v != "" {
		config.SecretKey = v
	}
	if v, ok := os.LookupEnv(EnvDSN); ok && v != "" {
		config.DatabaseDSN = v
	}
}
