package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/ai8future/sealedfield/internal/flagx"
	"github.com/ai8future/sealedfield/internal/timex"
)

// JsonConfig is the on-disk shape of the config file. Pointer fields let a
// file override only what it sets.
type JsonConfig struct {
	SecretKey            *string         `json:"secret_key"`
	StoreDriver          *string         `json:"store_driver"`
	DatabaseDSN          *string         `json:"database_dsn"`
	BadgerPath           *string         `json:"badger_path"`
	ScanTimeout          *timex.Duration `json:"scan_timeout"`
	CompressionThreshold *int            `json:"compression_threshold"`
	BlindIndex           *bool           `json:"blind_index"`
	LogLevel             *string         `json:"log_level"`
}

// parseJSON loads the file named by -c or -config, if any, into config.
func parseJSON(config *Config, args []string) error {
	path := flagx.JSONConfigPath(args)
	if path == "" {
		return nil
	}

	file, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: read %s: %w", path, err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}

	if c.SecretKey != nil {
		config.SecretKey = *c.SecretKey
	}
	if c.StoreDriver != nil {
		config.StoreDriver = *c.StoreDriver
	}
	if c.DatabaseDSN != nil {
		config.DatabaseDSN = *c.DatabaseDSN
	}
	if c.BadgerPath != nil {
		config.BadgerPath = *c.BadgerPath
	}
	if c.ScanTimeout != nil {
		config.ScanTimeout = c.ScanTimeout.Duration
	}
	if c.CompressionThreshold != nil {
		config.CompressionThreshold = *c.CompressionThreshold
	}
	if c.BlindIndex != nil {
		config.BlindIndex = *c.BlindIndex
	}
	if c.LogLevel != nil {
		config.LogLevel = *c.LogLevel
	}

	return nil
}
