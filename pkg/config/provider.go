// Package config loads forecast tunables from a YAML file or a SQLite
// database of per-path overrides. Both backends start from the stock
// defaults, so a source only needs to name what it changes.
package config

import (
	"fmt"

	"github.com/chrissnell/careforecast/internal/forecast"
	"github.com/chrissnell/careforecast/internal/snapshot"
)

// ConfigProvider defines the interface for configuration data sources
type ConfigProvider interface {
	// Load complete configuration
	LoadConfig() (*ConfigData, error)

	IsReadOnly() bool
	Close() error
}

// ConfigData represents the complete configuration structure
type ConfigData struct {
	Forecast forecast.Config `yaml:"forecast" json:"forecast"`
	Snapshot snapshot.Params `yaml:"snapshot" json:"snapshot"`
}

// DefaultConfigData returns the stock configuration
func DefaultConfigData() *ConfigData {
	return &ConfigData{
		Forecast: forecast.DefaultConfig(),
		Snapshot: snapshot.DefaultParams(),
	}
}

// Validate checks every section
func (c *ConfigData) Validate() error {
	if err := c.Forecast.Validate(); err != nil {
		return err
	}
	if err := c.Snapshot.Validate(); err != nil {
		return fmt.Errorf("snapshot: %w", err)
	}
	return nil
}
