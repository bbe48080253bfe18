package forecast

import (
	"fmt"

	"github.com/chrissnell/careforecast/internal/flowering"
	"github.com/chrissnell/careforecast/internal/health"
	"github.com/chrissnell/careforecast/internal/watering"
)

// Config gathers the tunables of all three predictors
type Config struct {
	Watering  watering.Params  `yaml:"watering" json:"watering"`
	Health    health.Params    `yaml:"health" json:"health"`
	Flowering flowering.Params `yaml:"flowering" json:"flowering"`
}

// DefaultConfig returns the stock tunables of every predictor
func DefaultConfig() Config {
	return Config{
		Watering:  watering.DefaultParams(),
		Health:    health.DefaultParams(),
		Flowering: flowering.DefaultParams(),
	}
}

// Validate checks every predictor's tunables
func (c Config) Validate() error {
	if err := c.Watering.Validate(); err != nil {
		return fmt.Errorf("watering: %w", err)
	}
	if err := c.Health.Validate(); err != nil {
		return fmt.Errorf("health: %w", err)
	}
	if err := c.Flowering.Validate(); err != nil {
		return fmt.Errorf("flowering: %w", err)
	}
	return nil
}
