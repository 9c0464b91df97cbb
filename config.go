// Copyright 2024 Dominik Honnef and contributors
// SPDX-License-Identifier: Apache-2.0 OR MIT

package dynfield

import (
	"fmt"
	"os"

	"github.com/goccy/go-yaml"
	"github.com/rs/zerolog"
)

// DefaultScratchSize is the scratch capacity of a deployment that doesn't
// configure one. Saved scratch regions only load into components with the
// same capacity.
const DefaultScratchSize = 64 * 1024

type Config struct {
	// ScratchSize is the capacity of each component's scratch region in
	// bytes. It has to be a positive multiple of 8.
	ScratchSize int `yaml:"scratch_size"`
	// Strict rejects a cook's whole parameter list when any parameter is
	// invalid, instead of installing the valid ones.
	Strict bool `yaml:"strict"`
	// DefaultGeometry shows a placeholder mesh on non-native components
	// while no cooked geometry is available.
	DefaultGeometry bool    `yaml:"default_geometry"`
	PlaceholderSize float32 `yaml:"placeholder_size"`
	LogLevel        string  `yaml:"log_level"`
}

func DefaultConfig() Config {
	return Config{
		ScratchSize:     DefaultScratchSize,
		DefaultGeometry: true,
		PlaceholderSize: 100,
		LogLevel:        "info",
	}
}

func (cfg Config) Validate() error {
	if cfg.ScratchSize <= 0 || cfg.ScratchSize%8 != 0 {
		return fmt.Errorf("scratch_size must be a positive multiple of 8, got %d", cfg.ScratchSize)
	}
	if cfg.PlaceholderSize <= 0 {
		return fmt.Errorf("placeholder_size must be positive, got %g", cfg.PlaceholderSize)
	}
	if _, err := cfg.Level(); err != nil {
		return err
	}
	return nil
}

func (cfg Config) Level() (zerolog.Level, error) {
	lvl, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		return zerolog.NoLevel, fmt.Errorf("log_level: %w", err)
	}
	return lvl, nil
}

// ParseConfig reads a YAML configuration. Keys that are absent keep their
// default values; unknown keys are an error.
func ParseConfig(data []byte) (Config, error) {
	cfg := DefaultConfig()
	if err := yaml.UnmarshalWithOptions(data, &cfg, yaml.Strict()); err != nil {
		return Config{}, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	return ParseConfig(data)
}
