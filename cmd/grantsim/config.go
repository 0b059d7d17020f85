package main

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config holds defaults read from the environment. Flags override them.
type Config struct {
	LogLevel      string `env:"GRANTSIM_LOG_LEVEL" envDefault:"warn"`
	Format        string `env:"GRANTSIM_FORMAT" envDefault:"text"`
	InitialSupply string `env:"GRANTSIM_INITIAL_SUPPLY" envDefault:"100"`
}

func loadConfig() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return &cfg, nil
}
