// Package config содержит логику чтения конфигурации биллингового симулятора.
package config

import (
	"flag"
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config содержит параметры конфигурации симулятора и заглушки шлюза.
type Config struct {
	GatewayAddress string `env:"GATEWAY_ADDRESS"`
	RunAddress     string `env:"RUN_ADDRESS"`
	StartDate      string `env:"SIMULATION_START_DATE"`
	EndDate        string `env:"SIMULATION_END_DATE"`
	MaxDailyCharge string `env:"MAX_DAILY_CHARGE"`
	Concurrency    int    `env:"GATEWAY_CONCURRENCY"`
}

// Parse считывает конфигурацию из флагов командной строки и переменных окружения.
func Parse() (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	envGatewayAddress := cfg.GatewayAddress
	envRunAddress := cfg.RunAddress
	envStartDate := cfg.StartDate
	envEndDate := cfg.EndDate
	envMaxDailyCharge := cfg.MaxDailyCharge
	envConcurrency := cfg.Concurrency

	flag.StringVar(&cfg.GatewayAddress, "g", "localhost:8081", "billing gateway address")
	flag.StringVar(&cfg.RunAddress, "a", "localhost:8081", "address and port for the stub gateway server")
	flag.StringVar(&cfg.StartDate, "s", "2022-01-01", "simulation start date (inclusive)")
	flag.StringVar(&cfg.EndDate, "e", "2022-01-10", "simulation end date (exclusive)")
	flag.StringVar(&cfg.MaxDailyCharge, "m", "1000", "maximum amount chargeable to one advance per day")
	flag.IntVar(&cfg.Concurrency, "c", 8, "gateway fan-out concurrency limit")

	flag.Parse()

	if envGatewayAddress != "" {
		cfg.GatewayAddress = envGatewayAddress
	}
	if envRunAddress != "" {
		cfg.RunAddress = envRunAddress
	}
	if envStartDate != "" {
		cfg.StartDate = envStartDate
	}
	if envEndDate != "" {
		cfg.EndDate = envEndDate
	}
	if envMaxDailyCharge != "" {
		cfg.MaxDailyCharge = envMaxDailyCharge
	}
	if envConcurrency != 0 {
		cfg.Concurrency = envConcurrency
	}

	return cfg, nil
}
