// Package config содержит логику чтения конфигурации сервиса приёма заказов.
package config

import (
	"flag"
	"fmt"
	"math"
	"os"

	"github.com/caarlos0/env/v11"
)

// Config содержит параметры конфигурации сервиса приёма заказов.
type Config struct {
	RunAddress        string  `env:"RUN_ADDRESS"`
	DatabaseURI       string  `env:"DATABASE_URI"`
	CepServiceAddress string  `env:"CEP_SERVICE_ADDRESS"`
	SessionSecret     string  `env:"SESSION_SECRET"`
	AllowDelivery     bool    `env:"ALLOW_DELIVERY"`
	DeliveryFee       float64 `env:"DELIVERY_FEE"`
}

// Parse считывает конфигурацию из флагов командной строки и переменных окружения.
func Parse() (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	envRunAddress := cfg.RunAddress
	envDatabaseURI := cfg.DatabaseURI
	envCepAddress := cfg.CepServiceAddress
	envSessionSecret := cfg.SessionSecret
	envAllowDelivery := cfg.AllowDelivery
	envDeliveryFee := cfg.DeliveryFee
	// Для булевых и числовых переменных значение по умолчанию неотличимо
	// от явно заданного, поэтому проверяется само наличие переменной:
	// ALLOW_DELIVERY=false обязан перекрывать флаг -delivery.
	_, envAllowDeliverySet := os.LookupEnv("ALLOW_DELIVERY")
	_, envDeliveryFeeSet := os.LookupEnv("DELIVERY_FEE")

	flag.StringVar(&cfg.RunAddress, "a", "localhost:8080", "address and port for HTTP server")
	flag.StringVar(&cfg.DatabaseURI, "d", "", "database URI")
	flag.StringVar(&cfg.CepServiceAddress, "c", "https://viacep.com.br", "postal code lookup service address")
	flag.StringVar(&cfg.SessionSecret, "s", "", "secret key for session cookie signing")
	flag.BoolVar(&cfg.AllowDelivery, "delivery", false, "offer delivery on the ordering page")
	flag.Float64Var(&cfg.DeliveryFee, "fee", 0, "flat delivery fee")

	flag.Parse()

	if envRunAddress != "" {
		cfg.RunAddress = envRunAddress
	}
	if envDatabaseURI != "" {
		cfg.DatabaseURI = envDatabaseURI
	}
	if envCepAddress != "" {
		cfg.CepServiceAddress = envCepAddress
	}
	if envSessionSecret != "" {
		cfg.SessionSecret = envSessionSecret
	}
	if envAllowDeliverySet {
		cfg.AllowDelivery = envAllowDelivery
	}
	if envDeliveryFeeSet {
		cfg.DeliveryFee = envDeliveryFee
	}

	if cfg.RunAddress == "" {
		cfg.RunAddress = "localhost:8080"
	}

	if cfg.DeliveryFee < 0 {
		return nil, fmt.Errorf("delivery fee must not be negative, got %v", cfg.DeliveryFee)
	}

	return cfg, nil
}

// DeliveryFeeCents возвращает стоимость доставки в сентаво.
// Округление обязательно: 1.15*100 в double меньше 115.
func (c *Config) DeliveryFeeCents() int64 {
	return int64(math.Round(c.DeliveryFee * 100))
}
