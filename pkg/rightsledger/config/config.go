// Package config builds a rightsledger.Service from declarative server
// configuration: defaults, programmatic options, and environment overrides.
package config

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/slydr-labs/rights-ledger/pkg/rightsledger"
	"github.com/slydr-labs/rights-ledger/pkg/rightsledger/repo/memory"
	repopg "github.com/slydr-labs/rights-ledger/pkg/rightsledger/repo/postgres"
)

// Option applies configuration to a ServerConfig instance.
type Option func(*ServerConfig) error

// Load constructs a ServerConfig by applying the supplied options on top of
// library defaults.
func Load(opts ...Option) (*ServerConfig, error) {
	cfg := defaults()

	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func defaults() ServerConfig {
	return ServerConfig{
		Port:               "8080",
		Environment:        "development",
		DatabaseType:       "memory",
		SubscriptionPeriod: rightsledger.DefaultSubscriptionPeriod,
		TierPrices: map[int64]int64{
			1: rightsledger.DefaultTierPrices[1],
			2: rightsledger.DefaultTierPrices[2],
			3: rightsledger.DefaultTierPrices[3],
		},
		EnableEventLogging: true,
	}
}

// ServerConfig represents server configuration for the rights-ledger
// service.
type ServerConfig struct {
	Port        string
	Environment string // development, production, testing

	// Database configuration
	DatabaseURL  string
	DatabaseType string // "memory", "postgres"

	// Ledger policy
	SubscriptionPeriod         time.Duration
	TierPrices                 map[int64]int64
	RevokeSellerRightsOnResale bool

	// Server options
	EnableEventLogging bool
}

// Validate validates the server configuration
func (c *ServerConfig) Validate() error {
	if c.Port == "" {
		return errors.New("port is required")
	}

	if c.DatabaseType != "memory" && c.DatabaseType != "postgres" {
		return errors.New("database_type must be 'memory' or 'postgres'")
	}

	if c.DatabaseType == "postgres" && c.DatabaseURL == "" {
		return errors.New("database_url is required when using postgres")
	}

	if c.SubscriptionPeriod <= 0 {
		return errors.New("subscription period must be positive")
	}

	for tier := int64(rightsledger.MinSubscriptionTier); tier <= rightsledger.MaxSubscriptionTier; tier++ {
		if price, ok := c.TierPrices[tier]; !ok || price <= 0 {
			return fmt.Errorf("tier %d requires a positive price", tier)
		}
	}

	return nil
}

// BuildStore creates the record store selected by the configuration.
func (c *ServerConfig) BuildStore(ctx context.Context) (rightsledger.Store, error) {
	switch c.DatabaseType {
	case "memory":
		return memory.New(), nil
	case "postgres":
		pool, err := pgxpool.New(ctx, c.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("connect to postgres: %w", err)
		}
		if err := pool.Ping(ctx); err != nil {
			return nil, fmt.Errorf("ping postgres: %w", err)
		}
		return repopg.NewWithPool(pool), nil
	default:
		return nil, fmt.Errorf("unsupported database type: %s", c.DatabaseType)
	}
}

// BuildService creates a Service instance from the server configuration.
func (c *ServerConfig) BuildService(ctx context.Context) (rightsledger.Service, error) {
	store, err := c.BuildStore(ctx)
	if err != nil {
		return nil, err
	}

	options := []rightsledger.Option{
		rightsledger.WithStore(store),
		rightsledger.WithSubscriptionPeriod(c.SubscriptionPeriod),
		rightsledger.WithTierPrices(c.TierPrices),
		rightsledger.WithRevokeSellerRightsOnResale(c.RevokeSellerRightsOnResale),
	}

	if c.EnableEventLogging {
		options = append(options, rightsledger.WithEventSink(rightsledger.NewLogEventSink(nil)))
	}

	return rightsledger.New(options...)
}
