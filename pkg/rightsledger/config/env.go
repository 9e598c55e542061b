package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// envConfig is the flat environment surface of the server.
type envConfig struct {
	Port        string `env:"PORT" env-default:""`
	Environment string `env:"ENVIRONMENT" env-default:""`

	// DATABASE_URL selects the store: empty or "memory" for the in-memory
	// table, a postgres:// / postgresql:// URL for PostgreSQL.
	DatabaseURL string `env:"DATABASE_URL" env-default:""`

	SubscriptionPeriodSeconds int64 `env:"SUBSCRIPTION_PERIOD_SECONDS" env-default:"0"`
	Tier1Price                int64 `env:"TIER1_PRICE" env-default:"0"`
	Tier2Price                int64 `env:"TIER2_PRICE" env-default:"0"`
	Tier3Price                int64 `env:"TIER3_PRICE" env-default:"0"`

	RevokeSellerRightsOnResale bool `env:"REVOKE_SELLER_RIGHTS_ON_RESALE" env-default:"false"`
	DisableEventLogging        bool `env:"DISABLE_EVENT_LOGGING" env-default:"false"`
}

// WithEnv applies environment variable overrides on top of the current
// configuration. Unset variables leave the existing values untouched.
func WithEnv() Option {
	return func(c *ServerConfig) error {
		var env envConfig
		if err := cleanenv.ReadEnv(&env); err != nil {
			return fmt.Errorf("read environment: %w", err)
		}

		if env.Port != "" {
			c.Port = env.Port
		}
		if env.Environment != "" {
			c.Environment = env.Environment
		}

		if err := applyDatabaseEnv(env.DatabaseURL, c); err != nil {
			return err
		}

		if env.SubscriptionPeriodSeconds > 0 {
			c.SubscriptionPeriod = time.Duration(env.SubscriptionPeriodSeconds) * time.Second
		}
		if env.Tier1Price > 0 {
			c.TierPrices[1] = env.Tier1Price
		}
		if env.Tier2Price > 0 {
			c.TierPrices[2] = env.Tier2Price
		}
		if env.Tier3Price > 0 {
			c.TierPrices[3] = env.Tier3Price
		}

		if env.RevokeSellerRightsOnResale {
			c.RevokeSellerRightsOnResale = true
		}
		if env.DisableEventLogging {
			c.EnableEventLogging = false
		}

		return nil
	}
}

func applyDatabaseEnv(dbURL string, c *ServerConfig) error {
	if dbURL == "" || dbURL == "memory" {
		return nil
	}

	if strings.HasPrefix(dbURL, "postgresql://") || strings.HasPrefix(dbURL, "postgres://") {
		c.DatabaseType = "postgres"
		c.DatabaseURL = dbURL
		return nil
	}

	return fmt.Errorf("unsupported DATABASE_URL format: %s (use 'memory' or 'postgresql://...')", dbURL)
}
