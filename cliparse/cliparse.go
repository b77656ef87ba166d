package cliparse

import (
	"errors"
	"flag"
	"os"
	"strconv"

	"github.com/danielhkuo/truthpoll/engine"
)

type Config struct {
	Port         int
	DatabaseURL  string
	DatabaseType string
	AdminKeySalt string
	FeeReceiver  string
	DeleteGrace  int64
	DevFaucet    bool
}

// ParseFlags validates flags and sets port number
func ParseFlags(args []string) (Config, error) {
	var cfg Config

	fs := flag.NewFlagSet("truthpoll", flag.ContinueOnError)

	// Network config (can be CLI args or env)
	fs.IntVar(&cfg.Port, "p", 0, "Server port")
	fs.StringVar(&cfg.DatabaseURL, "d", "", "Database URL")
	fs.StringVar(&cfg.DatabaseType, "t", "", "Database type (sqlite or postgres)")

	// Secrets (prefer env variables, but allow CLI for dev)
	fs.StringVar(&cfg.AdminKeySalt, "admin-salt", "", "Admin key salt (prefer env)")

	// Protocol settings
	fs.StringVar(&cfg.FeeReceiver, "fee-receiver", "", "Ledger account receiving fees and drained rewards")
	fs.Int64Var(&cfg.DeleteGrace, "delete-grace", -1, "Seconds after rent expiration before a question may be deleted")
	fs.BoolVar(&cfg.DevFaucet, "dev-faucet", false, "Enable the development funding endpoint")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	// Fall back to environment variables
	if cfg.Port == 0 {
		if portStr := os.Getenv("PORT"); portStr != "" {
			port, err := strconv.Atoi(portStr)
			if err != nil {
				return Config{}, errors.New("invalid PORT env variable")
			}
			cfg.Port = port
		} else {
			cfg.Port = 3318 // default
		}
	}
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	if cfg.DatabaseURL == "" {
		return Config{}, errors.New("database URL required (use -d or DATABASE_URL env)")
	}

	if cfg.DatabaseType == "" {
		cfg.DatabaseType = os.Getenv("DATABASE_TYPE")
		if cfg.DatabaseType == "" {
			cfg.DatabaseType = "sqlite"
		}
	}
	if cfg.DatabaseType != "sqlite" && cfg.DatabaseType != "postgres" {
		return Config{}, errors.New("database type must be sqlite or postgres")
	}

	// Secrets - MUST be provided
	if cfg.AdminKeySalt == "" {
		cfg.AdminKeySalt = os.Getenv("ADMIN_KEY_SALT")
	}
	if cfg.AdminKeySalt == "" {
		return Config{}, errors.New("ADMIN_KEY_SALT required")
	}

	defaults := engine.DefaultParams()
	if cfg.FeeReceiver == "" {
		cfg.FeeReceiver = os.Getenv("FEE_RECEIVER")
		if cfg.FeeReceiver == "" {
			cfg.FeeReceiver = defaults.FeeReceiver
		}
	}
	if cfg.DeleteGrace < 0 {
		if graceStr := os.Getenv("DELETE_GRACE"); graceStr != "" {
			grace, err := strconv.ParseInt(graceStr, 10, 64)
			if err != nil || grace < 0 {
				return Config{}, errors.New("invalid DELETE_GRACE env variable")
			}
			cfg.DeleteGrace = grace
		} else {
			cfg.DeleteGrace = defaults.DeleteGrace
		}
	}
	if !cfg.DevFaucet {
		if v := os.Getenv("DEV_FAUCET"); v != "" {
			enabled, err := strconv.ParseBool(v)
			if err != nil {
				return Config{}, errors.New("invalid DEV_FAUCET env variable")
			}
			cfg.DevFaucet = enabled
		}
	}

	return cfg, nil
}

// EngineParams returns the protocol constants with the configured overrides.
func (c Config) EngineParams() engine.Params {
	p := engine.DefaultParams()
	if c.FeeReceiver != "" {
		p.FeeReceiver = c.FeeReceiver
	}
	if c.DeleteGrace >= 0 {
		p.DeleteGrace = c.DeleteGrace
	}
	return p
}
