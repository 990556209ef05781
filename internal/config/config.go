// Package config holds the server settings shared by every subcommand.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"adaptive-cache-service/internal/store/policy"

	"github.com/spf13/pflag"
)

// ErrInvalidConfig is returned by Validate.
var ErrInvalidConfig = errors.New("invalid config")

type Config struct {
	HTTPAddr     string
	GRPCAddr     string
	Policy       string
	Window       int
	Seed         int64
	Delta        int
	LearningRate float64
	LogLevel     string
	Development  bool
}

// Default returns the settings used when no flag or environment variable is set.
func Default() Config {
	return Config{
		HTTPAddr:     ":8080",
		GRPCAddr:     ":9090",
		Policy:       string(policy.KindLRU),
		Window:       0,
		Seed:         0,
		Delta:        policy.DefaultRecentWindow,
		LearningRate: policy.DefaultLearningRate,
		LogLevel:     "info",
	}
}

// ApplyEnv overrides fields from LEDIS_* environment variables.
// Malformed numbers are ignored.
func (c *Config) ApplyEnv() {
	c.HTTPAddr = envOr("LEDIS_HTTP_ADDR", c.HTTPAddr)
	c.GRPCAddr = envOr("LEDIS_GRPC_ADDR", c.GRPCAddr)
	c.Policy = envOr("LEDIS_POLICY", c.Policy)
	c.Window = parseIntEnv("LEDIS_WINDOW", c.Window)
	c.LogLevel = envOr("LEDIS_LOG_LEVEL", c.LogLevel)
}

// BindFlags registers every field on fs, using the current values as defaults.
func (c *Config) BindFlags(fs *pflag.FlagSet) {
	fs.StringVar(&c.HTTPAddr, "http-addr", c.HTTPAddr, "HTTP listen address")
	fs.StringVar(&c.GRPCAddr, "grpc-addr", c.GRPCAddr, "gRPC listen address")
	fs.StringVarP(&c.Policy, "policy", "p", c.Policy, "eviction policy (lru, lfu, hybrid, fifo, random)")
	fs.IntVarP(&c.Window, "window", "w", c.Window, "eviction window; 0 disables eviction")
	fs.Int64Var(&c.Seed, "seed", c.Seed, "random seed for hybrid and random policies; 0 seeds from the clock")
	fs.IntVar(&c.Delta, "delta", c.Delta, "number of recent victims tracked for reuse detection")
	fs.Float64Var(&c.LearningRate, "learning-rate", c.LearningRate, "hybrid penalty rate in (0, 1)")
	fs.StringVar(&c.LogLevel, "log-level", c.LogLevel, "log level (debug, info, warn, error)")
	fs.BoolVar(&c.Development, "dev", c.Development, "human-readable console logging")
}

func (c Config) Validate() error {
	if _, err := policy.ParseKind(c.Policy); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if c.Delta <= 0 {
		return fmt.Errorf("%w: delta must be positive, got %d", ErrInvalidConfig, c.Delta)
	}
	if c.LearningRate <= 0 || c.LearningRate >= 1 {
		return fmt.Errorf("%w: learning rate must be in (0, 1), got %g", ErrInvalidConfig, c.LearningRate)
	}
	return nil
}

// PolicyOptions translates the config into policy options.
func (c Config) PolicyOptions() []policy.Option {
	opts := []policy.Option{
		policy.WithRecentWindow(c.Delta),
		policy.WithLearningRate(c.LearningRate),
	}
	if c.Seed != 0 {
		opts = append(opts, policy.WithSeed(c.Seed))
	}
	return opts
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseIntEnv(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}
