package cmd

import (
	"fmt"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/justapithecus/peerdialog/cli/config"
)

// Exit codes.
const (
	exitSelected = 0
	exitCanceled = 1
	exitUsage    = 2
)

// loadConfig loads the --config file, or a discovered one. A missing
// discovered file yields an empty config.
func loadConfig(c *cli.Context) (*config.Config, error) {
	path := c.String("config")
	if path == "" {
		path = config.Discover()
	}
	if path == "" {
		return &config.Config{}, nil
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, cli.Exit(fmt.Sprintf("config: %v", err), exitUsage)
	}
	return cfg, nil
}

// resolveString returns the flag value when explicitly set, otherwise the
// config value when non-empty, otherwise the flag default.
func resolveString(c *cli.Context, name, fromConfig string) string {
	if c.IsSet(name) || fromConfig == "" {
		return c.String(name)
	}
	return fromConfig
}

// resolveInt is resolveString for integers; zero config values defer to
// the flag.
func resolveInt(c *cli.Context, name string, fromConfig int) int {
	if c.IsSet(name) || fromConfig == 0 {
		return c.Int(name)
	}
	return fromConfig
}

// resolveDuration is resolveString for durations.
func resolveDuration(c *cli.Context, name string, fromConfig time.Duration) time.Duration {
	if c.IsSet(name) || fromConfig == 0 {
		return c.Duration(name)
	}
	return fromConfig
}

// resolveBool is true when either the flag or the config says so.
func resolveBool(c *cli.Context, name string, fromConfig bool) bool {
	return c.Bool(name) || fromConfig
}
