package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/pithecene-io/wearlink/cli/config"
	"github.com/pithecene-io/wearlink/node"
	"github.com/pithecene-io/wearlink/types"
)

// Exit codes.
const (
	exitOK            = 0
	exitFailed        = 1
	exitRetry         = 2
	exitInvalidConfig = 3
)

// isStderrTTY returns true if stderr is a TTY.
func isStderrTTY() bool {
	info, err := os.Stderr.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}

// autoSyncExitCode maps a run status to an exit code. Skipped and noop runs
// are not failures.
func autoSyncExitCode(status types.AutoSyncStatus) int {
	switch status {
	case types.AutoSyncPartial, types.AutoSyncRetry:
		return exitRetry
	default:
		return exitOK
	}
}

func okExitCode(ok bool) int {
	if ok {
		return exitOK
	}
	return exitFailed
}

// loadConfig reads --config (or defaults) and applies flag overrides.
// Errors carry exit code 3.
func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg := config.Default()
	if path := c.String(ConfigFlag.Name); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, cli.Exit(err.Error(), exitInvalidConfig)
		}
		cfg = loaded
	}
	if role := c.String(RoleFlag.Name); role != "" {
		cfg.Device.Role = role
	}
	if id := c.String(DeviceIDFlag.Name); id != "" {
		cfg.Device.ID = id
	}
	if err := cfg.Validate(); err != nil {
		return nil, cli.Exit(fmt.Sprintf("invalid config: %v", err), exitInvalidConfig)
	}
	return cfg, nil
}

// buildError maps node errors to exit codes.
func buildError(err error) error {
	if errors.Is(err, node.ErrInvalidConfig) {
		return cli.Exit(err.Error(), exitInvalidConfig)
	}
	return cli.Exit(fmt.Sprintf("failed to build node: %v", err), exitFailed)
}

// requireRole fails unless cfg is configured for role.
func requireRole(cfg *config.Config, role types.Role, command string) error {
	if cfg.Role() != role {
		return cli.Exit(fmt.Sprintf("%s requires role %s, configured role is %s", command, role, cfg.Device.Role), exitInvalidConfig)
	}
	return nil
}
