// Package config loads wearlink.yaml node configuration.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/pithecene-io/wearlink/types"
)

// Transport types.
const (
	TransportMemory = "memory"
	TransportTCP    = "tcp"
	TransportWS     = "ws"
)

// Store backends.
const (
	StoreMemory = "memory"
	StoreRedis  = "redis"
	StoreSQLite = "sqlite"
)

// Archive backends. An empty backend disables the archive.
const (
	ArchiveFS = "fs"
	ArchiveS3 = "s3"
)

// Adapter types. An empty type disables notifications.
const (
	AdapterRedis   = "redis"
	AdapterWebhook = "webhook"
)

// Config is a wearlink.yaml file. CLI flags override its values.
type Config struct {
	Device      DeviceConfig    `yaml:"device"`
	Transport   TransportConfig `yaml:"transport"`
	Store       StoreConfig     `yaml:"store"`
	AutoSync    AutoSyncConfig  `yaml:"autosync"`
	Archive     ArchiveConfig   `yaml:"archive"`
	Adapter     AdapterConfig   `yaml:"adapter"`
	Library     LibraryConfig   `yaml:"library"`
	MetricsPath string          `yaml:"metrics_path"`
}

// DeviceConfig identifies the local node.
type DeviceConfig struct {
	ID         string `yaml:"id"`
	Name       string `yaml:"name"`
	Role       string `yaml:"role"`
	Model      string `yaml:"model"`
	SDKInt     int    `yaml:"sdk_int"`
	AppVersion string `yaml:"app_version"`
	// Charging and Unmetered seed the power and network gates.
	Charging  bool `yaml:"charging"`
	Unmetered bool `yaml:"unmetered"`
}

// TransportConfig selects the link to the peer.
type TransportConfig struct {
	Type string `yaml:"type"`
	// Listen is a host:port to accept peers on.
	Listen string `yaml:"listen"`
	// Dial is a host:port (tcp) or ws:// URL to connect to.
	Dial string `yaml:"dial"`
}

// StoreConfig selects the bridge state store.
type StoreConfig struct {
	Backend string `yaml:"backend"`
	URL     string `yaml:"url"`
	Path    string `yaml:"path"`
	Prefix  string `yaml:"prefix"`
}

// AutoSyncConfig configures the background sync on the phone.
type AutoSyncConfig struct {
	Enabled       bool     `yaml:"enabled"`
	Interval      Duration `yaml:"interval"`
	BackoffBase   Duration `yaml:"backoff_base"`
	MaxItems      int      `yaml:"max_items"`
	BatterySaver  bool     `yaml:"battery_saver"`
	UnmeteredOnly bool     `yaml:"unmetered_only"`
}

// ArchiveConfig configures the run history archive.
type ArchiveConfig struct {
	Backend string `yaml:"backend"`
	// Path is a directory (fs) or bucket/prefix (s3).
	Path        string `yaml:"path"`
	Region      string `yaml:"region"`
	Endpoint    string `yaml:"endpoint"`
	S3PathStyle bool   `yaml:"s3_path_style"`
	Dataset     string `yaml:"dataset"`
}

// AdapterConfig configures run notifications.
type AdapterConfig struct {
	Type    string            `yaml:"type"`
	URL     string            `yaml:"url"`
	Channel string            `yaml:"channel,omitempty"`
	Headers map[string]string `yaml:"headers,omitempty"`
	Timeout Duration          `yaml:"timeout,omitempty"`
	Retries *int              `yaml:"retries,omitempty"`
}

// LibraryConfig points at the library seed file.
type LibraryConfig struct {
	Seed string `yaml:"seed"`
}

// Duration wraps time.Duration for YAML strings like "10s" or "6h".
type Duration struct {
	time.Duration
}

// UnmarshalYAML parses a duration string.
func (d *Duration) UnmarshalYAML(unmarshal func(any) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	if s == "" {
		return nil
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	d.Duration = parsed
	return nil
}

// MarshalYAML writes the duration as a string.
func (d Duration) MarshalYAML() (any, error) {
	return d.String(), nil
}

// Default is a watch on the memory transport with a memory store.
func Default() *Config {
	return &Config{
		Device: DeviceConfig{
			ID:   "watch",
			Name: "Wear OS watch",
			Role: string(types.RoleWatch),
		},
		Transport: TransportConfig{Type: TransportMemory},
		Store:     StoreConfig{Backend: StoreMemory},
		AutoSync: AutoSyncConfig{
			Enabled:     true,
			Interval:    Duration{6 * time.Hour},
			BackoffBase: Duration{30 * time.Second},
		},
	}
}

// Role returns the parsed device role.
func (c *Config) Role() types.Role {
	role, _ := types.ParseRole(c.Device.Role)
	return role
}

// Validate rejects unknown enums and missing required fields.
func (c *Config) Validate() error {
	var errs []error
	add := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	if strings.TrimSpace(c.Device.ID) == "" {
		add("device.id is required")
	}
	if _, ok := types.ParseRole(c.Device.Role); !ok {
		add("device.role must be phone or watch, got %q", c.Device.Role)
	}

	switch c.Transport.Type {
	case TransportMemory:
	case TransportTCP, TransportWS:
		if c.Transport.Listen == "" && c.Transport.Dial == "" {
			add("transport %s needs listen or dial", c.Transport.Type)
		}
	default:
		add("transport.type must be memory, tcp or ws, got %q", c.Transport.Type)
	}

	switch c.Store.Backend {
	case StoreMemory:
	case StoreRedis:
		if c.Store.URL == "" {
			add("store redis needs url")
		}
	case StoreSQLite:
		if c.Store.Path == "" {
			add("store sqlite needs path")
		}
	default:
		add("store.backend must be memory, redis or sqlite, got %q", c.Store.Backend)
	}

	if c.AutoSync.Interval.Duration < 0 || c.AutoSync.BackoffBase.Duration < 0 {
		add("autosync durations must not be negative")
	}
	if c.AutoSync.MaxItems < 0 {
		add("autosync.max_items must be >= 0, got %d", c.AutoSync.MaxItems)
	}

	switch c.Archive.Backend {
	case "":
	case ArchiveFS, ArchiveS3:
		if c.Archive.Path == "" {
			add("archive %s needs path", c.Archive.Backend)
		}
	default:
		add("archive.backend must be fs or s3, got %q", c.Archive.Backend)
	}

	switch c.Adapter.Type {
	case "":
	case AdapterRedis, AdapterWebhook:
		if c.Adapter.URL == "" {
			add("adapter %s needs url", c.Adapter.Type)
		}
		if c.Adapter.Retries != nil && *c.Adapter.Retries < 0 {
			add("adapter.retries must be >= 0, got %d", *c.Adapter.Retries)
		}
	default:
		add("adapter.type must be redis or webhook, got %q", c.Adapter.Type)
	}

	return errors.Join(errs...)
}
