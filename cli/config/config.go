package config

import (
	"fmt"
	"time"
)

// Config represents a peerdialog.yaml configuration file.
// All values are optional and act as defaults for the dialog commands.
// CLI flags always override config values.
type Config struct {
	AppName string        `yaml:"app_name"`
	Peer    PeerConfig    `yaml:"peer"`
	Install InstallConfig `yaml:"install"`
	Notify  NotifyConfig  `yaml:"notify"`
	// Journal records completed dialogs. Empty path disables it.
	Journal StoreConfig `yaml:"journal"`
}

// PeerConfig holds peer process defaults.
type PeerConfig struct {
	// Path is an explicit peer executable; it bypasses installation.
	Path           string   `yaml:"path"`
	Toolkit        string   `yaml:"toolkit"`
	StartupTimeout Duration `yaml:"startup_timeout"`
	LatchTimeout   Duration `yaml:"latch_timeout"`
	Debug          int      `yaml:"debug"`
	// Disabled skips the peer and always uses the terminal dialog.
	Disabled bool `yaml:"disabled"`
}

// InstallConfig holds peer installation defaults.
type InstallConfig struct {
	Manifest string       `yaml:"manifest"`
	CacheDir string       `yaml:"cache_dir"`
	Source   StoreConfig `yaml:"source"`
}

// StoreConfig locates a Lode store: the installer's asset source or the
// dialog journal.
type StoreConfig struct {
	Backend     string `yaml:"backend"`
	Path        string `yaml:"path"`
	Region      string `yaml:"region"`
	Endpoint    string `yaml:"endpoint"`
	S3PathStyle bool   `yaml:"s3_path_style"`
}

// NotifyConfig holds selection event adapter defaults.
type NotifyConfig struct {
	Type     string            `yaml:"type"`
	URL      string            `yaml:"url"`
	Channel  string            `yaml:"channel,omitempty"`
	Encoding string            `yaml:"encoding,omitempty"`
	Headers  map[string]string `yaml:"headers,omitempty"`
	Timeout  Duration          `yaml:"timeout,omitempty"`
	Retries  *int              `yaml:"retries,omitempty"`
}

// Duration wraps time.Duration for YAML string parsing (e.g. "10s", "5m").
type Duration struct {
	time.Duration
}

// UnmarshalYAML parses a duration string like "10s" or "5m30s".
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

// MarshalYAML renders the duration in time.Duration string form.
func (d Duration) MarshalYAML() (any, error) {
	if d.Duration == 0 {
		return "", nil
	}
	return d.String(), nil
}
