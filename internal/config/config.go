package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// Config represents the global ~/.mockchat/config.toml.
type Config struct {
	DefaultProfile string    `toml:"default_profile"`
	Lifecycle      Lifecycle `toml:"lifecycle"`
	Typing         Typing    `toml:"typing"`
	Identity       Identity  `toml:"identity"`
	Limits         Limits    `toml:"limits"`
	RPC            RPC       `toml:"rpc"`
	Log            Log       `toml:"log"`
}

// Lifecycle holds the simulated acknowledgment delays.
type Lifecycle struct {
	SentDelay      Duration `toml:"sent_delay"`
	DeliveredDelay Duration `toml:"delivered_delay"`
}

// Typing controls indicator expiry and the ambient typing simulation.
type Typing struct {
	Timeout     Duration `toml:"timeout"`
	Simulate    bool     `toml:"simulate"`
	Interval    Duration `toml:"interval"`
	Probability float64  `toml:"probability"`
	MinDuration Duration `toml:"min_duration"`
	MaxDuration Duration `toml:"max_duration"`
	Seed        uint64   `toml:"seed"`
}

type Identity struct {
	MinPasswordLength int     `toml:"min_password_length"`
	MinEntropyBits    float64 `toml:"min_entropy_bits"`
	VerifyPasswords   bool    `toml:"verify_passwords"`
}

type Limits struct {
	ImageMaxBytes int64 `toml:"image_max_bytes"`
	FileMaxBytes  int64 `toml:"file_max_bytes"`
	PreviewLength int   `toml:"preview_length"`
}

// RPC limits how fast a single client may call the daemon.
type RPC struct {
	RequestsPerMinute int `toml:"requests_per_minute"`
	Burst             int `toml:"burst"`
}

type Log struct {
	Level string `toml:"level"`
}

// Duration is a time.Duration written as a string such as "1500ms".
type Duration struct {
	time.Duration
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("duration %q: %w", text, err)
	}
	d.Duration = v
	return nil
}

// Default returns the built-in simulation policy.
func Default() *Config {
	return &Config{
		Lifecycle: Lifecycle{
			SentDelay:      Duration{time.Second},
			DeliveredDelay: Duration{2 * time.Second},
		},
		Typing: Typing{
			Timeout:     Duration{5 * time.Second},
			Simulate:    true,
			Interval:    Duration{5 * time.Second},
			Probability: 0.1,
			MinDuration: Duration{2 * time.Second},
			MaxDuration: Duration{5 * time.Second},
		},
		Identity: Identity{MinPasswordLength: 6},
		Limits: Limits{
			ImageMaxBytes: 10 << 20,
			FileMaxBytes:  25 << 20,
			PreviewLength: 50,
		},
		RPC: RPC{RequestsPerMinute: 600, Burst: 50},
		Log: Log{Level: "info"},
	}
}

// Load reads config from the given path over the defaults. Returns an error
// if the file is missing.
func Load(path string) (*Config, error) {
	cfg := Default()
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// LoadOrDefault is Load, except that a missing file yields the defaults.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	return cfg, err
}

// Validate rejects settings the daemon cannot run with.
func (c *Config) Validate() error {
	switch {
	case c.Lifecycle.SentDelay.Duration < 0 || c.Lifecycle.DeliveredDelay.Duration < c.Lifecycle.SentDelay.Duration:
		return errors.New("lifecycle: delivered_delay must be >= sent_delay >= 0")
	case c.Typing.Probability < 0 || c.Typing.Probability > 1:
		return errors.New("typing: probability must be within [0, 1]")
	case c.Typing.MaxDuration.Duration < c.Typing.MinDuration.Duration:
		return errors.New("typing: max_duration must be >= min_duration")
	case c.Identity.MinPasswordLength < 1:
		return errors.New("identity: min_password_length must be positive")
	case c.RPC.RequestsPerMinute < 0 || c.RPC.Burst < 0:
		return errors.New("rpc: limits must not be negative")
	}
	return nil
}

// Save writes config to the given path, creating parent dirs as needed.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	encErr := toml.NewEncoder(f).Encode(cfg)
	if closeErr := f.Close(); closeErr != nil && encErr == nil {
		return closeErr
	}
	return encErr
}
