// Package config loads CLI configuration from YAML files and the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"covertchan/internal/domain"
	"covertchan/internal/services/session"
)

// Transport kinds.
const (
	TransportRelay = "relay"
	TransportP2P   = "p2p"
)

// Config is the root configuration of the covertchan CLI.
type Config struct {
	// Home holds the key file and transfer metadata.
	Home string `mapstructure:"home"`
	// Me is our address on the relay. Ignored on p2p, where the peer ID is ours.
	Me string `mapstructure:"me"`
	// Transport selects the substrate: relay or p2p.
	Transport string `mapstructure:"transport"`

	Relay   RelayConfig   `mapstructure:"relay"`
	P2P     P2PConfig     `mapstructure:"p2p"`
	Channel ChannelConfig `mapstructure:"channel"`
	Log     LogConfig     `mapstructure:"log"`
}

// RelayConfig configures the relay client.
type RelayConfig struct {
	URL   string `mapstructure:"url"`
	Batch int    `mapstructure:"batch"`
	// Codec is the wire content type: json or cbor.
	Codec string `mapstructure:"codec"`
}

// P2PConfig configures the libp2p host.
type P2PConfig struct {
	Listen   []string `mapstructure:"listen"`
	MaxFrame int      `mapstructure:"max_frame"`
}

// ChannelConfig mirrors domain.Configuration minus the key material.
type ChannelConfig struct {
	Method       string        `mapstructure:"method"`
	DataType     string        `mapstructure:"data_type"`
	ChunkSize    int           `mapstructure:"chunk_size"`
	Encryption   bool          `mapstructure:"encryption"`
	PingInterval time.Duration `mapstructure:"ping_interval"`
	Debug        bool          `mapstructure:"debug"`
}

// LogConfig defines logger settings.
type LogConfig struct {
	// Level: debug, info, warn, error
	Level string `mapstructure:"level"`
	// Format: console or json
	Format string `mapstructure:"format"`
	// Outputs: stdout, stderr, or file paths
	Outputs []string `mapstructure:"outputs"`

	Rotation    RotationConfig `mapstructure:"rotation"`
	Development bool           `mapstructure:"development"`
}

// RotationConfig controls log file rotation for file outputs.
type RotationConfig struct {
	Enable     bool   `mapstructure:"enable"`
	Filename   string `mapstructure:"filename"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

// Default returns the built-in configuration.
func Default() *Config {
	home := ".covertchan"
	if h, err := os.UserHomeDir(); err == nil {
		home = filepath.Join(h, ".covertchan")
	}
	ch := session.DefaultConfiguration()
	return &Config{
		Home:      home,
		Transport: TransportRelay,
		Relay:     RelayConfig{URL: "http://127.0.0.1:8080", Batch: 64, Codec: "json"},
		P2P:       P2PConfig{Listen: []string{"/ip4/0.0.0.0/tcp/0"}, MaxFrame: 1 << 20},
		Channel: ChannelConfig{
			Method:       string(ch.Method),
			DataType:     string(ch.DataType),
			ChunkSize:    ch.ChunkSize,
			Encryption:   ch.EncryptionEnabled,
			PingInterval: ch.PingInterval,
			Debug:        ch.Debug,
		},
		Log: LogConfig{
			Level:   "info",
			Format:  "console",
			Outputs: []string{"stderr"},
			Rotation: RotationConfig{
				Filename:   "logs/covertchan.log",
				MaxSizeMB:  50,
				MaxBackups: 3,
				MaxAgeDays: 28,
				Compress:   true,
			},
		},
	}
}

// Load reads configuration from path (if non-empty), otherwise it searches
// common locations. Environment variables use the prefix COVERTCHAN and
// `.`/`-` are replaced with `_`. Example: COVERTCHAN_CHANNEL_CHUNK_SIZE=64
func Load(path string) (*Config, error) {
	cfg := Default()

	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix("COVERTCHAN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	// seed defaults for viper so env-only configs work
	v.SetDefault("home", cfg.Home)
	v.SetDefault("me", cfg.Me)
	v.SetDefault("transport", cfg.Transport)
	v.SetDefault("relay.url", cfg.Relay.URL)
	v.SetDefault("relay.batch", cfg.Relay.Batch)
	v.SetDefault("relay.codec", cfg.Relay.Codec)
	v.SetDefault("p2p.listen", cfg.P2P.Listen)
	v.SetDefault("p2p.max_frame", cfg.P2P.MaxFrame)
	v.SetDefault("channel.method", cfg.Channel.Method)
	v.SetDefault("channel.data_type", cfg.Channel.DataType)
	v.SetDefault("channel.chunk_size", cfg.Channel.ChunkSize)
	v.SetDefault("channel.encryption", cfg.Channel.Encryption)
	v.SetDefault("channel.ping_interval", cfg.Channel.PingInterval)
	v.SetDefault("channel.debug", cfg.Channel.Debug)
	v.SetDefault("log.level", cfg.Log.Level)
	v.SetDefault("log.format", cfg.Log.Format)
	v.SetDefault("log.outputs", cfg.Log.Outputs)
	v.SetDefault("log.development", cfg.Log.Development)
	v.SetDefault("log.rotation.enable", cfg.Log.Rotation.Enable)
	v.SetDefault("log.rotation.filename", cfg.Log.Rotation.Filename)
	v.SetDefault("log.rotation.max_size_mb", cfg.Log.Rotation.MaxSizeMB)
	v.SetDefault("log.rotation.max_backups", cfg.Log.Rotation.MaxBackups)
	v.SetDefault("log.rotation.max_age_days", cfg.Log.Rotation.MaxAgeDays)
	v.SetDefault("log.rotation.compress", cfg.Log.Rotation.Compress)

	if path == "" {
		if envPath := os.Getenv("COVERTCHAN_CONFIG"); envPath != "" {
			path = envPath
		}
	}
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("covertchan")
		v.AddConfigPath(".")
		v.AddConfigPath(cfg.Home)
	}

	// Read config file if present; if not found, continue with defaults/env
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate normalises the case-insensitive fields and checks the result.
// Load calls it; callers that change fields afterwards (command-line flags)
// call it again.
func (c *Config) Validate() error {
	switch strings.ToLower(strings.TrimSpace(c.Log.Level)) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return &domain.ConfigurationError{Field: "log.level", Reason: fmt.Sprintf("unknown level %q", c.Log.Level)}
	}
	if c.Log.Format == "" {
		c.Log.Format = "console"
	}
	if len(c.Log.Outputs) == 0 {
		c.Log.Outputs = []string{"stderr"}
	}

	c.Transport = strings.ToLower(strings.TrimSpace(c.Transport))
	switch c.Transport {
	case TransportRelay, TransportP2P:
	default:
		return &domain.ConfigurationError{Field: "transport", Reason: fmt.Sprintf("unknown transport %q", c.Transport)}
	}
	switch strings.ToLower(c.Relay.Codec) {
	case "json", "cbor":
	default:
		return &domain.ConfigurationError{Field: "relay.codec", Reason: fmt.Sprintf("unknown codec %q", c.Relay.Codec)}
	}

	_, err := session.ResolveConfiguration(c.Overrides())
	return err
}

// Overrides converts the channel section into session overrides. Every field
// is set, so file and environment values win over the session defaults.
func (c *Config) Overrides() domain.Overrides {
	ch := c.Channel
	method := domain.Method(ch.Method)
	dataType := domain.DataType(ch.DataType)
	return domain.Overrides{
		Method:            &method,
		DataType:          &dataType,
		ChunkSize:         &ch.ChunkSize,
		EncryptionEnabled: &ch.Encryption,
		PingInterval:      &ch.PingInterval,
		Debug:             &ch.Debug,
	}
}
