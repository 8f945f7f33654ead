package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration.
type Config struct {
	Discord   DiscordConfig   `yaml:"discord"`
	Auction   AuctionConfig   `yaml:"auction"`
	Server    ServerConfig    `yaml:"server"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// DiscordConfig holds Discord bot settings.
type DiscordConfig struct {
	Token   string `yaml:"token"`
	GuildID string `yaml:"guild_id"`
}

// AuctionConfig holds auction engine settings.
type AuctionConfig struct {
	// MaxPerGuild caps concurrent auctions per guild.
	MaxPerGuild int `yaml:"max_per_guild"`
	// MinDuration is the shortest allowed auction duration.
	MinDuration time.Duration `yaml:"min_duration"`
	// BidReaction acknowledges bids with an emoji reaction instead of a
	// confirmation message.
	BidReaction bool `yaml:"bid_reaction"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            int           `yaml:"port"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// TelemetryConfig holds OpenTelemetry settings.
type TelemetryConfig struct {
	ServiceName    string `yaml:"service_name"`
	ServiceVersion string `yaml:"service_version"`
	OTLPEndpoint   string `yaml:"otlp_endpoint"`
	Insecure       bool   `yaml:"insecure"`
}

// Load reads a YAML configuration file from the given path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := &Config{
		Auction: AuctionConfig{
			MaxPerGuild: 10,
			MinDuration: 3 * time.Minute,
			BidReaction: true,
		},
		Server: ServerConfig{
			Port:            8080,
			ShutdownTimeout: 15 * time.Second,
		},
		Telemetry: TelemetryConfig{
			ServiceName:    "auctionbot",
			ServiceVersion: "0.1.0",
		},
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// validate checks configuration invariants.
func (c *Config) validate() error {
	if c.Auction.MaxPerGuild < 1 {
		return fmt.Errorf("auction.max_per_guild must be at least 1, got %d", c.Auction.MaxPerGuild)
	}
	if c.Auction.MinDuration <= 0 {
		return fmt.Errorf("auction.min_duration must be positive, got %s", c.Auction.MinDuration)
	}
	return nil
}
