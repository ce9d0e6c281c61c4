package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Console ConsoleConfig `yaml:"console"`
	Server  ServerConfig  `yaml:"server"`
	Probe   ProbeConfig   `yaml:"probe"`
}

// ConsoleConfig configures the terminal console and its ping session.
type ConsoleConfig struct {
	// Scheme is "ws" or "wss"; the HTTP scheme is derived from it.
	Scheme        string        `yaml:"scheme"`
	Host          string        `yaml:"host"`
	APIPrefix     string        `yaml:"api_prefix"`
	Token         string        `yaml:"token"`
	SessionCookie string        `yaml:"session_cookie"`
	SessionValue  string        `yaml:"session_value"`
	WebSocket     bool          `yaml:"websocket"`
	Keepalive     time.Duration `yaml:"keepalive"`
	MaxFrameSize  int64         `yaml:"max_frame_size"`
	HTTPTimeout   time.Duration `yaml:"http_timeout"`
}

// ServerConfig configures the ping backend.
type ServerConfig struct {
	Port           int      `yaml:"port"`
	Host           string   `yaml:"host"`
	Token          string   `yaml:"token"`
	AllowedOrigins []string `yaml:"allowed_origins"`
	MaxClients     int      `yaml:"max_clients"`
}

// ProbeConfig configures the ICMP probes issued by the backend.
type ProbeConfig struct {
	Interval   time.Duration `yaml:"interval"`
	Timeout    time.Duration `yaml:"timeout"`
	Count      int           `yaml:"count"`
	Size       int           `yaml:"size"`
	Privileged bool          `yaml:"privileged"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Console: ConsoleConfig{
			Scheme:       "wss",
			Host:         "localhost:1337",
			APIPrefix:    "/api/",
			WebSocket:    true,
			MaxFrameSize: 64 << 10,
			HTTPTimeout:  10 * time.Second,
		},
		Server: ServerConfig{
			Port: 1337,
			Host: "0.0.0.0",
		},
		Probe: ProbeConfig{
			Interval: time.Second,
			Size:     24,
		},
	}
}

// Load reads a YAML file over the defaults. An empty path returns the
// defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks values that would otherwise fail late at dial or probe
// time.
func (c *Config) Validate() error {
	var errs []error

	switch c.Console.Scheme {
	case "ws", "wss":
	default:
		errs = append(errs, fmt.Errorf("console.scheme must be ws or wss, got %q", c.Console.Scheme))
	}
	if strings.TrimSpace(c.Console.Host) == "" {
		errs = append(errs, errors.New("console.host is required"))
	}
	if c.Console.Keepalive < 0 {
		errs = append(errs, errors.New("console.keepalive must not be negative"))
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port out of range: %d", c.Server.Port))
	}
	if c.Server.MaxClients < 0 {
		errs = append(errs, errors.New("server.max_clients must not be negative"))
	}
	if c.Probe.Interval <= 0 {
		errs = append(errs, errors.New("probe.interval must be positive"))
	}
	if c.Probe.Count < 0 {
		errs = append(errs, errors.New("probe.count must not be negative"))
	}

	return errors.Join(errs...)
}

// HTTPScheme is the scheme used for REST calls next to the socket.
func (c *ConsoleConfig) HTTPScheme() string {
	if c.Scheme == "wss" {
		return "https"
	}
	return "http"
}
