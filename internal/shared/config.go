package shared

import (
	_ "embed"
	"fmt"
	"os"
	"slices"
	"time"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Server    ServerConfig              `toml:"server"`
	Listener  ListenerConfig            `toml:"listener"`
	Database  DatabaseConfig            `toml:"database"`
	Providers map[string]ProviderConfig `toml:"providers"`
}

// ServerConfig contains the loopback address and the ports listened on by default.
type ServerConfig struct {
	Host  string `toml:"host"`
	Ports []int  `toml:"ports"`
}

// ListenerConfig tunes each callback listener.
type ListenerConfig struct {
	BufferSize         int     `toml:"buffer_size"`
	ReadTimeoutSeconds int     `toml:"read_timeout_seconds"`
	AcceptRate         float64 `toml:"accept_rate"`
	AcceptBurst        int     `toml:"accept_burst"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// ProviderConfig contains the OAuth client registration for one identity provider.
type ProviderConfig struct {
	ClientID     string   `toml:"client_id"`
	ClientSecret string   `toml:"client_secret"`
	AuthURL      string   `toml:"auth_url"`
	TokenURL     string   `toml:"token_url"`
	Scopes       []string `toml:"scopes"`
	RedirectPort int      `toml:"redirect_port"`
}

// ReadTimeout returns the per-connection deadline.
func (l ListenerConfig) ReadTimeout() time.Duration {
	return time.Duration(l.ReadTimeoutSeconds) * time.Second
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks ports and provider registrations.
func (c *Config) Validate() error {
	for _, p := range c.Server.Ports {
		if !validPort(p) {
			return fmt.Errorf("%w: server port %d out of range", ErrInvalidConfig, p)
		}
	}

	for name, p := range c.Providers {
		if p.RedirectPort != 0 && !validPort(p.RedirectPort) {
			return fmt.Errorf("%w: provider %s redirect_port %d out of range", ErrInvalidConfig, name, p.RedirectPort)
		}
	}

	if c.Listener.BufferSize < 0 || c.Listener.ReadTimeoutSeconds < 0 || c.Listener.AcceptBurst < 0 {
		return fmt.Errorf("%w: listener settings must not be negative", ErrInvalidConfig)
	}

	return nil
}

// Provider returns the registration for name.
func (c *Config) Provider(name string) (ProviderConfig, error) {
	p, ok := c.Providers[name]
	if !ok {
		return ProviderConfig{}, fmt.Errorf("%w: %s", ErrUnknownProvider, name)
	}
	if p.ClientID == "" {
		return ProviderConfig{}, fmt.Errorf("%w: provider %s has no client_id", ErrMissingCredentials, name)
	}
	if p.AuthURL == "" || p.TokenURL == "" {
		return ProviderConfig{}, fmt.Errorf("%w: provider %s needs auth_url and token_url", ErrInvalidConfig, name)
	}
	return p, nil
}

// ProviderNames returns configured provider names in sorted order.
func (c *Config) ProviderNames() []string {
	names := make([]string, 0, len(c.Providers))
	for name := range c.Providers {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Host returns the configured bind host, defaulting to loopback.
func (c *Config) Host() string {
	if c.Server.Host == "" {
		return "127.0.0.1"
	}
	return c.Server.Host
}

// RedirectURL builds the redirect URI a provider must be registered with.
func (c *Config) RedirectURL(provider string, port int) string {
	return fmt.Sprintf("http://%s:%d/callback/%s", c.Host(), port, provider)
}

func validPort(p int) bool {
	return p > 0 && p <= 65535
}
