package shared

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestConfig(t *testing.T) {
	t.Run("DefaultConfig", func(t *testing.T) {
		config := DefaultConfig()

		if config.Database.Path != "./oauthcap.db" {
			t.Errorf("expected database path ./oauthcap.db, got %s", config.Database.Path)
		}

		if len(config.Server.Ports) != 1 || config.Server.Ports[0] != 1420 {
			t.Errorf("expected server ports [1420], got %v", config.Server.Ports)
		}

		if config.Host() != "127.0.0.1" {
			t.Errorf("expected host 127.0.0.1, got %s", config.Host())
		}

		if config.Listener.BufferSize != 1024 {
			t.Errorf("expected buffer size 1024, got %d", config.Listener.BufferSize)
		}

		if config.Listener.ReadTimeout() != 5*time.Second {
			t.Errorf("expected read timeout 5s, got %v", config.Listener.ReadTimeout())
		}

		if err := config.Validate(); err != nil {
			t.Errorf("default config should validate: %v", err)
		}
	})

	t.Run("CreateConfigFile", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		if err := CreateConfigFile(configPath); err != nil {
			t.Fatalf("failed to create config file: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load created config: %v", err)
		}

		if config.Database.Path != DefaultConfig().Database.Path {
			t.Errorf("created config database path doesn't match default")
		}

		if err := CreateConfigFile(configPath); err == nil {
			t.Error("creating config file again should fail")
		}
	})

	t.Run("LoadConfig", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		testConfig := `[server]
host = "127.0.0.2"
ports = [8080, 8081]

[listener]
buffer_size = 2048
read_timeout_seconds = 2

[database]
path = "/custom/path.db"

[providers.okta]
client_id = "test_client_id"
auth_url = "https://example.okta.com/oauth2/v1/authorize"
token_url = "https://example.okta.com/oauth2/v1/token"
scopes = ["openid"]
redirect_port = 8080
`
		if err := os.WriteFile(configPath, []byte(testConfig), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}

		if config.Host() != "127.0.0.2" {
			t.Errorf("expected host 127.0.0.2, got %s", config.Host())
		}

		if len(config.Server.Ports) != 2 {
			t.Errorf("expected 2 ports, got %v", config.Server.Ports)
		}

		p, err := config.Provider("okta")
		if err != nil {
			t.Fatalf("failed to get provider: %v", err)
		}
		if p.ClientID != "test_client_id" || p.RedirectPort != 8080 {
			t.Errorf("unexpected provider config %+v", p)
		}

		if got := config.RedirectURL("okta", 8080); got != "http://127.0.0.2:8080/callback/okta" {
			t.Errorf("unexpected redirect URL %s", got)
		}
	})

	t.Run("LoadConfig rejects invalid port", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.toml")
		if err := os.WriteFile(configPath, []byte("[server]\nports = [70000]\n"), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		if _, err := LoadConfig(configPath); !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})

	t.Run("LoadConfig missing file", func(t *testing.T) {
		if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
			t.Error("expected error for missing file")
		}
	})

	t.Run("Provider", func(t *testing.T) {
		config := &Config{Providers: map[string]ProviderConfig{
			"empty":   {},
			"partial": {ClientID: "id"},
		}}

		tt := []struct {
			name string
			want error
		}{
			{"missing", ErrUnknownProvider},
			{"empty", ErrMissingCredentials},
			{"partial", ErrInvalidConfig},
		}

		for _, tc := range tt {
			t.Run(tc.name, func(t *testing.T) {
				if _, err := config.Provider(tc.name); !errors.Is(err, tc.want) {
					t.Errorf("Provider(%s) error = %v, want %v", tc.name, err, tc.want)
				}
			})
		}

		if names := DefaultConfig().ProviderNames(); len(names) != 2 || names[0] != "github" {
			t.Errorf("unexpected provider names %v", names)
		}
	})
}
