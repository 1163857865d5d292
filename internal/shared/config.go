package shared

import (
	_ "embed"
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

//go:embed config.example.toml
var exampleConf []byte

// DefaultScopes is the permission list requested at login.
var DefaultScopes = []string{
	"streaming",
	"user-read-email",
	"user-read-private",
	"user-modify-playback-state",
	"user-read-playback-state",
	"user-read-currently-playing",
}

const (
	defaultPort      = 3000
	defaultRateLimit = 60
	defaultRateBurst = 20

	// CallbackPath is where the identity provider sends the user back to.
	CallbackPath = "/api/callback"
	// LoginPath starts the authorization flow.
	LoginPath = "/api/login"
	// RefreshPath mints a new access token from the session cookie.
	RefreshPath = "/api/refresh_token"
)

// Config represents the application configuration loaded from a TOML file and the environment.
type Config struct {
	Credentials CredentialsConfig `toml:"credentials"`
	Server      ServerConfig      `toml:"server"`
	Player      PlayerConfig      `toml:"player"`
	Log         LogConfig         `toml:"log"`
}

// CredentialsConfig contains service-specific credentials.
type CredentialsConfig struct {
	Spotify SpotifyConfig `toml:"spotify"`
}

// SpotifyConfig contains Spotify API credentials.
//
// The URL fields are only set when pointing the app at a fake provider.
type SpotifyConfig struct {
	ClientID     string   `toml:"client_id" env:"SPOTIFY_CLIENT_ID"`
	ClientSecret string   `toml:"client_secret" env:"SPOTIFY_CLIENT_SECRET"`
	Scopes       []string `toml:"scopes"`
	AuthURL      string   `toml:"auth_url" env:"SPOTIFY_AUTH_URL"`
	TokenURL     string   `toml:"token_url" env:"SPOTIFY_TOKEN_URL"`
	APIURL       string   `toml:"api_url" env:"SPOTIFY_API_URL"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host string `toml:"host" env:"SCANPLAY_HOST"`
	Port int    `toml:"port" env:"SCANPLAY_PORT"`
	// BaseURL is the externally visible origin, used for the redirect URI and as the landing page.
	BaseURL string `toml:"base_url" env:"NEXT_PUBLIC_BASE_URL"`
	// Environment is "production" or "development"; production turns on Secure cookies.
	Environment string `toml:"environment" env:"NODE_ENV"`
	// RateLimit is the number of /api requests allowed per client per minute.
	RateLimit int `toml:"rate_limit" env:"SCANPLAY_RATE_LIMIT"`
	RateBurst int `toml:"rate_burst" env:"SCANPLAY_RATE_BURST"`
}

// PlayerConfig contains terminal player settings.
type PlayerConfig struct {
	Name string `toml:"name" env:"SCANPLAY_PLAYER_NAME"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	Level string `toml:"level" env:"SCANPLAY_LOG_LEVEL"`
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

	config.Sanitize()
	return &config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	config.Sanitize()
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

// Load reads the config file at path when it exists (defaults otherwise) and overlays the environment.
func Load(path string) (*Config, error) {
	config := DefaultConfig()
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			loaded, err := LoadConfig(path)
			if err != nil {
				return nil, err
			}
			config = loaded
		}
	}

	if err := ApplyEnv(config); err != nil {
		return nil, err
	}
	return config, nil
}

// ApplyEnv loads a .env file when present and overrides config fields from environment variables.
func ApplyEnv(config *Config) error {
	if err := godotenv.Load(); err != nil {
		var pathErr *os.PathError
		if !errors.As(err, &pathErr) {
			return fmt.Errorf("%w: load .env file: %v", ErrInvalidConfig, err)
		}
	}

	if err := env.Parse(config); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	config.Sanitize()
	return nil
}

// Sanitize fills zero values with defaults and normalises URLs.
func (c *Config) Sanitize() {
	if len(c.Credentials.Spotify.Scopes) == 0 {
		c.Credentials.Spotify.Scopes = append([]string(nil), DefaultScopes...)
	}
	if c.Server.Port <= 0 {
		c.Server.Port = defaultPort
	}
	if c.Server.RateLimit <= 0 {
		c.Server.RateLimit = defaultRateLimit
	}
	if c.Server.RateBurst <= 0 {
		c.Server.RateBurst = defaultRateBurst
	}
	if c.Server.BaseURL == "" {
		host := c.Server.Host
		if host == "" {
			host = "127.0.0.1"
		}
		c.Server.BaseURL = "http://" + net.JoinHostPort(host, strconv.Itoa(c.Server.Port))
	}
	c.Server.BaseURL = strings.TrimRight(c.Server.BaseURL, "/")
	c.Server.Environment = strings.ToLower(strings.TrimSpace(c.Server.Environment))
	if c.Player.Name == "" {
		c.Player.Name = "QR Player"
	}
}

// Validate reports missing client credentials.
func (c *Config) Validate() error {
	if c.Credentials.Spotify.ClientID == "" || c.Credentials.Spotify.ClientSecret == "" {
		return fmt.Errorf("%w: spotify client_id and client_secret must be set", ErrMissingCredentials)
	}
	return nil
}

// IsProduction reports whether cookies must carry the Secure flag.
func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production" || c.Server.Environment == "prod"
}

// RedirectURI is the callback URL registered with the identity provider.
func (c *Config) RedirectURI() string {
	return c.Server.BaseURL + CallbackPath
}

// LoginURL is the URL a client navigates to in order to start authorization.
func (c *Config) LoginURL() string {
	return c.Server.BaseURL + LoginPath
}

// Addr is the listen address of the HTTP server.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Server.Host, strconv.Itoa(c.Server.Port))
}
