package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config aggregates every setting the service reads at startup.
type Config struct {
	Server    ServerConfig
	Store     StoreConfig
	Auth      AuthConfig
	Lifecycle LifecycleConfig
}

// Load reads the full configuration from environment variables.
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	auth, err := loadAuthConfig()
	if err != nil {
		return nil, err
	}

	lifecycle, err := loadLifecycleConfig()
	if err != nil {
		return nil, err
	}

	return &Config{
		Server:    server,
		Store:     loadStoreConfig(),
		Auth:      auth,
		Lifecycle: lifecycle,
	}, nil
}

// ServerConfig describes the HTTP listener.
type ServerConfig struct {
	Addr string
}

func loadServerConfig() (ServerConfig, error) {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8000"
	}

	if strings.Contains(port, ":") {
		// Allow passing ":8000" or "127.0.0.1:8000" directly.
		return ServerConfig{Addr: port}, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port}, nil
}

// StoreConfig names the on-disk locations for durable state.
type StoreConfig struct {
	DataFile  string
	UsersFile string
	StaticDir string
}

// UploadsDir is where per-session attachment directories live. It sits under
// the static mount so uploaded files are directly servable.
func (c StoreConfig) UploadsDir() string {
	return c.StaticDir + "/uploads"
}

func loadStoreConfig() StoreConfig {
	return StoreConfig{
		DataFile:  getEnvOrDefault("DATA_FILE", "sessions.json"),
		UsersFile: getEnvOrDefault("USERS_FILE", "users.json"),
		StaticDir: getEnvOrDefault("STATIC_DIR", "static"),
	}
}

// AuthConfig carries token signing settings.
type AuthConfig struct {
	JWTSecret  string
	Expiration time.Duration
}

func loadAuthConfig() (AuthConfig, error) {
	hours, err := parseOptionalIntEnv("JWT_EXPIRATION_HOURS")
	if err != nil {
		return AuthConfig{}, err
	}
	expiration := 24 * time.Hour
	if hours != nil {
		expiration = time.Duration(*hours) * time.Hour
	}

	return AuthConfig{
		JWTSecret:  getEnvOrDefault("JWT_SECRET", "change-me-in-production-with-strong-secret"),
		Expiration: expiration,
	}, nil
}

// LifecycleConfig tunes the background persist/expiry sweeper.
type LifecycleConfig struct {
	SweepInterval time.Duration
	SessionExpiry time.Duration
}

func loadLifecycleConfig() (LifecycleConfig, error) {
	intervalSecs, err := parseOptionalIntEnv("SWEEP_INTERVAL_SECONDS")
	if err != nil {
		return LifecycleConfig{}, err
	}
	interval := 30 * time.Second
	if intervalSecs != nil {
		interval = time.Duration(*intervalSecs) * time.Second
	}

	expiryHours, err := parseOptionalIntEnv("SESSION_EXPIRY_HOURS")
	if err != nil {
		return LifecycleConfig{}, err
	}
	expiry := 7 * 24 * time.Hour
	if expiryHours != nil {
		expiry = time.Duration(*expiryHours) * time.Hour
	}

	return LifecycleConfig{SweepInterval: interval, SessionExpiry: expiry}, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseOptionalIntEnv(key string) (*int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}
