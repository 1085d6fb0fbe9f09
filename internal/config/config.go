// Package config loads application configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the application configuration loaded from environment variables.
type Config struct {
	ListenAddr   string
	DBPath       string
	SecretKey    string
	SyncInterval time.Duration
	PushWorkers  int
	QueueSize    int

	// AdapterConfig maps adapter slugs to their deployment-level static
	// configuration, loaded from the YAML file named by
	// PORTALACCESS_ADAPTERS_CONFIG. Empty when none is configured.
	AdapterConfig map[string]map[string]string
}

// Load reads configuration from environment variables and returns a validated
// Config. PORTALACCESS_SECRET_KEY is required; credentials cannot be stored
// without it. Optional variables with defaults:
// PORTALACCESS_LISTEN_ADDR (127.0.0.1:8080), PORTALACCESS_DB_PATH
// (portalaccess.db), PORTALACCESS_SYNC_INTERVAL (5m),
// PORTALACCESS_PUSH_WORKERS (2), PORTALACCESS_QUEUE_SIZE (64),
// PORTALACCESS_ADAPTERS_CONFIG (no file).
func Load() (*Config, error) {
	secretKey := os.Getenv("PORTALACCESS_SECRET_KEY")
	if secretKey == "" {
		return nil, fmt.Errorf("PORTALACCESS_SECRET_KEY is required")
	}

	listenAddr := "127.0.0.1:8080"
	if v, ok := os.LookupEnv("PORTALACCESS_LISTEN_ADDR"); ok {
		listenAddr = v
	}

	dbPath := "portalaccess.db"
	if v, ok := os.LookupEnv("PORTALACCESS_DB_PATH"); ok {
		dbPath = v
	}

	syncInterval := 5 * time.Minute
	if v, ok := os.LookupEnv("PORTALACCESS_SYNC_INTERVAL"); ok {
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("PORTALACCESS_SYNC_INTERVAL has invalid duration %q: %w", v, err)
		}
		syncInterval = parsed
	}

	pushWorkers, err := intEnv("PORTALACCESS_PUSH_WORKERS", 2)
	if err != nil {
		return nil, err
	}

	queueSize, err := intEnv("PORTALACCESS_QUEUE_SIZE", 64)
	if err != nil {
		return nil, err
	}

	adapterConfig := map[string]map[string]string{}
	if path, ok := os.LookupEnv("PORTALACCESS_ADAPTERS_CONFIG"); ok && path != "" {
		adapterConfig, err = loadAdapterConfig(path)
		if err != nil {
			return nil, err
		}
	}

	return &Config{
		ListenAddr:    listenAddr,
		DBPath:        dbPath,
		SecretKey:     secretKey,
		SyncInterval:  syncInterval,
		PushWorkers:   pushWorkers,
		QueueSize:     queueSize,
		AdapterConfig: adapterConfig,
	}, nil
}

// loadAdapterConfig parses the per-slug adapter configuration YAML:
//
//	echo:
//	  base_url: https://httpbingo.org/post
func loadAdapterConfig(path string) (map[string]map[string]string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read adapters config %s: %w", path, err)
	}

	cfg := map[string]map[string]string{}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("parse adapters config %s: %w", path, err)
	}
	return cfg, nil
}

func intEnv(name string, fallback int) (int, error) {
	v, ok := os.LookupEnv(name)
	if !ok {
		return fallback, nil
	}
	parsed, err := strconv.Atoi(v)
	if err != nil || parsed <= 0 {
		return 0, fmt.Errorf("%s must be a positive integer, got %q", name, v)
	}
	return parsed, nil
}
