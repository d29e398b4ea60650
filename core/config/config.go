// Package config loads, layers, and hot-reloads the process configuration.
// Defaults come first, a YAML file overrides them, and a small set of
// environment variables override the file.
package config

import (
	"fmt"
	"os"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/adalundhe/strata/core/cache"
	"github.com/adalundhe/strata/core/classifier"
	"github.com/adalundhe/strata/core/database"
	"github.com/adalundhe/strata/core/executor"
	"github.com/adalundhe/strata/core/orchestrator"
	"github.com/adalundhe/strata/core/providers"
	"github.com/adalundhe/strata/core/router"
)

const defaultSchemaTTL = 10 * time.Minute

// Config is the full process configuration.
type Config struct {
	Cache      cache.Config                        `yaml:"cache"`
	Classifier classifier.Config                   `yaml:"classifier"`
	Router     router.Config                       `yaml:"router"`
	Executor   executor.Config                     `yaml:"executor"`
	Pipeline   orchestrator.Config                 `yaml:"pipeline"`
	Resources  map[string]providers.ResourceConfig `yaml:"resources"`
	Database   database.Config                     `yaml:"database"`
	Schema     SchemaConfig                        `yaml:"schema"`
	Logging    LoggingConfig                       `yaml:"logging"`
}

// SchemaConfig bounds the schema context provider.
type SchemaConfig struct {
	TTL time.Duration `yaml:"ttl"`
}

// LoggingConfig selects log verbosity and output shape.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// DefaultConfig returns the runnable zero-file configuration. The resource
// map is populated from the environment so a fresh install works with
// nothing but API keys exported.
func DefaultConfig() *Config {
	return &Config{
		Cache:      *cache.DefaultConfig(),
		Classifier: *classifier.DefaultConfig(),
		Router:     *router.DefaultConfig(),
		Executor:   *executor.DefaultConfig(),
		Pipeline:   *orchestrator.DefaultConfig(),
		Resources: map[string]providers.ResourceConfig{
			"fast": {
				Provider: "openai",
			},
			"powerful": {
				Provider: "anthropic",
			},
		},
		Database: *database.DefaultConfig(),
		Schema:   SchemaConfig{TTL: defaultSchemaTTL},
		Logging:  LoggingConfig{Level: "info", Format: "text"},
	}
}

// Manager owns the live configuration. Readers call Get for a consistent
// snapshot; Load and Reload swap the whole config atomically and notify
// registered watchers.
type Manager struct {
	current   atomic.Pointer[Config]
	path      string
	watchers  []func(*Config)
	watcherMu sync.RWMutex
}

// NewManager creates a Manager seeded with defaults. The path may be empty
// when running purely from defaults and environment.
func NewManager(path string) *Manager {
	m := &Manager{path: path}
	m.current.Store(DefaultConfig())
	return m
}

// Get returns the current configuration snapshot.
func (m *Manager) Get() *Config {
	return m.current.Load()
}

// Path returns the config file path the manager watches; empty when running
// from defaults only.
func (m *Manager) Path() string {
	return m.path
}

// Load builds a fresh config from defaults, file, and environment, then
// publishes it.
func (m *Manager) Load() error {
	cfg := DefaultConfig()

	if err := m.loadFile(cfg); err != nil {
		return fmt.Errorf("config file %s: %w", m.path, err)
	}

	applyEnvironment(cfg)

	m.current.Store(cfg)
	m.notifyWatchers(cfg)

	return nil
}

// Reload re-runs the full load pipeline. Used by the file watcher.
func (m *Manager) Reload() error {
	return m.Load()
}

// OnChange registers a callback invoked with each newly published config.
func (m *Manager) OnChange(fn func(*Config)) {
	m.watcherMu.Lock()
	m.watchers = append(m.watchers, fn)
	m.watcherMu.Unlock()
}

func (m *Manager) notifyWatchers(cfg *Config) {
	m.watcherMu.RLock()
	watchers := m.watchers
	m.watcherMu.RUnlock()

	for _, fn := range watchers {
		fn(cfg)
	}
}

func (m *Manager) loadFile(cfg *Config) error {
	if m.path == "" {
		return nil
	}

	data, err := os.ReadFile(m.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}

	return yaml.Unmarshal(data, cfg)
}

func applyEnvironment(cfg *Config) {
	if v := os.Getenv("STRATA_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}
	if v := os.Getenv("STRATA_MAX_ATTEMPTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Executor.MaxAttempts = n
		}
	}
	if v := os.Getenv("STRATA_INVOKE_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Pipeline.InvokeTimeout = d
		}
	}
	if v := os.Getenv("STRATA_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}

	applyResourceKeys(cfg)
}

// applyResourceKeys fills missing API keys from the providers' conventional
// environment variables.
func applyResourceKeys(cfg *Config) {
	for name, resource := range cfg.Resources {
		if resource.APIKey != "" {
			continue
		}
		switch resource.Provider {
		case "anthropic":
			resource.APIKey = os.Getenv("ANTHROPIC_API_KEY")
		case "openai":
			resource.APIKey = os.Getenv("OPENAI_API_KEY")
		}
		cfg.Resources[name] = resource
	}
}
