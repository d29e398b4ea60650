package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/adalundhe/strata/core/cache"
	"github.com/adalundhe/strata/core/classifier"
	"github.com/adalundhe/strata/core/config"
	"github.com/adalundhe/strata/core/database"
	"github.com/adalundhe/strata/core/executor"
	"github.com/adalundhe/strata/core/fallback"
	"github.com/adalundhe/strata/core/orchestrator"
	"github.com/adalundhe/strata/core/providers"
	"github.com/adalundhe/strata/core/router"
	"github.com/adalundhe/strata/core/schema"
)

// runtime bundles the wired pipeline for one CLI invocation.
type runtime struct {
	manager *config.Manager
	orch    *orchestrator.Orchestrator
	db      *database.SQLExecutor
	schema  *schema.CachedProvider
	logger  *slog.Logger
	cancel  context.CancelFunc
}

// buildRuntime loads config and assembles the full pipeline. Resources that
// fail to construct are skipped with a warning rather than aborting: the
// pipeline degrades toward the fallback tier instead of refusing to start.
func buildRuntime() (*runtime, error) {
	manager := config.NewManager(flagConfigPath)
	if err := manager.Load(); err != nil {
		return nil, err
	}
	cfg := manager.Get()

	logger := newLogger(cfg.Logging.Level, cfg.Logging.Format)
	slog.SetDefault(logger)

	db, err := database.Open(&cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	schemaProvider, err := schema.NewCachedProvider(schema.NewInspector(db.DB()), cfg.Schema.TTL)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("schema provider: %w", err)
	}

	registry := buildRegistry(cfg, logger)

	cls := classifier.New(&cfg.Classifier)
	selector := router.New(&cfg.Router)
	summarizer := orchestrator.NewFailureSummarizer(registry, cfg.Router.FastResource)

	orch := orchestrator.New(&cfg.Pipeline, orchestrator.Deps{
		Cache:      cache.New(&cfg.Cache),
		Classifier: cls,
		Selector:   selector,
		Executor:   executor.New(&cfg.Executor, selector, summarizer, logger),
		Fallback:   fallback.New(),
		Resources:  registry,
		Data:       db,
		Context:    schemaProvider,
		Logger:     logger,
	})

	watchCtx, cancel := context.WithCancel(context.Background())

	manager.OnChange(func(next *config.Config) {
		cls.UpdateConfig(&next.Classifier)
	})
	if err := manager.Watch(watchCtx, logger); err != nil {
		logger.Warn("config watch unavailable", "error", err.Error())
	}

	return &runtime{
		manager: manager,
		orch:    orch,
		db:      db,
		schema:  schemaProvider,
		logger:  logger,
		cancel:  cancel,
	}, nil
}

func buildRegistry(cfg *config.Config, logger *slog.Logger) *providers.Registry {
	registry := providers.NewRegistry()

	for name, resource := range cfg.Resources {
		invoker, err := buildInvoker(resource)
		if err != nil {
			logger.Warn("resource unavailable",
				"resource", name,
				"provider", resource.Provider,
				"error", err.Error())
			continue
		}
		registry.Register(name, invoker)
	}

	return registry
}

func buildInvoker(resource providers.ResourceConfig) (providers.Invoker, error) {
	switch resource.Provider {
	case "anthropic":
		return providers.NewAnthropicInvoker(resource)
	case "openai":
		return providers.NewOpenAIInvoker(resource)
	default:
		return nil, fmt.Errorf("unknown provider %q", resource.Provider)
	}
}

func (r *runtime) Close() {
	r.cancel()
	r.schema.Close()
	if err := r.db.Close(); err != nil {
		r.logger.Warn("database close failed", "error", err.Error())
	}
}
