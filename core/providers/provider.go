// Package providers adapts external LLM endpoints to the compute-resource
// contract the orchestrator consumes: one synchronous call per attempt,
// bounded by a caller-supplied timeout.
package providers

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// Payload is the input to one resolution attempt. Briefing carries prior
// failure context when the attempt is a retry.
type Payload struct {
	Question      string
	SchemaContext string
	Briefing      string
}

// Invoker is a named compute resource. Implementations block until the
// endpoint responds, the timeout elapses, or the context is cancelled.
type Invoker interface {
	Name() string
	Invoke(ctx context.Context, payload Payload, timeout time.Duration) (string, error)
}

// ErrUnknownResource is returned when no invoker is registered under a
// requested resource name.
var ErrUnknownResource = errors.New("unknown compute resource")

// Registry resolves opaque resource names to invokers.
type Registry struct {
	mu       sync.RWMutex
	invokers map[string]Invoker
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{invokers: make(map[string]Invoker)}
}

// Register binds an invoker to a resource name, replacing any previous
// binding.
func (r *Registry) Register(resourceName string, invoker Invoker) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.invokers[resourceName] = invoker
}

// Resolve returns the invoker bound to the resource name.
func (r *Registry) Resolve(resourceName string) (Invoker, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	invoker, ok := r.invokers[resourceName]
	if !ok {
		return nil, fmt.Errorf("%q: %w", resourceName, ErrUnknownResource)
	}
	return invoker, nil
}

// Names returns the registered resource names.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.invokers))
	for name := range r.invokers {
		names = append(names, name)
	}
	return names
}

// ResourceConfig configures one provider-backed resource.
type ResourceConfig struct {
	Provider    string  `yaml:"provider"`
	APIKey      string  `yaml:"api_key"`
	Model       string  `yaml:"model"`
	MaxTokens   int     `yaml:"max_tokens"`
	Temperature float64 `yaml:"temperature"`
	BaseURL     string  `yaml:"base_url"`
}

// Validate checks the fields every adapter requires.
func (c *ResourceConfig) Validate() error {
	if c.APIKey == "" {
		return errors.New("api key is required")
	}
	if c.Model == "" {
		return errors.New("model is required")
	}
	return nil
}

func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, timeout)
}
