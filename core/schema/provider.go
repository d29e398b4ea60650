package schema

import (
	"context"
	"strings"
	"time"

	"github.com/dgraph-io/ristretto"

	"github.com/adalundhe/strata/core/cache"
)

const (
	defaultContextTTL  = 10 * time.Minute
	contextNumCounters = 1e5
	contextMaxCost     = 1e7
	contextBufferItems = 64
)

// CachedProvider serves schema context blobs, caching per normalized request
// so repeated questions about the same tables skip introspection.
type CachedProvider struct {
	inspector *Inspector
	cache     *ristretto.Cache
	keys      *cache.KeyGenerator
	ttl       time.Duration
}

// NewCachedProvider wraps an Inspector with a context cache.
func NewCachedProvider(inspector *Inspector, ttl time.Duration) (*CachedProvider, error) {
	if ttl <= 0 {
		ttl = defaultContextTTL
	}

	c, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: contextNumCounters,
		MaxCost:     contextMaxCost,
		BufferItems: contextBufferItems,
	})
	if err != nil {
		return nil, err
	}

	return &CachedProvider{
		inspector: inspector,
		cache:     c,
		keys:      cache.NewKeyGenerator("schema"),
		ttl:       ttl,
	}, nil
}

// RelevantContext returns the schema blob for the request, filtered to the
// tables the question appears to mention. When no table name matches, the
// full summary is returned so resolution never starves for context.
func (p *CachedProvider) RelevantContext(ctx context.Context, normalized string) (string, error) {
	key := p.keys.Generate(normalized)
	if value, found := p.cache.Get(key); found {
		if blob, ok := value.(string); ok {
			return blob, nil
		}
	}

	summary, err := p.inspector.Summary(ctx)
	if err != nil {
		return "", err
	}

	relevant := filterSummary(summary, normalized)
	p.cache.SetWithTTL(key, relevant, int64(len(relevant)), p.ttl)

	return relevant, nil
}

// Wait blocks until pending cache writes are visible. Test helper.
func (p *CachedProvider) Wait() {
	p.cache.Wait()
}

// Close releases the cache.
func (p *CachedProvider) Close() {
	p.cache.Close()
}

// filterSummary keeps the table lines whose names occur in the request text,
// matching plural forms loosely. An empty filter result keeps everything.
func filterSummary(summary, normalized string) string {
	if summary == "" {
		return summary
	}

	lines := strings.Split(summary, "\n")
	var kept []string
	for _, line := range lines {
		if tableMentioned(line, normalized) {
			kept = append(kept, line)
		}
	}

	if len(kept) == 0 {
		return summary
	}
	return strings.Join(kept, "\n")
}

func tableMentioned(line, normalized string) bool {
	fields := strings.Fields(line)
	if len(fields) < 2 || fields[0] != "TABLE" {
		return false
	}

	name := strings.ToLower(fields[1])
	if strings.Contains(normalized, name) {
		return true
	}
	singular := strings.TrimSuffix(name, "s")
	return singular != "" && strings.Contains(normalized, singular)
}
