package cache

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"

	"github.com/platinummonkey/inkwell/pkg/observability"
)

// Default TTL tiers. Exact thresholds are policy, not protocol; the YAML
// policy file overrides them per class.
const (
	TTLShort  = 5 * time.Minute
	TTLMedium = 30 * time.Minute
	TTLLong   = 60 * time.Minute
)

// Policy maps route classes to TTLs. Safe for concurrent use; reloading
// swaps individual entries under a write lock.
type Policy struct {
	mu   sync.RWMutex
	ttls map[Class]time.Duration
}

// DefaultPolicy returns the built-in three-tier policy: frequently
// changing listings and analytics are short, single-article payloads
// medium, categories long.
func DefaultPolicy() *Policy {
	return &Policy{
		ttls: map[Class]time.Duration{
			ClassArticlesList:  TTLShort,
			ClassDashboard:     TTLShort,
			ClassTopArticles:   TTLShort,
			ClassArticleByID:   TTLMedium,
			ClassArticleBySlug: TTLMedium,
			ClassCategories:    TTLLong,
		},
	}
}

// TTL returns the TTL for a class, falling back to the short tier for
// classes the policy does not name.
func (p *Policy) TTL(class Class) time.Duration {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if ttl, ok := p.ttls[class]; ok {
		return ttl
	}
	return TTLShort
}

// SetTTL overrides the TTL for a single class.
func (p *Policy) SetTTL(class Class, ttl time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ttls[class] = ttl
}

// policyFile is the YAML layout of a policy file:
//
//	ttl:
//	  articles-list: 5m
//	  article-by-id: 30m
type policyFile struct {
	TTL map[string]string `yaml:"ttl"`
}

// LoadFile merges per-class TTL overrides from a YAML policy file.
func (p *Policy) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read policy file: %w", err)
	}

	var pf policyFile
	if err := yaml.Unmarshal(data, &pf); err != nil {
		return fmt.Errorf("failed to parse policy file: %w", err)
	}

	parsed := make(map[Class]time.Duration, len(pf.TTL))
	for class, raw := range pf.TTL {
		if _, known := keyPrefix[Class(class)]; !known {
			return fmt.Errorf("unknown cache class in policy file: %s", class)
		}
		ttl, err := time.ParseDuration(raw)
		if err != nil {
			return fmt.Errorf("invalid TTL for class %s: %w", class, err)
		}
		if ttl <= 0 {
			return fmt.Errorf("TTL for class %s must be positive", class)
		}
		parsed[Class(class)] = ttl
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	for class, ttl := range parsed {
		p.ttls[class] = ttl
	}
	return nil
}

// Watch reloads the policy file whenever it is rewritten, until the
// context is canceled. Reload failures keep the previous policy.
func (p *Policy) Watch(ctx context.Context, path string, logger *observability.Logger) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create policy watcher: %w", err)
	}

	// Watch the directory: editors and config mounts typically replace
	// the file rather than writing it in place.
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		watcher.Close()
		return fmt.Errorf("failed to watch policy directory: %w", err)
	}

	go func() {
		defer observability.RecoverPanic(logger, "cache policy watcher")
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Op&(fsnotify.Write|fsnotify.Create) == 0 || filepath.Clean(event.Name) != filepath.Clean(path) {
					continue
				}
				if err := p.LoadFile(path); err != nil {
					logger.WithError(err).Warn("Failed to reload cache policy, keeping previous policy")
					continue
				}
				logger.WithField("path", path).Info("Cache policy reloaded")
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.WithError(err).Warn("Cache policy watcher error")
			}
		}
	}()

	return nil
}
