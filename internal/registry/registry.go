// Package registry caches authenticated platform clients per
// (tenant, platform) key. Concurrent cache misses for one key collapse to
// a single credential fetch + authenticate.
package registry

import (
	"context"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/psds-microservice/broadcast-service/internal/connection"
	"github.com/psds-microservice/broadcast-service/internal/model"
	"github.com/psds-microservice/broadcast-service/internal/platform"
)

// ClientFactory builds unauthenticated vendor clients.
type ClientFactory interface {
	New(p model.Platform) (platform.Client, error)
}

// Registry caches authenticated clients.
type Registry struct {
	store   connection.Store
	factory ClientFactory
	log     *zap.Logger

	mu      sync.RWMutex
	clients map[string]platform.Client
	group   singleflight.Group
}

// New creates a registry backed by the connection store.
func New(store connection.Store, factory ClientFactory, log *zap.Logger) *Registry {
	return &Registry{
		store:   store,
		factory: factory,
		log:     log,
		clients: make(map[string]platform.Client),
	}
}

func cacheKey(tenantID string, p model.Platform) string {
	return tenantID + ":" + string(p)
}

// Get returns a cached authenticated client or builds one: decrypt
// credentials, construct the vendor client, authenticate, cache.
// Authentication-on-miss is deduplicated per key: concurrent callers for
// the same (tenant, platform) share one attempt.
func (r *Registry) Get(ctx context.Context, tenantID string, p model.Platform) (platform.Client, error) {
	key := cacheKey(tenantID, p)

	r.mu.RLock()
	client, ok := r.clients[key]
	r.mu.RUnlock()
	if ok {
		return client, nil
	}

	v, err, _ := r.group.Do(key, func() (interface{}, error) {
		// A concurrent caller may have populated the cache between the
		// fast path and the flight.
		r.mu.RLock()
		cached, ok := r.clients[key]
		r.mu.RUnlock()
		if ok {
			return cached, nil
		}

		creds, err := r.store.DecryptedCredentials(ctx, tenantID, p)
		if err != nil {
			return nil, err
		}
		built, err := r.factory.New(p)
		if err != nil {
			return nil, err
		}
		if err := built.Authenticate(ctx, creds); err != nil {
			return nil, err
		}

		r.mu.Lock()
		r.clients[key] = built
		r.mu.Unlock()

		r.log.Info("platform client authenticated",
			zap.String("tenant_id", tenantID),
			zap.String("platform", string(p)))
		return built, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(platform.Client), nil
}

// Clear drops one cached client (after disconnect or credential rotation).
func (r *Registry) Clear(tenantID string, p model.Platform) {
	r.mu.Lock()
	delete(r.clients, cacheKey(tenantID, p))
	r.mu.Unlock()
}

// ClearTenant drops every cached client for a tenant.
func (r *Registry) ClearTenant(tenantID string) {
	prefix := tenantID + ":"
	r.mu.Lock()
	for key := range r.clients {
		if strings.HasPrefix(key, prefix) {
			delete(r.clients, key)
		}
	}
	r.mu.Unlock()
}
