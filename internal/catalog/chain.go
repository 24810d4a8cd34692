package catalog

import (
	"context"
	"errors"

	"github.com/yetanothergithubaccount/DSObest/internal/logging"
)

// ObjectStore persists resolved objects.
type ObjectStore interface {
	LoadObject(ctx context.Context, name string) (Object, error) // ErrNotFound if absent
	SaveObject(ctx context.Context, obj Object) error
}

// StoreResolver answers from a local ObjectStore only.
type StoreResolver struct {
	store ObjectStore
}

// NewStoreResolver creates a resolver over store.
func NewStoreResolver(store ObjectStore) *StoreResolver {
	return &StoreResolver{store: store}
}

// Resolve implements Resolver.
func (r *StoreResolver) Resolve(ctx context.Context, name string) (Object, error) {
	obj, err := r.store.LoadObject(ctx, NormalizeName(name))
	if err != nil {
		return Object{}, err
	}
	obj.Source = "cache"
	return obj, nil
}

// Chain tries the cache first and falls back to the network resolver,
// writing fresh answers back to the store.
type Chain struct {
	cache *StoreResolver
	next  Resolver
	log   *logging.Logger
}

// NewChain creates a write-through resolver. A nil store disables caching.
func NewChain(store ObjectStore, next Resolver, log *logging.Logger) *Chain {
	if log == nil {
		log = logging.Discard()
	}
	c := &Chain{next: next, log: log}
	if store != nil {
		c.cache = NewStoreResolver(store)
	}
	return c
}

// Resolve implements Resolver.
func (c *Chain) Resolve(ctx context.Context, name string) (Object, error) {
	name = NormalizeName(name)

	if c.cache != nil {
		obj, err := c.cache.Resolve(ctx, name)
		if err == nil {
			c.log.Debug("%s resolved from cache", name)
			return obj, nil
		}
		if !errors.Is(err, ErrNotFound) {
			c.log.Warn("cache lookup %s: %v", name, err)
		}
	}

	obj, err := c.next.Resolve(ctx, name)
	if err != nil {
		var re *ResolutionError
		if errors.As(err, &re) {
			return Object{}, err
		}
		return Object{}, &ResolutionError{Name: name, Err: err}
	}

	if c.cache != nil {
		if err := c.cache.store.SaveObject(ctx, obj); err != nil {
			c.log.Warn("cache store %s: %v", name, err)
		}
	}
	return obj, nil
}
