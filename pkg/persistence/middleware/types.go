// Package middleware decorates query cache tiers.
package middleware

import "github.com/aretw0/rillweb/pkg/ports"

// Middleware allows wrapping a CacheStore to add behavior.
type Middleware func(ports.CacheStore) ports.CacheStore

// Chain applies mws to store; the first one is the outermost.
func Chain(store ports.CacheStore, mws ...Middleware) ports.CacheStore {
	for i := len(mws) - 1; i >= 0; i-- {
		store = mws[i](store)
	}
	return store
}
