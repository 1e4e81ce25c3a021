package providers

import (
	"log"
	"sync"
)

// Resolver decides whether the primary satellite-atlas provider is usable.
// The client is initialized lazily: the first caller attempts construction
// under the lock, a success is cached for the process lifetime, and a failure
// leaves the resolver in the unavailable state so later requests re-attempt.
type Resolver struct {
	mu      sync.Mutex
	initFn  func() (RasterQuerier, error)
	client  RasterQuerier
	onState func(available bool)
}

// NewResolver wraps a client constructor. onState, if non-nil, is notified
// after every availability evaluation (used for the availability gauge).
func NewResolver(initFn func() (RasterQuerier, error), onState func(available bool)) *Resolver {
	return &Resolver{initFn: initFn, onState: onState}
}

// Client returns the primary raster client if it is (or becomes) available.
// Safe under concurrent first-use: the lock serializes initialization so a
// race costs at most one extra blocked caller, never a second client.
func (r *Resolver) Client() (RasterQuerier, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.client == nil {
		c, err := r.initFn()
		if err != nil {
			log.Printf("resolver: primary provider unavailable: %v", err)
			r.notify(false)
			return nil, false
		}
		r.client = c
		log.Printf("resolver: primary provider initialized")
	}

	r.notify(true)
	return r.client, true
}

// Available reports whether the primary provider can be used, initializing it
// on first use like Client.
func (r *Resolver) Available() bool {
	_, ok := r.Client()
	return ok
}

func (r *Resolver) notify(available bool) {
	if r.onState != nil {
		r.onState(available)
	}
}
