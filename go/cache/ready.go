package cache

import (
	"context"

	log "github.com/sirupsen/logrus"
)

// ReadySignal is the boundary hook the host invokes once wiring is
// complete. Its sole duty is to force cache initialization before any
// reader traffic is released.
type ReadySignal struct {
	Cache *Cache
}

// Ready initializes the cache if it isn't already. The decision is
// logged at INFO either way.
func (s ReadySignal) Ready(ctx context.Context) error {
	if s.Cache.IsInitialized() {
		log.Info("recall cache already initialized; ready signal is a no-op")
		return nil
	}
	log.Info("ready signal received; initializing recall cache")

	if err := s.Cache.Initialize(ctx); err != nil {
		return err
	}
	log.Info("recall cache initialized; releasing reader traffic")
	return nil
}
