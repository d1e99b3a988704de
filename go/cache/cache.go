// Package cache holds the authoritative in-memory recall state: the
// ticket and order maps rebuilt by recovery, guarded against concurrent
// reader traffic, and gated behind a one-shot initialization barrier.
package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/tradewind/recall/go/recall"
)

// ErrNotInitialized is returned by reads which arrive before the
// initialization barrier opens. Readers gated by the ready signal
// should never observe it.
var ErrNotInitialized = errors.New("recall cache is not initialized")

// Recoverer populates the cache from the transaction log. It's run
// exactly once, by Initialize.
type Recoverer interface {
	Recover(ctx context.Context, c *Cache) error
}

// Cache is the process-wide recall state store. Construct it with New
// and pass it explicitly to collaborators; it is deliberately not an
// ambient singleton.
type Cache struct {
	mu      sync.RWMutex
	tickets map[string]*recall.Ticket
	orders  map[string]*recall.Order

	initMu      sync.Mutex
	initialized atomic.Bool
	recoverer   Recoverer
}

func New(r Recoverer) *Cache {
	return &Cache{
		tickets:   make(map[string]*recall.Ticket),
		orders:    make(map[string]*recall.Order),
		recoverer: r,
	}
}

// Initialize runs the recovery pass and opens the read barrier. It is
// idempotent and serialized: concurrent callers observe one execution,
// later callers a no-op. On failure the cache stays uninitialized and
// a subsequent call may retry.
func (c *Cache) Initialize(ctx context.Context) error {
	c.initMu.Lock()
	defer c.initMu.Unlock()

	if c.initialized.Load() {
		return nil
	}
	if c.recoverer != nil {
		if err := c.recoverer.Recover(ctx, c); err != nil {
			return err
		}
	}
	c.initialized.Store(true)
	return nil
}

// IsInitialized reports whether Initialize has run to completion.
func (c *Cache) IsInitialized() bool { return c.initialized.Load() }

// UpdateRecallTicket stores |ticket| under |id|. During recovery it's
// called only by the driver; afterwards live traffic may call freely.
func (c *Cache) UpdateRecallTicket(id string, ticket *recall.Ticket) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tickets[id] = ticket
}

// UpdateOrder stores |order| under |id|.
func (c *Cache) UpdateOrder(id string, order *recall.Order) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.orders[id] = order
}

// RecallTicket returns the ticket under |id|.
func (c *Cache) RecallTicket(id string) (*recall.Ticket, error) {
	if !c.initialized.Load() {
		return nil, ErrNotInitialized
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.tickets[id], nil
}

// Order returns the order under |id|.
func (c *Cache) Order(id string) (*recall.Order, error) {
	if !c.initialized.Load() {
		return nil, ErrNotInitialized
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.orders[id], nil
}

// Sizes returns the current ticket and order map sizes. It's not
// gated: the recovery summary logs sizes before readers are released.
func (c *Cache) Sizes() (tickets, orders int) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.tickets), len(c.orders)
}
