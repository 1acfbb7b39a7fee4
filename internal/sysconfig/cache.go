// Package sysconfig holds the in-memory copy of the operator-maintained
// system configuration row. The cache is populated on every successful
// store connection and read lock-free on the hot path.
package sysconfig

import (
	"sync/atomic"

	"walletbot/internal/domain"
)

// Cache is an atomically swappable snapshot of the system configuration.
// The zero value is empty until the first Store.
type Cache struct {
	cfg atomic.Pointer[domain.SystemConfig]
}

func New() *Cache { return &Cache{} }

// Store replaces the cached snapshot.
func (c *Cache) Store(cfg domain.SystemConfig) {
	c.cfg.Store(&cfg)
}

// Load returns the current snapshot and whether one has been stored yet.
func (c *Cache) Load() (domain.SystemConfig, bool) {
	p := c.cfg.Load()
	if p == nil {
		return domain.SystemConfig{}, false
	}
	return *p, true
}

// Channel returns the configured broadcast channel, empty if unset.
func (c *Cache) Channel() string {
	if p := c.cfg.Load(); p != nil {
		return p.Channel
	}
	return ""
}

// Admins returns the configured admin contact list.
func (c *Cache) Admins() []string {
	if p := c.cfg.Load(); p != nil {
		return p.Admins
	}
	return nil
}
