package lifecycle

import "sync"

// Canon is the slot for the canonical coordinator. At most one coordinator
// holds it at a time. Coordinators claim it when constructed and release it at
// the end of Shutdown.
type Canon struct {
	mu     sync.Mutex
	holder string
}

// NewCanon creates an empty slot. Use one per isolated lifecycle domain; tests
// use their own so they do not contend for the process default.
func NewCanon() *Canon {
	return &Canon{}
}

var defaultCanon = NewCanon()

// DefaultCanon returns the process-wide slot used when Config.Canon is nil.
func DefaultCanon() *Canon {
	return defaultCanon
}

// Claim makes id canonical when the slot is free. Claiming a slot already held
// by id succeeds.
func (c *Canon) Claim(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.holder != "" && c.holder != id {
		return false
	}
	c.holder = id
	return true
}

// Release frees the slot when held by id. It reports whether id was the holder.
func (c *Canon) Release(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.holder != id {
		return false
	}
	c.holder = ""
	return true
}

// Holder returns the canonical coordinator ID, or "" when the slot is free.
func (c *Canon) Holder() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.holder
}
