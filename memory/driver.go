// Package memory provides an in-memory transport driver that records
// every executed payload. It is the natural backend for tests: it
// doubles as a spy for asserting that a dispatch did (or did not)
// reach the driver.
package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/dmitrymomot/courier"
)

// Driver records executed payloads in memory.
type Driver struct {
	err      error
	executed []courier.Payload
	mu       sync.Mutex
}

// New creates an empty in-memory driver.
func New() *Driver {
	return &Driver{}
}

// Factory builds the driver; the in-memory backend needs no
// configuration.
func Factory(_ courier.DriverConfig) (courier.Driver, error) {
	return New(), nil
}

// Execute records a copy of the payload.
func (d *Driver) Execute(_ context.Context, p *courier.Payload) (*courier.Result, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.err != nil {
		return nil, d.err
	}

	d.executed = append(d.executed, *p)
	return &courier.Result{
		Status:    courier.StatusSuccess,
		Reference: "memory://" + p.ID,
	}, nil
}

// FailWith makes every subsequent Execute return err.
// Pass nil to restore normal behavior.
func (d *Driver) FailWith(err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.err = err
}

// Executed returns a copy of the recorded payloads in dispatch order.
func (d *Driver) Executed() []courier.Payload {
	d.mu.Lock()
	defer d.mu.Unlock()
	return slices.Clone(d.executed)
}

// Len reports how many payloads were executed.
func (d *Driver) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.executed)
}

// Reset discards recorded payloads and any injected failure.
func (d *Driver) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.executed = nil
	d.err = nil
}

var _ courier.Driver = (*Driver)(nil)
