// Package logfile provides an append-only log transport driver.
// Each dispatched payload becomes one JSON record appended to a file,
// which makes it a cheap local stand-in for a real transport during
// development.
package logfile

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/dmitrymomot/courier"
)

// record is the JSON line appended per dispatch.
type record struct {
	Time        time.Time `json:"time"`
	ID          string    `json:"id"`
	Destination string    `json:"destination"`
	Subject     string    `json:"subject,omitempty"`
	Size        int       `json:"size"`
}

// Driver appends one JSON record per payload to a log file.
type Driver struct {
	path string
	mu   sync.Mutex
}

// New creates a logfile driver appending to path.
func New(path string) *Driver {
	return &Driver{path: path}
}

// Factory builds the driver from configuration.
// Required: location.
func Factory(cfg courier.DriverConfig) (courier.Driver, error) {
	if err := cfg.Require("location"); err != nil {
		return nil, err
	}
	location, _ := cfg.String("location")
	return New(location), nil
}

// Execute appends the payload record. Appends are serialized so
// concurrent dispatches never interleave within a line.
func (d *Driver) Execute(ctx context.Context, p *courier.Payload) (*courier.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	line, err := json.Marshal(record{
		Time:        time.Now().UTC(),
		ID:          p.ID,
		Destination: p.Destination,
		Subject:     p.Subject,
		Size:        len(p.Body),
	})
	if err != nil {
		return nil, fmt.Errorf("logfile: encode record: %w", err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	f, err := os.OpenFile(d.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("logfile: open log: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(append(line, '\n')); err != nil {
		return nil, fmt.Errorf("logfile: append record: %w", err)
	}

	return &courier.Result{Status: courier.StatusSuccess, Reference: d.path}, nil
}

var _ courier.Driver = (*Driver)(nil)
