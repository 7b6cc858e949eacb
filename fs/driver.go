// Package fs provides a filesystem transport driver that writes
// payload bodies to a directory on local disk.
package fs

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/dmitrymomot/courier"
)

// Driver writes payload bodies under a root directory.
type Driver struct {
	root string
}

// New creates a filesystem driver rooted at dir.
func New(dir string) *Driver {
	return &Driver{root: dir}
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

// Execute writes the payload body to {location}/{destination}/{id}.
// The destination and identity are sanitized so a crafted payload
// cannot escape the root directory.
func (d *Driver) Execute(ctx context.Context, p *courier.Payload) (*courier.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	parts := []string{d.root}
	if p.Destination != "" {
		parts = append(parts, sanitizeSegment(p.Destination))
	}
	parts = append(parts, sanitizeSegment(p.ID))
	target := filepath.Join(parts...)

	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return nil, fmt.Errorf("fs: create directory: %w", err)
	}
	if err := os.WriteFile(target, p.Body, 0o644); err != nil {
		return nil, fmt.Errorf("fs: write file: %w", err)
	}

	abs, err := filepath.Abs(target)
	if err != nil {
		abs = target
	}

	return &courier.Result{Status: courier.StatusSuccess, Reference: abs}, nil
}

// segmentRegex matches characters that are not safe in path segments.
var segmentRegex = regexp.MustCompile(`[^a-zA-Z0-9\-_.]`)

// sanitizeSegment removes traversal attempts and unsafe characters
// from a path segment.
func sanitizeSegment(segment string) string {
	segment = strings.Trim(segment, " /\\")
	segment = strings.ReplaceAll(segment, "..", "")
	return segmentRegex.ReplaceAllString(segment, "_")
}

var _ courier.Driver = (*Driver)(nil)
