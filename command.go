package courier

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"path"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
)

// commandState tracks the builder's lifecycle:
// Created -> Configuring (repeatable) -> Executed | Failed.
// There is no way back from a terminal state.
type commandState int

const (
	stateConfiguring commandState = iota
	stateExecuted
	stateFailed
)

// DefaultDispatchTimeout bounds a driver's Execute call unless
// overridden with Timeout. Drivers may block on network or disk I/O;
// the bound guarantees Dispatch eventually returns.
const DefaultDispatchTimeout = 30 * time.Second

// Command is a single-use fluent builder. Configuration calls return
// the same builder; Dispatch freezes the accumulated state into a
// Payload and hands it to the driver bound at creation.
//
// Each configuration call validates its argument immediately. The
// first violation moves the builder into a terminal failed state and
// is surfaced by Dispatch; later calls become no-ops.
//
// A Command is owned by a single operation and must not be shared
// across goroutines.
type Command struct {
	driver       Driver
	log          *slog.Logger
	err          error
	templateData map[string]any
	driverName   string
	destination  string
	subject      string
	name         string
	prefix       string
	contentType  string
	templateRef  string
	allow        []string
	body         []byte
	timeout      time.Duration
	state        commandState
	dispatched   bool
}

func newCommand(d Driver, name string, log *slog.Logger, timeout time.Duration) *Command {
	return &Command{
		driver:     d,
		driverName: name,
		log:        log,
		timeout:    timeout,
	}
}

// fail records the first validation error and moves the builder into
// the failed state.
func (c *Command) fail(err error) *Command {
	if c.state == stateConfiguring {
		c.err = err
		c.state = stateFailed
	}
	return c
}

func (c *Command) configuring() bool {
	return c.state == stateConfiguring
}

// To sets the recipient or destination of the payload. For transport
// drivers this is an address; for storage drivers it becomes the
// target path segment.
func (c *Command) To(dest string) *Command {
	if !c.configuring() {
		return c
	}
	if strings.TrimSpace(dest) == "" {
		return c.fail(fmt.Errorf("%w: destination must not be empty", ErrInvalidArgument))
	}
	c.destination = dest
	return c
}

// Subject sets the payload subject line.
func (c *Command) Subject(subject string) *Command {
	if !c.configuring() {
		return c
	}
	c.subject = subject
	return c
}

// Body sets the raw payload content.
func (c *Command) Body(body []byte) *Command {
	if !c.configuring() {
		return c
	}
	if len(body) == 0 {
		return c.fail(fmt.Errorf("%w: body must not be empty", ErrInvalidArgument))
	}
	c.body = body
	return c
}

// Content sets the payload content from a string.
func (c *Command) Content(content string) *Command {
	return c.Body([]byte(content))
}

// Name sets the base identity of the payload, typically a filename.
// When no name is set, Dispatch generates a UUID instead.
func (c *Command) Name(name string) *Command {
	if !c.configuring() {
		return c
	}
	if strings.TrimSpace(name) == "" || strings.ContainsAny(name, "/\\") {
		return c.fail(fmt.Errorf("%w: invalid name %q", ErrInvalidArgument, name))
	}
	c.name = name
	return c
}

// Prefix prepends a string to the payload identity immediately before
// dispatch. The transform is pure: the same prefix and base name
// always produce the same identifier.
func (c *Command) Prefix(prefix string) *Command {
	if !c.configuring() {
		return c
	}
	if strings.ContainsAny(prefix, "/\\") {
		return c.fail(fmt.Errorf("%w: invalid prefix %q", ErrInvalidArgument, prefix))
	}
	c.prefix = prefix
	return c
}

// ContentType overrides the content type derived from the payload name.
func (c *Command) ContentType(ct string) *Command {
	if !c.configuring() {
		return c
	}
	if strings.TrimSpace(ct) == "" {
		return c.fail(fmt.Errorf("%w: content type must not be empty", ErrInvalidArgument))
	}
	c.contentType = ct
	return c
}

// AllowTypes restricts the acceptable file-type extensions for the
// payload. Entries are matched against the extension of the payload
// name, case-insensitively and with or without a leading dot.
func (c *Command) AllowTypes(exts ...string) *Command {
	if !c.configuring() {
		return c
	}
	if len(exts) == 0 {
		return c.fail(fmt.Errorf("%w: allowlist must not be empty", ErrInvalidArgument))
	}
	for _, ext := range exts {
		if strings.TrimSpace(ext) == "" {
			return c.fail(fmt.Errorf("%w: allowlist entries must not be empty", ErrInvalidArgument))
		}
		c.allow = append(c.allow, strings.ToLower(strings.TrimPrefix(ext, ".")))
	}
	return c
}

// Template sets a template reference and its data. Rendering is the
// driver's concern; the core only carries the reference through.
func (c *Command) Template(ref string, data map[string]any) *Command {
	if !c.configuring() {
		return c
	}
	if strings.TrimSpace(ref) == "" {
		return c.fail(fmt.Errorf("%w: template reference must not be empty", ErrInvalidArgument))
	}
	c.templateRef = ref
	c.templateData = data
	return c
}

// Timeout overrides the default bound on the driver call.
func (c *Command) Timeout(d time.Duration) *Command {
	if !c.configuring() {
		return c
	}
	if d <= 0 {
		return c.fail(fmt.Errorf("%w: timeout must be positive", ErrInvalidArgument))
	}
	c.timeout = d
	return c
}

// Err reports the first recorded configuration error, if any.
func (c *Command) Err() error {
	return c.err
}

// DriverName reports the name of the driver the command is bound to.
func (c *Command) DriverName() string {
	return c.driverName
}

// Dispatch freezes the accumulated state into a Payload and executes
// it against the driver bound at creation. A command is single-use:
// a second call fails with ErrAlreadyExecuted without reaching the
// driver. Validation failures are returned before the driver is
// invoked, so a rejected payload has no partial side effects.
func (c *Command) Dispatch(ctx context.Context) (*Result, error) {
	if c.dispatched {
		return nil, ErrAlreadyExecuted
	}
	c.dispatched = true

	if c.err != nil {
		return nil, c.err
	}

	if c.destination == "" {
		c.state = stateFailed
		return nil, ErrNoDestination
	}
	if len(c.body) == 0 && c.templateRef == "" {
		c.state = stateFailed
		return nil, ErrNoContent
	}

	name := c.name
	if name == "" {
		name = uuid.NewString()
	}

	if len(c.allow) > 0 {
		ext := strings.ToLower(strings.TrimPrefix(path.Ext(name), "."))
		if !slices.Contains(c.allow, ext) {
			c.state = stateFailed
			return nil, fmt.Errorf("%w: %q", ErrUnsupportedType, ext)
		}
	}

	contentType := c.contentType
	if contentType == "" {
		contentType = mime.TypeByExtension(path.Ext(name))
	}

	p := &Payload{
		ID:           c.prefix + name,
		Destination:  c.destination,
		Subject:      c.subject,
		ContentType:  contentType,
		TemplateRef:  c.templateRef,
		TemplateData: c.templateData,
		Body:         c.body,
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	result, err := c.driver.Execute(ctx, p)
	if err != nil {
		c.state = stateFailed
		c.log.ErrorContext(ctx, "dispatch failed",
			"driver", c.driverName, "id", p.ID, "error", err)
		return nil, errors.Join(ErrDispatchFailed, err)
	}

	c.state = stateExecuted
	c.log.DebugContext(ctx, "payload dispatched",
		"driver", c.driverName, "id", p.ID, "reference", result.Reference)

	return result, nil
}
