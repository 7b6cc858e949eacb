package courier

import (
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"
)

// Manager is the top-level entry point. It resolves named drivers
// through its registry and tracks the active driver for zero-argument
// command creation. The active name is guarded by a read-write mutex;
// commands bind their driver at creation time, so switching later
// never affects builders already handed out.
type Manager struct {
	registry *Registry
	log      *slog.Logger
	active   string
	timeout  time.Duration
	mu       sync.RWMutex
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger used for dispatch outcomes.
// Defaults to a logger that discards all output.
func WithLogger(log *slog.Logger) Option {
	return func(m *Manager) {
		if log != nil {
			m.log = log
		}
	}
}

// WithDispatchTimeout overrides the default bound on driver calls for
// commands created by this manager.
func WithDispatchTimeout(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.timeout = d
		}
	}
}

// New builds a registry from cfg and returns a manager with the
// configured default driver active. The factories map binds backend
// kinds (the reserved "driver" config key) to their factories.
func New(cfg Config, factories map[string]Factory, opts ...Option) (*Manager, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	registry, err := NewRegistryFromConfig(cfg, factories)
	if err != nil {
		return nil, err
	}
	return NewManager(registry, cfg.Default, opts...)
}

// NewManager creates a manager on an existing registry with the given
// default driver name.
func NewManager(registry *Registry, defaultDriver string, opts ...Option) (*Manager, error) {
	if defaultDriver == "" {
		return nil, fmt.Errorf("%w: default driver is not set", ErrInvalidConfig)
	}

	m := &Manager{
		registry: registry,
		log:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		active:   defaultDriver,
		timeout:  DefaultDispatchTimeout,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Driver switches the active driver to name and returns a command
// builder bound to the newly resolved driver. Repeated calls are safe
// and always re-resolve through the registry; a failed resolution
// leaves the active driver unchanged.
func (m *Manager) Driver(name string) (*Command, error) {
	d, err := m.registry.Resolve(name)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.active = name
	m.mu.Unlock()

	return newCommand(d, name, m.log, m.timeout), nil
}

// Command returns a builder bound to the currently active driver,
// the configured default if Driver was never called.
func (m *Manager) Command() (*Command, error) {
	m.mu.RLock()
	name := m.active
	m.mu.RUnlock()

	d, err := m.registry.Resolve(name)
	if err != nil {
		return nil, err
	}
	return newCommand(d, name, m.log, m.timeout), nil
}

// ActiveDriver reports the name of the currently active driver.
func (m *Manager) ActiveDriver() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.active
}

// Registry exposes the underlying registry, e.g. to register
// additional drivers after construction.
func (m *Manager) Registry() *Registry {
	return m.registry
}
