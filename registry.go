package courier

import (
	"fmt"
	"slices"
	"sync"

	"golang.org/x/sync/singleflight"
)

// registration pairs a driver's configuration with its factory.
type registration struct {
	factory Factory
	config  DriverConfig
}

// Registry holds named driver configurations and lazily instantiates
// driver implementations. Instances are cached per name for the
// process lifetime; drivers are treated as stateless services keyed
// by configuration.
type Registry struct {
	factories map[string]registration
	instances map[string]Driver
	group     singleflight.Group
	mu        sync.RWMutex
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]registration),
		instances: make(map[string]Driver),
	}
}

// NewRegistryFromConfig registers every configured driver, selecting
// its factory by the reserved "driver" kind key (falling back to the
// entry's own name). Returns ErrUnknownDriver for a kind no factory
// was supplied for.
func NewRegistryFromConfig(cfg Config, factories map[string]Factory) (*Registry, error) {
	registry := NewRegistry()
	for name, dc := range cfg.Drivers {
		kind := dc.Kind()
		if kind == "" {
			kind = name
		}
		factory, ok := factories[kind]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, kind)
		}
		registry.Register(name, dc, factory)
	}
	return registry, nil
}

// Register binds a driver name to its configuration and factory.
// Re-registering a name drops any cached instance.
func (r *Registry) Register(name string, cfg DriverConfig, factory Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = registration{factory: factory, config: cfg}
	delete(r.instances, name)
}

// Resolve returns the driver instance for name, building it on first
// use. Concurrent first resolutions of the same name are deduplicated
// so the factory runs exactly once; later calls read the cached
// instance without blocking.
func (r *Registry) Resolve(name string) (Driver, error) {
	r.mu.RLock()
	if d, ok := r.instances[name]; ok {
		r.mu.RUnlock()
		return d, nil
	}
	reg, ok := r.factories[name]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, name)
	}

	v, err, _ := r.group.Do(name, func() (any, error) {
		// Another caller may have finished first.
		r.mu.RLock()
		d, ok := r.instances[name]
		r.mu.RUnlock()
		if ok {
			return d, nil
		}

		d, err := reg.factory(reg.config)
		if err != nil {
			return nil, err
		}

		r.mu.Lock()
		r.instances[name] = d
		r.mu.Unlock()

		return d, nil
	})
	if err != nil {
		return nil, err
	}

	return v.(Driver), nil
}

// Names returns the registered driver names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
