package courier

import "context"

// Driver is a swappable delivery backend selected by name. Each
// implementation provides one capability (send, store, persist)
// behind the same entry point.
type Driver interface {
	// Execute delivers the frozen payload and returns a reference to
	// where it ended up. Implementations may block on network or disk
	// I/O but must honor ctx cancellation.
	Execute(ctx context.Context, p *Payload) (*Result, error)
}

// Factory builds a driver instance from its configuration.
// Required configuration keys are validated here, at resolution time,
// so a misconfigured driver fails before any payload reaches it.
type Factory func(cfg DriverConfig) (Driver, error)

// Payload is the frozen set of parameters passed to a driver.
// It is assembled by a Command at dispatch time and never mutated
// afterwards.
type Payload struct {
	TemplateData map[string]any
	ID           string // identity after the prefix transform (e.g. "user_avatar.png")
	Destination  string // recipient address or target path segment
	Subject      string
	ContentType  string
	TemplateRef  string
	Body         []byte
}

// Status reported in a Result.
type Status string

// StatusSuccess is the only status a driver reports; failures are
// returned as errors, never as a status value.
const StatusSuccess Status = "success"

// Result describes a completed dispatch.
type Result struct {
	Status    Status
	Reference string // location or provider reference for the delivered payload
}
