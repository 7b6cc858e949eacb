// Package redis provides a queue transport driver that pushes
// JSON-encoded payloads onto a Redis list for later consumption.
package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/courier"
)

// DefaultQueue is the list payloads are pushed to when no queue is
// configured.
const DefaultQueue = "courier:outbox"

// Driver pushes payloads onto a Redis list.
type Driver struct {
	client redis.UniversalClient
	queue  string
}

// New creates a redis driver on an existing client.
func New(client redis.UniversalClient, queue string) *Driver {
	if queue == "" {
		queue = DefaultQueue
	}
	return &Driver{client: client, queue: queue}
}

// Factory builds the driver from configuration.
// Required: url (redis:// or rediss:// scheme). Optional: queue.
// The connection is established lazily on first dispatch.
func Factory(cfg courier.DriverConfig) (courier.Driver, error) {
	if err := cfg.Require("url"); err != nil {
		return nil, err
	}
	url, _ := cfg.String("url")

	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", courier.ErrInvalidConfig, "url", err)
	}

	queue, _ := cfg.String("queue")
	return New(redis.NewClient(opts), queue), nil
}

// Execute LPUSHes the JSON-encoded payload onto the queue.
func (d *Driver) Execute(ctx context.Context, p *courier.Payload) (*courier.Result, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("redis: encode payload: %w", err)
	}

	if err := d.client.LPush(ctx, d.queue, data).Err(); err != nil {
		return nil, fmt.Errorf("redis: push payload: %w", err)
	}

	return &courier.Result{
		Status:    courier.StatusSuccess,
		Reference: d.queue + "/" + p.ID,
	}, nil
}

// Queue reports the list name payloads are pushed to.
func (d *Driver) Queue() string {
	return d.queue
}

// Close releases the underlying client.
func (d *Driver) Close() error {
	return d.client.Close()
}

var _ courier.Driver = (*Driver)(nil)
