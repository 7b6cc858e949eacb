// Package pg provides a persistence transport driver that stores
// payloads as rows in a PostgreSQL table.
package pg

import (
	"context"
	"fmt"
	"regexp"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/courier"
)

// DefaultTable is the target table when none is configured.
const DefaultTable = "deliveries"

// identRegex matches safe SQL identifiers for the target table.
var identRegex = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// Driver persists payloads as rows in a PostgreSQL table.
//
// Expected schema:
//
//	CREATE TABLE deliveries (
//	    id          TEXT        NOT NULL,
//	    destination TEXT        NOT NULL,
//	    subject     TEXT        NOT NULL DEFAULT '',
//	    body        BYTEA,
//	    created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
//	);
type Driver struct {
	pool  *pgxpool.Pool
	table string
}

// New creates a postgres driver on an existing pool. The table name
// is validated against an identifier pattern because it is
// interpolated into the insert statement.
func New(pool *pgxpool.Pool, table string) (*Driver, error) {
	if table == "" {
		table = DefaultTable
	}
	if !identRegex.MatchString(table) {
		return nil, fmt.Errorf("%w: %q: invalid table name", courier.ErrInvalidConfig, "table")
	}
	return &Driver{pool: pool, table: table}, nil
}

// Factory builds the driver from configuration.
// Required: dsn. Optional: table.
// The pool connects lazily; no connection is made until the first
// dispatch.
func Factory(cfg courier.DriverConfig) (courier.Driver, error) {
	if err := cfg.Require("dsn"); err != nil {
		return nil, err
	}
	dsn, _ := cfg.String("dsn")

	poolCfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", courier.ErrInvalidConfig, "dsn", err)
	}

	pool, err := pgxpool.NewWithConfig(context.Background(), poolCfg)
	if err != nil {
		return nil, fmt.Errorf("pg: create pool: %w", err)
	}

	table, _ := cfg.String("table")
	return New(pool, table)
}

// Execute inserts one row per payload.
func (d *Driver) Execute(ctx context.Context, p *courier.Payload) (*courier.Result, error) {
	query := fmt.Sprintf(
		`INSERT INTO %s (id, destination, subject, body) VALUES ($1, $2, $3, $4)`,
		d.table,
	)

	if _, err := d.pool.Exec(ctx, query, p.ID, p.Destination, p.Subject, p.Body); err != nil {
		return nil, fmt.Errorf("pg: insert payload: %w", err)
	}

	return &courier.Result{
		Status:    courier.StatusSuccess,
		Reference: d.table + "/" + p.ID,
	}, nil
}

// Close releases the underlying pool.
func (d *Driver) Close() {
	d.pool.Close()
}

var _ courier.Driver = (*Driver)(nil)
