package store

import (
	"context"
	"time"
)

// probeTimeout bounds each dependency ping so a hung backend cannot
// stall the health endpoint past its own deadline.
const probeTimeout = 500 * time.Millisecond

// Health is the dependency snapshot served by the health endpoint.
type Health struct {
	DB    bool `json:"db"`
	Redis bool `json:"redis"`
}

// OK reports whether every dependency answered its probe.
func (h Health) OK() bool { return h.DB && h.Redis }

// Check probes the backing stores. Nil stores count as unhealthy rather
// than panicking, so a partially wired binary can still serve health.
func Check(ctx context.Context, db *DB, r *Redis) Health {
	return Health{DB: db.Healthy(ctx), Redis: r.Healthy(ctx)}
}
