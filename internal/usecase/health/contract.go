package health

import "context"

// Pinger checks a dependency's availability. Redis, qdrant and the model
// providers all satisfy it through small adapters in the composition root.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc adapts a function to Pinger.
type PingFunc func(ctx context.Context) error

// Ping calls f.
func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }
