// Package delivery defines the contract every transport-facing server
// implements. Servers are collected by Fx under the "deliveries" group
// and started together.
package delivery

import "context"

// Delivery is a long-running server (HTTP today, possibly gRPC later).
// Serve blocks until the server stops.
type Delivery interface {
	Serve(ctx context.Context) error
}
