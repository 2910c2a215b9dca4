// Package primitives provides the foundational, dependency-free building blocks
// of the container runtime.
//
// Core invariants:
//   - Consumable values are extracted at most once (single compare-and-swap)
//   - Queues preserve enqueue order and have exactly one consumer
//   - Producers never block on an unbounded queue
//
//go:generate go test ./... -race
package primitives
