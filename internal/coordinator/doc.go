// Package coordinator implements the background task lifecycle coordinator.
//
// It receives grants from the scheduler, looks up the matching handler in
// the registry, runs the handler on its own goroutine, and resolves the
// race between handler completion and deadline expiry with a single atomic
// state transition so the scheduler receives exactly one completion report
// per grant. Every transition is published as a lifecycle event; no runtime
// failure in this package may escape to terminate the process.
package coordinator
