// Package scheduler defines the boundary to the OS deferred-execution
// scheduler: the grant type it delivers, the sink it delivers into, the
// exactly-once completion report it expects back, and the request interface
// for asking it to run a task in the future.
//
// The scheduler decides if and when a task runs; a request that never turns
// into a grant is a normal outcome, not an error. The package also ships a
// Simulator, an in-process scheduler used by the daemon and by tests so the
// coordinator can run without a real OS scheduling subsystem.
package scheduler
