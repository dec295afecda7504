// Package events defines the lifecycle event stream emitted by the grant
// coordinator and consumed by application listeners.
//
// Events are delivered fire-and-forget: every subscribed listener receives
// every delivered event in emission order, and a listener that errors or
// panics never affects other listeners or the emitting component. Emission
// never blocks the caller; when the buffer is full the event is dropped and
// a warning is logged.
package events
