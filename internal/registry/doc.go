// Package registry holds the process-wide table of background task
// identifiers the application has declared interest in, each bound to a
// handler.
//
// Registration happens during application setup, before the scheduler is
// allowed to deliver grants; the registry is sealed at the end of the setup
// phase and is immutable afterwards. Rebinding an identifier is rejected so
// configuration bugs surface deterministically at startup.
package registry
