// Package api contains the HTTP handlers for the admin/inspection surface:
// registered task identifiers, active grants, and coordinator counters.
package api
