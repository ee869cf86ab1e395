// Package types defines the product record, the Store interface, and the
// standard error types for the pantry supply tracker.
package types
