// Package pantry carries release metadata for the pantry module.
package pantry

// Version is the pantry release version.
const Version = "0.1.0"

// ModulePath is the Go module path.
const ModulePath = "github.com/mesh-intelligence/pantry"
