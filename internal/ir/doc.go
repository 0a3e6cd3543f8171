// Package ir provides the constrained literal values shared by the filter,
// query IR and SQL compiler layers.
//
// This package imports nothing internal. It is the foundational layer with no
// circular dependencies.
//
// Key design constraints:
//   - NO float types anywhere - use int64 for seconds and ids
//   - Instants are IRTime, always UTC
//   - Canonical JSON (RFC 8785) is the only input to fingerprints
package ir
