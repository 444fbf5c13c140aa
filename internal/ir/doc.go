// Package ir provides the value and record types shared by every layer of
// graphmirror.
//
// This package contains type definitions only. All other internal packages
// import ir; ir imports nothing internal.
//
// Key design constraints:
//   - NO float types anywhere - remote numbers become int64 or text
//   - Coerced values are always one of the sealed IRValue types
//   - Content-addressed keys use RFC 8785 canonical JSON (canonical.go)
//   - All JSON tags use snake_case
package ir
