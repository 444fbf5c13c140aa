// Package coerce converts raw remote values into typed local values.
//
// Every tracked field has a declared kind. Scalar kinds (text, datetime,
// integer64, boolean) are pure conversions. Relation fields are resolved
// against local storage: entity targets are looked up by natural key
// within the viewer's records, struct targets are get-or-created through a
// StructCache so equal struct values share one row.
//
// Failures are *ir.Error values with code TYPE_MISMATCH (unconvertible
// value, null in a required field) or NOT_FOUND (relation target missing).
package coerce
