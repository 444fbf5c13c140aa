package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity.
// Version suffix enables future algorithm migration.
const (
	DomainStruct   = "graphmirror/struct/v1"
	DomainSnapshot = "graphmirror/snapshot/v1"
)

// hashWithDomain computes SHA-256 hash with domain separation.
// Format: SHA256(domain + 0x00 + data)
// The null byte separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// StructKey computes the content address of a shared struct record.
// Two struct values with the same kind and the same present sub-fields
// always share one key, whichever viewer produced them.
// Null sub-fields must be removed by the caller; canonical JSON rejects them.
func StructKey(kind string, fields IRObject) (string, error) {
	canonical, err := MarshalCanonical(IRObject{
		"kind":   IRString(kind),
		"fields": fields,
	})
	if err != nil {
		return "", fmt.Errorf("StructKey: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainStruct, canonical), nil
}

// SnapshotDigest hashes a canonical snapshot (a sorted key listing or a
// harness result) so two stores can be compared without shipping rows.
func SnapshotDigest(v any) (string, error) {
	canonical, err := MarshalCanonical(v)
	if err != nil {
		return "", fmt.Errorf("SnapshotDigest: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainSnapshot, canonical), nil
}

// MustStructKey is like StructKey but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustStructKey(kind string, fields IRObject) string {
	key, err := StructKey(kind, fields)
	if err != nil {
		panic(err)
	}
	return key
}
