package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for fingerprints.
// Version suffix enables future algorithm migration.
const (
	DomainFilter    = "worklens/filter/v1"
	DomainStatement = "worklens/statement/v1"
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

// FilterFingerprint hashes the canonical form of a normalized filter.
// Two filters that select the same population hash identically.
func FilterFingerprint(filter IRObject) (string, error) {
	canonical, err := MarshalCanonical(filter)
	if err != nil {
		return "", fmt.Errorf("FilterFingerprint: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainFilter, canonical), nil
}

// StatementHash identifies a compiled SQL text (parameters excluded).
// Used to correlate query log lines for the same statement shape.
func StatementHash(sql string) string {
	return hashWithDomain(DomainStatement, []byte(sql))
}

// MustFilterFingerprint is like FilterFingerprint but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustFilterFingerprint(filter IRObject) string {
	fp, err := FilterFingerprint(filter)
	if err != nil {
		panic(err)
	}
	return fp
}
