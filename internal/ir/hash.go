package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity.
// Version suffix enables future algorithm migration.
const (
	DomainNet     = "inet/net/v1"
	DomainProgram = "inet/program/v1"
)

// hashWithDomain computes SHA-256 hash with domain separation.
// Format: SHA256(domain + 0x00 + data)
// The null byte (0x00) separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// NetHash computes the content hash of a canonical net encoding.
// Two nets have the same hash iff their canonical encodings are
// byte-identical, i.e. iff they are isomorphic.
func NetHash(canonical any) (string, error) {
	data, err := MarshalCanonical(canonical)
	if err != nil {
		return "", fmt.Errorf("NetHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainNet, data), nil
}

// ProgramHash identifies the source of a net program so replays can detect
// that the program changed since the run was recorded.
func ProgramHash(source []byte) string {
	return hashWithDomain(DomainProgram, source)
}

// MustNetHash is like NetHash but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustNetHash(canonical any) string {
	h, err := NetHash(canonical)
	if err != nil {
		panic(err)
	}
	return h
}
