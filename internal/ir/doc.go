// Package ir provides the canonical serialization and content hashing used
// to identify nets independently of slot numbering and worker interleaving.
//
// This package imports nothing internal. Everything that needs a stable,
// byte-exact rendering of a net (golden snapshots, replay verification,
// confluence checks, the run log) goes through MarshalCanonical and the
// hash helpers here.
//
// Key design constraints:
//   - NO float types anywhere - use int64 for numbers
//   - Object keys sorted by UTF-16 code units (RFC 8785)
//   - Strings are NFC normalized before encoding
//   - All JSON tags use snake_case
package ir
