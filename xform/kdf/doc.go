// Package kdf derives keys from passwords and secrets.
//
// Key features:
//   - PBKDF2 (RFC 8018) with HMAC-SHA1 by default, SHA-256/SHA-512 on request
//   - HKDF-SHA256 expansion for splitting one master key into purpose keys
//   - A bounded worker pool so bursts of slow derivations don't pin every CPU
package kdf
