// Package envelope seals data under a passphrase.
//
// A sealed blob chains the other xform primitives: PBKDF2 turns the
// passphrase into a master key, HKDF splits it into purpose keys, the
// plaintext is compressed into a container and the container is encrypted
// and authenticated. Everything Open needs except the passphrase travels in
// a small CBOR header.
//
// Layout:
//
//	3 bytes: magic "XFE"
//	1 byte:  version
//	2 bytes: header length (big endian)
//	N bytes: CBOR header (core deterministic encoding)
//	M bytes: body
//
// Suites:
//   - SuiteAESCBCHMAC: AES-256-CBC, then HMAC-SHA256 over everything before the tag
//   - SuiteXChaCha20Poly1305: XChaCha20-Poly1305 with the prefix and header as AAD
package envelope
