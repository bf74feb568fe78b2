// Package xform provides byte-buffer transformation primitives for applications that
// store or ship opaque blobs.
//
// Each transformation lives in its own package and operates on whole in-memory buffers:
// digest (CRC32, MD5, SHA-1), encoding (Base64), compress (self-describing container),
// kdf (PBKDF2), aescbc (AES-CBC with PKCS#7) and envelope, which composes them into
// passphrase-sealed blobs. erasure spreads a buffer over Reed-Solomon shards.
// This package holds the shared error taxonomy and the logger hook.
package xform
