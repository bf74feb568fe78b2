// Package digest provides checksums and message digests over whole buffers.
//
// Algorithms are a closed set of named variants (see Algorithm). BrokenMD5 is a
// legacy-compatible variant kept for reading data written by an old, non-conforming
// MD5 implementation; it never equals MD5 and must not be used in its place.
//
// CRC32 uses the IEEE polynomial and serializes big-endian.
package digest
