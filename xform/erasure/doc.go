// Package erasure spreads a buffer over Reed-Solomon shards.
//
// With d data shards and p parity shards any p shards may be lost (set to
// nil) and the buffer is still recoverable. Shards carry no framing; keep the
// original length, and optionally the per-shard CRC32 values from Checksums,
// next to them.
//
// Coding is done by klauspost/reedsolomon.
package erasure
