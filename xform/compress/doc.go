// Package compress provides reversible compression inside a self-describing container.
//
// Key features:
//   - Versioned 4-byte marker so IsCompressedFormat never touches the payload
//   - Level 0..9; level 0 stores the data but keeps the container uniform
//   - Pluggable codecs: DEFLATE (default), LZ4, Zstandard, xz
//   - Declared lengths plus CRC32 so truncation and corruption fail deterministically
package compress
