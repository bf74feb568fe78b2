package digest

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"hash/crc32"

	"github.com/zeebo/blake3"

	"github.com/TheusHen/xform/xform"
)

// Algorithm identifies a digest algorithm. The values are stable and may be stored.
type Algorithm uint8

const (
	AlgMD5 Algorithm = iota + 1
	// AlgBrokenMD5 is the legacy variant, see BrokenMD5.
	AlgBrokenMD5
	AlgSHA1
	AlgSHA256
	AlgBLAKE3
)

// Digest sizes in bytes.
const (
	SizeMD5    = md5.Size
	SizeSHA1   = sha1.Size
	SizeSHA256 = sha256.Size
	SizeBLAKE3 = 32
)

func (a Algorithm) String() string {
	switch a {
	case AlgMD5:
		return "md5"
	case AlgBrokenMD5:
		return "broken-md5"
	case AlgSHA1:
		return "sha1"
	case AlgSHA256:
		return "sha256"
	case AlgBLAKE3:
		return "blake3"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(a))
	}
}

// Size returns the digest length in bytes, or 0 for an unknown algorithm.
func (a Algorithm) Size() int {
	switch a {
	case AlgMD5, AlgBrokenMD5:
		return SizeMD5
	case AlgSHA1:
		return SizeSHA1
	case AlgSHA256:
		return SizeSHA256
	case AlgBLAKE3:
		return SizeBLAKE3
	default:
		return 0
	}
}

// ParseAlgorithm parses the name returned by Algorithm.String.
func ParseAlgorithm(name string) (Algorithm, error) {
	switch name {
	case "md5":
		return AlgMD5, nil
	case "broken-md5":
		return AlgBrokenMD5, nil
	case "sha1":
		return AlgSHA1, nil
	case "sha256":
		return AlgSHA256, nil
	case "blake3":
		return AlgBLAKE3, nil
	default:
		return 0, fmt.Errorf("%w: unknown digest algorithm %q", xform.ErrInvalidParameter, name)
	}
}

// Sum computes the digest of data with alg.
// The only error is an unknown algorithm.
func Sum(alg Algorithm, data []byte) ([]byte, error) {
	switch alg {
	case AlgMD5:
		return MD5(data), nil
	case AlgBrokenMD5:
		return BrokenMD5(data), nil
	case AlgSHA1:
		return SHA1(data), nil
	case AlgSHA256:
		return SHA256(data), nil
	case AlgBLAKE3:
		return BLAKE3(data), nil
	default:
		return nil, xform.NewParameterError("algorithm", int(alg), nil)
	}
}

// MD5 returns the 16-byte RFC 1321 digest of data.
func MD5(data []byte) []byte {
	sum := md5.Sum(data)
	return sum[:]
}

// SHA1 returns the 20-byte FIPS 180-4 SHA-1 digest of data.
func SHA1(data []byte) []byte {
	sum := sha1.Sum(data)
	return sum[:]
}

// SHA256 returns the 32-byte SHA-256 digest of data.
func SHA256(data []byte) []byte {
	sum := sha256.Sum256(data)
	return sum[:]
}

// BLAKE3 returns the 32-byte BLAKE3 digest of data.
func BLAKE3(data []byte) []byte {
	sum := blake3.Sum256(data)
	return sum[:]
}

// CRC32 returns the IEEE CRC-32 checksum of data. CRC32 of an empty buffer is 0.
func CRC32(data []byte) uint32 {
	return crc32.ChecksumIEEE(data)
}

// CRC32Bytes returns CRC32(data) serialized big-endian.
func CRC32Bytes(data []byte) [4]byte {
	var out [4]byte
	binary.BigEndian.PutUint32(out[:], CRC32(data))
	return out
}
