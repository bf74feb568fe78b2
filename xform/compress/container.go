package compress

import (
	"encoding/binary"

	"github.com/TheusHen/xform/xform"
)

const (
	// Magic opens every container.
	Magic = "XFZ"
	// Version is the current container layout.
	Version = uint8(1)
	// MarkerSize is the number of leading bytes IsCompressedFormat inspects.
	MarkerSize = len(Magic) + 1
	// HeaderSize is the fixed header length of a version 1 container.
	HeaderSize = MarkerSize + 1 + 1 + 8 + 8 + 4
)

// Header describes a container without decoding its payload.
//
// Layout (big endian):
//
//	3 bytes: magic "XFZ"
//	1 byte:  version
//	1 byte:  codec
//	1 byte:  level
//	8 bytes: uncompressed length
//	8 bytes: payload length
//	4 bytes: CRC32 (IEEE) of the uncompressed data
//	N bytes: payload
type Header struct {
	Version     uint8
	Codec       Codec
	Level       int
	Size        uint64
	PayloadSize uint64
	Checksum    uint32
}

// IsCompressedFormat reports whether data starts with the container marker.
// Only the first MarkerSize bytes are inspected.
func IsCompressedFormat(data []byte) bool {
	if len(data) < MarkerSize {
		return false
	}
	return string(data[:len(Magic)]) == Magic && data[len(Magic)] == Version
}

// ParseHeader decodes the container header at the start of data.
func ParseHeader(data []byte) (Header, error) {
	if !IsCompressedFormat(data) {
		return Header{}, &xform.DecompressionError{Reason: xform.ReasonBadMarker}
	}
	if len(data) < HeaderSize {
		return Header{}, &xform.DecompressionError{Reason: xform.ReasonTruncated}
	}

	h := Header{
		Version:     data[3],
		Codec:       Codec(data[4]),
		Level:       int(data[5]),
		Size:        binary.BigEndian.Uint64(data[6:14]),
		PayloadSize: binary.BigEndian.Uint64(data[14:22]),
		Checksum:    binary.BigEndian.Uint32(data[22:26]),
	}
	if !h.Codec.Valid() || h.Level > BestCompression {
		return Header{}, &xform.DecompressionError{Reason: xform.ReasonBadMarker}
	}
	return h, nil
}

func (h Header) encode(dst []byte) {
	copy(dst, Magic)
	dst[3] = h.Version
	dst[4] = byte(h.Codec)
	dst[5] = byte(h.Level)
	binary.BigEndian.PutUint64(dst[6:14], h.Size)
	binary.BigEndian.PutUint64(dst[14:22], h.PayloadSize)
	binary.BigEndian.PutUint32(dst[22:26], h.Checksum)
}
