package compress

import (
	"github.com/TheusHen/xform/xform"
	"github.com/TheusHen/xform/xform/digest"
	"github.com/TheusHen/xform/xform/internal/xlog"
)

// Compression levels. Any integer in 0..9 is accepted.
const (
	NoCompression      = 0
	BestSpeed          = 1
	DefaultCompression = 6
	BestCompression    = 9
)

// DefaultCodec is used by Compress.
const DefaultCodec = CodecDeflate

// Compress wraps data in a container compressed with DefaultCodec at level 0..9.
// Level 0 stores the data uncompressed, still inside the container.
func Compress(data []byte, level int) ([]byte, error) {
	return CompressCodec(data, level, DefaultCodec)
}

// CompressCodec is Compress with an explicit codec.
func CompressCodec(data []byte, level int, codec Codec) ([]byte, error) {
	if level < NoCompression || level > BestCompression {
		return nil, xform.NewParameterError("level", level, nil)
	}
	if !codec.Valid() {
		return nil, xform.NewParameterError("codec", int(codec), nil)
	}
	if level == NoCompression {
		codec = CodecStore
	}

	payload, err := encodePayload(codec, data, level)
	if err != nil {
		xlog.For("compress", "CompressCodec").WithError(err).WithField("codec", codec.String()).Debug("codec failed")
		return nil, err
	}

	h := Header{
		Version:     Version,
		Codec:       codec,
		Level:       level,
		Size:        uint64(len(data)),
		PayloadSize: uint64(len(payload)),
		Checksum:    digest.CRC32(data),
	}
	out := make([]byte, HeaderSize+len(payload))
	h.encode(out)
	copy(out[HeaderSize:], payload)
	return out, nil
}

// Decompress unwraps a container built by Compress. Failures are reported as
// *xform.DecompressionError with a reason; no partial output is ever returned.
func Decompress(container []byte) ([]byte, error) {
	out, err := decompress(container)
	if err != nil {
		xlog.For("compress", "Decompress").WithField("reason", xform.Reason(err).String()).Debug("rejecting container")
		return nil, err
	}
	return out, nil
}

func decompress(container []byte) ([]byte, error) {
	h, err := ParseHeader(container)
	if err != nil {
		return nil, err
	}

	payload := container[HeaderSize:]
	switch {
	case uint64(len(payload)) < h.PayloadSize:
		return nil, &xform.DecompressionError{Reason: xform.ReasonTruncated}
	case uint64(len(payload)) > h.PayloadSize:
		return nil, &xform.DecompressionError{Reason: xform.ReasonCorrupt}
	}
	if h.Codec == CodecStore && h.PayloadSize != h.Size {
		return nil, &xform.DecompressionError{Reason: xform.ReasonCorrupt}
	}

	out, err := decodePayload(h.Codec, payload, h.Size)
	if err != nil {
		return nil, codecFailure(err)
	}
	if uint64(len(out)) != h.Size {
		return nil, &xform.DecompressionError{Reason: xform.ReasonCorrupt}
	}
	if digest.CRC32(out) != h.Checksum {
		return nil, &xform.DecompressionError{Reason: xform.ReasonBadChecksum}
	}
	if out == nil {
		out = []byte{}
	}
	return out, nil
}

// DecompressIfCompressed decompresses marked containers and returns a copy of
// anything else unchanged, treating it as raw data.
func DecompressIfCompressed(data []byte) ([]byte, error) {
	if !IsCompressedFormat(data) {
		out := make([]byte, len(data))
		copy(out, data)
		return out, nil
	}
	return Decompress(data)
}
