package compress

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"sync"

	"github.com/klauspost/compress/zlib"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"github.com/ulikunitz/xz"

	"github.com/TheusHen/xform/xform"
)

// Codec identifies the payload encoding of a container. Values are stored in the
// container header; changing them breaks compatibility.
type Codec uint8

const (
	// CodecStore keeps the payload uncompressed. Level 0 always uses it.
	CodecStore Codec = 0
	// CodecDeflate is zlib-wrapped DEFLATE; levels map one to one.
	CodecDeflate Codec = 1
	// CodecLZ4 is the LZ4 frame format. Fast to decode, lower ratio.
	CodecLZ4 Codec = 2
	// CodecZstd is Zstandard.
	CodecZstd Codec = 3
	// CodecXZ is xz/LZMA2. Best ratio, slowest.
	CodecXZ Codec = 4
)

func (c Codec) String() string {
	switch c {
	case CodecStore:
		return "store"
	case CodecDeflate:
		return "deflate"
	case CodecLZ4:
		return "lz4"
	case CodecZstd:
		return "zstd"
	case CodecXZ:
		return "xz"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(c))
	}
}

// Valid reports whether c is a known codec.
func (c Codec) Valid() bool { return c <= CodecXZ }

// ParseCodec parses the name returned by Codec.String.
func ParseCodec(name string) (Codec, error) {
	switch name {
	case "store", "none":
		return CodecStore, nil
	case "deflate", "zlib":
		return CodecDeflate, nil
	case "lz4":
		return CodecLZ4, nil
	case "zstd":
		return CodecZstd, nil
	case "xz", "lzma":
		return CodecXZ, nil
	default:
		return 0, fmt.Errorf("%w: unknown codec %q", xform.ErrInvalidParameter, name)
	}
}

// maxPrealloc bounds the up-front allocation driven by the untrusted size field.
const maxPrealloc = 1 << 20

var lz4Levels = [...]lz4.CompressionLevel{
	lz4.Fast, lz4.Level1, lz4.Level2, lz4.Level3, lz4.Level4,
	lz4.Level5, lz4.Level6, lz4.Level7, lz4.Level8, lz4.Level9,
}

// lz4WriterPool reuses LZ4 writers to reduce allocations.
var lz4WriterPool = sync.Pool{
	New: func() interface{} {
		return lz4.NewWriter(nil)
	},
}

// lz4ReaderPool reuses LZ4 readers.
var lz4ReaderPool = sync.Pool{
	New: func() interface{} {
		return lz4.NewReader(nil)
	},
}

// zstd encoders are built once per speed class; EncodeAll is safe for
// concurrent use.
var zstdEncoders = map[zstd.EncoderLevel]*zstd.Encoder{}

func init() {
	for _, level := range []zstd.EncoderLevel{zstd.SpeedFastest, zstd.SpeedDefault, zstd.SpeedBetterCompression, zstd.SpeedBestCompression} {
		enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(level))
		if err != nil {
			panic("compress: zstd encoder initialization failed: " + err.Error())
		}
		zstdEncoders[level] = enc
	}
}

// zstdReaderPool reuses synchronous zstd stream decoders. Output is read
// through readAllLimited, never decoded as a whole frame.
var zstdReaderPool sync.Pool

func getZstdReader(r io.Reader) (*zstd.Decoder, error) {
	if d, ok := zstdReaderPool.Get().(*zstd.Decoder); ok {
		if err := d.Reset(r); err != nil {
			return nil, err
		}
		return d, nil
	}
	return zstd.NewReader(r, zstd.WithDecoderConcurrency(1), zstd.WithDecoderLowmem(true))
}

// xzDictCap maps level 1..9 to a dictionary of 32 KiB..8 MiB.
func xzDictCap(level int) int { return 1 << (14 + level) }

// encodePayload compresses data with codec at level 1..9.
func encodePayload(codec Codec, data []byte, level int) ([]byte, error) {
	switch codec {
	case CodecStore:
		out := make([]byte, len(data))
		copy(out, data)
		return out, nil

	case CodecDeflate:
		var buf bytes.Buffer
		w, err := zlib.NewWriterLevel(&buf, level)
		if err != nil {
			return nil, err
		}
		if _, err := w.Write(data); err != nil {
			return nil, err
		}
		if err := w.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil

	case CodecLZ4:
		var buf bytes.Buffer
		w := lz4WriterPool.Get().(*lz4.Writer)
		defer lz4WriterPool.Put(w)

		w.Reset(&buf)
		if err := w.Apply(lz4.CompressionLevelOption(lz4Levels[level])); err != nil {
			return nil, err
		}
		if _, err := w.Write(data); err != nil {
			return nil, err
		}
		if err := w.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil

	case CodecZstd:
		enc := zstdEncoders[zstd.EncoderLevelFromZstd(level)]
		return enc.EncodeAll(data, nil), nil

	case CodecXZ:
		var buf bytes.Buffer
		w, err := xz.WriterConfig{DictCap: xzDictCap(level)}.NewWriter(&buf)
		if err != nil {
			return nil, err
		}
		if _, err := w.Write(data); err != nil {
			return nil, err
		}
		if err := w.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil

	default:
		return nil, xform.NewParameterError("codec", int(codec), nil)
	}
}

// decodePayload reverses encodePayload. size is the declared uncompressed length;
// output longer than size is cut off at size+1 so the caller can reject it.
func decodePayload(codec Codec, payload []byte, size uint64) ([]byte, error) {
	switch codec {
	case CodecStore:
		out := make([]byte, len(payload))
		copy(out, payload)
		return out, nil

	case CodecDeflate:
		r, err := zlib.NewReader(bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		defer r.Close()
		return readAllLimited(r, size)

	case CodecLZ4:
		r := lz4ReaderPool.Get().(*lz4.Reader)
		defer lz4ReaderPool.Put(r)

		r.Reset(bytes.NewReader(payload))
		return readAllLimited(r, size)

	case CodecZstd:
		r, err := getZstdReader(bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		defer zstdReaderPool.Put(r)
		return readAllLimited(r, size)

	case CodecXZ:
		r, err := xz.NewReader(bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		return readAllLimited(r, size)

	default:
		return nil, xform.NewParameterError("codec", int(codec), nil)
	}
}

func preallocSize(size uint64) int {
	if size > maxPrealloc {
		return maxPrealloc
	}
	return int(size)
}

func readAllLimited(r io.Reader, size uint64) ([]byte, error) {
	limit := int64(math.MaxInt64)
	if size < math.MaxInt64 {
		limit = int64(size) + 1
	}
	var buf bytes.Buffer
	buf.Grow(preallocSize(size))
	if _, err := io.Copy(&buf, io.LimitReader(r, limit)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// codecFailure classifies a codec stream error.
func codecFailure(err error) *xform.DecompressionError {
	reason := xform.ReasonCorrupt
	if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
		reason = xform.ReasonTruncated
	}
	return &xform.DecompressionError{Reason: reason, Err: err}
}
