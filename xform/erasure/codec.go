package erasure

import (
	"errors"
	"fmt"

	"github.com/klauspost/reedsolomon"

	"github.com/TheusHen/xform/xform"
	"github.com/TheusHen/xform/xform/digest"
	"github.com/TheusHen/xform/xform/internal/xlog"
)

var (
	ErrTooManyLost       = fmt.Errorf("erasure: too many shards lost: %w", xform.ErrIntegrity)
	ErrShardSizeMismatch = fmt.Errorf("erasure: shard sizes do not match: %w", xform.ErrMalformedInput)
)

// MaxShards is the largest data+parity total the codec accepts.
const MaxShards = 256

// Codec encodes and reconstructs shard sets of a fixed geometry.
// It is safe for concurrent use.
type Codec struct {
	enc          reedsolomon.Encoder
	dataShards   int
	parityShards int
}

// NewCodec returns a codec for dataShards data shards and parityShards parity
// shards. Both must be positive and their sum at most MaxShards.
func NewCodec(dataShards, parityShards int) (*Codec, error) {
	if dataShards <= 0 {
		return nil, xform.NewParameterError("data shards", dataShards, nil)
	}
	if parityShards <= 0 || dataShards+parityShards > MaxShards {
		return nil, xform.NewParameterError("parity shards", parityShards, nil)
	}
	enc, err := reedsolomon.New(dataShards, parityShards)
	if err != nil {
		return nil, err
	}
	return &Codec{
		enc:          enc,
		dataShards:   dataShards,
		parityShards: parityShards,
	}, nil
}

// DataShards returns the number of data shards.
func (c *Codec) DataShards() int { return c.dataShards }

// ParityShards returns the number of parity shards.
func (c *Codec) ParityShards() int { return c.parityShards }

// TotalShards returns the total number of shards (data + parity).
func (c *Codec) TotalShards() int { return c.dataShards + c.parityShards }

// EncodeData splits data into DataShards() equal shards, zero-padding the last
// one, and appends the parity shards. data is not modified; empty data yields
// TotalShards() one-byte shards.
func (c *Codec) EncodeData(data []byte) ([][]byte, error) {
	// Split may reuse the spare capacity of its argument.
	buf := make([]byte, len(data), c.ShardSize(len(data))*c.TotalShards())
	copy(buf, data)
	if len(buf) == 0 {
		buf = buf[:1]
	}

	shards, err := c.enc.Split(buf)
	if err != nil {
		return nil, err
	}
	if err := c.enc.Encode(shards); err != nil {
		return nil, err
	}
	return shards, nil
}

// Verify reports whether the parity shards match the data shards.
// Every shard must be present.
func (c *Codec) Verify(shards [][]byte) (bool, error) {
	if err := c.checkShards(shards, false); err != nil {
		return false, err
	}
	return c.enc.Verify(shards)
}

// Reconstruct rebuilds every nil shard in place.
func (c *Codec) Reconstruct(shards [][]byte) error {
	if err := c.checkShards(shards, true); err != nil {
		return err
	}
	return c.mapErr(c.enc.Reconstruct(shards), shards)
}

// ReconstructData rebuilds only the missing data shards; parity shards stay nil.
func (c *Codec) ReconstructData(shards [][]byte) error {
	if err := c.checkShards(shards, true); err != nil {
		return err
	}
	return c.mapErr(c.enc.ReconstructData(shards), shards)
}

func (c *Codec) mapErr(err error, shards [][]byte) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, reedsolomon.ErrTooFewShards) {
		xlog.For("erasure", "Reconstruct").WithField("missing", missing(shards)).Debug("cannot recover")
		return ErrTooManyLost
	}
	if errors.Is(err, reedsolomon.ErrShardSize) || errors.Is(err, reedsolomon.ErrShardNoData) {
		return ErrShardSizeMismatch
	}
	return err
}

// Join concatenates the data shards and cuts the result to size, the length
// passed to EncodeData.
func (c *Codec) Join(shards [][]byte, size int) ([]byte, error) {
	if size < 0 {
		return nil, xform.NewParameterError("size", size, nil)
	}
	if len(shards) < c.dataShards {
		return nil, xform.NewParameterError("shards", len(shards), nil)
	}

	out := make([]byte, 0, size)
	for i := 0; i < c.dataShards && len(out) < size; i++ {
		if shards[i] == nil {
			return nil, ErrTooManyLost
		}
		n := size - len(out)
		if n > len(shards[i]) {
			n = len(shards[i])
		}
		out = append(out, shards[i][:n]...)
	}
	if len(out) != size {
		return nil, &xform.MalformedInputError{Offset: len(out), Reason: "shards hold less data than requested"}
	}
	return out, nil
}

// Checksums returns the CRC32 of every shard; nil shards get 0.
func (c *Codec) Checksums(shards [][]byte) []uint32 {
	sums := make([]uint32, len(shards))
	for i, s := range shards {
		if s != nil {
			sums[i] = digest.CRC32(s)
		}
	}
	return sums
}

// DiscardCorrupt sets every shard whose CRC32 differs from sums to nil, so a
// following Reconstruct treats it as lost. It returns the discarded indexes.
func (c *Codec) DiscardCorrupt(shards [][]byte, sums []uint32) ([]int, error) {
	if len(sums) != len(shards) {
		return nil, xform.NewParameterError("checksums", len(sums), nil)
	}
	var dropped []int
	for i, s := range shards {
		if s != nil && digest.CRC32(s) != sums[i] {
			shards[i] = nil
			dropped = append(dropped, i)
		}
	}
	return dropped, nil
}

// ShardSize returns the per-shard length EncodeData uses for dataSize bytes.
func (c *Codec) ShardSize(dataSize int) int {
	if dataSize <= 0 {
		return 1
	}
	return (dataSize + c.dataShards - 1) / c.dataShards
}

// EncodedSize is the combined length of all shards for dataSize bytes.
func (c *Codec) EncodedSize(dataSize int) int {
	return c.ShardSize(dataSize) * c.TotalShards()
}

// Overhead is the storage expansion factor, e.g. 1.4 for 10+4.
func (c *Codec) Overhead() float64 {
	return float64(c.TotalShards()) / float64(c.dataShards)
}

func (c *Codec) checkShards(shards [][]byte, allowNil bool) error {
	if len(shards) != c.TotalShards() {
		return xform.NewParameterError("shards", len(shards), nil)
	}
	size := -1
	for _, s := range shards {
		if s == nil {
			if !allowNil {
				return ErrTooManyLost
			}
			continue
		}
		if size >= 0 && len(s) != size {
			return ErrShardSizeMismatch
		}
		size = len(s)
	}
	return nil
}

func missing(shards [][]byte) int {
	n := 0
	for _, s := range shards {
		if s == nil {
			n++
		}
	}
	return n
}
