package erasure

import (
	"bytes"
	"errors"
	"testing"

	"github.com/TheusHen/xform/xform"
)

func TestCodecRoundTrip(t *testing.T) {
	codec, err := NewCodec(10, 4)
	if err != nil {
		t.Fatalf("NewCodec: %v", err)
	}

	data := []byte("Shard me: a buffer long enough to span several data shards of the codec.")
	orig := append([]byte(nil), data...)

	shards, err := codec.EncodeData(data)
	if err != nil {
		t.Fatalf("EncodeData: %v", err)
	}
	if len(shards) != 14 {
		t.Fatalf("expected 14 shards, got %d", len(shards))
	}
	if !bytes.Equal(data, orig) {
		t.Fatalf("EncodeData modified its input")
	}

	ok, err := codec.Verify(shards)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if !ok {
		t.Fatalf("verification failed")
	}

	// Lose as many shards as there is parity.
	shards[0] = nil
	shards[5] = nil
	shards[10] = nil
	shards[13] = nil

	if err := codec.Reconstruct(shards); err != nil {
		t.Fatalf("Reconstruct: %v", err)
	}
	recovered, err := codec.Join(shards, len(data))
	if err != nil {
		t.Fatalf("Join: %v", err)
	}
	if !bytes.Equal(recovered, data) {
		t.Fatalf("recovered data does not match original")
	}
}

func TestCodecShardCounts(t *testing.T) {
	codec, err := NewCodec(6, 3)
	if err != nil {
		t.Fatalf("NewCodec: %v", err)
	}
	if codec.DataShards() != 6 || codec.ParityShards() != 3 || codec.TotalShards() != 9 {
		t.Fatalf("shard counts = %d/%d/%d, want 6/3/9",
			codec.DataShards(), codec.ParityShards(), codec.TotalShards())
	}
	shards, err := codec.EncodeData([]byte("count me"))
	if err != nil {
		t.Fatalf("EncodeData: %v", err)
	}
	if len(shards) != codec.TotalShards() {
		t.Fatalf("EncodeData returned %d shards, want %d", len(shards), codec.TotalShards())
	}
}

func TestReconstructDataLeavesParity(t *testing.T) {
	codec, err := NewCodec(4, 2)
	if err != nil {
		t.Fatalf("NewCodec: %v", err)
	}
	data := bytes.Repeat([]byte("0123456789"), 13)
	shards, err := codec.EncodeData(data)
	if err != nil {
		t.Fatalf("EncodeData: %v", err)
	}

	shards[1] = nil
	shards[5] = nil
	if err := codec.ReconstructData(shards); err != nil {
		t.Fatalf("ReconstructData: %v", err)
	}
	if shards[1] == nil {
		t.Fatalf("data shard not rebuilt")
	}
	if shards[5] != nil {
		t.Fatalf("parity shard should stay missing")
	}
	out, err := codec.Join(shards, len(data))
	if err != nil || !bytes.Equal(out, data) {
		t.Fatalf("Join after ReconstructData: %v", err)
	}
}

func TestCodecTooManyLost(t *testing.T) {
	codec, err := NewCodec(10, 4)
	if err != nil {
		t.Fatalf("NewCodec: %v", err)
	}

	shards, err := codec.EncodeData(make([]byte, 1024))
	if err != nil {
		t.Fatalf("EncodeData: %v", err)
	}
	for i := 0; i < 5; i++ {
		shards[i] = nil
	}

	err = codec.Reconstruct(shards)
	if !errors.Is(err, ErrTooManyLost) {
		t.Fatalf("expected ErrTooManyLost, got %v", err)
	}
	if !errors.Is(err, xform.ErrIntegrity) {
		t.Fatalf("ErrTooManyLost should be an integrity error")
	}
	if _, err := codec.Join(shards, 1024); !errors.Is(err, ErrTooManyLost) {
		t.Fatalf("Join with missing data shard: %v", err)
	}
}

func TestEmptyInput(t *testing.T) {
	codec, _ := NewCodec(3, 2)
	shards, err := codec.EncodeData(nil)
	if err != nil {
		t.Fatalf("EncodeData(nil): %v", err)
	}
	if len(shards) != 5 {
		t.Fatalf("expected 5 shards, got %d", len(shards))
	}
	out, err := codec.Join(shards, 0)
	if err != nil {
		t.Fatalf("Join: %v", err)
	}
	if len(out) != 0 {
		t.Fatalf("expected empty output, got %d bytes", len(out))
	}
}

func TestDiscardCorrupt(t *testing.T) {
	codec, _ := NewCodec(6, 3)
	data := bytes.Repeat([]byte("checksum per shard "), 20)
	shards, err := codec.EncodeData(data)
	if err != nil {
		t.Fatalf("EncodeData: %v", err)
	}
	sums := codec.Checksums(shards)

	shards[2][0] ^= 0xff
	shards[7][3] ^= 0x01

	dropped, err := codec.DiscardCorrupt(shards, sums)
	if err != nil {
		t.Fatalf("DiscardCorrupt: %v", err)
	}
	if len(dropped) != 2 || dropped[0] != 2 || dropped[1] != 7 {
		t.Fatalf("dropped = %v, want [2 7]", dropped)
	}
	if err := codec.Reconstruct(shards); err != nil {
		t.Fatalf("Reconstruct: %v", err)
	}
	out, err := codec.Join(shards, len(data))
	if err != nil || !bytes.Equal(out, data) {
		t.Fatalf("recovery after discard failed: %v", err)
	}

	if _, err := codec.DiscardCorrupt(shards, sums[:3]); !errors.Is(err, xform.ErrInvalidParameter) {
		t.Fatalf("mismatched checksum count: %v", err)
	}
}

func TestInvalidArguments(t *testing.T) {
	for _, tc := range []struct{ data, parity int }{{0, 4}, {4, 0}, {-1, 2}, {200, 100}} {
		if _, err := NewCodec(tc.data, tc.parity); !errors.Is(err, xform.ErrInvalidParameter) {
			t.Fatalf("NewCodec(%d, %d): expected ErrInvalidParameter, got %v", tc.data, tc.parity, err)
		}
	}

	codec, _ := NewCodec(4, 2)
	shards, _ := codec.EncodeData([]byte("some bytes to shard"))

	if err := codec.Reconstruct(shards[:5]); !errors.Is(err, xform.ErrInvalidParameter) {
		t.Fatalf("Reconstruct with wrong shard count: %v", err)
	}
	if _, err := codec.Join(shards, -1); !errors.Is(err, xform.ErrInvalidParameter) {
		t.Fatalf("Join negative size: %v", err)
	}
	if _, err := codec.Join(shards, 1<<20); !errors.Is(err, xform.ErrMalformedInput) {
		t.Fatalf("Join beyond capacity: %v", err)
	}

	shards[3] = shards[3][:len(shards[3])-1]
	if _, err := codec.Verify(shards); !errors.Is(err, ErrShardSizeMismatch) {
		t.Fatalf("Verify with short shard: %v", err)
	}
}

func TestCodecOverhead(t *testing.T) {
	codec, _ := NewCodec(10, 4)
	overhead := codec.Overhead()
	if overhead < 1.39 || overhead > 1.41 {
		t.Fatalf("unexpected overhead: %f", overhead)
	}
	if got := codec.ShardSize(101); got != 11 {
		t.Fatalf("ShardSize(101) = %d, want 11", got)
	}
	if got := codec.EncodedSize(100); got != 140 {
		t.Fatalf("EncodedSize(100) = %d, want 140", got)
	}
}

func BenchmarkEncode(b *testing.B) {
	codec, _ := NewCodec(10, 4)
	data := make([]byte, 1024*1024)
	b.SetBytes(int64(len(data)))
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		_, _ = codec.EncodeData(data)
	}
}

func BenchmarkReconstruct(b *testing.B) {
	codec, _ := NewCodec(10, 4)
	data := make([]byte, 1024*1024)
	shards, _ := codec.EncodeData(data)

	b.SetBytes(int64(len(data)))
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		work := make([][]byte, len(shards))
		copy(work, shards)
		work[0], work[1], work[2], work[3] = nil, nil, nil, nil
		_ = codec.Reconstruct(work)
	}
}
