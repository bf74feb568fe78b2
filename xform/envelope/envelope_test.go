package envelope

import (
	"bytes"
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TheusHen/xform/xform"
	"github.com/TheusHen/xform/xform/compress"
	"github.com/TheusHen/xform/xform/kdf"
)

var suites = []Suite{SuiteAESCBCHMAC, SuiteXChaCha20Poly1305}

func fastOptions(suite Suite) Options {
	opts := DefaultOptions()
	opts.Suite = suite
	opts.Iterations = 1000
	return opts
}

func TestSealOpenRoundTrip(t *testing.T) {
	inputs := [][]byte{
		{},
		[]byte("a short note"),
		bytes.Repeat([]byte("meeting notes, take two. "), 200),
	}
	codecs := []compress.Codec{compress.CodecDeflate, compress.CodecLZ4, compress.CodecZstd, compress.CodecXZ}

	for _, suite := range suites {
		for _, codec := range codecs {
			for _, pt := range inputs {
				opts := fastOptions(suite)
				opts.Codec = codec
				blob, err := Seal(pt, []byte("correct horse"), opts)
				require.NoError(t, err, "%s/%s", suite, codec)
				require.True(t, IsSealed(blob))

				out, err := Open(blob, []byte("correct horse"))
				require.NoError(t, err, "%s/%s", suite, codec)
				assert.True(t, bytes.Equal(pt, out), "%s/%s round trip", suite, codec)
			}
		}
	}
}

func TestSealCompressesRepetitiveInput(t *testing.T) {
	pt := bytes.Repeat([]byte("x"), 10000)
	blob, err := Seal(pt, []byte("pw"), fastOptions(SuiteXChaCha20Poly1305))
	require.NoError(t, err)
	assert.Less(t, len(blob), 1000)

	opts := fastOptions(SuiteXChaCha20Poly1305)
	opts.Level = compress.NoCompression
	stored, err := Seal(pt, []byte("pw"), opts)
	require.NoError(t, err)
	assert.Greater(t, len(stored), len(pt))

	info, err := Inspect(stored)
	require.NoError(t, err)
	assert.Equal(t, compress.CodecStore, info.Codec)
}

func TestOpenWrongPassphrase(t *testing.T) {
	for _, suite := range suites {
		blob, err := Seal([]byte("secret"), []byte("right"), fastOptions(suite))
		require.NoError(t, err)

		out, err := Open(blob, []byte("wrong"))
		assert.Nil(t, out)
		assert.ErrorIs(t, err, xform.ErrAuthentication, suite.String())
		assert.ErrorIs(t, err, xform.ErrIntegrity)
	}
}

func TestOpenDetectsEveryModifiedByte(t *testing.T) {
	for _, suite := range suites {
		blob, err := Seal([]byte("tamper evident"), []byte("pw"), fastOptions(suite))
		require.NoError(t, err)

		for i := range blob {
			tampered := append([]byte(nil), blob...)
			tampered[i] ^= 0x01
			out, err := Open(tampered, []byte("pw"))
			require.Error(t, err, "%s: flipped byte %d was accepted", suite, i)
			assert.Nil(t, out)
			assert.True(t,
				errors.Is(err, xform.ErrAuthentication) || errors.Is(err, xform.ErrMalformedInput),
				"%s: byte %d: unexpected error %v", suite, i, err)
		}
	}
}

func TestOpenTruncated(t *testing.T) {
	for _, suite := range suites {
		blob, err := Seal([]byte("cut short"), []byte("pw"), fastOptions(suite))
		require.NoError(t, err)

		_, err = Open(blob[:len(blob)-1], []byte("pw"))
		assert.ErrorIs(t, err, xform.ErrAuthentication)

		_, err = Open(blob[:prefixSize+2], []byte("pw"))
		assert.ErrorIs(t, err, xform.ErrMalformedInput)

		_, err = Open(blob[:4], []byte("pw"))
		assert.ErrorIs(t, err, xform.ErrMalformedInput)
	}
}

func TestOpenRejectsForeignInput(t *testing.T) {
	_, err := Open([]byte("just some text"), []byte("pw"))
	assert.ErrorIs(t, err, xform.ErrMalformedInput)

	container, err := compress.Compress([]byte("not sealed"), compress.DefaultCompression)
	require.NoError(t, err)
	assert.False(t, IsSealed(container))
	_, err = Open(container, []byte("pw"))
	assert.ErrorIs(t, err, xform.ErrMalformedInput)

	assert.False(t, IsSealed(nil))
	assert.False(t, IsSealed([]byte("XFE")))
}

func TestOpenRejectsHostileHeader(t *testing.T) {
	h := &header{
		Suite:      SuiteAESCBCHMAC,
		PRF:        kdf.PRFSHA1,
		Iterations: MaxIterations + 1,
		Salt:       make([]byte, DefaultSaltSize),
		Nonce:      make([]byte, 16),
		Codec:      compress.CodecDeflate,
		Level:      6,
	}
	prefix, err := appendPrefix(nil, h)
	require.NoError(t, err)
	_, err = Open(append(prefix, make([]byte, 48)...), []byte("pw"))
	assert.ErrorIs(t, err, xform.ErrMalformedInput)

	h.Iterations = 1000
	h.Nonce = make([]byte, 24)
	prefix, err = appendPrefix(nil, h)
	require.NoError(t, err)
	_, err = Open(append(prefix, make([]byte, 48)...), []byte("pw"))
	assert.ErrorIs(t, err, xform.ErrMalformedInput, "nonce size must match the suite")
}

func TestSealIsDeterministicForFixedRandomness(t *testing.T) {
	seal := func() []byte {
		opts := fastOptions(SuiteAESCBCHMAC)
		opts.Rand = rand.New(rand.NewSource(42))
		blob, err := Seal([]byte("same input"), []byte("pw"), opts)
		require.NoError(t, err)
		return blob
	}
	assert.Equal(t, seal(), seal())

	a, err := Seal([]byte("same input"), []byte("pw"), fastOptions(SuiteAESCBCHMAC))
	require.NoError(t, err)
	b, err := Seal([]byte("same input"), []byte("pw"), fastOptions(SuiteAESCBCHMAC))
	require.NoError(t, err)
	assert.NotEqual(t, a, b, "fresh salt and nonce per call")
}

func TestInspect(t *testing.T) {
	opts := fastOptions(SuiteXChaCha20Poly1305)
	opts.PRF = kdf.PRFSHA256
	opts.SaltSize = 32
	opts.Codec = compress.CodecZstd
	opts.Level = 3

	blob, err := Seal([]byte("inspect me"), []byte("pw"), opts)
	require.NoError(t, err)

	info, err := Inspect(blob)
	require.NoError(t, err)
	assert.Equal(t, SuiteXChaCha20Poly1305, info.Suite)
	assert.Equal(t, kdf.PRFSHA256, info.PRF)
	assert.Equal(t, 1000, info.Iterations)
	assert.Equal(t, 32, info.SaltSize)
	assert.Equal(t, compress.CodecZstd, info.Codec)
	assert.Equal(t, 3, info.Level)
	assert.Positive(t, info.BodySize)
}

func TestSealInvalidOptions(t *testing.T) {
	cases := map[string]func(*Options){
		"suite":      func(o *Options) { o.Suite = 9 },
		"prf":        func(o *Options) { o.PRF = 9 },
		"iterations": func(o *Options) { o.Iterations = -1 },
		"salt":       func(o *Options) { o.SaltSize = 4 },
		"codec":      func(o *Options) { o.Codec = 77 },
		"level":      func(o *Options) { o.Level = 10 },
	}
	for name, mutate := range cases {
		opts := fastOptions(SuiteAESCBCHMAC)
		mutate(&opts)
		_, err := Seal([]byte("x"), []byte("pw"), opts)
		assert.ErrorIs(t, err, xform.ErrInvalidParameter, name)
	}
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("entropy exhausted") }

func TestSealPropagatesRandomFailure(t *testing.T) {
	opts := fastOptions(SuiteAESCBCHMAC)
	opts.Rand = failingReader{}
	_, err := Seal([]byte("x"), []byte("pw"), opts)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "entropy exhausted")
}

func TestParseSuite(t *testing.T) {
	for _, s := range suites {
		got, err := ParseSuite(s.String())
		require.NoError(t, err)
		assert.Equal(t, s, got)
	}
	_, err := ParseSuite("rot13")
	assert.ErrorIs(t, err, xform.ErrInvalidParameter)
}

func BenchmarkSealOpen(b *testing.B) {
	pt := bytes.Repeat([]byte("bench "), 1024)
	opts := fastOptions(SuiteXChaCha20Poly1305)
	b.SetBytes(int64(len(pt)))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		blob, err := Seal(pt, []byte("pw"), opts)
		if err != nil {
			b.Fatalf("Seal: %v", err)
		}
		if _, err := Open(blob, []byte("pw")); err != nil {
			b.Fatalf("Open: %v", err)
		}
	}
}
