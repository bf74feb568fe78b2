package envelope

import (
	"crypto/rand"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/TheusHen/xform/xform"
	"github.com/TheusHen/xform/xform/compress"
	"github.com/TheusHen/xform/xform/internal/xlog"
	"github.com/TheusHen/xform/xform/kdf"
)

const (
	// DefaultIterations is the PBKDF2 iteration count for new blobs.
	DefaultIterations = 100000
	// MaxIterations bounds the work an untrusted header can demand.
	MaxIterations = 1 << 24

	DefaultSaltSize = 16
	MinSaltSize     = 8
	MaxSaltSize     = 64

	masterKeySize = 32
	infoPrefix    = "xform.envelope.v1/"
)

// Options controls Seal. Zero fields take their defaults, except Level:
// a zero Level stores the plaintext uncompressed.
type Options struct {
	Suite      Suite
	PRF        kdf.PRF
	Iterations int
	SaltSize   int
	Codec      compress.Codec
	Level      int
	// Rand supplies salt and nonce bytes; nil means crypto/rand.
	Rand io.Reader
}

// DefaultOptions returns the options used by the command line tool.
func DefaultOptions() Options {
	return Options{
		Suite:      DefaultSuite,
		PRF:        kdf.DefaultPRF,
		Iterations: DefaultIterations,
		SaltSize:   DefaultSaltSize,
		Codec:      compress.DefaultCodec,
		Level:      compress.DefaultCompression,
	}
}

func (o Options) withDefaults() (Options, error) {
	if o.Suite == 0 {
		o.Suite = DefaultSuite
	}
	if o.PRF == 0 {
		o.PRF = kdf.DefaultPRF
	}
	if o.Iterations == 0 {
		o.Iterations = DefaultIterations
	}
	if o.SaltSize == 0 {
		o.SaltSize = DefaultSaltSize
	}
	if o.Rand == nil {
		o.Rand = rand.Reader
	}

	switch {
	case !o.Suite.valid():
		return o, xform.NewParameterError("suite", int(o.Suite), nil)
	case !o.PRF.Valid():
		return o, xform.NewParameterError("prf", int(o.PRF), nil)
	case o.Iterations < 1 || o.Iterations > MaxIterations:
		return o, xform.NewParameterError("iterations", o.Iterations, nil)
	case o.SaltSize < MinSaltSize || o.SaltSize > MaxSaltSize:
		return o, xform.NewParameterError("salt size", o.SaltSize, nil)
	case !o.Codec.Valid():
		return o, xform.NewParameterError("codec", int(o.Codec), nil)
	case o.Level < compress.NoCompression || o.Level > compress.BestCompression:
		return o, xform.NewParameterError("level", o.Level, nil)
	}
	return o, nil
}

// Info is the public part of a sealed blob.
type Info struct {
	Suite      Suite
	PRF        kdf.PRF
	Iterations int
	SaltSize   int
	Codec      compress.Codec
	Level      int
	BodySize   int
}

// Seal compresses plaintext and encrypts it under a key derived from
// passphrase. Every call draws a fresh salt and nonce.
func Seal(plaintext, passphrase []byte, opts Options) ([]byte, error) {
	opts, err := opts.withDefaults()
	if err != nil {
		return nil, err
	}

	h := &header{
		Suite:      opts.Suite,
		PRF:        opts.PRF,
		Iterations: opts.Iterations,
		Salt:       make([]byte, opts.SaltSize),
		Nonce:      make([]byte, opts.Suite.nonceSize()),
		Codec:      opts.Codec,
		Level:      opts.Level,
	}
	if opts.Level == compress.NoCompression {
		h.Codec = compress.CodecStore
	}
	if _, err := io.ReadFull(opts.Rand, h.Salt); err != nil {
		return nil, err
	}
	if _, err := io.ReadFull(opts.Rand, h.Nonce); err != nil {
		return nil, err
	}

	container, err := compress.CompressCodec(plaintext, h.Level, h.Codec)
	if err != nil {
		return nil, err
	}
	k, err := deriveKeys(h, passphrase)
	if err != nil {
		return nil, err
	}
	prefix, err := appendPrefix(nil, h)
	if err != nil {
		return nil, err
	}

	xlog.For("envelope", "Seal").WithFields(logrus.Fields{
		"suite":      h.Suite.String(),
		"codec":      h.Codec.String(),
		"iterations": h.Iterations,
	}).Debug("sealing")
	return h.Suite.sealBody(prefix, container, h.Nonce, k)
}

// Open authenticates and decrypts a blob produced by Seal. A wrong passphrase
// and a modified blob both yield xform.ErrAuthentication; a blob that is not
// an envelope at all yields xform.ErrMalformedInput. No plaintext is returned
// unless authentication succeeds.
func Open(blob, passphrase []byte) ([]byte, error) {
	h, bodyOff, err := parsePrefix(blob)
	if err != nil {
		return nil, err
	}
	k, err := deriveKeys(h, passphrase)
	if err != nil {
		return nil, err
	}

	container, err := h.Suite.openBody(blob, bodyOff, h.Nonce, k)
	if err != nil {
		xlog.For("envelope", "Open").WithField("suite", h.Suite.String()).Debug("authentication failed")
		return nil, err
	}
	return compress.Decompress(container)
}

// Inspect decodes the header of blob without a passphrase.
func Inspect(blob []byte) (Info, error) {
	h, bodyOff, err := parsePrefix(blob)
	if err != nil {
		return Info{}, err
	}
	return Info{
		Suite:      h.Suite,
		PRF:        h.PRF,
		Iterations: h.Iterations,
		SaltSize:   len(h.Salt),
		Codec:      h.Codec,
		Level:      h.Level,
		BodySize:   len(blob) - bodyOff,
	}, nil
}

func deriveKeys(h *header, passphrase []byte) (keys, error) {
	master, err := kdf.DeriveWith(h.PRF, passphrase, h.Salt, h.Iterations, masterKeySize)
	if err != nil {
		return keys{}, err
	}
	var k keys
	if k.enc, err = kdf.Expand(master, h.Salt, []byte(infoPrefix+"enc"), 32); err != nil {
		return keys{}, err
	}
	if h.Suite.needsMAC() {
		if k.mac, err = kdf.Expand(master, h.Salt, []byte(infoPrefix+"mac"), 32); err != nil {
			return keys{}, err
		}
	}
	return k, nil
}
