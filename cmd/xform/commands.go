package main

import (
	"context"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/TheusHen/xform/xform/aescbc"
	"github.com/TheusHen/xform/xform/compress"
	"github.com/TheusHen/xform/xform/digest"
	"github.com/TheusHen/xform/xform/encoding"
	"github.com/TheusHen/xform/xform/envelope"
	"github.com/TheusHen/xform/xform/kdf"
)

func runCompress(e *env, args []string) error {
	fs := e.flags("compress")
	codecName := fs.String("codec", "", "store, deflate, lz4, zstd or xz (default from config)")
	level := fs.IntP("level", "l", -1, "compression level 0..9 (default from config)")
	args, err := e.parse(fs, args)
	if err != nil {
		return err
	}

	codec, err := e.cfg.Codec()
	if err != nil {
		return err
	}
	if *codecName != "" {
		if codec, err = compress.ParseCodec(*codecName); err != nil {
			return err
		}
	}
	if *level < 0 {
		*level = e.cfg.Compression.Level
	}

	data, err := e.readInput(args)
	if err != nil {
		return err
	}
	out, err := compress.CompressCodec(data, *level, codec)
	if err != nil {
		return err
	}
	e.log.WithFields(logrus.Fields{"in": len(data), "out": len(out), "codec": codec.String()}).Info("compressed")
	return e.writeOutput(out)
}

func runDecompress(e *env, args []string) error {
	fs := e.flags("decompress")
	lenient := fs.Bool("if-compressed", false, "pass unmarked input through unchanged")
	args, err := e.parse(fs, args)
	if err != nil {
		return err
	}

	data, err := e.readInput(args)
	if err != nil {
		return err
	}
	var out []byte
	if *lenient {
		out, err = compress.DecompressIfCompressed(data)
	} else {
		out, err = compress.Decompress(data)
	}
	if err != nil {
		return err
	}
	return e.writeOutput(out)
}

func runInspect(e *env, args []string) error {
	fs := e.flags("inspect")
	args, err := e.parse(fs, args)
	if err != nil {
		return err
	}
	data, err := e.readInput(args)
	if err != nil {
		return err
	}

	var b strings.Builder
	switch {
	case compress.IsCompressedFormat(data):
		h, err := compress.ParseHeader(data)
		if err != nil {
			return err
		}
		fmt.Fprintf(&b, "format:  compressed container v%d\n", h.Version)
		fmt.Fprintf(&b, "codec:   %s\n", h.Codec)
		fmt.Fprintf(&b, "level:   %d\n", h.Level)
		fmt.Fprintf(&b, "size:    %d\n", h.Size)
		fmt.Fprintf(&b, "payload: %d\n", h.PayloadSize)
		fmt.Fprintf(&b, "crc32:   %08x\n", h.Checksum)
	case envelope.IsSealed(data):
		info, err := envelope.Inspect(data)
		if err != nil {
			return err
		}
		fmt.Fprintf(&b, "format:     sealed envelope v%d\n", envelope.Version)
		fmt.Fprintf(&b, "suite:      %s\n", info.Suite)
		fmt.Fprintf(&b, "prf:        %s\n", info.PRF)
		fmt.Fprintf(&b, "iterations: %d\n", info.Iterations)
		fmt.Fprintf(&b, "salt:       %d bytes\n", info.SaltSize)
		fmt.Fprintf(&b, "codec:      %s\n", info.Codec)
		fmt.Fprintf(&b, "level:      %d\n", info.Level)
		fmt.Fprintf(&b, "body:       %d bytes\n", info.BodySize)
	default:
		fmt.Fprintf(&b, "format: raw (%d bytes)\n", len(data))
	}
	return e.writeOutput([]byte(b.String()))
}

// cbcFlags registers --key and --iv and returns a parser that decodes them.
func cbcFlags(e *env, name string) func([]string) ([]string, []byte, []byte, error) {
	fs := e.flags(name)
	keyHex := fs.StringP("key", "k", "", "AES key in hex (16, 24 or 32 bytes)")
	ivHex := fs.String("iv", "", "IV in hex (16 bytes)")
	parse := func(args []string) ([]string, []byte, []byte, error) {
		rest, err := e.parse(fs, args)
		if err != nil {
			return nil, nil, nil, err
		}
		key, err := decodeHexFlag("key", *keyHex)
		if err != nil {
			return nil, nil, nil, err
		}
		iv, err := decodeHexFlag("iv", *ivHex)
		if err != nil {
			return nil, nil, nil, err
		}
		return rest, key, iv, nil
	}
	return parse
}

func runEncrypt(e *env, args []string) error {
	parse := cbcFlags(e, "encrypt")
	args, key, iv, err := parse(args)
	if err != nil {
		return err
	}
	data, err := e.readInput(args)
	if err != nil {
		return err
	}
	out, err := aescbc.Encrypt(data, key, iv)
	if err != nil {
		return err
	}
	return e.writeOutput(out)
}

func runDecrypt(e *env, args []string) error {
	parse := cbcFlags(e, "decrypt")
	args, key, iv, err := parse(args)
	if err != nil {
		return err
	}
	data, err := e.readInput(args)
	if err != nil {
		return err
	}
	out, err := aescbc.Decrypt(data, key, iv)
	if err != nil {
		return err
	}
	return e.writeOutput(out)
}

func runSeal(e *env, args []string) error {
	fs := e.flags("seal")
	passFile := fs.String("passphrase-file", "", "read the passphrase from `file`")
	suiteName := fs.String("suite", "", "aes-cbc-hmac or xchacha20-poly1305 (default from config)")
	prfName := fs.String("prf", "", "hmac-sha1, hmac-sha256 or hmac-sha512 (default from config)")
	iterations := fs.Int("iterations", 0, "PBKDF2 iterations (default from config)")
	codecName := fs.String("codec", "", "compression codec (default from config)")
	level := fs.IntP("level", "l", -1, "compression level 0..9 (default from config)")
	args, err := e.parse(fs, args)
	if err != nil {
		return err
	}

	opts, err := e.cfg.EnvelopeOptions()
	if err != nil {
		return err
	}
	if *suiteName != "" {
		if opts.Suite, err = envelope.ParseSuite(*suiteName); err != nil {
			return err
		}
	}
	if *prfName != "" {
		if opts.PRF, err = kdf.ParsePRF(*prfName); err != nil {
			return err
		}
	}
	if *iterations != 0 {
		opts.Iterations = *iterations
	}
	if *codecName != "" {
		if opts.Codec, err = compress.ParseCodec(*codecName); err != nil {
			return err
		}
	}
	if *level >= 0 {
		opts.Level = *level
	}

	data, err := e.readInput(args)
	if err != nil {
		return err
	}
	pass, err := e.readPassphrase(*passFile, true)
	if err != nil {
		return err
	}
	out, err := envelope.Seal(data, pass, opts)
	if err != nil {
		return err
	}
	return e.writeOutput(out)
}

func runOpen(e *env, args []string) error {
	fs := e.flags("open")
	passFile := fs.String("passphrase-file", "", "read the passphrase from `file`")
	args, err := e.parse(fs, args)
	if err != nil {
		return err
	}

	data, err := e.readInput(args)
	if err != nil {
		return err
	}
	pass, err := e.readPassphrase(*passFile, false)
	if err != nil {
		return err
	}
	out, err := envelope.Open(data, pass)
	if err != nil {
		return err
	}
	return e.writeOutput(out)
}

func runDigest(e *env, args []string) error {
	fs := e.flags("digest")
	algName := fs.StringP("alg", "a", "sha256", "md5, broken-md5, sha1, sha256 or blake3")
	args, err := e.parse(fs, args)
	if err != nil {
		return err
	}
	alg, err := digest.ParseAlgorithm(*algName)
	if err != nil {
		return err
	}
	data, err := e.readInput(args)
	if err != nil {
		return err
	}
	sum, err := digest.Sum(alg, data)
	if err != nil {
		return err
	}
	return e.writeLine(hex.EncodeToString(sum))
}

func runCRC32(e *env, args []string) error {
	fs := e.flags("crc32")
	args, err := e.parse(fs, args)
	if err != nil {
		return err
	}
	data, err := e.readInput(args)
	if err != nil {
		return err
	}
	return e.writeLine(fmt.Sprintf("%08x", digest.CRC32(data)))
}

func runB64Enc(e *env, args []string) error {
	fs := e.flags("b64enc")
	wrap := fs.BoolP("wrap", "w", false, "break lines (default from config)")
	width := fs.Int("width", 0, "line width when wrapping (default from config)")
	args, err := e.parse(fs, args)
	if err != nil {
		return err
	}

	cfg := *e.cfg
	if *wrap {
		cfg.Base64.LineBreaks = true
	}
	opts := cfg.Base64Options()
	if *width > 0 && cfg.Base64.LineBreaks {
		opts.LineWidth = *width
	}

	data, err := e.readInput(args)
	if err != nil {
		return err
	}
	s, err := encoding.EncodeBase64With(data, opts)
	if err != nil {
		return err
	}
	return e.writeLine(s)
}

func runB64Dec(e *env, args []string) error {
	fs := e.flags("b64dec")
	args, err := e.parse(fs, args)
	if err != nil {
		return err
	}
	data, err := e.readInput(args)
	if err != nil {
		return err
	}
	out, err := encoding.DecodeBase64(string(data))
	if err != nil {
		return err
	}
	return e.writeOutput(out)
}

// runDerive derives one key per --salt, spreading the work over a kdf.Pool.
func runDerive(e *env, args []string) error {
	fs := e.flags("derive")
	passFile := fs.String("passphrase-file", "", "read the passphrase from `file`")
	salts := fs.StringSlice("salt", nil, "salt in hex; repeat for several keys")
	prfName := fs.String("prf", "", "hmac-sha1, hmac-sha256 or hmac-sha512 (default from config)")
	iterations := fs.Int("iterations", 0, "PBKDF2 iterations (default from config)")
	length := fs.Int("length", 32, "key length in bytes")
	workers := fs.Int("workers", 0, "parallel derivations (default: number of CPUs)")
	if _, err := e.parse(fs, args); err != nil {
		return err
	}
	if len(*salts) == 0 {
		return fmt.Errorf("%w: at least one --salt is required", errUsage)
	}

	prf, err := kdf.ParsePRF(e.cfg.KDF.PRF)
	if err != nil {
		return err
	}
	if *prfName != "" {
		if prf, err = kdf.ParsePRF(*prfName); err != nil {
			return err
		}
	}
	iter := e.cfg.KDF.Iterations
	if *iterations != 0 {
		iter = *iterations
	}

	saltBytes := make([][]byte, len(*salts))
	for i, s := range *salts {
		if saltBytes[i], err = decodeHexFlag("salt", s); err != nil {
			return err
		}
	}
	pass, err := e.readPassphrase(*passFile, false)
	if err != nil {
		return err
	}

	pool := kdf.NewPool(*workers)
	defer pool.Close()

	keys := make([][]byte, len(saltBytes))
	g, ctx := errgroup.WithContext(context.Background())
	for i := range saltBytes {
		i := i
		g.Go(func() error {
			key, err := pool.Derive(ctx, kdf.Request{
				PRF:        prf,
				Password:   pass,
				Salt:       saltBytes[i],
				Iterations: iter,
				Length:     *length,
			})
			keys[i] = key
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	var b strings.Builder
	for _, k := range keys {
		b.WriteString(hex.EncodeToString(k))
		b.WriteByte('\n')
	}
	return e.writeOutput([]byte(b.String()))
}
