// Package config loads defaults for the xform command line tool.
//
// Configuration comes from one YAML file, named either by the --config flag
// or by the XFORM_CONFIG environment variable. Without either, Default is
// used unchanged. Command line flags override whatever the file sets.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/TheusHen/xform/xform/compress"
	"github.com/TheusHen/xform/xform/encoding"
	"github.com/TheusHen/xform/xform/envelope"
	"github.com/TheusHen/xform/xform/kdf"
)

// EnvVar names the environment variable LoadFromEnv reads.
const EnvVar = "XFORM_CONFIG"

// Config is the full tool configuration.
type Config struct {
	Compression CompressionConfig `yaml:"compression"`
	KDF         KDFConfig         `yaml:"kdf"`
	Base64      Base64Config      `yaml:"base64"`
	Envelope    EnvelopeConfig    `yaml:"envelope"`
	Log         LogConfig         `yaml:"log"`
}

// CompressionConfig configures compress and seal.
type CompressionConfig struct {
	// Codec is one of store, deflate, lz4, zstd, xz.
	Codec string `yaml:"codec"`
	// Level is 0..9; 0 stores without compression.
	Level int `yaml:"level"`
}

// KDFConfig configures password-based key derivation.
type KDFConfig struct {
	// PRF is hmac-sha1, hmac-sha256 or hmac-sha512.
	PRF        string `yaml:"prf"`
	Iterations int    `yaml:"iterations"`
}

type Base64Config struct {
	LineBreaks bool `yaml:"line_breaks"`
	LineWidth  int  `yaml:"line_width"`
}

type EnvelopeConfig struct {
	// Suite is aes-cbc-hmac or xchacha20-poly1305.
	Suite    string `yaml:"suite"`
	SaltSize int    `yaml:"salt_size"`
}

type LogConfig struct {
	// Level is any logrus level name.
	Level string `yaml:"level"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Compression: CompressionConfig{
			Codec: compress.DefaultCodec.String(),
			Level: compress.DefaultCompression,
		},
		KDF: KDFConfig{
			PRF:        kdf.DefaultPRF.String(),
			Iterations: envelope.DefaultIterations,
		},
		Base64: Base64Config{
			LineBreaks: false,
			LineWidth:  encoding.DefaultLineWidth,
		},
		Envelope: EnvelopeConfig{
			Suite:    envelope.DefaultSuite.String(),
			SaltSize: envelope.DefaultSaltSize,
		},
		Log: LogConfig{
			Level: logrus.WarnLevel.String(),
		},
	}
}

// LoadFromEnv loads the file named by XFORM_CONFIG, or returns Default when
// the variable is unset or empty.
func LoadFromEnv() (*Config, error) {
	path := os.Getenv(EnvVar)
	if path == "" {
		return Default(), nil
	}
	return Load(path)
}

// Load reads path over Default and validates the result. Unknown keys are
// rejected so that typos do not silently fall back to defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML over Default and validates the result.
func Parse(data []byte) (*Config, error) {
	cfg := Default()

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks every field and reports all problems at once.
func (c *Config) Validate() error {
	var errs []error

	if _, err := compress.ParseCodec(c.Compression.Codec); err != nil {
		errs = append(errs, fmt.Errorf("compression.codec: %w", err))
	}
	if c.Compression.Level < compress.NoCompression || c.Compression.Level > compress.BestCompression {
		errs = append(errs, fmt.Errorf("compression.level must be 0..9, got %d", c.Compression.Level))
	}
	if _, err := kdf.ParsePRF(c.KDF.PRF); err != nil {
		errs = append(errs, fmt.Errorf("kdf.prf: %w", err))
	}
	if c.KDF.Iterations < 1 || c.KDF.Iterations > envelope.MaxIterations {
		errs = append(errs, fmt.Errorf("kdf.iterations must be 1..%d, got %d", envelope.MaxIterations, c.KDF.Iterations))
	}
	if c.Base64.LineWidth < 0 || c.Base64.LineWidth%4 != 0 {
		errs = append(errs, fmt.Errorf("base64.line_width must be a non-negative multiple of 4, got %d", c.Base64.LineWidth))
	}
	if _, err := envelope.ParseSuite(c.Envelope.Suite); err != nil {
		errs = append(errs, fmt.Errorf("envelope.suite: %w", err))
	}
	if c.Envelope.SaltSize < envelope.MinSaltSize || c.Envelope.SaltSize > envelope.MaxSaltSize {
		errs = append(errs, fmt.Errorf("envelope.salt_size must be %d..%d, got %d",
			envelope.MinSaltSize, envelope.MaxSaltSize, c.Envelope.SaltSize))
	}
	if _, err := logrus.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}

	return errors.Join(errs...)
}

// Codec returns the parsed compression codec.
func (c *Config) Codec() (compress.Codec, error) {
	return compress.ParseCodec(c.Compression.Codec)
}

// EnvelopeOptions converts the configuration into options for envelope.Seal.
func (c *Config) EnvelopeOptions() (envelope.Options, error) {
	opts := envelope.DefaultOptions()

	suite, err := envelope.ParseSuite(c.Envelope.Suite)
	if err != nil {
		return opts, err
	}
	prf, err := kdf.ParsePRF(c.KDF.PRF)
	if err != nil {
		return opts, err
	}
	codec, err := c.Codec()
	if err != nil {
		return opts, err
	}

	opts.Suite = suite
	opts.PRF = prf
	opts.Iterations = c.KDF.Iterations
	opts.SaltSize = c.Envelope.SaltSize
	opts.Codec = codec
	opts.Level = c.Compression.Level
	return opts, nil
}

// Base64Options returns the encoder options; line breaks off means width 0.
// With line breaks on, an unset width falls back to encoding.DefaultLineWidth.
func (c *Config) Base64Options() encoding.EncodeOptions {
	if !c.Base64.LineBreaks {
		return encoding.EncodeOptions{}
	}
	width := c.Base64.LineWidth
	if width == 0 {
		width = encoding.DefaultLineWidth
	}
	return encoding.EncodeOptions{LineWidth: width, LineEnding: encoding.DefaultLineEnding}
}

// LogLevel returns the parsed log level.
func (c *Config) LogLevel() logrus.Level {
	lvl, err := logrus.ParseLevel(c.Log.Level)
	if err != nil {
		return logrus.WarnLevel
	}
	return lvl
}
