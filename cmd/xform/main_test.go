package main

import (
	"bytes"
	"encoding/hex"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TheusHen/xform/xform"
)

func runCmd(t *testing.T, stdin []byte, args ...string) ([]byte, error) {
	t.Helper()
	t.Setenv("XFORM_CONFIG", "")
	var stdout, stderr bytes.Buffer
	err := run(args, bytes.NewReader(stdin), &stdout, &stderr)
	return stdout.Bytes(), err
}

func TestCompressDecompress(t *testing.T) {
	input := bytes.Repeat([]byte("pipe me through xform "), 100)
	for _, codec := range []string{"store", "deflate", "lz4", "zstd", "xz"} {
		container, err := runCmd(t, input, "compress", "--codec", codec, "--level", "5")
		require.NoError(t, err, codec)

		out, err := runCmd(t, container, "decompress")
		require.NoError(t, err, codec)
		assert.Equal(t, input, out, codec)
	}

	_, err := runCmd(t, []byte("not a container"), "decompress")
	assert.ErrorIs(t, err, xform.ErrDecompression)

	out, err := runCmd(t, []byte("not a container"), "decompress", "--if-compressed")
	require.NoError(t, err)
	assert.Equal(t, "not a container", string(out))
}

func TestSealOpen(t *testing.T) {
	t.Setenv(passphraseEnv, "hunter2")
	input := []byte("a private note")

	for _, suite := range []string{"aes-cbc-hmac", "xchacha20-poly1305"} {
		blob, err := runCmd(t, input, "seal", "--suite", suite, "--iterations", "1000")
		require.NoError(t, err, suite)

		out, err := runCmd(t, blob, "open")
		require.NoError(t, err, suite)
		assert.Equal(t, input, out)

		info, err := runCmd(t, blob, "inspect")
		require.NoError(t, err)
		assert.Contains(t, string(info), "suite:      "+suite)
		assert.Contains(t, string(info), "iterations: 1000")
	}

	blob, err := runCmd(t, input, "seal", "--iterations", "1000")
	require.NoError(t, err)
	t.Setenv(passphraseEnv, "wrong")
	_, err = runCmd(t, blob, "open")
	assert.ErrorIs(t, err, xform.ErrAuthentication)
}

func TestPassphraseFile(t *testing.T) {
	t.Setenv(passphraseEnv, "")
	dir := t.TempDir()
	passFile := filepath.Join(dir, "pass")
	require.NoError(t, os.WriteFile(passFile, []byte("from a file\n"), 0o600))

	blob, err := runCmd(t, []byte("x"), "seal", "--iterations", "1000", "--passphrase-file", passFile)
	require.NoError(t, err)

	t.Setenv(passphraseEnv, "from a file")
	out, err := runCmd(t, blob, "open")
	require.NoError(t, err)
	assert.Equal(t, "x", string(out))

	t.Setenv(passphraseEnv, "")
	_, err = runCmd(t, blob, "open")
	assert.ErrorIs(t, err, errUsage, "no terminal and no passphrase source")
}

func TestEncryptDecrypt(t *testing.T) {
	key := "2b7e151628aed2a6abf7158809cf4f3c"
	iv := "000102030405060708090a0b0c0d0e0f"
	pt := []byte{0x6b, 0xc1, 0xbe, 0xe2, 0x2e, 0x40, 0x9f, 0x96, 0xe9, 0x3d, 0x7e, 0x11, 0x73, 0x93, 0x17, 0x2a}

	ct, err := runCmd(t, pt, "encrypt", "--key", key, "--iv", iv)
	require.NoError(t, err)
	require.Len(t, ct, 32)
	assert.Equal(t, "7649abac8119b246cee98e9b12e9197d", hex.EncodeToString(ct[:16]))

	out, err := runCmd(t, ct, "decrypt", "-k", key, "--iv", iv)
	require.NoError(t, err)
	assert.Equal(t, pt, out)

	_, err = runCmd(t, pt, "encrypt", "--key", "abcd", "--iv", iv)
	assert.ErrorIs(t, err, xform.ErrInvalidKeyLength)

	_, err = runCmd(t, pt, "encrypt", "--iv", iv)
	assert.ErrorIs(t, err, errUsage)
}

func TestDigests(t *testing.T) {
	out, err := runCmd(t, nil, "digest", "--alg", "md5")
	require.NoError(t, err)
	assert.Equal(t, "d41d8cd98f00b204e9800998ecf8427e\n", string(out))

	out, err = runCmd(t, nil, "digest", "-a", "sha1")
	require.NoError(t, err)
	assert.Equal(t, "da39a3ee5e6b4b0d3255bfef95601890afd80709\n", string(out))

	out, err = runCmd(t, []byte("123456789"), "crc32")
	require.NoError(t, err)
	assert.Equal(t, "cbf43926\n", string(out))

	_, err = runCmd(t, nil, "digest", "--alg", "md4")
	assert.ErrorIs(t, err, xform.ErrInvalidParameter)
}

func TestBase64(t *testing.T) {
	input := bytes.Repeat([]byte{0xfa, 0xce}, 60)

	enc, err := runCmd(t, input, "b64enc", "--wrap")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSuffix(string(enc), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Len(t, lines[0], 64)

	out, err := runCmd(t, enc, "b64dec")
	require.NoError(t, err)
	assert.Equal(t, input, out)

	_, err = runCmd(t, []byte("ab$d"), "b64dec")
	assert.ErrorIs(t, err, xform.ErrMalformedInput)
}

func TestBase64WidthFromConfig(t *testing.T) {
	input := bytes.Repeat([]byte{0xfa, 0xce}, 60)
	path := filepath.Join(t.TempDir(), "xform.yaml")
	require.NoError(t, os.WriteFile(path, []byte("base64:\n  line_breaks: true\n  line_width: 0\n"), 0o600))

	enc, err := runCmd(t, input, "b64enc", "--config", path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSuffix(string(enc), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Len(t, lines[0], 64)

	enc, err = runCmd(t, input, "b64enc", "--config", path, "-w", "--width", "40")
	require.NoError(t, err)
	lines = strings.Split(strings.TrimSuffix(string(enc), "\n"), "\n")
	require.Len(t, lines, 4)
	assert.Len(t, lines[0], 40)

	enc, err = runCmd(t, input, "b64enc", "--width", "40")
	require.NoError(t, err)
	assert.NotContains(t, strings.TrimSuffix(string(enc), "\n"), "\n", "width alone does not wrap")
}

func TestDerive(t *testing.T) {
	t.Setenv(passphraseEnv, "password")
	out, err := runCmd(t, nil, "derive",
		"--salt", "73616c74", "--salt", "73616c74",
		"--iterations", "2", "--length", "20", "--prf", "hmac-sha1")
	require.NoError(t, err)
	assert.Equal(t,
		"ea6c014dc72d6f8ccd1ed92ace1d41f0d8de8957\nea6c014dc72d6f8ccd1ed92ace1d41f0d8de8957\n",
		string(out))

	_, err = runCmd(t, nil, "derive")
	assert.ErrorIs(t, err, errUsage)
}

func TestOutputFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.xfz")
	stdout, err := runCmd(t, []byte("to a file"), "compress", "-o", path)
	require.NoError(t, err)
	assert.Empty(t, stdout)

	out, err := runCmd(t, nil, "decompress", path)
	require.NoError(t, err)
	assert.Equal(t, "to a file", string(out))
}

func TestConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "xform.yaml")
	require.NoError(t, os.WriteFile(path, []byte("compression:\n  codec: lz4\n  level: 1\n"), 0o600))

	container, err := runCmd(t, []byte("configured"), "compress", "--config", path)
	require.NoError(t, err)

	info, err := runCmd(t, container, "inspect")
	require.NoError(t, err)
	assert.Contains(t, string(info), "codec:   lz4")
	assert.Contains(t, string(info), "level:   1")
}

func TestUsageErrors(t *testing.T) {
	_, err := runCmd(t, nil)
	assert.ErrorIs(t, err, errUsage)

	_, err = runCmd(t, nil, "frobnicate")
	assert.ErrorIs(t, err, errUsage)

	_, err = runCmd(t, nil, "crc32", "a", "b")
	assert.ErrorIs(t, err, errUsage)

	_, err = runCmd(t, nil, "crc32", "--no-such-flag")
	assert.ErrorIs(t, err, errUsage)

	_, err = runCmd(t, nil, "help")
	assert.NoError(t, err)
}
