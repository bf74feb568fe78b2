package aescbc

import (
	"crypto/subtle"

	"github.com/TheusHen/xform/xform"
)

// Pad returns a new buffer with PKCS#7 padding for blockSize (1..255).
// Between 1 and blockSize bytes are always added.
func Pad(data []byte, blockSize int) ([]byte, error) {
	if blockSize < 1 || blockSize > 255 {
		return nil, xform.NewParameterError("block size", blockSize, nil)
	}
	n := blockSize - len(data)%blockSize
	out := make([]byte, len(data)+n)
	copy(out, data)
	for i := len(data); i < len(out); i++ {
		out[i] = byte(n)
	}
	return out, nil
}

// Unpad returns a new buffer holding data without its PKCS#7 padding.
func Unpad(data []byte, blockSize int) ([]byte, error) {
	if blockSize < 1 || blockSize > 255 {
		return nil, xform.NewParameterError("block size", blockSize, nil)
	}
	trimmed, err := unpad(data, blockSize)
	if err != nil {
		return nil, err
	}
	out := make([]byte, len(trimmed))
	copy(out, trimmed)
	return out, nil
}

// unpad strips padding in place; the result aliases data. Every candidate pad
// byte is inspected so the running time depends only on len(data), not on
// where the padding breaks.
func unpad(data []byte, blockSize int) ([]byte, error) {
	if len(data) == 0 || len(data)%blockSize != 0 {
		return nil, xform.ErrPadding
	}

	n := int(data[len(data)-1])
	good := subtle.ConstantTimeLessOrEq(1, n) & subtle.ConstantTimeLessOrEq(n, blockSize)

	tail := data[len(data)-blockSize:]
	for i := 0; i < blockSize; i++ {
		// Positions inside the pad must equal n.
		inPad := subtle.ConstantTimeLessOrEq(blockSize, i+n)
		match := subtle.ConstantTimeByteEq(tail[i], byte(n))
		good &= subtle.ConstantTimeSelect(inPad, match, 1)
	}
	if good != 1 {
		return nil, xform.ErrPadding
	}
	return data[:len(data)-n], nil
}

// AlignForBlockSize returns a copy of data zero-padded up to a multiple of n.
// Already aligned input, including empty input, is copied unchanged.
func AlignForBlockSize(data []byte, n int) ([]byte, error) {
	if n < 1 {
		return nil, xform.NewParameterError("block size", n, nil)
	}
	size := len(data)
	if rem := size % n; rem != 0 {
		size += n - rem
	}
	out := make([]byte, size)
	copy(out, data)
	return out, nil
}
