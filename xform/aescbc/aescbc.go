package aescbc

import (
	"crypto/aes"
	"crypto/cipher"

	"github.com/TheusHen/xform/xform"
	"github.com/TheusHen/xform/xform/internal/xlog"
)

const (
	// BlockSize is the AES block size in bytes.
	BlockSize = aes.BlockSize
	// IVSize is the required IV length.
	IVSize = aes.BlockSize

	KeySize128 = 16
	KeySize192 = 24
	KeySize256 = 32
)

func validKeySize(n int) bool {
	return n == KeySize128 || n == KeySize192 || n == KeySize256
}

func newBlock(key, iv []byte) (cipher.Block, error) {
	if !validKeySize(len(key)) {
		return nil, xform.ErrInvalidKeyLength
	}
	if len(iv) != IVSize {
		return nil, xform.ErrInvalidIVLength
	}
	return aes.NewCipher(key)
}

// Encrypt pads plaintext with PKCS#7 and encrypts it under key and iv.
// The result is always a non-empty multiple of BlockSize; an empty plaintext
// yields exactly one block.
func Encrypt(plaintext, key, iv []byte) ([]byte, error) {
	block, err := newBlock(key, iv)
	if err != nil {
		return nil, err
	}

	out, err := Pad(plaintext, BlockSize)
	if err != nil {
		return nil, err
	}
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(out, out)
	return out, nil
}

// Decrypt reverses Encrypt. A wrong key or IV normally surfaces as
// xform.ErrPadding, but may also decrypt to garbage with valid-looking padding.
func Decrypt(ciphertext, key, iv []byte) ([]byte, error) {
	block, err := newBlock(key, iv)
	if err != nil {
		return nil, err
	}
	if len(ciphertext) == 0 || len(ciphertext)%BlockSize != 0 {
		return nil, xform.ErrInvalidCiphertextLength
	}

	buf := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(buf, ciphertext)

	out, err := unpad(buf, BlockSize)
	if err != nil {
		xlog.For("aescbc", "Decrypt").WithField("length", len(ciphertext)).Debug("padding check failed")
		return nil, err
	}
	return out, nil
}
