package kdf

import (
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"fmt"
	"hash"
	"io"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/hkdf"
	"golang.org/x/crypto/pbkdf2"

	"github.com/TheusHen/xform/xform"
	"github.com/TheusHen/xform/xform/internal/xlog"
)

// PRF selects the HMAC hash used inside PBKDF2.
type PRF uint8

const (
	// PRFSHA1 is HMAC-SHA1, the default and the only choice compatible with
	// data derived by older releases.
	PRFSHA1   PRF = 1
	PRFSHA256 PRF = 2
	PRFSHA512 PRF = 3
)

// DefaultPRF is used by Derive.
const DefaultPRF = PRFSHA1

func (p PRF) String() string {
	switch p {
	case PRFSHA1:
		return "hmac-sha1"
	case PRFSHA256:
		return "hmac-sha256"
	case PRFSHA512:
		return "hmac-sha512"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(p))
	}
}

// Valid reports whether p names a supported PRF.
func (p PRF) Valid() bool {
	_, ok := p.hash()
	return ok
}

func (p PRF) hash() (func() hash.Hash, bool) {
	switch p {
	case PRFSHA1:
		return sha1.New, true
	case PRFSHA256:
		return sha256.New, true
	case PRFSHA512:
		return sha512.New, true
	default:
		return nil, false
	}
}

// ParsePRF accepts the names returned by PRF.String, with or without the
// "hmac-" prefix.
func ParsePRF(name string) (PRF, error) {
	switch name {
	case "hmac-sha1", "sha1":
		return PRFSHA1, nil
	case "hmac-sha256", "sha256":
		return PRFSHA256, nil
	case "hmac-sha512", "sha512":
		return PRFSHA512, nil
	default:
		return 0, fmt.Errorf("%w: unknown prf %q", xform.ErrInvalidParameter, name)
	}
}

// Derive runs PBKDF2-HMAC-SHA1 and returns exactly length bytes.
// Empty passwords and salts are allowed. A shorter length yields a prefix of a
// longer one for the same inputs.
func Derive(password, salt []byte, iterations, length int) ([]byte, error) {
	return DeriveWith(DefaultPRF, password, salt, iterations, length)
}

// DeriveWith is Derive with an explicit PRF.
func DeriveWith(prf PRF, password, salt []byte, iterations, length int) ([]byte, error) {
	h, ok := prf.hash()
	if !ok {
		return nil, xform.NewParameterError("prf", int(prf), nil)
	}
	if iterations < 1 {
		return nil, xform.NewParameterError("iterations", iterations, nil)
	}
	if length < 0 {
		return nil, xform.NewParameterError("length", length, nil)
	}
	if length == 0 {
		return []byte{}, nil
	}

	xlog.For("kdf", "DeriveWith").WithFields(logrus.Fields{
		"prf":        prf.String(),
		"iterations": iterations,
		"length":     length,
	}).Debug("deriving key")
	return pbkdf2.Key(password, salt, iterations, length, h), nil
}

// Expand derives length bytes from secret using HKDF-SHA256.
// salt may be nil; info binds the output to its purpose.
func Expand(secret, salt, info []byte, length int) ([]byte, error) {
	if length < 0 || length > 255*sha256.Size {
		return nil, xform.NewParameterError("length", length, nil)
	}
	hk := hkdf.New(sha256.New, secret, salt, info)
	key := make([]byte, length)
	if _, err := io.ReadFull(hk, key); err != nil {
		return nil, err
	}
	return key, nil
}
