package envelope

import (
	"crypto/hmac"
	"crypto/sha256"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"

	"github.com/TheusHen/xform/xform"
	"github.com/TheusHen/xform/xform/aescbc"
)

// Suite selects the cipher and authenticator of a sealed blob.
type Suite uint8

const (
	// SuiteAESCBCHMAC is AES-256-CBC with PKCS#7 padding followed by
	// HMAC-SHA256 (encrypt-then-MAC).
	SuiteAESCBCHMAC Suite = 1
	// SuiteXChaCha20Poly1305 is XChaCha20-Poly1305 with a random 24-byte nonce.
	SuiteXChaCha20Poly1305 Suite = 2
)

// DefaultSuite is used when Options.Suite is zero.
const DefaultSuite = SuiteAESCBCHMAC

const macSize = sha256.Size

func (s Suite) String() string {
	switch s {
	case SuiteAESCBCHMAC:
		return "aes-cbc-hmac"
	case SuiteXChaCha20Poly1305:
		return "xchacha20-poly1305"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(s))
	}
}

func (s Suite) valid() bool {
	return s == SuiteAESCBCHMAC || s == SuiteXChaCha20Poly1305
}

// ParseSuite parses the name returned by Suite.String.
func ParseSuite(name string) (Suite, error) {
	switch name {
	case "aes-cbc-hmac", "aes":
		return SuiteAESCBCHMAC, nil
	case "xchacha20-poly1305", "xchacha":
		return SuiteXChaCha20Poly1305, nil
	default:
		return 0, fmt.Errorf("%w: unknown suite %q", xform.ErrInvalidParameter, name)
	}
}

func (s Suite) nonceSize() int {
	switch s {
	case SuiteAESCBCHMAC:
		return aescbc.IVSize
	case SuiteXChaCha20Poly1305:
		return chacha20poly1305.NonceSizeX
	default:
		return 0
	}
}

// needsMAC reports whether the suite authenticates with a separate HMAC key.
func (s Suite) needsMAC() bool { return s == SuiteAESCBCHMAC }

type keys struct {
	enc []byte
	mac []byte
}

// sealBody encrypts plaintext and appends the body to prefix, which is
// authenticated as well.
func (s Suite) sealBody(prefix, plaintext, nonce []byte, k keys) ([]byte, error) {
	switch s {
	case SuiteAESCBCHMAC:
		ct, err := aescbc.Encrypt(plaintext, k.enc, nonce)
		if err != nil {
			return nil, err
		}
		out := make([]byte, 0, len(prefix)+len(ct)+macSize)
		out = append(out, prefix...)
		out = append(out, ct...)
		m := hmac.New(sha256.New, k.mac)
		m.Write(out)
		return m.Sum(out), nil

	case SuiteXChaCha20Poly1305:
		aead, err := chacha20poly1305.NewX(k.enc)
		if err != nil {
			return nil, err
		}
		out := make([]byte, len(prefix), len(prefix)+len(plaintext)+aead.Overhead())
		copy(out, prefix)
		return aead.Seal(out, nonce, plaintext, prefix), nil

	default:
		return nil, xform.NewParameterError("suite", int(s), nil)
	}
}

// openBody authenticates blob and returns the decrypted body. blob[:bodyOff]
// is the authenticated prefix.
func (s Suite) openBody(blob []byte, bodyOff int, nonce []byte, k keys) ([]byte, error) {
	prefix, body := blob[:bodyOff], blob[bodyOff:]

	switch s {
	case SuiteAESCBCHMAC:
		if len(body) < aescbc.BlockSize+macSize {
			return nil, xform.ErrAuthentication
		}
		split := len(blob) - macSize
		m := hmac.New(sha256.New, k.mac)
		m.Write(blob[:split])
		if !hmac.Equal(m.Sum(nil), blob[split:]) {
			return nil, xform.ErrAuthentication
		}
		return aescbc.Decrypt(blob[bodyOff:split], k.enc, nonce)

	case SuiteXChaCha20Poly1305:
		aead, err := chacha20poly1305.NewX(k.enc)
		if err != nil {
			return nil, err
		}
		if len(body) < aead.Overhead() {
			return nil, xform.ErrAuthentication
		}
		out, err := aead.Open(nil, nonce, body, prefix)
		if err != nil {
			return nil, xform.ErrAuthentication
		}
		return out, nil

	default:
		return nil, xform.NewParameterError("suite", int(s), nil)
	}
}
