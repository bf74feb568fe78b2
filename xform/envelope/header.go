package envelope

import (
	"encoding/binary"

	"github.com/fxamacker/cbor/v2"

	"github.com/TheusHen/xform/xform"
	"github.com/TheusHen/xform/xform/compress"
	"github.com/TheusHen/xform/xform/kdf"
)

const (
	// Magic opens every sealed blob.
	Magic = "XFE"
	// Version is the current blob layout.
	Version = uint8(1)

	prefixSize = len(Magic) + 1 + 2
)

// header is authenticated along with the body. Integer keys keep it compact;
// never renumber them.
type header struct {
	Suite      Suite          `cbor:"1,keyasint"`
	PRF        kdf.PRF        `cbor:"2,keyasint"`
	Iterations int            `cbor:"3,keyasint"`
	Salt       []byte         `cbor:"4,keyasint"`
	Nonce      []byte         `cbor:"5,keyasint"`
	Codec      compress.Codec `cbor:"6,keyasint"`
	Level      int            `cbor:"7,keyasint"`
}

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error

	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("envelope: CBOR encoder initialization failed: " + err.Error())
	}

	decMode, err = cbor.DecOptions{
		DupMapKey:        cbor.DupMapKeyEnforcedAPF,
		IndefLength:      cbor.IndefLengthForbidden,
		MaxNestedLevels:  4,
		MaxMapPairs:      32,
		MaxArrayElements: 32,
	}.DecMode()
	if err != nil {
		panic("envelope: CBOR decoder initialization failed: " + err.Error())
	}
}

// appendPrefix writes magic, version and header to dst and returns it.
func appendPrefix(dst []byte, h *header) ([]byte, error) {
	encoded, err := encMode.Marshal(h)
	if err != nil {
		return nil, err
	}
	if len(encoded) > 0xffff {
		return nil, xform.NewParameterError("header size", len(encoded), nil)
	}
	dst = append(dst, Magic...)
	dst = append(dst, Version)
	dst = binary.BigEndian.AppendUint16(dst, uint16(len(encoded)))
	return append(dst, encoded...), nil
}

// IsSealed reports whether blob starts with the envelope marker.
func IsSealed(blob []byte) bool {
	return len(blob) >= len(Magic)+1 && string(blob[:len(Magic)]) == Magic && blob[len(Magic)] == Version
}

// parsePrefix decodes the header and returns it with the offset of the body.
func parsePrefix(blob []byte) (*header, int, error) {
	if !IsSealed(blob) {
		return nil, 0, &xform.MalformedInputError{Offset: 0, Reason: "missing envelope marker"}
	}
	if len(blob) < prefixSize {
		return nil, 0, &xform.MalformedInputError{Offset: len(blob), Reason: "truncated envelope prefix"}
	}
	n := int(binary.BigEndian.Uint16(blob[len(Magic)+1:]))
	end := prefixSize + n
	if len(blob) < end {
		return nil, 0, &xform.MalformedInputError{Offset: len(blob), Reason: "truncated envelope header"}
	}

	var h header
	if err := decMode.Unmarshal(blob[prefixSize:end], &h); err != nil {
		return nil, 0, &xform.MalformedInputError{Offset: prefixSize, Reason: "invalid envelope header: " + err.Error()}
	}
	if reason := h.validate(); reason != "" {
		return nil, 0, &xform.MalformedInputError{Offset: prefixSize, Reason: reason}
	}
	return &h, end, nil
}

func (h *header) validate() string {
	switch {
	case !h.Suite.valid():
		return "unknown suite"
	case !h.PRF.Valid():
		return "unknown prf"
	case h.Iterations < 1 || h.Iterations > MaxIterations:
		return "iteration count out of range"
	case len(h.Salt) < MinSaltSize || len(h.Salt) > MaxSaltSize:
		return "salt size out of range"
	case len(h.Nonce) != h.Suite.nonceSize():
		return "nonce size does not match suite"
	case !h.Codec.Valid():
		return "unknown codec"
	case h.Level < compress.NoCompression || h.Level > compress.BestCompression:
		return "compression level out of range"
	}
	return ""
}
