package xform

import (
	"errors"
	"fmt"
)

// Error kinds. Callers branch on these with errors.Is to tell
// "this input is corrupt" apart from "the API was used incorrectly".
var (
	ErrInvalidParameter = errors.New("xform: invalid parameter")
	ErrMalformedInput   = errors.New("xform: malformed input")
	ErrIntegrity        = errors.New("xform: integrity check failed")
)

// Specific failures. Each one also matches its kind above.
var (
	ErrInvalidKeyLength        = &kindError{msg: "xform: invalid key length", kind: ErrInvalidParameter}
	ErrInvalidIVLength         = &kindError{msg: "xform: invalid IV length", kind: ErrInvalidParameter}
	ErrInvalidCiphertextLength = &kindError{msg: "xform: ciphertext length is not a positive multiple of the block size", kind: ErrIntegrity}
	ErrPadding                 = &kindError{msg: "xform: invalid padding", kind: ErrIntegrity}
	ErrDecompression           = &kindError{msg: "xform: decompression failed", kind: ErrIntegrity}
	ErrAuthentication          = &kindError{msg: "xform: authentication failed", kind: ErrIntegrity}
)

type kindError struct {
	msg  string
	kind error
}

func (e *kindError) Error() string { return e.msg }

func (e *kindError) Is(target error) bool { return target == e.kind }

// ParameterError reports a caller-supplied value that violates a precondition.
type ParameterError struct {
	Param string
	Value int
	Err   error // more specific cause, defaults to ErrInvalidParameter
}

// NewParameterError builds a ParameterError for param with the offending value.
func NewParameterError(param string, value int, err error) *ParameterError {
	if err == nil {
		err = ErrInvalidParameter
	}
	return &ParameterError{Param: param, Value: value, Err: err}
}

func (e *ParameterError) Error() string {
	return fmt.Sprintf("%v: %s=%d", e.Err, e.Param, e.Value)
}

func (e *ParameterError) Unwrap() error { return e.Err }

func (e *ParameterError) Is(target error) bool { return target == ErrInvalidParameter }

// MalformedInputError reports an input byte that failed structural validation.
type MalformedInputError struct {
	Offset int
	Char   byte
	Reason string
}

func (e *MalformedInputError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("xform: malformed input at offset %d: %s", e.Offset, e.Reason)
	}
	return fmt.Sprintf("xform: malformed input at offset %d: unexpected byte %q", e.Offset, e.Char)
}

func (e *MalformedInputError) Is(target error) bool { return target == ErrMalformedInput }

// DecompressionReason classifies why a container could not be decompressed.
type DecompressionReason uint8

const (
	ReasonTruncated DecompressionReason = iota + 1
	ReasonBadChecksum
	ReasonBadMarker
	// ReasonCorrupt is a complete container whose payload does not decode.
	ReasonCorrupt
)

func (r DecompressionReason) String() string {
	switch r {
	case ReasonTruncated:
		return "truncated"
	case ReasonBadChecksum:
		return "bad-checksum"
	case ReasonBadMarker:
		return "bad-marker"
	case ReasonCorrupt:
		return "corrupt"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(r))
	}
}

// DecompressionError reports a container that failed to decompress.
type DecompressionError struct {
	Reason DecompressionReason
	Err    error // underlying codec error, may be nil
}

func (e *DecompressionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("xform: decompression failed (%s): %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("xform: decompression failed (%s)", e.Reason)
}

func (e *DecompressionError) Unwrap() error { return e.Err }

func (e *DecompressionError) Is(target error) bool {
	return target == ErrDecompression || target == ErrIntegrity
}

// Reason extracts the DecompressionReason from err, or 0 if err is not a DecompressionError.
func Reason(err error) DecompressionReason {
	var de *DecompressionError
	if errors.As(err, &de) {
		return de.Reason
	}
	return 0
}
