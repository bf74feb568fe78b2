// Package encoding provides text-safe Base64 encoding of byte buffers.
//
// Encoding follows RFC 4648 with the standard alphabet and '=' padding. Decoding skips
// spaces, tabs, carriage returns and line feeds, and rejects every other byte outside
// the alphabet instead of silently dropping it.
package encoding

import (
	"encoding/base64"
	"errors"
	"strings"

	"github.com/TheusHen/xform/xform"
	"github.com/TheusHen/xform/xform/internal/xlog"
)

const (
	// DefaultLineWidth is the column at which EncodeBase64 breaks lines.
	DefaultLineWidth = 64
	// DefaultLineEnding terminates each line except the last.
	DefaultLineEnding = "\n"
)

// EncodeOptions controls line breaking. LineWidth must be a multiple of 4 so
// that lines end on quantum boundaries; 0 disables breaks.
type EncodeOptions struct {
	LineWidth  int
	LineEnding string
}

// EncodeBase64 encodes data. With insertLineBreaks, lines are DefaultLineWidth
// characters long and separated by DefaultLineEnding, with no trailing terminator.
func EncodeBase64(data []byte, insertLineBreaks bool) string {
	s := base64.StdEncoding.EncodeToString(data)
	if !insertLineBreaks {
		return s
	}
	return wrap(s, DefaultLineWidth, DefaultLineEnding)
}

// EncodeBase64With encodes data using opts. LineEnding may only contain '\r' and '\n'
// so that DecodeBase64 can skip it; an empty LineEnding means DefaultLineEnding.
func EncodeBase64With(data []byte, opts EncodeOptions) (string, error) {
	if opts.LineWidth < 0 || opts.LineWidth%4 != 0 {
		return "", xform.NewParameterError("line width", opts.LineWidth, nil)
	}
	ending := opts.LineEnding
	if ending == "" {
		ending = DefaultLineEnding
	}
	if strings.Trim(ending, "\r\n") != "" {
		return "", xform.NewParameterError("line ending", len(ending), nil)
	}
	s := base64.StdEncoding.EncodeToString(data)
	if opts.LineWidth == 0 {
		return s, nil
	}
	return wrap(s, opts.LineWidth, ending), nil
}

func wrap(s string, width int, ending string) string {
	if len(s) <= width {
		return s
	}
	lines := (len(s) + width - 1) / width
	var b strings.Builder
	b.Grow(len(s) + (lines-1)*len(ending))
	for i := 0; i < len(s); i += width {
		if i > 0 {
			b.WriteString(ending)
		}
		end := i + width
		if end > len(s) {
			end = len(s)
		}
		b.WriteString(s[i:end])
	}
	return b.String()
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\r' || c == '\n'
}

func isAlphabet(c byte) bool {
	switch {
	case c >= 'A' && c <= 'Z', c >= 'a' && c <= 'z', c >= '0' && c <= '9':
		return true
	case c == '+' || c == '/':
		return true
	}
	return false
}

// DecodeBase64 decodes s. Whitespace is skipped; any other byte outside the alphabet,
// misplaced padding or an incomplete final quantum yields a *xform.MalformedInputError
// whose Offset indexes s.
func DecodeBase64(s string) ([]byte, error) {
	compact := make([]byte, 0, len(s))
	pos := make([]int, 0, len(s))
	pads := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case isSpace(c):
			continue
		case c == '=':
			pads++
			if pads > 2 {
				return nil, malformed(i, c, "too much padding")
			}
		case isAlphabet(c):
			if pads > 0 {
				return nil, malformed(i, c, "data after padding")
			}
		default:
			return nil, malformed(i, c, "")
		}
		compact = append(compact, c)
		pos = append(pos, i)
	}

	if len(compact)%4 != 0 {
		return nil, malformed(len(s), 0, "incomplete final quantum")
	}

	out := make([]byte, base64.StdEncoding.DecodedLen(len(compact)))
	n, err := base64.StdEncoding.Decode(out, compact)
	if err != nil {
		var corrupt base64.CorruptInputError
		off := len(s)
		if errors.As(err, &corrupt) && int(corrupt) < len(pos) {
			off = pos[int(corrupt)]
		}
		var c byte
		if off < len(s) {
			c = s[off]
		}
		return nil, malformed(off, c, "invalid quantum")
	}
	return out[:n], nil
}

func malformed(off int, c byte, reason string) error {
	xlog.For("encoding", "DecodeBase64").WithField("offset", off).Debug("rejecting malformed base64")
	return &xform.MalformedInputError{Offset: off, Char: c, Reason: reason}
}
