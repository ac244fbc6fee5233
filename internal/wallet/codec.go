package wallet

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/mr-tron/base58"
)

// ErrMalformedInput is returned when a base58 string or byte list cannot be decoded.
var ErrMalformedInput = errors.New("malformed input")

// EncodeBase58 returns the base58 form of b (Phantom-style private key export).
func EncodeBase58(b []byte) string { return base58.Encode(b) }

// DecodeBase58 decodes s into raw bytes. The empty string is the encoding of
// the empty byte sequence.
func DecodeBase58(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return []byte{}, nil
	}
	b, err := base58.Decode(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedInput, err)
	}
	return b, nil
}

// FormatByteList renders b as a keygen-file style list, e.g. [1,2,3].
func FormatByteList(b []byte) string {
	var sb strings.Builder
	sb.Grow(len(b)*4 + 2)
	sb.WriteByte('[')
	for i, v := range b {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(strconv.Itoa(int(v)))
	}
	sb.WriteByte(']')
	return sb.String()
}

// ParseByteList parses a bracketed, comma-separated list of decimal bytes.
// Whitespace around brackets and values is ignored.
func ParseByteList(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "[") || !strings.HasSuffix(s, "]") {
		return nil, fmt.Errorf("%w: byte list must be enclosed in brackets", ErrMalformedInput)
	}
	body := strings.TrimSpace(s[1 : len(s)-1])
	if body == "" {
		return []byte{}, nil
	}
	parts := strings.Split(body, ",")
	out := make([]byte, 0, len(parts))
	for i, p := range parts {
		n, err := strconv.ParseUint(strings.TrimSpace(p), 10, 8)
		if err != nil {
			return nil, fmt.Errorf("%w: element %d %q is not a byte", ErrMalformedInput, i, strings.TrimSpace(p))
		}
		out = append(out, byte(n))
	}
	return out, nil
}
