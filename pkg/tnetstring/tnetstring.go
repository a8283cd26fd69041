// Package tnetstring decodes the typed netstring framing used by mitmproxy
// dump files. Each value is encoded as "LENGTH:PAYLOAD TYPE" where TYPE is
// a single trailing byte:
//
//	','  byte string        ';'  unicode string
//	'#'  integer            '^'  float
//	'!'  boolean            '~'  null
//	']'  list               '}'  dictionary
//
// Byte strings decode to []byte, unicode strings to string. Dictionary
// keys must be strings of either flavor.
package tnetstring

import (
	"errors"
	"fmt"
	"io"
	"strconv"
)

// Decoding limits. A corrupt length prefix should fail fast instead of
// attempting a huge allocation.
const maxValueLen = 1 << 28 // 256 MiB

// ErrInvalid reports structurally malformed input.
var ErrInvalid = errors.New("tnetstring: invalid encoding")

// Decode reads a single tnetstring value from r.
func Decode(r io.Reader) (any, error) {
	payload, typ, err := readFrame(r)
	if err != nil {
		return nil, err
	}
	return parsePayload(payload, typ)
}

// DecodeAll reads consecutive tnetstring values until EOF.
func DecodeAll(r io.Reader) ([]any, error) {
	var values []any
	for {
		payload, typ, err := readFrame(r)
		if err == io.EOF {
			return values, nil
		}
		if err != nil {
			return nil, err
		}
		v, err := parsePayload(payload, typ)
		if err != nil {
			return nil, err
		}
		values = append(values, v)
	}
}

// readFrame reads "LENGTH:PAYLOAD TYPE" and returns the payload bytes and
// the type byte. Returns io.EOF only when no bytes of a frame were read.
func readFrame(r io.Reader) ([]byte, byte, error) {
	var lenBuf []byte
	b := make([]byte, 1)
	for {
		if _, err := io.ReadFull(r, b); err != nil {
			if err == io.EOF && len(lenBuf) == 0 {
				return nil, 0, io.EOF
			}
			return nil, 0, fmt.Errorf("%w: truncated length prefix", ErrInvalid)
		}
		if b[0] == ':' {
			break
		}
		if b[0] < '0' || b[0] > '9' {
			return nil, 0, fmt.Errorf("%w: unexpected byte %q in length prefix", ErrInvalid, b[0])
		}
		if len(lenBuf) > 9 {
			return nil, 0, fmt.Errorf("%w: length prefix too long", ErrInvalid)
		}
		lenBuf = append(lenBuf, b[0])
	}
	if len(lenBuf) == 0 {
		return nil, 0, fmt.Errorf("%w: missing length prefix", ErrInvalid)
	}

	n, err := strconv.Atoi(string(lenBuf))
	if err != nil || n > maxValueLen {
		return nil, 0, fmt.Errorf("%w: bad length %q", ErrInvalid, string(lenBuf))
	}

	buf := make([]byte, n+1) // payload plus type byte
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, 0, fmt.Errorf("%w: truncated payload", ErrInvalid)
	}
	return buf[:n], buf[n], nil
}

func parsePayload(payload []byte, typ byte) (any, error) {
	switch typ {
	case ',':
		return payload, nil

	case ';':
		return string(payload), nil

	case '#':
		n, err := strconv.ParseInt(string(payload), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: bad integer %q", ErrInvalid, payload)
		}
		return n, nil

	case '^':
		f, err := strconv.ParseFloat(string(payload), 64)
		if err != nil {
			return nil, fmt.Errorf("%w: bad float %q", ErrInvalid, payload)
		}
		return f, nil

	case '!':
		switch string(payload) {
		case "true":
			return true, nil
		case "false":
			return false, nil
		}
		return nil, fmt.Errorf("%w: bad boolean %q", ErrInvalid, payload)

	case '~':
		if len(payload) != 0 {
			return nil, fmt.Errorf("%w: null with payload", ErrInvalid)
		}
		return nil, nil

	case ']':
		return parseList(payload)

	case '}':
		return parseDict(payload)

	default:
		return nil, fmt.Errorf("%w: unknown type byte %q", ErrInvalid, typ)
	}
}

func parseList(payload []byte) ([]any, error) {
	items := make([]any, 0)
	r := &sliceReader{data: payload}
	for r.len() > 0 {
		inner, typ, err := readFrame(r)
		if err != nil {
			return nil, err
		}
		v, err := parsePayload(inner, typ)
		if err != nil {
			return nil, err
		}
		items = append(items, v)
	}
	return items, nil
}

func parseDict(payload []byte) (map[string]any, error) {
	dict := make(map[string]any)
	r := &sliceReader{data: payload}
	for r.len() > 0 {
		keyPayload, keyType, err := readFrame(r)
		if err != nil {
			return nil, err
		}
		keyVal, err := parsePayload(keyPayload, keyType)
		if err != nil {
			return nil, err
		}
		var key string
		switch k := keyVal.(type) {
		case string:
			key = k
		case []byte:
			key = string(k)
		default:
			return nil, fmt.Errorf("%w: dict key of type %T", ErrInvalid, keyVal)
		}

		if r.len() == 0 {
			return nil, fmt.Errorf("%w: dict key %q without value", ErrInvalid, key)
		}
		valPayload, valType, err := readFrame(r)
		if err != nil {
			return nil, err
		}
		val, err := parsePayload(valPayload, valType)
		if err != nil {
			return nil, err
		}
		dict[key] = val
	}
	return dict, nil
}

// sliceReader is a minimal io.Reader over a byte slice that exposes the
// remaining length, used for nested frames.
type sliceReader struct {
	data []byte
	off  int
}

func (s *sliceReader) len() int { return len(s.data) - s.off }

func (s *sliceReader) Read(p []byte) (int, error) {
	if s.off >= len(s.data) {
		return 0, io.EOF
	}
	n := copy(p, s.data[s.off:])
	s.off += n
	return n, nil
}
