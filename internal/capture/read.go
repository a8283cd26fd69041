package capture

import (
	"bytes"
	"fmt"
	"os"
	"strings"
)

// Format identifies a capture container format.
type Format string

const (
	FormatAuto      Format = "auto"
	FormatHAR       Format = "har"
	FormatMitmproxy Format = "mitm"
)

// ParseFormat validates a user-supplied format name.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(s)) {
	case FormatAuto, "":
		return FormatAuto, nil
	case FormatHAR:
		return FormatHAR, nil
	case FormatMitmproxy:
		return FormatMitmproxy, nil
	}
	return "", fmt.Errorf("unknown capture format %q (want auto, har or mitm)", s)
}

// ReadFile loads all flows from a capture file. With FormatAuto the format
// is chosen by file extension, then by sniffing: HAR files start with a
// JSON object, tnetstring frames with a decimal length prefix.
func ReadFile(path string, format Format) ([]*Flow, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading capture file: %w", err)
	}

	if format == FormatAuto {
		format = detectFormat(path, data)
	}

	switch format {
	case FormatHAR:
		return ReadHAR(data)
	case FormatMitmproxy:
		return ReadMitmproxy(bytes.NewReader(data))
	default:
		return nil, fmt.Errorf("unsupported capture format %q", format)
	}
}

func detectFormat(path string, data []byte) Format {
	if strings.HasSuffix(strings.ToLower(path), ".har") {
		return FormatHAR
	}
	trimmed := bytes.TrimLeft(data, " \t\r\n")
	if len(trimmed) > 0 && trimmed[0] == '{' {
		return FormatHAR
	}
	return FormatMitmproxy
}
