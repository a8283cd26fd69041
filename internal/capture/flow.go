// Package capture decodes recorded HTTP traffic into flow records.
//
// Two container formats are supported: mitmproxy dump files (tnetstring
// framed) and HAR 1.2 archives. Both decode into the same in-memory Flow
// shape; all binary payloads are reduced to best-effort UTF-8 text before
// any inference sees them.
package capture

import (
	"strings"
	"unicode/utf8"
)

// Header is one request or response header. Order and duplicates are
// preserved as captured.
type Header struct {
	Name  string
	Value string
}

// Request is the recorded request half of a flow.
type Request struct {
	Host    string
	Path    string // path plus raw query string, as sent on the wire
	Method  string
	Headers []Header
	Content string
}

// Response is the recorded response half of a flow.
type Response struct {
	StatusCode int
	Reason     string
	Headers    []Header
	Content    string
}

// Flow is one captured request/response exchange.
type Flow struct {
	Request  Request
	Response Response
}

// HeaderValue returns the value of the first header matching name
// case-insensitively, or fallback when absent.
func HeaderValue(headers []Header, name, fallback string) string {
	for _, h := range headers {
		if strings.EqualFold(h.Name, name) {
			return h.Value
		}
	}
	return fallback
}

// toText decodes raw bytes to text. Content that is not valid UTF-8 is
// almost certainly binary and degrades to the empty string rather than
// failing the run.
func toText(b []byte) string {
	if utf8.Valid(b) {
		return string(b)
	}
	return ""
}

// asValue converts a flow to the plain map shape the jq selector runs
// against: scalars, []any and map[string]any only.
func (f *Flow) asValue() map[string]any {
	return map[string]any{
		"request": map[string]any{
			"host":    f.Request.Host,
			"path":    f.Request.Path,
			"method":  f.Request.Method,
			"headers": headersValue(f.Request.Headers),
			"content": f.Request.Content,
		},
		"response": map[string]any{
			"status_code": f.Response.StatusCode,
			"reason":      f.Response.Reason,
			"headers":     headersValue(f.Response.Headers),
			"content":     f.Response.Content,
		},
	}
}

func headersValue(headers []Header) []any {
	out := make([]any, 0, len(headers))
	for _, h := range headers {
		out = append(out, map[string]any{"name": h.Name, "value": h.Value})
	}
	return out
}
