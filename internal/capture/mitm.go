package capture

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/usestring/flowspec/pkg/tnetstring"
)

// ReadMitmproxy decodes a mitmproxy dump stream into flows. Frames that
// are not complete HTTP exchanges (TCP flows, requests without a stored
// response) are skipped with a debug log, not an error.
func ReadMitmproxy(r io.Reader) ([]*Flow, error) {
	frames, err := tnetstring.DecodeAll(r)
	if err != nil {
		return nil, fmt.Errorf("decoding mitmproxy dump: %w", err)
	}

	flows := make([]*Flow, 0, len(frames))
	for i, frame := range frames {
		state, ok := frame.(map[string]any)
		if !ok {
			slog.Debug("skipping non-dict frame", "frame", i)
			continue
		}
		flow, ok := flowFromState(state)
		if !ok {
			slog.Debug("skipping frame without request/response", "frame", i)
			continue
		}
		flows = append(flows, flow)
	}
	return flows, nil
}

// flowFromState extracts a flow from one mitmproxy flow-state dict.
// mitmproxy stores most strings as byte strings; everything textual goes
// through best-effort UTF-8 decoding.
func flowFromState(state map[string]any) (*Flow, bool) {
	req, ok := state["request"].(map[string]any)
	if !ok {
		return nil, false
	}
	resp, ok := state["response"].(map[string]any)
	if !ok {
		return nil, false
	}

	return &Flow{
		Request: Request{
			Host:    stateText(req["host"]),
			Path:    stateText(req["path"]),
			Method:  stateText(req["method"]),
			Headers: stateHeaders(req["headers"]),
			Content: stateText(req["content"]),
		},
		Response: Response{
			StatusCode: stateInt(resp["status_code"]),
			Reason:     stateText(resp["reason"]),
			Headers:    stateHeaders(resp["headers"]),
			Content:    stateText(resp["content"]),
		},
	}, true
}

func stateText(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case []byte:
		return toText(t)
	default:
		return ""
	}
}

func stateInt(v any) int {
	switch t := v.(type) {
	case int64:
		return int(t)
	case float64:
		return int(t)
	default:
		return 0
	}
}

// stateHeaders converts mitmproxy's header representation, a list of
// (name, value) pairs.
func stateHeaders(v any) []Header {
	pairs, ok := v.([]any)
	if !ok {
		return nil
	}
	headers := make([]Header, 0, len(pairs))
	for _, p := range pairs {
		pair, ok := p.([]any)
		if !ok || len(pair) < 2 {
			continue
		}
		headers = append(headers, Header{
			Name:  stateText(pair[0]),
			Value: stateText(pair[1]),
		})
	}
	return headers
}
