package capture

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
)

// HAR 1.2 wire shapes, reduced to the fields the builder needs.
type harFile struct {
	Log harLog `json:"log"`
}

type harLog struct {
	Entries []harEntry `json:"entries"`
}

type harEntry struct {
	Request  harRequest  `json:"request"`
	Response harResponse `json:"response"`
}

type harRequest struct {
	Method   string       `json:"method"`
	URL      string       `json:"url"`
	Headers  []harHeader  `json:"headers"`
	PostData *harPostData `json:"postData"`
}

type harResponse struct {
	Status     int         `json:"status"`
	StatusText string      `json:"statusText"`
	Headers    []harHeader `json:"headers"`
	Content    harContent  `json:"content"`
}

type harHeader struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type harPostData struct {
	MimeType string `json:"mimeType"`
	Text     string `json:"text"`
}

type harContent struct {
	MimeType string `json:"mimeType"`
	Text     string `json:"text"`
	Encoding string `json:"encoding"`
}

// ReadHAR decodes a HAR archive into flows. Entries whose URL does not
// parse are skipped. Base64-encoded response bodies are decoded and then
// reduced to best-effort text like any other payload.
func ReadHAR(data []byte) ([]*Flow, error) {
	var file harFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("decoding HAR: %w", err)
	}

	flows := make([]*Flow, 0, len(file.Log.Entries))
	for _, entry := range file.Log.Entries {
		u, err := url.Parse(entry.Request.URL)
		if err != nil || u.Host == "" {
			continue
		}

		flows = append(flows, &Flow{
			Request: Request{
				Host:    u.Host,
				Path:    u.RequestURI(),
				Method:  entry.Request.Method,
				Headers: harHeaders(entry.Request.Headers, postDataType(entry.Request.PostData)),
				Content: postDataText(entry.Request.PostData),
			},
			Response: Response{
				StatusCode: entry.Response.Status,
				Reason:     entry.Response.StatusText,
				Headers:    harHeaders(entry.Response.Headers, entry.Response.Content.MimeType),
				Content:    harContentText(entry.Response.Content),
			},
		})
	}
	return flows, nil
}

// harHeaders converts HAR headers, synthesizing a Content-Type header from
// the recorded mime type when the capture stripped it.
func harHeaders(headers []harHeader, mimeType string) []Header {
	out := make([]Header, 0, len(headers))
	hasContentType := false
	for _, h := range headers {
		if strings.HasPrefix(h.Name, ":") {
			continue // HTTP/2 pseudo-headers
		}
		out = append(out, Header{Name: h.Name, Value: h.Value})
		if strings.EqualFold(h.Name, "Content-Type") {
			hasContentType = true
		}
	}
	if !hasContentType && mimeType != "" {
		out = append(out, Header{Name: "Content-Type", Value: mimeType})
	}
	return out
}

func postDataType(pd *harPostData) string {
	if pd == nil {
		return ""
	}
	return pd.MimeType
}

func postDataText(pd *harPostData) string {
	if pd == nil {
		return ""
	}
	return pd.Text
}

func harContentText(c harContent) string {
	if c.Encoding == "base64" {
		decoded, err := base64.StdEncoding.DecodeString(c.Text)
		if err != nil {
			return ""
		}
		return toText(decoded)
	}
	return c.Text
}
