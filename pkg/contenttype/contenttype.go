// Package contenttype provides media-type normalization helpers.
package contenttype

import (
	"mime"
	"strings"
)

// FormURLEncoded is the media type for form-encoded request bodies.
const FormURLEncoded = "application/x-www-form-urlencoded"

// DefaultType is assumed when a message carries no Content-Type header.
const DefaultType = "text/plain"

// Normalize returns the bare media type for a Content-Type header value:
// lowercased, parameters after ';' stripped. Uses mime.ParseMediaType and
// falls back to manual stripping for malformed values. Empty input yields
// DefaultType.
func Normalize(contentType string) string {
	if contentType == "" {
		return DefaultType
	}

	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = contentType
		if idx := strings.Index(mediaType, ";"); idx != -1 {
			mediaType = mediaType[:idx]
		}
		mediaType = strings.ToLower(strings.TrimSpace(mediaType))
	}
	if mediaType == "" {
		return DefaultType
	}
	return mediaType
}

// IsForm reports whether the (normalized) media type is form-urlencoded.
func IsForm(mediaType string) bool {
	return mediaType == FormURLEncoded
}
