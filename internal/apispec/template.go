package apispec

import (
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/usestring/flowspec/pkg/schema"
)

var (
	uuidPattern    = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)
	numericPattern = regexp.MustCompile(`^\d+$`)
)

// isParameter reports whether a path segment looks like a variable value
// rather than a fixed route component. Deliberately coarse: all-digit
// segments and canonical UUIDs only.
func isParameter(segment string) bool {
	return numericPattern.MatchString(segment) || uuidPattern.MatchString(segment)
}

// Templatize replaces parameter-looking segments of a path with
// positional placeholders and returns the matching parameter descriptors.
//
//	/users/42/orders/550e8400-e29b-41d4-a716-446655440000
//	  -> /users/{param0}/orders/{param1}
//
// The placeholder counter advances over parameter segments only. No
// semantic naming is attempted.
func Templatize(path string) (string, []*Parameter) {
	segments := strings.Split(path, "/")[1:] // path starts with "/", drop the empty lead

	out := make([]string, 0, len(segments))
	var params []*Parameter

	for _, segment := range segments {
		if !isParameter(segment) {
			out = append(out, segment)
			continue
		}

		name := fmt.Sprintf("param%d", len(params))
		sch, example := guessType(pathUnescape(segment))
		params = append(params, &Parameter{
			Name:     name,
			In:       InPath,
			Required: true, // path parameters are always required
			Schema:   sch,
			Example:  example,
		})
		out = append(out, "{"+name+"}")
	}

	return "/" + strings.Join(out, "/"), params
}

// guessType guesses a primitive schema from a string value: digit-only
// strings become numbers with the converted value as example, everything
// else stays a string. Callers percent-decode before guessing.
func guessType(value string) (*schema.Schema, any) {
	if numericPattern.MatchString(value) {
		if n, err := strconv.ParseInt(value, 10, 64); err == nil {
			return &schema.Schema{Type: schema.TypeNumber}, n
		}
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return &schema.Schema{Type: schema.TypeNumber}, f
		}
	}
	return &schema.Schema{Type: schema.TypeString}, value
}

// pathUnescape percent-decodes a path segment, keeping the raw text when
// decoding fails.
func pathUnescape(segment string) string {
	if decoded, err := url.PathUnescape(segment); err == nil {
		return decoded
	}
	return segment
}
