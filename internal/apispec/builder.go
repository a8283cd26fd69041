package apispec

import (
	"log/slog"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/usestring/flowspec/internal/capture"
	"github.com/usestring/flowspec/pkg/contenttype"
	"github.com/usestring/flowspec/pkg/schema"
)

// bodyMethods are the HTTP methods considered to carry a request body.
var bodyMethods = map[string]bool{
	"post":  true,
	"put":   true,
	"patch": true,
}

// Warnings accumulates non-fatal diagnostics for one assembly run. It is
// explicit state owned by the caller, so repeated runs in one process stay
// independent and testable.
type Warnings struct {
	mu       sync.Mutex
	seen     map[string]bool
	prefixes []string
}

// NewWarnings creates an empty accumulator.
func NewWarnings() *Warnings {
	return &Warnings{seen: make(map[string]bool)}
}

// recordOutOfScope remembers a mismatching base-path prefix, reporting
// whether it was first seen.
func (w *Warnings) recordOutOfScope(prefix string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.seen[prefix] {
		return false
	}
	w.seen[prefix] = true
	w.prefixes = append(w.prefixes, prefix)
	return true
}

// OutOfScope returns the distinct out-of-scope URL prefixes, sorted.
func (w *Warnings) OutOfScope() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]string, len(w.prefixes))
	copy(out, w.prefixes)
	sort.Strings(out)
	return out
}

// templated caches one Templatize result. Descriptors are shared between
// flows with the same raw path; nothing downstream mutates them.
type templated struct {
	template string
	params   []*Parameter
}

// Builder produces a single-sample path item from one flow.
type Builder struct {
	base      string // base URL without trailing slash, e.g. "api.example.com/v1"
	baseDepth int    // number of "/" in base, for prefix diagnostics
	warnings  *Warnings
	templates *lru.Cache[string, *templated]
}

// NewBuilder creates a builder for the given API base URL. cacheSize
// bounds the memoized Templatize results; captures repeat paths heavily,
// so even a small cache removes most of the regexp work.
func NewBuilder(base string, cacheSize int, warnings *Warnings) (*Builder, error) {
	base = strings.TrimSuffix(base, "/")
	cache, err := lru.New[string, *templated](cacheSize)
	if err != nil {
		return nil, err
	}
	return &Builder{
		base:      base,
		baseDepth: strings.Count(base, "/"),
		warnings:  warnings,
		templates: cache,
	}, nil
}

// Build creates a path item reflecting exactly one flow: one method, one
// status code, possibly a partial schema. Flows outside the base URL are
// rejected (ok=false) after recording a deduplicated diagnostic. Errors
// indicate invariant violations, never bad capture data.
func (b *Builder) Build(flow *capture.Flow) (template string, item *PathItem, ok bool, err error) {
	rawURL := flow.Request.Host + flow.Request.Path

	if !strings.HasPrefix(rawURL, b.base+"/") {
		prefix := urlPrefix(rawURL, b.baseDepth+1)
		if b.warnings.recordOutOfScope(prefix) {
			slog.Warn("flow outside base URL, skipping", "prefix", prefix)
		}
		return "", nil, false, nil
	}
	rest := rawURL[len(b.base):]

	rest, rawQuery, _ := strings.Cut(rest, "?")
	template, pathParams := b.templatize(rest)

	method := strings.ToLower(flow.Request.Method)

	response, err := b.buildResponse(&flow.Response)
	if err != nil {
		return "", nil, false, err
	}

	op := &Operation{
		Responses: map[string]*Response{
			strconv.Itoa(flow.Response.StatusCode): response,
		},
	}

	if bodyMethods[method] {
		body, err := b.buildRequestBody(&flow.Request)
		if err != nil {
			return "", nil, false, err
		}
		op.RequestBody = body
	}

	if rawQuery != "" {
		op.Parameters = queryParameters(rawQuery)
	}

	item = &PathItem{Operations: map[string]*Operation{method: op}}
	if len(pathParams) > 0 {
		item.Parameters = pathParams
	}
	return template, item, true, nil
}

func (b *Builder) templatize(path string) (string, []*Parameter) {
	if cached, ok := b.templates.Get(path); ok {
		return cached.template, cached.params
	}
	template, params := Templatize(path)
	b.templates.Add(path, &templated{template: template, params: params})
	return template, params
}

func (b *Builder) buildResponse(resp *capture.Response) (*Response, error) {
	declared := contenttype.Normalize(capture.HeaderValue(resp.Headers, "Content-Type", ""))
	parsed, mediaType := jsonify(resp.Content, declared)

	mt, err := buildMediaType(parsed)
	if err != nil {
		return nil, err
	}
	return &Response{
		Description: resp.Reason,
		Content:     map[string]*MediaType{mediaType: mt},
	}, nil
}

func (b *Builder) buildRequestBody(req *capture.Request) (*RequestBody, error) {
	declared := contenttype.Normalize(capture.HeaderValue(req.Headers, "Content-Type", ""))
	parsed, mediaType := jsonify(req.Content, declared)

	mt, err := buildMediaType(parsed)
	if err != nil {
		return nil, err
	}
	return &RequestBody{Content: map[string]*MediaType{mediaType: mt}}, nil
}

func buildMediaType(parsed any) (*MediaType, error) {
	sch, err := schema.Infer(parsed)
	if err != nil {
		return nil, err
	}
	return &MediaType{Schema: sch, Example: parsed}, nil
}

// jsonify parses body content into a JSON-equivalent value. JSON is tried
// first regardless of the declared type (and wins the media type when it
// parses), form-encoded bodies become flat string maps under the declared
// type, anything else falls back to the raw string.
func jsonify(content, declared string) (any, string) {
	if v, err := schema.DecodeJSON([]byte(content)); err == nil {
		return v, "application/json"
	}
	if contenttype.IsForm(declared) {
		return parseForm(content), declared
	}
	return content, declared
}

// parseForm splits a form-encoded body into an ordered flat string map.
// Values stay strings; no numeric guessing applies to bodies.
func parseForm(content string) any {
	form := orderedmap.New[string, any]()
	for _, pair := range strings.Split(content, "&") {
		key, value, _ := strings.Cut(pair, "=")
		form.Set(key, value)
	}
	return form
}

// queryParameters decodes a raw query string into parameter descriptors.
// Values get the primitive type guess; query parameters are not required.
func queryParameters(rawQuery string) []*Parameter {
	pairs := strings.Split(rawQuery, "&")
	params := make([]*Parameter, 0, len(pairs))
	for _, pair := range pairs {
		name, value, _ := strings.Cut(pair, "=")
		if decoded, err := url.QueryUnescape(name); err == nil {
			name = decoded
		}
		if decoded, err := url.QueryUnescape(value); err == nil {
			value = decoded
		}
		sch, example := guessType(value)
		params = append(params, &Parameter{
			Name:    name,
			In:      InQuery,
			Schema:  sch,
			Example: example,
		})
	}
	return params
}

// urlPrefix keeps the first n slash-separated components of a URL, used
// for the out-of-scope diagnostic.
func urlPrefix(rawURL string, n int) string {
	parts := strings.Split(rawURL, "/")
	if len(parts) > n {
		parts = parts[:n]
	}
	return strings.Join(parts, "/")
}
