// Package apispec turns captured flows into an OpenAPI 3.0 document:
// per-sample path items are built flow by flow, then algebraically merged
// per URL template into one generalized specification.
package apispec

import "github.com/usestring/flowspec/pkg/schema"

// Document is the top-level OpenAPI envelope.
type Document struct {
	OpenAPI string               `yaml:"openapi" json:"openapi"`
	Info    Info                 `yaml:"info" json:"info"`
	Servers []Server             `yaml:"servers" json:"servers"`
	Paths   map[string]*PathItem `yaml:"paths" json:"paths"`
}

// Info carries the static document metadata.
type Info struct {
	Title   string `yaml:"title" json:"title"`
	Version string `yaml:"version" json:"version"`
}

// Server declares one base URL the documented API is served from.
type Server struct {
	URL string `yaml:"url" json:"url"`
}

// PathItem groups everything observed at one URL template: path-level
// parameters and one Operation per HTTP method.
type PathItem struct {
	Parameters []*Parameter          `yaml:"parameters,omitempty" json:"parameters,omitempty"`
	Operations map[string]*Operation `yaml:",inline" json:"-"`
}

// Operation describes one method on one templated path.
type Operation struct {
	Parameters  []*Parameter         `yaml:"parameters,omitempty" json:"parameters,omitempty"`
	RequestBody *RequestBody         `yaml:"requestBody,omitempty" json:"requestBody,omitempty"`
	Responses   map[string]*Response `yaml:"responses" json:"responses"`
}

// Parameter describes one path or query parameter.
type Parameter struct {
	Name     string         `yaml:"name" json:"name"`
	In       string         `yaml:"in" json:"in"`
	Required bool           `yaml:"required,omitempty" json:"required,omitempty"`
	Schema   *schema.Schema `yaml:"schema" json:"schema"`
	Example  any            `yaml:"example" json:"example"`
}

// Parameter locations.
const (
	InPath  = "path"
	InQuery = "query"
)

// RequestBody holds the request payload per media type.
type RequestBody struct {
	Description string                `yaml:"description,omitempty" json:"description,omitempty"`
	Content     map[string]*MediaType `yaml:"content" json:"content"`
}

// Response holds one observed status code's description and payload.
type Response struct {
	Description string                `yaml:"description" json:"description"`
	Content     map[string]*MediaType `yaml:"content,omitempty" json:"content,omitempty"`
}

// MediaType pairs an inferred schema with one concrete example.
type MediaType struct {
	Schema  *schema.Schema `yaml:"schema" json:"schema"`
	Example any            `yaml:"example" json:"example"`
}
