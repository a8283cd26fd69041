// Package schema provides structural schema inference and merging for
// JSON-compatible values, producing OpenAPI 3.0 style schema objects
// (nullable flag, anyOf unions, ordered properties).
package schema

import (
	"fmt"
	"sort"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Schema describes the set of values a field or body may take.
//
// A zero Schema is the empty schema: it matches anything and carries no
// information. The merge algebra treats it as "no constraint".
type Schema struct {
	Type       string                                   `yaml:"type,omitempty" json:"type,omitempty"`
	Nullable   bool                                     `yaml:"nullable,omitempty" json:"nullable,omitempty"`
	Items      *Schema                                  `yaml:"items,omitempty" json:"items,omitempty"`
	Properties *orderedmap.OrderedMap[string, *Schema] `yaml:"properties,omitempty" json:"properties,omitempty"`
	Required   []string                                 `yaml:"required,omitempty" json:"required,omitempty"`
	AnyOf      []*Schema                                `yaml:"anyOf,omitempty" json:"anyOf,omitempty"`
}

// Declared type names.
const (
	TypeString  = "string"
	TypeNumber  = "number"
	TypeBoolean = "boolean"
	TypeNull    = "null"
	TypeArray   = "array"
	TypeObject  = "object"
)

// IsEmpty reports whether s is the empty schema.
func (s *Schema) IsEmpty() bool {
	return s == nil || (s.Type == "" && !s.Nullable && s.Items == nil &&
		s.Properties == nil && s.Required == nil && s.AnyOf == nil)
}

// Infer computes the minimal structural schema for one decoded value.
//
// Supported shapes are string, int64/float64, bool, nil, []any, ordered
// maps from DecodeJSON and plain map[string]any (keys sorted). Anything
// else is an invariant violation: decoded values never contain other types.
func Infer(v any) (*Schema, error) {
	switch val := v.(type) {
	case nil:
		return &Schema{Type: TypeNull}, nil

	case string:
		return &Schema{Type: TypeString}, nil

	case bool:
		return &Schema{Type: TypeBoolean}, nil

	case int64, float64, int, float32:
		return &Schema{Type: TypeNumber}, nil

	case []any:
		if len(val) == 0 {
			return &Schema{Type: TypeArray, Items: &Schema{}}, nil
		}
		items := make([]*Schema, 0, len(val))
		for _, elem := range val {
			s, err := Infer(elem)
			if err != nil {
				return nil, err
			}
			items = append(items, s)
		}
		merged, err := Merge(items)
		if err != nil {
			return nil, err
		}
		return &Schema{Type: TypeArray, Items: merged}, nil

	case *orderedmap.OrderedMap[string, any]:
		props := orderedmap.New[string, *Schema]()
		required := make([]string, 0, val.Len())
		for pair := val.Oldest(); pair != nil; pair = pair.Next() {
			s, err := Infer(pair.Value)
			if err != nil {
				return nil, err
			}
			props.Set(pair.Key, s)
			required = append(required, pair.Key)
		}
		return &Schema{Type: TypeObject, Properties: props, Required: required}, nil

	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		props := orderedmap.New[string, *Schema]()
		for _, k := range keys {
			s, err := Infer(val[k])
			if err != nil {
				return nil, err
			}
			props.Set(k, s)
		}
		return &Schema{Type: TypeObject, Properties: props, Required: keys}, nil

	default:
		return nil, fmt.Errorf("schema: cannot infer schema for value of type %T", v)
	}
}
