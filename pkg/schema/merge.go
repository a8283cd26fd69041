package schema

import (
	"errors"
	"fmt"
	"sort"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Options controls merge behavior.
type Options struct {
	// StrictRequired marks an object property as required only when every
	// merged input requires it. The default (false) keeps the union of the
	// inputs' required sets, so a key seen in a single sample stays
	// required.
	StrictRequired bool
}

// Merge computes the least-general schema consistent with every input,
// using default options. The input must be non-empty.
func Merge(schemas []*Schema) (*Schema, error) {
	return MergeWithOptions(nil, schemas)
}

// MergeWithOptions merges schemas with explicit options.
func MergeWithOptions(opts *Options, schemas []*Schema) (*Schema, error) {
	if opts == nil {
		opts = &Options{}
	}
	if len(schemas) == 0 {
		return nil, errors.New("schema: merge of empty schema list")
	}

	// Empty schemas carry no constraint.
	kept := make([]*Schema, 0, len(schemas))
	for _, s := range schemas {
		if !s.IsEmpty() {
			kept = append(kept, s)
		}
	}
	if len(kept) == 0 {
		return &Schema{}, nil
	}
	if len(kept) == 1 {
		return kept[0], nil
	}

	// Flatten: nulls and nullable flags become result nullability, union
	// alternatives join the working set so a union never nests a union.
	nullable := false
	members := make([]*Schema, 0, len(kept))
	for _, s := range kept {
		if s.Nullable {
			nullable = true
		}
		switch {
		case s.Type == TypeNull:
			nullable = true
		case len(s.AnyOf) > 0:
			members = append(members, s.AnyOf...)
		default:
			members = append(members, stripNullable(s))
		}
	}

	if len(members) == 0 {
		// Only nulls were present.
		return &Schema{Nullable: true}, nil
	}

	byType := make(map[string][]*Schema)
	types := make([]string, 0)
	for _, m := range members {
		if _, ok := byType[m.Type]; !ok {
			types = append(types, m.Type)
		}
		byType[m.Type] = append(byType[m.Type], m)
	}
	sort.Strings(types)

	if len(types) > 1 {
		alts := make([]*Schema, 0, len(types))
		for _, t := range types {
			merged, err := mergeSameType(opts, t, byType[t])
			if err != nil {
				return nil, err
			}
			alts = append(alts, merged)
		}
		return &Schema{AnyOf: alts, Nullable: nullable}, nil
	}

	merged, err := mergeSameType(opts, types[0], byType[types[0]])
	if err != nil {
		return nil, err
	}
	if nullable && !merged.Nullable {
		clone := *merged
		clone.Nullable = true
		return &clone, nil
	}
	return merged, nil
}

// mergeSameType merges schemas that share one declared type.
func mergeSameType(opts *Options, typ string, schemas []*Schema) (*Schema, error) {
	if len(schemas) == 1 {
		return schemas[0], nil
	}

	switch typ {
	case TypeString, TypeNumber, TypeBoolean:
		// Same-typed primitives are equivalent.
		return &Schema{Type: typ}, nil

	case TypeArray:
		items := make([]*Schema, 0, len(schemas))
		for _, s := range schemas {
			if s.Items != nil {
				items = append(items, s.Items)
			}
		}
		if len(items) == 0 {
			return &Schema{Type: TypeArray, Items: &Schema{}}, nil
		}
		merged, err := MergeWithOptions(opts, items)
		if err != nil {
			return nil, err
		}
		return &Schema{Type: TypeArray, Items: merged}, nil

	case TypeObject:
		return mergeObjects(opts, schemas)

	default:
		return nil, fmt.Errorf("schema: cannot merge schemas of type %q", typ)
	}
}

// mergeObjects unions property keys in first-seen order; each property is
// merged across only the inputs that have it.
func mergeObjects(opts *Options, schemas []*Schema) (*Schema, error) {
	keys := make([]string, 0)
	seen := make(map[string]bool)
	for _, s := range schemas {
		if s.Properties == nil {
			continue
		}
		for pair := s.Properties.Oldest(); pair != nil; pair = pair.Next() {
			if !seen[pair.Key] {
				seen[pair.Key] = true
				keys = append(keys, pair.Key)
			}
		}
	}

	props := orderedmap.New[string, *Schema]()
	for _, k := range keys {
		group := make([]*Schema, 0, len(schemas))
		for _, s := range schemas {
			if s.Properties == nil {
				continue
			}
			if p, ok := s.Properties.Get(k); ok {
				group = append(group, p)
			}
		}
		merged, err := MergeWithOptions(opts, group)
		if err != nil {
			return nil, fmt.Errorf("property %q: %w", k, err)
		}
		props.Set(k, merged)
	}

	return &Schema{
		Type:       TypeObject,
		Properties: props,
		Required:   mergeRequired(opts, schemas, keys),
	}, nil
}

func mergeRequired(opts *Options, schemas []*Schema, keys []string) []string {
	requiredIn := func(s *Schema, key string) bool {
		for _, r := range s.Required {
			if r == key {
				return true
			}
		}
		return false
	}

	required := make([]string, 0, len(keys))
	for _, k := range keys {
		if opts.StrictRequired {
			all := true
			for _, s := range schemas {
				if !requiredIn(s, k) {
					all = false
					break
				}
			}
			if all {
				required = append(required, k)
			}
			continue
		}
		for _, s := range schemas {
			if requiredIn(s, k) {
				required = append(required, k)
				break
			}
		}
	}
	if len(required) == 0 {
		return nil
	}
	return required
}

func stripNullable(s *Schema) *Schema {
	if !s.Nullable {
		return s
	}
	clone := *s
	clone.Nullable = false
	return &clone
}
