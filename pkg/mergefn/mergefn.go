// Package mergefn provides generic merge-function combinators.
//
// A merge function takes a non-empty sequence of same-typed items and
// collapses them into one. The combinators here build merge policies for
// composite records out of merge policies for their parts, so callers never
// hand-code traversal per record shape.
package mergefn

import (
	"cmp"
	"errors"
	"fmt"
	"sort"
)

// Func merges a sequence of items into a single item.
type Func[T any] func(items []T) (T, error)

// First returns a merge function that keeps the first item and ignores the
// rest. Useful when items are expected to be identical or merge-irrelevant.
func First[T any]() Func[T] {
	return func(items []T) (T, error) {
		var zero T
		if len(items) == 0 {
			return zero, errors.New("mergefn: merge of empty sequence")
		}
		return items[0], nil
	}
}

// Keyed returns a merge function over maps. Each key's values are collected
// from every input map that has the key and merged with the key's specific
// merger, falling back to fallback for unlisted keys. A key with neither is
// a configuration error. Keys are processed in sorted order; merging an
// empty sequence of maps yields an empty map.
func Keyed[K cmp.Ordered, V any](mergers map[K]Func[V], fallback Func[V]) Func[map[K]V] {
	return func(maps []map[K]V) (map[K]V, error) {
		seen := make(map[K]bool)
		keys := make([]K, 0)
		for _, m := range maps {
			for k := range m {
				if !seen[k] {
					seen[k] = true
					keys = append(keys, k)
				}
			}
		}
		sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

		out := make(map[K]V, len(keys))
		for _, k := range keys {
			merge, ok := mergers[k]
			if !ok {
				if fallback == nil {
					return nil, fmt.Errorf("mergefn: no merger for key %v", k)
				}
				merge = fallback
			}
			group := make([]V, 0, len(maps))
			for _, m := range maps {
				if v, ok := m[k]; ok {
					group = append(group, v)
				}
			}
			merged, err := merge(group)
			if err != nil {
				return nil, fmt.Errorf("key %v: %w", k, err)
			}
			out[k] = merged
		}
		return out, nil
	}
}

// Grouped returns a merge function over lists. All input lists are
// flattened, elements are grouped by the selector and each group is merged
// independently, producing one output element per distinct key. Output
// order follows the sorted group keys, which keeps results deterministic
// within a run.
func Grouped[T any, K cmp.Ordered](key func(T) K, merge Func[T]) Func[[]T] {
	return func(lists [][]T) ([]T, error) {
		groups := make(map[K][]T)
		keys := make([]K, 0)
		for _, list := range lists {
			for _, item := range list {
				k := key(item)
				if _, ok := groups[k]; !ok {
					keys = append(keys, k)
				}
				groups[k] = append(groups[k], item)
			}
		}
		sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

		out := make([]T, 0, len(keys))
		for _, k := range keys {
			merged, err := merge(groups[k])
			if err != nil {
				return nil, fmt.Errorf("group %v: %w", k, err)
			}
			out = append(out, merged)
		}
		return out, nil
	}
}
