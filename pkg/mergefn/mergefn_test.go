package mergefn

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func concat() Func[string] {
	return func(items []string) (string, error) {
		if len(items) == 0 {
			return "", errors.New("empty")
		}
		return strings.Join(items, "+"), nil
	}
}

func TestFirst(t *testing.T) {
	first := First[int]()

	v, err := first([]int{7, 8, 9})
	require.NoError(t, err)
	assert.Equal(t, 7, v)

	_, err = first(nil)
	assert.Error(t, err, "merging an empty sequence is an invariant violation")
}

func TestKeyed_Fallback(t *testing.T) {
	merge := Keyed[string](nil, concat())

	out, err := merge([]map[string]string{
		{"a": "1", "b": "x"},
		{"a": "2"},
		{"b": "y", "c": "z"},
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"a": "1+2", "b": "x+y", "c": "z"}, out)
}

func TestKeyed_PerKeyMergers(t *testing.T) {
	merge := Keyed(map[string]Func[string]{"pin": First[string]()}, concat())

	out, err := merge([]map[string]string{
		{"pin": "first", "rest": "a"},
		{"pin": "second", "rest": "b"},
	})
	require.NoError(t, err)
	assert.Equal(t, "first", out["pin"])
	assert.Equal(t, "a+b", out["rest"])
}

func TestKeyed_MissingMergerIsError(t *testing.T) {
	merge := Keyed(map[string]Func[string]{"known": First[string]()}, nil)

	_, err := merge([]map[string]string{{"unknown": "v"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown")
}

func TestKeyed_EmptyInput(t *testing.T) {
	merge := Keyed[string](nil, concat())
	out, err := merge(nil)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestGrouped(t *testing.T) {
	merge := Grouped(func(s string) string { return s[:1] }, concat())

	out, err := merge([][]string{
		{"apple", "banana"},
		{"avocado", "cherry"},
	})
	require.NoError(t, err)
	// One element per distinct key, in sorted key order.
	assert.Equal(t, []string{"apple+avocado", "banana", "cherry"}, out)
}

func TestGrouped_ErrorCarriesGroupKey(t *testing.T) {
	failing := func(items []string) (string, error) { return "", errors.New("boom") }
	merge := Grouped(func(s string) string { return s }, failing)

	_, err := merge([][]string{{"key1"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "key1")
}
