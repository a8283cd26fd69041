package schema

import (
	"testing"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

func mustDecode(t *testing.T, src string) any {
	t.Helper()
	v, err := DecodeJSON([]byte(src))
	if err != nil {
		t.Fatalf("DecodeJSON(%s): %v", src, err)
	}
	return v
}

func mustInfer(t *testing.T, src string) *Schema {
	t.Helper()
	s, err := Infer(mustDecode(t, src))
	if err != nil {
		t.Fatalf("Infer(%s): %v", src, err)
	}
	return s
}

func TestInfer_Primitives(t *testing.T) {
	tests := []struct {
		name     string
		json     string
		expected string
	}{
		{"string", `"hello"`, "string"},
		{"integer", `42`, "number"},
		{"float", `3.14`, "number"},
		{"boolean", `true`, "boolean"},
		{"null", `null`, "null"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := mustInfer(t, tt.json)
			if s.Type != tt.expected {
				t.Errorf("expected type %q, got %q", tt.expected, s.Type)
			}
		})
	}
}

func TestInfer_Object(t *testing.T) {
	s := mustInfer(t, `{"name": "Alice", "age": 30, "active": true}`)

	if s.Type != "object" {
		t.Fatalf("expected type object, got %q", s.Type)
	}
	if s.Properties == nil {
		t.Fatal("expected properties to be set")
	}

	// Insertion order must survive.
	var keys []string
	for pair := s.Properties.Oldest(); pair != nil; pair = pair.Next() {
		keys = append(keys, pair.Key)
	}
	want := []string{"name", "age", "active"}
	if len(keys) != len(want) {
		t.Fatalf("expected keys %v, got %v", want, keys)
	}
	for i := range want {
		if keys[i] != want[i] {
			t.Fatalf("expected keys %v, got %v", want, keys)
		}
	}

	if name, _ := s.Properties.Get("name"); name.Type != "string" {
		t.Errorf("expected name: string, got %q", name.Type)
	}
	if age, _ := s.Properties.Get("age"); age.Type != "number" {
		t.Errorf("expected age: number, got %q", age.Type)
	}

	// Every observed key is required on first sight.
	if len(s.Required) != 3 {
		t.Errorf("expected 3 required keys, got %v", s.Required)
	}
}

func TestInfer_Arrays(t *testing.T) {
	t.Run("empty array has empty items", func(t *testing.T) {
		s := mustInfer(t, `[]`)
		if s.Type != "array" {
			t.Fatalf("expected array, got %q", s.Type)
		}
		if s.Items == nil || !s.Items.IsEmpty() {
			t.Errorf("expected empty items sentinel, got %+v", s.Items)
		}
	})

	t.Run("homogeneous elements share item schema", func(t *testing.T) {
		s := mustInfer(t, `[1, 2, 3]`)
		if s.Items == nil || s.Items.Type != "number" {
			t.Errorf("expected number items, got %+v", s.Items)
		}
	})

	t.Run("mixed elements union item schema", func(t *testing.T) {
		s := mustInfer(t, `[1, "two"]`)
		if s.Items == nil || len(s.Items.AnyOf) != 2 {
			t.Fatalf("expected anyOf items, got %+v", s.Items)
		}
	})
}

func TestInfer_NestedObject(t *testing.T) {
	s := mustInfer(t, `{"user": {"id": 1, "tags": ["a", "b"]}}`)

	user, ok := s.Properties.Get("user")
	if !ok || user.Type != "object" {
		t.Fatalf("expected user object, got %+v", user)
	}
	tags, ok := user.Properties.Get("tags")
	if !ok || tags.Type != "array" || tags.Items.Type != "string" {
		t.Fatalf("expected tags: array of string, got %+v", tags)
	}
}

func TestInfer_UnsupportedValue(t *testing.T) {
	if _, err := Infer(struct{}{}); err == nil {
		t.Fatal("expected error for unsupported value shape")
	}
}

func TestDecodeJSON(t *testing.T) {
	t.Run("integral numbers stay integral", func(t *testing.T) {
		v := mustDecode(t, `42`)
		if _, ok := v.(int64); !ok {
			t.Errorf("expected int64, got %T", v)
		}
	})

	t.Run("fractional numbers are floats", func(t *testing.T) {
		v := mustDecode(t, `3.5`)
		if _, ok := v.(float64); !ok {
			t.Errorf("expected float64, got %T", v)
		}
	})

	t.Run("objects preserve key order", func(t *testing.T) {
		v := mustDecode(t, `{"z": 1, "a": 2, "m": 3}`)
		obj, ok := v.(*orderedmap.OrderedMap[string, any])
		if !ok {
			t.Fatalf("expected ordered map, got %T", v)
		}
		var keys []string
		for pair := obj.Oldest(); pair != nil; pair = pair.Next() {
			keys = append(keys, pair.Key)
		}
		if len(keys) != 3 || keys[0] != "z" || keys[1] != "a" || keys[2] != "m" {
			t.Errorf("expected [z a m], got %v", keys)
		}
	})

	t.Run("trailing garbage rejected", func(t *testing.T) {
		if _, err := DecodeJSON([]byte(`123abc`)); err == nil {
			t.Error("expected error for trailing data")
		}
		if _, err := DecodeJSON([]byte(`{"a":1} extra`)); err == nil {
			t.Error("expected error for trailing data")
		}
	})

	t.Run("plain text rejected", func(t *testing.T) {
		if _, err := DecodeJSON([]byte(`hello world`)); err == nil {
			t.Error("expected error for non-JSON text")
		}
	})
}
