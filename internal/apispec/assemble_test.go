package apispec

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/usestring/flowspec/internal/capture"
	"github.com/usestring/flowspec/pkg/schema"
)

func newTestAssembler(t *testing.T, base string, opts AssemblerOptions) *Assembler {
	t.Helper()
	a, err := NewAssembler(base, opts)
	require.NoError(t, err)
	return a
}

func TestAssembleEnvelope(t *testing.T) {
	a := newTestAssembler(t, "api.example.com", AssemblerOptions{})

	flows := []*capture.Flow{
		jsonFlow("GET", "api.example.com", "/ping", 200, "", `{"ok":true}`),
	}
	doc, report, err := a.Assemble(context.Background(), flows)
	require.NoError(t, err)

	assert.Equal(t, "3.0.2", doc.OpenAPI)
	assert.Equal(t, "A Generated OpenAPI Spec", doc.Info.Title)
	assert.Equal(t, "0.0.1", doc.Info.Version)
	require.Len(t, doc.Servers, 1)
	assert.Equal(t, "api.example.com", doc.Servers[0].URL)
	assert.Len(t, doc.Paths, 1)

	assert.Equal(t, 1, report.Flows)
	assert.Equal(t, 1, report.Assembled)
	assert.Empty(t, report.OutOfScope)
}

func TestAssembleMergesConflictingPropertyTypes(t *testing.T) {
	a := newTestAssembler(t, "api.example.com", AssemblerOptions{Workers: 4})

	flows := []*capture.Flow{
		jsonFlow("GET", "api.example.com", "/items/1", 200, "", `{"a":1}`),
		jsonFlow("GET", "api.example.com", "/items/2", 200, "", `{"a":"x"}`),
	}
	doc, _, err := a.Assemble(context.Background(), flows)
	require.NoError(t, err)

	item := doc.Paths["/items/{param0}"]
	require.NotNil(t, item)

	mt := item.Operations["get"].Responses["200"].Content["application/json"]
	require.NotNil(t, mt)

	prop, present := mt.Schema.Properties.Get("a")
	require.True(t, present)
	require.Len(t, prop.AnyOf, 2)
	assert.Equal(t, schema.TypeNumber, prop.AnyOf[0].Type)
	assert.Equal(t, schema.TypeString, prop.AnyOf[1].Type)

	// The merged path parameter keeps the first sample's example.
	require.Len(t, item.Parameters, 1)
	assert.Equal(t, int64(1), item.Parameters[0].Example)
}

func TestAssembleNullSampleMakesNullable(t *testing.T) {
	a := newTestAssembler(t, "api.example.com", AssemblerOptions{})

	flows := []*capture.Flow{
		jsonFlow("GET", "api.example.com", "/me", 200, "", `{"name":"ada"}`),
		jsonFlow("GET", "api.example.com", "/me", 200, "", `null`),
	}
	doc, _, err := a.Assemble(context.Background(), flows)
	require.NoError(t, err)

	mt := doc.Paths["/me"].Operations["get"].Responses["200"].Content["application/json"]
	require.NotNil(t, mt)
	assert.Equal(t, schema.TypeObject, mt.Schema.Type)
	assert.True(t, mt.Schema.Nullable)
}

func TestAssembleRequiredPolicies(t *testing.T) {
	flows := []*capture.Flow{
		jsonFlow("GET", "api.example.com", "/me", 200, "", `{"a":1,"b":2}`),
		jsonFlow("GET", "api.example.com", "/me", 200, "", `{"a":3}`),
	}

	// Default: a key required once is required in the merge.
	a := newTestAssembler(t, "api.example.com", AssemblerOptions{})
	doc, _, err := a.Assemble(context.Background(), flows)
	require.NoError(t, err)
	merged := doc.Paths["/me"].Operations["get"].Responses["200"].Content["application/json"].Schema
	assert.Equal(t, []string{"a", "b"}, merged.Required)

	// Strict: only keys present in every sample stay required.
	a = newTestAssembler(t, "api.example.com", AssemblerOptions{StrictRequired: true})
	doc, _, err = a.Assemble(context.Background(), flows)
	require.NoError(t, err)
	merged = doc.Paths["/me"].Operations["get"].Responses["200"].Content["application/json"].Schema
	assert.Equal(t, []string{"a"}, merged.Required)
}

func TestAssembleSkipsOutOfScopeWithoutError(t *testing.T) {
	a := newTestAssembler(t, "api.example.com/v1", AssemblerOptions{})

	flows := []*capture.Flow{
		jsonFlow("GET", "api.example.com", "/v1/users", 200, "", "[]"),
		jsonFlow("GET", "tracker.example.com", "/pixel.gif", 200, "", ""),
	}
	doc, report, err := a.Assemble(context.Background(), flows)
	require.NoError(t, err)

	assert.Len(t, doc.Paths, 1)
	assert.NotNil(t, doc.Paths["/users"])
	assert.Equal(t, 2, report.Flows)
	assert.Equal(t, 1, report.Assembled)
	assert.Equal(t, []string{"tracker.example.com/pixel.gif"}, report.OutOfScope)
}

func TestAssembleMultipleMethodsAndStatuses(t *testing.T) {
	a := newTestAssembler(t, "api.example.com", AssemblerOptions{Workers: 2})

	flows := []*capture.Flow{
		jsonFlow("GET", "api.example.com", "/users/7", 200, "", `{"id":7}`),
		jsonFlow("GET", "api.example.com", "/users/8", 404, "", `{"error":"not found"}`),
		jsonFlow("DELETE", "api.example.com", "/users/7", 204, "", ""),
	}
	doc, _, err := a.Assemble(context.Background(), flows)
	require.NoError(t, err)

	item := doc.Paths["/users/{param0}"]
	require.NotNil(t, item)
	require.Len(t, item.Operations, 2)

	get := item.Operations["get"]
	require.NotNil(t, get)
	assert.Len(t, get.Responses, 2)
	assert.NotNil(t, get.Responses["200"])
	assert.NotNil(t, get.Responses["404"])

	del := item.Operations["delete"]
	require.NotNil(t, del)
	assert.NotNil(t, del.Responses["204"])
}

func TestAssembleEmptyInput(t *testing.T) {
	a := newTestAssembler(t, "api.example.com", AssemblerOptions{})

	doc, report, err := a.Assemble(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, doc.Paths)
	assert.Equal(t, 0, report.Flows)
}
