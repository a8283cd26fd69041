package apispec

import (
	"fmt"

	"github.com/usestring/flowspec/pkg/mergefn"
	"github.com/usestring/flowspec/pkg/schema"
)

// policies builds the record merge functions for one assembly run.
// Field-wise record merging composes smaller merge functions per field:
// schemas go through the schema algebra, examples and discriminators are
// first-wins, keyed maps (responses by status, content by media type,
// operations by method, paths by template) merge via mergefn.Keyed, and
// parameter lists group by "in:name" via mergefn.Grouped.
type policies struct {
	opts *schema.Options
}

func newPolicies(opts *schema.Options) *policies {
	return &policies{opts: opts}
}

func (p *policies) mergeSchemas(schemas []*schema.Schema) (*schema.Schema, error) {
	return schema.MergeWithOptions(p.opts, schemas)
}

// mergeMediaTypes merges media-type objects: schema by algebra, example
// first-wins.
func (p *policies) mergeMediaTypes(items []*MediaType) (*MediaType, error) {
	schemas := make([]*schema.Schema, 0, len(items))
	for _, mt := range items {
		schemas = append(schemas, mt.Schema)
	}
	merged, err := p.mergeSchemas(schemas)
	if err != nil {
		return nil, err
	}

	first, err := mergefn.First[*MediaType]()(items)
	if err != nil {
		return nil, err
	}
	return &MediaType{Schema: merged, Example: first.Example}, nil
}

func (p *policies) contentMerge() mergefn.Func[map[string]*MediaType] {
	return mergefn.Keyed[string](nil, p.mergeMediaTypes)
}

// mergeResponses merges same-status responses: description first-wins,
// content field-wise.
func (p *policies) mergeResponses(items []*Response) (*Response, error) {
	first, err := mergefn.First[*Response]()(items)
	if err != nil {
		return nil, err
	}

	contents := make([]map[string]*MediaType, 0, len(items))
	for _, r := range items {
		if r.Content != nil {
			contents = append(contents, r.Content)
		}
	}
	content, err := p.contentMerge()(contents)
	if err != nil {
		return nil, err
	}
	return &Response{Description: first.Description, Content: content}, nil
}

// mergeRequestBodies merges request bodies the same way as response
// content. Inputs are the non-nil bodies only.
func (p *policies) mergeRequestBodies(items []*RequestBody) (*RequestBody, error) {
	first, err := mergefn.First[*RequestBody]()(items)
	if err != nil {
		return nil, err
	}

	contents := make([]map[string]*MediaType, 0, len(items))
	for _, rb := range items {
		contents = append(contents, rb.Content)
	}
	content, err := p.contentMerge()(contents)
	if err != nil {
		return nil, err
	}
	return &RequestBody{Description: first.Description, Content: content}, nil
}

// mergeParameters groups parameters by location and name, then merges
// each group: schema by algebra, everything else first-wins.
func (p *policies) mergeParameters(lists [][]*Parameter) ([]*Parameter, error) {
	selector := func(param *Parameter) string { return param.In + ":" + param.Name }
	return mergefn.Grouped(selector, p.mergeParameter)(lists)
}

func (p *policies) mergeParameter(items []*Parameter) (*Parameter, error) {
	first, err := mergefn.First[*Parameter]()(items)
	if err != nil {
		return nil, err
	}

	schemas := make([]*schema.Schema, 0, len(items))
	for _, param := range items {
		schemas = append(schemas, param.Schema)
	}
	merged, err := p.mergeSchemas(schemas)
	if err != nil {
		return nil, fmt.Errorf("parameter %s: %w", first.Name, err)
	}
	return &Parameter{
		Name:     first.Name,
		In:       first.In,
		Required: first.Required,
		Schema:   merged,
		Example:  first.Example,
	}, nil
}

// mergeOperations merges same-method operations field-wise.
func (p *policies) mergeOperations(items []*Operation) (*Operation, error) {
	out := &Operation{}

	paramLists := make([][]*Parameter, 0, len(items))
	for _, op := range items {
		if len(op.Parameters) > 0 {
			paramLists = append(paramLists, op.Parameters)
		}
	}
	if len(paramLists) > 0 {
		params, err := p.mergeParameters(paramLists)
		if err != nil {
			return nil, err
		}
		out.Parameters = params
	}

	bodies := make([]*RequestBody, 0, len(items))
	for _, op := range items {
		if op.RequestBody != nil {
			bodies = append(bodies, op.RequestBody)
		}
	}
	if len(bodies) > 0 {
		body, err := p.mergeRequestBodies(bodies)
		if err != nil {
			return nil, err
		}
		out.RequestBody = body
	}

	responses := make([]map[string]*Response, 0, len(items))
	for _, op := range items {
		if op.Responses != nil {
			responses = append(responses, op.Responses)
		}
	}
	merged, err := mergefn.Keyed[string](nil, p.mergeResponses)(responses)
	if err != nil {
		return nil, err
	}
	out.Responses = merged

	return out, nil
}

// mergePathItems merges path items sharing one URL template: path-level
// parameters are first-wins (all samples saw the same templated path),
// operations merge per method.
func (p *policies) mergePathItems(items []*PathItem) (*PathItem, error) {
	out := &PathItem{}

	for _, item := range items {
		if item.Parameters != nil {
			out.Parameters = item.Parameters
			break
		}
	}

	operations := make([]map[string]*Operation, 0, len(items))
	for _, item := range items {
		operations = append(operations, item.Operations)
	}
	merged, err := mergefn.Keyed[string](nil, p.mergeOperations)(operations)
	if err != nil {
		return nil, err
	}
	out.Operations = merged

	return out, nil
}

// mergePaths folds single-sample path-item singletons into the final
// per-template mapping.
func (p *policies) mergePaths(singletons []map[string]*PathItem) (map[string]*PathItem, error) {
	return mergefn.Keyed[string](nil, p.mergePathItems)(singletons)
}
