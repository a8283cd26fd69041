package capture

import (
	"fmt"

	"github.com/itchyny/gojq"
)

// Selector filters flows with a jq expression. The expression is
// evaluated against a plain-map view of each flow (request/response with
// host, path, method, headers, content, status_code, reason); the flow is
// kept when the first output value is truthy (neither false nor null).
type Selector struct {
	code *gojq.Code
}

// NewSelector parses and compiles a jq expression.
func NewSelector(expression string) (*Selector, error) {
	query, err := gojq.Parse(expression)
	if err != nil {
		return nil, fmt.Errorf("invalid jq expression: %w", err)
	}
	code, err := gojq.Compile(query)
	if err != nil {
		return nil, fmt.Errorf("failed to compile jq expression: %w", err)
	}
	return &Selector{code: code}, nil
}

// Keep reports whether the flow passes the selector.
func (s *Selector) Keep(f *Flow) (bool, error) {
	iter := s.code.Run(f.asValue())
	v, ok := iter.Next()
	if !ok {
		return false, nil
	}
	if err, isErr := v.(error); isErr {
		return false, fmt.Errorf("jq selector: %w", err)
	}
	return v != nil && v != false, nil
}

// Filter returns the flows the selector keeps, preserving input order.
func (s *Selector) Filter(flows []*Flow) ([]*Flow, error) {
	kept := make([]*Flow, 0, len(flows))
	for i, f := range flows {
		keep, err := s.Keep(f)
		if err != nil {
			return nil, fmt.Errorf("flow %d: %w", i, err)
		}
		if keep {
			kept = append(kept, f)
		}
	}
	return kept, nil
}
