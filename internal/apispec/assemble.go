package apispec

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/usestring/flowspec/internal/capture"
	"github.com/usestring/flowspec/pkg/schema"
)

// Static envelope metadata.
const (
	openAPIVersion  = "3.0.2"
	documentTitle   = "A Generated OpenAPI Spec"
	documentVersion = "0.0.1"
)

// AssemblerOptions configures one assembly run.
type AssemblerOptions struct {
	// Workers bounds concurrent path-item building. Building is pure
	// per-flow work and merging is an order-insensitive fold, so this is
	// purely a throughput knob for large capture sets.
	Workers int
	// TemplateCacheSize bounds the memoized URL templating results.
	TemplateCacheSize int
	// StrictRequired switches object-key requiredness from seen-in-any-
	// sample to seen-in-all-samples.
	StrictRequired bool
}

// Report summarizes one assembly run for the caller.
type Report struct {
	Flows      int      // flows considered
	Assembled  int      // flows that produced a path item
	OutOfScope []string // distinct skipped URL prefixes, sorted
}

// Assembler folds captured flows into an OpenAPI document.
type Assembler struct {
	base     string
	workers  int
	builder  *Builder
	policies *policies
	warnings *Warnings
}

// NewAssembler creates an assembler for the given API base URL (host plus
// optional path prefix, no scheme), which both scopes the captured flows
// and becomes the document's declared server.
func NewAssembler(base string, opts AssemblerOptions) (*Assembler, error) {
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if opts.TemplateCacheSize <= 0 {
		opts.TemplateCacheSize = 1024
	}

	warnings := NewWarnings()
	builder, err := NewBuilder(base, opts.TemplateCacheSize, warnings)
	if err != nil {
		return nil, err
	}
	return &Assembler{
		base:     base,
		workers:  opts.Workers,
		builder:  builder,
		policies: newPolicies(&schema.Options{StrictRequired: opts.StrictRequired}),
		warnings: warnings,
	}, nil
}

// Assemble builds and merges path items for every flow and wraps the
// result in the document envelope. Build errors are invariant violations
// and abort the run; out-of-scope flows are skipped and reported.
func (a *Assembler) Assemble(ctx context.Context, flows []*capture.Flow) (*Document, *Report, error) {
	type buildResult struct {
		template string
		item     *PathItem
		ok       bool
	}
	results := make([]buildResult, len(flows))

	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(a.workers)
	for i, flow := range flows {
		g.Go(func() error {
			template, item, ok, err := a.builder.Build(flow)
			if err != nil {
				return fmt.Errorf("flow %d: %w", i, err)
			}
			results[i] = buildResult{template: template, item: item, ok: ok}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	// Results are slotted by index, so the fold sees input order no
	// matter how building was scheduled.
	singletons := make([]map[string]*PathItem, 0, len(results))
	for _, r := range results {
		if r.ok {
			singletons = append(singletons, map[string]*PathItem{r.template: r.item})
		}
	}

	paths, err := a.policies.mergePaths(singletons)
	if err != nil {
		return nil, nil, fmt.Errorf("merging path items: %w", err)
	}

	doc := &Document{
		OpenAPI: openAPIVersion,
		Info:    Info{Title: documentTitle, Version: documentVersion},
		Servers: []Server{{URL: a.base}},
		Paths:   paths,
	}
	report := &Report{
		Flows:      len(flows),
		Assembled:  len(singletons),
		OutOfScope: a.warnings.OutOfScope(),
	}

	slog.Info("assembled specification",
		"flows", report.Flows,
		"assembled", report.Assembled,
		"paths", len(paths),
		"out_of_scope", len(report.OutOfScope),
	)
	return doc, report, nil
}
