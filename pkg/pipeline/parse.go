package pipeline

import (
	"bytes"
	"context"
	"io"
	"os"
	"time"

	"github.com/fwerkmann/stackflow/pkg/errors"
	"github.com/fwerkmann/stackflow/pkg/graph"
	"github.com/fwerkmann/stackflow/pkg/graph/transform"
	"github.com/fwerkmann/stackflow/pkg/observability"
	"github.com/fwerkmann/stackflow/pkg/parse"
)

// ParseGraph runs the graph stage: load the input, break dependency cycles,
// classify every node, and derive the drawable edges.
//
// The returned graph is the visible graph: classified nodes plus the derived
// same-module and cross-module arrows, with noise resources and raw
// dependency edges already resolved away. Everything downstream consumes
// this graph; the raw dependency set does not survive the stage.
func ParseGraph(ctx context.Context, opts Options) (*graph.Graph, Report, error) {
	if err := opts.ValidateForParse(); err != nil {
		return nil, Report{}, err
	}

	hooks := observability.Pipeline()
	hooks.OnParseStart(ctx, string(opts.Format), opts.Source)
	start := time.Now()

	g, report, err := parseAndClassify(ctx, opts)

	hooks.OnParseComplete(ctx, string(opts.Format), opts.Source, nodeCount(g), time.Since(start), err)
	return g, report, err
}

func parseAndClassify(ctx context.Context, opts Options) (*graph.Graph, Report, error) {
	raw, err := loadSource(ctx, opts)
	if err != nil {
		return nil, Report{}, err
	}
	if opts.Title != "" {
		raw.Meta()[graph.MetaTitle] = opts.Title
	}

	report := Report{CyclesBroken: transform.BreakCycles(raw)}

	c := opts.classifier()
	cr := c.Apply(raw)
	report.Classified = cr.Classified
	report.Skipped = cr.Skipped
	report.Unclassified = cr.Unclassified

	intra, cross := c.FlowEdges(raw)
	visible, err := assembleVisible(raw, intra, cross)
	if err != nil {
		return nil, Report{}, err
	}
	return visible, report, nil
}

// loadSource resolves the input into a raw graph. Inline bytes parse as
// stdin would, so servers can submit request bodies without touching disk.
func loadSource(ctx context.Context, opts Options) (*graph.Graph, error) {
	popts := parse.Options{
		Format:   opts.Format,
		Patterns: opts.Patterns,
		Fetcher:  opts.Fetcher,
		Stdin:    opts.Stdin,
	}
	source := opts.Source
	if len(opts.SourceData) > 0 {
		popts.Stdin = bytes.NewReader(opts.SourceData)
		source = "-"
	}
	return parse.Load(ctx, source, popts)
}

// resolveStdin replaces a "-" source with its buffered bytes, so the input
// can be fingerprinted for the cache and still be parsed afterwards. Stdin
// is consumed at most once per Options value.
func (o *Options) resolveStdin() error {
	if o.Source != "-" || len(o.SourceData) > 0 {
		return nil
	}
	in := o.Stdin
	if in == nil {
		in = os.Stdin
	}
	data, err := io.ReadAll(in)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "read stdin")
	}
	o.SourceData = data
	return nil
}

// assembleVisible rebuilds the graph with only drawable content: classified
// nodes in ID order, then same-module arrows, then cross-module arrows. The
// fixed insertion order keeps the serialized graph byte-stable.
func assembleVisible(g *graph.Graph, intra, cross []graph.Edge) (*graph.Graph, error) {
	visible := graph.New(g.Meta())
	for _, n := range g.SortedNodes() {
		if err := visible.AddNode(*n); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInternal, err, "rebuild graph")
		}
	}
	for _, e := range intra {
		if err := visible.AddEdge(e); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInternal, err, "rebuild graph")
		}
	}
	for _, e := range cross {
		if err := visible.AddEdge(e); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInternal, err, "rebuild graph")
		}
	}
	return visible, nil
}

func nodeCount(g *graph.Graph) int {
	if g == nil {
		return 0
	}
	return g.NodeCount()
}
