// Package pkg provides the core libraries for Stackflow architecture diagrams.
//
// # Overview
//
// Stackflow turns infrastructure dependency graphs (Terraform graph output,
// DOT exports, JSON documents) into deterministic architecture diagrams:
// modules stack top to bottom, each module splits into request-flow rows,
// and orthogonal connectors trace the request path from an actor figure on
// the left. The pkg directory is organized into four main areas:
//
//  1. Stages - parse, classify, layout, route, render
//  2. Serialization - graph model and the replayable document envelope
//  3. Infrastructure - pipeline, cache, store, config, httputil
//  4. Support - errors, observability, buildinfo
//
// # Architecture
//
// The typical data flow through Stackflow:
//
//	Terraform graph / DOT / JSON document
//	         ↓
//	    [parse] package (format detection + loading)
//	         ↓
//	    [classify] package (tiers, flows, drawable arrows)
//	         ↓
//	    [layout] package (module boxes, rows, actor lane)
//	         ↓
//	    [route] package (orthogonal connectors on an occupancy grid)
//	         ↓
//	    [render] package (SVG, node-link, JSON document)
//
// # Quick Start
//
// Run the whole pipeline through a Runner:
//
//	import (
//	    "context"
//	    "github.com/fwerkmann/stackflow/pkg/pipeline"
//	)
//
//	// nil arguments select the null cache, default keyer, and default logger.
//	runner := pipeline.NewRunner(nil, nil, nil)
//	defer runner.Close()
//
//	res, err := runner.Execute(context.Background(), pipeline.Options{
//	    Source:  "./infra",
//	    Title:   "Orders Stack",
//	    Formats: []string{pipeline.FormatSVG},
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	svg := res.Artifacts[pipeline.FormatSVG]
//
// # Main Packages
//
// ## Stages
//
// [parse] - Input loading with format detection. Subpackages parse Terraform
// HCL configurations ([parse/hcl]), Graphviz DOT exports ([parse/dot]), and
// the JSON document format ([parse/graphjson]). Remote sources are fetched
// through [httputil].
//
// [classify] - Maps resource types onto tiers (edge, api, compute, data, and
// friends) and request flows, then derives the drawable arrow set from the
// raw dependency edges: flipping arrows that run against the request path,
// dropping support-service noise, and synthesizing adjacency and entry
// arrows where the input is silent.
//
// [layout] - Deterministic tiered layout. Modules stack top to bottom, flows
// become rows, stages order left to right, and the actor figure occupies a
// reserved left lane. Pure geometry: the same graph always yields the same
// pixels.
//
// [route] - Orthogonal connector routing. Builds an occupancy grid over the
// canvas, searches each connector around the node boxes, simplifies the
// path, and falls back to a midpoint elbow when no clear corridor exists.
//
// [render] - Output sinks: the styled architecture SVG ([render/svg]),
// Graphviz node-link diagrams ([render/nodelink]), and the JSON document
// ([render/jsonsink]). Top-level helpers convert SVG to PDF and PNG.
//
// ## Serialization
//
// [graph] - The core graph model: typed nodes with module membership and
// classification metadata, the JSON codec, and transforms (cycle breaking,
// document sanitization).
//
// [io] - The document envelope bundling a serialized graph with optional
// layout geometry and routed connectors, so diagrams can be re-rendered
// without reparsing the source.
//
// ## Infrastructure
//
// [pipeline] - Orchestrates the stages with per-stage caching
// (graph → diagram → artifact), shared by the CLI and the preview server.
//
// [cache] - Content-addressed pipeline cache with file, Redis, and null
// backends. Keys fingerprint the input and every option that shapes the
// stage, so a config change is a cache miss.
//
// [store] - Named diagram persistence in MongoDB: documents, rendered SVGs,
// and graph hashes for cheap change detection.
//
// [config] - TOML configuration discovery (explicit flag, working tree,
// XDG config dir) with an Apply step that fills unset pipeline options.
//
// [httputil] - HTTP fetching with retries, timeouts, and an on-disk
// response cache for remote graph sources.
//
// ## Support
//
// [errors] - Coded errors (invalid_input, diagram_not_found, ...) carried
// across package boundaries; callers branch on codes rather than sentinel
// values.
//
// [observability] - Pipeline lifecycle hooks for structured stage logging.
//
// [buildinfo] - Version, commit, and build date injected via ldflags.
//
// # Common Workflows
//
// Drive the stages directly when only part of the pipeline is needed:
//
//	g, report, _ := pipeline.ParseGraph(ctx, opts)
//	l, plan := pipeline.ComputeDiagram(ctx, g, opts)
//	artifacts, _ := pipeline.RenderArtifacts(ctx, g, l, plan, opts)
//
// Re-render a stored document without reparsing:
//
//	var doc io.Document
//	_ = json.Unmarshal(data, &doc)
//	g, _ := doc.BuildGraph()
//	out, _ := svg.RenderSVG(ctx, doc.Layout,
//	    svg.WithGraph(g), svg.WithPlan(doc.Routes))
//
// Drop the arrows out of DNS zones:
//
//	res, _ := runner.Execute(ctx, pipeline.Options{
//	    Source:  "./infra",
//	    Formats: []string{pipeline.FormatSVG},
//	})
//	// IncludeResolutionEdges defaults to false; set it to keep them.
//
// # Testing
//
// Run tests:
//
//	go test ./pkg/...           # All tests
//	go test ./pkg/layout/...    # Specific package
//	go test -run Example        # Examples only
//
// [parse]: https://pkg.go.dev/github.com/fwerkmann/stackflow/pkg/parse
// [parse/hcl]: https://pkg.go.dev/github.com/fwerkmann/stackflow/pkg/parse/hcl
// [parse/dot]: https://pkg.go.dev/github.com/fwerkmann/stackflow/pkg/parse/dot
// [parse/graphjson]: https://pkg.go.dev/github.com/fwerkmann/stackflow/pkg/parse/graphjson
// [classify]: https://pkg.go.dev/github.com/fwerkmann/stackflow/pkg/classify
// [layout]: https://pkg.go.dev/github.com/fwerkmann/stackflow/pkg/layout
// [route]: https://pkg.go.dev/github.com/fwerkmann/stackflow/pkg/route
// [render]: https://pkg.go.dev/github.com/fwerkmann/stackflow/pkg/render
// [render/svg]: https://pkg.go.dev/github.com/fwerkmann/stackflow/pkg/render/svg
// [render/nodelink]: https://pkg.go.dev/github.com/fwerkmann/stackflow/pkg/render/nodelink
// [render/jsonsink]: https://pkg.go.dev/github.com/fwerkmann/stackflow/pkg/render/jsonsink
// [graph]: https://pkg.go.dev/github.com/fwerkmann/stackflow/pkg/graph
// [io]: https://pkg.go.dev/github.com/fwerkmann/stackflow/pkg/io
// [pipeline]: https://pkg.go.dev/github.com/fwerkmann/stackflow/pkg/pipeline
// [cache]: https://pkg.go.dev/github.com/fwerkmann/stackflow/pkg/cache
// [store]: https://pkg.go.dev/github.com/fwerkmann/stackflow/pkg/store
// [config]: https://pkg.go.dev/github.com/fwerkmann/stackflow/pkg/config
// [httputil]: https://pkg.go.dev/github.com/fwerkmann/stackflow/pkg/httputil
// [errors]: https://pkg.go.dev/github.com/fwerkmann/stackflow/pkg/errors
// [observability]: https://pkg.go.dev/github.com/fwerkmann/stackflow/pkg/observability
// [buildinfo]: https://pkg.go.dev/github.com/fwerkmann/stackflow/pkg/buildinfo
package pkg
