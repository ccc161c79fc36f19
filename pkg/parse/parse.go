// Package parse resolves any supported input into a graph.
//
// Inputs are identified by shape, not by flag: a directory is terraform
// source, a .dot file is `terraform graph` output, a .json file is one of
// the JSON dumps, and an http(s) URL is fetched and sniffed. The subpackages
// hold the per-format readers; this package is the front door the CLI and
// server go through.
package parse

import (
	"bytes"
	"context"
	"io"
	"os"
	"strings"

	"github.com/fwerkmann/stackflow/pkg/classify"
	"github.com/fwerkmann/stackflow/pkg/errors"
	"github.com/fwerkmann/stackflow/pkg/graph"
	"github.com/fwerkmann/stackflow/pkg/httputil"
	"github.com/fwerkmann/stackflow/pkg/parse/dot"
	"github.com/fwerkmann/stackflow/pkg/parse/graphjson"
	"github.com/fwerkmann/stackflow/pkg/parse/hcl"
)

// Format identifies an input format.
type Format string

const (
	// FormatAuto detects the format from the path and content.
	FormatAuto Format = "auto"
	// FormatHCL is terraform source (.tf files or a directory of them).
	FormatHCL Format = "hcl"
	// FormatDOT is `terraform graph` output.
	FormatDOT Format = "dot"
	// FormatJSON covers `terraform show -json`, the simplified export, and
	// native graph documents.
	FormatJSON Format = "json"
)

// Formats lists the selectable formats, for flag help and completion.
func Formats() []Format {
	return []Format{FormatAuto, FormatHCL, FormatDOT, FormatJSON}
}

// Valid reports whether f is a known format.
func (f Format) Valid() bool {
	for _, known := range Formats() {
		if f == known {
			return true
		}
	}
	return false
}

// Options configures input loading.
type Options struct {
	// Format overrides detection. Zero value means FormatAuto.
	Format Format

	// Patterns drives data-flow inference for formats without explicit
	// dependencies. Nil selects [classify.DefaultDependencyPatterns].
	Patterns []classify.DependencyPattern

	// Fetcher downloads http(s) inputs. Nil constructs an uncached one.
	Fetcher *httputil.Fetcher

	// Stdin substitutes for os.Stdin when the path is "-". Tests use this.
	Stdin io.Reader
}

// Load reads the input at path and returns its graph. Path may be a file, a
// directory of .tf files, "-" for stdin, or an http(s) URL.
func Load(ctx context.Context, path string, opts Options) (*graph.Graph, error) {
	if opts.Format == "" {
		opts.Format = FormatAuto
	}
	if !opts.Format.Valid() {
		return nil, errors.New(errors.ErrCodeInvalidFormat, "unknown input format %q", opts.Format)
	}

	switch {
	case strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://"):
		return loadRemote(ctx, path, opts)
	case path == "-":
		in := opts.Stdin
		if in == nil {
			in = os.Stdin
		}
		data, err := io.ReadAll(in)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "read stdin")
		}
		return parseData(data, "stdin", opts)
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "stat input")
	}
	if info.IsDir() {
		if opts.Format != FormatAuto && opts.Format != FormatHCL {
			return nil, errors.New(errors.ErrCodeInvalidFormat, "directory input requires terraform source, not %s", opts.Format)
		}
		return hcl.ParseDir(path, hcl.Options{Patterns: opts.Patterns})
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "read input")
	}
	return parseData(data, path, opts)
}

func loadRemote(ctx context.Context, url string, opts Options) (*graph.Graph, error) {
	f := opts.Fetcher
	if f == nil {
		f = httputil.NewFetcher(nil)
	}
	data, err := f.Fetch(ctx, url)
	if err != nil {
		return nil, err
	}
	return parseData(data, url, opts)
}

func parseData(data []byte, name string, opts Options) (*graph.Graph, error) {
	format := opts.Format
	if format == FormatAuto || format == "" {
		format = Detect(name, data)
	}
	switch format {
	case FormatDOT:
		return dot.Parse(data)
	case FormatJSON:
		return graphjson.Parse(data, graphjson.Options{Patterns: opts.Patterns})
	case FormatHCL:
		return hcl.Parse(data, name, hcl.Options{Patterns: opts.Patterns})
	default:
		return nil, errors.New(errors.ErrCodeInvalidFormat, "cannot determine input format of %s", name)
	}
}

// Detect guesses the format from a filename and a content sample. It returns
// FormatAuto when neither gives it away.
func Detect(name string, data []byte) Format {
	switch {
	case strings.HasSuffix(name, ".tf"):
		return FormatHCL
	case strings.HasSuffix(name, ".dot"), strings.HasSuffix(name, ".gv"):
		return FormatDOT
	case strings.HasSuffix(name, ".json"):
		return FormatJSON
	}

	sample := bytes.TrimLeft(data, " \t\r\n")
	switch {
	case bytes.HasPrefix(sample, []byte("{")), bytes.HasPrefix(sample, []byte("[")):
		return FormatJSON
	case bytes.HasPrefix(sample, []byte("digraph")), bytes.HasPrefix(sample, []byte("strict digraph")):
		return FormatDOT
	case bytes.Contains(sample, []byte(`resource "`)), bytes.Contains(sample, []byte("terraform {")),
		bytes.Contains(sample, []byte(`provider "`)):
		return FormatHCL
	}
	return FormatAuto
}
