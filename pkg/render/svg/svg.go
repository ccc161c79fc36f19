package svg

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"

	"github.com/fwerkmann/stackflow/pkg/errors"
	"github.com/fwerkmann/stackflow/pkg/graph"
	"github.com/fwerkmann/stackflow/pkg/layout"
	"github.com/fwerkmann/stackflow/pkg/route"
)

// Option configures a single RenderSVG call.
type Option func(*renderer)

type renderer struct {
	graph     *graph.Graph
	plan      *route.Plan
	palette   Palette
	hideActor bool
	hideCross bool
	footer    string
}

// WithGraph attaches the graph the layout was computed from. Required: node
// boxes draw their service label, category accent, and name from here.
func WithGraph(g *graph.Graph) Option { return func(r *renderer) { r.graph = g } }

// WithPlan attaches routed connector geometry. Without a plan only the
// title, modules, and nodes are drawn.
func WithPlan(p *route.Plan) Option { return func(r *renderer) { r.plan = p } }

// WithPalette overrides the default colors.
func WithPalette(p Palette) Option { return func(r *renderer) { r.palette = p } }

// WithoutActor hides the actor figure and its entry connectors.
func WithoutActor() Option { return func(r *renderer) { r.hideActor = true } }

// WithoutCrossModule hides the dashed cross-module connectors.
func WithoutCrossModule() Option { return func(r *renderer) { r.hideCross = true } }

// WithFooter draws a caption in the bottom canvas margin.
func WithFooter(text string) Option { return func(r *renderer) { r.footer = text } }

// RenderSVG draws a laid-out diagram as a standalone SVG document.
func RenderSVG(ctx context.Context, l *layout.Layout, opts ...Option) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r := newRenderer(opts...)
	if l == nil {
		return nil, errors.New(errors.ErrCodeRender, "render svg: nil layout")
	}
	if r.graph == nil {
		return nil, errors.New(errors.ErrCodeRender, "render svg: no graph attached")
	}

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	fmt.Fprintf(&buf,
		`<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d" style="font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif;">`+"\n",
		l.Width, l.Height, l.Width, l.Height)
	writeDefs(&buf, r.palette)
	fmt.Fprintf(&buf, `  <rect width="100%%" height="100%%" fill="%s"/>`+"\n", r.palette.Background)

	if l.Title != "" {
		fmt.Fprintf(&buf, `  <text x="%d" y="%d" font-size="18" font-weight="600" fill="%s">%s</text>`+"\n",
			l.Padding, l.TitleY, r.palette.Text, escape(l.Title))
	}
	for _, m := range l.Modules {
		writeModule(&buf, m, l.HeaderHeight, r.palette)
	}
	for _, n := range r.graph.SortedNodes() {
		if box, ok := l.Positions[n.ID]; ok {
			writeNode(&buf, n, box, r.palette)
		}
	}
	r.writeConnectors(&buf, l)
	if r.footer != "" {
		fmt.Fprintf(&buf, `  <text x="%d" y="%d" font-size="10" fill="%s">%s</text>`+"\n",
			l.Padding, l.Height-footerRise, r.palette.TextMuted, escape(r.footer))
	}
	buf.WriteString("</svg>\n")
	return buf.Bytes(), nil
}

func newRenderer(opts ...Option) renderer {
	r := renderer{palette: DefaultPalette()}
	for _, opt := range opts {
		opt(&r)
	}
	return r
}

func (r *renderer) writeConnectors(buf *bytes.Buffer, l *layout.Layout) {
	if r.plan == nil {
		return
	}
	for _, re := range r.plan.Intra {
		writeArrow(buf, re.Path, r.palette)
	}
	if !r.hideCross {
		for _, re := range r.plan.Cross {
			writeCrossConnector(buf, re.Path, r.palette)
		}
	}
	if r.hideActor || len(r.plan.Actor) == 0 {
		return
	}
	writeActor(buf, l.Actor, r.palette)
	for _, c := range r.plan.Actor {
		writeActorConnector(buf, c.Path, r.palette)
	}
}
