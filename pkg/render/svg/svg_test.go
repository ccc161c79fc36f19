package svg

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/fwerkmann/stackflow/pkg/classify"
	"github.com/fwerkmann/stackflow/pkg/errors"
	"github.com/fwerkmann/stackflow/pkg/graph"
	"github.com/fwerkmann/stackflow/pkg/layout"
	"github.com/fwerkmann/stackflow/pkg/route"
)

// renderFixture builds a small two-module diagram by hand: an api and a
// lambda side by side in the root module, a cloudfront node in a "site"
// module below, one routed edge of each kind, and the actor figure.
func renderFixture(t *testing.T) (*graph.Graph, *layout.Layout, *route.Plan) {
	t.Helper()

	g := graph.New(nil)
	nodes := []graph.Node{
		{ID: "api", Type: "aws_apigatewayv2_api", Name: "api", Flow: graph.FlowAPI, Category: graph.CategoryNetwork},
		{ID: "fn", Type: "aws_lambda_function", Name: "orders", Flow: graph.FlowCompute, Category: graph.CategoryCompute},
		{ID: "cdn", Type: "aws_cloudfront_distribution", Name: "site-cdn", Module: "site", Flow: graph.FlowCDN, Category: graph.CategoryNetwork},
	}
	for _, n := range nodes {
		if err := g.AddNode(n); err != nil {
			t.Fatalf("AddNode(%s): %v", n.ID, err)
		}
	}

	l := &layout.Layout{
		Positions: map[string]layout.Rect{
			"api": {X: 168, Y: 120, W: 112, H: 104},
			"fn":  {X: 328, Y: 120, W: 112, H: 104},
			"cdn": {X: 168, Y: 400, W: 112, H: 104},
		},
		Modules: []layout.ModuleBox{
			{Name: graph.RootModule, Label: "Root", Bounds: layout.Rect{X: 144, Y: 64, W: 320, H: 216}},
			{Name: "site", Label: "Site", Bounds: layout.Rect{X: 144, Y: 360, W: 160, H: 200}},
		},
		Entries: []layout.EntryPoint{
			{NodeID: "api", Flow: graph.FlowAPI, At: layout.Rect{X: 168, Y: 120, W: 112, H: 104}},
		},
		Actor:        layout.Rect{X: 64, Y: 200, W: 48, H: 60},
		Width:        688,
		Height:       620,
		Title:        "Orders & Billing",
		TitleY:       96,
		HeaderHeight: 32,
		Padding:      64,
	}

	intra := []graph.Edge{{From: "api", To: "fn", Kind: graph.KindReference}}
	cross := []graph.Edge{{From: "cdn", To: "api", Kind: graph.KindCrossModule}}
	return g, l, route.BuildPlan(l, intra, cross, route.DefaultConfig())
}

func TestRenderSVG(t *testing.T) {
	g, l, plan := renderFixture(t)

	out, err := RenderSVG(context.Background(), l, WithGraph(g), WithPlan(plan))
	if err != nil {
		t.Fatalf("RenderSVG() error: %v", err)
	}
	doc := string(out)

	if !strings.HasPrefix(doc, "<?xml") || !strings.HasSuffix(doc, "</svg>\n") {
		t.Fatalf("not a complete SVG document:\n%s", doc)
	}

	wantContains := []string{
		`<svg xmlns="http://www.w3.org/2000/svg" width="688" height="620" viewBox="0 0 688 620"`,
		// Escaped title at the canvas padding.
		`<text x="64" y="96" font-size="18" font-weight="600" fill="#232f3e">Orders &amp; Billing</text>`,
		// Module container with the squared-off header strip.
		`<rect x="144" y="64" width="320" height="216" fill="#f8f9fa" stroke="#e9ecef" rx="8"/>`,
		`<rect x="144" y="88" width="320" height="8" fill="#232f3e"/>`,
		`>Root</text>`,
		`>Site</text>`,
		// Lambda node: accent square, abbrev, service label, name line.
		`<rect x="360" y="132" width="48" height="48" rx="6" fill="#ED7100"/>`,
		`>λ</text>`,
		`<text x="384" y="200" font-size="9" fill="#545b64" text-anchor="middle">Lambda</text>`,
		`<text x="384" y="214" font-size="11" fill="#232f3e" text-anchor="middle">orders</text>`,
		// Straight same-row arrow with an arrowhead.
		`<line x1="284" y1="172" x2="324" y2="172" stroke="#545b64" stroke-width="1.5" marker-end="url(#arrow)"/>`,
		// Dashed cubic between the modules.
		`<path d="M224,396 C224,312 224,312 224,228" fill="none" stroke="#545b64" stroke-width="1.5" stroke-dasharray="4,3"/>`,
		// Actor figure and its connector into the api entry point.
		`<g class="actor" transform="translate(64,200)">`,
		`>Users</text>`,
		`<path d="M112,230 C136,230 136,172 164,172" fill="none" stroke="#545b64" stroke-width="1.5"/>`,
	}
	for _, want := range wantContains {
		if !strings.Contains(doc, want) {
			t.Errorf("output missing %q", want)
		}
	}

	// The cdn node repeats its module name, so its name line (which would
	// sit at y=494) is dropped.
	if strings.Contains(doc, `y="494"`) {
		t.Error("cdn name should be hidden when it repeats the module name")
	}
}

func TestRenderSVGDeterministic(t *testing.T) {
	g, l, plan := renderFixture(t)

	first, err := RenderSVG(context.Background(), l, WithGraph(g), WithPlan(plan))
	if err != nil {
		t.Fatalf("RenderSVG() error: %v", err)
	}
	second, err := RenderSVG(context.Background(), l, WithGraph(g), WithPlan(plan))
	if err != nil {
		t.Fatalf("RenderSVG() error: %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Error("identical inputs produced different bytes")
	}
}

func TestRenderSVGWithoutActor(t *testing.T) {
	g, l, plan := renderFixture(t)

	out, err := RenderSVG(context.Background(), l, WithGraph(g), WithPlan(plan), WithoutActor())
	if err != nil {
		t.Fatalf("RenderSVG() error: %v", err)
	}
	if strings.Contains(string(out), `class="actor"`) || strings.Contains(string(out), ">Users<") {
		t.Error("actor figure rendered despite WithoutActor")
	}
}

func TestRenderSVGWithoutCrossModule(t *testing.T) {
	g, l, plan := renderFixture(t)

	out, err := RenderSVG(context.Background(), l, WithGraph(g), WithPlan(plan), WithoutCrossModule())
	if err != nil {
		t.Fatalf("RenderSVG() error: %v", err)
	}
	if strings.Contains(string(out), "stroke-dasharray") {
		t.Error("cross-module connector rendered despite WithoutCrossModule")
	}
	// The same-module arrow stays.
	if !strings.Contains(string(out), `marker-end="url(#arrow)"`) {
		t.Error("same-module arrow missing")
	}
}

func TestRenderSVGWithFooter(t *testing.T) {
	g, l, plan := renderFixture(t)

	out, err := RenderSVG(context.Background(), l, WithGraph(g), WithPlan(plan),
		WithFooter("generated by stackflow"))
	if err != nil {
		t.Fatalf("RenderSVG() error: %v", err)
	}
	want := `<text x="64" y="596" font-size="10" fill="#545b64">generated by stackflow</text>`
	if !strings.Contains(string(out), want) {
		t.Errorf("output missing footer %q", want)
	}
}

func TestRenderSVGWithPalette(t *testing.T) {
	g, l, plan := renderFixture(t)

	p := DefaultPalette()
	p.Background = "#101214"
	p.Categories[graph.CategoryCompute] = "#00ff00"

	out, err := RenderSVG(context.Background(), l, WithGraph(g), WithPlan(plan), WithPalette(p))
	if err != nil {
		t.Fatalf("RenderSVG() error: %v", err)
	}
	doc := string(out)
	if !strings.Contains(doc, `<rect width="100%" height="100%" fill="#101214"/>`) {
		t.Error("background override not applied")
	}
	if !strings.Contains(doc, `fill="#00ff00"`) {
		t.Error("category accent override not applied")
	}
}

func TestRenderSVGWithoutPlan(t *testing.T) {
	g, l, _ := renderFixture(t)

	out, err := RenderSVG(context.Background(), l, WithGraph(g))
	if err != nil {
		t.Fatalf("RenderSVG() error: %v", err)
	}
	doc := string(out)
	if strings.Contains(doc, "<line") || strings.Contains(doc, "marker-end") {
		t.Error("connectors rendered without a plan")
	}
	if !strings.Contains(doc, `>Root</text>`) {
		t.Error("modules should still render without a plan")
	}
}

func TestRenderSVGErrors(t *testing.T) {
	g, l, _ := renderFixture(t)

	if _, err := RenderSVG(context.Background(), nil, WithGraph(g)); !errors.Is(err, errors.ErrCodeRender) {
		t.Errorf("nil layout error = %v, want %s", err, errors.ErrCodeRender)
	}
	if _, err := RenderSVG(context.Background(), l); !errors.Is(err, errors.ErrCodeRender) {
		t.Errorf("missing graph error = %v, want %s", err, errors.ErrCodeRender)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := RenderSVG(ctx, l, WithGraph(g)); err == nil {
		t.Error("canceled context should fail")
	}
}

func TestRenderSVGComputedLayout(t *testing.T) {
	g := graph.New(graph.Metadata{graph.MetaTitle: "Checkout"})
	nodes := []graph.Node{
		{ID: "zone", Type: "aws_route53_zone", Name: "zone", Flow: graph.FlowCDN, Position: 0, Category: graph.CategoryNetwork},
		{ID: "cf", Type: "aws_cloudfront_distribution", Name: "cf", Flow: graph.FlowCDN, Position: 2, Category: graph.CategoryNetwork},
		{ID: "fn", Type: "aws_lambda_function", Name: "checkout", Flow: graph.FlowCompute, Position: 1, Category: graph.CategoryCompute},
		{ID: "tbl", Type: "aws_dynamodb_table", Name: "carts", Flow: graph.FlowCompute, Position: 3, Category: graph.CategoryDatabase},
	}
	for _, n := range nodes {
		if err := g.AddNode(n); err != nil {
			t.Fatalf("AddNode(%s): %v", n.ID, err)
		}
	}

	cfg := layout.DefaultConfig()
	cfg.EntryTypes = classify.DefaultEntryTypes()
	l := layout.Compute(g, cfg)

	intra := []graph.Edge{
		{From: "zone", To: "cf", Kind: graph.KindReference},
		{From: "fn", To: "tbl", Kind: graph.KindInferred},
	}
	plan := route.BuildPlan(l, intra, nil, route.ConfigFor(cfg))

	out, err := RenderSVG(context.Background(), l, WithGraph(g), WithPlan(plan))
	if err != nil {
		t.Fatalf("RenderSVG() error: %v", err)
	}
	doc := string(out)

	if got := strings.Count(doc, `filter="url(#shadow)"`); got != g.NodeCount() {
		t.Errorf("drew %d node boxes, want %d", got, g.NodeCount())
	}
	for _, label := range []string{"Route 53", "CloudFront", "Lambda", "DynamoDB"} {
		if !strings.Contains(doc, ">"+label+"</text>") {
			t.Errorf("missing service label %q", label)
		}
	}
	if got := strings.Count(doc, `marker-end="url(#arrow)"`); got != len(intra) {
		t.Errorf("drew %d arrows, want %d", got, len(intra))
	}
	// The route53 zone is an entry type, so the actor connects to it.
	if !strings.Contains(doc, ">Users</text>") {
		t.Error("missing actor figure")
	}
	if !strings.Contains(doc, ">Checkout</text>") {
		t.Error("missing title from graph metadata")
	}
}

func TestShowName(t *testing.T) {
	tests := []struct {
		name string
		node graph.Node
		want bool
	}{
		{"RootModuleAlwaysShows", graph.Node{Name: "site", Module: ""}, true},
		{"DistinctNameShows", graph.Node{Name: "orders", Module: "billing"}, true},
		{"ExactRepeatHides", graph.Node{Name: "site", Module: "site"}, false},
		{"NameContainsModuleHides", graph.Node{Name: "site-cdn", Module: "site"}, false},
		{"ModuleContainsNameHides", graph.Node{Name: "web", Module: "web_frontend"}, false},
		{"SeparatorsIgnored", graph.Node{Name: "Order_Processing", Module: "order-processing"}, false},
		{"EmptyNameHides", graph.Node{Name: "", Module: "site"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := showName(&tt.node); got != tt.want {
				t.Errorf("showName(%+v) = %v, want %v", tt.node, got, tt.want)
			}
		})
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in    string
		limit int
		want  string
	}{
		{"orders", 12, "orders"},
		{"exactly12run", 12, "exactly12run"},
		{"a-very-long-resource", 12, "a-very-long…"},
		{"héllo-wörld-again", 12, "héllo-wörld…"},
		{"", 12, ""},
	}
	for _, tt := range tests {
		if got := truncate(tt.in, tt.limit); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.limit, got, tt.want)
		}
	}
}

func TestPaletteCategoryFallback(t *testing.T) {
	p := DefaultPalette()
	if got := p.Category(graph.CategoryCompute); got != "#ED7100" {
		t.Errorf("Category(compute) = %q, want #ED7100", got)
	}
	if got := p.Category("mystery"); got != "#879196" {
		t.Errorf("Category(mystery) = %q, want default accent", got)
	}
}
