package jsonsink

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/fwerkmann/stackflow/pkg/graph"
	"github.com/fwerkmann/stackflow/pkg/layout"
	"github.com/fwerkmann/stackflow/pkg/route"
)

func sinkFixture(t *testing.T) (*graph.Graph, *layout.Layout, *route.Plan) {
	t.Helper()

	g := graph.New(nil)
	nodes := []graph.Node{
		{ID: "api", Type: "aws_apigatewayv2_api", Name: "api", Flow: graph.FlowAPI, Category: graph.CategoryNetwork},
		{ID: "fn", Type: "aws_lambda_function", Name: "orders", Flow: graph.FlowCompute, Category: graph.CategoryCompute,
			Meta: graph.Metadata{"label": "orders-fn"}},
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
		},
		Modules: []layout.ModuleBox{
			{Name: graph.RootModule, Label: "Root", Bounds: layout.Rect{X: 144, Y: 64, W: 320, H: 216}},
		},
		Entries: []layout.EntryPoint{
			{NodeID: "api", Flow: graph.FlowAPI, At: layout.Rect{X: 168, Y: 120, W: 112, H: 104}},
		},
		Actor:        layout.Rect{X: 64, Y: 200, W: 48, H: 60},
		Width:        688,
		Height:       344,
		Title:        "Orders",
		HeaderHeight: 32,
	}

	intra := []graph.Edge{{From: "api", To: "fn", Kind: graph.KindReference}}
	return g, l, route.BuildPlan(l, intra, nil, route.DefaultConfig())
}

func TestRenderJSON(t *testing.T) {
	g, l, plan := sinkFixture(t)

	data, err := RenderJSON(l, WithGraph(g), WithPlan(plan))
	if err != nil {
		t.Fatalf("RenderJSON() error: %v", err)
	}

	var out jsonOutput
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("json.Unmarshal() error: %v", err)
	}

	if out.Width != 688 || out.Height != 344 {
		t.Errorf("canvas = %dx%d, want 688x344", out.Width, out.Height)
	}
	if out.Title != "Orders" {
		t.Errorf("Title = %q", out.Title)
	}
	if len(out.Nodes) != 2 {
		t.Fatalf("Nodes count = %d, want 2", len(out.Nodes))
	}

	// Nodes come back in ID order with display enrichment.
	if out.Nodes[0].ID != "api" || out.Nodes[1].ID != "fn" {
		t.Errorf("node order = %s, %s", out.Nodes[0].ID, out.Nodes[1].ID)
	}
	fn := out.Nodes[1]
	if fn.Name != "orders-fn" {
		t.Errorf("fn.Name = %q, want label meta", fn.Name)
	}
	if fn.Service != "Lambda" {
		t.Errorf("fn.Service = %q, want Lambda", fn.Service)
	}
	if fn.Bounds != (layout.Rect{X: 328, Y: 120, W: 112, H: 104}) {
		t.Errorf("fn.Bounds = %+v", fn.Bounds)
	}

	if len(out.Arrows) != 1 {
		t.Fatalf("Arrows count = %d, want 1", len(out.Arrows))
	}
	arrow := out.Arrows[0]
	if arrow.From != "api" || arrow.To != "fn" || arrow.Kind != graph.KindReference {
		t.Errorf("arrow = %+v", arrow)
	}
	if len(arrow.Points) < 2 {
		t.Errorf("arrow has %d waypoints, want at least 2", len(arrow.Points))
	}

	if out.Actor == nil {
		t.Fatal("Actor missing")
	}
	if len(out.Actor.Connectors) != 1 || out.Actor.Connectors[0].NodeID != "api" {
		t.Errorf("actor connectors = %+v", out.Actor.Connectors)
	}
}

func TestRenderJSONGeometryOnly(t *testing.T) {
	_, l, _ := sinkFixture(t)

	data, err := RenderJSON(l)
	if err != nil {
		t.Fatalf("RenderJSON() error: %v", err)
	}

	var out jsonOutput
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("json.Unmarshal() error: %v", err)
	}
	if len(out.Nodes) != 2 {
		t.Fatalf("Nodes count = %d, want 2", len(out.Nodes))
	}
	if out.Nodes[0].Name != "" || out.Nodes[0].Service != "" {
		t.Errorf("node enriched without a graph: %+v", out.Nodes[0])
	}
	if out.Arrows != nil || out.Actor != nil {
		t.Error("connectors present without a plan")
	}
}

func TestRenderJSONDeterministic(t *testing.T) {
	g, l, plan := sinkFixture(t)

	first, err := RenderJSON(l, WithGraph(g), WithPlan(plan))
	if err != nil {
		t.Fatalf("RenderJSON() error: %v", err)
	}
	second, err := RenderJSON(l, WithGraph(g), WithPlan(plan))
	if err != nil {
		t.Fatalf("RenderJSON() error: %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Error("identical inputs produced different bytes")
	}
}
