package graph

import (
	"errors"
	"slices"
	"testing"
)

func TestAddNode(t *testing.T) {
	g := New(nil)

	if err := g.AddNode(Node{ID: "aws_s3_bucket.site", Type: "aws_s3_bucket"}); err != nil {
		t.Fatalf("AddNode: %v", err)
	}

	if err := g.AddNode(Node{ID: ""}); !errors.Is(err, ErrInvalidNodeID) {
		t.Errorf("AddNode(empty ID) = %v, want ErrInvalidNodeID", err)
	}

	if err := g.AddNode(Node{ID: "aws_s3_bucket.site"}); !errors.Is(err, ErrDuplicateNodeID) {
		t.Errorf("AddNode(duplicate) = %v, want ErrDuplicateNodeID", err)
	}

	n, ok := g.Node("aws_s3_bucket.site")
	if !ok {
		t.Fatal("Node() not found after AddNode")
	}
	if n.Meta == nil {
		t.Error("Meta should be initialized to an empty map")
	}
}

func TestAddEdge(t *testing.T) {
	g := New(nil)
	g.AddNode(Node{ID: "a"})
	g.AddNode(Node{ID: "b"})

	if err := g.AddEdge(Edge{From: "a", To: "b"}); err != nil {
		t.Fatalf("AddEdge: %v", err)
	}

	if err := g.AddEdge(Edge{From: "x", To: "b"}); !errors.Is(err, ErrUnknownSourceNode) {
		t.Errorf("AddEdge(unknown source) = %v, want ErrUnknownSourceNode", err)
	}
	if err := g.AddEdge(Edge{From: "a", To: "x"}); !errors.Is(err, ErrUnknownTargetNode) {
		t.Errorf("AddEdge(unknown target) = %v, want ErrUnknownTargetNode", err)
	}

	if !g.HasEdge("a", "b") {
		t.Error("HasEdge(a, b) = false, want true")
	}
	if g.HasEdge("b", "a") {
		t.Error("HasEdge(b, a) = true, want false")
	}
}

func TestRemoveEdge(t *testing.T) {
	g := New(nil)
	g.AddNode(Node{ID: "a"})
	g.AddNode(Node{ID: "b"})
	g.AddEdge(Edge{From: "a", To: "b"})

	g.RemoveEdge("a", "b")

	if g.EdgeCount() != 0 {
		t.Errorf("EdgeCount() = %d, want 0", g.EdgeCount())
	}
	if len(g.Children("a")) != 0 {
		t.Errorf("Children(a) = %v, want empty", g.Children("a"))
	}
	if len(g.Parents("b")) != 0 {
		t.Errorf("Parents(b) = %v, want empty", g.Parents("b"))
	}

	// Removing a non-existent edge is a no-op
	g.RemoveEdge("a", "b")
}

func TestRemoveNode(t *testing.T) {
	g := New(nil)
	g.AddNode(Node{ID: "a", Module: "web"})
	g.AddNode(Node{ID: "b", Module: "web"})
	g.AddNode(Node{ID: "c"})
	g.AddEdge(Edge{From: "a", To: "b"})
	g.AddEdge(Edge{From: "b", To: "c"})
	g.AddEdge(Edge{From: "c", To: "a"})

	g.RemoveNode("b")

	if g.NodeCount() != 2 {
		t.Errorf("NodeCount() = %d, want 2", g.NodeCount())
	}
	if g.EdgeCount() != 1 {
		t.Errorf("EdgeCount() = %d, want 1", g.EdgeCount())
	}
	if !g.HasEdge("c", "a") {
		t.Error("unrelated edge c->a should survive")
	}
	if len(g.Children("a")) != 0 {
		t.Errorf("Children(a) = %v, want empty", g.Children("a"))
	}

	mods := g.NodesInModule("web")
	if len(mods) != 1 || mods[0].ID != "a" {
		t.Errorf("NodesInModule(web) = %v, want [a]", NodeIDs(mods))
	}

	// Removing the last node of a module drops the module
	g.RemoveNode("a")
	if g.ModuleCount() != 1 {
		t.Errorf("ModuleCount() = %d, want 1", g.ModuleCount())
	}

	// Removing a non-existent node is a no-op
	g.RemoveNode("missing")
}

func TestModuleIndex(t *testing.T) {
	g := New(nil)
	g.AddNode(Node{ID: "a", Module: "web"})
	g.AddNode(Node{ID: "b"})
	g.AddNode(Node{ID: "c", Module: "api"})
	g.AddNode(Node{ID: "d", Module: "web"})

	if g.ModuleCount() != 3 {
		t.Errorf("ModuleCount() = %d, want 3", g.ModuleCount())
	}

	want := []string{RootModule, "api", "web"}
	if got := g.ModuleNames(); !slices.Equal(got, want) {
		t.Errorf("ModuleNames() = %v, want %v", got, want)
	}

	web := NodeIDs(g.NodesInModule("web"))
	if !slices.Equal(web, []string{"a", "d"}) {
		t.Errorf("NodesInModule(web) = %v, want [a d]", web)
	}

	root := NodeIDs(g.NodesInModule(RootModule))
	if !slices.Equal(root, []string{"b"}) {
		t.Errorf("NodesInModule(_root) = %v, want [b]", root)
	}
}

func TestModuleNamesWithoutRoot(t *testing.T) {
	g := New(nil)
	g.AddNode(Node{ID: "a", Module: "web"})
	g.AddNode(Node{ID: "b", Module: "api"})

	want := []string{"api", "web"}
	if got := g.ModuleNames(); !slices.Equal(got, want) {
		t.Errorf("ModuleNames() = %v, want %v", got, want)
	}
}

func TestSortedNodes(t *testing.T) {
	g := New(nil)
	g.AddNode(Node{ID: "c"})
	g.AddNode(Node{ID: "a"})
	g.AddNode(Node{ID: "b"})

	got := NodeIDs(g.SortedNodes())
	want := []string{"a", "b", "c"}
	if !slices.Equal(got, want) {
		t.Errorf("SortedNodes() = %v, want %v", got, want)
	}
}

func TestSourcesAndSinks(t *testing.T) {
	g := New(nil)
	g.AddNode(Node{ID: "a"})
	g.AddNode(Node{ID: "b"})
	g.AddNode(Node{ID: "c"})
	g.AddEdge(Edge{From: "a", To: "b"})
	g.AddEdge(Edge{From: "b", To: "c"})

	sources := NodeIDs(g.Sources())
	if !slices.Equal(sources, []string{"a"}) {
		t.Errorf("Sources() = %v, want [a]", sources)
	}

	sinks := NodeIDs(g.Sinks())
	if !slices.Equal(sinks, []string{"c"}) {
		t.Errorf("Sinks() = %v, want [c]", sinks)
	}
}

func TestHasCycle(t *testing.T) {
	tests := []struct {
		name  string
		build func() *Graph
		want  bool
	}{
		{
			name: "Acyclic",
			build: func() *Graph {
				g := New(nil)
				g.AddNode(Node{ID: "a"})
				g.AddNode(Node{ID: "b"})
				g.AddEdge(Edge{From: "a", To: "b"})
				return g
			},
			want: false,
		},
		{
			name: "TwoNodeCycle",
			build: func() *Graph {
				g := New(nil)
				g.AddNode(Node{ID: "a"})
				g.AddNode(Node{ID: "b"})
				g.AddEdge(Edge{From: "a", To: "b"})
				g.AddEdge(Edge{From: "b", To: "a"})
				return g
			},
			want: true,
		},
		{
			name: "Diamond",
			build: func() *Graph {
				g := New(nil)
				for _, id := range []string{"a", "b", "c", "d"} {
					g.AddNode(Node{ID: id})
				}
				g.AddEdge(Edge{From: "a", To: "b"})
				g.AddEdge(Edge{From: "a", To: "c"})
				g.AddEdge(Edge{From: "b", To: "d"})
				g.AddEdge(Edge{From: "c", To: "d"})
				return g
			},
			want: false,
		},
		{
			name:  "Empty",
			build: func() *Graph { return New(nil) },
			want:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.build().HasCycle(); got != tt.want {
				t.Errorf("HasCycle() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEffectiveModule(t *testing.T) {
	if got := (Node{ID: "a"}).EffectiveModule(); got != RootModule {
		t.Errorf("EffectiveModule() = %q, want %q", got, RootModule)
	}
	if got := (Node{ID: "a", Module: "web"}).EffectiveModule(); got != "web" {
		t.Errorf("EffectiveModule() = %q, want %q", got, "web")
	}
}

func TestDisplayName(t *testing.T) {
	tests := []struct {
		name string
		node Node
		want string
	}{
		{"LabelWins", Node{ID: "aws_s3_bucket.site", Name: "site", Meta: Metadata{"label": "www.example.com"}}, "www.example.com"},
		{"NameFallback", Node{ID: "aws_s3_bucket.site", Name: "site"}, "site"},
		{"IDFallback", Node{ID: "aws_s3_bucket.site"}, "aws_s3_bucket.site"},
		{"EmptyLabelIgnored", Node{ID: "n", Name: "site", Meta: Metadata{"label": ""}}, "site"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.node.DisplayName(); got != tt.want {
				t.Errorf("DisplayName() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFlowValid(t *testing.T) {
	for _, f := range Flows() {
		if !f.Valid() {
			t.Errorf("Flow(%q).Valid() = false, want true", f)
		}
	}
	if Flow("dns").Valid() {
		t.Error(`Flow("dns").Valid() = true, want false`)
	}
	if Flow("").Valid() {
		t.Error(`Flow("").Valid() = true, want false`)
	}
}
