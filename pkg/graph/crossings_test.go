package graph

import "testing"

func TestCountLayerCrossings(t *testing.T) {
	tests := []struct {
		name  string
		edges []Edge
		upper []string
		lower []string
		want  int
	}{
		{
			name:  "NoEdges",
			upper: []string{"a", "b"},
			lower: []string{"x", "y"},
			want:  0,
		},
		{
			name:  "EmptyRows",
			upper: nil,
			lower: []string{"x"},
			want:  0,
		},
		{
			name: "ParallelEdges",
			edges: []Edge{
				{From: "a", To: "x"},
				{From: "b", To: "y"},
			},
			upper: []string{"a", "b"},
			lower: []string{"x", "y"},
			want:  0,
		},
		{
			name: "SingleCrossing",
			edges: []Edge{
				{From: "a", To: "y"},
				{From: "b", To: "x"},
			},
			upper: []string{"a", "b"},
			lower: []string{"x", "y"},
			want:  1,
		},
		{
			name: "CompleteBipartiteK22",
			edges: []Edge{
				{From: "a", To: "x"},
				{From: "a", To: "y"},
				{From: "b", To: "x"},
				{From: "b", To: "y"},
			},
			upper: []string{"a", "b"},
			lower: []string{"x", "y"},
			want:  1,
		},
		{
			name: "ThreeWayInversion",
			edges: []Edge{
				{From: "a", To: "z"},
				{From: "b", To: "y"},
				{From: "c", To: "x"},
			},
			upper: []string{"a", "b", "c"},
			lower: []string{"x", "y", "z"},
			want:  3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := New(nil)
			for _, id := range tt.upper {
				g.AddNode(Node{ID: id})
			}
			for _, id := range tt.lower {
				g.AddNode(Node{ID: id})
			}
			for _, e := range tt.edges {
				if err := g.AddEdge(e); err != nil {
					t.Fatalf("AddEdge(%v): %v", e, err)
				}
			}

			if got := CountLayerCrossings(g, tt.upper, tt.lower); got != tt.want {
				t.Errorf("CountLayerCrossings() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestCountCrossings(t *testing.T) {
	g := New(nil)
	for _, id := range []string{"a", "b", "x", "y", "p", "q"} {
		g.AddNode(Node{ID: id})
	}
	// Row 0 → 1 crosses once, row 1 → 2 is parallel.
	g.AddEdge(Edge{From: "a", To: "y"})
	g.AddEdge(Edge{From: "b", To: "x"})
	g.AddEdge(Edge{From: "x", To: "p"})
	g.AddEdge(Edge{From: "y", To: "q"})

	orders := map[int][]string{
		0: {"a", "b"},
		1: {"x", "y"},
		2: {"p", "q"},
	}

	if got := CountCrossings(g, orders); got != 1 {
		t.Errorf("CountCrossings() = %d, want 1", got)
	}
}
