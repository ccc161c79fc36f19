package svg

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/fwerkmann/stackflow/pkg/classify"
	"github.com/fwerkmann/stackflow/pkg/graph"
	"github.com/fwerkmann/stackflow/pkg/layout"
	"github.com/fwerkmann/stackflow/pkg/route"
)

const (
	iconSize     = 48 // Colored accent square inside a node box
	nameMaxRunes = 12 // Drawn resource names are cut here with an ellipsis
	footerRise   = 24 // Footer baseline above the bottom canvas edge
)

func writeDefs(buf *bytes.Buffer, p Palette) {
	buf.WriteString("  <defs>\n")
	fmt.Fprintf(buf, `    <marker id="arrow" markerWidth="8" markerHeight="6" refX="7" refY="3" orient="auto"><path d="M0,0 L0,6 L8,3 z" fill="%s"/></marker>`+"\n", p.Arrow)
	buf.WriteString(`    <filter id="shadow" x="-20%" y="-20%" width="140%" height="140%"><feDropShadow dx="0" dy="2" stdDeviation="3" flood-opacity="0.1"/></filter>` + "\n")
	buf.WriteString("  </defs>\n")
}

func writeModule(buf *bytes.Buffer, m layout.ModuleBox, headerHeight int, p Palette) {
	b := m.Bounds
	buf.WriteString("  <g class=\"module\">\n")
	fmt.Fprintf(buf, `    <rect x="%d" y="%d" width="%d" height="%d" fill="%s" stroke="%s" rx="8"/>`+"\n",
		b.X, b.Y, b.W, b.H, p.ModuleBG, p.ModuleBorder)
	// Rounded header rect plus a squared strip over its bottom corners, so
	// only the top corners stay rounded.
	fmt.Fprintf(buf, `    <rect x="%d" y="%d" width="%d" height="%d" fill="%s" rx="8"/>`+"\n",
		b.X, b.Y, b.W, headerHeight, p.ModuleHeader)
	fmt.Fprintf(buf, `    <rect x="%d" y="%d" width="%d" height="8" fill="%s"/>`+"\n",
		b.X, b.Y+headerHeight-8, b.W, p.ModuleHeader)
	fmt.Fprintf(buf, `    <text x="%d" y="%d" font-size="13" font-weight="600" fill="%s">%s</text>`+"\n",
		b.X+16, b.Y+21, p.TextInverse, escape(m.Label))
	buf.WriteString("  </g>\n")
}

func writeNode(buf *bytes.Buffer, n *graph.Node, box layout.Rect, p Palette) {
	info := classify.Describe(n.Type)
	category := n.Category
	if category == "" {
		category = info.Category
	}
	iconX := box.X + (box.W-iconSize)/2
	iconY := box.Y + 12

	buf.WriteString("  <g class=\"node\">\n")
	fmt.Fprintf(buf, `    <rect x="%d" y="%d" width="%d" height="%d" fill="%s" stroke="%s" rx="6" filter="url(#shadow)"/>`+"\n",
		box.X, box.Y, box.W, box.H, p.NodeBG, p.NodeBorder)
	fmt.Fprintf(buf, `    <rect x="%d" y="%d" width="%d" height="%d" rx="6" fill="%s"/>`+"\n",
		iconX, iconY, iconSize, iconSize, p.Category(category))
	fmt.Fprintf(buf, `    <text x="%d" y="%d" font-size="14" font-weight="600" fill="%s" text-anchor="middle">%s</text>`+"\n",
		iconX+iconSize/2, iconY+32, p.TextInverse, escape(info.Abbrev))
	fmt.Fprintf(buf, `    <text x="%d" y="%d" font-size="9" fill="%s" text-anchor="middle">%s</text>`+"\n",
		box.X+box.W/2, box.Y+box.H-24, p.TextMuted, escape(info.Label))
	if showName(n) {
		fmt.Fprintf(buf, `    <text x="%d" y="%d" font-size="11" fill="%s" text-anchor="middle">%s</text>`+"\n",
			box.X+box.W/2, box.Y+box.H-10, p.Text, escape(truncate(n.DisplayName(), nameMaxRunes)))
	}
	buf.WriteString("  </g>\n")
}

// showName reports whether the node's name adds information beyond its
// module. Names that repeat the module context clutter the box and are
// dropped; root-module nodes always keep theirs.
func showName(n *graph.Node) bool {
	if n.Module == "" {
		return true
	}
	name, mod := flatten(n.Name), flatten(n.Module)
	return !strings.Contains(mod, name) && !strings.Contains(name, mod)
}

// flatten lowercases and strips separators for fuzzy name comparison.
func flatten(s string) string {
	s = strings.ToLower(s)
	s = strings.ReplaceAll(s, "_", "")
	return strings.ReplaceAll(s, "-", "")
}

// writeArrow draws one same-module connector: a straight line for two-point
// paths, otherwise the orthogonal polyline from the router. The arrowhead
// points at the target.
func writeArrow(buf *bytes.Buffer, path route.Path, p Palette) {
	if len(path) < 2 {
		return
	}
	if len(path) == 2 {
		fmt.Fprintf(buf, `  <line x1="%d" y1="%d" x2="%d" y2="%d" stroke="%s" stroke-width="1.5" marker-end="url(#arrow)"/>`+"\n",
			path[0].X, path[0].Y, path[1].X, path[1].Y, p.Arrow)
		return
	}
	fmt.Fprintf(buf, `  <path d="%s" fill="none" stroke="%s" stroke-width="1.5" marker-end="url(#arrow)"/>`+"\n",
		polyline(path), p.Arrow)
}

// writeCrossConnector draws a dashed cubic between modules. No arrowhead:
// cross-module calls are request/response, the link itself is the
// information.
func writeCrossConnector(buf *bytes.Buffer, path route.Path, p Palette) {
	if len(path) != 4 {
		return
	}
	fmt.Fprintf(buf, `  <path d="%s" fill="none" stroke="%s" stroke-width="1.5" stroke-dasharray="4,3"/>`+"\n",
		cubic(path), p.Arrow)
}

func writeActorConnector(buf *bytes.Buffer, path route.Path, p Palette) {
	if len(path) != 4 {
		return
	}
	fmt.Fprintf(buf, `  <path d="%s" fill="none" stroke="%s" stroke-width="1.5"/>`+"\n",
		cubic(path), p.Arrow)
}

func writeActor(buf *bytes.Buffer, at layout.Rect, p Palette) {
	fmt.Fprintf(buf, `  <g class="actor" transform="translate(%d,%d)">`+"\n", at.X, at.Y)
	fmt.Fprintf(buf, `    <circle cx="24" cy="12" r="9" fill="none" stroke="%s" stroke-width="2"/>`+"\n", p.Actor)
	fmt.Fprintf(buf, `    <path d="M8,38 Q8,24 24,24 Q40,24 40,38" fill="none" stroke="%s" stroke-width="2"/>`+"\n", p.Actor)
	fmt.Fprintf(buf, `    <text x="24" y="54" font-size="11" fill="%s" text-anchor="middle">Users</text>`+"\n", p.Text)
	buf.WriteString("  </g>\n")
}

// polyline renders a path as SVG line commands: "M x,y L x,y ...".
func polyline(path route.Path) string {
	var sb strings.Builder
	for i, pt := range path {
		if i == 0 {
			fmt.Fprintf(&sb, "M%d,%d", pt.X, pt.Y)
		} else {
			fmt.Fprintf(&sb, " L%d,%d", pt.X, pt.Y)
		}
	}
	return sb.String()
}

// cubic renders a four-point path as one SVG cubic bezier command.
func cubic(path route.Path) string {
	return fmt.Sprintf("M%d,%d C%d,%d %d,%d %d,%d",
		path[0].X, path[0].Y, path[1].X, path[1].Y, path[2].X, path[2].Y, path[3].X, path[3].Y)
}

// escape escapes text content for embedding in SVG markup.
func escape(s string) string {
	var buf bytes.Buffer
	xml.EscapeText(&buf, []byte(s))
	return buf.String()
}

// truncate cuts s to limit runes, ending with an ellipsis when shortened.
func truncate(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit-1]) + "…"
}
