package svg

import "github.com/fwerkmann/stackflow/pkg/graph"

// Palette holds every color the renderer uses, as SVG color strings.
// Category accents key by [graph.Category]; unknown categories fall back to
// the default accent.
type Palette struct {
	Background   string `json:"background" toml:"background"`
	ModuleBG     string `json:"module_bg" toml:"module_bg"`
	ModuleBorder string `json:"module_border" toml:"module_border"`
	ModuleHeader string `json:"module_header" toml:"module_header"`
	NodeBG       string `json:"node_bg" toml:"node_bg"`
	NodeBorder   string `json:"node_border" toml:"node_border"`
	Text         string `json:"text" toml:"text"`
	TextMuted    string `json:"text_muted" toml:"text_muted"`
	TextInverse  string `json:"text_inverse" toml:"text_inverse"`
	Arrow        string `json:"arrow" toml:"arrow"`
	Actor        string `json:"actor" toml:"actor"`

	Categories map[graph.Category]string `json:"categories" toml:"categories"`
}

// DefaultPalette returns the built-in theme: a light canvas with one AWS
// accent color per service category.
func DefaultPalette() Palette {
	return Palette{
		Background:   "#ffffff",
		ModuleBG:     "#f8f9fa",
		ModuleBorder: "#e9ecef",
		ModuleHeader: "#232f3e",
		NodeBG:       "#ffffff",
		NodeBorder:   "#d5dbdb",
		Text:         "#232f3e",
		TextMuted:    "#545b64",
		TextInverse:  "#ffffff",
		Arrow:        "#545b64",
		Actor:        "#232f3e",
		Categories: map[graph.Category]string{
			graph.CategoryCompute:     "#ED7100",
			graph.CategoryDatabase:    "#C925D1",
			graph.CategoryStorage:     "#7AA116",
			graph.CategoryNetwork:     "#8C4FFF",
			graph.CategorySecurity:    "#DD344C",
			graph.CategoryIntegration: "#E7157B",
			graph.CategoryDefault:     "#879196",
		},
	}
}

// Category returns the accent color for c, or the default accent when c has
// no entry.
func (p Palette) Category(c graph.Category) string {
	if hex, ok := p.Categories[c]; ok {
		return hex
	}
	return p.Categories[graph.CategoryDefault]
}
