package charts

import "strings"

// Palette colours one chart page.
type Palette struct {
	Background string
	Foreground string
	Axis       string
	Grid       string
	Colors     []string
}

const DefaultTheme = "dark"

var themes = map[string]Palette{
	"dark": {
		Background: "#0b0f1a", Foreground: "#cbd5e1", Axis: "#334155", Grid: "#1f2937",
		Colors: []string{"#60a5fa", "#34d399", "#f472b6", "#fbbf24", "#a78bfa"},
	},
	"bright": {
		Background: "#ffffff", Foreground: "#111827", Axis: "#9ca3af", Grid: "#e5e7eb",
		Colors: []string{"#2563eb", "#059669", "#dc2626", "#7c3aed", "#0ea5e9"},
	},
	"tokyo": {
		Background: "#1a1b26", Foreground: "#c0caf5", Axis: "#565f89", Grid: "#2a2f44",
		Colors: []string{"#7aa2f7", "#bb9af7", "#9ece6a", "#f7768e", "#e0af68"},
	},
	"barbie": {
		Background: "#fff0f6", Foreground: "#6b7280", Axis: "#f472b6", Grid: "#fde2e8",
		Colors: []string{"#ec4899", "#f472b6", "#fb7185", "#fbbf24", "#60a5fa"},
	},
}

// ThemeNames lists the available themes in cycle order.
func ThemeNames() []string {
	return []string{"dark", "bright", "tokyo", "barbie"}
}

// Theme resolves a palette by name. Unknown names fall back to the dark
// palette and report false.
func Theme(name string) (Palette, bool) {
	p, ok := themes[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return themes[DefaultTheme], false
	}
	return p, true
}

// positive and negative pick the bar colours for gains and losses.
func (p Palette) positive() string { return p.Colors[1] }
func (p Palette) negative() string { return p.Colors[2] }
