package diagram

// Theme selects the color palette for a rendered diagram.
type Theme struct {
	Name       string
	Background string
	Line       string
	Contrast   string
	DotText    string
}

// Light is the default palette for light backgrounds.
var Light = Theme{
	Name:       "light",
	Background: "#ffffff",
	Line:       "#333333",
	Contrast:   "#000000",
	DotText:    "#ffffff",
}

// Dark is the palette for dark backgrounds.
var Dark = Theme{
	Name:       "dark",
	Background: "#1a1a1a",
	Line:       "#cccccc",
	Contrast:   "#ffffff",
	DotText:    "#ffffff",
}

// Themes returns every supported theme in render order.
func Themes() []Theme {
	return []Theme{Light, Dark}
}

// ThemeByName resolves a theme by its storage name.
func ThemeByName(name string) (Theme, bool) {
	switch name {
	case Light.Name:
		return Light, true
	case Dark.Name:
		return Dark, true
	default:
		return Theme{}, false
	}
}

// fingerColors keys dot fill colors by finger assignment. "T" marks the thumb.
var fingerColors = map[string]string{
	"1": "#2962ff",
	"2": "#2e7d32",
	"3": "#f57c00",
	"4": "#8e24aa",
	"T": "#c62828",
}

const defaultFingerColor = "#616161"

func fingerColor(finger string) string {
	if color, ok := fingerColors[finger]; ok {
		return color
	}
	return defaultFingerColor
}
