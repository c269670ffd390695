package viz

import "github.com/charmbracelet/lipgloss"

// Theme is the color scheme of the viewer.
type Theme struct {
	Name    string
	Bodies  []lipgloss.Color
	Trail   lipgloss.Color
	Text    lipgloss.Color
	Muted   lipgloss.Color
	Accent  lipgloss.Color
	Warning lipgloss.Color
	Border  lipgloss.Color
}

var (
	ThemeCyberpunk = Theme{
		Name:    "cyberpunk",
		Bodies:  []lipgloss.Color{"#ff00ff", "#00ffff", "#ffff00"},
		Trail:   lipgloss.Color("#00ffff"),
		Text:    lipgloss.Color("#ffffff"),
		Muted:   lipgloss.Color("#666666"),
		Accent:  lipgloss.Color("#ff00ff"),
		Warning: lipgloss.Color("#ff8800"),
		Border:  lipgloss.Color("#444466"),
	}

	ThemeRetro = Theme{
		Name:    "retro",
		Bodies:  []lipgloss.Color{"#00ff00", "#88ff88"},
		Trail:   lipgloss.Color("#00cc00"),
		Text:    lipgloss.Color("#00ff00"),
		Muted:   lipgloss.Color("#005500"),
		Accent:  lipgloss.Color("#88ff88"),
		Warning: lipgloss.Color("#ffff00"),
		Border:  lipgloss.Color("#005500"),
	}

	ThemeOcean = Theme{
		Name:    "ocean",
		Bodies:  []lipgloss.Color{"#ffd700", "#00a8cc", "#e0f0ff"},
		Trail:   lipgloss.Color("#0077be"),
		Text:    lipgloss.Color("#e0f0ff"),
		Muted:   lipgloss.Color("#4488aa"),
		Accent:  lipgloss.Color("#ffd700"),
		Warning: lipgloss.Color("#ffcc00"),
		Border:  lipgloss.Color("#4488aa"),
	}

	ThemeMinimal = Theme{
		Name:    "minimal",
		Bodies:  []lipgloss.Color{"#ffffff"},
		Trail:   lipgloss.Color("#888888"),
		Text:    lipgloss.Color("#ffffff"),
		Muted:   lipgloss.Color("#888888"),
		Accent:  lipgloss.Color("#0088ff"),
		Warning: lipgloss.Color("#ffaa00"),
		Border:  lipgloss.Color("#444444"),
	}

	Themes = []Theme{ThemeCyberpunk, ThemeRetro, ThemeOcean, ThemeMinimal}
)

// GetTheme returns a theme by name, falling back to the first theme.
func GetTheme(name string) Theme {
	for _, t := range Themes {
		if t.Name == name {
			return t
		}
	}
	return Themes[0]
}

func ThemeNames() []string {
	names := make([]string, len(Themes))
	for i, t := range Themes {
		names[i] = t.Name
	}
	return names
}

// themeIndex returns the position of name in Themes, or 0.
func themeIndex(name string) int {
	for i, t := range Themes {
		if t.Name == name {
			return i
		}
	}
	return 0
}

// BodyColor picks the color of the i-th body, cycling through the palette.
func (t Theme) BodyColor(i int) lipgloss.Color {
	if len(t.Bodies) == 0 {
		return t.Text
	}
	return t.Bodies[i%len(t.Bodies)]
}
