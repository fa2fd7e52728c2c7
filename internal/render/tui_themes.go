// Package render draws chat bubbles and holds the color themes used by the
// terminal interface.
package render

import (
	"sort"

	"github.com/charmbracelet/lipgloss"
)

// TUITheme defines the color scheme for the widget
type TUITheme struct {
	Name        string
	Description string

	Surface lipgloss.Color
	Border  lipgloss.Color

	// Bubble accents
	User      lipgloss.Color
	Assistant lipgloss.Color
	Typing    lipgloss.Color
	Error     lipgloss.Color

	Text     lipgloss.Color
	TextDim  lipgloss.Color
	TextMute lipgloss.Color
}

var (
	// TokyoNightTheme is the default theme
	TokyoNightTheme = TUITheme{
		Name:        "tokyonight",
		Description: "Tokyo Night - Dark theme with blue accents",
		Surface:     lipgloss.Color("#24283b"),
		Border:      lipgloss.Color("#414868"),
		User:        lipgloss.Color("#9ece6a"),
		Assistant:   lipgloss.Color("#7aa2f7"),
		Typing:      lipgloss.Color("#bb9af7"),
		Error:       lipgloss.Color("#f7768e"),
		Text:        lipgloss.Color("#c0caf5"),
		TextDim:     lipgloss.Color("#565f89"),
		TextMute:    lipgloss.Color("#3b4261"),
	}

	CatppuccinMochaTheme = TUITheme{
		Name:        "catppuccin",
		Description: "Catppuccin Mocha - Warm dark theme with pastel colors",
		Surface:     lipgloss.Color("#313244"),
		Border:      lipgloss.Color("#45475a"),
		User:        lipgloss.Color("#a6e3a1"),
		Assistant:   lipgloss.Color("#89b4fa"),
		Typing:      lipgloss.Color("#cba6f7"),
		Error:       lipgloss.Color("#f38ba8"),
		Text:        lipgloss.Color("#cdd6f4"),
		TextDim:     lipgloss.Color("#6c7086"),
		TextMute:    lipgloss.Color("#45475a"),
	}

	NordTheme = TUITheme{
		Name:        "nord",
		Description: "Nord - Arctic-inspired theme with cool tones",
		Surface:     lipgloss.Color("#3b4252"),
		Border:      lipgloss.Color("#4c566a"),
		User:        lipgloss.Color("#a3be8c"),
		Assistant:   lipgloss.Color("#88c0d0"),
		Typing:      lipgloss.Color("#b48ead"),
		Error:       lipgloss.Color("#bf616a"),
		Text:        lipgloss.Color("#eceff4"),
		TextDim:     lipgloss.Color("#7b88a1"),
		TextMute:    lipgloss.Color("#4c566a"),
	}

	DraculaTheme = TUITheme{
		Name:        "dracula",
		Description: "Dracula - Dark theme with vibrant colors",
		Surface:     lipgloss.Color("#44475a"),
		Border:      lipgloss.Color("#6272a4"),
		User:        lipgloss.Color("#50fa7b"),
		Assistant:   lipgloss.Color("#8be9fd"),
		Typing:      lipgloss.Color("#ff79c6"),
		Error:       lipgloss.Color("#ff5555"),
		Text:        lipgloss.Color("#f8f8f2"),
		TextDim:     lipgloss.Color("#6272a4"),
		TextMute:    lipgloss.Color("#44475a"),
	}
)

var themesByName = map[string]TUITheme{
	TokyoNightTheme.Name:      TokyoNightTheme,
	CatppuccinMochaTheme.Name: CatppuccinMochaTheme,
	NordTheme.Name:            NordTheme,
	DraculaTheme.Name:         DraculaTheme,
}

// GetTUIThemeByName returns a theme by its name
func GetTUIThemeByName(name string) (TUITheme, bool) {
	theme, ok := themesByName[name]
	return theme, ok
}

// ThemeOrDefault returns the named theme, falling back to Tokyo Night
func ThemeOrDefault(name string) TUITheme {
	if theme, ok := GetTUIThemeByName(name); ok {
		return theme
	}
	return TokyoNightTheme
}

// TUIThemeNames returns the sorted theme names
func TUIThemeNames() []string {
	names := make([]string, 0, len(themesByName))
	for name := range themesByName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
