package render

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// ColorTag is a symbolic color name. It selects both the terminal color of a
// segment and the leading symbol drawn for it.
type ColorTag string

// Known color tags. Names follow the usual terminal color vocabulary.
const (
	Black        ColorTag = "black"
	Grey         ColorTag = "grey"
	Red          ColorTag = "red"
	Green        ColorTag = "green"
	Yellow       ColorTag = "yellow"
	Blue         ColorTag = "blue"
	Magenta      ColorTag = "magenta"
	Cyan         ColorTag = "cyan"
	LightGrey    ColorTag = "light_grey"
	DarkGrey     ColorTag = "dark_grey"
	LightRed     ColorTag = "light_red"
	LightGreen   ColorTag = "light_green"
	LightYellow  ColorTag = "light_yellow"
	LightBlue    ColorTag = "light_blue"
	LightMagenta ColorTag = "light_magenta"
	LightCyan    ColorTag = "light_cyan"
	White        ColorTag = "white"
)

// FallbackSymbol is drawn for any tag missing from the symbol table.
const FallbackSymbol = "|"

var palette = map[ColorTag]lipgloss.Color{
	Black:        lipgloss.Color("0"),
	Grey:         lipgloss.Color("0"),
	Red:          lipgloss.Color("1"),
	Green:        lipgloss.Color("2"),
	Yellow:       lipgloss.Color("3"),
	Blue:         lipgloss.Color("4"),
	Magenta:      lipgloss.Color("5"),
	Cyan:         lipgloss.Color("6"),
	LightGrey:    lipgloss.Color("7"),
	DarkGrey:     lipgloss.Color("8"),
	LightRed:     lipgloss.Color("9"),
	LightGreen:   lipgloss.Color("10"),
	LightYellow:  lipgloss.Color("11"),
	LightBlue:    lipgloss.Color("12"),
	LightMagenta: lipgloss.Color("13"),
	LightCyan:    lipgloss.Color("14"),
	White:        lipgloss.Color("15"),
}

// DefaultSymbols returns a fresh copy of the default leading symbol table.
func DefaultSymbols() map[ColorTag]string {
	return map[ColorTag]string{
		Red:    "!",
		Yellow: "?",
		Green:  ">",
		Cyan:   "<",
	}
}

// Colors is shorthand for building a color sequence from plain names.
func Colors(names ...string) []ColorTag {
	tags := make([]ColorTag, len(names))
	for i, name := range names {
		tags[i] = ColorTag(name)
	}
	return tags
}

// terminalColor resolves a tag to a terminal color. Hex ("#ff8800") and
// palette index ("208") tags are passed through as-is.
func terminalColor(tag ColorTag) (lipgloss.Color, bool) {
	if c, ok := palette[tag]; ok {
		return c, true
	}
	s := string(tag)
	if strings.HasPrefix(s, "#") && len(s) == 7 {
		return lipgloss.Color(s), true
	}
	if s != "" && strings.Trim(s, "0123456789") == "" {
		return lipgloss.Color(s), true
	}
	return "", false
}

// Valid reports whether the tag resolves to a terminal color.
func (t ColorTag) Valid() bool {
	_, ok := terminalColor(t)
	return ok
}
