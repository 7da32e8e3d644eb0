package render

import "fmt"

// Mode is the rendering layout chosen for one call from its order and color count.
type Mode int

const (
	// ModeInvalid means no layout is defined for the order/color combination.
	ModeInvalid Mode = iota
	// ModeDefault colors the leading string run of an unindented line.
	ModeDefault
	// ModeSimpleRows repeats the single color's symbol once per order level.
	ModeSimpleRows
	// ModeRainbow draws one symbol per color but the last, which colors the text.
	ModeRainbow
	// ModeAccents stripes the available colors cyclically over every order level.
	ModeAccents
	// ModeColorfulRows draws one symbol per color.
	ModeColorfulRows
)

func (m Mode) String() string {
	switch m {
	case ModeDefault:
		return "Default"
	case ModeSimpleRows:
		return "Simple Rows"
	case ModeRainbow:
		return "Rainbow"
	case ModeAccents:
		return "Accents"
	case ModeColorfulRows:
		return "Colorful Rows"
	default:
		return "Invalid"
	}
}

// FormatError reports an order/color combination with no rendering rule.
type FormatError struct {
	Order  int
	Colors int
}

func (e *FormatError) Error() string {
	if e.Colors == 0 {
		return "render: at least one color is required"
	}
	return fmt.Sprintf("render: order %d is not compatible with %d colors", e.Order, e.Colors)
}

// SelectMode picks the layout for an order and a color count. Negative orders
// count as zero. The first matching rule wins.
func SelectMode(order, colorCount int) (Mode, error) {
	n := max(order, 0)
	k := colorCount

	switch {
	case k < 1:
		return ModeInvalid, &FormatError{Order: n, Colors: k}
	case n == 0 && k == 1:
		return ModeDefault, nil
	case k == 1:
		return ModeSimpleRows, nil
	case n == k-1:
		return ModeRainbow, nil
	case n > k:
		return ModeAccents, nil
	case n == k:
		return ModeColorfulRows, nil
	default:
		return ModeInvalid, &FormatError{Order: n, Colors: k}
	}
}
