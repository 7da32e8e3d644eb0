// Package render provides the structured output renderer for sessionshell.
// A line is prefixed by leading symbols whose count follows an indentation
// order and whose colors follow a sequence of color tags.
package render

import (
	"fmt"
	"io"
	"os"
	"reflect"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/muesli/termenv"
	"gopkg.in/yaml.v3"

	"sessionshell/internal/logger"
)

// Renderer writes indented, colorized lines to a sink. Apart from its
// verbosity and diagnostic flags it holds no state between calls.
type Renderer struct {
	writer  io.Writer
	verbose bool
	devMode bool
	symbols map[ColorTag]string
	profile *termenv.Profile

	styles *lipgloss.Renderer
	log    *log.Logger

	mu sync.Mutex
}

// New creates a Renderer. By default it writes to os.Stdout and detects the
// color profile from the sink.
func New(options ...Option) *Renderer {
	r := &Renderer{
		writer:  os.Stdout,
		symbols: DefaultSymbols(),
	}

	for _, opt := range options {
		opt(r)
	}

	r.styles = lipgloss.NewRenderer(r.writer)
	if r.profile != nil {
		r.styles.SetColorProfile(*r.profile)
	}
	r.log = logger.NewStyledLogger("Render")

	return r
}

// Verbose reports the renderer's default verbosity.
func (r *Renderer) Verbose() bool {
	return r.verbose
}

// DevMode reports whether diagnostic mode is on.
func (r *Renderer) DevMode() bool {
	return r.devMode
}

// Writer returns the output sink.
func (r *Renderer) Writer() io.Writer {
	return r.writer
}

// Colorless reports whether the sink gets plain text.
func (r *Renderer) Colorless() bool {
	return r.styles.ColorProfile() == termenv.Ascii
}

// Symbol returns the leading symbol for a tag, or FallbackSymbol.
func (r *Renderer) Symbol(tag ColorTag) string {
	if sym, ok := r.symbols[tag]; ok {
		return sym
	}
	return FallbackSymbol
}

// Colorize applies the tag's color to text. Unknown tags leave text unstyled.
func (r *Renderer) Colorize(text string, tag ColorTag) string {
	color, ok := terminalColor(tag)
	if !ok || text == "" {
		return text
	}

	style := r.styles.NewStyle().Foreground(color).TabWidth(lipgloss.NoTabConversion)

	// Styled per line so multi-line text is not padded to a common width.
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if line != "" {
			lines[i] = style.Render(line)
		}
	}
	return strings.Join(lines, "\n")
}

// Render writes tokens as one line indented to order with the given colors.
// The layout is chosen by SelectMode. A combination with no layout returns a
// *FormatError, unless diagnostic mode is on, in which case a notice is
// printed instead.
func (r *Renderer) Render(order int, colors []ColorTag, tokens []any, opts ...PrintOption) error {
	po := r.printOptions(opts)
	n := max(order, 0)

	mode, err := SelectMode(n, len(colors))
	if r.devMode {
		r.log.Debug("Selected render mode", "mode", mode, "order", n, "colors", len(colors))
	}
	if err != nil {
		if !r.devMode {
			return err
		}
		r.write(fmt.Sprintf("render: no layout for order %d with %d colors yet", n, len(colors)), po)
		return nil
	}

	var line string
	switch mode {
	case ModeDefault:
		header, body := splitHeader(tokens, po.sep)
		parts := make([]string, 0, len(body)+1)
		if header != "" {
			parts = append(parts, r.Colorize(header, colors[0]))
		}
		parts = append(parts, formatTokens(body)...)
		line = strings.Join(parts, po.sep)

	case ModeSimpleRows:
		sym := r.Symbol(colors[0])
		indent := strings.TrimSuffix(strings.Repeat(sym+" ", n), " ")
		parts := append([]string{r.Colorize(indent, colors[0])}, formatTokens(tokens)...)
		line = strings.Join(parts, po.sep)

	case ModeRainbow:
		k := len(colors)
		header, body := splitHeader(tokens, po.sep)
		line = r.stripe(colors[:k-1], k-1) + r.Colorize(" "+header, colors[k-1])
		if len(body) > 0 {
			line += po.sep + strings.Join(formatTokens(body), po.sep)
		}

	case ModeColorfulRows, ModeAccents:
		line = r.stripe(colors, n)
		if len(tokens) > 0 {
			line += po.sep + strings.Join(formatTokens(tokens), po.sep)
		}
	}

	r.write(line, po)
	return nil
}

// Line renders tokens with a single color. A single color always has a
// layout, so Line cannot fail.
func (r *Renderer) Line(order int, color ColorTag, tokens ...any) {
	_ = r.Render(order, []ColorTag{color}, tokens)
}

// VRender renders only when verbose. The Verbose print option overrides the
// renderer's default.
func (r *Renderer) VRender(order int, colors []ColorTag, tokens []any, opts ...PrintOption) error {
	if !r.printOptions(opts).isVerbose(r.verbose) {
		return nil
	}
	return r.Render(order, colors, tokens, opts...)
}

// VLine is Line gated on the renderer's verbosity.
func (r *Renderer) VLine(order int, color ColorTag, tokens ...any) {
	if r.verbose {
		r.Line(order, color, tokens...)
	}
}

// Print writes tokens unstyled, separated by spaces.
func (r *Renderer) Print(tokens ...any) {
	r.write(strings.Join(formatTokens(tokens), " "), printOptions{sep: " ", end: "\n"})
}

// VPrint writes tokens unstyled only when verbose.
func (r *Renderer) VPrint(tokens []any, opts ...PrintOption) {
	po := r.printOptions(opts)
	if po.isVerbose(r.verbose) {
		r.write(strings.Join(formatTokens(tokens), po.sep), po)
	}
}

// NVPrint writes tokens unstyled only when not verbose.
func (r *Renderer) NVPrint(tokens []any, opts ...PrintOption) {
	po := r.printOptions(opts)
	if !po.isVerbose(r.verbose) {
		r.write(strings.Join(formatTokens(tokens), po.sep), po)
	}
}

// PPrint pretty-prints a single value. Maps, slices and structs are written
// as a YAML block; everything else as with Print.
func (r *Renderer) PPrint(value any, opts ...PrintOption) {
	r.write(pretty(value), r.printOptions(opts))
}

// VPPrint is PPrint gated on verbosity.
func (r *Renderer) VPPrint(value any, opts ...PrintOption) {
	po := r.printOptions(opts)
	if po.isVerbose(r.verbose) {
		r.write(pretty(value), po)
	}
}

// stripe draws count leading symbols, the i-th in colors[i mod len(colors)].
// Every symbol after the first carries its own leading space.
func (r *Renderer) stripe(colors []ColorTag, count int) string {
	var b strings.Builder
	for i := 0; i < count; i++ {
		tag := colors[i%len(colors)]
		seg := r.Symbol(tag)
		if i > 0 {
			seg = " " + seg
		}
		b.WriteString(r.Colorize(seg, tag))
	}
	return b.String()
}

func (r *Renderer) write(line string, po printOptions) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, _ = io.WriteString(r.writer, line+po.end)
}

func (r *Renderer) printOptions(opts []PrintOption) printOptions {
	po := printOptions{sep: " ", end: "\n"}
	for _, opt := range opts {
		opt(&po)
	}
	return po
}

func (o printOptions) isVerbose(fallback bool) bool {
	if o.verbose != nil {
		return *o.verbose
	}
	return fallback
}

// splitHeader joins the leading run of string tokens into a header and
// returns the remaining tokens, starting at the first non-string, as body.
func splitHeader(tokens []any, sep string) (string, []any) {
	limit := len(tokens)
	for i, tok := range tokens {
		if !isStringLike(tok) {
			limit = i
			break
		}
	}
	return strings.Join(formatTokens(tokens[:limit]), sep), tokens[limit:]
}

func isStringLike(tok any) bool {
	if tok == nil {
		return false
	}
	return reflect.TypeOf(tok).Kind() == reflect.String
}

func formatTokens(tokens []any) []string {
	out := make([]string, len(tokens))
	for i, tok := range tokens {
		if isStringLike(tok) {
			out[i] = reflect.ValueOf(tok).String()
			continue
		}
		out[i] = fmt.Sprintf("%v", tok)
	}
	return out
}

func pretty(value any) string {
	if value == nil {
		return "<nil>"
	}
	switch reflect.Indirect(reflect.ValueOf(value)).Kind() {
	case reflect.Map, reflect.Slice, reflect.Array, reflect.Struct:
		data, err := yaml.Marshal(value)
		if err != nil {
			return fmt.Sprintf("%+v", value)
		}
		return strings.TrimRight(string(data), "\n")
	default:
		return fmt.Sprintf("%v", value)
	}
}
