package render

import (
	"io"

	"github.com/muesli/termenv"
)

// Option is a functional option for configuring Renderer instances.
type Option func(*Renderer)

// WithWriter sets the output sink. Default is os.Stdout.
func WithWriter(writer io.Writer) Option {
	return func(r *Renderer) {
		if writer != nil {
			r.writer = writer
		}
	}
}

// WithVerbose sets the default verbosity used by the gated print variants.
func WithVerbose(verbose bool) Option {
	return func(r *Renderer) {
		r.verbose = verbose
	}
}

// WithDevMode turns on diagnostic mode: mode selection is logged and
// unsupported order/color combinations print a notice instead of failing.
func WithDevMode(devMode bool) Option {
	return func(r *Renderer) {
		r.devMode = devMode
	}
}

// WithColorProfile forces a color profile instead of detecting it from the sink.
func WithColorProfile(profile termenv.Profile) Option {
	return func(r *Renderer) {
		r.profile = &profile
	}
}

// WithoutColor disables color sequences entirely.
func WithoutColor() Option {
	return WithColorProfile(termenv.Ascii)
}

// WithSymbols adds or overrides leading symbols for the given tags.
func WithSymbols(symbols map[ColorTag]string) Option {
	return func(r *Renderer) {
		for tag, sym := range symbols {
			r.symbols[tag] = sym
		}
	}
}

// PrintOption adjusts a single print call, like the separator and line ending.
type PrintOption func(*printOptions)

type printOptions struct {
	sep     string
	end     string
	verbose *bool
}

// Sep sets the separator placed between tokens. Default is a single space.
func Sep(sep string) PrintOption {
	return func(o *printOptions) {
		o.sep = sep
	}
}

// End sets the text written after the line. Default is a newline.
func End(end string) PrintOption {
	return func(o *printOptions) {
		o.end = end
	}
}

// Verbose overrides the renderer's verbosity for one gated call.
func Verbose(verbose bool) PrintOption {
	return func(o *printOptions) {
		o.verbose = &verbose
	}
}
