package session

import (
	"os"

	"sessionshell/internal/render"
)

// Option is a functional option for configuring a Session.
type Option func(*Session)

// WithRenderer sets the renderer all session output goes through.
func WithRenderer(r *render.Renderer) Option {
	return func(s *Session) {
		if r != nil {
			s.out = r
		}
	}
}

// WithVerbose sets the verbosity of the renderer the session creates for
// itself. It has no effect together with WithRenderer.
func WithVerbose(verbose bool) Option {
	return func(s *Session) {
		s.verbose = verbose
	}
}

// WithPrompt sets the input prompt.
func WithPrompt(prompt string) Option {
	return func(s *Session) {
		s.Prompt = prompt
	}
}

// WithWelcome sets the text shown when the session starts.
func WithWelcome(welcome string) Option {
	return func(s *Session) {
		s.Welcome = welcome
	}
}

// WithColors sets the leading, side and error colors. Empty tags keep the defaults.
func WithColors(leading, side, errColor render.ColorTag) Option {
	return func(s *Session) {
		if leading != "" {
			s.LeadingColor = leading
		}
		if side != "" {
			s.SideColor = side
		}
		if errColor != "" {
			s.ErrorColor = errColor
		}
	}
}

// WithReader sets the line source. Without it the session reads from its
// input file with readline. A supplied reader counts as a stream
// environment unless WithEnvironment says otherwise.
func WithReader(reader LineReader) Option {
	return func(s *Session) {
		s.reader = reader
	}
}

// WithInput sets the file used for environment detection and, without
// WithReader, for reading lines. Default is os.Stdin.
func WithInput(in *os.File) Option {
	return func(s *Session) {
		s.input = in
	}
}

// WithEnvironment skips detection and uses the given environment.
func WithEnvironment(env Environment) Option {
	return func(s *Session) {
		s.environment = &env
	}
}

// WithTerminate replaces os.Exit as the final step of every exit path.
func WithTerminate(fn func(code int)) Option {
	return func(s *Session) {
		if fn != nil {
			s.terminate = fn
		}
	}
}

// WithSignals makes SIGINT and SIGTERM received while an operation runs
// take the interrupt exit path.
func WithSignals() Option {
	return func(s *Session) {
		s.watchSignals = true
	}
}

// WithSignalSource reads interrupts from ch instead of the process signals.
func WithSignalSource(ch <-chan os.Signal) Option {
	return func(s *Session) {
		s.signals = ch
	}
}

// OnTerminate registers a hook that runs before the process exits.
// Hooks run in registration order.
func OnTerminate(hook func()) Option {
	return func(s *Session) {
		if hook != nil {
			s.hooks = append(s.hooks, hook)
		}
	}
}

// WithSessionID sets the session id instead of generating one.
func WithSessionID(id string) Option {
	return func(s *Session) {
		if id != "" {
			s.id = id
		}
	}
}
