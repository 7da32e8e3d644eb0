package session

import (
	"sort"

	"sessionshell/internal/render"
)

// Env is everything an operation can reach while it runs: the renderer,
// the session colors and the host's global values. Nothing else in the
// process is visible through it.
type Env struct {
	Out          *render.Renderer
	LeadingColor render.ColorTag
	SideColor    render.ColorTag
	ErrorColor   render.ColorTag

	sessionID string
	globals   map[string]any
}

// Global looks up a host-provided value.
func (e *Env) Global(name string) (any, bool) {
	value, ok := e.globals[name]
	return value, ok
}

// GlobalNames lists the host-provided values in sorted order.
func (e *Env) GlobalNames() []string {
	names := make([]string, 0, len(e.globals))
	for name := range e.globals {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Verbose reports the renderer's verbosity.
func (e *Env) Verbose() bool {
	return e.Out.Verbose()
}

// SessionID identifies the running session.
func (e *Env) SessionID() string {
	return e.sessionID
}
