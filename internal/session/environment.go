package session

import (
	"os"

	"golang.org/x/term"
)

// Environment is the kind of host the session reads its input from.
type Environment int

const (
	// EnvironmentUnsupported is anything the line loop cannot read from.
	EnvironmentUnsupported Environment = iota
	// EnvironmentTerminal is an interactive terminal on stdin.
	EnvironmentTerminal
	// EnvironmentStream is redirected input: a pipe, a file or a socket.
	EnvironmentStream
)

func (e Environment) String() string {
	switch e {
	case EnvironmentTerminal:
		return "terminal"
	case EnvironmentStream:
		return "stream"
	default:
		return "unsupported"
	}
}

// LineBased reports whether the session loop can run in this environment.
func (e Environment) LineBased() bool {
	return e == EnvironmentTerminal || e == EnvironmentStream
}

// DetectEnvironment inspects the input file the session would read from.
func DetectEnvironment(in *os.File) Environment {
	if in == nil {
		return EnvironmentUnsupported
	}
	if term.IsTerminal(int(in.Fd())) {
		return EnvironmentTerminal
	}

	info, err := in.Stat()
	if err != nil {
		return EnvironmentUnsupported
	}

	mode := info.Mode()
	switch {
	case mode.IsRegular(), mode&os.ModeNamedPipe != 0, mode&os.ModeSocket != 0, mode&os.ModeCharDevice != 0:
		return EnvironmentStream
	default:
		return EnvironmentUnsupported
	}
}
