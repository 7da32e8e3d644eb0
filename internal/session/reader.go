package session

import (
	"errors"
	"io"
	"sync"

	"github.com/chzyer/readline"
)

// LineReader supplies one line of input per call. It returns io.EOF when the
// input is exhausted and ErrInterrupted when the terminal sends an interrupt.
type LineReader interface {
	Readline() (string, error)
	Close() error
}

type readlineReader struct {
	rl *readline.Instance
}

// NewReadlineReader creates a LineReader with line editing and history.
func NewReadlineReader(prompt string, in io.ReadCloser, out io.Writer) (LineReader, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          prompt,
		Stdin:           in,
		Stdout:          out,
		InterruptPrompt: "^C",
		EOFPrompt:       "",
	})
	if err != nil {
		return nil, err
	}
	return &readlineReader{rl: rl}, nil
}

func (r *readlineReader) Readline() (string, error) {
	line, err := r.rl.Readline()
	if errors.Is(err, readline.ErrInterrupt) {
		return "", ErrInterrupted
	}
	return line, err
}

func (r *readlineReader) Close() error {
	return r.rl.Close()
}

// ScriptReader replays a fixed list of lines and then reports io.EOF, or
// the configured final error.
type ScriptReader struct {
	mu     sync.Mutex
	lines  []string
	final  error
	closed bool
}

// NewScriptReader creates a reader over the given lines.
func NewScriptReader(lines ...string) *ScriptReader {
	return &ScriptReader{lines: lines, final: io.EOF}
}

// EndWith makes the reader return err instead of io.EOF once the lines run out.
func (s *ScriptReader) EndWith(err error) *ScriptReader {
	s.final = err
	return s
}

func (s *ScriptReader) Readline() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.lines) == 0 {
		return "", s.final
	}
	line := s.lines[0]
	s.lines = s.lines[1:]
	return line, nil
}

func (s *ScriptReader) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// Closed reports whether Close was called.
func (s *ScriptReader) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Remaining returns how many lines have not been read yet.
func (s *ScriptReader) Remaining() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.lines)
}
