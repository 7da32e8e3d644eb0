// Package session provides the interactive command loop for sessionshell.
// It reads lines, parses them into operation calls, dispatches them against a
// host-supplied allow-list and renders results and failures without ever
// letting one bad command end the session.
package session

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"sessionshell/internal/logger"
	"sessionshell/internal/render"
)

// Reserved operation names. The session defines them itself and ignores
// host operations that use them.
const (
	ReservedHelp = "help"
	ReservedExit = "exit"
)

// HelpHint is shown under the welcome text.
const HelpHint = `Always can type "help" if needed`

// State is the position of the session in its read-dispatch cycle.
type State int

const (
	// StateIdle is the state before the welcome text is shown.
	StateIdle State = iota
	// StateAwaitingInput is the state while blocked on the next line.
	StateAwaitingInput
	// StateExecuting is the state while a line is parsed and dispatched.
	StateExecuting
	// StateTerminated is final.
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAwaitingInput:
		return "awaiting-input"
	case StateExecuting:
		return "executing"
	case StateTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// Session owns the command loop, its allow-list snapshot and its state.
type Session struct {
	Prompt       string
	Welcome      string
	LeadingColor render.ColorTag
	SideColor    render.ColorTag
	ErrorColor   render.ColorTag

	out          *render.Renderer
	verbose      bool
	ops          *AllowList
	env          *Env
	reader       LineReader
	input        *os.File
	environment  *Environment
	terminate    func(code int)
	hooks        []func()
	watchSignals bool
	signals      <-chan os.Signal
	id           string

	mu       sync.Mutex
	running  bool
	state    State
	log      *log.Logger
	shutdown sync.Once
}

// New creates a session over a snapshot of the host allow-list. The
// reserved help operation is placed first and exit last.
func New(allow *AllowList, opts ...Option) *Session {
	s := &Session{
		Prompt:       ">",
		Welcome:      "Welcome",
		LeadingColor: render.Green,
		SideColor:    render.DarkGrey,
		ErrorColor:   render.Red,
		input:        os.Stdin,
		terminate:    os.Exit,
		running:      true,
		state:        StateIdle,
		id:           uuid.NewString(),
		log:          logger.NewStyledLogger("Session"),
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.out == nil {
		s.out = render.New(render.WithVerbose(s.verbose))
	}
	if allow == nil {
		allow = NewAllowList()
	}

	s.ops = s.snapshot(allow)
	s.env = &Env{
		Out:          s.out,
		LeadingColor: s.LeadingColor,
		SideColor:    s.SideColor,
		ErrorColor:   s.ErrorColor,
		sessionID:    s.id,
		globals:      allow.Globals(),
	}

	return s
}

func (s *Session) snapshot(allow *AllowList) *AllowList {
	ops := NewAllowList()
	ops.MustRegister(Nullary(ReservedHelp, "show this list of commands", s.help))

	for _, op := range allow.Operations() {
		if op.Name == ReservedHelp || op.Name == ReservedExit {
			s.log.Warn("Ignoring host operation with a reserved name", "operation", op.Name)
			continue
		}
		ops.MustRegister(op)
	}

	ops.MustRegister(VariadicOp(ReservedExit, "exit the program", 0, s.exitOp))
	return ops
}

// ID returns the session id.
func (s *Session) ID() string {
	return s.id
}

// Running reports whether the loop will read another line.
func (s *Session) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// State returns the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) setState(state State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateTerminated {
		s.state = state
	}
}

func (s *Session) stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = false
}

// Renderer returns the renderer all output goes through.
func (s *Session) Renderer() *render.Renderer {
	return s.out
}

// Operations returns the allow-list snapshot in help order.
func (s *Session) Operations() []Operation {
	return s.ops.Operations()
}

// Run shows the welcome text and runs the loop until exit, end of input or
// an interrupt. Every way out ends in the terminate function with code 0.
func (s *Session) Run() (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("session: %v", r)
			s.report(err)
			s.exit()
			s.finish(0)
		}
	}()

	env := s.detect()
	s.log.Debug("Starting session", "session", s.id, "environment", env)

	if !env.LineBased() {
		s.out.Line(0, s.ErrorColor, "Unsupported environment: "+env.String())
		s.exit()
		s.finish(0)
		return nil
	}

	if s.reader == nil {
		reader, err := NewReadlineReader(s.Prompt+" ", s.input, s.out.Writer())
		if err != nil {
			err = fmt.Errorf("cannot open input: %w", err)
			s.report(err)
			s.exit()
			s.finish(0)
			return err
		}
		s.reader = reader
	}

	if s.watchSignals || s.signals != nil {
		stop := s.handleSignals()
		defer stop()
	}

	s.loop()
	return nil
}

func (s *Session) loop() {
	s.out.Line(0, s.LeadingColor, s.Welcome)
	s.out.Line(1, s.LeadingColor, HelpHint)
	s.setState(StateAwaitingInput)

	for s.Running() {
		line, err := s.reader.Readline()
		if err != nil {
			s.interrupt(err)
			return
		}

		s.setState(StateExecuting)
		if err := s.Execute(line); err != nil {
			s.report(err)
		}
		if s.Running() {
			s.setState(StateAwaitingInput)
		}
	}

	s.finish(0)
}

// Execute parses and dispatches one line. Blank lines do nothing.
func (s *Session) Execute(line string) error {
	if strings.TrimSpace(line) == "" {
		return nil
	}

	call, err := Parse(line)
	if err != nil {
		return err
	}
	return s.Dispatch(call)
}

// Dispatch runs a parsed call against the allow-list snapshot. Unknown names,
// wrong argument counts, operation errors and panics all come back as a
// *DispatchError.
func (s *Session) Dispatch(call Call) (err error) {
	op, ok := s.ops.Get(call.Name)
	if !ok {
		return &DispatchError{Name: call.Name, Err: ErrUnknownOperation}
	}
	if !op.accepts(len(call.Args)) {
		return &DispatchError{
			Name: call.Name,
			Err:  fmt.Errorf("%w: takes %s, got %d", ErrArgumentCount, op.arity(), len(call.Args)),
		}
	}

	logger.Dispatch(call.Name, call.Args)

	defer func() {
		if r := recover(); r != nil {
			err = &DispatchError{Name: call.Name, Err: fmt.Errorf("%w: %v", ErrOperationPanicked, r)}
		}
	}()

	if runErr := op.Run(s.env, call.Args); runErr != nil {
		return &DispatchError{Name: call.Name, Err: runErr}
	}
	return nil
}

func (s *Session) help(_ *Env) error {
	s.out.Line(0, s.LeadingColor, "Commands:")
	for _, op := range s.ops.Operations() {
		s.out.Line(1, s.LeadingColor, op.Name+" -> "+op.Description)
	}
	return nil
}

func (s *Session) exitOp(_ *Env, _ []string) error {
	s.exit()
	return nil
}

func (s *Session) exit() {
	s.out.Line(0, s.SideColor, "Exiting...")
	s.stop()
}

// report renders a failed command. The cause chain is shown only when verbose.
func (s *Session) report(err error) {
	s.log.Debug("Command failed", "error", err)
	s.out.Line(0, s.ErrorColor, "Error: "+err.Error())
	if !s.out.Verbose() {
		return
	}
	for cause := errors.Unwrap(err); cause != nil; cause = errors.Unwrap(cause) {
		s.out.Line(1, s.ErrorColor, fmt.Sprintf("caused by %T: %v", cause, cause))
	}
}

// interrupt handles a failed read. End of input leaves silently; an
// interrupt says so first. Either way the process ends with code 0.
func (s *Session) interrupt(err error) {
	switch {
	case errors.Is(err, io.EOF):
	case errors.Is(err, ErrInterrupted):
		s.out.Line(0, s.SideColor, "Program interrupted. Exiting...")
	default:
		s.report(fmt.Errorf("reading input: %w", err))
	}
	s.stop()
	s.finish(0)
}

// finish runs the terminate hooks, releases the reader and exits. It runs once.
func (s *Session) finish(code int) {
	s.shutdown.Do(func() {
		s.mu.Lock()
		s.state = StateTerminated
		s.running = false
		s.mu.Unlock()
		for _, hook := range s.hooks {
			hook()
		}
		if s.reader != nil {
			_ = s.reader.Close()
		}
		s.log.Debug("Session terminated", "session", s.id, "code", code)
		s.terminate(code)
	})
}

func (s *Session) detect() Environment {
	if s.environment != nil {
		return *s.environment
	}
	if s.reader != nil {
		return EnvironmentStream
	}
	return DetectEnvironment(s.input)
}

// handleSignals takes the interrupt exit path on the first signal.
func (s *Session) handleSignals() func() {
	signals := s.signals
	var notified chan os.Signal
	if signals == nil {
		notified = make(chan os.Signal, 1)
		signal.Notify(notified, os.Interrupt, syscall.SIGTERM)
		signals = notified
	}
	done := make(chan struct{})

	go func() {
		select {
		case <-signals:
			s.interrupt(ErrInterrupted)
		case <-done:
		}
	}()

	return func() {
		if notified != nil {
			signal.Stop(notified)
		}
		close(done)
	}
}
