package session

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sessionshell/internal/render"
	"sessionshell/internal/testutils"
)

type harness struct {
	session *Session
	out     *render.CaptureBuffer
	reader  *ScriptReader
	codes   []int
}

func (h *harness) lines() []string {
	return h.out.Lines()
}

func greetOp() Operation {
	return Unary("greet", "say hello", func(env *Env, name string) error {
		env.Out.Line(0, env.LeadingColor, "Hello, "+name)
		return nil
	})
}

func newHarness(t *testing.T, allow *AllowList, reader *ScriptReader, opts ...Option) *harness {
	t.Helper()

	h := &harness{out: render.NewCaptureBuffer(), reader: reader}
	base := []Option{
		WithRenderer(render.New(render.WithWriter(h.out), render.WithoutColor())),
		WithReader(reader),
		WithTerminate(func(code int) { h.codes = append(h.codes, code) }),
	}
	h.session = New(allow, append(base, opts...)...)
	return h
}

func TestSessionScenario(t *testing.T) {
	allow := NewAllowList().MustRegister(greetOp())
	h := newHarness(t, allow, NewScriptReader(`greet("World")`, "greet World", `fly("World")`))

	require.NoError(t, h.session.Run())

	assert.Equal(t, []string{
		"Welcome",
		`> Always can type "help" if needed`,
		"Hello, World",
		"Hello, World",
		"Error: unknown operation: fly",
	}, h.lines())
	assert.Equal(t, []int{0}, h.codes)
	assert.Equal(t, StateTerminated, h.session.State())
	assert.False(t, h.session.Running())
	assert.True(t, h.reader.Closed())
}

func TestSessionUnknownOperationKeepsRunning(t *testing.T) {
	allow := NewAllowList().MustRegister(greetOp())
	h := newHarness(t, allow, NewScriptReader("nope", "greet again", "exit", "greet never"))

	require.NoError(t, h.session.Run())

	lines := h.lines()
	assert.Contains(t, lines, "Error: unknown operation: nope")
	assert.Contains(t, lines, "Hello, again")
	assert.Equal(t, "Exiting...", lines[len(lines)-1])
	assert.NotContains(t, lines, "Hello, never")
	assert.Equal(t, 1, h.reader.Remaining())
	assert.Equal(t, []int{0}, h.codes)
}

func TestSessionExitIgnoresArguments(t *testing.T) {
	h := newHarness(t, nil, NewScriptReader("exit(now, please)"))

	require.NoError(t, h.session.Run())

	assert.Equal(t, "Exiting...", h.lines()[2])
	assert.Equal(t, []int{0}, h.codes)
}

func TestSessionHelpOrder(t *testing.T) {
	allow := NewAllowList().MustRegister(
		greetOp(),
		Nullary("ping", "answer pong", func(env *Env) error { return nil }),
	)
	h := newHarness(t, allow, NewScriptReader("help"))

	require.NoError(t, h.session.Run())

	assert.Equal(t, []string{
		"Commands:",
		"> help -> show this list of commands",
		"> greet -> say hello",
		"> ping -> answer pong",
		"> exit -> exit the program",
	}, h.lines()[2:])
}

func TestSessionReservedNamesIgnored(t *testing.T) {
	called := false
	allow := NewAllowList().MustRegister(
		Nullary(ReservedHelp, "host help", func(env *Env) error {
			called = true
			return nil
		}),
		greetOp(),
		Nullary(ReservedExit, "host exit", func(env *Env) error {
			called = true
			return nil
		}),
	)
	h := newHarness(t, allow, NewScriptReader("help", "exit"))

	var names []string
	for _, op := range h.session.Operations() {
		names = append(names, op.Name)
	}
	assert.Equal(t, []string{"help", "greet", "exit"}, names)

	require.NoError(t, h.session.Run())
	assert.False(t, called)
	assert.Contains(t, h.lines(), "> help -> show this list of commands")
}

func TestSessionArgumentCount(t *testing.T) {
	allow := NewAllowList().MustRegister(greetOp())
	h := newHarness(t, allow, NewScriptReader("greet", "greet(a, b)"))

	require.NoError(t, h.session.Run())

	assert.Equal(t, []string{
		"Error: greet: wrong number of arguments: takes 1, got 0",
		"Error: greet: wrong number of arguments: takes 1, got 2",
	}, h.lines()[2:])
}

func TestSessionOperationError(t *testing.T) {
	allow := NewAllowList().MustRegister(
		Nullary("fail", "always fails", func(env *Env) error { return errors.New("boom") }),
	)

	t.Run("quiet", func(t *testing.T) {
		h := newHarness(t, allow, NewScriptReader("fail"))
		require.NoError(t, h.session.Run())
		assert.Equal(t, []string{"Error: fail: boom"}, h.lines()[2:])
	})

	t.Run("verbose shows causes", func(t *testing.T) {
		h := &harness{out: render.NewCaptureBuffer(), reader: NewScriptReader("fail")}
		h.session = New(allow,
			WithRenderer(render.New(render.WithWriter(h.out), render.WithoutColor(), render.WithVerbose(true))),
			WithReader(h.reader),
			WithTerminate(func(code int) { h.codes = append(h.codes, code) }),
		)

		require.NoError(t, h.session.Run())
		assert.Equal(t, []string{
			"Error: fail: boom",
			"! caused by *errors.errorString: boom",
		}, h.lines()[2:])
	})
}

func TestSessionOperationPanicIsContained(t *testing.T) {
	allow := NewAllowList().MustRegister(
		Nullary("explode", "panics", func(env *Env) error { panic("kaboom") }),
		greetOp(),
	)
	h := newHarness(t, allow, NewScriptReader("explode", "greet after"))

	require.NoError(t, h.session.Run())

	assert.Equal(t, []string{
		"Error: explode: operation panicked: kaboom",
		"Hello, after",
	}, h.lines()[2:])
}

func TestSessionDispatchErrors(t *testing.T) {
	allow := NewAllowList().MustRegister(greetOp())
	h := newHarness(t, allow, NewScriptReader())

	err := h.session.Dispatch(Call{Name: "missing"})
	var dispatchErr *DispatchError
	require.ErrorAs(t, err, &dispatchErr)
	assert.Equal(t, "missing", dispatchErr.Name)
	assert.ErrorIs(t, err, ErrUnknownOperation)

	err = h.session.Dispatch(Call{Name: "greet"})
	assert.ErrorIs(t, err, ErrArgumentCount)

	assert.NoError(t, h.session.Dispatch(Call{Name: "greet", Args: []string{"x"}}))
	assert.Equal(t, []string{"Hello, x"}, h.lines())
}

func TestSessionExecute(t *testing.T) {
	h := newHarness(t, NewAllowList().MustRegister(greetOp()), NewScriptReader())

	assert.NoError(t, h.session.Execute("   "))
	assert.Empty(t, h.lines())

	assert.ErrorIs(t, h.session.Execute("(x"), ErrUnknownOperation)

	assert.NoError(t, h.session.Execute("greet(x)"))
	assert.NoError(t, h.session.Execute("greet(y"))
	assert.Equal(t, []string{"Hello, x", "Hello, y"}, h.lines())
}

func TestSessionLenientCallForm(t *testing.T) {
	allow := NewAllowList().MustRegister(greetOp())
	h := newHarness(t, allow, NewScriptReader("greet(World", "greet(World)x", "(a, b)", ""))

	require.NoError(t, h.session.Run())

	assert.Equal(t, []string{
		"Hello, World",
		"Hello, World",
		"Error: unknown operation: (a, b)",
	}, h.lines()[2:])
}

func TestSessionInterrupt(t *testing.T) {
	allow := NewAllowList().MustRegister(greetOp())
	h := newHarness(t, allow, NewScriptReader("greet x").EndWith(ErrInterrupted))

	require.NoError(t, h.session.Run())

	assert.Equal(t, []string{"Hello, x", "Program interrupted. Exiting..."}, h.lines()[2:])
	assert.Equal(t, []int{0}, h.codes)
}

func TestSessionSignalDuringOperation(t *testing.T) {
	signals := make(chan os.Signal, 1)
	terminated := make(chan int, 1)
	hooks := 0

	allow := NewAllowList().MustRegister(
		Nullary("wait", "block until interrupted", func(env *Env) error {
			signals <- os.Interrupt
			select {
			case <-terminated:
			case <-time.After(5 * time.Second):
				return errors.New("no interrupt")
			}
			return nil
		}),
		greetOp(),
	)

	out := render.NewCaptureBuffer()
	reader := NewScriptReader("wait", "greet never")
	s := New(allow,
		WithRenderer(render.New(render.WithWriter(out), render.WithoutColor())),
		WithReader(reader),
		WithSignalSource(signals),
		OnTerminate(func() { hooks++ }),
		WithTerminate(func(code int) { terminated <- code }),
	)

	require.NoError(t, s.Run())

	assert.Equal(t, []string{"Program interrupted. Exiting..."}, out.Lines()[2:])
	assert.Equal(t, 1, hooks)
	assert.Equal(t, StateTerminated, s.State())
	assert.False(t, s.Running())
	assert.Equal(t, 1, reader.Remaining())
	assert.Empty(t, terminated)
}

func TestSessionReadFailure(t *testing.T) {
	h := newHarness(t, nil, NewScriptReader().EndWith(errors.New("disk gone")))

	require.NoError(t, h.session.Run())

	assert.Equal(t, []string{"Error: reading input: disk gone"}, h.lines()[2:])
	assert.Equal(t, []int{0}, h.codes)
}

func TestSessionUnsupportedEnvironment(t *testing.T) {
	h := newHarness(t, nil, NewScriptReader("help"), WithEnvironment(EnvironmentUnsupported))

	require.NoError(t, h.session.Run())

	assert.Equal(t, []string{"Unsupported environment: unsupported", "Exiting..."}, h.lines())
	assert.Equal(t, 1, h.reader.Remaining())
	assert.Equal(t, []int{0}, h.codes)
}

func TestSessionTerminateHooksRunOnce(t *testing.T) {
	var order []string
	h := newHarness(t, nil, NewScriptReader("exit"),
		OnTerminate(func() { order = append(order, "first") }),
		OnTerminate(func() { order = append(order, "second") }),
	)

	require.NoError(t, h.session.Run())
	h.session.finish(0)

	assert.Equal(t, []string{"first", "second"}, order)
	assert.Equal(t, []int{0}, h.codes)
}

func TestSessionGlobals(t *testing.T) {
	allow := NewAllowList()
	allow.SetGlobal("version", "1.2.3")
	allow.MustRegister(Unary("show", "show a global", func(env *Env, name string) error {
		value, ok := env.Global(name)
		if !ok {
			return errors.New("no such global")
		}
		env.Out.Print(name, value)
		return nil
	}))
	id := testutils.DeterministicUUID()
	h := newHarness(t, allow, NewScriptReader("show version", "show missing"), WithSessionID(id))

	require.NoError(t, h.session.Run())

	assert.Equal(t, []string{"version 1.2.3", "Error: show: no such global"}, h.lines()[2:])
	assert.Equal(t, id, h.session.ID())
}

func TestSessionEnvCapabilities(t *testing.T) {
	allow := NewAllowList()
	allow.SetGlobal("b", 2)
	allow.SetGlobal("a", 1)

	var env *Env
	allow.MustRegister(Nullary("grab", "keep env", func(e *Env) error {
		env = e
		return nil
	}))
	h := newHarness(t, allow, NewScriptReader(), WithSessionID("abc"), WithColors(render.Blue, "", render.Magenta))

	require.NoError(t, h.session.Execute("grab"))
	require.NotNil(t, env)
	assert.Equal(t, []string{"a", "b"}, env.GlobalNames())
	assert.Equal(t, "abc", env.SessionID())
	assert.Equal(t, render.Blue, env.LeadingColor)
	assert.Equal(t, render.DarkGrey, env.SideColor)
	assert.Equal(t, render.Magenta, env.ErrorColor)
	assert.False(t, env.Verbose())
}

func TestSessionWelcomeOptions(t *testing.T) {
	h := newHarness(t, nil, NewScriptReader(), WithWelcome("Hi there"), WithPrompt("$"))

	require.NoError(t, h.session.Run())

	assert.Equal(t, "$", h.session.Prompt)
	assert.Equal(t, []string{"Hi there", `> Always can type "help" if needed`}, h.lines())
}

type panickingReader struct{}

func (panickingReader) Readline() (string, error) { panic("reader broke") }
func (panickingReader) Close() error               { return nil }

func TestSessionRunRecoversPanic(t *testing.T) {
	out := render.NewCaptureBuffer()
	var codes []int
	s := New(nil,
		WithRenderer(render.New(render.WithWriter(out), render.WithoutColor())),
		WithReader(panickingReader{}),
		WithTerminate(func(code int) { codes = append(codes, code) }),
	)

	err := s.Run()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "reader broke")
	assert.Equal(t, []string{"Error: session: reader broke", "Exiting..."}, out.Lines()[2:])
	assert.Equal(t, []int{0}, codes)
	assert.Equal(t, StateTerminated, s.State())
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "idle", StateIdle.String())
	assert.Equal(t, "awaiting-input", StateAwaitingInput.String())
	assert.Equal(t, "executing", StateExecuting.String())
	assert.Equal(t, "terminated", StateTerminated.String())
}

func TestDetectEnvironment(t *testing.T) {
	assert.Equal(t, EnvironmentUnsupported, DetectEnvironment(nil))

	path := filepath.Join(t.TempDir(), "input.txt")
	require.NoError(t, os.WriteFile(path, []byte("help\n"), 0o600))
	file, err := os.Open(path)
	require.NoError(t, err)
	defer file.Close()
	assert.Equal(t, EnvironmentStream, DetectEnvironment(file))

	reader, writer, err := os.Pipe()
	require.NoError(t, err)
	defer reader.Close()
	defer writer.Close()
	assert.Equal(t, EnvironmentStream, DetectEnvironment(reader))

	assert.True(t, EnvironmentTerminal.LineBased())
	assert.True(t, EnvironmentStream.LineBased())
	assert.False(t, EnvironmentUnsupported.LineBased())
}
