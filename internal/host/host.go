// Package host defines the operations and global values the sessionshell
// binary exposes to its session.
package host

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/glamour/styles"

	"sessionshell/internal/journal"
	"sessionshell/internal/scratch"
	"sessionshell/internal/session"
)

// Global value names.
const (
	GlobalVersion   = "version"
	GlobalSessionID = "session_id"
	GlobalStarted   = "started"
)

var (
	errNoJournal = errors.New("journal is not enabled")
	errNoScratch = errors.New("scratch directory is not enabled")
)

// Deps are the session resources host operations use. Nil fields disable
// the operations that need them.
type Deps struct {
	Journal   *journal.Journal
	Scratch   *scratch.Dir
	Version   string
	SessionID string
	Started   time.Time
}

// New builds the host allow-list.
func New(deps Deps) *session.AllowList {
	allow := session.NewAllowList()
	allow.SetGlobal(GlobalVersion, deps.Version)
	allow.SetGlobal(GlobalSessionID, deps.SessionID)
	allow.SetGlobal(GlobalStarted, deps.Started.Format(time.RFC3339))

	allow.MustRegister(
		session.Unary("greet", "say hello to someone", greet),
		session.VariadicOp("echo", "print the arguments back", 0, echo),
		session.VariadicOp("note", "write a line to the session journal", 1, note(deps.Journal)),
		session.Nullary("scratch", "create and show the scratch directory", scratchDir(deps.Scratch)),
		session.Unary("show", "print a global value", show),
		session.Nullary("globals", "list the global values", globals),
	)
	allow.MustRegister(session.Nullary("about", "describe this shell", about(allow)))
	return allow
}

func greet(env *session.Env, name string) error {
	env.Out.Line(0, env.LeadingColor, "Hello, "+name)
	return nil
}

func echo(env *session.Env, args []string) error {
	tokens := make([]any, len(args))
	for i, arg := range args {
		tokens[i] = arg
	}
	env.Out.Print(tokens...)
	return nil
}

func note(j *journal.Journal) session.Func {
	return func(env *session.Env, args []string) error {
		if j == nil {
			return errNoJournal
		}
		if err := j.Info(strings.Join(args, " ")); err != nil {
			return err
		}
		env.Out.VLine(1, env.SideColor, "noted")
		return nil
	}
}

func scratchDir(d *scratch.Dir) func(*session.Env) error {
	return func(env *session.Env) error {
		if d == nil {
			return errNoScratch
		}
		if err := d.Create(); err != nil {
			return err
		}
		env.Out.Line(0, env.LeadingColor, d.Path())
		return nil
	}
}

func show(env *session.Env, name string) error {
	value, ok := env.Global(name)
	if !ok {
		return fmt.Errorf("no global named %q", name)
	}
	env.Out.PPrint(value)
	return nil
}

func globals(env *session.Env) error {
	for _, name := range env.GlobalNames() {
		env.Out.Line(1, env.LeadingColor, name)
	}
	return nil
}

func about(allow *session.AllowList) func(*session.Env) error {
	return func(env *session.Env) error {
		style := glamour.WithAutoStyle()
		if env.Out.Colorless() {
			style = glamour.WithStandardStyle(styles.NoTTYStyle)
		}

		renderer, err := glamour.NewTermRenderer(style, glamour.WithWordWrap(80))
		if err != nil {
			return fmt.Errorf("failed to create markdown renderer: %w", err)
		}

		rendered, err := renderer.Render(aboutMarkdown(allow.Operations()))
		if err != nil {
			return fmt.Errorf("failed to render markdown: %w", err)
		}
		env.Out.Print(strings.TrimRight(rendered, "\n"))
		return nil
	}
}

func aboutMarkdown(ops []session.Operation) string {
	var b strings.Builder
	b.WriteString("# sessionshell\n\n")
	b.WriteString("Type a command as `name arg` or `name(arg, \"other arg\")`. ")
	b.WriteString("Empty arguments are dropped.\n\n")
	b.WriteString("| Command | Description |\n|---|---|\n")
	for _, op := range ops {
		fmt.Fprintf(&b, "| %s | %s |\n", op.Name, op.Description)
	}
	return b.String()
}
