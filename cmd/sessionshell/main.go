// Package main provides the sessionshell CLI application entry point.
// sessionshell is an interactive command session over a fixed set of operations.
package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"sessionshell/internal/config"
	"sessionshell/internal/host"
	"sessionshell/internal/journal"
	"sessionshell/internal/logger"
	"sessionshell/internal/render"
	"sessionshell/internal/scratch"
	"sessionshell/internal/session"
	"sessionshell/internal/version"
)

var (
	configFile string
	detailed   bool
	cfg        *config.Config
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "sessionshell",
	Short: "Interactive command session",
	Long: `sessionshell reads commands line by line, runs them against a fixed set of
operations and renders the results as indented, colored rows.`,
	Run: runShell,
}

// shellCmd represents the shell command (explicit version of default behavior)
var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Start the interactive session",
	Run:   runShell,
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run:   runVersion,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configFile, "config", "", "Config file [default: $XDG_CONFIG_HOME/sessionshell/config.yaml]")
	flags.String("log-level", "", "Set log level (debug|info|warn|error) [default: warn]")
	flags.String("log-file", "", "Write logs to file instead of stderr")
	flags.Bool("verbose", false, "Show verbose output and error causes")
	flags.Bool("dev", false, "Diagnostic mode: render notices instead of format errors")
	flags.Bool("no-color", false, "Disable colored output")
	flags.String("prompt", ">", "Input prompt")
	flags.String("welcome", "Welcome", "Text shown when the session starts")
	flags.String("journal", "", "Append a session journal to this file")
	flags.String("scratch", "", "Scratch directory [default: a new directory under the system temp dir]")

	versionCmd.Flags().BoolVar(&detailed, "detailed", false, "Show full build information")

	rootCmd.AddCommand(shellCmd)
	rootCmd.AddCommand(versionCmd)

	// Configure logger before any command execution
	cobra.OnInitialize(initConfig)
}

func initConfig() {
	loaded, err := config.Load(configFile, rootCmd.PersistentFlags())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	level := loaded.LogLevel
	if level == "" && loaded.Dev {
		level = "debug"
	}
	if err := logger.Configure(level, loaded.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Error configuring logger: %v\n", err)
		os.Exit(1)
	}
	cfg = loaded
}

func runShell(_ *cobra.Command, _ []string) {
	logger.Info("Starting sessionshell", "version", version.Version)

	s, err := newShell(cfg, os.Stdout, session.WithSignals())
	if err != nil {
		logger.Fatal("Failed to start session", "error", err)
	}
	if err := s.Run(); err != nil {
		logger.Error("Session ended with an error", "error", err)
	}
}

// newShell wires the renderer, journal, scratch directory and host
// operations into a session. extra options are applied last.
func newShell(cfg *config.Config, out io.Writer, extra ...session.Option) (*session.Session, error) {
	id := uuid.NewString()
	started := time.Now()

	r := render.New(append(cfg.RenderOptions(), render.WithWriter(out))...)

	var j *journal.Journal
	if cfg.Journal != "" {
		opts := []journal.Option{journal.WithSessionID(id)}
		if cfg.Verbose {
			opts = append(opts, journal.WithMirror())
		}
		opened, err := journal.Open(cfg.Journal, r, opts...)
		if err != nil {
			return nil, err
		}
		j = opened
	}

	scratchPath := cfg.Scratch
	if scratchPath == "" {
		scratchPath = filepath.Join(os.TempDir(), "sessionshell-"+id)
	}
	dir := scratch.New(scratchPath, r)

	allow := host.New(host.Deps{
		Journal:   j,
		Scratch:   dir,
		Version:   version.Version,
		SessionID: id,
		Started:   started,
	})

	leading, side, errColor := cfg.ColorTags()
	opts := []session.Option{
		session.WithRenderer(r),
		session.WithPrompt(cfg.Prompt),
		session.WithWelcome(cfg.Welcome),
		session.WithColors(leading, side, errColor),
		session.WithSessionID(id),
		session.OnTerminate(dir.Clear),
	}
	if j != nil {
		opts = append(opts, session.OnTerminate(func() {
			if err := j.Summary(); err != nil {
				logger.Warn("Failed to write journal summary", "error", err)
			}
			if err := j.Close(); err != nil {
				logger.Warn("Failed to close journal", "error", err)
			}
		}))
	}

	return session.New(allow, append(opts, extra...)...), nil
}

func runVersion(cmd *cobra.Command, _ []string) {
	var opts []render.Option
	if cfg != nil {
		opts = cfg.RenderOptions()
	}
	out := render.New(append(opts, render.WithWriter(cmd.OutOrStdout()))...)

	if !detailed {
		out.Print(version.Short())
		return
	}

	info, err := version.Get()
	if err != nil {
		out.Line(0, render.Red, "Error: "+err.Error())
		return
	}
	out.Line(0, render.Green, version.Short())
	out.PPrint(info)
}
