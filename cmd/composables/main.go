package main

import (
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/vango-dev/composables/internal/config"
	"github.com/vango-dev/composables/internal/errors"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// useColor is false when stdout is not a terminal.
var useColor = true

// globals are the persistent flags and what PersistentPreRunE builds from
// them.
type globals struct {
	configPath string
	logLevel   string

	cfg    *config.Config
	logger *slog.Logger
}

func main() {
	if !isTerminal(os.Stdout) {
		useColor = false
		errors.DisableColors()
	}

	g := &globals{}
	rootCmd := newRootCmd(g, os.Stderr)

	if err := rootCmd.Execute(); err != nil {
		var ce *errors.Error
		if stderrors.As(err, &ce) {
			fmt.Fprint(os.Stderr, ce.Format())
		} else {
			fmt.Fprintf(os.Stderr, "%s %s\n", paint(colorRed, "Error:"), err)
		}
		os.Exit(1)
	}
}

func newRootCmd(g *globals, logOut io.Writer) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "composables",
		Short: "Reactive storage hub and tooling",
		Long: `composables keeps reactive storage in sync across windows.

It runs the sync hub, inspects and edits stored values on any
configured backend, and demonstrates the DOM binders headlessly.

Configuration is read from composables.yaml (or composables.json)
in the current directory or its nearest parent.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return g.load(logOut)
		},
	}

	rootCmd.PersistentFlags().StringVarP(&g.configPath, "config", "c", "", "Config file (default: composables.yaml in the project root)")
	rootCmd.PersistentFlags().StringVar(&g.logLevel, "log-level", "", "Log level: debug, info, warn or error")

	rootCmd.AddCommand(
		serveCmd(g),
		storageCmd(g),
		watchCmd(g),
		demoCmd(),
		versionCmd(),
	)
	return rootCmd
}

// load reads the configuration and builds the logger.
func (g *globals) load(logOut io.Writer) error {
	var err error
	if g.configPath != "" {
		g.cfg, err = config.LoadFile(g.configPath)
	} else {
		g.cfg, err = config.LoadFromWorkingDir()
	}
	if err != nil {
		return err
	}

	if g.logLevel != "" {
		g.cfg.Log.Level = g.logLevel
		if err := g.cfg.Validate(); err != nil {
			return err
		}
	}
	g.logger = g.cfg.Log.Logger(logOut)
	slog.SetDefault(g.logger)
	return nil
}

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

const (
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorDim    = "\033[2m"
	colorReset  = "\033[0m"
)

func paint(color, text string) string {
	if !useColor {
		return text
	}
	return color + text + colorReset
}

// success prints a success message.
func success(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "%s %s\n", paint(colorGreen, "✓"), fmt.Sprintf(format, args...))
}

// info prints an info message.
func info(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "  %s\n", fmt.Sprintf(format, args...))
}

// warn prints a warning message.
func warn(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "%s %s\n", paint(colorYellow, "⚠"), fmt.Sprintf(format, args...))
}
