package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/cooptacular/gravity/internal/errors"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const banner = `
  ┏━╸┏━┓┏━┓╻ ╻╻╺┳╸╻ ╻
  ┃╺┓┣┳┛┣━┫┃┏┛┃ ┃ ┗┳┛
  ┗━┛╹┗╸╹ ╹┗┛ ╹ ╹  ╹
`

func main() {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		errors.FprintError(root.ErrOrStderr(), err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	g := &globalFlags{}

	rootCmd := &cobra.Command{
		Use:   "gravity",
		Short: "Route manifest tooling for Astro builds",
		Long: `Gravity loads the route manifest written by an Astro server build
and works with its route table from Go:

  • List and validate compiled routes
  • Generate concrete paths from route templates
  • Resolve request paths to routes
  • Serve prerendered pages, assets and redirects`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if g.noColor {
				errors.DisableColors()
			}
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&g.configPath, "config", "c", "", "Path to gravity.json")
	pf.StringVarP(&g.manifest, "manifest", "m", "", "Manifest path or s3://bucket/key URI")
	pf.StringVar(&g.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	pf.StringVar(&g.logFormat, "log-format", "", "Log format (text, json)")
	pf.BoolVar(&g.noColor, "no-color", false, "Disable colored output")

	rootCmd.AddCommand(
		initCmd(g),
		routesCmd(g),
		generateCmd(g),
		matchCmd(g),
		serveCmd(g),
		versionCmd(),
	)

	return rootCmd
}

// mark colors a status glyph unless colors are disabled.
func mark(color, glyph string) string {
	if !errors.ColorsEnabled() {
		return glyph
	}
	return color + glyph + "\033[0m"
}

// success prints a success message.
func success(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "%s %s\n", mark("\033[32m", "✓"), fmt.Sprintf(format, args...))
}

// info prints an info message.
func info(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "  %s\n", fmt.Sprintf(format, args...))
}

// warn prints a warning message.
func warn(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "%s %s\n", mark("\033[33m", "⚠"), fmt.Sprintf(format, args...))
}
