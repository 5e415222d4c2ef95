package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"
)

const (
	PromptColor  = "\033[36m" // Cyan
	ErrorColor   = "\033[31m" // Red
	SuccessColor = "\033[32m" // Green
	ResetColor   = "\033[0m"
	BoldColor    = "\033[1m"
)

// Version is set at build time via -ldflags
var Version = "dev"

// errDiagnostics makes check exit with status 1 without printing an error.
var errDiagnostics = errors.New("diagnostics reported")

func main() {
	if err := newRootCmd().Execute(); err != nil {
		if !errors.Is(err, errDiagnostics) {
			fmt.Fprintf(os.Stderr, "%sError: %v%s\n", ErrorColor, err, ResetColor)
		}
		os.Exit(1)
	}
}

type rootOptions struct {
	logLevel string
}

func (opts *rootOptions) logger() hclog.Logger {
	return hclog.New(&hclog.LoggerOptions{
		Name:   "pgparse",
		Level:  hclog.LevelFromString(opts.logLevel),
		Output: os.Stderr,
	})
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "pgparse",
		Short: "Parse and check PostgreSQL SELECT scripts",
		Long: `pgparse tokenizes and parses a subset of PostgreSQL: empty statements
and SELECT <columns> FROM [schema.]table. Statements that do not parse
are reported as diagnostics and the rest of the script is still parsed.

Without a subcommand an interactive prompt is started.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRepl(cmd)
		},
	}

	rootCmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "Log level (trace, debug, info, warn, error)")

	rootCmd.AddCommand(
		newParseCmd(),
		newTokensCmd(),
		newCheckCmd(opts),
		newReplCmd(),
	)
	return rootCmd
}
