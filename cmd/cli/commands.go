package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	postgresql "github.com/jcgsville/postgresql-parsing"
	"github.com/jcgsville/postgresql-parsing/check"
	"github.com/jcgsville/postgresql-parsing/ps"
	"github.com/spf13/cobra"
)

// readInput returns the named file, or stdin for "-" or no argument.
func readInput(cmd *cobra.Command, args []string) (string, error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		return string(data), nil
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		return "", fmt.Errorf("failed to read file: %w", err)
	}
	return string(data), nil
}

func newParseCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "parse [file|-]",
		Short: "Print the syntax tree of a script",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readInput(cmd, args)
			if err != nil {
				return err
			}

			tree, diagnostics := postgresql.ParseWithDiagnostics(text)
			out := cmd.OutOrStdout()

			switch format {
			case "json":
				encoder := json.NewEncoder(out)
				encoder.SetIndent("", "  ")
				if err := encoder.Encode(tree); err != nil {
					return err
				}
			case "sql":
				if rendered := tree.String(); rendered != "" {
					fmt.Fprintln(out, rendered)
				}
			default:
				return fmt.Errorf("unknown format %q (expected json or sql)", format)
			}

			for _, diagnostic := range diagnostics {
				fmt.Fprintf(cmd.ErrOrStderr(), "%s\n", diagnostic)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&format, "format", "json", "Output format (json, sql)")
	return cmd
}

func newTokensCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tokens [file|-]",
		Short: "Print the tokens of a script",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readInput(cmd, args)
			if err != nil {
				return err
			}
			printTokens(cmd.OutOrStdout(), text)
			return nil
		},
	}
}

func printTokens(w io.Writer, text string) {
	table := check.NewTable(w)
	table.Header([]string{"Line", "Column", "Value"})
	for _, token := range postgresql.Tokenize(text) {
		table.Row([]string{
			strconv.Itoa(token.Position.Line + 1),
			strconv.Itoa(token.Position.Column + 1),
			token.Value,
		})
	}
	table.Render()
}

type checkOptions struct {
	git       string
	reference string
	format    string
	s3        check.S3Config
}

func newCheckCmd(root *rootOptions) *cobra.Command {
	opts := &checkOptions{}

	cmd := &cobra.Command{
		Use:   "check [paths...]",
		Short: "Check scripts and report diagnostics",
		Long: `Check local files, file://, http(s):// and s3://bucket/key scripts, and
with --git every .sql document of a git repository. Exits with status 1
when any document has diagnostics.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 && opts.git == "" {
				return fmt.Errorf("nothing to check: pass paths or --git")
			}
			return runCheck(cmd.Context(), cmd.OutOrStdout(), root, opts, args)
		},
	}

	cmd.Flags().StringVar(&opts.git, "git", "", "Check every .sql document of a repository (directory or URL)")
	cmd.Flags().StringVar(&opts.reference, "reference", "", "Cross-check with a reference parser (duckdb)")
	cmd.Flags().StringVar(&opts.format, "format", "text", "Output format (text, json)")
	cmd.Flags().StringVar(&opts.s3.Region, "s3-region", "", "AWS region for s3:// paths")
	cmd.Flags().StringVar(&opts.s3.Endpoint, "s3-endpoint", "", "S3-compatible endpoint")
	cmd.Flags().StringVar(&opts.s3.AccessKey, "s3-access-key", "", "S3 access key")
	cmd.Flags().StringVar(&opts.s3.SecretKey, "s3-secret-key", "", "S3 secret key")
	return cmd
}

func runCheck(ctx context.Context, out io.Writer, root *rootOptions, opts *checkOptions, paths []string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if opts.format != "text" && opts.format != "json" {
		return fmt.Errorf("unknown format %q (expected text or json)", opts.format)
	}

	logger := root.logger()
	engineOpts := []check.Option{check.WithLogger(logger)}

	switch opts.reference {
	case "":
	case "duckdb":
		reference, err := check.NewDuckDBReference()
		if err != nil {
			return err
		}
		engineOpts = append(engineOpts, check.WithReference(reference))
	default:
		return fmt.Errorf("unknown reference parser %q", opts.reference)
	}

	engine := check.NewEngine(engineOpts...)
	defer engine.Close()

	var results []check.Result
	for _, path := range paths {
		result, err := engine.CheckPath(ctx, path, &opts.s3)
		if err != nil {
			return err
		}
		results = append(results, result)
	}

	if opts.git != "" {
		persistence, err := openRepository(ctx, opts.git)
		if err != nil {
			return fmt.Errorf("failed to open repository: %w", err)
		}
		repoResults, err := postgresql.Open(&persistence).Check(ctx, engineOpts...)
		if err != nil {
			return err
		}
		results = append(results, repoResults...)
	}

	failed := 0
	for _, result := range results {
		if !result.Valid() {
			failed++
		}
	}

	if opts.format == "json" {
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(results); err != nil {
			return err
		}
	} else {
		for _, result := range results {
			result.Display(out)
		}
		fmt.Fprintf(out, "\n%d document(s) checked, %d with diagnostics\n", len(results), failed)
	}

	if failed > 0 {
		return errDiagnostics
	}
	return nil
}

// openRepository clones a URL into memory or opens an existing local
// repository.
func openRepository(ctx context.Context, location string) (ps.Persistence, error) {
	if strings.Contains(location, "://") || strings.HasPrefix(location, "git@") {
		return ps.NewClonedMemoryPersistence(ctx, location)
	}
	return ps.OpenFilePersistence(location)
}

func newReplCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "repl",
		Short: "Start an interactive prompt",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRepl(cmd)
		},
	}
}
