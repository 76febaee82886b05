// Package main provides the anagram CLI: it reports whether its two
// arguments are anagrams of each other. The service around the predicate
// lives in cmd/anagramd.
package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"anagram/pkg/anagram"
	"anagram/pkg/logger"
	"anagram/pkg/serrors"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// argsTerminator is put in front of the real arguments so that cobra never
// routes an input (e.g. "__complete") to one of its built-in commands.
const argsTerminator = "--"

const usage = `Prints true when <a> and <b> contain the same characters in any order,
ignoring case, and false otherwise. Whitespace and punctuation are compared
like any other character.

Exactly two arguments are always taken as the inputs, even when they look
like options. With more arguments, leading options are read up to "--":
  -v, --verbose   log the lowercased and sorted forms of both inputs
  -h, --help      print this help (only as the sole argument)`

type options struct {
	verbose bool
	help    bool
}

// parseArgs splits leading options from the two inputs.
func parseArgs(args []string) (options, []string, error) {
	var opts options

	if len(args) == 1 && (args[0] == "-h" || args[0] == "--help") {
		opts.help = true

		return opts, nil, nil
	}

loop:
	for len(args) > 2 { //nolint: mnd
		switch args[0] {
		case "-v", "--verbose":
			opts.verbose = true
		case "--":
			args = args[1:]

			break loop
		default:
			break loop
		}
		args = args[1:]
	}

	if len(args) != 2 { //nolint: mnd
		return opts, nil, serrors.With(serrors.ErrBadRequest, "expected 2 arguments, got %d", len(args))
	}

	return opts, args, nil
}

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "anagram [-v] [--] <a> <b>",
		Short: "Reports whether two strings are anagrams of each other, ignoring case",
		Long:  usage,
		Args:  cobra.ArbitraryArgs,

		// inputs are free text; options are read by parseArgs
		DisableFlagParsing:    true,
		DisableFlagsInUseLine: true,

		// RunE writes usage to stderr itself
		SilenceUsage: true,

		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 && args[0] == argsTerminator {
				args = args[1:]
			}

			opts, inputs, err := parseArgs(args)
			if err != nil {
				_, _ = fmt.Fprint(cmd.ErrOrStderr(), cmd.UsageString())

				return err
			}
			if opts.help {
				return cmd.Help() //nolint: wrapcheck
			}

			ctx := cmd.Context()
			if opts.verbose {
				ctx = logger.WithLogger(ctx, diagnosticsLogger(cmd.ErrOrStderr()))
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), anagram.Check(ctx, inputs[0], inputs[1]))

			return err //nolint: wrapcheck
		},
	}
	cmd.SetHelpTemplate("Usage: {{.UseLine}}\n\n{{.Long}}\n")
	cmd.SetUsageTemplate("Usage: {{.UseLine}}\n")

	return cmd
}

// diagnosticsLogger writes debug entries in development format to w.
func diagnosticsLogger(w io.Writer) *zap.Logger {
	encoder := zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())

	return zap.New(zapcore.NewCore(encoder, zapcore.AddSync(w), zapcore.DebugLevel))
}

// execute runs the command with the given arguments.
func execute(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	cmd := newRootCommand()
	cmd.SetArgs(append([]string{argsTerminator}, args...))
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	return cmd.ExecuteContext(ctx) //nolint: wrapcheck
}

func main() {
	if err := execute(context.Background(), os.Args[1:], os.Stdout, os.Stderr); err != nil {
		os.Exit(1)
	}
}
