package main

import (
	"errors"
	"fmt"

	"github.com/aretw0/metta/internal/cli"
	"github.com/aretw0/metta/pkg/domain"
	"github.com/spf13/cobra"
)

// globalFlags are shared by every command.
type globalFlags struct {
	config  string
	history string
	debug   bool
}

func (g *globalFlags) options() cli.Options {
	return cli.Options{
		ConfigPath:  g.config,
		HistoryPath: g.history,
		Debug:       g.debug,
	}
}

func newRootCmd() *cobra.Command {
	g := &globalFlags{}
	var (
		eval        string
		jsonMode    bool
		noBanner    bool
		metricsAddr string
	)

	root := &cobra.Command{
		Use:   "metta [FILE]",
		Short: "Interactive shell for the MeTTa language",
		Long: `metta reads MeTTa expressions and prints their results.

Without arguments it starts an interactive session. With FILE (or "-" for
stdin) or --eval it evaluates the whole input as one unit and exits:
0 on success, 2 when the engine reports an error, 130 when interrupted.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := g.options()
			opts.Eval = eval
			opts.JSON = jsonMode
			opts.NoBanner = noBanner
			opts.MetricsAddr = metricsAddr
			opts.Stdin = cmd.InOrStdin()
			opts.Stdout = cmd.OutOrStdout()
			opts.Stderr = cmd.ErrOrStderr()

			var err error
			if len(args) == 1 && eval != "" {
				err = fmt.Errorf("--eval and FILE cannot be used together")
			} else {
				if len(args) == 1 {
					opts.File = args[0]
				}
				err = cli.Run(cmd.Context(), opts)
			}
			report(cmd, err)
			return err
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&g.config, "config", "", "config file (default $XDG_CONFIG_HOME/metta/config.yaml, or $METTA_CONFIG)")
	pf.StringVar(&g.history, "history", "", "history file (implies the file history backend)")
	pf.BoolVar(&g.debug, "debug", false, "log debug information to stderr")

	f := root.Flags()
	f.StringVarP(&eval, "eval", "e", "", "evaluate EXPR and exit")
	f.BoolVar(&jsonMode, "json", false, "print outcomes as JSON lines")
	f.BoolVar(&noBanner, "no-banner", false, "do not print the start-up banner")
	f.StringVar(&metricsAddr, "metrics-addr", "", "serve prometheus metrics on this address (e.g. :9090)")

	root.AddCommand(newVersionCmd(), newHistoryCmd(g))
	return root
}

// report prints errors that are not already visible as rendered outcomes.
func report(cmd *cobra.Command, err error) {
	if err == nil {
		return
	}
	var exitErr *domain.ExitError
	if errors.As(err, &exitErr) {
		switch exitErr.Code {
		case domain.ExitScriptError, domain.ExitInterrupted, domain.ExitFatal:
			return
		}
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "metta: %v\n", err)
}
