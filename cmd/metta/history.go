package main

import (
	"fmt"

	"github.com/aretw0/metta/internal/cli"
	"github.com/spf13/cobra"
)

func newHistoryCmd(g *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect or clear the persisted session history",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "ls",
		Short: "List history entries, oldest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			err := cli.HistoryList(cmd.Context(), g.options(), cmd.OutOrStdout())
			report(cmd, err)
			return err
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Delete every history entry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cli.HistoryClear(cmd.Context(), g.options()); err != nil {
				report(cmd, err)
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "history cleared")
			return nil
		},
	})
	return cmd
}
