package main

import (
	"fmt"

	"github.com/aretw0/metta"
	"github.com/spf13/cobra"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version of metta and its engine backend",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := metta.New()
			if err != nil {
				report(cmd, err)
				return err
			}
			defer engine.Close()
			fmt.Fprintf(cmd.OutOrStdout(), "metta version %s (%s backend, engine %s)\n",
				metta.Version, engine.Backend(), engine.Version())
			return nil
		},
	}
}
