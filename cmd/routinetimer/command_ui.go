package main

import (
	"routinetimer/internal/app"

	"github.com/spf13/cobra"
)

func newUICommand(wiring commandWiring) *cobra.Command {
	return &cobra.Command{
		Use:   "ui [routine]",
		Short: "Open the routine player",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := connect(cmd.Context(), wiring.newClient)
			if err != nil {
				return err
			}
			opts := app.Options{}
			if len(args) == 1 {
				opts.Routine = args[0]
			}
			return wiring.runUI(c, opts)
		},
	}
}
