package main

import (
	"time"

	"github.com/spf13/cobra"
)

func newHistoryCommand(wiring commandWiring) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show completed runs, today's count and streak",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := connect(cmd.Context(), wiring.newClient)
			if err != nil {
				return err
			}
			resp, err := c.History(cmd.Context(), limit)
			if err != nil {
				return err
			}
			printRuns(wiring.stdout, resp)
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of runs to show")
	return cmd
}

func newRemindersCommand(wiring commandWiring) *cobra.Command {
	return &cobra.Command{
		Use:   "reminders",
		Short: "List pending reminders",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := connect(cmd.Context(), wiring.newClient)
			if err != nil {
				return err
			}
			reminders, err := c.Reminders(cmd.Context())
			if err != nil {
				return err
			}
			printReminders(wiring.stdout, reminders, time.Now())
			return nil
		},
	}
}
