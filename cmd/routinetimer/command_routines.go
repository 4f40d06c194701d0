package main

import (
	"fmt"

	"routinetimer/internal/app"
	"routinetimer/internal/app/sanitizer"

	"github.com/spf13/cobra"
)

func newRoutinesCommand(wiring commandWiring) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "routines",
		Aliases: []string{"ls"},
		Short:   "List or show routines",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runListRoutines(cmd, wiring)
		},
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List routines",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return runListRoutines(cmd, wiring)
			},
		},
		newShowRoutineCommand(wiring),
	)
	return cmd
}

func runListRoutines(cmd *cobra.Command, wiring commandWiring) error {
	client, err := connect(cmd.Context(), wiring.newClient)
	if err != nil {
		return err
	}
	routines, err := client.ListRoutines(cmd.Context())
	if err != nil {
		return err
	}
	printRoutines(wiring.stdout, routines)
	return nil
}

func newShowRoutineCommand(wiring commandWiring) *cobra.Command {
	var copySummary, plain bool
	cmd := &cobra.Command{
		Use:   "show <routine>",
		Short: "Show a routine's steps",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := connect(cmd.Context(), wiring.newClient)
			if err != nil {
				return err
			}
			routine, err := client.GetRoutine(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			markdown := app.RoutineMarkdown(*routine)
			if plain {
				fmt.Fprint(wiring.stdout, markdown)
			} else {
				fmt.Fprintln(wiring.stdout, app.RenderMarkdown(markdown, wiring.termWidth()))
			}

			if copySummary {
				summary := sanitizer.Label(routine.Name, 0) + ": " + sanitizer.Label(routine.Summary(), 0)
				method, err := wiring.copyText(summary)
				if err != nil {
					return err
				}
				fmt.Fprintf(wiring.stderr, "copied summary (%s)\n", method)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&copySummary, "copy", false, "copy the step summary to the clipboard")
	cmd.Flags().BoolVar(&plain, "plain", false, "print raw markdown")
	return cmd
}
