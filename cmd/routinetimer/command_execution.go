package main

import (
	"context"

	"routinetimer/internal/client"

	"github.com/spf13/cobra"
)

func newStartCommand(wiring commandWiring) *cobra.Command {
	return &cobra.Command{
		Use:   "start <routine>",
		Short: "Start a routine by id or name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := connect(cmd.Context(), wiring.newClient)
			if err != nil {
				return err
			}
			resp, err := c.Start(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			printExecution(wiring.stdout, resp)
			return nil
		},
	}
}

// newControlCommand builds pause, resume, skip and quit, which share a shape.
func newControlCommand(wiring commandWiring, name, short string) *cobra.Command {
	return &cobra.Command{
		Use:   name,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := connect(cmd.Context(), wiring.newClient)
			if err != nil {
				return err
			}
			var call func(context.Context) (*client.ExecutionResponse, error)
			switch name {
			case "pause":
				call = c.Pause
			case "resume":
				call = c.Resume
			case "skip":
				call = c.Skip
			default:
				call = c.Quit
			}
			resp, err := call(cmd.Context())
			if err != nil {
				return err
			}
			printExecution(wiring.stdout, resp)
			return nil
		},
	}
}

func newStatusCommand(wiring commandWiring) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the current execution",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := connect(cmd.Context(), wiring.newClient)
			if err != nil {
				return err
			}
			resp, err := c.Execution(cmd.Context())
			if err != nil {
				return err
			}
			printExecution(wiring.stdout, resp)
			return nil
		},
	}
}
