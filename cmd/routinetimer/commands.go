package main

import (
	"context"
	"io"
	"os"

	"routinetimer/internal/app"

	"github.com/spf13/cobra"
)

type commandWiring struct {
	stdout     io.Writer
	stderr     io.Writer
	newClient  clientFactory
	runDaemon  func(ctx context.Context, background bool) error
	killDaemon func() error
	runUI      func(api app.ExecutionAPI, opts app.Options) error
	copyText   func(text string) (app.ClipboardMethod, error)
	termWidth  func() int
	version    string
}

func defaultCommandWiring(stdout, stderr io.Writer) commandWiring {
	if stdout == nil {
		stdout = os.Stdout
	}
	if stderr == nil {
		stderr = os.Stderr
	}
	return commandWiring{
		stdout:    stdout,
		stderr:    stderr,
		newClient: newRoutineClient,
		runDaemon: runDaemonProcess,
		killDaemon: func() error {
			return killDaemonWithFactory(newRoutineClient)
		},
		runUI:     app.Run,
		copyText:  app.CopyText,
		termWidth: terminalWidth,
		version:   buildVersion(),
	}
}

func newRootCommand(wiring commandWiring) *cobra.Command {
	root := &cobra.Command{
		Use:   "routinetimer",
		Short: "Run timed step-by-step routines",
		Long: `routinetimer plays short timed routines (morning launch, work start,
workout start) one step at a time. A local daemon owns the timer, sends
step and daily reminders, and mirrors progress to a status file.`,
		Version:       wiring.version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(wiring.stdout)
	root.SetErr(wiring.stderr)

	root.AddCommand(
		newDaemonCommand(wiring),
		newRoutinesCommand(wiring),
		newStartCommand(wiring),
		newControlCommand(wiring, "pause", "Pause the running routine"),
		newControlCommand(wiring, "resume", "Resume the paused routine"),
		newControlCommand(wiring, "skip", "Skip to the next step"),
		newControlCommand(wiring, "quit", "End the routine without recording it"),
		newStatusCommand(wiring),
		newHistoryCommand(wiring),
		newRemindersCommand(wiring),
		newConfigCommand(wiring),
		newUICommand(wiring),
	)
	return root
}

// connect builds a client and makes sure a daemon is answering.
func connect(ctx context.Context, newClient clientFactory) (commandClient, error) {
	client, err := newClient()
	if err != nil {
		return nil, err
	}
	if err := client.EnsureDaemon(ctx); err != nil {
		return nil, err
	}
	return client, nil
}
