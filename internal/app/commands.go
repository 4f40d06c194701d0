package app

import (
	"context"
	"time"

	"routinetimer/internal/client"
	"routinetimer/internal/types"

	tea "github.com/charmbracelet/bubbletea"
)

const (
	requestTimeout = 4 * time.Second
	streamRetry    = 2 * time.Second
)

const (
	actionRefresh = "refresh"
	actionStart   = "start"
	actionPause   = "pause"
	actionResume  = "resume"
	actionSkip    = "skip"
	actionQuit    = "quit"
)

func fetchExecutionCmd(api ExecutionAPI) tea.Cmd {
	return executionCmd(actionRefresh, func(ctx context.Context) (*client.ExecutionResponse, error) {
		return api.Execution(ctx)
	})
}

func startRoutineCmd(api ExecutionAPI, routine string) tea.Cmd {
	return executionCmd(actionStart, func(ctx context.Context) (*client.ExecutionResponse, error) {
		return api.Start(ctx, routine)
	})
}

func controlCmd(api ExecutionAPI, action string) tea.Cmd {
	var call func(context.Context) (*client.ExecutionResponse, error)
	switch action {
	case actionPause:
		call = api.Pause
	case actionResume:
		call = api.Resume
	case actionSkip:
		call = api.Skip
	case actionQuit:
		call = api.Quit
	default:
		return nil
	}
	return executionCmd(action, call)
}

func executionCmd(action string, call func(context.Context) (*client.ExecutionResponse, error)) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		resp, err := call(ctx)
		return executionMsg{action: action, resp: resp, err: err}
	}
}

func consumeAutoStartCmd(api ExecutionAPI) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		resp, err := api.ConsumeAutoStart(ctx)
		return autoStartMsg{resp: resp, err: err}
	}
}

func openEventStreamCmd(api ExecutionAPI) tea.Cmd {
	return func() tea.Msg {
		ch, cancel, err := api.ExecutionEvents(context.Background())
		return eventStreamMsg{ch: ch, cancel: cancel, err: err}
	}
}

func waitEventCmd(ch <-chan types.ExecutionEvent) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		event, ok := <-ch
		if !ok {
			return eventStreamClosedMsg{}
		}
		return executionEventMsg{event: event}
	}
}

func retryStreamCmd() tea.Cmd {
	return tea.Tick(streamRetry, func(time.Time) tea.Msg {
		return streamRetryMsg{}
	})
}
