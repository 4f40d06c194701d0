package app

import (
	"routinetimer/internal/client"
	"routinetimer/internal/types"
)

type executionMsg struct {
	action string
	resp   *client.ExecutionResponse
	err    error
}

type eventStreamMsg struct {
	ch     <-chan types.ExecutionEvent
	cancel func()
	err    error
}

type executionEventMsg struct {
	event types.ExecutionEvent
}

type eventStreamClosedMsg struct{}

type streamRetryMsg struct{}

type autoStartMsg struct {
	resp *client.AutoStartResponse
	err  error
}
