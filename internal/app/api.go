package app

import (
	"context"

	"routinetimer/internal/client"
	"routinetimer/internal/types"
)

// ExecutionAPI is the slice of the daemon client the player drives.
// *client.Client satisfies it.
type ExecutionAPI interface {
	Execution(ctx context.Context) (*client.ExecutionResponse, error)
	Start(ctx context.Context, routine string) (*client.ExecutionResponse, error)
	Pause(ctx context.Context) (*client.ExecutionResponse, error)
	Resume(ctx context.Context) (*client.ExecutionResponse, error)
	Skip(ctx context.Context) (*client.ExecutionResponse, error)
	Quit(ctx context.Context) (*client.ExecutionResponse, error)
	ExecutionEvents(ctx context.Context) (<-chan types.ExecutionEvent, func(), error)
	ConsumeAutoStart(ctx context.Context) (*client.AutoStartResponse, error)
}
