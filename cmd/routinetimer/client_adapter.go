package main

import (
	"context"

	"routinetimer/internal/app"
	"routinetimer/internal/client"
	"routinetimer/internal/types"
)

type clientFactory func() (commandClient, error)

type commandClient interface {
	app.ExecutionAPI
	EnsureDaemon(ctx context.Context) error
	Health(ctx context.Context) (*client.HealthResponse, error)
	ShutdownDaemon(ctx context.Context) error
	ListRoutines(ctx context.Context) ([]types.Routine, error)
	GetRoutine(ctx context.Context, query string) (*types.Routine, error)
	History(ctx context.Context, limit int) (*client.HistoryResponse, error)
	Reminders(ctx context.Context) ([]types.Reminder, error)
}

func newRoutineClient() (commandClient, error) {
	c, err := client.New()
	if err != nil {
		return nil, err
	}
	return c, nil
}
