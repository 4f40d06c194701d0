package reminders

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"

	"routinetimer/internal/logging"
	"routinetimer/internal/types"
)

type shellScriptRunner struct{}

func (shellScriptRunner) Run(ctx context.Context, command string, payload []byte, env []string) error {
	stderr := &bytes.Buffer{}
	cmd := exec.CommandContext(ctx, "sh", "-lc", command)
	cmd.Stdin = bytes.NewReader(payload)
	cmd.Stdout = io.Discard
	cmd.Stderr = stderr
	cmd.Env = append(os.Environ(), env...)
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("script %q failed: %w (%s)", command, err, strings.TrimSpace(stderr.String()))
	}
	return nil
}

var autoFallbackOrder = []types.NotificationMethod{
	types.NotificationMethodDunstify,
	types.NotificationMethodNotifySend,
	types.NotificationMethodBell,
}

type defaultDispatcher struct {
	sinks        map[types.NotificationMethod]Sink
	scriptRunner ScriptRunner
	logger       logging.Logger
}

func NewDispatcher(sinks []Sink, runner ScriptRunner, logger logging.Logger) Dispatcher {
	byMethod := map[types.NotificationMethod]Sink{}
	for _, sink := range sinks {
		if sink == nil {
			continue
		}
		byMethod[sink.Method()] = sink
	}
	if runner == nil {
		runner = shellScriptRunner{}
	}
	return &defaultDispatcher{
		sinks:        byMethod,
		scriptRunner: runner,
		logger:       logging.OrNop(logger),
	}
}

func (d *defaultDispatcher) Dispatch(ctx context.Context, notification types.Notification, settings types.NotificationSettings) error {
	var dispatchErr error
	if len(settings.Methods) > 0 {
		delivered := false
		for _, method := range settings.Methods {
			sent, err := d.dispatchMethod(ctx, method, notification)
			if err == nil {
				delivered = delivered || sent
				continue
			}
			dispatchErr = errors.Join(dispatchErr, err)
		}
		if !delivered && len(settings.ScriptCommands) == 0 && dispatchErr != nil {
			return dispatchErr
		}
	}
	if err := d.dispatchScripts(ctx, notification, settings); err != nil {
		dispatchErr = errors.Join(dispatchErr, err)
	}
	return dispatchErr
}

func (d *defaultDispatcher) dispatchMethod(ctx context.Context, method types.NotificationMethod, notification types.Notification) (bool, error) {
	if method == types.NotificationMethodAuto {
		for _, fallback := range autoFallbackOrder {
			sink, ok := d.sinks[fallback]
			if !ok || sink == nil {
				continue
			}
			if err := sink.Notify(ctx, notification); err == nil {
				return true, nil
			}
		}
		return false, errors.New("no notification sink available for auto")
	}
	sink, ok := d.sinks[method]
	if !ok || sink == nil {
		return false, fmt.Errorf("unknown notification method: %s", method)
	}
	if err := sink.Notify(ctx, notification); err != nil {
		return false, err
	}
	return true, nil
}

func (d *defaultDispatcher) dispatchScripts(ctx context.Context, notification types.Notification, settings types.NotificationSettings) error {
	if len(settings.ScriptCommands) == 0 {
		return nil
	}
	payload, err := json.Marshal(notification)
	if err != nil {
		return err
	}
	timeout := time.Duration(settings.ScriptTimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	var runErr error
	for _, command := range settings.ScriptCommands {
		command = strings.TrimSpace(command)
		if command == "" {
			continue
		}
		scriptCtx, cancel := context.WithTimeout(ctx, timeout)
		err := d.scriptRunner.Run(scriptCtx, command, payload, scriptEnv(notification))
		cancel()
		if err != nil {
			runErr = errors.Join(runErr, err)
		}
	}
	return runErr
}

func scriptEnv(notification types.Notification) []string {
	return []string{
		"ROUTINETIMER_REMINDER_ID=" + notification.ReminderID,
		"ROUTINETIMER_REMINDER_KIND=" + string(notification.Kind),
		"ROUTINETIMER_ROUTINE=" + notification.RoutineName,
		"ROUTINETIMER_TITLE=" + notification.Title,
		"ROUTINETIMER_BODY=" + notification.Body,
		"ROUTINETIMER_NOTIFICATION_AT=" + notification.OccurredAt,
	}
}

type notifySendSink struct{}

func (notifySendSink) Method() types.NotificationMethod {
	return types.NotificationMethodNotifySend
}

func (notifySendSink) Notify(ctx context.Context, notification types.Notification) error {
	if _, err := exec.LookPath("notify-send"); err != nil {
		return err
	}
	return exec.CommandContext(ctx, "notify-send", "--app-name=routinetimer", notification.Title, notification.Body).Run()
}

type dunstifySink struct{}

func (dunstifySink) Method() types.NotificationMethod {
	return types.NotificationMethodDunstify
}

// Step reminders replace each other on screen through a fixed replace id.
func (dunstifySink) Notify(ctx context.Context, notification types.Notification) error {
	if _, err := exec.LookPath("dunstify"); err != nil {
		return err
	}
	args := []string{"--appname=routinetimer"}
	if notification.Kind == types.ReminderKindStep {
		args = append(args, "--replace=7787")
	}
	args = append(args, notification.Title, notification.Body)
	return exec.CommandContext(ctx, "dunstify", args...).Run()
}

type bellSink struct {
	out io.Writer
}

func (bellSink) Method() types.NotificationMethod {
	return types.NotificationMethodBell
}

func (s bellSink) Notify(ctx context.Context, notification types.Notification) error {
	out := s.out
	if out == nil {
		out = os.Stdout
	}
	_, err := fmt.Fprint(out, "\a")
	return err
}

func DefaultSinks() []Sink {
	return []Sink{
		dunstifySink{},
		notifySendSink{},
		bellSink{},
	}
}
