package types

import "strings"

type NotificationMethod string

const (
	NotificationMethodAuto       NotificationMethod = "auto"
	NotificationMethodNotifySend NotificationMethod = "notify-send"
	NotificationMethodDunstify   NotificationMethod = "dunstify"
	NotificationMethodBell       NotificationMethod = "bell"
)

type NotificationSettings struct {
	Enabled              bool                 `json:"enabled"`
	Methods              []NotificationMethod `json:"methods,omitempty"`
	ScriptCommands       []string             `json:"script_commands,omitempty"`
	ScriptTimeoutSeconds int                  `json:"script_timeout_seconds,omitempty"`
}

// Notification is one delivered reminder.
type Notification struct {
	ReminderID  string       `json:"reminder_id"`
	Kind        ReminderKind `json:"kind"`
	Title       string       `json:"title"`
	Body        string       `json:"body"`
	RoutineName string       `json:"routine_name,omitempty"`
	OccurredAt  string       `json:"occurred_at"`
}

func DefaultNotificationSettings() NotificationSettings {
	return NotificationSettings{
		Enabled:              true,
		Methods:              []NotificationMethod{NotificationMethodAuto},
		ScriptTimeoutSeconds: 10,
	}
}

func CloneNotificationSettings(in NotificationSettings) NotificationSettings {
	out := in
	if in.Methods != nil {
		out.Methods = append([]NotificationMethod{}, in.Methods...)
	}
	if in.ScriptCommands != nil {
		out.ScriptCommands = append([]string{}, in.ScriptCommands...)
	}
	return out
}

func NormalizeNotificationSettings(in NotificationSettings) NotificationSettings {
	out := CloneNotificationSettings(in)
	out.Methods = normalizeNotificationMethods(in.Methods)
	if len(out.Methods) == 0 {
		out.Methods = append([]NotificationMethod{}, DefaultNotificationSettings().Methods...)
	}
	out.ScriptCommands = normalizeStringList(in.ScriptCommands)
	if out.ScriptTimeoutSeconds <= 0 {
		out.ScriptTimeoutSeconds = DefaultNotificationSettings().ScriptTimeoutSeconds
	}
	return out
}

func normalizeNotificationMethods(values []NotificationMethod) []NotificationMethod {
	if len(values) == 0 {
		return nil
	}
	seen := map[NotificationMethod]struct{}{}
	out := make([]NotificationMethod, 0, len(values))
	for _, value := range values {
		normalized, ok := NormalizeNotificationMethod(string(value))
		if !ok {
			continue
		}
		if _, exists := seen[normalized]; exists {
			continue
		}
		seen[normalized] = struct{}{}
		out = append(out, normalized)
	}
	return out
}

func normalizeStringList(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	seen := map[string]struct{}{}
	out := make([]string, 0, len(values))
	for _, value := range values {
		trimmed := strings.TrimSpace(value)
		if trimmed == "" {
			continue
		}
		if _, exists := seen[trimmed]; exists {
			continue
		}
		seen[trimmed] = struct{}{}
		out = append(out, trimmed)
	}
	return out
}

func NormalizeNotificationMethod(raw string) (NotificationMethod, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "auto":
		return NotificationMethodAuto, true
	case "notify-send", "notify_send", "notifysend":
		return NotificationMethodNotifySend, true
	case "dunstify":
		return NotificationMethodDunstify, true
	case "bell", "terminal-bell", "terminal_bell":
		return NotificationMethodBell, true
	default:
		return "", false
	}
}
