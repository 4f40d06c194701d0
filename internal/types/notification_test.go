package types

import "testing"

func TestNormalizeNotificationSettingsFallsBackToDefaults(t *testing.T) {
	got := NormalizeNotificationSettings(NotificationSettings{
		Enabled: true,
		Methods: []NotificationMethod{"unknown"},
	})
	if len(got.Methods) != 1 || got.Methods[0] != NotificationMethodAuto {
		t.Fatalf("expected fallback method auto, got %#v", got.Methods)
	}
	if got.ScriptTimeoutSeconds <= 0 {
		t.Fatalf("expected default script timeout")
	}
}

func TestNormalizeNotificationSettingsDedupesMethodsAndScripts(t *testing.T) {
	got := NormalizeNotificationSettings(NotificationSettings{
		Enabled:        true,
		Methods:        []NotificationMethod{"Bell", "terminal-bell", "notify_send"},
		ScriptCommands: []string{" say done ", "say done", ""},
	})
	if len(got.Methods) != 2 || got.Methods[0] != NotificationMethodBell || got.Methods[1] != NotificationMethodNotifySend {
		t.Fatalf("unexpected methods: %#v", got.Methods)
	}
	if len(got.ScriptCommands) != 1 || got.ScriptCommands[0] != "say done" {
		t.Fatalf("unexpected scripts: %#v", got.ScriptCommands)
	}
}

func TestCloneNotificationSettingsCopiesSlices(t *testing.T) {
	in := NotificationSettings{Methods: []NotificationMethod{NotificationMethodBell}}
	out := CloneNotificationSettings(in)
	out.Methods[0] = NotificationMethodDunstify
	if in.Methods[0] != NotificationMethodBell {
		t.Fatalf("clone shares backing array")
	}
}
