package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"routinetimer/internal/types"
)

const (
	defaultDaemonAddress  = "127.0.0.1:7787"
	defaultPrimary        = "Morning Launch"
	defaultAmbientWidth   = 48
	defaultStorageBackend = "bbolt"
	envPrefix             = "ROUTINETIMER"
)

type CoreConfig struct {
	Daemon    CoreDaemonConfig    `toml:"daemon" json:"daemon" mapstructure:"daemon"`
	Logging   CoreLoggingConfig   `toml:"logging" json:"logging" mapstructure:"logging"`
	Storage   CoreStorageConfig   `toml:"storage" json:"storage" mapstructure:"storage"`
	Reminders CoreRemindersConfig `toml:"reminders" json:"reminders" mapstructure:"reminders"`
	Ambient   CoreAmbientConfig   `toml:"ambient" json:"ambient" mapstructure:"ambient"`
	Routines  CoreRoutinesConfig  `toml:"routines" json:"routines" mapstructure:"routines"`
}

type CoreDaemonConfig struct {
	Address string `toml:"address" json:"address" mapstructure:"address"`
}

type CoreLoggingConfig struct {
	Level string `toml:"level" json:"level" mapstructure:"level"`
}

type CoreStorageConfig struct {
	Backend string `toml:"backend" json:"backend" mapstructure:"backend"`
}

type CoreRemindersConfig struct {
	Enabled              bool     `toml:"enabled" json:"enabled" mapstructure:"enabled"`
	DailyHour            int      `toml:"daily_hour" json:"daily_hour" mapstructure:"daily_hour"`
	DailyMinute          int      `toml:"daily_minute" json:"daily_minute" mapstructure:"daily_minute"`
	PrimaryRoutine       string   `toml:"primary_routine" json:"primary_routine" mapstructure:"primary_routine"`
	Methods              []string `toml:"methods" json:"methods" mapstructure:"methods"`
	ScriptCommands       []string `toml:"script_commands" json:"script_commands" mapstructure:"script_commands"`
	ScriptTimeoutSeconds int      `toml:"script_timeout_seconds" json:"script_timeout_seconds" mapstructure:"script_timeout_seconds"`
	AutoStartPrimary     bool     `toml:"auto_start_primary" json:"auto_start_primary" mapstructure:"auto_start_primary"`
}

type CoreAmbientConfig struct {
	StatusFile    string `toml:"status_file" json:"status_file" mapstructure:"status_file"`
	TerminalTitle bool   `toml:"terminal_title" json:"terminal_title" mapstructure:"terminal_title"`
	Width         int    `toml:"width" json:"width" mapstructure:"width"`
}

type CoreRoutinesConfig struct {
	Path  string `toml:"path" json:"path" mapstructure:"path"`
	Watch bool   `toml:"watch" json:"watch" mapstructure:"watch"`
}

func DefaultCoreConfig() CoreConfig {
	return CoreConfig{
		Daemon:  CoreDaemonConfig{Address: defaultDaemonAddress},
		Logging: CoreLoggingConfig{Level: "info"},
		Storage: CoreStorageConfig{Backend: defaultStorageBackend},
		Reminders: CoreRemindersConfig{
			Enabled:              true,
			DailyHour:            7,
			DailyMinute:          0,
			PrimaryRoutine:       defaultPrimary,
			Methods:              []string{string(types.NotificationMethodAuto)},
			ScriptCommands:       []string{},
			ScriptTimeoutSeconds: 10,
		},
		Ambient: CoreAmbientConfig{Width: defaultAmbientWidth},
		Routines: CoreRoutinesConfig{Watch: true},
	}
}

// LoadCoreConfig reads config.toml from the data directory. A missing file
// yields the defaults; ROUTINETIMER_* environment variables override both.
func LoadCoreConfig() (CoreConfig, error) {
	path, err := CoreConfigPath()
	if err != nil {
		return CoreConfig{}, err
	}
	return loadCoreConfigFromPath(path)
}

func loadCoreConfigFromPath(path string) (CoreConfig, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return CoreConfig{}, errors.New("path is required")
	}
	v := newViper(DefaultCoreConfig())
	v.SetConfigFile(path)
	if info, err := os.Stat(path); err == nil && info.Size() > 0 {
		if err := v.ReadInConfig(); err != nil {
			return CoreConfig{}, fmt.Errorf("read config %s: %w", path, err)
		}
	} else if err != nil && !errors.Is(err, os.ErrNotExist) {
		return CoreConfig{}, err
	}
	var cfg CoreConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return CoreConfig{}, fmt.Errorf("unmarshal config: %w", err)
	}
	return cfg, nil
}

func newViper(defaults CoreConfig) *viper.Viper {
	v := viper.New()
	v.SetDefault("daemon.address", defaults.Daemon.Address)
	v.SetDefault("logging.level", defaults.Logging.Level)
	v.SetDefault("storage.backend", defaults.Storage.Backend)
	v.SetDefault("reminders.enabled", defaults.Reminders.Enabled)
	v.SetDefault("reminders.daily_hour", defaults.Reminders.DailyHour)
	v.SetDefault("reminders.daily_minute", defaults.Reminders.DailyMinute)
	v.SetDefault("reminders.primary_routine", defaults.Reminders.PrimaryRoutine)
	v.SetDefault("reminders.methods", defaults.Reminders.Methods)
	v.SetDefault("reminders.script_commands", defaults.Reminders.ScriptCommands)
	v.SetDefault("reminders.script_timeout_seconds", defaults.Reminders.ScriptTimeoutSeconds)
	v.SetDefault("reminders.auto_start_primary", defaults.Reminders.AutoStartPrimary)
	v.SetDefault("ambient.status_file", defaults.Ambient.StatusFile)
	v.SetDefault("ambient.terminal_title", defaults.Ambient.TerminalTitle)
	v.SetDefault("ambient.width", defaults.Ambient.Width)
	v.SetDefault("routines.path", defaults.Routines.Path)
	v.SetDefault("routines.watch", defaults.Routines.Watch)

	v.SetConfigType("toml")
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func (c CoreConfig) DaemonAddress() string {
	addr := strings.TrimSpace(c.Daemon.Address)
	addr = strings.TrimPrefix(addr, "http://")
	addr = strings.TrimPrefix(addr, "https://")
	addr = strings.TrimRight(addr, "/")
	if addr == "" {
		return defaultDaemonAddress
	}
	return addr
}

func (c CoreConfig) DaemonBaseURL() string {
	return "http://" + c.DaemonAddress()
}

func (c CoreConfig) LogLevel() string {
	level := strings.TrimSpace(c.Logging.Level)
	if level == "" {
		return "info"
	}
	return level
}

func (c CoreConfig) StorageBackend() string {
	backend := strings.ToLower(strings.TrimSpace(c.Storage.Backend))
	if backend == "" {
		return defaultStorageBackend
	}
	return backend
}

func (c CoreConfig) RemindersEnabled() bool {
	return c.Reminders.Enabled
}

// DailyReminderTime returns the local hour and minute of the daily reminder,
// falling back to 07:00 when either is out of range.
func (c CoreConfig) DailyReminderTime() (hour, minute int) {
	hour, minute = c.Reminders.DailyHour, c.Reminders.DailyMinute
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 7, 0
	}
	return hour, minute
}

func (c CoreConfig) PrimaryRoutine() string {
	name := strings.TrimSpace(c.Reminders.PrimaryRoutine)
	if name == "" {
		return defaultPrimary
	}
	return name
}

func (c CoreConfig) AutoStartPrimary() bool {
	return c.Reminders.AutoStartPrimary
}

func (c CoreConfig) NotificationSettings() types.NotificationSettings {
	methods := make([]types.NotificationMethod, 0, len(c.Reminders.Methods))
	for _, raw := range normalizedList(c.Reminders.Methods) {
		methods = append(methods, types.NotificationMethod(raw))
	}
	return types.NormalizeNotificationSettings(types.NotificationSettings{
		Enabled:              c.Reminders.Enabled,
		Methods:              methods,
		ScriptCommands:       c.Reminders.ScriptCommands,
		ScriptTimeoutSeconds: c.Reminders.ScriptTimeoutSeconds,
	})
}

func (c CoreConfig) StatusFile() (string, error) {
	if strings.TrimSpace(c.Ambient.StatusFile) == "" {
		return StatusFilePath()
	}
	return resolveConfigPath(c.Ambient.StatusFile)
}

func (c CoreConfig) TerminalTitleEnabled() bool {
	return c.Ambient.TerminalTitle
}

func (c CoreConfig) AmbientWidth() int {
	if c.Ambient.Width <= 0 {
		return defaultAmbientWidth
	}
	return c.Ambient.Width
}

func (c CoreConfig) RoutinesFile() (string, error) {
	if strings.TrimSpace(c.Routines.Path) == "" {
		return RoutinesPath()
	}
	return resolveConfigPath(c.Routines.Path)
}

func (c CoreConfig) WatchRoutines() bool {
	return c.Routines.Watch
}

func resolveConfigPath(path string) (string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return "", errors.New("path is required")
	}
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, path[2:]), nil
	}
	if filepath.IsAbs(path) {
		return path, nil
	}
	dataDir, err := DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dataDir, path), nil
}

func normalizedList(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	out := make([]string, 0, len(values))
	seen := map[string]struct{}{}
	for _, raw := range values {
		value := strings.TrimSpace(raw)
		if value == "" {
			continue
		}
		if _, ok := seen[value]; ok {
			continue
		}
		seen[value] = struct{}{}
		out = append(out, value)
	}
	return out
}
