package client

import (
	"io"
	"os"
	"os/exec"

	"routinetimer/internal/config"
)

// StartBackgroundDaemon re-executes the current binary as
// `daemon --background`, detached from the terminal.
func StartBackgroundDaemon() error {
	exe, err := os.Executable()
	if err != nil {
		return err
	}

	cmd := exec.Command(exe, "daemon", "--background")
	applyDaemonSysProcAttr(cmd)

	var logWriter io.Writer = io.Discard
	var logFile *os.File
	if logPath, err := config.DaemonLogPath(); err == nil {
		if dataDir, err := config.DataDir(); err == nil && os.MkdirAll(dataDir, 0o700) == nil {
			if file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600); err == nil {
				logWriter = file
				logFile = file
			}
		}
	}
	cmd.Stdout = logWriter
	cmd.Stderr = logWriter

	err = cmd.Start()
	if logFile != nil {
		_ = logFile.Close()
	}
	if err != nil {
		return err
	}
	return cmd.Process.Release()
}
