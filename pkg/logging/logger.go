// Package logging manages the per-run debug log files under the pwkit
// log directory. Scraping runs are long and flaky, so commands append a
// copy of their log stream to ~/.pwkit/logs/<session-id>-pwkit.log where
// it survives the run and can be read back when an interception
// misbehaved.
//
// Every logger in one process shares the same session ID and therefore
// the same file.
package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
)

var (
	// Global session ID for the current execution
	sessionID     string
	sessionIDOnce sync.Once

	// logDir is the directory where log files are stored
	logDir string

	// initOnce ensures directory initialization happens once
	initOnce sync.Once

	// initErr stores any error from directory initialization
	initErr error
)

// SessionID returns the ID shared by all log files of this execution.
func SessionID() string {
	sessionIDOnce.Do(func() {
		sessionID = uuid.New().String()
	})
	return sessionID
}

// Dir returns the pwkit log directory, creating it on first use.
func Dir() (string, error) {
	initOnce.Do(func() {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			initErr = fmt.Errorf("failed to get home directory: %w", err)
			return
		}

		logDir = filepath.Join(homeDir, ".pwkit", "logs")
		if err := os.MkdirAll(logDir, 0750); err != nil {
			initErr = fmt.Errorf("failed to create log directory: %w", err)
			return
		}
	})
	return logDir, initErr
}

// SessionFile returns the path of this run's log file inside Dir. The
// file itself is created by the first logger that writes to it, in
// append mode, so several commands of one run share it.
func SessionFile() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, fmt.Sprintf("%s-pwkit.log", SessionID())), nil
}
