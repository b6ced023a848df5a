package logging

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

// setupTestDir points the package at a temporary log directory and resets
// the session state, restoring everything afterwards.
func setupTestDir(t *testing.T) {
	t.Helper()

	tempDir := t.TempDir()

	origLogDir := logDir
	origInitErr := initErr
	origInitOnce := initOnce
	origSessionID := sessionID
	origSessionIDOnce := sessionIDOnce

	logDir = tempDir
	initErr = nil
	initOnce = sync.Once{}
	initOnce.Do(func() {}) // mark initialized so Dir keeps the override
	sessionID = ""
	sessionIDOnce = sync.Once{}

	t.Cleanup(func() {
		logDir = origLogDir
		initErr = origInitErr
		initOnce = origInitOnce
		sessionID = origSessionID
		sessionIDOnce = origSessionIDOnce
	})
}

func TestSessionIDStable(t *testing.T) {
	setupTestDir(t)

	id1 := SessionID()
	id2 := SessionID()

	if id1 == "" {
		t.Error("Expected non-empty session ID")
	}
	if id1 != id2 {
		t.Errorf("Expected consistent session ID, got %q and %q", id1, id2)
	}
	if !strings.Contains(id1, "-") {
		t.Errorf("Expected UUID-shaped session ID, got %q", id1)
	}
}

func TestDir(t *testing.T) {
	setupTestDir(t)

	dir, err := Dir()
	if err != nil {
		t.Fatalf("Failed to get log directory: %v", err)
	}

	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		t.Errorf("Log directory does not exist or is not a directory: %s", dir)
	}
}

func TestSessionFileName(t *testing.T) {
	setupTestDir(t)

	path, err := SessionFile()
	if err != nil {
		t.Fatalf("Failed to get session file: %v", err)
	}

	fileName := filepath.Base(path)
	if !strings.HasSuffix(fileName, "-pwkit.log") {
		t.Errorf("Expected log file to end with '-pwkit.log', got %q", fileName)
	}
	if !strings.HasPrefix(fileName, SessionID()) {
		t.Errorf("Expected log file to start with the session ID, got %q", fileName)
	}

	dir, _ := Dir()
	if filepath.Dir(path) != dir {
		t.Errorf("Expected session file inside %s, got %s", dir, path)
	}
}

func TestSessionFileStable(t *testing.T) {
	setupTestDir(t)

	path1, err := SessionFile()
	if err != nil {
		t.Fatalf("First SessionFile failed: %v", err)
	}
	path2, err := SessionFile()
	if err != nil {
		t.Fatalf("Second SessionFile failed: %v", err)
	}

	if path1 != path2 {
		t.Errorf("Expected same session file, got %q and %q", path1, path2)
	}
}
