package planfile

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func startWatcher(t *testing.T, path string) *Watcher {
	t.Helper()
	w, err := NewWatcher(path)
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	if err := w.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(w.Stop)
	return w
}

func TestWatcher_DetectsChange(t *testing.T) {
	path := writeDoc(t, t.TempDir(), towerDoc)
	w := startWatcher(t, path)

	updated := strings.Replace(towerDoc, `name = "Tower A"`, `name = "Tower A (rev 2)"`, 1)
	if err := os.WriteFile(path, []byte(updated), 0o644); err != nil {
		t.Fatalf("update file: %v", err)
	}

	select {
	case change := <-w.Changes:
		if change.Err != nil {
			t.Fatalf("change error: %v", change.Err)
		}
		if change.Doc.Header.Name != "Tower A (rev 2)" {
			t.Errorf("Name = %q, want updated name", change.Doc.Header.Name)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for change event")
	}
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := writeDoc(t, dir, towerDoc)
	w := startWatcher(t, path)

	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("hello"), 0o644); err != nil {
		t.Fatalf("write other file: %v", err)
	}

	select {
	case change := <-w.Changes:
		t.Errorf("unexpected change event: %+v", change)
	case <-time.After(300 * time.Millisecond):
	}
}

func TestWatcher_ReportsRemoval(t *testing.T) {
	path := writeDoc(t, t.TempDir(), towerDoc)
	w := startWatcher(t, path)

	if err := os.Remove(path); err != nil {
		t.Fatalf("remove: %v", err)
	}

	select {
	case change := <-w.Changes:
		if change.Err == nil || change.Doc != nil {
			t.Errorf("change = %+v, want an error and no document", change)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for removal event")
	}
}

func TestWatcher_StopWithUnreadChanges(t *testing.T) {
	path := writeDoc(t, t.TempDir(), towerDoc)
	w, err := NewWatcher(path)
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	if err := w.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	// Fill the buffer so the next reload has nowhere to go.
	for len(w.changes) < cap(w.changes) {
		w.changes <- Change{File: path}
	}
	if err := os.WriteFile(path, []byte(towerDoc), 0o644); err != nil {
		t.Fatalf("rewrite file: %v", err)
	}
	time.Sleep(3 * debounce)

	stopped := make(chan struct{})
	go func() {
		w.Stop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop blocked on a full Changes channel")
	}
}
