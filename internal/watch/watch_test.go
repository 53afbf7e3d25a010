package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func startWatcher(t *testing.T, debounce time.Duration, paths ...string) <-chan string {
	t.Helper()
	changes := make(chan string, 16)
	w, err := New(debounce, func(path string) { changes <- path })
	if err != nil {
		t.Skip("fsnotify not supported: ", err)
	}
	for _, p := range paths {
		if err := w.Add(p); err != nil {
			t.Fatal(err)
		}
	}
	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = w.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		_ = w.Close()
	})
	return changes
}

func TestWatcherDeliversChange(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "prog.arsc.json")
	if err := os.WriteFile(p, []byte("{}"), 0o644); err != nil {
		t.Fatal(err)
	}

	changes := startWatcher(t, 20*time.Millisecond, p)

	go func() { _ = os.WriteFile(p, []byte(`{"schema_version":"1.0.0"}`), 0o644) }()

	select {
	case got := <-changes:
		if got != p {
			t.Fatalf("changed path = %q, want %q", got, p)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for change callback")
	}
}

func TestWatcherCoalescesBursts(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "prog.arsc.json")
	if err := os.WriteFile(p, []byte("{}"), 0o644); err != nil {
		t.Fatal(err)
	}

	changes := startWatcher(t, 150*time.Millisecond, p)

	for i := 0; i < 5; i++ {
		if err := os.WriteFile(p, []byte("{}"), 0o644); err != nil {
			t.Fatal(err)
		}
		time.Sleep(10 * time.Millisecond)
	}

	select {
	case <-changes:
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for coalesced callback")
	}
	select {
	case <-changes:
		t.Fatal("burst of writes should coalesce into one callback")
	case <-time.After(300 * time.Millisecond):
	}
}

func TestWatcherIgnoresUnwatchedFiles(t *testing.T) {
	dir := t.TempDir()
	watched := filepath.Join(dir, "watched.arsc.json")
	other := filepath.Join(dir, "other.arsc.json")
	for _, p := range []string{watched, other} {
		if err := os.WriteFile(p, []byte("{}"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	changes := startWatcher(t, 20*time.Millisecond, watched)

	if err := os.WriteFile(other, []byte("[]"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case got := <-changes:
		t.Fatalf("unexpected callback for %q", got)
	case <-time.After(300 * time.Millisecond):
	}
}

func TestWatcherSurvivesAtomicReplace(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "prog.arsc.json")
	if err := os.WriteFile(p, []byte("{}"), 0o644); err != nil {
		t.Fatal(err)
	}

	changes := startWatcher(t, 20*time.Millisecond, p)

	tmp := filepath.Join(dir, ".prog.arsc.json.tmp")
	if err := os.WriteFile(tmp, []byte(`{"schema_version":"1.0.0"}`), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Rename(tmp, p); err != nil {
		t.Fatal(err)
	}

	select {
	case got := <-changes:
		if got != p {
			t.Fatalf("changed path = %q, want %q", got, p)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for rename callback")
	}
}
