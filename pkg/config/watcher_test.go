package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// TestWatcher_DeliversReload tests that rewriting the file produces a reload
// with the new values.
func TestWatcher_DeliversReload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("store:\n  enabled: true\n"), 0o644); err != nil {
		t.Fatalf("WriteFile() failed: %v", err)
	}

	reloads := make(chan *Config, 4)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	w := NewWatcher(path)
	done := make(chan error, 1)
	go func() {
		done <- w.Watch(ctx, func(cfg *Config) { reloads <- cfg })
	}()

	// Give the watcher a moment to register before writing.
	time.Sleep(100 * time.Millisecond)

	if err := os.WriteFile(path, []byte("store:\n  enabled: false\n  max_entries: 42\n"), 0o644); err != nil {
		t.Fatalf("rewrite failed: %v", err)
	}

	select {
	case cfg := <-reloads:
		if cfg.Store.IsEnabled() {
			t.Error("reload did not pick up enabled: false")
		}
		if cfg.Store.MaxEntries != 42 {
			t.Errorf("MaxEntries = %d, want 42", cfg.Store.MaxEntries)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no reload delivered")
	}

	cancel()
	if err := <-done; err != nil {
		t.Errorf("Watch() returned %v", err)
	}
}

// TestWatcher_KeepsPreviousOnBadReload tests that an invalid rewrite is
// dropped instead of delivered.
func TestWatcher_KeepsPreviousOnBadReload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("store:\n  enabled: true\n"), 0o644); err != nil {
		t.Fatalf("WriteFile() failed: %v", err)
	}

	reloads := make(chan *Config, 4)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	w := NewWatcher(path)
	go func() { w.Watch(ctx, func(cfg *Config) { reloads <- cfg }) }()

	time.Sleep(100 * time.Millisecond)

	if err := os.WriteFile(path, []byte("store:\n  max_entries: -10\n"), 0o644); err != nil {
		t.Fatalf("rewrite failed: %v", err)
	}

	select {
	case cfg := <-reloads:
		t.Errorf("invalid configuration delivered: %+v", cfg)
	case <-time.After(500 * time.Millisecond):
	}
}
