package cliconfig

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	logAdapter "github.com/bft-labs/gesturebridge/internal/adapters/log"
)

func TestWatcher_ReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte(`tick_interval = "5ms"`), 0o644); err != nil {
		t.Fatal(err)
	}

	got := make(chan FileConfig, 4)
	w := NewWatcher(path, logAdapter.NewNoopLogger(), func(fc FileConfig) { got <- fc })
	w.delay = 10 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	defer func() {
		cancel()
		if err := <-done; err != nil {
			t.Errorf("Run() error = %v", err)
		}
	}()

	// The watch is added asynchronously; keep rewriting until an event lands.
	deadline := time.After(3 * time.Second)
	tick := time.NewTicker(50 * time.Millisecond)
	defer tick.Stop()
	for {
		select {
		case fc := <-got:
			if fc.TickInterval != "20ms" {
				t.Fatalf("reloaded TickInterval = %q, want 20ms", fc.TickInterval)
			}
			return
		case <-tick.C:
			if err := os.WriteFile(path, []byte(`tick_interval = "20ms"`), 0o644); err != nil {
				t.Fatal(err)
			}
		case <-deadline:
			t.Fatal("timed out waiting for reload")
		}
	}
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte(`tick_interval = "5ms"`), 0o644); err != nil {
		t.Fatal(err)
	}

	got := make(chan FileConfig, 1)
	w := NewWatcher(path, logAdapter.NewNoopLogger(), func(fc FileConfig) { got <- fc })
	w.delay = 5 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	if err := os.WriteFile(filepath.Join(dir, "other.toml"), []byte("x = 1"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case <-got:
		t.Error("reload triggered by another file")
	case <-time.After(200 * time.Millisecond):
	}
	cancel()
	if err := <-done; err != nil {
		t.Errorf("Run() error = %v", err)
	}
}

func TestWatcher_MissingDirectory(t *testing.T) {
	w := NewWatcher(filepath.Join(t.TempDir(), "nope", "config.toml"), logAdapter.NewNoopLogger(), func(FileConfig) {})
	if err := w.Run(context.Background()); err == nil {
		t.Error("Run() error = nil for missing directory")
	}
}

func TestReloadTickInterval(t *testing.T) {
	tests := []struct {
		name    string
		fc      FileConfig
		pinned  map[string]bool
		want    time.Duration
		wantOK  bool
		wantErr bool
	}{
		{"set", FileConfig{TickInterval: "20ms"}, nil, 20 * time.Millisecond, true, false},
		{"unset", FileConfig{}, nil, 0, false, false},
		{"pinned", FileConfig{TickInterval: "20ms"}, map[string]bool{"tick": true}, 0, false, false},
		{"invalid", FileConfig{TickInterval: "soon"}, nil, 0, false, true},
		{"negative", FileConfig{TickInterval: "-1s"}, nil, 0, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, ok, err := ReloadTickInterval(tt.fc, tt.pinned)
			if (err != nil) != tt.wantErr {
				t.Fatalf("error = %v, wantErr %v", err, tt.wantErr)
			}
			if d != tt.want || ok != tt.wantOK {
				t.Errorf("ReloadTickInterval() = (%v, %v), want (%v, %v)", d, ok, tt.want, tt.wantOK)
			}
		})
	}
}
