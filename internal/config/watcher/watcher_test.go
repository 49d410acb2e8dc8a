package watcher

import (
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"
)

func newWatcher(t *testing.T, opts ...Option) *Watcher {
	t.Helper()
	w, err := New(opts...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(w.Stop)
	return w
}

// collect returns a channel receiving the events of w.
func collect(w *Watcher) <-chan Event {
	ch := make(chan Event, 64)
	w.OnChange(func(event Event) {
		select {
		case ch <- event:
		default:
		}
	})
	return ch
}

func waitEvent(t *testing.T, ch <-chan Event) Event {
	t.Helper()
	select {
	case ev := <-ch:
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("did not receive file change event")
		return Event{}
	}
}

func TestNew(t *testing.T) {
	w := newWatcher(t)
	if w.debounce != 100*time.Millisecond {
		t.Errorf("default debounce = %v, want 100ms", w.debounce)
	}

	w = newWatcher(t, WithDebounce(50*time.Millisecond))
	if w.debounce != 50*time.Millisecond {
		t.Errorf("debounce = %v, want 50ms", w.debounce)
	}
}

func TestOperation_String(t *testing.T) {
	tests := []struct {
		op   Operation
		want string
	}{
		{OpWrite, "write"},
		{OpCreate, "create"},
		{OpRemove, "remove"},
		{OpRename, "rename"},
		{Operation(99), "unknown"},
	}

	for _, tt := range tests {
		if got := tt.op.String(); got != tt.want {
			t.Errorf("%d.String() = %q, want %q", tt.op, got, tt.want)
		}
	}
}

func TestWatcher_WatchAndUnwatch(t *testing.T) {
	tmpDir := t.TempDir()
	rc := filepath.Join(tmpDir, "keystrokerc")
	if err := os.WriteFile(rc, []byte("nmap j k\n"), 0644); err != nil {
		t.Fatal(err)
	}

	w := newWatcher(t)
	if err := w.Watch(rc); err != nil {
		t.Errorf("Watch() error = %v", err)
	}
	// A file that does not exist yet is watched for creation.
	if err := w.Watch(filepath.Join(tmpDir, "later.toml")); err != nil {
		t.Errorf("Watch() for non-existent file error = %v", err)
	}
	if err := w.Watch(rc); err != nil {
		t.Errorf("second Watch() error = %v", err)
	}
	if got := len(w.WatchedFiles()); got != 2 {
		t.Errorf("WatchedFiles() = %d files, want 2", got)
	}
	if w.dirs[tmpDir] != 2 {
		t.Errorf("directory users = %d, want 2", w.dirs[tmpDir])
	}

	if err := w.Unwatch(rc); err != nil {
		t.Errorf("Unwatch() error = %v", err)
	}
	if got := len(w.WatchedFiles()); got != 1 {
		t.Errorf("WatchedFiles() = %d files, want 1", got)
	}
}

func TestWatcher_MissingDirectory(t *testing.T) {
	w := newWatcher(t)
	if err := w.Watch(filepath.Join(t.TempDir(), "nope", "keystrokerc")); err == nil {
		t.Error("Watch() in a missing directory should fail")
	}
}

func TestWatcher_StartStop(t *testing.T) {
	w := newWatcher(t)

	if w.IsRunning() {
		t.Error("IsRunning() = true before Start()")
	}
	w.Start()
	w.Start()
	if !w.IsRunning() {
		t.Error("IsRunning() = false after Start()")
	}

	w.Stop()
	w.Stop()
	if w.IsRunning() {
		t.Error("IsRunning() = true after Stop()")
	}
	if err := w.Watch(t.TempDir()); err != ErrStopped {
		t.Errorf("Watch() after Stop() error = %v, want ErrStopped", err)
	}
}

func TestWatcher_DetectsFileModification(t *testing.T) {
	tmpDir := t.TempDir()
	rc := filepath.Join(tmpDir, "keystrokerc")
	if err := os.WriteFile(rc, []byte("initial"), 0644); err != nil {
		t.Fatal(err)
	}

	w := newWatcher(t, WithDebounce(0))
	events := collect(w)
	if err := w.Watch(rc); err != nil {
		t.Fatal(err)
	}
	w.Start()

	if err := os.WriteFile(rc, []byte("modified"), 0644); err != nil {
		t.Fatal(err)
	}

	ev := waitEvent(t, events)
	if ev.Op != OpWrite {
		t.Errorf("event.Op = %v, want write", ev.Op)
	}
	if ev.Path != rc {
		t.Errorf("event.Path = %q, want %q", ev.Path, rc)
	}
}

func TestWatcher_DetectsFileCreation(t *testing.T) {
	tmpDir := t.TempDir()
	rc := filepath.Join(tmpDir, "keystrokerc")

	w := newWatcher(t, WithDebounce(0))
	events := collect(w)
	if err := w.Watch(rc); err != nil {
		t.Fatal(err)
	}
	w.Start()

	if err := os.WriteFile(rc, []byte("created"), 0644); err != nil {
		t.Fatal(err)
	}

	if ev := waitEvent(t, events); ev.Op != OpCreate {
		t.Errorf("event.Op = %v, want create", ev.Op)
	}
}

func TestWatcher_DetectsFileDeletion(t *testing.T) {
	tmpDir := t.TempDir()
	rc := filepath.Join(tmpDir, "keystrokerc")
	if err := os.WriteFile(rc, []byte("initial"), 0644); err != nil {
		t.Fatal(err)
	}

	w := newWatcher(t, WithDebounce(0))
	events := collect(w)
	if err := w.Watch(rc); err != nil {
		t.Fatal(err)
	}
	w.Start()

	if err := os.Remove(rc); err != nil {
		t.Fatal(err)
	}

	if ev := waitEvent(t, events); ev.Op != OpRemove {
		t.Errorf("event.Op = %v, want remove", ev.Op)
	}
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	tmpDir := t.TempDir()
	rc := filepath.Join(tmpDir, "keystrokerc")

	w := newWatcher(t, WithDebounce(0))
	events := collect(w)
	if err := w.Watch(rc); err != nil {
		t.Fatal(err)
	}
	w.Start()

	if err := os.WriteFile(filepath.Join(tmpDir, "notes.txt"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(rc, []byte("nmap j k"), 0644); err != nil {
		t.Fatal(err)
	}

	if ev := waitEvent(t, events); ev.Path != rc {
		t.Errorf("event.Path = %q, want %q", ev.Path, rc)
	}
}

func TestWatcher_KeymapDirectory(t *testing.T) {
	keymaps := filepath.Join(t.TempDir(), "keymaps")
	if err := os.Mkdir(keymaps, 0755); err != nil {
		t.Fatal(err)
	}

	w := newWatcher(t, WithDebounce(0))
	events := collect(w)
	if err := w.Watch(keymaps); err != nil {
		t.Fatal(err)
	}
	w.Start()

	if err := os.WriteFile(filepath.Join(keymaps, "README"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	yml := filepath.Join(keymaps, "extra.yaml")
	if err := os.WriteFile(yml, []byte("mappings: []\n"), 0644); err != nil {
		t.Fatal(err)
	}

	if ev := waitEvent(t, events); ev.Path != yml {
		t.Errorf("event.Path = %q, want %q", ev.Path, yml)
	}
}

func TestWatcher_Debounce(t *testing.T) {
	tmpDir := t.TempDir()
	rc := filepath.Join(tmpDir, "keystrokerc")
	if err := os.WriteFile(rc, []byte("initial"), 0644); err != nil {
		t.Fatal(err)
	}

	w := newWatcher(t, WithDebounce(100*time.Millisecond))
	var count atomic.Int32
	w.OnChange(func(Event) { count.Add(1) })
	if err := w.Watch(rc); err != nil {
		t.Fatal(err)
	}
	w.Start()

	for i := 0; i < 5; i++ {
		if err := os.WriteFile(rc, []byte("modified"), 0644); err != nil {
			t.Fatal(err)
		}
		time.Sleep(10 * time.Millisecond)
	}

	deadline := time.Now().Add(2 * time.Second)
	for count.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(20 * time.Millisecond)
	}
	time.Sleep(300 * time.Millisecond)

	// One debounced event, or two at a tick boundary.
	if n := count.Load(); n < 1 || n > 2 {
		t.Errorf("received %d events, expected 1-2 (debounced)", n)
	}
}

func TestQueueEventCoalesces(t *testing.T) {
	w := newWatcher(t)
	now := time.Now()

	w.queueEvent(Event{Path: "/a", Op: OpCreate, Time: now})
	w.queueEvent(Event{Path: "/a", Op: OpWrite, Time: now})
	w.queueEvent(Event{Path: "/b", Op: OpWrite, Time: now})
	w.queueEvent(Event{Path: "/b", Op: OpRemove, Time: now})

	if op := w.pendingFiles["/a"].Op; op != OpCreate {
		t.Errorf("/a op = %v, want create", op)
	}
	if op := w.pendingFiles["/b"].Op; op != OpRemove {
		t.Errorf("/b op = %v, want remove", op)
	}
}

func TestSafeCallHandlerRecovers(t *testing.T) {
	w := newWatcher(t)
	var called atomic.Bool
	w.OnChange(func(Event) { panic("boom") })
	w.OnChange(func(Event) { called.Store(true) })

	w.emitEvent(Event{Path: "/x"})
	if !called.Load() {
		t.Error("handler after a panicking one was not called")
	}
}
