package debounce

import (
	"sync"
	"testing"
	"time"
)

// recorder collects committed values.
type recorder struct {
	mu     sync.Mutex
	values []string
	notify chan struct{}
}

func newRecorder() *recorder {
	return &recorder{notify: make(chan struct{}, 16)}
}

func (r *recorder) commit(value string) {
	r.mu.Lock()
	r.values = append(r.values, value)
	r.mu.Unlock()
	r.notify <- struct{}{}
}

func (r *recorder) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.values...)
}

func (r *recorder) waitForCommit(t *testing.T) {
	t.Helper()
	select {
	case <-r.notify:
	case <-time.After(2 * time.Second):
		t.Fatal("Timed out waiting for commit")
	}
}

func TestScheduleCommitsAfterDelay(t *testing.T) {
	rec := newRecorder()
	d := New(10*time.Millisecond, rec.commit)
	defer d.Stop()

	d.Schedule("hello")
	rec.waitForCommit(t)

	got := rec.snapshot()
	if len(got) != 1 || got[0] != "hello" {
		t.Errorf("Committed values = %v, want [hello]", got)
	}
}

func TestRapidSchedulesCommitOnlyLast(t *testing.T) {
	rec := newRecorder()
	d := New(50*time.Millisecond, rec.commit)
	defer d.Stop()

	// Simulates typing: each keystroke resets the window.
	d.Schedule("1")
	d.Schedule("12")
	d.Schedule("123")
	d.Schedule("1234")

	rec.waitForCommit(t)

	// Allow any unexpected extra commits to land.
	time.Sleep(100 * time.Millisecond)

	got := rec.snapshot()
	if len(got) != 1 {
		t.Fatalf("Expected exactly 1 commit, got %d: %v", len(got), got)
	}
	if got[0] != "1234" {
		t.Errorf("Committed value = %q, want %q", got[0], "1234")
	}
}

func TestStopDiscardsPending(t *testing.T) {
	rec := newRecorder()
	d := New(50*time.Millisecond, rec.commit)

	d.Schedule("pending")
	d.Stop()

	time.Sleep(100 * time.Millisecond)

	if got := rec.snapshot(); len(got) != 0 {
		t.Errorf("Expected no commits after Stop, got %v", got)
	}
}

func TestScheduleAfterStopIsIgnored(t *testing.T) {
	rec := newRecorder()
	d := New(10*time.Millisecond, rec.commit)

	d.Stop()
	d.Schedule("late")

	time.Sleep(50 * time.Millisecond)

	if got := rec.snapshot(); len(got) != 0 {
		t.Errorf("Expected no commits after Stop, got %v", got)
	}
}

func TestSeparateWindowsCommitSeparately(t *testing.T) {
	rec := newRecorder()
	d := New(10*time.Millisecond, rec.commit)
	defer d.Stop()

	d.Schedule("first")
	rec.waitForCommit(t)

	d.Schedule("second")
	rec.waitForCommit(t)

	got := rec.snapshot()
	if len(got) != 2 || got[0] != "first" || got[1] != "second" {
		t.Errorf("Committed values = %v, want [first second]", got)
	}
}
