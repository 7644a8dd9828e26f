package webstory

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
)

type saveRecorder struct {
	mu    sync.Mutex
	saved []Story
	err   error
	done  chan struct{}
}

func newSaveRecorder() *saveRecorder {
	return &saveRecorder{done: make(chan struct{}, 16)}
}

func (r *saveRecorder) save(ctx context.Context, st Story) error {
	r.mu.Lock()
	r.saved = append(r.saved, st)
	err := r.err
	r.mu.Unlock()
	r.done <- struct{}{}
	return err
}

func (r *saveRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.saved)
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func waitSave(t *testing.T, r *saveRecorder) {
	t.Helper()
	select {
	case <-r.done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for auto-save")
	}
}

func TestAutoSaverDebouncesChanges(t *testing.T) {
	rec := newSaveRecorder()
	s := NewAutoSaver(50*time.Millisecond, rec.save, quietLogger())
	defer s.Close()

	for i, title := range []string{"a", "ab", "abc"} {
		if !s.Schedule(Story{ID: "s1", Title: title, Status: StatusDraft}) {
			t.Fatalf("schedule %d rejected", i)
		}
		time.Sleep(10 * time.Millisecond)
	}
	waitSave(t, rec)
	time.Sleep(80 * time.Millisecond)

	if n := rec.count(); n != 1 {
		t.Fatalf("expected 1 save, got %d", n)
	}
	if got := rec.saved[0].Title; got != "abc" {
		t.Errorf("saved title = %q, want latest snapshot %q", got, "abc")
	}
	if s.Pending("s1") {
		t.Error("expected no pending save after firing")
	}
}

func TestAutoSaverSkipsNewAndPublishedStories(t *testing.T) {
	rec := newSaveRecorder()
	s := NewAutoSaver(10*time.Millisecond, rec.save, quietLogger())
	defer s.Close()

	if s.Schedule(Story{Title: "new", Status: StatusDraft}) {
		t.Error("expected unsaved story to be skipped")
	}
	if s.Schedule(Story{ID: "s2", Status: StatusPublished}) {
		t.Error("expected published story to be skipped")
	}
	time.Sleep(40 * time.Millisecond)
	if n := rec.count(); n != 0 {
		t.Fatalf("expected no saves, got %d", n)
	}
}

func TestAutoSaverCancel(t *testing.T) {
	rec := newSaveRecorder()
	s := NewAutoSaver(30*time.Millisecond, rec.save, quietLogger())
	defer s.Close()

	s.Schedule(Story{ID: "s3", Status: StatusDraft})
	if !s.Pending("s3") {
		t.Fatal("expected pending save")
	}
	s.Cancel("s3")
	time.Sleep(60 * time.Millisecond)
	if n := rec.count(); n != 0 {
		t.Fatalf("expected cancelled save not to run, got %d", n)
	}
}

func TestAutoSaverCloseDropsPendingAndRejectsNew(t *testing.T) {
	rec := newSaveRecorder()
	s := NewAutoSaver(30*time.Millisecond, rec.save, quietLogger())

	s.Schedule(Story{ID: "s4", Status: StatusDraft})
	s.Close()
	if s.Schedule(Story{ID: "s4", Status: StatusDraft}) {
		t.Error("expected schedule after close to be rejected")
	}
	time.Sleep(60 * time.Millisecond)
	if n := rec.count(); n != 0 {
		t.Fatalf("expected no saves after close, got %d", n)
	}
}

func TestAutoSaverReportsFailures(t *testing.T) {
	rec := newSaveRecorder()
	rec.err = errors.New("disk full")
	s := NewAutoSaver(10*time.Millisecond, rec.save, quietLogger())
	defer s.Close()

	results := make(chan string, 1)
	s.OnResult = func(r string) { results <- r }
	s.Schedule(Story{ID: "s5", Status: StatusDraft})
	waitSave(t, rec)
	select {
	case r := <-results:
		if r != "error" {
			t.Errorf("result = %q, want error", r)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for result")
	}
	time.Sleep(40 * time.Millisecond)
	if n := rec.count(); n != 1 {
		t.Errorf("expected exactly one attempt without retry, got %d", n)
	}
}
