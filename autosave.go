package webstory

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// SaveFunc persists a story snapshot.
type SaveFunc func(ctx context.Context, st Story) error

// AutoSaver debounces draft saves: each story being edited has at most one
// pending save, and every new change pushes it back by the delay. Pending
// saves are dropped on Cancel and on Close. Failed saves are logged and
// not retried.
type AutoSaver struct {
	mu     sync.Mutex
	delay  time.Duration
	save   SaveFunc
	logger *logrus.Logger
	tasks  map[string]*autosaveTask
	closed bool
	wg     sync.WaitGroup

	ctx    context.Context
	cancel context.CancelFunc

	// OnResult is called with "ok" or "error" after each attempted save.
	OnResult func(result string)
}

type autosaveTask struct {
	timer *time.Timer
	story Story
	gen   uint64
}

// NewAutoSaver creates an AutoSaver that calls save delay after the last
// change of a story.
func NewAutoSaver(delay time.Duration, save SaveFunc, logger *logrus.Logger) *AutoSaver {
	ctx, cancel := context.WithCancel(context.Background())
	return &AutoSaver{
		delay:  delay,
		save:   save,
		logger: logger,
		tasks:  make(map[string]*autosaveTask),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Schedule queues st for saving, replacing any pending snapshot of the same
// story. Only existing drafts are auto-saved; it reports whether st was
// queued.
func (s *AutoSaver) Schedule(st Story) bool {
	if st.ID == "" || st.Status != StatusDraft {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	task, ok := s.tasks[st.ID]
	if !ok {
		task = &autosaveTask{}
		s.tasks[st.ID] = task
	} else if task.timer != nil {
		task.timer.Stop()
	}
	task.gen++
	task.story = st
	gen, id := task.gen, st.ID
	task.timer = time.AfterFunc(s.delay, func() { s.fire(id, gen) })
	return true
}

// Cancel drops the pending save of a story, if any.
func (s *AutoSaver) Cancel(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if task, ok := s.tasks[id]; ok {
		task.timer.Stop()
		delete(s.tasks, id)
	}
}

// Pending reports whether a save is queued for the story.
func (s *AutoSaver) Pending(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.tasks[id]
	return ok
}

// Close drops every pending save, cancels in-flight saves and waits for
// them to return.
func (s *AutoSaver) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	for id, task := range s.tasks {
		task.timer.Stop()
		delete(s.tasks, id)
	}
	s.mu.Unlock()
	s.cancel()
	s.wg.Wait()
}

func (s *AutoSaver) fire(id string, gen uint64) {
	s.mu.Lock()
	task, ok := s.tasks[id]
	if !ok || task.gen != gen || s.closed {
		s.mu.Unlock()
		return
	}
	delete(s.tasks, id)
	st := task.story
	s.wg.Add(1)
	s.mu.Unlock()
	defer s.wg.Done()

	result := "ok"
	if err := s.save(s.ctx, st); err != nil {
		result = "error"
		s.logger.WithFields(logrus.Fields{"story_id": id}).WithError(err).Error("auto-saving draft")
	} else {
		s.logger.WithFields(logrus.Fields{"story_id": id}).Debug("draft auto-saved")
	}
	if s.OnResult != nil {
		s.OnResult(result)
	}
}
