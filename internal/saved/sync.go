// Package saved keeps the locally persisted saved items in step with user
// actions. Writes run on a dedicated worker goroutine.
package saved

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/mmcdole/arcade/internal/domain"
)

const queueSize = 64

// Sync serializes saved-item reads and writes onto one worker.
type Sync struct {
	store  domain.SavedStore
	logger *slog.Logger
	now    func() time.Time

	jobs      chan func()
	done      chan struct{}
	exited    chan struct{}
	closeOnce sync.Once

	mu      sync.Mutex
	marks   map[int]bool // Optimistic saved state, by id
	lastErr error
	errs    chan error
}

// NewSync starts the worker. Call Close to stop it.
func NewSync(store domain.SavedStore, logger *slog.Logger) *Sync {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Sync{
		store:  store,
		logger: logger,
		now:    time.Now,
		jobs:   make(chan func(), queueSize),
		done:   make(chan struct{}),
		exited: make(chan struct{}),
		marks:  make(map[int]bool),
		errs:   make(chan error, 1),
	}
	go s.run()
	return s
}

func (s *Sync) run() {
	defer close(s.exited)
	for {
		select {
		case job := <-s.jobs:
			job()
		case <-s.done:
			// Finish writes that were already accepted.
			for {
				select {
				case job := <-s.jobs:
					job()
				default:
					return
				}
			}
		}
	}
}

// Close stops accepting work, finishes queued writes and waits for the worker.
func (s *Sync) Close() {
	s.closeOnce.Do(func() { close(s.done) })
	<-s.exited
}

// submit queues fn and waits for its result. If ctx ends first the caller
// stops waiting but fn still runs.
func (s *Sync) submit(ctx context.Context, fn func() error) error {
	select {
	case <-s.done:
		return domain.ErrClosed
	default:
	}

	res := make(chan error, 1)
	job := func() { res <- fn() }

	select {
	case s.jobs <- job:
	case <-s.done:
		return domain.ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-res:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// write runs a mutation and reports its failure even if nobody is waiting.
func (s *Sync) write(ctx context.Context, op string, id int, fn func() error) error {
	return s.submit(ctx, func() error {
		err := fn()
		if err != nil {
			s.logger.Error("saved item write failed", "op", op, "itemID", id, "error", err)
			s.report(err)
		}
		return err
	})
}

// Save stores a snapshot of item.
func (s *Sync) Save(ctx context.Context, item domain.CatalogItem) error {
	s.setMark(item.ID, true)
	snapshot := item.Snapshot(s.now())
	return s.write(ctx, "save", item.ID, func() error {
		return s.store.Upsert(snapshot)
	})
}

// Remove deletes a saved item. Missing ids are fine.
func (s *Sync) Remove(ctx context.Context, id int) error {
	s.setMark(id, false)
	return s.write(ctx, "remove", id, func() error {
		return s.store.DeleteByID(id)
	})
}

// Contains reports whether id is persisted, after every earlier write.
func (s *Sync) Contains(ctx context.Context, id int) (bool, error) {
	var found bool
	err := s.submit(ctx, func() error {
		var err error
		found, err = s.store.Exists(id)
		return err
	})
	if err != nil {
		return false, err
	}
	return found, nil
}

// ListAll streams the saved list ordered by name until ctx ends.
func (s *Sync) ListAll(ctx context.Context) <-chan []domain.SavedItem {
	return s.store.ObserveAll(ctx)
}

// Toggle flips the saved state of item and returns the new state. The new
// state is visible through IsMarked before the write lands and stays even if
// the write fails; the failure is reported through Err and Errors.
func (s *Sync) Toggle(ctx context.Context, item domain.CatalogItem) (bool, error) {
	marked, known := s.IsMarked(item.ID)
	if !known {
		var err error
		if marked, err = s.Contains(ctx, item.ID); err != nil {
			return false, err
		}
	}

	want := !marked
	s.setMark(item.ID, want)

	if want {
		snapshot := item.Snapshot(s.now())
		return want, s.write(ctx, "save", item.ID, func() error {
			return s.store.Upsert(snapshot)
		})
	}
	return want, s.write(ctx, "remove", item.ID, func() error {
		return s.store.DeleteByID(item.ID)
	})
}

// Clear removes every saved item.
func (s *Sync) Clear(ctx context.Context) error {
	s.mu.Lock()
	clear(s.marks)
	s.mu.Unlock()

	return s.write(ctx, "clear", 0, s.store.DeleteAll)
}

// IsMarked returns the optimistic saved state for id. known is false until
// the id has been saved, removed or toggled through this Sync.
func (s *Sync) IsMarked(id int) (marked, known bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	marked, known = s.marks[id]
	return marked, known
}

func (s *Sync) setMark(id int, saved bool) {
	s.mu.Lock()
	s.marks[id] = saved
	s.mu.Unlock()
}

// Err returns the last write failure, or nil once dismissed.
func (s *Sync) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// DismissErr clears the error returned by Err.
func (s *Sync) DismissErr() {
	s.mu.Lock()
	s.lastErr = nil
	s.mu.Unlock()
}

// Errors delivers write failures. Only the most recent unread one is kept.
func (s *Sync) Errors() <-chan error {
	return s.errs
}

func (s *Sync) report(err error) {
	s.mu.Lock()
	s.lastErr = err
	s.mu.Unlock()

	select {
	case s.errs <- err:
	default:
		select {
		case <-s.errs:
		default:
		}
		select {
		case s.errs <- err:
		default:
		}
	}
}
