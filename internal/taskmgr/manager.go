// Package taskmgr runs migration tasks with concurrency bounded to a fixed
// number of workers: submit a descriptor, and a goroutine migrates it once a
// worker slot is free and resubmits whatever children it produces, until no
// task is outstanding anywhere in the tree.
package taskmgr

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/mikejritter/fcrepo-upgrade-utils/internal/migrate"
)

// shutdownGrace bounds how long Shutdown waits for in-flight tasks to
// drain. Tasks still running when it elapses are not stopped.
const shutdownGrace = 60 * time.Second

// Manager owns a worker pool sized to threads, tracks the number of tasks
// still outstanding anywhere in the submission tree, and provides
// submit/await-completion/shutdown semantics for the migrator.
type Manager struct {
	migrator *migrate.Migrator
	logger   *slog.Logger

	sem *semaphore.Weighted

	mu          sync.Mutex
	cond        *sync.Cond
	outstanding int
	shutdown    bool
}

// New builds a Manager that runs tasks against migrator on up to threads
// concurrent workers.
func New(migrator *migrate.Migrator, threads int, logger *slog.Logger) *Manager {
	m := &Manager{
		migrator: migrator,
		logger:   logger,
		sem:      semaphore.NewWeighted(int64(threads)),
	}
	m.cond = sync.NewCond(&m.mu)
	return m
}

// Submit atomically increments the outstanding-task count and enqueues d
// for migration on a worker goroutine. It returns an error rather than
// accepting work once Shutdown has been called.
func (m *Manager) Submit(d *migrate.Descriptor) error {
	m.mu.Lock()
	if m.shutdown {
		m.mu.Unlock()
		return fmt.Errorf("taskmgr: rejected %s: manager is shutting down", d.FullID)
	}
	m.outstanding++
	m.mu.Unlock()

	go m.run(d)
	return nil
}

func (m *Manager) run(d *migrate.Descriptor) {
	defer m.taskDone()

	if err := m.sem.Acquire(context.Background(), 1); err != nil {
		m.logger.Error("failed to acquire worker slot", "descriptor", d.FullID, "err", err)
		return
	}
	defer m.sem.Release(1)

	migrate.RunTask(context.Background(), m.migrator, m, d, m.logger)
}

func (m *Manager) taskDone() {
	m.mu.Lock()
	m.outstanding--
	if m.outstanding == 0 {
		m.cond.Broadcast()
	}
	m.mu.Unlock()
}

// AwaitCompletion blocks until no task is outstanding. It does not prevent
// further submissions: a caller may re-enter after new work has been
// submitted by a task that was running when AwaitCompletion returned.
func (m *Manager) AwaitCompletion() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for m.outstanding > 0 {
		m.cond.Wait()
	}
}

// Shutdown stops accepting new submissions, waits up to shutdownGrace for
// in-flight tasks to drain, then returns regardless, and finally closes the
// migrator's OCFL session factory.
func (m *Manager) Shutdown() error {
	m.mu.Lock()
	m.shutdown = true
	m.mu.Unlock()

	done := make(chan struct{})
	go func() {
		m.AwaitCompletion()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(shutdownGrace):
		m.logger.Warn("shutdown grace period elapsed with tasks still outstanding")
	}

	return m.migrator.Close()
}
