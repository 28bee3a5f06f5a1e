package migrate

import (
	"context"
	"log/slog"
)

// Submitter enqueues a descriptor onto a worker pool for further migration.
// internal/taskmgr.Manager implements this; the narrow interface keeps this
// package independent of the pool's own concurrency machinery.
type Submitter interface {
	Submit(d *Descriptor) error
}

// RunTask performs one unit of work for the task manager: migrate d, then
// submit each child descriptor it produces back onto sub for its own task.
// Migrate itself logs and classifies its own failures (rollback vs.
// log-and-skip); RunTask only needs to fan its children back out. A
// descriptor rejected by Submit (e.g. after shutdown has begun) is logged
// and does not abort the remaining children.
func RunTask(ctx context.Context, m *Migrator, sub Submitter, d *Descriptor, logger *slog.Logger) {
	children, err := m.Migrate(ctx, d)
	if err != nil {
		return
	}

	for _, child := range children {
		if err := sub.Submit(child); err != nil {
			logger.Error("rejected child submission", "parent", d.FullID, "child", child.FullID, "err", err)
		}
	}
}
