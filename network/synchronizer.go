package network

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/automoto/isoroom/actions"
	"github.com/automoto/isoroom/session"
)

// Synchronizer applies snapshots to a session: it spawns characters on first
// sight and hands each snapshot's actions to the executor as one batch.
// Batches from different snapshots are not serialized against each other.
// Batches live as long as the synchronizer's context, not the context of the
// request that delivered the snapshot.
type Synchronizer struct {
	ctx      context.Context
	session  *session.Session
	executor *actions.Executor
	logger   *zap.Logger

	wg sync.WaitGroup
}

// NewSynchronizer creates a Synchronizer whose batches stop when ctx is done.
func NewSynchronizer(ctx context.Context, s *session.Session, x *actions.Executor, logger *zap.Logger) *Synchronizer {
	return &Synchronizer{
		ctx:      ctx,
		session:  s,
		executor: x,
		logger:   logger.Named("sync"),
	}
}

// Apply implements SnapshotHandler. It returns once the batch is started.
// A delivery context that is already done drops the snapshot.
func (y *Synchronizer) Apply(ctx context.Context, snap Snapshot) {
	if ctx.Err() != nil {
		return
	}
	if snap.HasTurn {
		y.session.SetTurn(snap.Turn)
	}

	var batch []actions.Item
	y.session.Do(func(st *session.State) {
		for _, c := range snap.Characters {
			if _, known := st.NPC(c.ID); !known && !c.Hidden() {
				st.EnsureNPC(c.ID, c.Name)
			}
			if c.Action != nil {
				batch = append(batch, actions.Item{ID: c.ID, Action: *c.Action})
			}
		}
	})
	if len(batch) == 0 {
		return
	}

	y.logger.Debug("starting batch", zap.Int("turn", snap.Turn), zap.Int("actions", len(batch)))
	y.wg.Add(1)
	go func() {
		defer y.wg.Done()
		if err := y.executor.RunBatch(y.ctx, batch); err != nil && !errors.Is(err, context.Canceled) {
			y.logger.Warn("batch interrupted", zap.Error(err))
		}
	}()
}

// Wait blocks until every started batch has finished.
func (y *Synchronizer) Wait() {
	y.wg.Wait()
}
