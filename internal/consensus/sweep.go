package consensus

import (
	"context"
	"time"

	"github.com/hive-mind/coordinator/internal/types"
)

// consensusSweepInterval runs four times as often as memory.RunSweeps'
// 60-second expiry sweep: frequent enough that a proposal's deadline
// doesn't sit decided only in principle for long after it passes.
const consensusSweepInterval = 15 * time.Second

// RunSweeps closes every open proposal past its deadline, for every swarm
// id swarmIDs returns, on a fixed tick. It blocks until ctx is cancelled,
// so callers should run it in its own goroutine the way Coordinator runs
// memory.RunSweeps and scheduler.Run. Nothing else in the system turns an
// expired proposal into a decision or timeout: without this, CloseIfExpired
// only ever fires from a caller explicitly polling a single proposal.
func (e *Engine) RunSweeps(ctx context.Context, swarmIDs func() []string) {
	ticker := time.NewTicker(consensusSweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.sweepExpired(swarmIDs())
		}
	}
}

func (e *Engine) sweepExpired(ids []string) {
	now := time.Now()
	for _, id := range ids {
		proposals, err := e.store.ListProposals(id)
		if err != nil {
			e.log.WithError(err).WithField("swarm_id", id).Warn("consensus sweep: list proposals failed")
			continue
		}
		for _, p := range proposals {
			if p.Status != types.ProposalOpen {
				continue
			}
			if _, err := e.CloseIfExpired(p.ID, now); err != nil {
				e.log.WithError(err).WithField("proposal_id", p.ID).Warn("consensus sweep: close expired failed")
			}
		}
	}
}
