package store

import (
	"context"
)

// SyncBalance asks the backend to recompute the balance. The status moves
// idle → syncing → success|error and returns to idle SyncResetDelay later.
// On success the report of the active filter is fetched again. A second call
// while a sync is running is rejected.
func (s *Store) SyncBalance(ctx context.Context) SyncResult {
	s.mu.Lock()

	if s.state.SyncStatus == SyncSyncing {
		s.mu.Unlock()
		return SyncResult{Message: msgSyncInProgress}
	}

	s.state.SyncStatus = SyncSyncing

	if s.resetTimer != nil {
		s.resetTimer.Stop()
		s.resetTimer = nil
	}

	s.mu.Unlock()
	s.notify()

	b, err := s.api.SyncBalance(ctx)
	if err != nil {
		msg := messageOr(err, msgSyncFailed)
		s.logger.Warn("syncing balance failed", "error", err)

		s.finishSync(SyncError, func(st *State) { st.BalanceError = msg })

		return SyncResult{Message: msg}
	}

	s.finishSync(SyncSuccess, func(st *State) {
		if b != nil {
			s.commitBalance(st, *b)
		}
	})

	if b == nil {
		s.FetchBalance(ctx)
	}

	f := s.Snapshot().Filter
	s.FetchReport(ctx, f.Range, f.Date)

	return SyncResult{Success: true, Message: msgSyncSucceeded}
}

func (s *Store) finishSync(status SyncStatus, apply func(*State)) {
	s.mu.Lock()

	s.state.SyncStatus = status
	apply(&s.state)

	if !s.closed {
		s.resetTimer = s.clock.AfterFunc(SyncResetDelay, s.resetSync)
	}

	s.mu.Unlock()
	s.notify()
}

func (s *Store) resetSync() {
	s.mu.Lock()

	if s.closed || s.state.SyncStatus == SyncSyncing {
		s.mu.Unlock()
		return
	}

	s.state.SyncStatus = SyncIdle
	s.resetTimer = nil
	s.mu.Unlock()

	s.notify()
}
