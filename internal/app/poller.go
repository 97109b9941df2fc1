package app

import (
	"context"
	"time"

	"github.com/SCuellar21/picard/internal/state"
	"github.com/SCuellar21/picard/internal/webservice"
)

const defaultPollInterval = time.Second

// snapshotter is the slice of the transport the poller reads.
type snapshotter interface {
	Snapshot() []webservice.RequestInfo
}

// StartPoller launches a background goroutine that copies the transport's
// request list into the store at a fixed cadence. It returns immediately.
func StartPoller(ctx context.Context, store *state.Store, source snapshotter, interval time.Duration) {
	if interval <= 0 {
		interval = defaultPollInterval
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			refresh(store, source)
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()
}

func refresh(store *state.Store, source snapshotter) {
	store.Update(source.Snapshot())
}
