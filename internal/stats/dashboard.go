package stats

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"
)

// Source fetches dashboard data from the backend.
type Source interface {
	DashboardStats(ctx context.Context) (*DashboardStats, error)
	SystemInfo(ctx context.Context) (*SystemInfo, error)
}

// Dashboard is everything the dashboard page shows.
type Dashboard struct {
	Snapshot Snapshot   `json:"snapshot"`
	System   SystemInfo `json:"system"`
}

// Load fetches statistics and system info concurrently. A live snapshot received
// after the fetch replaces the fetched statistics.
func Load(ctx context.Context, src Source, live *Live) (*Dashboard, error) {
	var (
		ds   *DashboardStats
		info *SystemInfo
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error
		ds, err = src.DashboardStats(gctx)

		return err
	})

	g.Go(func() error {
		var err error
		info, err = src.SystemInfo(gctx)

		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := &Dashboard{
		Snapshot: Snapshot{Stats: *ds, ReceivedAt: time.Now()},
		System:   *info,
	}

	if live != nil {
		if snap, ok := live.Latest(); ok {
			out.Snapshot = Newer(out.Snapshot, snap)
		}
	}

	return out, nil
}
