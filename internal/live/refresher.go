package live

import (
	"context"
	"fmt"

	"github.com/angelmondragon/yoypulse/internal/cron"
	"github.com/angelmondragon/yoypulse/pkg/config"
	"github.com/angelmondragon/yoypulse/pkg/logger"
	"github.com/angelmondragon/yoypulse/pkg/metrics"
)

// RefresherParams wires a Refresher. Lock defaults to an in-process lock.
// With a Store, the lock holder publishes its board under Config.BoardKey
// and the other replicas mirror it instead of going stale.
type RefresherParams struct {
	Config  config.LiveConfig
	Service Snapshotter
	Logger  *logger.Logger
	Lock    cron.Lock
	Metrics *metrics.JobMetrics
	Board   *Board
	Store   BoardStore
}

// Refresher keeps a Board current by running the snapshot job on the
// scheduler each tick.
type Refresher struct {
	job       *SnapshotJob
	board     *Board
	shared    *SharedBoard
	scheduler *cron.Service
	logg      *logger.Logger
	primeSize int
}

func NewRefresher(params RefresherParams) (*Refresher, error) {
	if params.Service == nil {
		return nil, fmt.Errorf("snapshot service required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	board := params.Board
	if board == nil {
		board = NewBoard(params.Config.HistorySize)
	}
	job := NewSnapshotJob(params.Service, board, params.Config.Jitter, nil)
	registry, standby := cron.NewRegistry(job), cron.NewRegistry()

	var shared *SharedBoard
	if params.Store != nil {
		var err error
		shared, err = NewSharedBoard(params.Store, params.Config.BoardKey, params.Config.BoardTTL, board)
		if err != nil {
			return nil, err
		}
		registry.Register(shared.PublishJob())
		standby.Register(shared.SyncJob())
	}

	scheduler, err := cron.NewService(cron.ServiceParams{
		Logger:   params.Logger,
		Registry: registry,
		Standby:  standby,
		Lock:     params.Lock,
		Metrics:  params.Metrics,
		Interval: params.Config.Interval,
	})
	if err != nil {
		return nil, err
	}
	return &Refresher{
		job:       job,
		board:     board,
		shared:    shared,
		scheduler: scheduler,
		logg:      params.Logger,
		primeSize: params.Config.PrimeSize,
	}, nil
}

func (r *Refresher) Board() *Board { return r.board }

// Run primes the history and then refreshes until ctx is done. A replica
// that finds a published board adopts it instead of priming. A failed prime
// is logged and does not stop the refresher.
func (r *Refresher) Run(ctx context.Context) error {
	if r.shared == nil || r.shared.Sync(ctx) != nil {
		if err := r.job.Prime(ctx, r.primeSize); err != nil {
			r.logg.Error(ctx, "priming live history failed", err)
		}
	}
	return r.scheduler.Run(ctx)
}
