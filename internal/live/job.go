package live

import (
	"context"
	"math"
	"math/rand/v2"
	"time"

	"github.com/angelmondragon/yoypulse/internal/pulse"
	"github.com/angelmondragon/yoypulse/internal/sources"
	"gonum.org/v1/gonum/stat/distuv"
)

const (
	JobName = "live_snapshot"

	primeJitter = 25_000
	tickJitter  = 75_000
)

// Snapshotter is the part of pulse.Service the job needs.
type Snapshotter interface {
	Snapshot(ctx context.Context) (*pulse.Snapshot, error)
}

// SnapshotJob takes a fresh snapshot per run and records it on the board.
// With jitter on, synthetic-mode samples get random noise so the static
// generated population still animates.
type SnapshotJob struct {
	service Snapshotter
	board   *Board
	jitter  bool
	noise   distuv.Uniform
}

func NewSnapshotJob(service Snapshotter, board *Board, jitter bool, src rand.Source) *SnapshotJob {
	if src == nil {
		now := uint64(time.Now().UnixNano())
		src = rand.NewPCG(now, now>>1)
	}
	return &SnapshotJob{
		service: service,
		board:   board,
		jitter:  jitter,
		noise:   distuv.Uniform{Min: -1, Max: 1, Src: src},
	}
}

func (j *SnapshotJob) Name() string { return JobName }

func (j *SnapshotJob) Run(ctx context.Context) error {
	return j.sample(ctx, tickJitter)
}

// Prime fills the history with n samples using a smaller jitter.
func (j *SnapshotJob) Prime(ctx context.Context, n int) error {
	for range n {
		if err := j.sample(ctx, primeJitter); err != nil {
			return err
		}
	}
	return nil
}

func (j *SnapshotJob) sample(ctx context.Context, amplitude float64) error {
	snap, err := j.service.Snapshot(ctx)
	if err != nil {
		j.board.fail(err)
		return err
	}

	s := Sample{
		TakenAt:   snap.TakenAt,
		Growers:   snap.Momentum.GrowersTotal,
		Decliners: snap.Momentum.DeclinersTotal,
	}
	if j.jitter && snap.Mode == sources.ModeSynthetic {
		s.Growers += amplitude * j.noise.Rand()
		s.Decliners -= amplitude * math.Abs(j.noise.Rand())
	}
	s.Net = s.Growers + s.Decliners
	j.board.record(snap, s)
	return nil
}
