package live

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/angelmondragon/yoypulse/internal/cron"
	"github.com/angelmondragon/yoypulse/internal/pulse"
)

const (
	PublishJobName = "live_publish"
	SyncJobName    = "live_sync"

	defaultBoardTTL = 30 * time.Second
)

// ErrNoSharedBoard is returned by a sync that finds nothing published, which
// happens when the lock holder has stopped publishing for longer than the TTL.
var ErrNoSharedBoard = errors.New("no shared board published")

// BoardStore carries board state between replicas. *redis.Client satisfies it.
type BoardStore interface {
	PutBlob(ctx context.Context, key string, value []byte, ttl time.Duration) error
	GetBlob(ctx context.Context, key string) ([]byte, bool, error)
}

// boardState is the published form of a Board.
type boardState struct {
	Snapshot  *pulse.Snapshot `json:"snapshot,omitempty"`
	Samples   []Sample        `json:"samples"`
	LastError string          `json:"last_error,omitempty"`
}

// SharedBoard publishes the lock holder's board and mirrors it into the
// boards of the replicas that lost the lock.
type SharedBoard struct {
	store BoardStore
	key   string
	ttl   time.Duration
	board *Board
}

func NewSharedBoard(store BoardStore, key string, ttl time.Duration, board *Board) (*SharedBoard, error) {
	switch {
	case store == nil:
		return nil, errors.New("shared board: store is required")
	case key == "":
		return nil, errors.New("shared board: key is required")
	case board == nil:
		return nil, errors.New("shared board: board is required")
	}
	if ttl <= 0 {
		ttl = defaultBoardTTL
	}
	return &SharedBoard{store: store, key: key, ttl: ttl, board: board}, nil
}

// Publish writes the local board under the shared key.
func (s *SharedBoard) Publish(ctx context.Context) error {
	body, err := json.Marshal(s.board.state())
	if err != nil {
		return fmt.Errorf("encode board: %w", err)
	}
	return s.store.PutBlob(ctx, s.key, body, s.ttl)
}

// Sync replaces the local board with the published one. With nothing
// published the local board is kept and marked with ErrNoSharedBoard.
func (s *SharedBoard) Sync(ctx context.Context) error {
	body, ok, err := s.store.GetBlob(ctx, s.key)
	if err != nil {
		s.board.fail(err)
		return err
	}
	if !ok {
		s.board.fail(ErrNoSharedBoard)
		return ErrNoSharedBoard
	}
	var st boardState
	if err := json.Unmarshal(body, &st); err != nil {
		return fmt.Errorf("decode board: %w", err)
	}
	s.board.restore(st)
	return nil
}

// PublishJob and SyncJob adapt SharedBoard to the scheduler.
func (s *SharedBoard) PublishJob() cron.Job { return &boardJob{name: PublishJobName, run: s.Publish} }

func (s *SharedBoard) SyncJob() cron.Job { return &boardJob{name: SyncJobName, run: s.Sync} }

type boardJob struct {
	name string
	run  func(context.Context) error
}

func (j *boardJob) Name() string { return j.name }

func (j *boardJob) Run(ctx context.Context) error { return j.run(ctx) }
