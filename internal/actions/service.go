package actions

import (
	"context"
	"strings"
	"time"

	pkgerrors "github.com/angelmondragon/yoypulse/pkg/errors"
	"github.com/angelmondragon/yoypulse/pkg/pagination"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Service manages the action tracker.
type Service interface {
	Add(ctx context.Context, customerID, description string) (*Action, error)
	AddMany(ctx context.Context, customerID string, descriptions []string) ([]Action, error)
	Get(ctx context.Context, id uuid.UUID) (*Action, error)
	List(ctx context.Context, filter ListFilter) ([]Action, error)
	ListPage(ctx context.Context, filter ListFilter, params pagination.Params) (*ListResult, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status Status) (*Action, error)
	MarkComplete(ctx context.Context, id uuid.UUID) (*Action, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Overdue(ctx context.Context) ([]Action, error)
	CountsByStatus(ctx context.Context) (map[Status]int64, error)
}

// Transactor runs fn in one database transaction; *db.Client satisfies it.
type Transactor interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type service struct {
	repo Repository
	tx   Transactor
	now  func() time.Time
}

// NewService wires the tracker. tx scopes AddMany to one transaction and may
// be nil, in which case inserts go through repo directly.
func NewService(repo Repository, tx Transactor, now func() time.Time) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "actions repository required")
	}
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &service{repo: repo, tx: tx, now: now}, nil
}

func (s *service) Add(ctx context.Context, customerID, description string) (*Action, error) {
	customerID, description, err := validateNew(customerID, description)
	if err != nil {
		return nil, err
	}
	action := newAction(customerID, description, s.now())
	if err := s.repo.Create(ctx, action); err != nil {
		return nil, pkgerrors.FromDB(err, "create action")
	}
	return action, nil
}

// AddMany accepts several recommendations at once; blank entries are skipped.
func (s *service) AddMany(ctx context.Context, customerID string, descriptions []string) ([]Action, error) {
	customerID = strings.TrimSpace(customerID)
	if customerID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer id is required")
	}
	now := s.now()
	batch := make([]*Action, 0, len(descriptions))
	for _, d := range descriptions {
		if d = strings.TrimSpace(d); d != "" {
			batch = append(batch, newAction(customerID, d, now))
		}
	}
	if len(batch) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one description is required")
	}

	create := func(repo Repository) error { return repo.Create(ctx, batch...) }
	var err error
	if s.tx != nil {
		err = s.tx.WithTx(ctx, func(tx *gorm.DB) error { return create(s.repo.WithTx(tx)) })
	} else {
		err = create(s.repo)
	}
	if err != nil {
		return nil, pkgerrors.FromDB(err, "create actions")
	}

	out := make([]Action, 0, len(batch))
	for _, a := range batch {
		out = append(out, *a)
	}
	return out, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*Action, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "action id is required")
	}
	action, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, pkgerrors.FromDB(err, "load action")
	}
	if action == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "action not found").WithDetails(map[string]any{"action_id": id.String()})
	}
	return action, nil
}

func (s *service) List(ctx context.Context, filter ListFilter) ([]Action, error) {
	filter.CustomerID = strings.TrimSpace(filter.CustomerID)
	if filter.Status != "" && !filter.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid action status")
	}
	actions, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, pkgerrors.FromDB(err, "list actions")
	}
	return actions, nil
}

// ListResult is one page of actions. NextCursor is empty on the last page.
type ListResult struct {
	Actions    []Action `json:"actions"`
	NextCursor string   `json:"next_cursor,omitempty"`
}

func (s *service) ListPage(ctx context.Context, filter ListFilter, params pagination.Params) (*ListResult, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	limit := pagination.NormalizeLimit(params.Limit)
	filter.After = cursor
	filter.Limit = pagination.LimitWithBuffer(limit)

	actions, err := s.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	page, next := pagination.Trim(actions, limit, func(a Action) pagination.Cursor {
		return pagination.Cursor{At: a.DateAccepted, ID: a.ID}
	})
	return &ListResult{Actions: page, NextCursor: next}, nil
}

func (s *service) UpdateStatus(ctx context.Context, id uuid.UUID, status Status) (*Action, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "action id is required")
	}
	if !status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid action status")
	}
	found, err := s.repo.UpdateStatus(ctx, id, status, s.now())
	if err != nil {
		return nil, pkgerrors.FromDB(err, "update action status")
	}
	if !found {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "action not found").WithDetails(map[string]any{"action_id": id.String()})
	}
	return s.Get(ctx, id)
}

func (s *service) MarkComplete(ctx context.Context, id uuid.UUID) (*Action, error) {
	return s.UpdateStatus(ctx, id, StatusComplete)
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "action id is required")
	}
	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return pkgerrors.FromDB(err, "delete action")
	}
	if !deleted {
		return pkgerrors.New(pkgerrors.CodeNotFound, "action not found").WithDetails(map[string]any{"action_id": id.String()})
	}
	return nil
}

func (s *service) Overdue(ctx context.Context) ([]Action, error) {
	actions, err := s.repo.Overdue(ctx, s.now())
	if err != nil {
		return nil, pkgerrors.FromDB(err, "list overdue actions")
	}
	return actions, nil
}

func (s *service) CountsByStatus(ctx context.Context) (map[Status]int64, error) {
	counts, err := s.repo.CountsByStatus(ctx)
	if err != nil {
		return nil, pkgerrors.FromDB(err, "count actions")
	}
	return counts, nil
}

func validateNew(customerID, description string) (string, string, error) {
	customerID = strings.TrimSpace(customerID)
	description = strings.TrimSpace(description)
	if customerID == "" {
		return "", "", pkgerrors.New(pkgerrors.CodeValidation, "customer id is required")
	}
	if description == "" {
		return "", "", pkgerrors.New(pkgerrors.CodeValidation, "description is required")
	}
	return customerID, description, nil
}
