package actions

import (
	"context"
	"errors"
	"time"

	"github.com/angelmondragon/yoypulse/pkg/pagination"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository persists actions.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, actions ...*Action) error
	FindByID(ctx context.Context, id uuid.UUID) (*Action, error)
	List(ctx context.Context, filter ListFilter) ([]Action, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status Status, now time.Time) (bool, error)
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
	Overdue(ctx context.Context, now time.Time) ([]Action, error)
	CountsByStatus(ctx context.Context) (map[Status]int64, error)
}

// ListFilter narrows List; zero values match everything. A positive Limit
// caps the rows and After resumes past a previous page.
type ListFilter struct {
	CustomerID string
	Status     Status
	Limit      int
	After      *pagination.Cursor
}

type repositoryImpl struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

func (r *repositoryImpl) Create(ctx context.Context, actions ...*Action) error {
	if len(actions) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(actions).Error
}

// FindByID returns nil, nil when no action has the id.
func (r *repositoryImpl) FindByID(ctx context.Context, id uuid.UUID) (*Action, error) {
	var action Action
	err := r.db.WithContext(ctx).Where("id = ?", id).Take(&action).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &action, nil
}

func (r *repositoryImpl) List(ctx context.Context, filter ListFilter) ([]Action, error) {
	query := r.db.WithContext(ctx).Model(&Action{})
	if filter.CustomerID != "" {
		query = query.Where("customer_id = ?", filter.CustomerID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if c := filter.After; c != nil {
		query = query.Where("(date_accepted > ? OR (date_accepted = ? AND id > ?))", c.At, c.At, c.ID)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	actions := make([]Action, 0)
	if err := query.Order("date_accepted ASC, id ASC").Find(&actions).Error; err != nil {
		return nil, err
	}
	return actions, nil
}

func (r *repositoryImpl) UpdateStatus(ctx context.Context, id uuid.UUID, status Status, now time.Time) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&Action{}).
		Where("id = ?", id).
		UpdateColumns(map[string]any{"status": status, "updated_at": now})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repositoryImpl) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&Action{})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repositoryImpl) Overdue(ctx context.Context, now time.Time) ([]Action, error) {
	actions := make([]Action, 0)
	err := r.db.WithContext(ctx).
		Where("review_date < ? AND status <> ?", now, StatusComplete).
		Order("review_date ASC, id ASC").
		Find(&actions).Error
	if err != nil {
		return nil, err
	}
	return actions, nil
}

// CountsByStatus always includes every status, zero when unused.
func (r *repositoryImpl) CountsByStatus(ctx context.Context) (map[Status]int64, error) {
	var rows []struct {
		Status Status
		Count  int64
	}
	err := r.db.WithContext(ctx).
		Model(&Action{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	counts := make(map[Status]int64, len(Statuses))
	for _, s := range Statuses {
		counts[s] = 0
	}
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}
