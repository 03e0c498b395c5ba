package actions

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ReviewPeriod is the time between accepting an action and reviewing it.
const ReviewPeriod = 6 * 7 * 24 * time.Hour

type Status string

const (
	StatusWaiting    Status = "waiting"
	StatusInProgress Status = "in_progress"
	StatusComplete   Status = "complete"
)

// Statuses lists every status in display order.
var Statuses = []Status{StatusWaiting, StatusInProgress, StatusComplete}

func (s Status) IsValid() bool {
	switch s {
	case StatusWaiting, StatusInProgress, StatusComplete:
		return true
	default:
		return false
	}
}

// Label is the human-facing status text.
func (s Status) Label() string {
	switch s {
	case StatusWaiting:
		return "Waiting for acceptance"
	case StatusInProgress:
		return "In-Progress"
	case StatusComplete:
		return "Complete"
	default:
		return string(s)
	}
}

func ParseStatus(value string) (Status, error) {
	s := Status(strings.ToLower(strings.TrimSpace(value)))
	if !s.IsValid() {
		return "", fmt.Errorf("invalid action status %q", value)
	}
	return s, nil
}

// Action is a sales follow-up accepted for a customer.
type Action struct {
	ID           uuid.UUID `gorm:"type:varchar(36);primaryKey" json:"id"`
	CustomerID   string    `gorm:"not null;index" json:"customer_id"`
	Description  string    `gorm:"not null" json:"description"`
	Status       Status    `gorm:"type:varchar(32);not null;default:in_progress" json:"status"`
	DateAccepted time.Time `gorm:"not null" json:"date_accepted"`
	ReviewDate   time.Time `gorm:"not null" json:"review_date"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (Action) TableName() string { return "actions" }

// IsOverdue reports whether the review date has passed without completion.
func (a Action) IsOverdue(now time.Time) bool {
	return now.After(a.ReviewDate) && a.Status != StatusComplete
}

// newAction builds an in-progress action accepted at now.
func newAction(customerID, description string, now time.Time) *Action {
	return &Action{
		ID:           uuid.New(),
		CustomerID:   customerID,
		Description:  description,
		Status:       StatusInProgress,
		DateAccepted: now,
		ReviewDate:   now.Add(ReviewPeriod),
	}
}
