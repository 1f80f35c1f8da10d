package resource

import (
	"time"

	"github.com/asaskevich/govalidator"
	"github.com/google/uuid"
)

// Priority is a task's urgency level, most urgent first
type Priority uint8

// task priorities
const (
	PriorityUrgent Priority = iota + 1
	PriorityHigh
	PriorityMedium
	PriorityLow
)

func (p Priority) String() string {
	switch p {
	case PriorityUrgent:
		return "urgent"
	case PriorityHigh:
		return "high"
	case PriorityMedium:
		return "medium"
	case PriorityLow:
		return "low"
	default:
		return "unknown priority"
	}
}

// Status is a task's workflow state
type Status string

// task statuses
const (
	StatusToDo       Status = "TO_DO"
	StatusInProgress Status = "IN_PROGRESS"
	StatusDone       Status = "DONE"
)

// Task is a unit of work inside a section
// NOTE: CreatorID and ExecutorID are display attributes only; the
// authorization engine never consults them when gating actions
type Task struct {
	ID          uuid.UUID `db:"id" json:"id"`
	Title       string    `db:"title" json:"title" valid:"required"`
	Description string    `db:"description" json:"description" valid:"required"`
	Priority    Priority  `db:"priority" json:"priority"`
	Status      Status    `db:"status" json:"status"`
	SectionID   uuid.UUID `db:"section_id" json:"section_id"`
	CreatorID   uuid.UUID `db:"creator_id" json:"creator_id"`
	ExecutorID  uuid.UUID `db:"executor_id" json:"executor_id"`
	Deadline    time.Time `db:"deadline" json:"deadline"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// NewTask initializes a new task under a given section
func NewTask(title string, description string, priority Priority, sectionID uuid.UUID) Task {
	return Task{
		Title:       title,
		Description: description,
		Priority:    priority,
		Status:      StatusToDo,
		SectionID:   sectionID,
	}
}

// NodeRef returns the task's own reference
func (t Task) NodeRef() Ref {
	return Ref{Kind: KTask, ID: t.ID}
}

// ParentRef points at the enclosing section
func (t Task) ParentRef() (Ref, bool) {
	return Ref{Kind: KSection, ID: t.SectionID}, true
}

// Validate performs an integrity check on this task
func (t Task) Validate() error {
	if ok, err := govalidator.ValidateStruct(t); !ok {
		return err
	}

	if t.Priority < PriorityUrgent || t.Priority > PriorityLow {
		return ErrInvalidPriority
	}

	switch t.Status {
	case StatusToDo, StatusInProgress, StatusDone:
	default:
		return ErrInvalidStatus
	}

	if t.SectionID == uuid.Nil {
		return ErrParentNotFound
	}

	if t.CreatorID == uuid.Nil {
		return ErrOwnerlessResource
	}

	// deadline is optional but cannot point into the past
	if !t.Deadline.IsZero() && t.Deadline.Before(time.Now()) {
		return ErrDeadlineInPast
	}

	return nil
}
