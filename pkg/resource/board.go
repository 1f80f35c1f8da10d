package resource

import (
	"time"

	"github.com/asaskevich/govalidator"
	"github.com/google/uuid"
)

// Board represents a standalone kanban-style board
// NOTE: a board is its own authorization root
type Board struct {
	ID        uuid.UUID   `db:"id" json:"id"`
	Title     string      `db:"title" json:"title" valid:"required"`
	OwnerID   uuid.UUID   `db:"owner_id" json:"owner_id"`
	MemberIDs []uuid.UUID `db:"-" json:"member_ids"`
	CreatedAt time.Time   `db:"created_at" json:"created_at"`
}

// NewBoard initializes a new board with a given title
func NewBoard(title string) Board {
	return Board{
		Title:     title,
		MemberIDs: make([]uuid.UUID, 0),
	}
}

// NodeRef returns the board's own reference
func (b Board) NodeRef() Ref {
	return Ref{Kind: KBoard, ID: b.ID}
}

// ParentRef always reports false; boards are hierarchy roots
func (b Board) ParentRef() (Ref, bool) {
	return Ref{}, false
}

// Owner returns the owning principal id
func (b Board) Owner() uuid.UUID {
	return b.OwnerID
}

// IsMember reports whether a given principal is enrolled on this board
func (b Board) IsMember(id uuid.UUID) bool {
	for _, mid := range b.MemberIDs {
		if mid == id {
			return true
		}
	}

	return false
}

// AddMember enrolls a principal; duplicates are rejected
func (b *Board) AddMember(id uuid.UUID) error {
	if id == uuid.Nil {
		return ErrZeroID
	}

	if b.IsMember(id) {
		return ErrAlreadyMember
	}

	b.MemberIDs = append(b.MemberIDs, id)

	return nil
}

// RemoveMember withdraws a principal's membership
func (b *Board) RemoveMember(id uuid.UUID) error {
	for i, mid := range b.MemberIDs {
		if mid == id {
			b.MemberIDs = append(b.MemberIDs[:i], b.MemberIDs[i+1:]...)
			return nil
		}
	}

	return ErrNotMember
}

// Validate performs an integrity check on this board
func (b Board) Validate() error {
	if ok, err := govalidator.ValidateStruct(b); !ok {
		return err
	}

	if b.OwnerID == uuid.Nil {
		return ErrOwnerlessResource
	}

	return nil
}
