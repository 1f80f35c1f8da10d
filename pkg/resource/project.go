package resource

import (
	"time"

	"github.com/asaskevich/govalidator"
	"github.com/google/uuid"
)

// Project is the root of the project -> section -> task hierarchy;
// sections and tasks inherit visibility from it
type Project struct {
	ID        uuid.UUID   `db:"id" json:"id"`
	Title     string      `db:"title" json:"title" valid:"required"`
	OwnerID   uuid.UUID   `db:"owner_id" json:"owner_id"`
	MemberIDs []uuid.UUID `db:"-" json:"member_ids"`
	CreatedAt time.Time   `db:"created_at" json:"created_at"`
}

// NewProject initializes a new project with a given title
func NewProject(title string) Project {
	return Project{
		Title:     title,
		MemberIDs: make([]uuid.UUID, 0),
	}
}

// NodeRef returns the project's own reference
func (p Project) NodeRef() Ref {
	return Ref{Kind: KProject, ID: p.ID}
}

// ParentRef always reports false; projects are hierarchy roots
func (p Project) ParentRef() (Ref, bool) {
	return Ref{}, false
}

// Owner returns the owning principal id
func (p Project) Owner() uuid.UUID {
	return p.OwnerID
}

// IsMember reports whether a given principal is enrolled on this project
func (p Project) IsMember(id uuid.UUID) bool {
	for _, mid := range p.MemberIDs {
		if mid == id {
			return true
		}
	}

	return false
}

// AddMember enrolls a principal; duplicates are rejected
func (p *Project) AddMember(id uuid.UUID) error {
	if id == uuid.Nil {
		return ErrZeroID
	}

	if p.IsMember(id) {
		return ErrAlreadyMember
	}

	p.MemberIDs = append(p.MemberIDs, id)

	return nil
}

// RemoveMember withdraws a principal's membership
func (p *Project) RemoveMember(id uuid.UUID) error {
	for i, mid := range p.MemberIDs {
		if mid == id {
			p.MemberIDs = append(p.MemberIDs[:i], p.MemberIDs[i+1:]...)
			return nil
		}
	}

	return ErrNotMember
}

// Validate performs an integrity check on this project
func (p Project) Validate() error {
	if ok, err := govalidator.ValidateStruct(p); !ok {
		return err
	}

	if p.OwnerID == uuid.Nil {
		return ErrOwnerlessResource
	}

	return nil
}
