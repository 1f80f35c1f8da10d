package resource

import (
	"time"

	"github.com/asaskevich/govalidator"
	"github.com/google/uuid"
)

// Section groups tasks inside a project; it carries no ownership
// data of its own and defers all authorization to its project
type Section struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Name      string    `db:"name" json:"name" valid:"required"`
	ProjectID uuid.UUID `db:"project_id" json:"project_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// NewSection initializes a new section under a given project
func NewSection(name string, projectID uuid.UUID) Section {
	return Section{
		Name:      name,
		ProjectID: projectID,
	}
}

// NodeRef returns the section's own reference
func (s Section) NodeRef() Ref {
	return Ref{Kind: KSection, ID: s.ID}
}

// ParentRef points at the enclosing project
func (s Section) ParentRef() (Ref, bool) {
	return Ref{Kind: KProject, ID: s.ProjectID}, true
}

// Validate performs an integrity check on this section
func (s Section) Validate() error {
	if ok, err := govalidator.ValidateStruct(s); !ok {
		return err
	}

	if s.ProjectID == uuid.Nil {
		return ErrParentNotFound
	}

	return nil
}
