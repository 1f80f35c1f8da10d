package tracker

import (
	"context"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/r3labs/diff"
	"go.uber.org/zap"

	"github.com/taskward/taskward/pkg/access"
	"github.com/taskward/taskward/pkg/principal"
	"github.com/taskward/taskward/pkg/resource"
)

// sectionChanges is the diffable view of a section's mutable fields
type sectionChanges struct {
	Name string
}

func sectionChain(projectID, sectionID uuid.UUID) []resource.Ref {
	return []resource.Ref{
		resource.NewRef(resource.KProject, projectID),
		resource.NewRef(resource.KSection, sectionID),
	}
}

// CreateSection authorizes and persists a new section under a project;
// only the project's owner (or a superuser) may create sections
func (m *Manager) CreateSection(ctx context.Context, p principal.Principal, projectID uuid.UUID, sec resource.Section) (resource.Section, error) {
	dec, err := m.engine.AuthorizeCreate(ctx, p, resource.KSection, []resource.Ref{
		resource.NewRef(resource.KProject, projectID),
	})
	if err != nil {
		return sec, err
	}

	if !dec.Allowed() {
		return sec, denial(dec, resource.KProject)
	}

	sec.ProjectID = projectID

	if err := sec.Validate(); err != nil {
		return sec, err
	}

	sec, err = m.store.UpsertSection(ctx, sec)
	if err != nil {
		return sec, errors.Wrap(err, "failed to persist section")
	}

	m.Logger().Info("section created",
		zap.Stringer("section_id", sec.ID),
		zap.Stringer("project_id", sec.ProjectID),
	)

	return sec, nil
}

// ListSections returns all sections of a project the principal can see
func (m *Manager) ListSections(ctx context.Context, p principal.Principal, projectID uuid.UUID) ([]resource.Section, error) {
	dec, scope, err := m.engine.ScopeList(ctx, p, resource.KSection, []resource.Ref{
		resource.NewRef(resource.KProject, projectID),
	})
	if err != nil {
		return nil, err
	}

	if !dec.Allowed() {
		return nil, resource.ErrProjectNotFound
	}

	return m.store.FetchSectionsByProject(ctx, scope.ParentID)
}

// GetSection returns a single section addressed under its project
func (m *Manager) GetSection(ctx context.Context, p principal.Principal, projectID, sectionID uuid.UUID) (sec resource.Section, err error) {
	dec, err := m.engine.Authorize(ctx, p, access.ARead, sectionChain(projectID, sectionID))
	if err != nil {
		return sec, err
	}

	if !dec.Allowed() {
		return sec, denial(dec, resource.KSection)
	}

	return dec.Node().(resource.Section), nil
}

// UpdateSection applies name changes to a section
func (m *Manager) UpdateSection(ctx context.Context, p principal.Principal, projectID, sectionID uuid.UUID, upd resource.Section) (sec resource.Section, err error) {
	dec, err := m.engine.Authorize(ctx, p, access.AUpdate, sectionChain(projectID, sectionID))
	if err != nil {
		return sec, err
	}

	if !dec.Allowed() {
		return sec, denial(dec, resource.KSection)
	}

	sec = dec.Node().(resource.Section)

	updated := sec
	updated.Name = upd.Name

	changelog, err := diff.Diff(
		sectionChanges{Name: sec.Name},
		sectionChanges{Name: updated.Name},
	)
	if err != nil {
		return sec, errors.Wrap(err, "failed to diff section changes")
	}

	if len(changelog) == 0 {
		return sec, resource.ErrNothingChanged
	}

	if err := updated.Validate(); err != nil {
		return sec, err
	}

	updated, err = m.store.UpsertSection(ctx, updated)
	if err != nil {
		return sec, errors.Wrap(err, "failed to persist section")
	}

	m.Logger().Info("section updated",
		zap.Stringer("section_id", updated.ID),
		zap.Int("changes", len(changelog)),
	)

	return updated, nil
}

// DeleteSection removes a section along with its tasks
func (m *Manager) DeleteSection(ctx context.Context, p principal.Principal, projectID, sectionID uuid.UUID) error {
	dec, err := m.engine.Authorize(ctx, p, access.ADelete, sectionChain(projectID, sectionID))
	if err != nil {
		return err
	}

	if !dec.Allowed() {
		return denial(dec, resource.KSection)
	}

	if err := m.store.DeleteByRef(ctx, resource.NewRef(resource.KSection, sectionID)); err != nil {
		return errors.Wrap(err, "failed to delete section")
	}

	m.Logger().Info("section deleted", zap.Stringer("section_id", sectionID))

	return nil
}
