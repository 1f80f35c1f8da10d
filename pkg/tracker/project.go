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

// projectChanges is the diffable view of a project's mutable fields;
// id values are opaque to the differ and are compared explicitly
type projectChanges struct {
	Title string
}

// sameIDs reports whether two id lists hold the same ids in the same order
func sameIDs(a, b []uuid.UUID) bool {
	if len(a) != len(b) {
		return false
	}

	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}

	return true
}

// ProjectSplit groups a project listing the way the original list
// screen did: own projects first, then memberships, and for an
// administrator the remainder it has no personal standing on
type ProjectSplit struct {
	Mine   []resource.Project `json:"mine"`
	Member []resource.Project `json:"member"`
	Other  []resource.Project `json:"other"`
}

// CreateProject authorizes and persists a new project owned by the
// acting principal
func (m *Manager) CreateProject(ctx context.Context, p principal.Principal, proj resource.Project) (resource.Project, error) {
	dec, err := m.engine.AuthorizeCreate(ctx, p, resource.KProject, nil)
	if err != nil {
		return proj, err
	}

	if !dec.Allowed() {
		return proj, denial(dec, resource.KProject)
	}

	proj = access.StampProject(p, proj)

	if err := proj.Validate(); err != nil {
		return proj, err
	}

	proj, err = m.store.UpsertProject(ctx, proj)
	if err != nil {
		return proj, errors.Wrap(err, "failed to persist project")
	}

	m.Logger().Info("project created",
		zap.Stringer("project_id", proj.ID),
		zap.Stringer("owner_id", proj.OwnerID),
	)

	return proj, nil
}

// ListProjects returns the projects visible to the acting principal
func (m *Manager) ListProjects(ctx context.Context, p principal.Principal) ([]resource.Project, error) {
	_, scope, err := m.engine.ScopeList(ctx, p, resource.KProject, nil)
	if err != nil {
		return nil, err
	}

	if scope.All {
		return m.store.FetchProjects(ctx)
	}

	return m.store.FetchProjectsByPrincipal(ctx, scope.PrincipalID)
}

// GetProject returns a single project, or not-found if the principal
// has no standing on it
func (m *Manager) GetProject(ctx context.Context, p principal.Principal, projectID uuid.UUID) (proj resource.Project, err error) {
	dec, err := m.engine.Authorize(ctx, p, access.ARead, []resource.Ref{
		resource.NewRef(resource.KProject, projectID),
	})
	if err != nil {
		return proj, err
	}

	if !dec.Allowed() {
		return proj, denial(dec, resource.KProject)
	}

	return dec.Node().(resource.Project), nil
}

// UpdateProject applies title and membership changes to a project
func (m *Manager) UpdateProject(ctx context.Context, p principal.Principal, projectID uuid.UUID, upd resource.Project) (proj resource.Project, err error) {
	dec, err := m.engine.Authorize(ctx, p, access.AUpdate, []resource.Ref{
		resource.NewRef(resource.KProject, projectID),
	})
	if err != nil {
		return proj, err
	}

	if !dec.Allowed() {
		return proj, denial(dec, resource.KProject)
	}

	proj = dec.Node().(resource.Project)

	updated := proj
	updated.Title = upd.Title
	updated.MemberIDs = upd.MemberIDs

	changelog, err := diff.Diff(
		projectChanges{Title: proj.Title},
		projectChanges{Title: updated.Title},
	)
	if err != nil {
		return proj, errors.Wrap(err, "failed to diff project changes")
	}

	if len(changelog) == 0 && sameIDs(proj.MemberIDs, updated.MemberIDs) {
		return proj, resource.ErrNothingChanged
	}

	if err := updated.Validate(); err != nil {
		return proj, err
	}

	updated, err = m.store.UpsertProject(ctx, updated)
	if err != nil {
		return proj, errors.Wrap(err, "failed to persist project")
	}

	m.Logger().Info("project updated",
		zap.Stringer("project_id", updated.ID),
		zap.Int("changes", len(changelog)),
	)

	return updated, nil
}

// DeleteProject removes a project along with its sections and tasks
func (m *Manager) DeleteProject(ctx context.Context, p principal.Principal, projectID uuid.UUID) error {
	ref := resource.NewRef(resource.KProject, projectID)

	dec, err := m.engine.Authorize(ctx, p, access.ADelete, []resource.Ref{ref})
	if err != nil {
		return err
	}

	if !dec.Allowed() {
		return denial(dec, resource.KProject)
	}

	if err := m.store.DeleteByRef(ctx, ref); err != nil {
		return errors.Wrap(err, "failed to delete project")
	}

	m.Logger().Info("project deleted", zap.Stringer("project_id", projectID))

	return nil
}

// SplitProjects groups an already-scoped listing for presentation
func SplitProjects(p principal.Principal, ps []resource.Project) ProjectSplit {
	split := ProjectSplit{
		Mine:   make([]resource.Project, 0),
		Member: make([]resource.Project, 0),
		Other:  make([]resource.Project, 0),
	}

	for _, proj := range ps {
		switch {
		case proj.OwnerID == p.ID:
			split.Mine = append(split.Mine, proj)
		case proj.IsMember(p.ID):
			split.Member = append(split.Member, proj)
		default:
			split.Other = append(split.Other, proj)
		}
	}

	return split
}
