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

// taskChanges is the diffable view of a task's mutable fields;
// executor id and deadline are opaque to the differ and are
// compared explicitly
type taskChanges struct {
	Title       string
	Description string
	Priority    resource.Priority
	Status      resource.Status
}

// TaskFlags are presentation hints mirroring the original detail
// screen; they are computed for display and gate nothing
type TaskFlags struct {
	IsAdmin        bool `json:"is_admin"`
	IsProjectOwner bool `json:"is_project_owner"`
	IsCreator      bool `json:"is_creator"`
	IsExecutor     bool `json:"is_executor"`
}

func taskChain(projectID, sectionID, taskID uuid.UUID) []resource.Ref {
	return []resource.Ref{
		resource.NewRef(resource.KProject, projectID),
		resource.NewRef(resource.KSection, sectionID),
		resource.NewRef(resource.KTask, taskID),
	}
}

// CreateTask authorizes and persists a new task under a section; any
// member of the enclosing project may create tasks
func (m *Manager) CreateTask(ctx context.Context, p principal.Principal, projectID, sectionID uuid.UUID, t resource.Task) (resource.Task, error) {
	dec, err := m.engine.AuthorizeCreate(ctx, p, resource.KTask, []resource.Ref{
		resource.NewRef(resource.KProject, projectID),
		resource.NewRef(resource.KSection, sectionID),
	})
	if err != nil {
		return t, err
	}

	if !dec.Allowed() {
		return t, denial(dec, resource.KSection)
	}

	t.SectionID = sectionID
	if t.Status == "" {
		t.Status = resource.StatusToDo
	}

	t = access.StampTask(p, t)

	if err := t.Validate(); err != nil {
		return t, err
	}

	t, err = m.store.UpsertTask(ctx, t)
	if err != nil {
		return t, errors.Wrap(err, "failed to persist task")
	}

	m.Logger().Info("task created",
		zap.Stringer("task_id", t.ID),
		zap.Stringer("section_id", t.SectionID),
		zap.Stringer("creator_id", t.CreatorID),
	)

	return t, nil
}

// ListTasks returns all tasks of a section the principal can see
func (m *Manager) ListTasks(ctx context.Context, p principal.Principal, projectID, sectionID uuid.UUID) ([]resource.Task, error) {
	dec, scope, err := m.engine.ScopeList(ctx, p, resource.KTask, sectionChain(projectID, sectionID))
	if err != nil {
		return nil, err
	}

	if !dec.Allowed() {
		return nil, resource.ErrSectionNotFound
	}

	return m.store.FetchTasksBySection(ctx, scope.ParentID)
}

// GetTask returns a single task addressed under its section and project
func (m *Manager) GetTask(ctx context.Context, p principal.Principal, projectID, sectionID, taskID uuid.UUID) (t resource.Task, err error) {
	dec, err := m.engine.Authorize(ctx, p, access.ARead, taskChain(projectID, sectionID, taskID))
	if err != nil {
		return t, err
	}

	if !dec.Allowed() {
		return t, denial(dec, resource.KTask)
	}

	return dec.Node().(resource.Task), nil
}

// GetTaskFlags returns a task along with its presentation flags
func (m *Manager) GetTaskFlags(ctx context.Context, p principal.Principal, projectID, sectionID, taskID uuid.UUID) (t resource.Task, flags TaskFlags, err error) {
	dec, err := m.engine.Authorize(ctx, p, access.ARead, taskChain(projectID, sectionID, taskID))
	if err != nil {
		return t, flags, err
	}

	if !dec.Allowed() {
		return t, flags, denial(dec, resource.KTask)
	}

	t = dec.Node().(resource.Task)
	proj := dec.Chain[0].(resource.Project)

	flags = TaskFlags{
		IsAdmin:        p.IsSuperuser,
		IsProjectOwner: proj.OwnerID == p.ID,
		IsCreator:      t.CreatorID == p.ID,
		IsExecutor:     t.ExecutorID != uuid.Nil && t.ExecutorID == p.ID,
	}

	return t, flags, nil
}

// UpdateTask applies content and assignment changes to a task.
// The rule here matches sections: only the project owner or a
// superuser may update, regardless of creator or executor.
func (m *Manager) UpdateTask(ctx context.Context, p principal.Principal, projectID, sectionID, taskID uuid.UUID, upd resource.Task) (t resource.Task, err error) {
	dec, err := m.engine.Authorize(ctx, p, access.AUpdate, taskChain(projectID, sectionID, taskID))
	if err != nil {
		return t, err
	}

	if !dec.Allowed() {
		return t, denial(dec, resource.KTask)
	}

	t = dec.Node().(resource.Task)

	updated := t
	updated.Title = upd.Title
	updated.Description = upd.Description
	updated.Priority = upd.Priority
	updated.Status = upd.Status
	updated.ExecutorID = upd.ExecutorID
	updated.Deadline = upd.Deadline

	changelog, err := diff.Diff(
		taskChanges{Title: t.Title, Description: t.Description, Priority: t.Priority, Status: t.Status},
		taskChanges{Title: updated.Title, Description: updated.Description, Priority: updated.Priority, Status: updated.Status},
	)
	if err != nil {
		return t, errors.Wrap(err, "failed to diff task changes")
	}

	if len(changelog) == 0 && updated.ExecutorID == t.ExecutorID && updated.Deadline.Equal(t.Deadline) {
		return t, resource.ErrNothingChanged
	}

	if err := updated.Validate(); err != nil {
		return t, err
	}

	updated, err = m.store.UpsertTask(ctx, updated)
	if err != nil {
		return t, errors.Wrap(err, "failed to persist task")
	}

	m.Logger().Info("task updated",
		zap.Stringer("task_id", updated.ID),
		zap.Int("changes", len(changelog)),
	)

	return updated, nil
}

// DeleteTask removes a task
func (m *Manager) DeleteTask(ctx context.Context, p principal.Principal, projectID, sectionID, taskID uuid.UUID) error {
	dec, err := m.engine.Authorize(ctx, p, access.ADelete, taskChain(projectID, sectionID, taskID))
	if err != nil {
		return err
	}

	if !dec.Allowed() {
		return denial(dec, resource.KTask)
	}

	if err := m.store.DeleteByRef(ctx, resource.NewRef(resource.KTask, taskID)); err != nil {
		return errors.Wrap(err, "failed to delete task")
	}

	m.Logger().Info("task deleted", zap.Stringer("task_id", taskID))

	return nil
}
