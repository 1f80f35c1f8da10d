package access_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/taskward/taskward/pkg/access"
	"github.com/taskward/taskward/pkg/principal"
	"github.com/taskward/taskward/pkg/resource"
)

type fixture struct {
	store  resource.Store
	engine *access.Engine

	owner    principal.Principal
	member   principal.Principal
	stranger principal.Principal
	admin    principal.Principal

	project resource.Project
	section resource.Section
	task    resource.Task

	// a second project owned by someone else, for chain mismatches
	otherProject resource.Project
	otherSection resource.Section
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	a := assert.New(t)
	ctx := context.Background()

	f := &fixture{
		store:    resource.NewMemoryStore(),
		owner:    principal.Principal{ID: uuid.New()},
		member:   principal.Principal{ID: uuid.New()},
		stranger: principal.Principal{ID: uuid.New()},
		admin:    principal.Principal{ID: uuid.New(), IsSuperuser: true},
	}

	engine, err := access.NewEngine(f.store, nil)
	a.NoError(err)
	a.NotNil(engine)
	a.NoError(engine.SetLogger(zap.NewNop()))
	f.engine = engine

	proj := resource.NewProject("main project")
	proj.OwnerID = f.owner.ID
	a.NoError(proj.AddMember(f.member.ID))

	f.project, err = f.store.UpsertProject(ctx, proj)
	a.NoError(err)

	f.section, err = f.store.UpsertSection(ctx, resource.NewSection("backlog", f.project.ID))
	a.NoError(err)

	task := resource.NewTask("write docs", "document the engine", resource.PriorityMedium, f.section.ID)
	task.CreatorID = f.member.ID
	f.task, err = f.store.UpsertTask(ctx, task)
	a.NoError(err)

	other := resource.NewProject("other project")
	other.OwnerID = uuid.New()
	f.otherProject, err = f.store.UpsertProject(ctx, other)
	a.NoError(err)

	f.otherSection, err = f.store.UpsertSection(ctx, resource.NewSection("elsewhere", f.otherProject.ID))
	a.NoError(err)

	return f
}

func projectChain(id uuid.UUID) []resource.Ref {
	return []resource.Ref{resource.NewRef(resource.KProject, id)}
}

func (f *fixture) sectionChain() []resource.Ref {
	return []resource.Ref{
		resource.NewRef(resource.KProject, f.project.ID),
		resource.NewRef(resource.KSection, f.section.ID),
	}
}

func (f *fixture) taskChain() []resource.Ref {
	return append(f.sectionChain(), resource.NewRef(resource.KTask, f.task.ID))
}

func TestEngineSuperuserBypass(t *testing.T) {
	a := assert.New(t)
	ctx := context.Background()
	f := newFixture(t)

	// every instance action on every addressable node
	chains := [][]resource.Ref{
		projectChain(f.project.ID),
		f.sectionChain(),
		f.taskChain(),
		projectChain(f.otherProject.ID),
	}

	for _, chain := range chains {
		for _, action := range []access.Action{access.ARead, access.AUpdate, access.ADelete} {
			dec, err := f.engine.Authorize(ctx, f.admin, action, chain)
			a.NoError(err)
			a.True(dec.Allowed(), "admin %s on %v", action, chain)
			a.Equal(access.RSuperuser, dec.Roles)
		}
	}
}

func TestEngineOwnerFullAccess(t *testing.T) {
	a := assert.New(t)
	ctx := context.Background()
	f := newFixture(t)

	for _, action := range []access.Action{access.ARead, access.AUpdate, access.ADelete} {
		dec, err := f.engine.Authorize(ctx, f.owner, action, projectChain(f.project.ID))
		a.NoError(err)
		a.True(dec.Allowed(), "owner %s on own project", action)

		dec, err = f.engine.Authorize(ctx, f.owner, action, f.sectionChain())
		a.NoError(err)
		a.True(dec.Allowed(), "owner %s on section", action)
	}

	dec, err := f.engine.AuthorizeCreate(ctx, f.owner, resource.KSection, projectChain(f.project.ID))
	a.NoError(err)
	a.True(dec.Allowed())

	dec, err = f.engine.AuthorizeCreate(ctx, f.owner, resource.KTask, f.sectionChain())
	a.NoError(err)
	a.True(dec.Allowed())

	dec, err = f.engine.Authorize(ctx, f.owner, access.ARead, f.taskChain())
	a.NoError(err)
	a.True(dec.Allowed())
	a.Equal(access.ROwner, dec.Roles)
}

func TestEngineMemberReadOnly(t *testing.T) {
	a := assert.New(t)
	ctx := context.Background()
	f := newFixture(t)

	// reads are fine all the way down
	dec, err := f.engine.Authorize(ctx, f.member, access.ARead, f.sectionChain())
	a.NoError(err)
	a.True(dec.Allowed())
	a.Equal(access.RMember, dec.Roles)

	dec, err = f.engine.Authorize(ctx, f.member, access.ARead, f.taskChain())
	a.NoError(err)
	a.True(dec.Allowed())

	// members may create tasks but not sections
	dec, err = f.engine.AuthorizeCreate(ctx, f.member, resource.KTask, f.sectionChain())
	a.NoError(err)
	a.True(dec.Allowed())

	dec, err = f.engine.AuthorizeCreate(ctx, f.member, resource.KSection, projectChain(f.project.ID))
	a.NoError(err)
	a.Equal(access.EForbidden, dec.Effect)

	// mutations on sections are forbidden, not hidden: the member
	// already knows the section exists
	for _, action := range []access.Action{access.AUpdate, access.ADelete} {
		dec, err = f.engine.Authorize(ctx, f.member, action, f.sectionChain())
		a.NoError(err)
		a.Equal(access.EForbidden, dec.Effect)
	}
}

func TestEngineNonMemberIsolation(t *testing.T) {
	a := assert.New(t)
	ctx := context.Background()
	f := newFixture(t)

	// reads collapse to not-found, never forbidden
	dec, err := f.engine.Authorize(ctx, f.stranger, access.ARead, projectChain(f.project.ID))
	a.NoError(err)
	a.Equal(access.ENotFound, dec.Effect)

	dec, err = f.engine.Authorize(ctx, f.stranger, access.ARead, f.sectionChain())
	a.NoError(err)
	a.Equal(access.ENotFound, dec.Effect)

	dec, err = f.engine.Authorize(ctx, f.stranger, access.ARead, f.taskChain())
	a.NoError(err)
	a.Equal(access.ENotFound, dec.Effect)

	// so do mutations, zero standing means nothing to disclose
	dec, err = f.engine.Authorize(ctx, f.stranger, access.ADelete, projectChain(f.project.ID))
	a.NoError(err)
	a.Equal(access.ENotFound, dec.Effect)

	dec, err = f.engine.AuthorizeCreate(ctx, f.stranger, resource.KTask, f.sectionChain())
	a.NoError(err)
	a.Equal(access.ENotFound, dec.Effect)

	// lists hide the parent entirely
	dec, _, err = f.engine.ScopeList(ctx, f.stranger, resource.KSection, projectChain(f.project.ID))
	a.NoError(err)
	a.Equal(access.ENotFound, dec.Effect)
}

func TestEngineChainMismatchRejection(t *testing.T) {
	a := assert.New(t)
	ctx := context.Background()
	f := newFixture(t)

	// section of project A addressed under project B: not found even
	// for B's owner and even for a full member of A
	mismatched := []resource.Ref{
		resource.NewRef(resource.KProject, f.otherProject.ID),
		resource.NewRef(resource.KSection, f.section.ID),
	}

	for _, p := range []principal.Principal{f.owner, f.member, f.stranger} {
		dec, err := f.engine.Authorize(ctx, p, access.ARead, mismatched)
		a.NoError(err)
		a.Equal(access.ENotFound, dec.Effect)
	}

	// a task addressed under the wrong section collapses the same way
	wrongSection := []resource.Ref{
		resource.NewRef(resource.KProject, f.otherProject.ID),
		resource.NewRef(resource.KSection, f.otherSection.ID),
		resource.NewRef(resource.KTask, f.task.ID),
	}

	dec, err := f.engine.Authorize(ctx, f.admin, access.ARead, wrongSection)
	a.NoError(err)
	a.Equal(access.ENotFound, dec.Effect)
}

func TestEngineMembershipFreshness(t *testing.T) {
	a := assert.New(t)
	ctx := context.Background()
	f := newFixture(t)

	dec, err := f.engine.Authorize(ctx, f.member, access.ARead, projectChain(f.project.ID))
	a.NoError(err)
	a.True(dec.Allowed())

	// revoking membership between two checks must be visible immediately
	proj := f.project
	a.NoError(proj.RemoveMember(f.member.ID))
	_, err = f.store.UpsertProject(ctx, proj)
	a.NoError(err)

	dec, err = f.engine.Authorize(ctx, f.member, access.ARead, projectChain(f.project.ID))
	a.NoError(err)
	a.Equal(access.ENotFound, dec.Effect)
}

func TestEngineScenario(t *testing.T) {
	a := assert.New(t)
	ctx := context.Background()
	f := newFixture(t)

	dec, err := f.engine.Authorize(ctx, f.member, access.ARead, projectChain(f.project.ID))
	a.NoError(err)
	a.Equal(access.EAllow, dec.Effect)

	dec, err = f.engine.Authorize(ctx, f.member, access.AUpdate, projectChain(f.project.ID))
	a.NoError(err)
	a.Equal(access.EForbidden, dec.Effect)

	dec, err = f.engine.Authorize(ctx, f.member, access.ARead, f.sectionChain())
	a.NoError(err)
	a.Equal(access.EAllow, dec.Effect)

	mismatched := []resource.Ref{
		resource.NewRef(resource.KProject, f.project.ID),
		resource.NewRef(resource.KSection, f.otherSection.ID),
	}

	dec, err = f.engine.Authorize(ctx, f.member, access.ARead, mismatched)
	a.NoError(err)
	a.Equal(access.ENotFound, dec.Effect)
}

func TestEngineScopeList(t *testing.T) {
	a := assert.New(t)
	ctx := context.Background()
	f := newFixture(t)

	// root kind: superuser gets the full-access marker
	dec, scope, err := f.engine.ScopeList(ctx, f.admin, resource.KProject, nil)
	a.NoError(err)
	a.True(dec.Allowed())
	a.True(scope.All)

	// everyone else gets an owner-or-member predicate
	dec, scope, err = f.engine.ScopeList(ctx, f.member, resource.KProject, nil)
	a.NoError(err)
	a.True(dec.Allowed())
	a.False(scope.All)
	a.Equal(f.member.ID, scope.PrincipalID)

	// child kind: a visible parent discloses all of its children
	dec, scope, err = f.engine.ScopeList(ctx, f.member, resource.KSection, projectChain(f.project.ID))
	a.NoError(err)
	a.True(dec.Allowed())
	a.True(scope.All)
	a.Equal(f.project.ID, scope.ParentID)

	dec, scope, err = f.engine.ScopeList(ctx, f.member, resource.KTask, f.sectionChain())
	a.NoError(err)
	a.True(dec.Allowed())
	a.Equal(f.section.ID, scope.ParentID)
}

func TestEngineScopeListRootPredicateOnly(t *testing.T) {
	a := assert.New(t)
	ctx := context.Background()
	f := newFixture(t)

	// a policy with no list rows at all
	engine, err := access.NewEngine(f.store, access.NewPolicy())
	a.NoError(err)
	a.NoError(engine.SetLogger(zap.NewNop()))

	// root listings answer with a predicate regardless of the table,
	// standing is evaluated per instance by the store
	dec, scope, err := engine.ScopeList(ctx, f.owner, resource.KProject, nil)
	a.NoError(err)
	a.True(dec.Allowed())
	a.False(scope.All)
	a.Equal(f.owner.ID, scope.PrincipalID)

	// child listings do consult the table and deny without a row
	dec, _, err = engine.ScopeList(ctx, f.owner, resource.KSection, projectChain(f.project.ID))
	a.NoError(err)
	a.Equal(access.ENotFound, dec.Effect)
}

func TestEngineCreateRootKinds(t *testing.T) {
	a := assert.New(t)
	ctx := context.Background()
	f := newFixture(t)

	// any authenticated principal may create projects and boards
	for _, p := range []principal.Principal{f.owner, f.member, f.stranger, f.admin} {
		dec, err := f.engine.AuthorizeCreate(ctx, p, resource.KProject, nil)
		a.NoError(err)
		a.True(dec.Allowed())

		dec, err = f.engine.AuthorizeCreate(ctx, p, resource.KBoard, nil)
		a.NoError(err)
		a.True(dec.Allowed())
	}

	// but nobody unauthenticated
	_, err := f.engine.AuthorizeCreate(ctx, principal.Principal{}, resource.KProject, nil)
	a.Error(err)
}

func TestEngineRejectsMalformedRequests(t *testing.T) {
	a := assert.New(t)
	ctx := context.Background()
	f := newFixture(t)

	// creation is not an instance action
	_, err := f.engine.Authorize(ctx, f.owner, access.ACreate, projectChain(f.project.ID))
	a.Error(err)

	// a chain must descend the declared hierarchy
	dec, err := f.engine.Authorize(ctx, f.owner, access.ARead, []resource.Ref{
		resource.NewRef(resource.KSection, f.section.ID),
	})
	a.NoError(err)
	a.Equal(access.ENotFound, dec.Effect)

	// sections cannot be created under sections
	_, err = f.engine.AuthorizeCreate(ctx, f.owner, resource.KSection, f.sectionChain())
	a.Error(err)
}
