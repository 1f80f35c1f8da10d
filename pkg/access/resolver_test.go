package access_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/taskward/taskward/pkg/access"
	"github.com/taskward/taskward/pkg/principal"
	"github.com/taskward/taskward/pkg/resource"
)

func TestResolverRolesAtEveryDepth(t *testing.T) {
	a := assert.New(t)
	ctx := context.Background()
	f := newFixture(t)

	r := f.engine.Resolver()

	// roles resolve identically whether the node is the root itself
	// or two levels below it
	for _, node := range []resource.Node{f.project, f.section, f.task} {
		roles, err := r.Resolve(ctx, f.owner, node)
		a.NoError(err)
		a.Equal(access.ROwner, roles)

		roles, err = r.Resolve(ctx, f.member, node)
		a.NoError(err)
		a.Equal(access.RMember, roles)

		roles, err = r.Resolve(ctx, f.stranger, node)
		a.NoError(err)
		a.Equal(access.RNone, roles)
	}
}

func TestResolverSuperuserSkipsWalk(t *testing.T) {
	a := assert.New(t)
	ctx := context.Background()
	f := newFixture(t)

	// a dangling section would break the walk, but a superuser
	// never walks at all
	dangling := resource.Section{Name: "orphan"}

	roles, err := f.engine.Resolver().Resolve(ctx, f.admin, dangling)
	a.NoError(err)
	a.Equal(access.RSuperuser, roles)
}

func TestResolverOwnerWhoIsAlsoMember(t *testing.T) {
	a := assert.New(t)
	ctx := context.Background()
	f := newFixture(t)

	proj := f.project
	a.NoError(proj.AddMember(f.owner.ID))

	proj, err := f.store.UpsertProject(ctx, proj)
	a.NoError(err)

	roles, err := f.engine.Resolver().Resolve(ctx, f.owner, proj)
	a.NoError(err)
	a.Equal(access.ROwner|access.RMember, roles)
}

func TestResolverRejectsAnonymous(t *testing.T) {
	a := assert.New(t)
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.engine.Resolver().Resolve(ctx, principal.Principal{}, f.project)
	a.Error(err)
}
