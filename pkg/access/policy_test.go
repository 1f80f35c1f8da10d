package access_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/taskward/taskward/pkg/access"
	"github.com/taskward/taskward/pkg/resource"
)

func TestDefaultPolicyTable(t *testing.T) {
	a := assert.New(t)

	p := access.DefaultPolicy()

	// reads are open to anyone with standing at the root
	for _, kind := range []resource.Kind{resource.KBoard, resource.KProject, resource.KSection, resource.KTask} {
		a.True(p.Permitted(kind, access.ARead, access.ROwner))
		a.True(p.Permitted(kind, access.ARead, access.RMember))
		a.True(p.Permitted(kind, access.ARead, access.RSuperuser))
		a.False(p.Permitted(kind, access.ARead, access.RNone))
	}

	// root kinds are created by any authenticated principal
	a.True(p.Permitted(resource.KProject, access.ACreate, access.RNone))
	a.True(p.Permitted(resource.KBoard, access.ACreate, access.RNone))

	// members create tasks but not sections
	a.True(p.Permitted(resource.KTask, access.ACreate, access.RMember))
	a.False(p.Permitted(resource.KSection, access.ACreate, access.RMember))

	// mutations are owner territory
	for _, kind := range []resource.Kind{resource.KProject, resource.KSection, resource.KTask} {
		a.True(p.Permitted(kind, access.AUpdate, access.ROwner))
		a.True(p.Permitted(kind, access.ADelete, access.RSuperuser))
		a.False(p.Permitted(kind, access.AUpdate, access.RMember))
		a.False(p.Permitted(kind, access.ADelete, access.RMember))
	}

	// board mutation was never implemented upstream, no roles at all
	a.False(p.Permitted(resource.KBoard, access.AUpdate, access.ROwner|access.RSuperuser))
	a.False(p.Permitted(resource.KBoard, access.ADelete, access.ROwner|access.RSuperuser))
}

func TestPolicySetOverride(t *testing.T) {
	a := assert.New(t)

	p := access.NewPolicy().
		Set(resource.KTask, access.AUpdate, access.ROwner|access.RMember)

	a.True(p.Permitted(resource.KTask, access.AUpdate, access.RMember))
	a.False(p.Permitted(resource.KTask, access.ADelete, access.ROwner))
	a.Equal(access.ROwner|access.RMember, p.Roles(resource.KTask, access.AUpdate))
}

func TestRoleString(t *testing.T) {
	a := assert.New(t)

	a.Equal("none", access.RNone.String())
	a.Equal("owner", access.ROwner.String())
	a.Equal("owner,member", (access.ROwner | access.RMember).String())
	a.Equal("superuser", access.RSuperuser.String())
}

func TestActionString(t *testing.T) {
	a := assert.New(t)

	a.Equal("list", access.AList.String())
	a.Equal("delete", access.ADelete.String())
	a.True(access.AList.IsRead())
	a.True(access.ARead.IsRead())
	a.False(access.AUpdate.IsRead())
}
