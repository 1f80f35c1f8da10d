package access_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/taskward/taskward/pkg/access"
	"github.com/taskward/taskward/pkg/resource"
)

func TestValidateChainResolvesFullChain(t *testing.T) {
	a := assert.New(t)
	ctx := context.Background()
	f := newFixture(t)

	nodes, err := access.ValidateChain(ctx, f.store, f.taskChain())
	a.NoError(err)
	a.Len(nodes, 3)
	a.Equal(f.project.ID, nodes[0].NodeRef().ID)
	a.Equal(f.section.ID, nodes[1].NodeRef().ID)
	a.Equal(f.task.ID, nodes[2].NodeRef().ID)
}

func TestValidateChainRejectsMismatchedParent(t *testing.T) {
	a := assert.New(t)
	ctx := context.Background()
	f := newFixture(t)

	_, err := access.ValidateChain(ctx, f.store, []resource.Ref{
		resource.NewRef(resource.KProject, f.otherProject.ID),
		resource.NewRef(resource.KSection, f.section.ID),
	})
	a.Error(err)
	a.Equal(access.ErrChainInconsistent, errors.Cause(err))
	a.True(access.IsChainFailure(err))
}

func TestValidateChainRejectsAbsentSegment(t *testing.T) {
	a := assert.New(t)
	ctx := context.Background()
	f := newFixture(t)

	_, err := access.ValidateChain(ctx, f.store, []resource.Ref{
		resource.NewRef(resource.KProject, uuid.New()),
	})
	a.Error(err)
	a.True(access.IsChainFailure(err))

	_, err = access.ValidateChain(ctx, f.store, []resource.Ref{
		resource.NewRef(resource.KProject, f.project.ID),
		resource.NewRef(resource.KSection, uuid.New()),
	})
	a.Error(err)
	a.True(access.IsChainFailure(err))
}

func TestValidateChainRejectsMalformedChains(t *testing.T) {
	a := assert.New(t)
	ctx := context.Background()
	f := newFixture(t)

	// empty chain
	_, err := access.ValidateChain(ctx, f.store, nil)
	a.Equal(access.ErrEmptyChain, err)

	// chain starting below a root
	_, err = access.ValidateChain(ctx, f.store, []resource.Ref{
		resource.NewRef(resource.KSection, f.section.ID),
	})
	a.True(access.IsChainFailure(err))

	// wrong nesting order
	_, err = access.ValidateChain(ctx, f.store, []resource.Ref{
		resource.NewRef(resource.KProject, f.project.ID),
		resource.NewRef(resource.KTask, f.task.ID),
	})
	a.True(access.IsChainFailure(err))

	// zero id
	_, err = access.ValidateChain(ctx, f.store, []resource.Ref{
		resource.NewRef(resource.KProject, uuid.Nil),
	})
	a.True(access.IsChainFailure(err))
}
