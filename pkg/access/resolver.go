package access

import (
	"context"

	"github.com/pkg/errors"

	"github.com/taskward/taskward/internal/core"
	"github.com/taskward/taskward/pkg/principal"
	"github.com/taskward/taskward/pkg/resource"
)

// Resolver computes a principal's effective roles against a resource
// node by walking up parent references to the authorization root.
// It holds no state between calls; ownership and membership are
// re-read from the store on every resolution.
type Resolver struct {
	store resource.Store
}

// NewResolver initializes a role resolver over a given store
func NewResolver(store resource.Store) (*Resolver, error) {
	if store == nil {
		return nil, core.ErrNilResourceStore
	}

	return &Resolver{store: store}, nil
}

// Resolve returns the union of roles a principal holds at the given
// node's authorization root; the result may be RNone
func (r *Resolver) Resolve(ctx context.Context, p principal.Principal, node resource.Node) (Role, error) {
	if p.IsZero() {
		return RNone, core.ErrNoPrincipal
	}

	if node == nil {
		return RNone, resource.ErrNilResource
	}

	// superuser bypasses ownership entirely, no walk needed
	if p.IsSuperuser {
		return RSuperuser, nil
	}

	root, err := r.Root(ctx, node)
	if err != nil {
		return RNone, err
	}

	var roles Role

	if root.Owner() == p.ID {
		roles |= ROwner
	}

	if root.IsMember(p.ID) {
		roles |= RMember
	}

	return roles, nil
}

// Root walks a node up its parent references until it reaches the
// nearest ancestor carrying ownership data; the walk is bounded by the
// hierarchy depth, so a malformed store cannot loop it
func (r *Resolver) Root(ctx context.Context, node resource.Node) (resource.Root, error) {
	cur := node

	for depth := 0; depth < resource.MaxDepth; depth++ {
		if root, ok := cur.(resource.Root); ok {
			return root, nil
		}

		pref, ok := cur.ParentRef()
		if !ok {
			break
		}

		parent, err := r.store.FetchByRef(ctx, pref)
		if err != nil {
			if resource.IsNotFound(err) {
				return nil, resource.ErrParentNotFound
			}

			return nil, errors.Wrapf(err, "failed to fetch parent %s", pref)
		}

		cur = parent
	}

	return nil, errors.Wrapf(resource.ErrOwnerlessResource, "no authorization root above %s", node.NodeRef())
}
