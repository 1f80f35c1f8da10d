package access

import (
	"context"

	"github.com/pkg/errors"

	"github.com/taskward/taskward/internal/core"
	"github.com/taskward/taskward/pkg/resource"
)

// ValidateChain resolves an ordered root-first reference chain
// (e.g. project, then section, then task) and verifies that every
// child's stored parent matches the reference supplied before it.
//
// A mismatched chain resolves to ErrChainInconsistent and nothing
// more specific: confirming that a child exists under a different
// parent would leak its existence.
func ValidateChain(ctx context.Context, store resource.Store, chain []resource.Ref) ([]resource.Node, error) {
	if store == nil {
		return nil, core.ErrNilResourceStore
	}

	if len(chain) == 0 {
		return nil, ErrEmptyChain
	}

	nodes := make([]resource.Node, 0, len(chain))

	for i, ref := range chain {
		if err := ref.Validate(); err != nil {
			return nil, err
		}

		d, err := resource.Describe(ref.Kind)
		if err != nil {
			return nil, err
		}

		// the chain must descend the static hierarchy:
		// a root kind first, then each declared child kind in turn
		if i == 0 {
			if d.Parent != resource.KNone {
				return nil, errors.Wrapf(ErrChainInconsistent, "chain must start at a root kind, got %s", ref.Kind)
			}
		} else if d.Parent != chain[i-1].Kind {
			return nil, errors.Wrapf(ErrChainInconsistent, "%s cannot be nested under %s", ref.Kind, chain[i-1].Kind)
		}

		node, err := store.FetchByRef(ctx, ref)
		if err != nil {
			return nil, err
		}

		if i > 0 {
			pref, ok := node.ParentRef()
			if !ok || pref.ID != chain[i-1].ID {
				return nil, errors.Wrapf(ErrChainInconsistent, "%s is not under %s", ref, chain[i-1])
			}
		}

		nodes = append(nodes, node)
	}

	return nodes, nil
}

// IsChainFailure reports whether an error from ValidateChain must be
// collapsed into a plain not-found outcome
func IsChainFailure(err error) bool {
	if err == nil {
		return false
	}

	if resource.IsNotFound(errors.Cause(err)) {
		return true
	}

	switch errors.Cause(err) {
	case ErrChainInconsistent, ErrEmptyChain, resource.ErrZeroID, resource.ErrUnknownKind:
		return true
	default:
		return false
	}
}
