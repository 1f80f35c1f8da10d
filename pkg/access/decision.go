package access

import (
	"github.com/google/uuid"

	"github.com/taskward/taskward/pkg/resource"
)

// Effect is the outcome of an authorization decision
type Effect uint8

// effects
const (
	// ENotFound hides both absent resources and resources the
	// principal has no standing to know about
	ENotFound Effect = iota

	// EForbidden is only ever disclosed to principals that already
	// have some standing at the authorization root
	EForbidden

	EAllow
)

func (e Effect) String() string {
	switch e {
	case ENotFound:
		return "not found"
	case EForbidden:
		return "forbidden"
	case EAllow:
		return "allow"
	default:
		return "unknown effect"
	}
}

// Decision is the engine's answer for a single request
type Decision struct {
	Effect Effect
	Roles  Role

	// Chain holds the fully resolved node chain (root to leaf) on
	// EAllow so callers need not re-query
	Chain []resource.Node
}

// Allowed is a convenience shorthand
func (d Decision) Allowed() bool {
	return d.Effect == EAllow
}

// Node returns the resolved leaf node, or nil when there is none
// (denied decisions, root-kind creation)
func (d Decision) Node() resource.Node {
	if len(d.Chain) == 0 {
		return nil
	}

	return d.Chain[len(d.Chain)-1]
}

// Scope describes which instances of a kind a list operation may
// disclose; it is a predicate for the store, not loaded data
type Scope struct {
	Kind resource.Kind

	// All marks full access (superuser, or a validated parent whose
	// children are all visible to the principal)
	All bool

	// PrincipalID is the subject of the owner-or-member predicate
	// applied when All is false
	PrincipalID uuid.UUID

	// ParentID is the validated parent for child-kind listings
	ParentID uuid.UUID
}
