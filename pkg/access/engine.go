package access

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/taskward/taskward/internal/core"
	"github.com/taskward/taskward/pkg/principal"
	"github.com/taskward/taskward/pkg/resource"
)

// Engine is the scoping orchestrator: it validates reference chains,
// resolves roles and consults the policy table to answer whether a
// principal may act on a resource, and with which visible scope.
//
// The engine is stateless between calls; it never caches roles or
// membership, so a revoked membership is invisible to the very next
// request.
type Engine struct {
	store    resource.Store
	policy   *Policy
	resolver *Resolver
	logger   *zap.Logger
}

// NewEngine initializes a scoping engine over a given store;
// a nil policy falls back to the default tracker ruleset
func NewEngine(store resource.Store, policy *Policy) (*Engine, error) {
	if store == nil {
		return nil, core.ErrNilResourceStore
	}

	if policy == nil {
		policy = DefaultPolicy()
	}

	resolver, err := NewResolver(store)
	if err != nil {
		return nil, err
	}

	return &Engine{
		store:    store,
		policy:   policy,
		resolver: resolver,
	}, nil
}

// SetLogger assigns a logger for this engine
func (e *Engine) SetLogger(logger *zap.Logger) error {
	if logger != nil {
		logger = logger.Named("[access]")
	}

	e.logger = logger

	return nil
}

// Logger returns primary logger if is set, otherwise initializing and returning
func (e *Engine) Logger() *zap.Logger {
	if e.logger == nil {
		l, err := zap.NewDevelopment()
		if err != nil {
			panic(fmt.Errorf("failed to initialize engine logger: %s", err))
		}

		e.logger = l
	}

	return e.logger
}

// Policy returns the engine's policy table
func (e *Engine) Policy() *Policy {
	return e.policy
}

// Resolver returns the engine's role resolver
func (e *Engine) Resolver() *Resolver {
	return e.resolver
}

// Authorize answers an instance operation (read, update, delete)
// addressed by a root-first reference chain whose last segment is the
// target resource.
//
// Denials collapse by standing: a principal with no roles at the
// authorization root is told the resource does not exist; a principal
// with some standing but not the required role is told the action is
// forbidden. Read-class denials are always not-found.
func (e *Engine) Authorize(ctx context.Context, p principal.Principal, action Action, chain []resource.Ref) (Decision, error) {
	if p.IsZero() {
		return Decision{}, core.ErrNoPrincipal
	}

	switch action {
	case ARead, AUpdate, ADelete:
	default:
		return Decision{}, errors.Wrapf(ErrUnknownAction, "%s is not an instance action", action)
	}

	nodes, err := ValidateChain(ctx, e.store, chain)
	if err != nil {
		if IsChainFailure(err) {
			return Decision{Effect: ENotFound}, nil
		}

		return Decision{}, errors.Wrap(err, "failed to validate reference chain")
	}

	leaf := nodes[len(nodes)-1]

	roles, err := e.resolver.Resolve(ctx, p, leaf)
	if err != nil {
		if errors.Cause(err) == resource.ErrParentNotFound {
			return Decision{Effect: ENotFound}, nil
		}

		return Decision{}, errors.Wrap(err, "failed to resolve roles")
	}

	return e.decide(p, leaf.NodeRef().Kind, action, roles, nodes), nil
}

// AuthorizeCreate answers a creation request for a given kind under an
// already-validated parent chain; root kinds take an empty chain.
// On allow, the caller receives the resolved parent chain and is
// expected to stamp identity fields via the Stamp helpers.
func (e *Engine) AuthorizeCreate(ctx context.Context, p principal.Principal, kind resource.Kind, parent []resource.Ref) (Decision, error) {
	if p.IsZero() {
		return Decision{}, core.ErrNoPrincipal
	}

	d, err := resource.Describe(kind)
	if err != nil {
		return Decision{}, err
	}

	// root kinds are created without a parent; the policy row alone decides
	if d.Parent == resource.KNone {
		if len(parent) != 0 {
			return Decision{}, errors.Wrapf(ErrChainInconsistent, "%s takes no parent chain", kind)
		}

		roles := RNone
		if p.IsSuperuser {
			roles = RSuperuser
		}

		if e.policy.Permitted(kind, ACreate, roles) {
			return Decision{Effect: EAllow, Roles: roles}, nil
		}

		return Decision{Effect: EForbidden, Roles: roles}, nil
	}

	if len(parent) == 0 || parent[len(parent)-1].Kind != d.Parent {
		return Decision{}, errors.Wrapf(ErrChainInconsistent, "%s must be created under a %s", kind, d.Parent)
	}

	nodes, err := ValidateChain(ctx, e.store, parent)
	if err != nil {
		if IsChainFailure(err) {
			return Decision{Effect: ENotFound}, nil
		}

		return Decision{}, errors.Wrap(err, "failed to validate parent chain")
	}

	roles, err := e.resolver.Resolve(ctx, p, nodes[len(nodes)-1])
	if err != nil {
		if errors.Cause(err) == resource.ErrParentNotFound {
			return Decision{Effect: ENotFound}, nil
		}

		return Decision{}, errors.Wrap(err, "failed to resolve roles")
	}

	return e.decide(p, kind, ACreate, roles, nodes), nil
}

// ScopeList answers a collection operation: it validates the parent
// portion of the chain and produces the predicate the store must apply.
// Root kinds list with an owner-or-member predicate (or everything for
// a superuser); children of a visible parent are visible wholesale.
func (e *Engine) ScopeList(ctx context.Context, p principal.Principal, kind resource.Kind, parent []resource.Ref) (Decision, Scope, error) {
	if p.IsZero() {
		return Decision{}, Scope{}, core.ErrNoPrincipal
	}

	d, err := resource.Describe(kind)
	if err != nil {
		return Decision{}, Scope{}, err
	}

	// root kinds have no pre-resolvable roles: standing only exists
	// per instance, so no policy row applies here and the answer is
	// an owner-or-member predicate for the store to evaluate
	if d.Parent == resource.KNone {
		if len(parent) != 0 {
			return Decision{}, Scope{}, errors.Wrapf(ErrChainInconsistent, "%s takes no parent chain", kind)
		}

		scope := Scope{Kind: kind, All: p.IsSuperuser, PrincipalID: p.ID}

		roles := RNone
		if p.IsSuperuser {
			roles = RSuperuser
		}

		return Decision{Effect: EAllow, Roles: roles}, scope, nil
	}

	if len(parent) == 0 || parent[len(parent)-1].Kind != d.Parent {
		return Decision{}, Scope{}, errors.Wrapf(ErrChainInconsistent, "%s must be listed under a %s", kind, d.Parent)
	}

	nodes, err := ValidateChain(ctx, e.store, parent)
	if err != nil {
		if IsChainFailure(err) {
			return Decision{Effect: ENotFound}, Scope{}, nil
		}

		return Decision{}, Scope{}, errors.Wrap(err, "failed to validate parent chain")
	}

	leaf := nodes[len(nodes)-1]

	roles, err := e.resolver.Resolve(ctx, p, leaf)
	if err != nil {
		if errors.Cause(err) == resource.ErrParentNotFound {
			return Decision{Effect: ENotFound}, Scope{}, nil
		}

		return Decision{}, Scope{}, errors.Wrap(err, "failed to resolve roles")
	}

	if !e.policy.Permitted(kind, AList, roles) {
		// list denial never discloses the parent's existence
		return Decision{Effect: ENotFound, Roles: roles}, Scope{}, nil
	}

	scope := Scope{
		Kind:        kind,
		All:         true,
		PrincipalID: p.ID,
		ParentID:    leaf.NodeRef().ID,
	}

	return Decision{Effect: EAllow, Roles: roles, Chain: nodes}, scope, nil
}

// decide applies the policy row and the standing-based collapse rules
func (e *Engine) decide(p principal.Principal, kind resource.Kind, action Action, roles Role, chain []resource.Node) Decision {
	if e.policy.Permitted(kind, action, roles) {
		return Decision{Effect: EAllow, Roles: roles, Chain: chain}
	}

	e.Logger().Debug(
		"denied",
		zap.Stringer("principal", p.ID),
		zap.Stringer("kind", kind),
		zap.Stringer("action", action),
		zap.Stringer("roles", roles),
	)

	// unauthorized readers must not learn that the resource exists;
	// the same goes for mutators with no standing at all
	if action.IsRead() || roles == RNone {
		return Decision{Effect: ENotFound, Roles: roles}
	}

	return Decision{Effect: EForbidden, Roles: roles}
}
