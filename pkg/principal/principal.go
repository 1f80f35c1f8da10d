package principal

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// errors
var (
	ErrNilPrincipal      = errors.New("principal is nil")
	ErrNoContextualValue = errors.New("context holds no principal")
)

// Principal is an authenticated actor as seen by the authorization engine.
// It is supplied by an external resolver (session, token, whatever the
// surrounding application uses) and is immutable for the duration of a request.
type Principal struct {
	ID          uuid.UUID `db:"id" json:"id"`
	IsSuperuser bool      `db:"is_superuser" json:"is_superuser"`
}

// IsZero reports whether this principal carries no identity
func (p Principal) IsZero() bool {
	return p.ID == uuid.Nil
}

// Resolver supplies the current principal for a request context.
// NOTE: implemented by the surrounding application, not by this module
type Resolver interface {
	CurrentPrincipal(ctx context.Context) (Principal, error)
}

type contextKey uint8

// CKPrincipal is the context key under which a principal travels
const CKPrincipal contextKey = 1

// NewContext returns a derived context carrying the given principal
func NewContext(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, CKPrincipal, p)
}

// FromContext extracts a principal previously stored via NewContext
func FromContext(ctx context.Context) (Principal, error) {
	p, ok := ctx.Value(CKPrincipal).(Principal)
	if !ok {
		return Principal{}, ErrNoContextualValue
	}

	return p, nil
}
