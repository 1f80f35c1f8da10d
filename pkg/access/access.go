package access

import (
	"errors"
	"strings"
)

// errors
var (
	ErrEmptyChain        = errors.New("empty reference chain")
	ErrChainInconsistent = errors.New("reference chain is inconsistent")
	ErrNoStanding        = errors.New("principal has no standing at the authorization root")
	ErrInsufficientRole  = errors.New("principal role is insufficient for this action")
	ErrNoPolicy          = errors.New("no policy for this kind and action")
	ErrUnknownAction     = errors.New("unknown action")
	ErrForbidden         = errors.New("forbidden")
)

// Action is an explicit operation tag; the engine never infers the
// operation from its call site
type Action uint8

// actions
const (
	ANone Action = iota
	AList
	ARead
	ACreate
	AUpdate
	ADelete
)

func (a Action) String() string {
	switch a {
	case AList:
		return "list"
	case ARead:
		return "read"
	case ACreate:
		return "create"
	case AUpdate:
		return "update"
	case ADelete:
		return "delete"
	default:
		return "unknown action"
	}
}

// IsRead reports whether an action only discloses data
func (a Action) IsRead() bool {
	return a == AList || a == ARead
}

// this flag is used for role bits without translation
const roleUnrecognizedFlag = "unrecognized role flag"

// Role is a single effective role flag; a principal's standing against
// an authorization root is a union of these
type Role uint8

// declaring discrete roles for all cases
const (
	RNone  = Role(0)
	ROwner = Role(1 << (iota - 1))
	RMember
	RSuperuser

	// RAnyone marks policy rows open to any authenticated principal
	RAnyone
)

func (r Role) Translate() string {
	switch r {
	case RNone:
		return "none"
	case ROwner:
		return "owner"
	case RMember:
		return "member"
	case RSuperuser:
		return "superuser"
	case RAnyone:
		return "anyone"
	default:
		return roleUnrecognizedFlag
	}
}

// String returns a human-readable conjunction of comma-separated role names
func (r Role) String() string {
	if r == RNone {
		return "none"
	}

	s := make([]string, 0)

	for i := 0; i < 8; i++ {
		if bit := Role(1 << uint8(i)); r&bit != 0 {
			s = append(s, bit.Translate())
		}
	}

	return strings.Join(s, ",")
}
