package resource

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// errors
var (
	ErrBoardNotFound      = errors.New("board not found")
	ErrProjectNotFound    = errors.New("project not found")
	ErrSectionNotFound    = errors.New("section not found")
	ErrTaskNotFound       = errors.New("task not found")
	ErrUnknownKind        = errors.New("unknown resource kind")
	ErrZeroID             = errors.New("id is zero")
	ErrNonZeroID          = errors.New("id is not zero")
	ErrNilResource        = errors.New("resource is nil")
	ErrNoParent           = errors.New("resource kind has no parent")
	ErrDuplicateResource  = errors.New("duplicate resource")
	ErrEmptyTitle         = errors.New("empty title")
	ErrInvalidPriority    = errors.New("invalid task priority")
	ErrInvalidStatus      = errors.New("invalid task status")
	ErrDeadlineInPast     = errors.New("deadline cannot be in the past")
	ErrUnexpectedKind     = errors.New("unexpected resource kind")
	ErrMembersOnNonRoot   = errors.New("membership is only held by root kinds")
	ErrOwnerlessResource  = errors.New("resource has no owner")
	ErrParentNotFound     = errors.New("parent resource not found")
	ErrNothingChanged     = errors.New("nothing changed")
	ErrAlreadyMember      = errors.New("already a member")
	ErrNotMember          = errors.New("not a member")
	ErrUnsupportedListing = errors.New("kind does not support this listing")
)

// Kind designates a resource kind i.e. Board, Project etc...
type Kind uint8

// resource kinds
const (
	KNone Kind = iota
	KBoard
	KProject
	KSection
	KTask
)

func (k Kind) String() string {
	switch k {
	case KBoard:
		return "board"
	case KProject:
		return "project"
	case KSection:
		return "section"
	case KTask:
		return "task"
	default:
		return "unknown resource kind"
	}
}

// Ref addresses a single resource instance by kind and id
type Ref struct {
	Kind Kind      `json:"kind"`
	ID   uuid.UUID `json:"id"`
}

// NewRef is a shorthand initializer
func NewRef(k Kind, id uuid.UUID) Ref {
	return Ref{Kind: k, ID: id}
}

func (r Ref) String() string {
	return fmt.Sprintf("%s(%s)", r.Kind, r.ID)
}

// Validate performs basic sanity checks on the reference itself
func (r Ref) Validate() error {
	if r.Kind == KNone {
		return ErrUnknownKind
	}

	if r.ID == uuid.Nil {
		return ErrZeroID
	}

	return nil
}

// Node is any stored resource instance the engine can address and walk
type Node interface {
	NodeRef() Ref

	// ParentRef returns the reference of the immediately enclosing
	// resource; ok is false for root kinds
	ParentRef() (ref Ref, ok bool)
}

// Root is a node that carries explicit ownership and membership data,
// i.e. an authorization root (Board and Project)
type Root interface {
	Node

	Owner() uuid.UUID
	IsMember(id uuid.UUID) bool
}

// Descriptor is static hierarchy metadata for a single resource kind
type Descriptor struct {
	Kind       Kind
	Parent     Kind
	HasOwner   bool
	HasMembers bool
}

// the hierarchy is fixed: boards and projects are roots,
// sections live under projects, tasks under sections
var hierarchy = map[Kind]Descriptor{
	KBoard:   {Kind: KBoard, Parent: KNone, HasOwner: true, HasMembers: true},
	KProject: {Kind: KProject, Parent: KNone, HasOwner: true, HasMembers: true},
	KSection: {Kind: KSection, Parent: KProject, HasOwner: false, HasMembers: false},
	KTask:    {Kind: KTask, Parent: KSection, HasOwner: false, HasMembers: false},
}

// MaxDepth is the longest possible walk from any node to its
// authorization root (task -> section -> project)
const MaxDepth = 3

// Describe returns hierarchy metadata for a given kind
func Describe(k Kind) (Descriptor, error) {
	d, ok := hierarchy[k]
	if !ok {
		return d, ErrUnknownKind
	}

	return d, nil
}

// IsRoot reports whether a kind is its own authorization root
func IsRoot(k Kind) bool {
	d, ok := hierarchy[k]
	return ok && d.Parent == KNone
}

// NotFoundError returns the kind-specific not found error
func NotFoundError(k Kind) error {
	switch k {
	case KBoard:
		return ErrBoardNotFound
	case KProject:
		return ErrProjectNotFound
	case KSection:
		return ErrSectionNotFound
	case KTask:
		return ErrTaskNotFound
	default:
		return ErrUnknownKind
	}
}

// IsNotFound reports whether a given error denotes an absent resource
func IsNotFound(err error) bool {
	switch err {
	case ErrBoardNotFound, ErrProjectNotFound, ErrSectionNotFound, ErrTaskNotFound, ErrParentNotFound:
		return true
	default:
		return false
	}
}
