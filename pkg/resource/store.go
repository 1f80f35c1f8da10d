package resource

import (
	"context"

	"github.com/google/uuid"
)

// Store describes a storage contract for tracker resources.
// Every authorization decision re-reads current ownership and membership
// through this contract; implementations must not cache across calls.
type Store interface {
	// single-instance reads, used by the chain validator and role resolver
	FetchByRef(ctx context.Context, ref Ref) (Node, error)

	// root kind listings
	FetchBoards(ctx context.Context) ([]Board, error)
	FetchBoardsByPrincipal(ctx context.Context, principalID uuid.UUID) ([]Board, error)
	FetchProjects(ctx context.Context) ([]Project, error)
	FetchProjectsByPrincipal(ctx context.Context, principalID uuid.UUID) ([]Project, error)

	// child listings, creation-insertion order
	FetchSectionsByProject(ctx context.Context, projectID uuid.UUID) ([]Section, error)
	FetchTasksBySection(ctx context.Context, sectionID uuid.UUID) ([]Task, error)

	// writes, used by the manager layer after authorization;
	// UpsertBoard must persist the board and its owner's membership
	// as a single atomic unit
	UpsertBoard(ctx context.Context, b Board) (Board, error)
	UpsertProject(ctx context.Context, p Project) (Project, error)
	UpsertSection(ctx context.Context, s Section) (Section, error)
	UpsertTask(ctx context.Context, t Task) (Task, error)
	DeleteByRef(ctx context.Context, ref Ref) error
}
