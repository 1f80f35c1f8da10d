package tracker

import (
	"context"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/taskward/taskward/pkg/access"
	"github.com/taskward/taskward/pkg/principal"
	"github.com/taskward/taskward/pkg/resource"
)

// CreateBoard authorizes and persists a new board; the store enrolls
// the owner as a member in the same write
func (m *Manager) CreateBoard(ctx context.Context, p principal.Principal, b resource.Board) (resource.Board, error) {
	dec, err := m.engine.AuthorizeCreate(ctx, p, resource.KBoard, nil)
	if err != nil {
		return b, err
	}

	if !dec.Allowed() {
		return b, denial(dec, resource.KBoard)
	}

	b = access.StampBoard(p, b)

	if err := b.Validate(); err != nil {
		return b, err
	}

	b, err = m.store.UpsertBoard(ctx, b)
	if err != nil {
		return b, errors.Wrap(err, "failed to persist board")
	}

	m.Logger().Info("board created",
		zap.Stringer("board_id", b.ID),
		zap.Stringer("owner_id", b.OwnerID),
	)

	return b, nil
}

// ListBoards returns the boards visible to the acting principal
func (m *Manager) ListBoards(ctx context.Context, p principal.Principal) ([]resource.Board, error) {
	_, scope, err := m.engine.ScopeList(ctx, p, resource.KBoard, nil)
	if err != nil {
		return nil, err
	}

	if scope.All {
		return m.store.FetchBoards(ctx)
	}

	return m.store.FetchBoardsByPrincipal(ctx, scope.PrincipalID)
}

// GetBoard returns a single board, or not-found if the principal has
// no standing on it
func (m *Manager) GetBoard(ctx context.Context, p principal.Principal, boardID uuid.UUID) (b resource.Board, err error) {
	dec, err := m.engine.Authorize(ctx, p, access.ARead, []resource.Ref{
		resource.NewRef(resource.KBoard, boardID),
	})
	if err != nil {
		return b, err
	}

	if !dec.Allowed() {
		return b, denial(dec, resource.KBoard)
	}

	return dec.Node().(resource.Board), nil
}
