package resource

import (
	"context"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/gocraft/dbr/v2"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/taskward/taskward/internal/core"
)

// MySQLStore is the default durable resource store implementation
type MySQLStore struct {
	db *dbr.Connection
}

// NewMySQLStore returns a resource store with mysql used as a backend
func NewMySQLStore(db *dbr.Connection) (Store, error) {
	if db == nil {
		return nil, core.ErrNilDatabase
	}

	return &MySQLStore{db}, nil
}

//? BEGIN ->>>----------------------------------------------------------------
//? unexported utility functions

func (s *MySQLStore) loadOne(ctx context.Context, dst interface{}, notFound error, q string, args ...interface{}) error {
	err := s.db.NewSession(nil).
		SelectBySql(q, args...).
		LoadOneContext(ctx, dst)

	if err != nil {
		if err == dbr.ErrNotFound {
			return notFound
		}

		return err
	}

	return nil
}

func translateMySQLError(err error) error {
	if err == nil {
		return nil
	}

	if myerr, ok := err.(*mysql.MySQLError); ok && myerr.Number == 1062 {
		return ErrDuplicateResource
	}

	return err
}

// fetchMembers loads the membership relation for a set of root ids
func (s *MySQLStore) fetchMembers(ctx context.Context, table string, column string, ids []uuid.UUID) (map[uuid.UUID][]uuid.UUID, error) {
	members := make(map[uuid.UUID][]uuid.UUID, len(ids))

	if len(ids) == 0 {
		return members, nil
	}

	var rows []struct {
		RootID      uuid.UUID `db:"root_id"`
		PrincipalID uuid.UUID `db:"principal_id"`
	}

	_, err := s.db.NewSession(nil).
		Select(column+" AS root_id", "principal_id").
		From(table).
		Where(column+" IN ?", ids).
		LoadContext(ctx, &rows)

	if err != nil {
		return nil, errors.Wrapf(err, "failed to fetch %s relations", table)
	}

	for _, r := range rows {
		members[r.RootID] = append(members[r.RootID], r.PrincipalID)
	}

	return members, nil
}

// replaceMembers reconciles the membership relation inside an open transaction
func replaceMembers(ctx context.Context, tx *dbr.Tx, table string, column string, rootID uuid.UUID, memberIDs []uuid.UUID) error {
	if _, err := tx.DeleteFrom(table).Where(column+" = ?", rootID).ExecContext(ctx); err != nil {
		return err
	}

	for _, mid := range memberIDs {
		_, err := tx.InsertInto(table).
			Columns(column, "principal_id").
			Values(rootID, mid).
			ExecContext(ctx)

		if err != nil {
			return translateMySQLError(err)
		}
	}

	return nil
}

//? unexported utility functions
//? END ---<<<----------------------------------------------------------------

func (s *MySQLStore) FetchByRef(ctx context.Context, ref Ref) (Node, error) {
	if err := ref.Validate(); err != nil {
		return nil, err
	}

	switch ref.Kind {
	case KBoard:
		return s.fetchBoard(ctx, ref.ID)
	case KProject:
		return s.fetchProject(ctx, ref.ID)
	case KSection:
		var sec Section
		if err := s.loadOne(ctx, &sec, ErrSectionNotFound, "SELECT * FROM `section` WHERE id = ? LIMIT 1", ref.ID); err != nil {
			return nil, err
		}
		return sec, nil
	case KTask:
		var t Task
		if err := s.loadOne(ctx, &t, ErrTaskNotFound, "SELECT * FROM `task` WHERE id = ? LIMIT 1", ref.ID); err != nil {
			return nil, err
		}
		return t, nil
	default:
		return nil, ErrUnknownKind
	}
}

func (s *MySQLStore) fetchBoard(ctx context.Context, id uuid.UUID) (Board, error) {
	var b Board
	if err := s.loadOne(ctx, &b, ErrBoardNotFound, "SELECT * FROM `board` WHERE id = ? LIMIT 1", id); err != nil {
		return b, err
	}

	members, err := s.fetchMembers(ctx, "board_member", "board_id", []uuid.UUID{id})
	if err != nil {
		return b, err
	}

	b.MemberIDs = members[id]

	return b, nil
}

func (s *MySQLStore) fetchProject(ctx context.Context, id uuid.UUID) (Project, error) {
	var p Project
	if err := s.loadOne(ctx, &p, ErrProjectNotFound, "SELECT * FROM `project` WHERE id = ? LIMIT 1", id); err != nil {
		return p, err
	}

	members, err := s.fetchMembers(ctx, "project_member", "project_id", []uuid.UUID{id})
	if err != nil {
		return p, err
	}

	p.MemberIDs = members[id]

	return p, nil
}

func (s *MySQLStore) FetchBoards(ctx context.Context) ([]Board, error) {
	var bs []Board

	_, err := s.db.NewSession(nil).
		SelectBySql("SELECT * FROM `board` ORDER BY created_at").
		LoadContext(ctx, &bs)

	if err != nil {
		return nil, err
	}

	return s.attachBoardMembers(ctx, bs)
}

// FetchBoardsByPrincipal returns boards owned by or shared with a principal.
// DISTINCT folds the duplicate rows a multi-valued membership join produces.
func (s *MySQLStore) FetchBoardsByPrincipal(ctx context.Context, principalID uuid.UUID) ([]Board, error) {
	var bs []Board

	q := "SELECT DISTINCT b.* FROM `board` b " +
		"LEFT JOIN `board_member` m ON m.board_id = b.id " +
		"WHERE b.owner_id = ? OR m.principal_id = ? " +
		"ORDER BY b.created_at"

	_, err := s.db.NewSession(nil).
		SelectBySql(q, principalID, principalID).
		LoadContext(ctx, &bs)

	if err != nil {
		return nil, err
	}

	return s.attachBoardMembers(ctx, bs)
}

func (s *MySQLStore) attachBoardMembers(ctx context.Context, bs []Board) ([]Board, error) {
	ids := make([]uuid.UUID, 0, len(bs))
	for _, b := range bs {
		ids = append(ids, b.ID)
	}

	members, err := s.fetchMembers(ctx, "board_member", "board_id", ids)
	if err != nil {
		return nil, err
	}

	for i := range bs {
		bs[i].MemberIDs = members[bs[i].ID]
	}

	return bs, nil
}

func (s *MySQLStore) FetchProjects(ctx context.Context) ([]Project, error) {
	var ps []Project

	_, err := s.db.NewSession(nil).
		SelectBySql("SELECT * FROM `project` ORDER BY created_at").
		LoadContext(ctx, &ps)

	if err != nil {
		return nil, err
	}

	return s.attachProjectMembers(ctx, ps)
}

// FetchProjectsByPrincipal returns projects owned by or shared with a
// principal, deduplicated the same way as boards
func (s *MySQLStore) FetchProjectsByPrincipal(ctx context.Context, principalID uuid.UUID) ([]Project, error) {
	var ps []Project

	q := "SELECT DISTINCT p.* FROM `project` p " +
		"LEFT JOIN `project_member` m ON m.project_id = p.id " +
		"WHERE p.owner_id = ? OR m.principal_id = ? " +
		"ORDER BY p.created_at"

	_, err := s.db.NewSession(nil).
		SelectBySql(q, principalID, principalID).
		LoadContext(ctx, &ps)

	if err != nil {
		return nil, err
	}

	return s.attachProjectMembers(ctx, ps)
}

func (s *MySQLStore) attachProjectMembers(ctx context.Context, ps []Project) ([]Project, error) {
	ids := make([]uuid.UUID, 0, len(ps))
	for _, p := range ps {
		ids = append(ids, p.ID)
	}

	members, err := s.fetchMembers(ctx, "project_member", "project_id", ids)
	if err != nil {
		return nil, err
	}

	for i := range ps {
		ps[i].MemberIDs = members[ps[i].ID]
	}

	return ps, nil
}

func (s *MySQLStore) FetchSectionsByProject(ctx context.Context, projectID uuid.UUID) ([]Section, error) {
	var secs []Section

	_, err := s.db.NewSession(nil).
		SelectBySql("SELECT * FROM `section` WHERE project_id = ? ORDER BY created_at", projectID).
		LoadContext(ctx, &secs)

	if err != nil {
		return nil, err
	}

	return secs, nil
}

func (s *MySQLStore) FetchTasksBySection(ctx context.Context, sectionID uuid.UUID) ([]Task, error) {
	var ts []Task

	_, err := s.db.NewSession(nil).
		SelectBySql("SELECT * FROM `task` WHERE section_id = ? ORDER BY created_at", sectionID).
		LoadContext(ctx, &ts)

	if err != nil {
		return nil, err
	}

	return ts, nil
}

func (s *MySQLStore) UpsertBoard(ctx context.Context, b Board) (Board, error) {
	sess := s.db.NewSession(nil)

	tx, err := sess.Begin()
	if err != nil {
		return b, err
	}
	defer tx.RollbackUnlessCommitted()

	if b.ID == uuid.Nil {
		b.ID = uuid.New()
		b.CreatedAt = time.Now()

		// owner membership is part of the same transaction, a crash
		// cannot leave an ownerless-but-unlisted board behind
		if !b.IsMember(b.OwnerID) {
			b.MemberIDs = append(b.MemberIDs, b.OwnerID)
		}

		_, err = tx.InsertInto("board").
			Columns("id", "title", "owner_id", "created_at").
			Record(&b).
			ExecContext(ctx)

		if err != nil {
			return b, translateMySQLError(err)
		}
	} else {
		_, err = tx.Update("board").
			SetMap(map[string]interface{}{"title": b.Title}).
			Where("id = ?", b.ID).
			ExecContext(ctx)

		if err != nil {
			return b, err
		}
	}

	if err := replaceMembers(ctx, tx, "board_member", "board_id", b.ID, b.MemberIDs); err != nil {
		return b, err
	}

	if err := tx.Commit(); err != nil {
		return b, errors.Wrap(err, "failed to commit database transaction")
	}

	return b, nil
}

func (s *MySQLStore) UpsertProject(ctx context.Context, p Project) (Project, error) {
	sess := s.db.NewSession(nil)

	tx, err := sess.Begin()
	if err != nil {
		return p, err
	}
	defer tx.RollbackUnlessCommitted()

	if p.ID == uuid.Nil {
		p.ID = uuid.New()
		p.CreatedAt = time.Now()

		_, err = tx.InsertInto("project").
			Columns("id", "title", "owner_id", "created_at").
			Record(&p).
			ExecContext(ctx)

		if err != nil {
			return p, translateMySQLError(err)
		}
	} else {
		_, err = tx.Update("project").
			SetMap(map[string]interface{}{"title": p.Title}).
			Where("id = ?", p.ID).
			ExecContext(ctx)

		if err != nil {
			return p, err
		}
	}

	if err := replaceMembers(ctx, tx, "project_member", "project_id", p.ID, p.MemberIDs); err != nil {
		return p, err
	}

	if err := tx.Commit(); err != nil {
		return p, errors.Wrap(err, "failed to commit database transaction")
	}

	return p, nil
}

func (s *MySQLStore) UpsertSection(ctx context.Context, sec Section) (Section, error) {
	sess := s.db.NewSession(nil)

	if sec.ID == uuid.Nil {
		sec.ID = uuid.New()
		sec.CreatedAt = time.Now()

		_, err := sess.InsertInto("section").
			Columns("id", "name", "project_id", "created_at").
			Record(&sec).
			ExecContext(ctx)

		return sec, translateMySQLError(err)
	}

	// affected-rows cannot tell an absent row from an identical write,
	// so existence is checked explicitly
	var existing uuid.UUID
	if err := s.loadOne(ctx, &existing, ErrSectionNotFound, "SELECT id FROM `section` WHERE id = ? LIMIT 1", sec.ID); err != nil {
		return sec, err
	}

	_, err := sess.Update("section").
		SetMap(map[string]interface{}{"name": sec.Name}).
		Where("id = ?", sec.ID).
		ExecContext(ctx)

	return sec, err
}

func (s *MySQLStore) UpsertTask(ctx context.Context, t Task) (Task, error) {
	sess := s.db.NewSession(nil)

	if t.ID == uuid.Nil {
		t.ID = uuid.New()
		t.CreatedAt = time.Now()

		_, err := sess.InsertInto("task").
			Columns("id", "title", "description", "priority", "status", "section_id", "creator_id", "executor_id", "deadline", "created_at").
			Record(&t).
			ExecContext(ctx)

		return t, translateMySQLError(err)
	}

	_, err := sess.Update("task").
		SetMap(map[string]interface{}{
			"title":       t.Title,
			"description": t.Description,
			"priority":    t.Priority,
			"status":      t.Status,
			"executor_id": t.ExecutorID,
			"deadline":    t.Deadline,
		}).
		Where("id = ?", t.ID).
		ExecContext(ctx)

	return t, err
}

func (s *MySQLStore) DeleteByRef(ctx context.Context, ref Ref) error {
	if err := ref.Validate(); err != nil {
		return err
	}

	sess := s.db.NewSession(nil)

	tx, err := sess.Begin()
	if err != nil {
		return err
	}
	defer tx.RollbackUnlessCommitted()

	switch ref.Kind {
	case KBoard:
		if _, err = tx.DeleteFrom("board_member").Where("board_id = ?", ref.ID).ExecContext(ctx); err != nil {
			return err
		}

		if _, err = tx.DeleteFrom("board").Where("id = ?", ref.ID).ExecContext(ctx); err != nil {
			return err
		}
	case KProject:
		// cascading by hand, section ids first
		var sectionIDs []uuid.UUID
		if _, err = tx.Select("id").From("section").Where("project_id = ?", ref.ID).LoadContext(ctx, &sectionIDs); err != nil {
			return err
		}

		if len(sectionIDs) > 0 {
			if _, err = tx.DeleteFrom("task").Where("section_id IN ?", sectionIDs).ExecContext(ctx); err != nil {
				return err
			}
		}

		if _, err = tx.DeleteFrom("section").Where("project_id = ?", ref.ID).ExecContext(ctx); err != nil {
			return err
		}

		if _, err = tx.DeleteFrom("project_member").Where("project_id = ?", ref.ID).ExecContext(ctx); err != nil {
			return err
		}

		if _, err = tx.DeleteFrom("project").Where("id = ?", ref.ID).ExecContext(ctx); err != nil {
			return err
		}
	case KSection:
		if _, err = tx.DeleteFrom("task").Where("section_id = ?", ref.ID).ExecContext(ctx); err != nil {
			return err
		}

		if _, err = tx.DeleteFrom("section").Where("id = ?", ref.ID).ExecContext(ctx); err != nil {
			return err
		}
	case KTask:
		if _, err = tx.DeleteFrom("task").Where("id = ?", ref.ID).ExecContext(ctx); err != nil {
			return err
		}
	default:
		return ErrUnknownKind
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "failed to commit database transaction")
	}

	return nil
}
