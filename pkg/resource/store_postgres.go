package resource

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx"
	"github.com/pkg/errors"

	"github.com/taskward/taskward/internal/core"
)

// PostgreSQLStore is a resource store backed by PostgreSQL
type PostgreSQLStore struct {
	db *pgx.Conn
}

// NewPostgreSQLStore returns a resource store with postgres used as a backend
func NewPostgreSQLStore(db *pgx.Conn) (Store, error) {
	if db == nil {
		return nil, core.ErrNilDatabase
	}

	return &PostgreSQLStore{db}, nil
}

func (s *PostgreSQLStore) memberIDs(ctx context.Context, table string, column string, rootID uuid.UUID) (ids []uuid.UUID, err error) {
	ids = make([]uuid.UUID, 0)

	rows, err := s.db.QueryEx(ctx, "SELECT principal_id FROM "+table+" WHERE "+column+" = $1", nil, rootID)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to fetch %s relations", table)
	}
	defer rows.Close()

	for rows.Next() {
		var id uuid.UUID
		if err = rows.Scan(&id); err != nil {
			return ids, errors.Wrap(err, "failed to scan principal id")
		}

		ids = append(ids, id)
	}

	return ids, nil
}

func (s *PostgreSQLStore) oneBoard(ctx context.Context, q string, args ...interface{}) (b Board, err error) {
	err = s.db.QueryRowEx(ctx, q, nil, args...).
		Scan(&b.ID, &b.Title, &b.OwnerID, &b.CreatedAt)

	switch err {
	case nil:
	case pgx.ErrNoRows:
		return b, ErrBoardNotFound
	default:
		return b, errors.Wrap(err, "failed to scan board")
	}

	b.MemberIDs, err = s.memberIDs(ctx, "board_member", "board_id", b.ID)

	return b, err
}

func (s *PostgreSQLStore) oneProject(ctx context.Context, q string, args ...interface{}) (p Project, err error) {
	err = s.db.QueryRowEx(ctx, q, nil, args...).
		Scan(&p.ID, &p.Title, &p.OwnerID, &p.CreatedAt)

	switch err {
	case nil:
	case pgx.ErrNoRows:
		return p, ErrProjectNotFound
	default:
		return p, errors.Wrap(err, "failed to scan project")
	}

	p.MemberIDs, err = s.memberIDs(ctx, "project_member", "project_id", p.ID)

	return p, err
}

func (s *PostgreSQLStore) FetchByRef(ctx context.Context, ref Ref) (Node, error) {
	if err := ref.Validate(); err != nil {
		return nil, err
	}

	switch ref.Kind {
	case KBoard:
		return s.oneBoard(ctx, "SELECT id, title, owner_id, created_at FROM board WHERE id = $1", ref.ID)
	case KProject:
		return s.oneProject(ctx, "SELECT id, title, owner_id, created_at FROM project WHERE id = $1", ref.ID)
	case KSection:
		var sec Section

		err := s.db.QueryRowEx(ctx, "SELECT id, name, project_id, created_at FROM section WHERE id = $1", nil, ref.ID).
			Scan(&sec.ID, &sec.Name, &sec.ProjectID, &sec.CreatedAt)

		switch err {
		case nil:
			return sec, nil
		case pgx.ErrNoRows:
			return nil, ErrSectionNotFound
		default:
			return nil, errors.Wrap(err, "failed to scan section")
		}
	case KTask:
		return s.oneTask(ctx, ref.ID)
	default:
		return nil, ErrUnknownKind
	}
}

func (s *PostgreSQLStore) oneTask(ctx context.Context, id uuid.UUID) (Node, error) {
	var t Task

	q := "SELECT id, title, description, priority, status, section_id, creator_id, executor_id, deadline, created_at FROM task WHERE id = $1"

	err := s.db.QueryRowEx(ctx, q, nil, id).
		Scan(&t.ID, &t.Title, &t.Description, &t.Priority, &t.Status, &t.SectionID, &t.CreatorID, &t.ExecutorID, &t.Deadline, &t.CreatedAt)

	switch err {
	case nil:
		return t, nil
	case pgx.ErrNoRows:
		return nil, ErrTaskNotFound
	default:
		return nil, errors.Wrap(err, "failed to scan task")
	}
}

func (s *PostgreSQLStore) manyBoards(ctx context.Context, q string, args ...interface{}) (bs []Board, err error) {
	bs = make([]Board, 0)

	rows, err := s.db.QueryEx(ctx, q, nil, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to fetch boards")
	}
	defer rows.Close()

	for rows.Next() {
		var b Board

		if err = rows.Scan(&b.ID, &b.Title, &b.OwnerID, &b.CreatedAt); err != nil {
			return bs, errors.Wrap(err, "failed to scan board")
		}

		bs = append(bs, b)
	}
	rows.Close()

	for i := range bs {
		if bs[i].MemberIDs, err = s.memberIDs(ctx, "board_member", "board_id", bs[i].ID); err != nil {
			return bs, err
		}
	}

	return bs, nil
}

func (s *PostgreSQLStore) manyProjects(ctx context.Context, q string, args ...interface{}) (ps []Project, err error) {
	ps = make([]Project, 0)

	rows, err := s.db.QueryEx(ctx, q, nil, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to fetch projects")
	}
	defer rows.Close()

	for rows.Next() {
		var p Project

		if err = rows.Scan(&p.ID, &p.Title, &p.OwnerID, &p.CreatedAt); err != nil {
			return ps, errors.Wrap(err, "failed to scan project")
		}

		ps = append(ps, p)
	}
	rows.Close()

	for i := range ps {
		if ps[i].MemberIDs, err = s.memberIDs(ctx, "project_member", "project_id", ps[i].ID); err != nil {
			return ps, err
		}
	}

	return ps, nil
}

func (s *PostgreSQLStore) FetchBoards(ctx context.Context) ([]Board, error) {
	return s.manyBoards(ctx, "SELECT id, title, owner_id, created_at FROM board ORDER BY created_at")
}

func (s *PostgreSQLStore) FetchBoardsByPrincipal(ctx context.Context, principalID uuid.UUID) ([]Board, error) {
	q := `
	SELECT DISTINCT b.id, b.title, b.owner_id, b.created_at
	FROM board b
	LEFT JOIN board_member m ON m.board_id = b.id
	WHERE b.owner_id = $1 OR m.principal_id = $1
	ORDER BY b.created_at`

	return s.manyBoards(ctx, q, principalID)
}

func (s *PostgreSQLStore) FetchProjects(ctx context.Context) ([]Project, error) {
	return s.manyProjects(ctx, "SELECT id, title, owner_id, created_at FROM project ORDER BY created_at")
}

func (s *PostgreSQLStore) FetchProjectsByPrincipal(ctx context.Context, principalID uuid.UUID) ([]Project, error) {
	q := `
	SELECT DISTINCT p.id, p.title, p.owner_id, p.created_at
	FROM project p
	LEFT JOIN project_member m ON m.project_id = p.id
	WHERE p.owner_id = $1 OR m.principal_id = $1
	ORDER BY p.created_at`

	return s.manyProjects(ctx, q, principalID)
}

func (s *PostgreSQLStore) FetchSectionsByProject(ctx context.Context, projectID uuid.UUID) (secs []Section, err error) {
	secs = make([]Section, 0)

	q := "SELECT id, name, project_id, created_at FROM section WHERE project_id = $1 ORDER BY created_at"

	rows, err := s.db.QueryEx(ctx, q, nil, projectID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to fetch sections")
	}
	defer rows.Close()

	for rows.Next() {
		var sec Section

		if err = rows.Scan(&sec.ID, &sec.Name, &sec.ProjectID, &sec.CreatedAt); err != nil {
			return secs, errors.Wrap(err, "failed to scan section")
		}

		secs = append(secs, sec)
	}

	return secs, nil
}

func (s *PostgreSQLStore) FetchTasksBySection(ctx context.Context, sectionID uuid.UUID) (ts []Task, err error) {
	ts = make([]Task, 0)

	q := "SELECT id, title, description, priority, status, section_id, creator_id, executor_id, deadline, created_at FROM task WHERE section_id = $1 ORDER BY created_at"

	rows, err := s.db.QueryEx(ctx, q, nil, sectionID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to fetch tasks")
	}
	defer rows.Close()

	for rows.Next() {
		var t Task

		if err = rows.Scan(&t.ID, &t.Title, &t.Description, &t.Priority, &t.Status, &t.SectionID, &t.CreatorID, &t.ExecutorID, &t.Deadline, &t.CreatedAt); err != nil {
			return ts, errors.Wrap(err, "failed to scan task")
		}

		ts = append(ts, t)
	}

	return ts, nil
}

func (s *PostgreSQLStore) UpsertBoard(ctx context.Context, b Board) (_ Board, err error) {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
		b.CreatedAt = time.Now()

		if !b.IsMember(b.OwnerID) {
			b.MemberIDs = append(b.MemberIDs, b.OwnerID)
		}
	}

	tx, err := s.db.BeginEx(ctx, nil)
	if err != nil {
		return b, err
	}
	defer tx.Rollback()

	q := `
	INSERT INTO board(id, title, owner_id, created_at)
	VALUES($1, $2, $3, $4)
	ON CONFLICT (id)
	DO UPDATE
		SET title = EXCLUDED.title`

	if _, err = tx.ExecEx(ctx, q, nil, b.ID, b.Title, b.OwnerID, b.CreatedAt); err != nil {
		return b, errors.Wrap(err, "failed to upsert board")
	}

	if err = replaceMembersPgx(ctx, tx, "board_member", "board_id", b.ID, b.MemberIDs); err != nil {
		return b, err
	}

	return b, tx.Commit()
}

func (s *PostgreSQLStore) UpsertProject(ctx context.Context, p Project) (_ Project, err error) {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
		p.CreatedAt = time.Now()
	}

	tx, err := s.db.BeginEx(ctx, nil)
	if err != nil {
		return p, err
	}
	defer tx.Rollback()

	q := `
	INSERT INTO project(id, title, owner_id, created_at)
	VALUES($1, $2, $3, $4)
	ON CONFLICT (id)
	DO UPDATE
		SET title = EXCLUDED.title`

	if _, err = tx.ExecEx(ctx, q, nil, p.ID, p.Title, p.OwnerID, p.CreatedAt); err != nil {
		return p, errors.Wrap(err, "failed to upsert project")
	}

	if err = replaceMembersPgx(ctx, tx, "project_member", "project_id", p.ID, p.MemberIDs); err != nil {
		return p, err
	}

	return p, tx.Commit()
}

func replaceMembersPgx(ctx context.Context, tx *pgx.Tx, table string, column string, rootID uuid.UUID, memberIDs []uuid.UUID) error {
	if _, err := tx.ExecEx(ctx, "DELETE FROM "+table+" WHERE "+column+" = $1", nil, rootID); err != nil {
		return errors.Wrapf(err, "failed to clear %s relations", table)
	}

	for _, mid := range memberIDs {
		q := "INSERT INTO " + table + "(" + column + ", principal_id) VALUES($1, $2)"

		if _, err := tx.ExecEx(ctx, q, nil, rootID, mid); err != nil {
			return errors.Wrapf(err, "failed to store %s relation", table)
		}
	}

	return nil
}

func (s *PostgreSQLStore) UpsertSection(ctx context.Context, sec Section) (_ Section, err error) {
	if sec.ID == uuid.Nil {
		sec.ID = uuid.New()
		sec.CreatedAt = time.Now()
	}

	q := `
	INSERT INTO section(id, name, project_id, created_at)
	VALUES($1, $2, $3, $4)
	ON CONFLICT (id)
	DO UPDATE
		SET name = EXCLUDED.name`

	if _, err = s.db.ExecEx(ctx, q, nil, sec.ID, sec.Name, sec.ProjectID, sec.CreatedAt); err != nil {
		return sec, errors.Wrap(err, "failed to upsert section")
	}

	return sec, nil
}

func (s *PostgreSQLStore) UpsertTask(ctx context.Context, t Task) (_ Task, err error) {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
		t.CreatedAt = time.Now()
	}

	q := `
	INSERT INTO task(id, title, description, priority, status, section_id, creator_id, executor_id, deadline, created_at)
	VALUES($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	ON CONFLICT (id)
	DO UPDATE
		SET title		= EXCLUDED.title,
			description	= EXCLUDED.description,
			priority	= EXCLUDED.priority,
			status		= EXCLUDED.status,
			executor_id	= EXCLUDED.executor_id,
			deadline	= EXCLUDED.deadline`

	_, err = s.db.ExecEx(ctx, q, nil,
		t.ID, t.Title, t.Description, t.Priority, t.Status, t.SectionID, t.CreatorID, t.ExecutorID, t.Deadline, t.CreatedAt)

	if err != nil {
		return t, errors.Wrap(err, "failed to upsert task")
	}

	return t, nil
}

func (s *PostgreSQLStore) DeleteByRef(ctx context.Context, ref Ref) error {
	if err := ref.Validate(); err != nil {
		return err
	}

	tx, err := s.db.BeginEx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	switch ref.Kind {
	case KBoard:
		if _, err = tx.ExecEx(ctx, "DELETE FROM board_member WHERE board_id = $1", nil, ref.ID); err != nil {
			return err
		}

		if _, err = tx.ExecEx(ctx, "DELETE FROM board WHERE id = $1", nil, ref.ID); err != nil {
			return err
		}
	case KProject:
		if _, err = tx.ExecEx(ctx, "DELETE FROM task WHERE section_id IN (SELECT id FROM section WHERE project_id = $1)", nil, ref.ID); err != nil {
			return err
		}

		if _, err = tx.ExecEx(ctx, "DELETE FROM section WHERE project_id = $1", nil, ref.ID); err != nil {
			return err
		}

		if _, err = tx.ExecEx(ctx, "DELETE FROM project_member WHERE project_id = $1", nil, ref.ID); err != nil {
			return err
		}

		if _, err = tx.ExecEx(ctx, "DELETE FROM project WHERE id = $1", nil, ref.ID); err != nil {
			return err
		}
	case KSection:
		if _, err = tx.ExecEx(ctx, "DELETE FROM task WHERE section_id = $1", nil, ref.ID); err != nil {
			return err
		}

		if _, err = tx.ExecEx(ctx, "DELETE FROM section WHERE id = $1", nil, ref.ID); err != nil {
			return err
		}
	case KTask:
		if _, err = tx.ExecEx(ctx, "DELETE FROM task WHERE id = $1", nil, ref.ID); err != nil {
			return err
		}
	default:
		return ErrUnknownKind
	}

	return tx.Commit()
}
