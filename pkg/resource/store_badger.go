package resource

import (
	"context"
	"fmt"
	"time"

	"github.com/dgraph-io/badger"
	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"

	"github.com/taskward/taskward/internal/core"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// badgerStore is an embedded resource store for single-node deployments
type badgerStore struct {
	db *badger.DB
}

// NewBadgerStore initializes a badger-backed resource store
func NewBadgerStore(db *badger.DB) (Store, error) {
	if db == nil {
		return nil, core.ErrNilDatabase
	}

	return &badgerStore{db: db}, nil
}

func nodeKey(ref Ref) []byte {
	return []byte(fmt.Sprintf("%s:%s", ref.Kind, ref.ID))
}

// indexKey addresses the ordered child id list of a parent;
// root kinds are indexed under a single shared key
func indexKey(kind Kind, parentID uuid.UUID) []byte {
	if parentID == uuid.Nil {
		return []byte(fmt.Sprintf("idx:%s", kind))
	}

	return []byte(fmt.Sprintf("idx:%s:%s", kind, parentID))
}

func getValue(tx *badger.Txn, key []byte, dst interface{}, notFound error) error {
	item, err := tx.Get(key)
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return notFound
		}

		return errors.Wrapf(err, "failed to get %s", key)
	}

	data, err := item.ValueCopy(nil)
	if err != nil {
		return errors.Wrapf(err, "failed to copy value of %s", key)
	}

	return json.Unmarshal(data, dst)
}

func setValue(tx *badger.Txn, key []byte, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return errors.Wrapf(err, "failed to marshal %s", key)
	}

	return tx.Set(key, data)
}

func getIndex(tx *badger.Txn, key []byte) ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, 0)

	err := getValue(tx, key, &ids, nil)
	if err != nil {
		return nil, err
	}

	return ids, nil
}

func appendIndex(tx *badger.Txn, key []byte, id uuid.UUID) error {
	ids, err := getIndex(tx, key)
	if err != nil {
		return err
	}

	return setValue(tx, key, append(ids, id))
}

func removeIndex(tx *badger.Txn, key []byte, id uuid.UUID) error {
	ids, err := getIndex(tx, key)
	if err != nil {
		return err
	}

	return setValue(tx, key, dropID(ids, id))
}

func (s *badgerStore) FetchByRef(ctx context.Context, ref Ref) (Node, error) {
	if err := ref.Validate(); err != nil {
		return nil, err
	}

	var node Node

	err := s.db.View(func(tx *badger.Txn) error {
		switch ref.Kind {
		case KBoard:
			var b Board
			if err := getValue(tx, nodeKey(ref), &b, ErrBoardNotFound); err != nil {
				return err
			}
			node = b
		case KProject:
			var p Project
			if err := getValue(tx, nodeKey(ref), &p, ErrProjectNotFound); err != nil {
				return err
			}
			node = p
		case KSection:
			var sec Section
			if err := getValue(tx, nodeKey(ref), &sec, ErrSectionNotFound); err != nil {
				return err
			}
			node = sec
		case KTask:
			var t Task
			if err := getValue(tx, nodeKey(ref), &t, ErrTaskNotFound); err != nil {
				return err
			}
			node = t
		default:
			return ErrUnknownKind
		}

		return nil
	})

	return node, err
}

func (s *badgerStore) FetchBoards(ctx context.Context) (bs []Board, err error) {
	bs = make([]Board, 0)

	err = s.db.View(func(tx *badger.Txn) error {
		ids, err := getIndex(tx, indexKey(KBoard, uuid.Nil))
		if err != nil {
			return err
		}

		for _, id := range ids {
			var b Board
			if err := getValue(tx, nodeKey(NewRef(KBoard, id)), &b, ErrBoardNotFound); err != nil {
				return err
			}

			bs = append(bs, b)
		}

		return nil
	})

	return bs, err
}

func (s *badgerStore) FetchBoardsByPrincipal(ctx context.Context, principalID uuid.UUID) ([]Board, error) {
	bs, err := s.FetchBoards(ctx)
	if err != nil {
		return nil, err
	}

	scoped := make([]Board, 0, len(bs))
	for _, b := range bs {
		if b.OwnerID == principalID || b.IsMember(principalID) {
			scoped = append(scoped, b)
		}
	}

	return scoped, nil
}

func (s *badgerStore) FetchProjects(ctx context.Context) (ps []Project, err error) {
	ps = make([]Project, 0)

	err = s.db.View(func(tx *badger.Txn) error {
		ids, err := getIndex(tx, indexKey(KProject, uuid.Nil))
		if err != nil {
			return err
		}

		for _, id := range ids {
			var p Project
			if err := getValue(tx, nodeKey(NewRef(KProject, id)), &p, ErrProjectNotFound); err != nil {
				return err
			}

			ps = append(ps, p)
		}

		return nil
	})

	return ps, err
}

func (s *badgerStore) FetchProjectsByPrincipal(ctx context.Context, principalID uuid.UUID) ([]Project, error) {
	ps, err := s.FetchProjects(ctx)
	if err != nil {
		return nil, err
	}

	scoped := make([]Project, 0, len(ps))
	for _, p := range ps {
		if p.OwnerID == principalID || p.IsMember(principalID) {
			scoped = append(scoped, p)
		}
	}

	return scoped, nil
}

func (s *badgerStore) FetchSectionsByProject(ctx context.Context, projectID uuid.UUID) (secs []Section, err error) {
	secs = make([]Section, 0)

	err = s.db.View(func(tx *badger.Txn) error {
		ids, err := getIndex(tx, indexKey(KSection, projectID))
		if err != nil {
			return err
		}

		for _, id := range ids {
			var sec Section
			if err := getValue(tx, nodeKey(NewRef(KSection, id)), &sec, ErrSectionNotFound); err != nil {
				return err
			}

			secs = append(secs, sec)
		}

		return nil
	})

	return secs, err
}

func (s *badgerStore) FetchTasksBySection(ctx context.Context, sectionID uuid.UUID) (ts []Task, err error) {
	ts = make([]Task, 0)

	err = s.db.View(func(tx *badger.Txn) error {
		ids, err := getIndex(tx, indexKey(KTask, sectionID))
		if err != nil {
			return err
		}

		for _, id := range ids {
			var t Task
			if err := getValue(tx, nodeKey(NewRef(KTask, id)), &t, ErrTaskNotFound); err != nil {
				return err
			}

			ts = append(ts, t)
		}

		return nil
	})

	return ts, err
}

func (s *badgerStore) UpsertBoard(ctx context.Context, b Board) (Board, error) {
	err := s.db.Update(func(tx *badger.Txn) error {
		if b.ID == uuid.Nil {
			b.ID = uuid.New()
			b.CreatedAt = time.Now()

			// owner enrollment rides the same transaction
			if !b.IsMember(b.OwnerID) {
				b.MemberIDs = append(b.MemberIDs, b.OwnerID)
			}

			if err := appendIndex(tx, indexKey(KBoard, uuid.Nil), b.ID); err != nil {
				return err
			}
		}

		return setValue(tx, nodeKey(b.NodeRef()), b)
	})

	return b, err
}

func (s *badgerStore) UpsertProject(ctx context.Context, p Project) (Project, error) {
	err := s.db.Update(func(tx *badger.Txn) error {
		if p.ID == uuid.Nil {
			p.ID = uuid.New()
			p.CreatedAt = time.Now()

			if err := appendIndex(tx, indexKey(KProject, uuid.Nil), p.ID); err != nil {
				return err
			}
		}

		return setValue(tx, nodeKey(p.NodeRef()), p)
	})

	return p, err
}

func (s *badgerStore) UpsertSection(ctx context.Context, sec Section) (Section, error) {
	err := s.db.Update(func(tx *badger.Txn) error {
		if err := getValue(tx, nodeKey(NewRef(KProject, sec.ProjectID)), &Project{}, ErrProjectNotFound); err != nil {
			return err
		}

		if sec.ID == uuid.Nil {
			sec.ID = uuid.New()
			sec.CreatedAt = time.Now()

			if err := appendIndex(tx, indexKey(KSection, sec.ProjectID), sec.ID); err != nil {
				return err
			}
		}

		return setValue(tx, nodeKey(sec.NodeRef()), sec)
	})

	return sec, err
}

func (s *badgerStore) UpsertTask(ctx context.Context, t Task) (Task, error) {
	err := s.db.Update(func(tx *badger.Txn) error {
		if err := getValue(tx, nodeKey(NewRef(KSection, t.SectionID)), &Section{}, ErrSectionNotFound); err != nil {
			return err
		}

		if t.ID == uuid.Nil {
			t.ID = uuid.New()
			t.CreatedAt = time.Now()

			if err := appendIndex(tx, indexKey(KTask, t.SectionID), t.ID); err != nil {
				return err
			}
		}

		return setValue(tx, nodeKey(t.NodeRef()), t)
	})

	return t, err
}

func (s *badgerStore) DeleteByRef(ctx context.Context, ref Ref) error {
	if err := ref.Validate(); err != nil {
		return err
	}

	return s.db.Update(func(tx *badger.Txn) error {
		switch ref.Kind {
		case KBoard:
			if err := getValue(tx, nodeKey(ref), &Board{}, ErrBoardNotFound); err != nil {
				return err
			}

			if err := removeIndex(tx, indexKey(KBoard, uuid.Nil), ref.ID); err != nil {
				return err
			}

			return tx.Delete(nodeKey(ref))
		case KProject:
			if err := getValue(tx, nodeKey(ref), &Project{}, ErrProjectNotFound); err != nil {
				return err
			}

			// cascading to sections and their tasks
			sectionIDs, err := getIndex(tx, indexKey(KSection, ref.ID))
			if err != nil {
				return err
			}

			for _, sid := range sectionIDs {
				if err := deleteSectionTx(tx, sid); err != nil {
					return err
				}
			}

			if err := tx.Delete(indexKey(KSection, ref.ID)); err != nil {
				return err
			}

			if err := removeIndex(tx, indexKey(KProject, uuid.Nil), ref.ID); err != nil {
				return err
			}

			return tx.Delete(nodeKey(ref))
		case KSection:
			var sec Section
			if err := getValue(tx, nodeKey(ref), &sec, ErrSectionNotFound); err != nil {
				return err
			}

			if err := deleteSectionTx(tx, ref.ID); err != nil {
				return err
			}

			return removeIndex(tx, indexKey(KSection, sec.ProjectID), ref.ID)
		case KTask:
			var t Task
			if err := getValue(tx, nodeKey(ref), &t, ErrTaskNotFound); err != nil {
				return err
			}

			if err := removeIndex(tx, indexKey(KTask, t.SectionID), ref.ID); err != nil {
				return err
			}

			return tx.Delete(nodeKey(ref))
		default:
			return ErrUnknownKind
		}
	})
}

// deleteSectionTx removes a section and its tasks inside an open transaction
func deleteSectionTx(tx *badger.Txn, sectionID uuid.UUID) error {
	taskIDs, err := getIndex(tx, indexKey(KTask, sectionID))
	if err != nil {
		return err
	}

	for _, tid := range taskIDs {
		if err := tx.Delete(nodeKey(NewRef(KTask, tid))); err != nil {
			return err
		}
	}

	if err := tx.Delete(indexKey(KTask, sectionID)); err != nil {
		return err
	}

	return tx.Delete(nodeKey(NewRef(KSection, sectionID)))
}
