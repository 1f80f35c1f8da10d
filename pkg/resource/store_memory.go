package resource

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// memoryStore keeps everything in process memory; it backs the tests
// and any embedding application that has no durable storage yet
type memoryStore struct {
	boards   map[uuid.UUID]Board
	projects map[uuid.UUID]Project
	sections map[uuid.UUID]Section
	tasks    map[uuid.UUID]Task

	// creation-insertion order
	boardOrder   []uuid.UUID
	projectOrder []uuid.UUID
	sectionOrder map[uuid.UUID][]uuid.UUID
	taskOrder    map[uuid.UUID][]uuid.UUID

	sync.RWMutex
}

// NewMemoryStore returns an initialized in-memory resource store
func NewMemoryStore() Store {
	return &memoryStore{
		boards:       make(map[uuid.UUID]Board),
		projects:     make(map[uuid.UUID]Project),
		sections:     make(map[uuid.UUID]Section),
		tasks:        make(map[uuid.UUID]Task),
		boardOrder:   make([]uuid.UUID, 0),
		projectOrder: make([]uuid.UUID, 0),
		sectionOrder: make(map[uuid.UUID][]uuid.UUID),
		taskOrder:    make(map[uuid.UUID][]uuid.UUID),
	}
}

func copyIDs(ids []uuid.UUID) []uuid.UUID {
	cp := make([]uuid.UUID, len(ids))
	copy(cp, ids)

	return cp
}

func (s *memoryStore) FetchByRef(ctx context.Context, ref Ref) (Node, error) {
	if err := ref.Validate(); err != nil {
		return nil, err
	}

	s.RLock()
	defer s.RUnlock()

	switch ref.Kind {
	case KBoard:
		if b, ok := s.boards[ref.ID]; ok {
			b.MemberIDs = copyIDs(b.MemberIDs)
			return b, nil
		}
	case KProject:
		if p, ok := s.projects[ref.ID]; ok {
			p.MemberIDs = copyIDs(p.MemberIDs)
			return p, nil
		}
	case KSection:
		if sec, ok := s.sections[ref.ID]; ok {
			return sec, nil
		}
	case KTask:
		if t, ok := s.tasks[ref.ID]; ok {
			return t, nil
		}
	default:
		return nil, ErrUnknownKind
	}

	return nil, NotFoundError(ref.Kind)
}

func (s *memoryStore) FetchBoards(ctx context.Context) ([]Board, error) {
	s.RLock()
	defer s.RUnlock()

	bs := make([]Board, 0, len(s.boardOrder))
	for _, id := range s.boardOrder {
		b := s.boards[id]
		b.MemberIDs = copyIDs(b.MemberIDs)
		bs = append(bs, b)
	}

	return bs, nil
}

func (s *memoryStore) FetchBoardsByPrincipal(ctx context.Context, principalID uuid.UUID) ([]Board, error) {
	s.RLock()
	defer s.RUnlock()

	bs := make([]Board, 0)
	for _, id := range s.boardOrder {
		b := s.boards[id]
		if b.OwnerID == principalID || b.IsMember(principalID) {
			b.MemberIDs = copyIDs(b.MemberIDs)
			bs = append(bs, b)
		}
	}

	return bs, nil
}

func (s *memoryStore) FetchProjects(ctx context.Context) ([]Project, error) {
	s.RLock()
	defer s.RUnlock()

	ps := make([]Project, 0, len(s.projectOrder))
	for _, id := range s.projectOrder {
		p := s.projects[id]
		p.MemberIDs = copyIDs(p.MemberIDs)
		ps = append(ps, p)
	}

	return ps, nil
}

func (s *memoryStore) FetchProjectsByPrincipal(ctx context.Context, principalID uuid.UUID) ([]Project, error) {
	s.RLock()
	defer s.RUnlock()

	ps := make([]Project, 0)
	for _, id := range s.projectOrder {
		p := s.projects[id]
		if p.OwnerID == principalID || p.IsMember(principalID) {
			p.MemberIDs = copyIDs(p.MemberIDs)
			ps = append(ps, p)
		}
	}

	return ps, nil
}

func (s *memoryStore) FetchSectionsByProject(ctx context.Context, projectID uuid.UUID) ([]Section, error) {
	s.RLock()
	defer s.RUnlock()

	ids := s.sectionOrder[projectID]
	secs := make([]Section, 0, len(ids))
	for _, id := range ids {
		secs = append(secs, s.sections[id])
	}

	return secs, nil
}

func (s *memoryStore) FetchTasksBySection(ctx context.Context, sectionID uuid.UUID) ([]Task, error) {
	s.RLock()
	defer s.RUnlock()

	ids := s.taskOrder[sectionID]
	ts := make([]Task, 0, len(ids))
	for _, id := range ids {
		ts = append(ts, s.tasks[id])
	}

	return ts, nil
}

func (s *memoryStore) UpsertBoard(ctx context.Context, b Board) (Board, error) {
	s.Lock()
	defer s.Unlock()

	if b.ID == uuid.Nil {
		b.ID = uuid.New()
		b.CreatedAt = time.Now()
		s.boardOrder = append(s.boardOrder, b.ID)

		// the owner is always enrolled as a member of its own board
		if !b.IsMember(b.OwnerID) {
			b.MemberIDs = append(copyIDs(b.MemberIDs), b.OwnerID)
		}
	} else if _, ok := s.boards[b.ID]; !ok {
		return b, ErrBoardNotFound
	}

	b.MemberIDs = copyIDs(b.MemberIDs)
	s.boards[b.ID] = b

	return b, nil
}

func (s *memoryStore) UpsertProject(ctx context.Context, p Project) (Project, error) {
	s.Lock()
	defer s.Unlock()

	if p.ID == uuid.Nil {
		p.ID = uuid.New()
		p.CreatedAt = time.Now()
		s.projectOrder = append(s.projectOrder, p.ID)
	} else if _, ok := s.projects[p.ID]; !ok {
		return p, ErrProjectNotFound
	}

	p.MemberIDs = copyIDs(p.MemberIDs)
	s.projects[p.ID] = p

	return p, nil
}

func (s *memoryStore) UpsertSection(ctx context.Context, sec Section) (Section, error) {
	s.Lock()
	defer s.Unlock()

	if _, ok := s.projects[sec.ProjectID]; !ok {
		return sec, ErrProjectNotFound
	}

	if sec.ID == uuid.Nil {
		sec.ID = uuid.New()
		sec.CreatedAt = time.Now()
		s.sectionOrder[sec.ProjectID] = append(s.sectionOrder[sec.ProjectID], sec.ID)
	} else if _, ok := s.sections[sec.ID]; !ok {
		return sec, ErrSectionNotFound
	}

	s.sections[sec.ID] = sec

	return sec, nil
}

func (s *memoryStore) UpsertTask(ctx context.Context, t Task) (Task, error) {
	s.Lock()
	defer s.Unlock()

	if _, ok := s.sections[t.SectionID]; !ok {
		return t, ErrSectionNotFound
	}

	if t.ID == uuid.Nil {
		t.ID = uuid.New()
		t.CreatedAt = time.Now()
		s.taskOrder[t.SectionID] = append(s.taskOrder[t.SectionID], t.ID)
	} else if _, ok := s.tasks[t.ID]; !ok {
		return t, ErrTaskNotFound
	}

	s.tasks[t.ID] = t

	return t, nil
}

func (s *memoryStore) DeleteByRef(ctx context.Context, ref Ref) error {
	if err := ref.Validate(); err != nil {
		return err
	}

	s.Lock()
	defer s.Unlock()

	switch ref.Kind {
	case KBoard:
		if _, ok := s.boards[ref.ID]; !ok {
			return ErrBoardNotFound
		}

		delete(s.boards, ref.ID)
		s.boardOrder = dropID(s.boardOrder, ref.ID)
	case KProject:
		if _, ok := s.projects[ref.ID]; !ok {
			return ErrProjectNotFound
		}

		// cascading to sections and their tasks
		for _, sid := range s.sectionOrder[ref.ID] {
			s.deleteSectionLocked(sid)
		}
		delete(s.sectionOrder, ref.ID)

		delete(s.projects, ref.ID)
		s.projectOrder = dropID(s.projectOrder, ref.ID)
	case KSection:
		sec, ok := s.sections[ref.ID]
		if !ok {
			return ErrSectionNotFound
		}

		s.deleteSectionLocked(ref.ID)
		s.sectionOrder[sec.ProjectID] = dropID(s.sectionOrder[sec.ProjectID], ref.ID)
	case KTask:
		t, ok := s.tasks[ref.ID]
		if !ok {
			return ErrTaskNotFound
		}

		delete(s.tasks, ref.ID)
		s.taskOrder[t.SectionID] = dropID(s.taskOrder[t.SectionID], ref.ID)
	default:
		return ErrUnknownKind
	}

	return nil
}

// deleteSectionLocked removes a section and its tasks; caller holds the lock
func (s *memoryStore) deleteSectionLocked(sectionID uuid.UUID) {
	for _, tid := range s.taskOrder[sectionID] {
		delete(s.tasks, tid)
	}

	delete(s.taskOrder, sectionID)
	delete(s.sections, sectionID)
}

func dropID(ids []uuid.UUID, id uuid.UUID) []uuid.UUID {
	for i, cur := range ids {
		if cur == id {
			return append(ids[:i], ids[i+1:]...)
		}
	}

	return ids
}
