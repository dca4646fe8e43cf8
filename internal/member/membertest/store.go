// Package membertest provides an in-memory member repository for tests of
// the services that look members up.
package membertest

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"

	"recogym/internal/apperr"
	"recogym/internal/member"
)

type Store struct {
	mu      sync.Mutex
	nextID  int
	members map[int]member.Member

	// ActiveSubscription answers HasActiveSubscription. Nil means no member
	// has an active subscription.
	ActiveSubscription func(memberID int, today time.Time) bool
}

func NewStore() *Store {
	return &Store{members: map[int]member.Member{}}
}

var _ member.Repository = (*Store)(nil)

// Add stores m as is, assigning an id when it has none.
func (s *Store) Add(m member.Member) *member.Member {
	s.mu.Lock()
	defer s.mu.Unlock()

	if m.ID == 0 {
		s.nextID++
		m.ID = s.nextID
	} else if m.ID > s.nextID {
		s.nextID = m.ID
	}
	if m.Status == "" {
		m.Status = member.StatusInactive
	}
	s.members[m.ID] = m
	out := m
	return &out
}

func (s *Store) WithTx(tx *sqlx.Tx) member.Repository {
	return s
}

func (s *Store) Create(ctx context.Context, m *member.Member) (*member.Member, error) {
	s.mu.Lock()
	for _, existing := range s.members {
		if existing.Code == m.Code {
			s.mu.Unlock()
			return nil, apperr.Validation("member code %q is already in use", m.Code)
		}
	}
	s.mu.Unlock()

	created := *m
	created.ID = 0
	created.RegisteredAt = time.Now()
	return s.Add(created), nil
}

func (s *Store) Get(ctx context.Context, id int) (*member.Member, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.members[id]
	if !ok {
		return nil, apperr.NotFound("member %d not found", id)
	}
	return &m, nil
}

func (s *Store) GetByCode(ctx context.Context, code string) (*member.Member, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, m := range s.members {
		if m.Code == code {
			out := m
			return &out, nil
		}
	}
	return nil, apperr.NotFound("member %s not found", code)
}

func (s *Store) CodeExists(ctx context.Context, code string) (bool, error) {
	_, err := s.GetByCode(ctx, code)
	return err == nil, nil
}

func (s *Store) List(ctx context.Context, f member.Filter) ([]member.Member, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	q := strings.ToLower(f.Search)
	out := []member.Member{}
	for _, m := range s.members {
		if f.Type != "" && m.Type != f.Type {
			continue
		}
		if q != "" &&
			!strings.Contains(strings.ToLower(m.Code), q) &&
			!strings.Contains(strings.ToLower(m.FirstName), q) &&
			!strings.Contains(strings.ToLower(m.LastName), q) {
			continue
		}
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) Update(ctx context.Context, m *member.Member) (*member.Member, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.members[m.ID]
	if !ok {
		return nil, apperr.NotFound("member %d not found", m.ID)
	}
	current.FirstName = m.FirstName
	current.LastName = m.LastName
	current.Phone = m.Phone
	current.Email = m.Email
	current.Address = m.Address
	s.members[m.ID] = current
	return &current, nil
}

func (s *Store) UpdateType(ctx context.Context, id int, t member.Type) error {
	return s.modify(id, func(m *member.Member) { m.Type = t })
}

func (s *Store) UpdateStatus(ctx context.Context, id int, status member.Status) error {
	return s.modify(id, func(m *member.Member) { m.Status = status })
}

func (s *Store) Delete(ctx context.Context, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.members[id]; !ok {
		return apperr.NotFound("member %d not found", id)
	}
	delete(s.members, id)
	return nil
}

func (s *Store) HasActiveSubscription(ctx context.Context, memberID int, today time.Time) (bool, error) {
	if s.ActiveSubscription == nil {
		return false, nil
	}
	return s.ActiveSubscription(memberID, today), nil
}

func (s *Store) modify(id int, fn func(m *member.Member)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.members[id]
	if !ok {
		return apperr.NotFound("member %d not found", id)
	}
	fn(&m)
	s.members[id] = m
	return nil
}
