// Package storetest provides the in-memory Store used by unit tests,
// honoring the same error taxonomy as the real backends.
package storetest

import (
	"context"
	"sort"
	"sync"

	"github.com/pastoralsj/registro/server/models"
	"github.com/pastoralsj/registro/server/store"
)

type Store struct {
	mu      sync.Mutex
	nextID  uint
	records map[uint]models.Member

	// ForcedErr, when set, is returned by every operation to simulate
	// a failing backend.
	ForcedErr error

	// Call counters, so tests can assert "rejected before any store
	// call was issued".
	Inserts int
	Upserts int
	Deletes int
}

func New(seed ...models.Member) *Store {
	s := &Store{records: map[uint]models.Member{}}
	for _, m := range seed {
		s.mu.Lock()
		s.nextID++
		if m.ID == 0 {
			m.ID = s.nextID
		}
		s.records[m.ID] = m
		s.mu.Unlock()
	}
	return s
}

func (s *Store) Get(id uint) (models.Member, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.records[id]
	return m, ok
}

func (s *Store) ListAll(ctx context.Context, orderBy string) ([]models.Member, error) {
	if s.ForcedErr != nil {
		return nil, s.ForcedErr
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	members := []models.Member{}
	for _, m := range s.records {
		members = append(members, m)
	}

	sort.Slice(members, func(i, j int) bool { return members[i].ID < members[j].ID })
	return members, nil
}

func (s *Store) Find(ctx context.Context, filter store.Filter) ([]models.Member, error) {
	if s.ForcedErr != nil {
		return nil, s.ForcedErr
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	matches := []models.Member{}
	for _, m := range s.records {
		if filter.ID != nil && m.ID != *filter.ID {
			continue
		}
		if filter.Login != nil && m.Login != models.NormalizeLogin(*filter.Login) {
			continue
		}
		if filter.BornOn != nil && !filter.BornOn.SameDay(m.BirthDate) {
			continue
		}
		matches = append(matches, m)
	}

	sort.Slice(matches, func(i, j int) bool { return matches[i].ID < matches[j].ID })
	return matches, nil
}

func (s *Store) Insert(ctx context.Context, member *models.Member) error {
	s.Inserts++
	if s.ForcedErr != nil {
		return s.ForcedErr
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.records {
		if existing.Login == member.Login {
			return store.ErrConstraintViolation
		}
	}

	s.nextID++
	member.ID = s.nextID
	s.records[member.ID] = *member
	return nil
}

func (s *Store) Upsert(ctx context.Context, member *models.Member) error {
	s.Upserts++
	if s.ForcedErr != nil {
		return s.ForcedErr
	}

	if member.ID == 0 {
		s.Upserts--
		return s.Insert(ctx, member)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[member.ID]; !ok {
		return store.ErrNotFound
	}

	for id, existing := range s.records {
		if id != member.ID && existing.Login == member.Login {
			return store.ErrConstraintViolation
		}
	}

	s.records[member.ID] = *member
	return nil
}

func (s *Store) Delete(ctx context.Context, id uint) error {
	s.Deletes++
	if s.ForcedErr != nil {
		return s.ForcedErr
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, id)
	return nil
}
