// Package inmemory provides a map-backed Store used by tests.
package inmemory

import (
	"database/sql"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Nusantara-Apps/rutina/internal/db"
	"github.com/Nusantara-Apps/rutina/internal/model"
)

type InMemoryStore struct {
	mu         sync.RWMutex
	nextUserID int
	users      map[int]model.User
	checklists map[uuid.UUID]model.Checklist
	days       map[uuid.UUID][]model.RepeatDay
}

var _ db.Store = (*InMemoryStore)(nil)

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		users:      make(map[int]model.User),
		checklists: make(map[uuid.UUID]model.Checklist),
		days:       make(map[uuid.UUID][]model.RepeatDay),
	}
}

func (s *InMemoryStore) CreateUser(name, email, hashedPassword, role string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Email == email {
			return nil, db.ErrDuplicateEmail
		}
	}

	s.nextUserID++
	now := time.Now()
	u := model.User{
		ID:             s.nextUserID,
		Name:           name,
		Email:          email,
		HashedPassword: hashedPassword,
		Role:           role,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	s.users[u.ID] = u
	out := u
	return &out, nil
}

func (s *InMemoryStore) GetUserByEmail(email string) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if u.Email == email {
			out := u
			return &out, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *InMemoryStore) GetUserByID(id int) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	out := u
	return &out, nil
}

func (s *InMemoryStore) CreateChecklist(c *model.Checklist) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	c.CreatedAt = now
	c.UpdatedAt = now
	s.checklists[c.ID] = *c
	return nil
}

func (s *InMemoryStore) GetChecklistByID(id uuid.UUID) (*model.Checklist, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.checklists[id]
	if !ok || c.DeletedAt != nil {
		return nil, sql.ErrNoRows
	}
	out := c
	return &out, nil
}

func (s *InMemoryStore) GetDeletedChecklistByID(id uuid.UUID) (*model.Checklist, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.checklists[id]
	if !ok || c.DeletedAt == nil {
		return nil, sql.ErrNoRows
	}
	out := c
	return &out, nil
}

func (s *InMemoryStore) ListChecklists(filter db.ChecklistFilter) ([]model.Checklist, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []model.Checklist
	for _, c := range s.checklists {
		if c.DeletedAt != nil {
			continue
		}
		if filter.OwnerID != nil && c.OwnerID != *filter.OwnerID {
			continue
		}
		if filter.Completed != nil && c.IsCompleted != *filter.Completed {
			continue
		}
		if filter.DueFrom != nil && c.DueTime.Before(*filter.DueFrom) {
			continue
		}
		if filter.DueBefore != nil && !c.DueTime.Before(*filter.DueBefore) {
			continue
		}
		out = append(out, c)
	}
	sortByDue(out)
	return out, nil
}

func (s *InMemoryStore) UpdateChecklist(c *model.Checklist) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.checklists[c.ID]
	if !ok {
		return sql.ErrNoRows
	}
	stored.Title = c.Title
	stored.DueTime = c.DueTime
	stored.RepeatInterval = c.RepeatInterval
	stored.RepeatType = c.RepeatType
	stored.RepeatEndDate = c.RepeatEndDate
	stored.RepeatMaxCount = c.RepeatMaxCount
	stored.RepeatCurrentCount = c.RepeatCurrentCount
	stored.IsCompleted = c.IsCompleted
	stored.UpdatedAt = time.Now()
	s.checklists[c.ID] = stored
	return nil
}

func (s *InMemoryStore) SetChecklistDueTime(id uuid.UUID, due time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.checklists[id]
	if !ok || c.DeletedAt != nil {
		return nil
	}
	c.DueTime = due
	c.UpdatedAt = time.Now()
	s.checklists[id] = c
	return nil
}

func (s *InMemoryStore) MarkCompleted(id uuid.UUID) (bool, error) {
	return s.setCompleted(id, true)
}

func (s *InMemoryStore) MarkUncompleted(id uuid.UUID) (bool, error) {
	return s.setCompleted(id, false)
}

func (s *InMemoryStore) setCompleted(id uuid.UUID, completed bool) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.checklists[id]
	if !ok || c.DeletedAt != nil || c.IsCompleted == completed {
		return false, nil
	}
	c.IsCompleted = completed
	c.UpdatedAt = time.Now()
	s.checklists[id] = c
	return true, nil
}

func (s *InMemoryStore) AdjustRepeatCount(id uuid.UUID, delta int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.checklists[id]
	if !ok {
		return nil
	}
	c.RepeatCurrentCount += delta
	c.UpdatedAt = time.Now()
	s.checklists[id] = c
	return nil
}

func (s *InMemoryStore) SoftDeleteChecklist(id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.checklists[id]
	if !ok || c.DeletedAt != nil {
		return nil
	}
	now := time.Now()
	c.DeletedAt = &now
	c.UpdatedAt = now
	s.checklists[id] = c
	return nil
}

func (s *InMemoryStore) SoftDeleteFamily(parentID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	for id, c := range s.checklists {
		if c.ParentID == parentID && c.DeletedAt == nil {
			at := now
			c.DeletedAt = &at
			c.UpdatedAt = now
			s.checklists[id] = c
		}
	}
	return nil
}

func (s *InMemoryStore) RestoreChecklist(id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.checklists[id]
	if !ok || c.DeletedAt == nil {
		return nil
	}
	c.DeletedAt = nil
	c.UpdatedAt = time.Now()
	s.checklists[id] = c
	return nil
}

func (s *InMemoryStore) RestoreFamily(parentID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	for id, c := range s.checklists {
		if c.ParentID == parentID && c.DeletedAt != nil {
			c.DeletedAt = nil
			c.UpdatedAt = now
			s.checklists[id] = c
		}
	}
	return nil
}

func (s *InMemoryStore) LatestDeletedSibling(parentID uuid.UUID) (*model.Checklist, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var latest *model.Checklist
	for _, c := range s.checklists {
		if c.ParentID != parentID || c.ID == parentID || c.DeletedAt == nil {
			continue
		}
		if latest == nil || c.DeletedAt.After(*latest.DeletedAt) {
			found := c
			latest = &found
		}
	}
	return latest, nil
}

func (s *InMemoryStore) LatestCompletedSibling(parentID uuid.UUID) (*model.Checklist, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var latest *model.Checklist
	for _, c := range s.checklists {
		if c.ParentID != parentID || !c.IsCompleted || c.DeletedAt != nil {
			continue
		}
		if latest == nil || c.DueTime.After(latest.DueTime) {
			found := c
			latest = &found
		}
	}
	return latest, nil
}

func (s *InMemoryStore) ListActiveIncompleteSiblings(parentID uuid.UUID) ([]model.Checklist, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []model.Checklist
	for _, c := range s.checklists {
		if c.ParentID != parentID || c.ID == parentID {
			continue
		}
		if c.IsCompleted || c.DeletedAt != nil {
			continue
		}
		out = append(out, c)
	}
	sortByDue(out)
	return out, nil
}

func (s *InMemoryStore) SiblingGeneratedFrom(instanceID uuid.UUID) (*model.Checklist, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, c := range s.checklists {
		if c.GeneratedFromID != nil && *c.GeneratedFromID == instanceID && c.DeletedAt == nil {
			out := c
			return &out, nil
		}
	}
	return nil, nil
}

func (s *InMemoryStore) ReviveSibling(id uuid.UUID, due time.Time, generatedFrom uuid.UUID, count int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.checklists[id]
	if !ok {
		return sql.ErrNoRows
	}
	from := generatedFrom
	c.DeletedAt = nil
	c.IsCompleted = false
	c.DueTime = due
	c.GeneratedFromID = &from
	c.RepeatCurrentCount = count
	c.UpdatedAt = time.Now()
	s.checklists[id] = c
	return nil
}

func (s *InMemoryStore) PropagateFamilyConfig(original *model.Checklist) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	for id, c := range s.checklists {
		if c.ParentID != original.ParentID || c.ID == original.ParentID || c.DeletedAt == nil {
			continue
		}
		c.Title = original.Title
		c.RepeatInterval = original.RepeatInterval
		c.RepeatType = original.RepeatType
		c.RepeatEndDate = original.RepeatEndDate
		c.RepeatMaxCount = original.RepeatMaxCount
		c.UpdatedAt = now
		s.checklists[id] = c
	}
	return nil
}

func (s *InMemoryStore) GetRepeatDays(parentID uuid.UUID) ([]model.RepeatDay, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]model.RepeatDay(nil), s.days[parentID]...), nil
}

func (s *InMemoryStore) GetRepeatDaysForParents(parentIDs []uuid.UUID) (map[uuid.UUID][]model.RepeatDay, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[uuid.UUID][]model.RepeatDay, len(parentIDs))
	for _, id := range parentIDs {
		if rows, ok := s.days[id]; ok {
			out[id] = append([]model.RepeatDay(nil), rows...)
		}
	}
	return out, nil
}

func (s *InMemoryStore) ReplaceRepeatDays(parentID uuid.UUID, days []model.Weekday) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(days) == 0 {
		delete(s.days, parentID)
		return nil
	}
	now := time.Now()
	rows := make([]model.RepeatDay, 0, len(days))
	for _, day := range days {
		rows = append(rows, model.RepeatDay{
			ID:        uuid.New(),
			ParentID:  parentID,
			Day:       day,
			CreatedAt: now,
			UpdatedAt: now,
		})
	}
	s.days[parentID] = rows
	return nil
}

func sortByDue(list []model.Checklist) {
	sort.Slice(list, func(i, j int) bool {
		if list[i].DueTime.Equal(list[j].DueTime) {
			return list[i].CreatedAt.Before(list[j].CreatedAt)
		}
		return list[i].DueTime.Before(list[j].DueTime)
	})
}
