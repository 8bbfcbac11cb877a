package recurrence

import (
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/Nusantara-Apps/rutina/internal/db"
	"github.com/Nusantara-Apps/rutina/internal/model"
)

// Status describes what a completion did beyond marking the instance done.
type Status string

const (
	// StatusNoRepeat: the family never repeats, nothing was generated.
	StatusNoRepeat Status = "no_repeat"
	// StatusLimitReached: the repeat limit stopped generation.
	StatusLimitReached Status = "limit_reached"
	// StatusScheduled: the next occurrence was created or revived.
	StatusScheduled Status = "scheduled"
)

// Result is the outcome of Complete. Next is set only for StatusScheduled.
type Result struct {
	Status Status
	Next   *model.Checklist
}

// Service is the recurrence engine: it decides on completion whether the
// family gets another occurrence and computes its due date.
type Service struct {
	store db.Store
}

func NewService(store db.Store) *Service {
	return &Service{store: store}
}

// Complete marks an instance done and, when the family's configuration
// allows, generates the next occurrence. now is the completion wall-clock
// used for the until-date limit.
func (s *Service) Complete(id uuid.UUID, now time.Time) (*Result, error) {
	instance, err := s.getChecklist(id)
	if err != nil {
		return nil, err
	}
	if instance.IsCompleted {
		return nil, ErrAlreadyCompleted
	}

	original, err := s.resolveOriginal(instance)
	if err != nil {
		return nil, err
	}

	// Conditional update doubles as the guard against generating twice for
	// one instance: only the call that flips the flag proceeds.
	flipped, err := s.store.MarkCompleted(instance.ID)
	if err != nil {
		return nil, err
	}
	if !flipped {
		return nil, ErrAlreadyCompleted
	}

	if original.RepeatType == model.RepeatNever {
		return &Result{Status: StatusNoRepeat}, nil
	}
	if limitReached(original, now) {
		return &Result{Status: StatusLimitReached}, nil
	}

	days, err := s.repeatDaySet(original.ParentID)
	if err != nil {
		return nil, err
	}

	next, ok := NextDueTime(instance.DueTime, original.RepeatInterval, days)
	if !ok {
		return &Result{Status: StatusNoRepeat}, nil
	}

	sibling, err := s.spawnSibling(original, instance.ID, next)
	if err != nil {
		return nil, err
	}
	if err := s.store.AdjustRepeatCount(original.ID, 1); err != nil {
		return nil, err
	}

	log.Info().
		Str("parent_id", original.ParentID.String()).
		Str("next_id", sibling.ID.String()).
		Time("next_due", next).
		Msg("generated next checklist occurrence")

	return &Result{Status: StatusScheduled, Next: sibling}, nil
}

// Uncomplete clears the completed flag and reverses the paired generation:
// the sibling that this completion produced is soft-deleted and the
// original's counter is decremented.
func (s *Service) Uncomplete(id uuid.UUID) (*model.Checklist, error) {
	instance, err := s.getChecklist(id)
	if err != nil {
		return nil, err
	}
	if !instance.IsCompleted {
		return nil, ErrNotCompleted
	}

	flipped, err := s.store.MarkUncompleted(instance.ID)
	if err != nil {
		return nil, err
	}
	if !flipped {
		return nil, ErrNotCompleted
	}

	generated, err := s.store.SiblingGeneratedFrom(instance.ID)
	if err != nil {
		return nil, err
	}
	if generated != nil {
		if err := s.store.SoftDeleteChecklist(generated.ID); err != nil {
			return nil, err
		}
		if err := s.store.AdjustRepeatCount(instance.ParentID, -1); err != nil {
			return nil, err
		}
	}

	instance.IsCompleted = false
	return instance, nil
}

// FamilyEdit carries the fields of an edit; nil fields are untouched.
// RepeatDays non-nil rewrites the family's weekday set wholesale.
type FamilyEdit struct {
	Title          *string
	DueTime        *time.Time
	RepeatInterval *model.RepeatInterval
	RepeatType     *model.RepeatType
	RepeatEndDate  *time.Time
	RepeatMaxCount *int
	RepeatDays     *[]model.Weekday
}

// EditFamily updates the original record, rewrites the weekday set when
// supplied, propagates title and repeat configuration to soft-deleted
// siblings, and re-spaces the due times of active incomplete siblings by
// replaying the schedule from the family's most recent anchor.
func (s *Service) EditFamily(id uuid.UUID, edit FamilyEdit) (*model.Checklist, error) {
	original, err := s.getChecklist(id)
	if err != nil {
		return nil, err
	}
	if !original.IsOriginal() {
		return nil, ErrNotOriginal
	}

	if edit.Title != nil {
		original.Title = *edit.Title
	}
	if edit.DueTime != nil {
		original.DueTime = *edit.DueTime
	}
	if edit.RepeatInterval != nil {
		original.RepeatInterval = *edit.RepeatInterval
	}
	if edit.RepeatType != nil {
		original.RepeatType = *edit.RepeatType
		// only the field matching the policy survives
		original.RepeatEndDate = nil
		original.RepeatMaxCount = nil
	}
	if edit.RepeatEndDate != nil && original.RepeatType == model.RepeatUntilDate {
		original.RepeatEndDate = edit.RepeatEndDate
	}
	if edit.RepeatMaxCount != nil && original.RepeatType == model.RepeatAfterCount {
		original.RepeatMaxCount = edit.RepeatMaxCount
	}

	if err := s.store.UpdateChecklist(original); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if original.RepeatInterval == model.IntervalWeekly {
		if edit.RepeatDays != nil {
			if err := s.store.ReplaceRepeatDays(original.ParentID, *edit.RepeatDays); err != nil {
				return nil, err
			}
		}
	} else if edit.RepeatInterval != nil {
		// the family no longer repeats weekly, its day pattern goes away
		if err := s.store.ReplaceRepeatDays(original.ParentID, nil); err != nil {
			return nil, err
		}
	}

	if err := s.store.PropagateFamilyConfig(original); err != nil {
		return nil, err
	}
	if err := s.respaceActiveSiblings(original); err != nil {
		return nil, err
	}
	return original, nil
}

// respaceActiveSiblings replays the next-due-date algorithm over the active
// incomplete siblings so their spacing follows the edited schedule. The
// replay anchor is the later of the original's due time and the most recent
// completed sibling's due time.
func (s *Service) respaceActiveSiblings(original *model.Checklist) error {
	actives, err := s.store.ListActiveIncompleteSiblings(original.ParentID)
	if err != nil {
		return err
	}
	if len(actives) == 0 {
		return nil
	}

	days, err := s.repeatDaySet(original.ParentID)
	if err != nil {
		return err
	}

	base := original.DueTime
	completed, err := s.store.LatestCompletedSibling(original.ParentID)
	if err != nil {
		return err
	}
	if completed != nil && completed.DueTime.After(base) {
		base = completed.DueTime
	}

	for _, sibling := range actives {
		next, ok := NextDueTime(base, original.RepeatInterval, days)
		if !ok {
			return nil
		}
		if err := s.store.SetChecklistDueTime(sibling.ID, next); err != nil {
			return err
		}
		base = next
	}
	return nil
}

func (s *Service) spawnSibling(original *model.Checklist, generatedFrom uuid.UUID, due time.Time) (*model.Checklist, error) {
	count := original.RepeatCurrentCount + 1

	// a soft-deleted family member is recycled before inserting a new row
	deleted, err := s.store.LatestDeletedSibling(original.ParentID)
	if err != nil {
		return nil, err
	}
	if deleted != nil {
		if err := s.store.ReviveSibling(deleted.ID, due, generatedFrom, count); err != nil {
			return nil, err
		}
		return s.store.GetChecklistByID(deleted.ID)
	}

	sibling := &model.Checklist{
		ID:                 uuid.New(),
		OwnerID:            original.OwnerID,
		ParentID:           original.ParentID,
		GeneratedFromID:    &generatedFrom,
		Title:              original.Title,
		DueTime:            due,
		RepeatInterval:     original.RepeatInterval,
		RepeatType:         original.RepeatType,
		RepeatEndDate:      original.RepeatEndDate,
		RepeatMaxCount:     original.RepeatMaxCount,
		RepeatCurrentCount: count,
	}
	if err := s.store.CreateChecklist(sibling); err != nil {
		return nil, err
	}
	return sibling, nil
}

// resolveOriginal walks to the family original, failing when the family's
// canonical record is missing.
func (s *Service) resolveOriginal(instance *model.Checklist) (*model.Checklist, error) {
	if instance.IsOriginal() {
		return instance, nil
	}
	return s.getChecklist(instance.ParentID)
}

func (s *Service) repeatDaySet(parentID uuid.UUID) ([]model.Weekday, error) {
	rows, err := s.store.GetRepeatDays(parentID)
	if err != nil {
		return nil, err
	}
	days := make([]model.Weekday, 0, len(rows))
	for _, r := range rows {
		days = append(days, r.Day)
	}
	return days, nil
}

func (s *Service) getChecklist(id uuid.UUID) (*model.Checklist, error) {
	if id == uuid.Nil {
		return nil, ErrNotFound
	}
	c, err := s.store.GetChecklistByID(id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return c, nil
}
