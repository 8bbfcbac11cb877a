package recurrence

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nusantara-Apps/rutina/internal/db"
	"github.com/Nusantara-Apps/rutina/internal/db/inmemory"
	"github.com/Nusantara-Apps/rutina/internal/model"
)

type familyConfig struct {
	due      time.Time
	interval model.RepeatInterval
	repeat   model.RepeatType
	endDate  *time.Time
	maxCount *int
	days     []model.Weekday
}

func seedFamily(t *testing.T, store *inmemory.InMemoryStore, cfg familyConfig) *model.Checklist {
	t.Helper()

	id := uuid.New()
	original := &model.Checklist{
		ID:             id,
		OwnerID:        1,
		ParentID:       id,
		Title:          "drink water",
		DueTime:        cfg.due,
		RepeatInterval: cfg.interval,
		RepeatType:     cfg.repeat,
		RepeatEndDate:  cfg.endDate,
		RepeatMaxCount: cfg.maxCount,
	}
	require.NoError(t, store.CreateChecklist(original))
	if len(cfg.days) > 0 {
		require.NoError(t, store.ReplaceRepeatDays(id, cfg.days))
	}
	return original
}

func TestCompleteNeverRepeatGeneratesNothing(t *testing.T) {
	store := inmemory.NewInMemoryStore()
	svc := NewService(store)
	original := seedFamily(t, store, familyConfig{
		due:      mustTime(t, "2025-01-15T09:00:00Z"),
		interval: model.IntervalDaily,
		repeat:   model.RepeatNever,
	})

	result, err := svc.Complete(original.ID, mustTime(t, "2025-01-15T10:00:00Z"))
	require.NoError(t, err)
	assert.Equal(t, StatusNoRepeat, result.Status)
	assert.Nil(t, result.Next)

	done, err := store.GetChecklistByID(original.ID)
	require.NoError(t, err)
	assert.True(t, done.IsCompleted)
	assert.Equal(t, 0, done.RepeatCurrentCount)

	siblings, err := store.ListActiveIncompleteSiblings(original.ID)
	require.NoError(t, err)
	assert.Empty(t, siblings)
}

func TestCompleteGeneratesDailySibling(t *testing.T) {
	store := inmemory.NewInMemoryStore()
	svc := NewService(store)
	max := 5
	original := seedFamily(t, store, familyConfig{
		due:      mustTime(t, "2025-01-15T09:00:00Z"),
		interval: model.IntervalDaily,
		repeat:   model.RepeatAfterCount,
		maxCount: &max,
	})

	result, err := svc.Complete(original.ID, mustTime(t, "2025-01-15T10:00:00Z"))
	require.NoError(t, err)
	assert.Equal(t, StatusScheduled, result.Status)

	next := result.Next
	require.NotNil(t, next)
	assert.Equal(t, mustTime(t, "2025-01-16T09:00:00Z"), next.DueTime)
	assert.Equal(t, original.ID, next.ParentID)
	assert.Equal(t, "drink water", next.Title)
	assert.Equal(t, 1, next.RepeatCurrentCount)
	assert.False(t, next.IsCompleted)
	require.NotNil(t, next.GeneratedFromID)
	assert.Equal(t, original.ID, *next.GeneratedFromID)

	reloaded, err := store.GetChecklistByID(original.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, reloaded.RepeatCurrentCount)
}

func TestCompleteTwiceConflicts(t *testing.T) {
	store := inmemory.NewInMemoryStore()
	svc := NewService(store)
	max := 5
	original := seedFamily(t, store, familyConfig{
		due:      mustTime(t, "2025-01-15T09:00:00Z"),
		interval: model.IntervalDaily,
		repeat:   model.RepeatAfterCount,
		maxCount: &max,
	})

	_, err := svc.Complete(original.ID, mustTime(t, "2025-01-15T10:00:00Z"))
	require.NoError(t, err)

	_, err = svc.Complete(original.ID, mustTime(t, "2025-01-15T10:05:00Z"))
	assert.ErrorIs(t, err, ErrAlreadyCompleted)

	siblings, err := store.ListActiveIncompleteSiblings(original.ID)
	require.NoError(t, err)
	assert.Len(t, siblings, 1)

	reloaded, err := store.GetChecklistByID(original.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, reloaded.RepeatCurrentCount)
}

func TestCompleteStopsAfterMaxCount(t *testing.T) {
	store := inmemory.NewInMemoryStore()
	svc := NewService(store)
	max := 2
	original := seedFamily(t, store, familyConfig{
		due:      mustTime(t, "2025-01-15T09:00:00Z"),
		interval: model.IntervalDaily,
		repeat:   model.RepeatAfterCount,
		maxCount: &max,
	})

	now := mustTime(t, "2025-01-15T10:00:00Z")

	first, err := svc.Complete(original.ID, now)
	require.NoError(t, err)
	require.Equal(t, StatusScheduled, first.Status)

	second, err := svc.Complete(first.Next.ID, now)
	require.NoError(t, err)
	require.Equal(t, StatusScheduled, second.Status)

	third, err := svc.Complete(second.Next.ID, now)
	require.NoError(t, err)
	assert.Equal(t, StatusLimitReached, third.Status)
	assert.Nil(t, third.Next)

	// exactly max generated siblings exist in the family
	all, err := store.ListChecklists(db.ChecklistFilter{})
	require.NoError(t, err)
	generated := 0
	for _, c := range all {
		if c.ParentID == original.ID && c.ID != original.ID {
			generated++
		}
	}
	assert.Equal(t, max, generated)
}

func TestUncompleteRemovesGeneratedSibling(t *testing.T) {
	store := inmemory.NewInMemoryStore()
	svc := NewService(store)
	max := 5
	original := seedFamily(t, store, familyConfig{
		due:      mustTime(t, "2025-01-15T09:00:00Z"),
		interval: model.IntervalDaily,
		repeat:   model.RepeatAfterCount,
		maxCount: &max,
	})

	result, err := svc.Complete(original.ID, mustTime(t, "2025-01-15T10:00:00Z"))
	require.NoError(t, err)
	sibling := result.Next
	require.NotNil(t, sibling)

	instance, err := svc.Uncomplete(original.ID)
	require.NoError(t, err)
	assert.False(t, instance.IsCompleted)

	// the generated sibling is soft-deleted, not gone
	_, err = store.GetChecklistByID(sibling.ID)
	assert.Error(t, err)
	deleted, err := store.GetDeletedChecklistByID(sibling.ID)
	require.NoError(t, err)
	assert.Equal(t, sibling.ID, deleted.ID)

	reloaded, err := store.GetChecklistByID(original.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, reloaded.RepeatCurrentCount)
}

func TestUncompleteOnIncompleteConflicts(t *testing.T) {
	store := inmemory.NewInMemoryStore()
	svc := NewService(store)
	original := seedFamily(t, store, familyConfig{
		due:      mustTime(t, "2025-01-15T09:00:00Z"),
		interval: model.IntervalDaily,
		repeat:   model.RepeatNever,
	})

	_, err := svc.Uncomplete(original.ID)
	assert.ErrorIs(t, err, ErrNotCompleted)
}

func TestCompleteAfterUncompleteRevivesSibling(t *testing.T) {
	store := inmemory.NewInMemoryStore()
	svc := NewService(store)
	max := 5
	original := seedFamily(t, store, familyConfig{
		due:      mustTime(t, "2025-01-15T09:00:00Z"),
		interval: model.IntervalDaily,
		repeat:   model.RepeatAfterCount,
		maxCount: &max,
	})

	first, err := svc.Complete(original.ID, mustTime(t, "2025-01-15T10:00:00Z"))
	require.NoError(t, err)
	firstSibling := first.Next.ID

	_, err = svc.Uncomplete(original.ID)
	require.NoError(t, err)

	second, err := svc.Complete(original.ID, mustTime(t, "2025-01-15T11:00:00Z"))
	require.NoError(t, err)
	require.Equal(t, StatusScheduled, second.Status)

	// the soft-deleted sibling is recycled instead of a new row
	assert.Equal(t, firstSibling, second.Next.ID)
	assert.Equal(t, 1, second.Next.RepeatCurrentCount)
	assert.False(t, second.Next.IsCompleted)
}

func TestMonthlyUntilDateScenario(t *testing.T) {
	store := inmemory.NewInMemoryStore()
	svc := NewService(store)
	endDate := mustTime(t, "2025-03-01T00:00:00Z")
	original := seedFamily(t, store, familyConfig{
		due:      mustTime(t, "2025-01-15T09:00:00Z"),
		interval: model.IntervalMonthly,
		repeat:   model.RepeatUntilDate,
		endDate:  &endDate,
	})

	first, err := svc.Complete(original.ID, mustTime(t, "2025-01-15T12:00:00Z"))
	require.NoError(t, err)
	require.Equal(t, StatusScheduled, first.Status)
	assert.Equal(t, mustTime(t, "2025-02-15T09:00:00Z"), first.Next.DueTime)

	// completing past the end date stops generation
	second, err := svc.Complete(first.Next.ID, mustTime(t, "2025-03-02T08:00:00Z"))
	require.NoError(t, err)
	assert.Equal(t, StatusLimitReached, second.Status)
	assert.Nil(t, second.Next)
}

func TestWeeklyDayPatternGeneration(t *testing.T) {
	store := inmemory.NewInMemoryStore()
	svc := NewService(store)
	max := 5
	original := seedFamily(t, store, familyConfig{
		due:      mustTime(t, "2025-07-30T09:00:00Z"), // a Wednesday
		interval: model.IntervalWeekly,
		repeat:   model.RepeatAfterCount,
		maxCount: &max,
		days:     []model.Weekday{model.Monday, model.Friday},
	})

	result, err := svc.Complete(original.ID, mustTime(t, "2025-07-30T10:00:00Z"))
	require.NoError(t, err)
	require.Equal(t, StatusScheduled, result.Status)
	assert.Equal(t, mustTime(t, "2025-08-01T09:00:00Z"), result.Next.DueTime) // Friday

	followup, err := svc.Complete(result.Next.ID, mustTime(t, "2025-08-01T10:00:00Z"))
	require.NoError(t, err)
	assert.Equal(t, mustTime(t, "2025-08-04T09:00:00Z"), followup.Next.DueTime) // wraps to Monday
}

func TestEditFamilyRespacesActiveSiblings(t *testing.T) {
	store := inmemory.NewInMemoryStore()
	svc := NewService(store)
	max := 5
	original := seedFamily(t, store, familyConfig{
		due:      mustTime(t, "2025-01-15T09:00:00Z"),
		interval: model.IntervalDaily,
		repeat:   model.RepeatAfterCount,
		maxCount: &max,
	})

	result, err := svc.Complete(original.ID, mustTime(t, "2025-01-15T10:00:00Z"))
	require.NoError(t, err)
	sibling := result.Next
	require.Equal(t, mustTime(t, "2025-01-16T09:00:00Z"), sibling.DueTime)

	interval := model.IntervalEvery3Day
	_, err = svc.EditFamily(original.ID, FamilyEdit{RepeatInterval: &interval})
	require.NoError(t, err)

	// the pending sibling moves to one 3-day step past the completed anchor
	respaced, err := store.GetChecklistByID(sibling.ID)
	require.NoError(t, err)
	assert.Equal(t, mustTime(t, "2025-01-18T09:00:00Z"), respaced.DueTime)
}

func TestEditFamilyRewritesDaysAndPropagates(t *testing.T) {
	store := inmemory.NewInMemoryStore()
	svc := NewService(store)
	max := 5
	original := seedFamily(t, store, familyConfig{
		due:      mustTime(t, "2025-07-28T09:00:00Z"), // a Monday
		interval: model.IntervalWeekly,
		repeat:   model.RepeatAfterCount,
		maxCount: &max,
		days:     []model.Weekday{model.Monday},
	})

	result, err := svc.Complete(original.ID, mustTime(t, "2025-07-28T10:00:00Z"))
	require.NoError(t, err)
	_, err = svc.Uncomplete(original.ID)
	require.NoError(t, err)

	title := "drink more water"
	days := []model.Weekday{model.Tuesday, model.Thursday}
	_, err = svc.EditFamily(original.ID, FamilyEdit{Title: &title, RepeatDays: &days})
	require.NoError(t, err)

	stored, err := store.GetRepeatDays(original.ID)
	require.NoError(t, err)
	require.Len(t, stored, 2)
	assert.Equal(t, model.Tuesday, stored[0].Day)
	assert.Equal(t, model.Thursday, stored[1].Day)

	// the soft-deleted sibling picked up the new title but kept its due time
	deleted, err := store.GetDeletedChecklistByID(result.Next.ID)
	require.NoError(t, err)
	assert.Equal(t, title, deleted.Title)
}

func TestEditFamilyIntervalChangeClearsDays(t *testing.T) {
	store := inmemory.NewInMemoryStore()
	svc := NewService(store)
	max := 5
	original := seedFamily(t, store, familyConfig{
		due:      mustTime(t, "2025-07-28T09:00:00Z"),
		interval: model.IntervalWeekly,
		repeat:   model.RepeatAfterCount,
		maxCount: &max,
		days:     []model.Weekday{model.Monday, model.Friday},
	})

	interval := model.IntervalDaily
	_, err := svc.EditFamily(original.ID, FamilyEdit{RepeatInterval: &interval})
	require.NoError(t, err)

	days, err := store.GetRepeatDays(original.ID)
	require.NoError(t, err)
	assert.Empty(t, days)
}

func TestEditFamilyRejectsSibling(t *testing.T) {
	store := inmemory.NewInMemoryStore()
	svc := NewService(store)
	max := 5
	original := seedFamily(t, store, familyConfig{
		due:      mustTime(t, "2025-01-15T09:00:00Z"),
		interval: model.IntervalDaily,
		repeat:   model.RepeatAfterCount,
		maxCount: &max,
	})

	result, err := svc.Complete(original.ID, mustTime(t, "2025-01-15T10:00:00Z"))
	require.NoError(t, err)

	title := "nope"
	_, err = svc.EditFamily(result.Next.ID, FamilyEdit{Title: &title})
	assert.ErrorIs(t, err, ErrNotOriginal)
}

func TestCompleteMissingChecklist(t *testing.T) {
	store := inmemory.NewInMemoryStore()
	svc := NewService(store)

	_, err := svc.Complete(uuid.New(), time.Now())
	assert.ErrorIs(t, err, ErrNotFound)
}
