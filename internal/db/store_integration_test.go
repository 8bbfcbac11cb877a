package db

import (
	"database/sql"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nusantara-Apps/rutina/internal/model"
)

func newIntegrationStore(t *testing.T) Store {
	t.Helper()
	if os.Getenv("TEST_DATABASE_URL") == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	if TestStore == nil {
		require.NoError(t, InitTestDB("../../migrations"))
	}
	_, err := DB.Exec(`TRUNCATE checklist_repeat_days, checklists, users RESTART IDENTITY CASCADE;`)
	require.NoError(t, err)
	return TestStore
}

func seedOriginal(t *testing.T, store Store, ownerID int, due time.Time) *model.Checklist {
	t.Helper()
	id := uuid.New()
	c := &model.Checklist{
		ID:             id,
		OwnerID:        ownerID,
		ParentID:       id,
		Title:          "water the garden",
		DueTime:        due,
		RepeatInterval: model.IntervalDaily,
		RepeatType:     model.RepeatNever,
	}
	require.NoError(t, store.CreateChecklist(c))
	return c
}

func seedSibling(t *testing.T, store Store, original *model.Checklist, due time.Time) *model.Checklist {
	t.Helper()
	from := original.ID
	c := &model.Checklist{
		ID:                 uuid.New(),
		OwnerID:            original.OwnerID,
		ParentID:           original.ParentID,
		GeneratedFromID:    &from,
		Title:              original.Title,
		DueTime:            due,
		RepeatInterval:     original.RepeatInterval,
		RepeatType:         original.RepeatType,
		RepeatCurrentCount: 1,
	}
	require.NoError(t, store.CreateChecklist(c))
	return c
}

// TestStoreIntegration runs the Postgres store against a real database,
// covering the queries the in-memory double cannot validate.
func TestStoreIntegration(t *testing.T) {
	store := newIntegrationStore(t)
	due := time.Date(2025, 7, 28, 9, 0, 0, 0, time.UTC)

	t.Run("User Management", func(t *testing.T) {
		created, err := store.CreateUser("Tester", "it@example.com", "hashedpassword", model.RoleUser)
		require.NoError(t, err)
		assert.Greater(t, created.ID, 0)

		found, err := store.GetUserByEmail("it@example.com")
		require.NoError(t, err)
		assert.Equal(t, created.ID, found.ID)
		assert.Equal(t, model.RoleUser, found.Role)

		_, err = store.CreateUser("Copycat", "it@example.com", "hashedpassword", model.RoleUser)
		assert.ErrorIs(t, err, ErrDuplicateEmail)

		_, err = store.GetUserByID(created.ID + 1000)
		assert.ErrorIs(t, err, sql.ErrNoRows)
	})

	t.Run("Checklist Lifecycle", func(t *testing.T) {
		owner, err := store.CreateUser("Owner", "lifecycle@example.com", "hashedpassword", model.RoleUser)
		require.NoError(t, err)

		original := seedOriginal(t, store, owner.ID, due)
		assert.False(t, original.CreatedAt.IsZero())

		loaded, err := store.GetChecklistByID(original.ID)
		require.NoError(t, err)
		assert.True(t, loaded.DueTime.Equal(due))
		assert.Equal(t, original.ParentID, loaded.ParentID)

		flipped, err := store.MarkCompleted(original.ID)
		require.NoError(t, err)
		assert.True(t, flipped)

		// the conditional update reports false on the second flip
		flipped, err = store.MarkCompleted(original.ID)
		require.NoError(t, err)
		assert.False(t, flipped)

		completed := true
		list, err := store.ListChecklists(ChecklistFilter{OwnerID: &owner.ID, Completed: &completed})
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, original.ID, list[0].ID)

		flipped, err = store.MarkUncompleted(original.ID)
		require.NoError(t, err)
		assert.True(t, flipped)
	})

	t.Run("Family Queries", func(t *testing.T) {
		owner, err := store.CreateUser("Owner", "family@example.com", "hashedpassword", model.RoleUser)
		require.NoError(t, err)

		original := seedOriginal(t, store, owner.ID, due)
		sibling := seedSibling(t, store, original, due.AddDate(0, 0, 1))

		found, err := store.SiblingGeneratedFrom(original.ID)
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, sibling.ID, found.ID)

		actives, err := store.ListActiveIncompleteSiblings(original.ParentID)
		require.NoError(t, err)
		require.Len(t, actives, 1)
		assert.Equal(t, sibling.ID, actives[0].ID)

		require.NoError(t, store.SoftDeleteChecklist(sibling.ID))
		deleted, err := store.LatestDeletedSibling(original.ParentID)
		require.NoError(t, err)
		require.NotNil(t, deleted)
		assert.Equal(t, sibling.ID, deleted.ID)

		// propagation touches only soft-deleted siblings
		original.Title = "water the whole garden"
		require.NoError(t, store.PropagateFamilyConfig(original))
		propagated, err := store.GetDeletedChecklistByID(sibling.ID)
		require.NoError(t, err)
		assert.Equal(t, "water the whole garden", propagated.Title)

		revivedDue := due.AddDate(0, 0, 3)
		require.NoError(t, store.ReviveSibling(sibling.ID, revivedDue, original.ID, 2))
		revived, err := store.GetChecklistByID(sibling.ID)
		require.NoError(t, err)
		assert.True(t, revived.DueTime.Equal(revivedDue))
		assert.Equal(t, 2, revived.RepeatCurrentCount)
		assert.False(t, revived.IsCompleted)

		require.NoError(t, store.SoftDeleteFamily(original.ParentID))
		_, err = store.GetChecklistByID(original.ID)
		assert.ErrorIs(t, err, sql.ErrNoRows)
		_, err = store.GetChecklistByID(sibling.ID)
		assert.ErrorIs(t, err, sql.ErrNoRows)

		require.NoError(t, store.RestoreFamily(original.ParentID))
		_, err = store.GetChecklistByID(original.ID)
		assert.NoError(t, err)
		_, err = store.GetChecklistByID(sibling.ID)
		assert.NoError(t, err)

		flipped, err := store.MarkCompleted(sibling.ID)
		require.NoError(t, err)
		require.True(t, flipped)
		latest, err := store.LatestCompletedSibling(original.ParentID)
		require.NoError(t, err)
		require.NotNil(t, latest)
		assert.Equal(t, sibling.ID, latest.ID)
	})

	t.Run("Repeat Days", func(t *testing.T) {
		owner, err := store.CreateUser("Owner", "days@example.com", "hashedpassword", model.RoleUser)
		require.NoError(t, err)

		first := seedOriginal(t, store, owner.ID, due)
		second := seedOriginal(t, store, owner.ID, due.AddDate(0, 0, 1))

		require.NoError(t, store.ReplaceRepeatDays(first.ParentID, []model.Weekday{model.Monday, model.Friday}))
		require.NoError(t, store.ReplaceRepeatDays(second.ParentID, []model.Weekday{model.Tuesday}))

		days, err := store.GetRepeatDays(first.ParentID)
		require.NoError(t, err)
		got := make([]model.Weekday, 0, len(days))
		for _, d := range days {
			got = append(got, d.Day)
		}
		assert.ElementsMatch(t, []model.Weekday{model.Monday, model.Friday}, got)

		byParent, err := store.GetRepeatDaysForParents([]uuid.UUID{first.ParentID, second.ParentID})
		require.NoError(t, err)
		assert.Len(t, byParent[first.ParentID], 2)
		assert.Len(t, byParent[second.ParentID], 1)

		require.NoError(t, store.ReplaceRepeatDays(first.ParentID, nil))
		days, err = store.GetRepeatDays(first.ParentID)
		require.NoError(t, err)
		assert.Empty(t, days)
	})
}
