package db

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"

	"github.com/Nusantara-Apps/rutina/internal/model"
)

const checklistColumns = `
	id, owner_id, parent_id, generated_from_id, title, due_time,
	repeat_interval, repeat_type, repeat_end_date, repeat_max_count,
	repeat_current_count, is_completed, created_at, updated_at, deleted_at`

// CreateChecklist inserts a new checklist row. The caller fills ID, ParentID
// and the repeat configuration; timestamps come from the database.
func (s *pgStore) CreateChecklist(c *model.Checklist) error {
	query := `
	INSERT INTO checklists
	(id, owner_id, parent_id, generated_from_id, title, due_time,
	 repeat_interval, repeat_type, repeat_end_date, repeat_max_count,
	 repeat_current_count, is_completed, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, now(), now())
	RETURNING` + checklistColumns + `;`

	if err := s.db.Get(c, query,
		c.ID,
		c.OwnerID,
		c.ParentID,
		c.GeneratedFromID,
		c.Title,
		c.DueTime,
		c.RepeatInterval,
		c.RepeatType,
		c.RepeatEndDate,
		c.RepeatMaxCount,
		c.RepeatCurrentCount,
		c.IsCompleted,
	); err != nil {
		log.Error().Err(err).Msg("failed to create checklist")
		return err
	}
	return nil
}

// GetChecklistByID fetches a live (not soft-deleted) checklist.
// Returns sql.ErrNoRows if not found.
func (s *pgStore) GetChecklistByID(id uuid.UUID) (*model.Checklist, error) {
	var c model.Checklist
	query := `SELECT` + checklistColumns + `
	FROM checklists
	WHERE id = $1 AND deleted_at IS NULL;`

	if err := s.db.Get(&c, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sql.ErrNoRows
		}
		log.Error().Err(err).Str("checklist_id", id.String()).Msg("failed to get checklist")
		return nil, err
	}
	return &c, nil
}

// GetDeletedChecklistByID fetches a soft-deleted checklist for restore.
func (s *pgStore) GetDeletedChecklistByID(id uuid.UUID) (*model.Checklist, error) {
	var c model.Checklist
	query := `SELECT` + checklistColumns + `
	FROM checklists
	WHERE id = $1 AND deleted_at IS NOT NULL;`

	if err := s.db.Get(&c, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sql.ErrNoRows
		}
		log.Error().Err(err).Str("checklist_id", id.String()).Msg("failed to get deleted checklist")
		return nil, err
	}
	return &c, nil
}

// ListChecklists returns live checklists matching the filter, ordered by due time.
func (s *pgStore) ListChecklists(filter ChecklistFilter) ([]model.Checklist, error) {
	clauses := []string{"deleted_at IS NULL"}
	args := []any{}

	if filter.OwnerID != nil {
		args = append(args, *filter.OwnerID)
		clauses = append(clauses, fmt.Sprintf("owner_id = $%d", len(args)))
	}
	if filter.Completed != nil {
		args = append(args, *filter.Completed)
		clauses = append(clauses, fmt.Sprintf("is_completed = $%d", len(args)))
	}
	if filter.DueFrom != nil {
		args = append(args, *filter.DueFrom)
		clauses = append(clauses, fmt.Sprintf("due_time >= $%d", len(args)))
	}
	if filter.DueBefore != nil {
		args = append(args, *filter.DueBefore)
		clauses = append(clauses, fmt.Sprintf("due_time < $%d", len(args)))
	}

	query := `SELECT` + checklistColumns + `
	FROM checklists
	WHERE ` + strings.Join(clauses, " AND ") + `
	ORDER BY due_time, created_at;`

	var out []model.Checklist
	if err := s.db.Select(&out, query, args...); err != nil {
		log.Error().Err(err).Msg("failed to list checklists")
		return nil, err
	}
	return out, nil
}

// UpdateChecklist rewrites the mutable fields of one checklist row.
func (s *pgStore) UpdateChecklist(c *model.Checklist) error {
	query := `
	UPDATE checklists
	SET title = $2,
	    due_time = $3,
	    repeat_interval = $4,
	    repeat_type = $5,
	    repeat_end_date = $6,
	    repeat_max_count = $7,
	    repeat_current_count = $8,
	    is_completed = $9,
	    updated_at = now()
	WHERE id = $1;`

	res, err := s.db.Exec(query,
		c.ID,
		c.Title,
		c.DueTime,
		c.RepeatInterval,
		c.RepeatType,
		c.RepeatEndDate,
		c.RepeatMaxCount,
		c.RepeatCurrentCount,
		c.IsCompleted,
	)
	if err != nil {
		log.Error().Err(err).Str("checklist_id", c.ID.String()).Msg("failed to update checklist")
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (s *pgStore) SetChecklistDueTime(id uuid.UUID, due time.Time) error {
	_, err := s.db.Exec(`
	UPDATE checklists SET due_time = $2, updated_at = now()
	WHERE id = $1 AND deleted_at IS NULL;`, id, due)
	if err != nil {
		log.Error().Err(err).Str("checklist_id", id.String()).Msg("failed to set due time")
	}
	return err
}

// MarkCompleted flips is_completed to true only when it is currently false,
// so a second completion of the same instance reports false.
func (s *pgStore) MarkCompleted(id uuid.UUID) (bool, error) {
	res, err := s.db.Exec(`
	UPDATE checklists SET is_completed = true, updated_at = now()
	WHERE id = $1 AND is_completed = false AND deleted_at IS NULL;`, id)
	if err != nil {
		log.Error().Err(err).Str("checklist_id", id.String()).Msg("failed to mark completed")
		return false, err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

// MarkUncompleted is the reverse guard of MarkCompleted.
func (s *pgStore) MarkUncompleted(id uuid.UUID) (bool, error) {
	res, err := s.db.Exec(`
	UPDATE checklists SET is_completed = false, updated_at = now()
	WHERE id = $1 AND is_completed = true AND deleted_at IS NULL;`, id)
	if err != nil {
		log.Error().Err(err).Str("checklist_id", id.String()).Msg("failed to mark uncompleted")
		return false, err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

func (s *pgStore) AdjustRepeatCount(id uuid.UUID, delta int) error {
	_, err := s.db.Exec(`
	UPDATE checklists
	SET repeat_current_count = repeat_current_count + $2, updated_at = now()
	WHERE id = $1;`, id, delta)
	if err != nil {
		log.Error().Err(err).Str("checklist_id", id.String()).Msg("failed to adjust repeat count")
	}
	return err
}

func (s *pgStore) SoftDeleteChecklist(id uuid.UUID) error {
	_, err := s.db.Exec(`
	UPDATE checklists SET deleted_at = now(), updated_at = now()
	WHERE id = $1 AND deleted_at IS NULL;`, id)
	if err != nil {
		log.Error().Err(err).Str("checklist_id", id.String()).Msg("failed to soft delete checklist")
	}
	return err
}

// SoftDeleteFamily soft-deletes every live member of a family at once.
func (s *pgStore) SoftDeleteFamily(parentID uuid.UUID) error {
	_, err := s.db.Exec(`
	UPDATE checklists SET deleted_at = now(), updated_at = now()
	WHERE parent_id = $1 AND deleted_at IS NULL;`, parentID)
	if err != nil {
		log.Error().Err(err).Str("parent_id", parentID.String()).Msg("failed to soft delete family")
	}
	return err
}

func (s *pgStore) RestoreChecklist(id uuid.UUID) error {
	_, err := s.db.Exec(`
	UPDATE checklists SET deleted_at = NULL, updated_at = now()
	WHERE id = $1 AND deleted_at IS NOT NULL;`, id)
	if err != nil {
		log.Error().Err(err).Str("checklist_id", id.String()).Msg("failed to restore checklist")
	}
	return err
}

func (s *pgStore) RestoreFamily(parentID uuid.UUID) error {
	_, err := s.db.Exec(`
	UPDATE checklists SET deleted_at = NULL, updated_at = now()
	WHERE parent_id = $1 AND deleted_at IS NOT NULL;`, parentID)
	if err != nil {
		log.Error().Err(err).Str("parent_id", parentID.String()).Msg("failed to restore family")
	}
	return err
}

// LatestDeletedSibling returns the most recently soft-deleted member of a
// family, or nil when none exists. The engine revives it instead of
// inserting a fresh row.
func (s *pgStore) LatestDeletedSibling(parentID uuid.UUID) (*model.Checklist, error) {
	var c model.Checklist
	query := `SELECT` + checklistColumns + `
	FROM checklists
	WHERE parent_id = $1 AND id <> $1 AND deleted_at IS NOT NULL
	ORDER BY deleted_at DESC
	LIMIT 1;`

	err := s.db.Get(&c, query, parentID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		log.Error().Err(err).Str("parent_id", parentID.String()).Msg("failed to find deleted sibling")
		return nil, err
	}
	return &c, nil
}

// LatestCompletedSibling returns the live family member with the greatest
// due time among completed ones, or nil when the family has none.
func (s *pgStore) LatestCompletedSibling(parentID uuid.UUID) (*model.Checklist, error) {
	var c model.Checklist
	query := `SELECT` + checklistColumns + `
	FROM checklists
	WHERE parent_id = $1 AND is_completed = true AND deleted_at IS NULL
	ORDER BY due_time DESC
	LIMIT 1;`

	err := s.db.Get(&c, query, parentID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		log.Error().Err(err).Str("parent_id", parentID.String()).Msg("failed to find completed sibling")
		return nil, err
	}
	return &c, nil
}

// ListActiveIncompleteSiblings lists live, not-completed, non-original
// members of a family in due-time order.
func (s *pgStore) ListActiveIncompleteSiblings(parentID uuid.UUID) ([]model.Checklist, error) {
	var out []model.Checklist
	query := `SELECT` + checklistColumns + `
	FROM checklists
	WHERE parent_id = $1 AND id <> $1
	  AND is_completed = false AND deleted_at IS NULL
	ORDER BY due_time, created_at;`

	if err := s.db.Select(&out, query, parentID); err != nil {
		log.Error().Err(err).Str("parent_id", parentID.String()).Msg("failed to list active siblings")
		return nil, err
	}
	return out, nil
}

// SiblingGeneratedFrom returns the live sibling produced by completing the
// given instance, or nil.
func (s *pgStore) SiblingGeneratedFrom(instanceID uuid.UUID) (*model.Checklist, error) {
	var c model.Checklist
	query := `SELECT` + checklistColumns + `
	FROM checklists
	WHERE generated_from_id = $1 AND deleted_at IS NULL
	LIMIT 1;`

	err := s.db.Get(&c, query, instanceID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		log.Error().Err(err).Str("instance_id", instanceID.String()).Msg("failed to find generated sibling")
		return nil, err
	}
	return &c, nil
}

// ReviveSibling undeletes a previously soft-deleted sibling and repoints it
// at the completion that produced it.
func (s *pgStore) ReviveSibling(id uuid.UUID, due time.Time, generatedFrom uuid.UUID, count int) error {
	_, err := s.db.Exec(`
	UPDATE checklists
	SET deleted_at = NULL,
	    is_completed = false,
	    due_time = $2,
	    generated_from_id = $3,
	    repeat_current_count = $4,
	    updated_at = now()
	WHERE id = $1;`, id, due, generatedFrom, count)
	if err != nil {
		log.Error().Err(err).Str("checklist_id", id.String()).Msg("failed to revive sibling")
	}
	return err
}

// PropagateFamilyConfig copies title and repeat configuration from the
// original onto its soft-deleted siblings, leaving due times alone.
func (s *pgStore) PropagateFamilyConfig(original *model.Checklist) error {
	_, err := s.db.Exec(`
	UPDATE checklists
	SET title = $2,
	    repeat_interval = $3,
	    repeat_type = $4,
	    repeat_end_date = $5,
	    repeat_max_count = $6,
	    updated_at = now()
	WHERE parent_id = $1 AND id <> $1 AND deleted_at IS NOT NULL;`,
		original.ParentID,
		original.Title,
		original.RepeatInterval,
		original.RepeatType,
		original.RepeatEndDate,
		original.RepeatMaxCount,
	)
	if err != nil {
		log.Error().Err(err).Str("parent_id", original.ParentID.String()).Msg("failed to propagate family config")
	}
	return err
}

func (s *pgStore) GetRepeatDays(parentID uuid.UUID) ([]model.RepeatDay, error) {
	var out []model.RepeatDay
	query := `
	SELECT id, parent_id, day, created_at, updated_at
	FROM checklist_repeat_days
	WHERE parent_id = $1
	ORDER BY created_at;`

	if err := s.db.Select(&out, query, parentID); err != nil {
		log.Error().Err(err).Str("parent_id", parentID.String()).Msg("failed to get repeat days")
		return nil, err
	}
	return out, nil
}

// GetRepeatDaysForParents loads the day sets of many families in one query,
// used when list responses embed repeat days.
func (s *pgStore) GetRepeatDaysForParents(parentIDs []uuid.UUID) (map[uuid.UUID][]model.RepeatDay, error) {
	out := make(map[uuid.UUID][]model.RepeatDay, len(parentIDs))
	if len(parentIDs) == 0 {
		return out, nil
	}

	query, args, err := sqlx.In(`
	SELECT id, parent_id, day, created_at, updated_at
	FROM checklist_repeat_days
	WHERE parent_id IN (?)
	ORDER BY created_at;`, parentIDs)
	if err != nil {
		return nil, err
	}
	query = s.db.Rebind(query)

	var rows []model.RepeatDay
	if err := s.db.Select(&rows, query, args...); err != nil {
		log.Error().Err(err).Msg("failed to get repeat days for parents")
		return nil, err
	}
	for _, r := range rows {
		out[r.ParentID] = append(out[r.ParentID], r)
	}
	return out, nil
}

// ReplaceRepeatDays rewrites a family's weekday set wholesale: delete all,
// then insert the new days. An empty set just clears the family.
func (s *pgStore) ReplaceRepeatDays(parentID uuid.UUID, days []model.Weekday) error {
	tx, err := s.db.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM checklist_repeat_days WHERE parent_id = $1;`, parentID); err != nil {
		log.Error().Err(err).Str("parent_id", parentID.String()).Msg("failed to clear repeat days")
		return err
	}
	for _, day := range days {
		if _, err := tx.Exec(`
		INSERT INTO checklist_repeat_days (id, parent_id, day, created_at, updated_at)
		VALUES ($1, $2, $3, now(), now());`, uuid.New(), parentID, day); err != nil {
			log.Error().Err(err).Str("parent_id", parentID.String()).Msg("failed to insert repeat day")
			return err
		}
	}
	return tx.Commit()
}
