package db

import (
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/Nusantara-Apps/rutina/internal/model"
)

// ChecklistFilter narrows ListChecklists. Nil fields are not applied.
type ChecklistFilter struct {
	OwnerID   *int // nil lists every user's records (admin view)
	Completed *bool
	DueFrom   *time.Time // inclusive
	DueBefore *time.Time // exclusive
}

// Store exposes every persistence operation the API and the recurrence
// engine need, so tests can swap in a fake.
type Store interface {
	// user functions
	CreateUser(name, email, hashedPassword, role string) (*model.User, error)
	GetUserByEmail(email string) (*model.User, error)
	GetUserByID(id int) (*model.User, error)

	// checklist functions
	CreateChecklist(c *model.Checklist) error
	GetChecklistByID(id uuid.UUID) (*model.Checklist, error)
	GetDeletedChecklistByID(id uuid.UUID) (*model.Checklist, error)
	ListChecklists(filter ChecklistFilter) ([]model.Checklist, error)
	UpdateChecklist(c *model.Checklist) error
	SetChecklistDueTime(id uuid.UUID, due time.Time) error
	MarkCompleted(id uuid.UUID) (bool, error)
	MarkUncompleted(id uuid.UUID) (bool, error)
	AdjustRepeatCount(id uuid.UUID, delta int) error
	SoftDeleteChecklist(id uuid.UUID) error
	SoftDeleteFamily(parentID uuid.UUID) error
	RestoreChecklist(id uuid.UUID) error
	RestoreFamily(parentID uuid.UUID) error

	// family functions
	LatestDeletedSibling(parentID uuid.UUID) (*model.Checklist, error)
	LatestCompletedSibling(parentID uuid.UUID) (*model.Checklist, error)
	ListActiveIncompleteSiblings(parentID uuid.UUID) ([]model.Checklist, error)
	SiblingGeneratedFrom(instanceID uuid.UUID) (*model.Checklist, error)
	ReviveSibling(id uuid.UUID, due time.Time, generatedFrom uuid.UUID, count int) error
	PropagateFamilyConfig(original *model.Checklist) error

	// repeat day functions
	GetRepeatDays(parentID uuid.UUID) ([]model.RepeatDay, error)
	GetRepeatDaysForParents(parentIDs []uuid.UUID) (map[uuid.UUID][]model.RepeatDay, error)
	ReplaceRepeatDays(parentID uuid.UUID, days []model.Weekday) error
}

type pgStore struct {
	db *sqlx.DB
}

// compile-time check that pgStore implements Store
var _ Store = (*pgStore)(nil)

func NewStore(database *sqlx.DB) Store {
	return &pgStore{db: database}
}
