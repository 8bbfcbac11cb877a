package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// RepeatInterval is the base cadence of a recurring checklist.
type RepeatInterval string

const (
	IntervalDaily     RepeatInterval = "daily"
	IntervalEvery3Day RepeatInterval = "3_days"
	IntervalWeekly    RepeatInterval = "weekly"
	IntervalMonthly   RepeatInterval = "monthly"
	IntervalYearly    RepeatInterval = "yearly"
)

// RepeatType is the policy that decides when generation stops.
type RepeatType string

const (
	RepeatNever      RepeatType = "never"
	RepeatUntilDate  RepeatType = "until_date"
	RepeatAfterCount RepeatType = "after_count"
)

type Checklist struct {
	ID       uuid.UUID `db:"id" json:"id"`
	OwnerID  int       `db:"owner_id" json:"owner_id"`
	ParentID uuid.UUID `db:"parent_id" json:"parent_id"`

	// GeneratedFromID points at the instance whose completion produced this
	// sibling; nil on originals and manually created records.
	GeneratedFromID *uuid.UUID `db:"generated_from_id" json:"generated_from_id,omitempty"`

	Title   string    `db:"title" json:"title"`
	DueTime time.Time `db:"due_time" json:"due_time"`

	RepeatInterval     RepeatInterval `db:"repeat_interval" json:"repeat_interval"`
	RepeatType         RepeatType     `db:"repeat_type" json:"repeat_type"`
	RepeatEndDate      *time.Time     `db:"repeat_end_date" json:"repeat_end_date,omitempty"`
	RepeatMaxCount     *int           `db:"repeat_max_count" json:"repeat_max_count,omitempty"`
	RepeatCurrentCount int            `db:"repeat_current_count" json:"repeat_current_count"`

	IsCompleted bool       `db:"is_completed" json:"is_completed"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updated_at"`
	DeletedAt   *time.Time `db:"deleted_at" json:"deleted_at,omitempty"`
}

// IsOriginal reports whether this record is the family original, the one
// holding the canonical repeat configuration.
func (c *Checklist) IsOriginal() bool { return c.ID == c.ParentID }

// RepeatDay is one weekday of a weekly family's pattern, keyed by the
// family's parent id so every instance shares the same set.
type RepeatDay struct {
	ID        uuid.UUID `db:"id" json:"id"`
	ParentID  uuid.UUID `db:"parent_id" json:"parent_id"`
	Day       Weekday   `db:"day" json:"day"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Weekday is a lowercase English weekday name as stored in repeat day rows.
type Weekday string

const (
	Sunday    Weekday = "sunday"
	Monday    Weekday = "monday"
	Tuesday   Weekday = "tuesday"
	Wednesday Weekday = "wednesday"
	Thursday  Weekday = "thursday"
	Friday    Weekday = "friday"
	Saturday  Weekday = "saturday"
)

var weekdayIndex = map[Weekday]int{
	Sunday:    0,
	Monday:    1,
	Tuesday:   2,
	Wednesday: 3,
	Thursday:  4,
	Friday:    5,
	Saturday:  6,
}

// Index returns the weekday position with Sunday = 0, matching time.Weekday.
func (w Weekday) Index() int { return weekdayIndex[w] }

func ParseWeekday(s string) (Weekday, error) {
	w := Weekday(s)
	if _, ok := weekdayIndex[w]; !ok {
		return "", fmt.Errorf("unknown weekday %q", s)
	}
	return w, nil
}

func ParseRepeatInterval(s string) (RepeatInterval, error) {
	switch RepeatInterval(s) {
	case IntervalDaily, IntervalEvery3Day, IntervalWeekly, IntervalMonthly, IntervalYearly:
		return RepeatInterval(s), nil
	}
	return "", fmt.Errorf("unknown repeat interval %q", s)
}

func ParseRepeatType(s string) (RepeatType, error) {
	switch RepeatType(s) {
	case RepeatNever, RepeatUntilDate, RepeatAfterCount:
		return RepeatType(s), nil
	}
	return "", fmt.Errorf("unknown repeat type %q", s)
}
