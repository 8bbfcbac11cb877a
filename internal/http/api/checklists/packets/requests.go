package packets

import (
	"fmt"
	"strings"
	"time"
)

// DateTime accepts both RFC3339 and the zone-less "2006-01-02T15:04:05"
// form clients commonly send; the latter is taken as UTC.
type DateTime struct {
	time.Time
}

func (d *DateTime) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		return nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		d.Time = t
		return nil
	}
	t, err := time.ParseInLocation("2006-01-02T15:04:05", s, time.UTC)
	if err != nil {
		return fmt.Errorf("invalid datetime %q", s)
	}
	d.Time = t
	return nil
}

// Date accepts "2006-01-02".
type Date struct {
	time.Time
}

func (d *Date) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		return nil
	}
	t, err := time.ParseInLocation("2006-01-02", s, time.UTC)
	if err != nil {
		return fmt.Errorf("invalid date %q", s)
	}
	d.Time = t
	return nil
}

type CreateChecklistRequest struct {
	Title          string    `json:"title" binding:"required"`
	DueTime        *DateTime `json:"due_time" binding:"required"`
	RepeatInterval string    `json:"repeat_interval" binding:"omitempty,oneof=daily 3_days weekly monthly yearly"`
	RepeatType     string    `json:"repeat_type" binding:"omitempty,oneof=never until_date after_count"`
	RepeatEndDate  *Date     `json:"repeat_end_date"`
	RepeatMaxCount *int      `json:"repeat_max_count" binding:"omitempty,gt=0"`
	RepeatDays     []string  `json:"repeat_days" binding:"omitempty,dive,oneof=monday tuesday wednesday thursday friday saturday sunday"`
}

type UpdateChecklistRequest struct {
	Title          *string   `json:"title"`
	DueTime        *DateTime `json:"due_time"`
	RepeatInterval *string   `json:"repeat_interval" binding:"omitempty,oneof=daily 3_days weekly monthly yearly"`
	RepeatType     *string   `json:"repeat_type" binding:"omitempty,oneof=never until_date after_count"`
	RepeatEndDate  *Date     `json:"repeat_end_date"`
	RepeatMaxCount *int      `json:"repeat_max_count" binding:"omitempty,gt=0"`
	RepeatDays     *[]string `json:"repeat_days" binding:"omitempty,dive,oneof=monday tuesday wednesday thursday friday saturday sunday"`
}

// TouchesRepeatConfig reports whether the edit changes anything only the
// family original may carry.
func (r *UpdateChecklistRequest) TouchesRepeatConfig() bool {
	return r.RepeatInterval != nil || r.RepeatType != nil ||
		r.RepeatEndDate != nil || r.RepeatMaxCount != nil || r.RepeatDays != nil
}
