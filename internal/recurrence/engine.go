package recurrence

import (
	"time"

	"github.com/Nusantara-Apps/rutina/internal/model"
)

// NextDueTime computes when the next occurrence is due after one due at
// current. When the family carries a weekday set, the set wins over the
// interval: the result is the nearest configured weekday strictly after
// current's weekday, wrapping into the next week when current's weekday is
// at or past every configured day. Otherwise the interval is applied
// directly. The second return is false when the configuration yields no
// next occurrence.
func NextDueTime(current time.Time, interval model.RepeatInterval, days []model.Weekday) (time.Time, bool) {
	if len(days) > 0 {
		return current.AddDate(0, 0, weekdayOffset(current, days)), true
	}

	switch interval {
	case model.IntervalDaily:
		return current.AddDate(0, 0, 1), true
	case model.IntervalEvery3Day:
		return current.AddDate(0, 0, 3), true
	case model.IntervalWeekly:
		return current.AddDate(0, 0, 7), true
	case model.IntervalMonthly:
		return current.AddDate(0, 1, 0), true
	case model.IntervalYearly:
		return current.AddDate(1, 0, 0), true
	}
	return time.Time{}, false
}

// weekdayOffset returns how many days ahead the next configured weekday
// lies, always at least one. Picking strictly-after means a task due on a
// configured day never lands on that same day twice in a row.
func weekdayOffset(current time.Time, days []model.Weekday) int {
	cur := int(current.Weekday()) // Sunday = 0

	next := -1     // smallest configured index strictly after cur
	smallest := -1 // smallest configured index overall, for the wrap
	for _, d := range days {
		idx := d.Index()
		if smallest == -1 || idx < smallest {
			smallest = idx
		}
		if idx > cur && (next == -1 || idx < next) {
			next = idx
		}
	}

	if next != -1 {
		return next - cur
	}
	return (7 - cur) + smallest
}

// limitReached evaluates the family's repeat-limit policy at the moment of
// completion. never always stops generation; until_date stops once the
// completion date is strictly past the end date; after_count stops once the
// family has generated max-count siblings.
func limitReached(original *model.Checklist, now time.Time) bool {
	switch original.RepeatType {
	case model.RepeatNever:
		return true
	case model.RepeatUntilDate:
		if original.RepeatEndDate == nil {
			return false
		}
		return dateOf(now).After(dateOf(*original.RepeatEndDate))
	case model.RepeatAfterCount:
		if original.RepeatMaxCount == nil {
			return false
		}
		return original.RepeatCurrentCount >= *original.RepeatMaxCount
	}
	return false
}

func dateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
