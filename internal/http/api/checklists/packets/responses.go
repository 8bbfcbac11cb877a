package packets

import (
	"time"

	"github.com/Nusantara-Apps/rutina/internal/model"
)

type ChecklistResponse struct {
	ID                 string   `json:"id"`
	OwnerID            int      `json:"owner_id"`
	ParentID           string   `json:"parent_id"`
	GeneratedFromID    *string  `json:"generated_from_id,omitempty"`
	Title              string   `json:"title"`
	DueTime            string   `json:"due_time"`
	RepeatInterval     string   `json:"repeat_interval"`
	RepeatType         string   `json:"repeat_type"`
	RepeatEndDate      *string  `json:"repeat_end_date,omitempty"`
	RepeatMaxCount     *int     `json:"repeat_max_count,omitempty"`
	RepeatCurrentCount int      `json:"repeat_current_count"`
	RepeatDays         []string `json:"repeat_days"`
	IsCompleted        bool     `json:"is_completed"`
	CreatedAt          string   `json:"created_at"`
	UpdatedAt          string   `json:"updated_at"`
	DeletedAt          *string  `json:"deleted_at,omitempty"`
}

func NewChecklistResponse(c *model.Checklist, days []model.RepeatDay) ChecklistResponse {
	response := ChecklistResponse{
		ID:                 c.ID.String(),
		OwnerID:            c.OwnerID,
		ParentID:           c.ParentID.String(),
		Title:              c.Title,
		DueTime:            c.DueTime.Format(time.RFC3339),
		RepeatInterval:     string(c.RepeatInterval),
		RepeatType:         string(c.RepeatType),
		RepeatMaxCount:     c.RepeatMaxCount,
		RepeatCurrentCount: c.RepeatCurrentCount,
		RepeatDays:         make([]string, 0, len(days)),
		IsCompleted:        c.IsCompleted,
		CreatedAt:          c.CreatedAt.Format(time.RFC3339),
		UpdatedAt:          c.UpdatedAt.Format(time.RFC3339),
	}
	if c.GeneratedFromID != nil {
		s := c.GeneratedFromID.String()
		response.GeneratedFromID = &s
	}
	if c.RepeatEndDate != nil {
		s := c.RepeatEndDate.Format("2006-01-02")
		response.RepeatEndDate = &s
	}
	if c.DeletedAt != nil {
		s := c.DeletedAt.Format(time.RFC3339)
		response.DeletedAt = &s
	}
	for _, d := range days {
		response.RepeatDays = append(response.RepeatDays, string(d.Day))
	}
	return response
}

type ChecklistEnvelope struct {
	Message string            `json:"message"`
	Data    ChecklistResponse `json:"data"`
}

type CompleteResponse struct {
	Message string             `json:"message"`
	Status  string             `json:"status"`
	Next    *ChecklistResponse `json:"next,omitempty"`
}
