package endpoints

import (
	"database/sql"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Nusantara-Apps/rutina/internal/db"
	"github.com/Nusantara-Apps/rutina/internal/http/api"
	"github.com/Nusantara-Apps/rutina/internal/http/api/checklists/packets"
	"github.com/Nusantara-Apps/rutina/internal/model"
	"github.com/Nusantara-Apps/rutina/internal/recurrence"
)

type ChecklistController struct {
	store  db.Store
	engine *recurrence.Service
}

func NewChecklistController(store db.Store) *ChecklistController {
	return &ChecklistController{store: store, engine: recurrence.NewService(store)}
}

func ChecklistModule(store db.Store) api.Module {
	ctl := NewChecklistController(store)
	return api.ModuleFunc(func(c *api.Controller) {
		// listing views
		c.GET("/checklists", ctl.listChecklists)
		c.GET("/checklists/completed", ctl.listCompleted)
		c.GET("/checklists/today", ctl.listToday)
		c.GET("/checklists/weekly", ctl.listWeekly)

		// CRUD
		c.POST("/checklists", ctl.createChecklist)
		c.GET("/checklists/:id", ctl.getChecklist)
		c.PUT("/checklists/:id", ctl.updateChecklist)
		c.DELETE("/checklists/:id", ctl.deleteChecklist)
		c.PATCH("/checklists/:id/restore", ctl.restoreChecklist)

		// completion + recurrence generation
		c.POST("/checklists/:id/complete", ctl.completeChecklist)
		c.POST("/checklists/:id/uncomplete", ctl.uncompleteChecklist)
	})
}

// GET /api/checklists — open items; admins see everyone's.
func (cc *ChecklistController) listChecklists(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	incomplete := false
	return cc.respondList(db.ChecklistFilter{
		OwnerID:   ownerScope(user),
		Completed: &incomplete,
	})
}

// GET /api/checklists/completed
func (cc *ChecklistController) listCompleted(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	completed := true
	return cc.respondList(db.ChecklistFilter{
		OwnerID:   ownerScope(user),
		Completed: &completed,
	})
}

// GET /api/checklists/today — due today or overdue, incomplete.
func (cc *ChecklistController) listToday(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	incomplete := false
	tomorrow := startOfDay(time.Now().UTC()).AddDate(0, 0, 1)
	return cc.respondList(db.ChecklistFilter{
		OwnerID:   ownerScope(user),
		Completed: &incomplete,
		DueBefore: &tomorrow,
	})
}

// GET /api/checklists/weekly — due this calendar week (Mon-Sun), incomplete.
func (cc *ChecklistController) listWeekly(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	incomplete := false
	now := time.Now().UTC()
	monday := startOfDay(now).AddDate(0, 0, -((int(now.Weekday()) + 6) % 7))
	nextMonday := monday.AddDate(0, 0, 7)
	return cc.respondList(db.ChecklistFilter{
		OwnerID:   ownerScope(user),
		Completed: &incomplete,
		DueFrom:   &monday,
		DueBefore: &nextMonday,
	})
}

// POST /api/checklists — create a new family; the record is its own parent.
func (cc *ChecklistController) createChecklist(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	var request packets.CreateChecklistRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, &api.APIError{Code: http.StatusUnprocessableEntity, Message: err.Error()}
	}

	interval := model.IntervalDaily
	if request.RepeatInterval != "" {
		interval = model.RepeatInterval(request.RepeatInterval)
	}
	repeatType := model.RepeatNever
	if request.RepeatType != "" {
		repeatType = model.RepeatType(request.RepeatType)
	}

	var endDate *time.Time
	if request.RepeatEndDate != nil {
		endDate = &request.RepeatEndDate.Time
	}
	days, apiErr := parseRepeatDays(request.RepeatDays)
	if apiErr != nil {
		return nil, apiErr
	}
	if apiErr := validateRepeatConfig(interval, repeatType, endDate, request.RepeatMaxCount, days); apiErr != nil {
		return nil, apiErr
	}

	id := uuid.New()
	checklist := &model.Checklist{
		ID:             id,
		OwnerID:        user.ID,
		ParentID:       id, // new family: parent is itself
		Title:          request.Title,
		DueTime:        request.DueTime.Time,
		RepeatInterval: interval,
		RepeatType:     repeatType,
		RepeatEndDate:  endDate,
		RepeatMaxCount: request.RepeatMaxCount,
	}
	if err := cc.store.CreateChecklist(checklist); err != nil {
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not create checklist"}
	}

	var dayRows []model.RepeatDay
	if interval == model.IntervalWeekly && len(days) > 0 {
		if err := cc.store.ReplaceRepeatDays(checklist.ParentID, days); err != nil {
			return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not store repeat days"}
		}
		dayRows, _ = cc.store.GetRepeatDays(checklist.ParentID)
	}

	ctx.JSON(http.StatusCreated, packets.ChecklistEnvelope{
		Message: "checklist created",
		Data:    packets.NewChecklistResponse(checklist, dayRows),
	})
	return nil, nil
}

// GET /api/checklists/:id
func (cc *ChecklistController) getChecklist(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	checklist, apiErr := cc.loadOwned(ctx, user)
	if apiErr != nil {
		return nil, apiErr
	}
	days, err := cc.store.GetRepeatDays(checklist.ParentID)
	if err != nil {
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not load repeat days"}
	}
	return packets.NewChecklistResponse(checklist, days), nil
}

// PUT /api/checklists/:id — editing the original reconfigures the whole
// family; editing a sibling touches only its title and due time.
func (cc *ChecklistController) updateChecklist(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	checklist, apiErr := cc.loadOwned(ctx, user)
	if apiErr != nil {
		return nil, apiErr
	}

	var request packets.UpdateChecklistRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, &api.APIError{Code: http.StatusUnprocessableEntity, Message: err.Error()}
	}

	if !checklist.IsOriginal() {
		if request.TouchesRepeatConfig() {
			return nil, &api.APIError{
				Code:    http.StatusUnprocessableEntity,
				Message: "repeat configuration can only be edited on the family original",
			}
		}
		if request.Title != nil {
			checklist.Title = *request.Title
		}
		if request.DueTime != nil {
			checklist.DueTime = request.DueTime.Time
		}
		if err := cc.store.UpdateChecklist(checklist); err != nil {
			return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not update checklist"}
		}
		days, _ := cc.store.GetRepeatDays(checklist.ParentID)
		return packets.ChecklistEnvelope{
			Message: "checklist updated",
			Data:    packets.NewChecklistResponse(checklist, days),
		}, nil
	}

	edit, apiErr := cc.buildFamilyEdit(checklist, &request)
	if apiErr != nil {
		return nil, apiErr
	}
	updated, err := cc.engine.EditFamily(checklist.ID, edit)
	if err != nil {
		return nil, engineError(err)
	}
	days, _ := cc.store.GetRepeatDays(updated.ParentID)
	return packets.ChecklistEnvelope{
		Message: "checklist updated",
		Data:    packets.NewChecklistResponse(updated, days),
	}, nil
}

// DELETE /api/checklists/:id — soft delete; deleting the original takes the
// whole family with it.
func (cc *ChecklistController) deleteChecklist(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	checklist, apiErr := cc.loadOwned(ctx, user)
	if apiErr != nil {
		return nil, apiErr
	}

	var err error
	if checklist.IsOriginal() {
		err = cc.store.SoftDeleteFamily(checklist.ParentID)
	} else {
		err = cc.store.SoftDeleteChecklist(checklist.ID)
	}
	if err != nil {
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not delete checklist"}
	}
	return gin.H{"message": "checklist deleted"}, nil
}

// PATCH /api/checklists/:id/restore
func (cc *ChecklistController) restoreChecklist(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	id, apiErr := checklistID(ctx)
	if apiErr != nil {
		return nil, apiErr
	}

	checklist, err := cc.store.GetDeletedChecklistByID(id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &api.APIError{Code: http.StatusNotFound, Message: "checklist not found"}
		}
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not load checklist"}
	}
	if !user.IsAdmin() && checklist.OwnerID != user.ID {
		return nil, &api.APIError{Code: http.StatusForbidden, Message: "forbidden"}
	}

	if checklist.IsOriginal() {
		err = cc.store.RestoreFamily(checklist.ParentID)
	} else {
		err = cc.store.RestoreChecklist(checklist.ID)
	}
	if err != nil {
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not restore checklist"}
	}

	restored, err := cc.store.GetChecklistByID(id)
	if err != nil {
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not load restored checklist"}
	}
	days, _ := cc.store.GetRepeatDays(restored.ParentID)
	return packets.ChecklistEnvelope{
		Message: "checklist restored",
		Data:    packets.NewChecklistResponse(restored, days),
	}, nil
}

// POST /api/checklists/:id/complete — mark done and let the engine decide
// whether the next occurrence gets generated.
func (cc *ChecklistController) completeChecklist(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	checklist, apiErr := cc.loadOwned(ctx, user)
	if apiErr != nil {
		return nil, apiErr
	}

	result, err := cc.engine.Complete(checklist.ID, time.Now().UTC())
	if err != nil {
		return nil, engineError(err)
	}

	response := packets.CompleteResponse{
		Message: "checklist completed",
		Status:  string(result.Status),
	}
	if result.Next != nil {
		days, _ := cc.store.GetRepeatDays(result.Next.ParentID)
		next := packets.NewChecklistResponse(result.Next, days)
		response.Next = &next
	}
	return response, nil
}

// POST /api/checklists/:id/uncomplete — reverse a completion and its
// generated sibling.
func (cc *ChecklistController) uncompleteChecklist(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	checklist, apiErr := cc.loadOwned(ctx, user)
	if apiErr != nil {
		return nil, apiErr
	}

	instance, err := cc.engine.Uncomplete(checklist.ID)
	if err != nil {
		return nil, engineError(err)
	}
	days, _ := cc.store.GetRepeatDays(instance.ParentID)
	return packets.ChecklistEnvelope{
		Message: "checklist uncompleted",
		Data:    packets.NewChecklistResponse(instance, days),
	}, nil
}

// ownerScope limits listings to the caller unless they are an admin.
func ownerScope(user *model.User) *int {
	if user.IsAdmin() {
		return nil
	}
	id := user.ID
	return &id
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func checklistID(ctx *gin.Context) (uuid.UUID, *api.APIError) {
	id, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		return uuid.Nil, &api.APIError{Code: http.StatusBadRequest, Message: "invalid id"}
	}
	return id, nil
}

// loadOwned fetches a live checklist and enforces the owner-or-admin rule.
func (cc *ChecklistController) loadOwned(ctx *gin.Context, user *model.User) (*model.Checklist, *api.APIError) {
	id, apiErr := checklistID(ctx)
	if apiErr != nil {
		return nil, apiErr
	}

	checklist, err := cc.store.GetChecklistByID(id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &api.APIError{Code: http.StatusNotFound, Message: "checklist not found"}
		}
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not load checklist"}
	}
	if !user.IsAdmin() && checklist.OwnerID != user.ID {
		return nil, &api.APIError{Code: http.StatusForbidden, Message: "forbidden"}
	}
	return checklist, nil
}

func (cc *ChecklistController) respondList(filter db.ChecklistFilter) (any, *api.APIError) {
	list, err := cc.store.ListChecklists(filter)
	if err != nil {
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "failed to list checklists"}
	}

	parents := make([]uuid.UUID, 0, len(list))
	seen := make(map[uuid.UUID]bool, len(list))
	for _, c := range list {
		if !seen[c.ParentID] {
			seen[c.ParentID] = true
			parents = append(parents, c.ParentID)
		}
	}
	daysByParent, err := cc.store.GetRepeatDaysForParents(parents)
	if err != nil {
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "failed to load repeat days"}
	}

	response := make([]packets.ChecklistResponse, 0, len(list))
	for i := range list {
		response = append(response, packets.NewChecklistResponse(&list[i], daysByParent[list[i].ParentID]))
	}
	return response, nil
}

func (cc *ChecklistController) buildFamilyEdit(current *model.Checklist, request *packets.UpdateChecklistRequest) (recurrence.FamilyEdit, *api.APIError) {
	edit := recurrence.FamilyEdit{Title: request.Title}
	if request.DueTime != nil {
		t := request.DueTime.Time
		edit.DueTime = &t
	}

	interval := current.RepeatInterval
	if request.RepeatInterval != nil {
		interval = model.RepeatInterval(*request.RepeatInterval)
		edit.RepeatInterval = &interval
	}
	repeatType := current.RepeatType
	if request.RepeatType != nil {
		repeatType = model.RepeatType(*request.RepeatType)
		edit.RepeatType = &repeatType
	}

	endDate := current.RepeatEndDate
	if request.RepeatEndDate != nil {
		endDate = &request.RepeatEndDate.Time
		edit.RepeatEndDate = endDate
	}
	maxCount := current.RepeatMaxCount
	if request.RepeatMaxCount != nil {
		maxCount = request.RepeatMaxCount
		edit.RepeatMaxCount = maxCount
	}

	var days []model.Weekday
	if request.RepeatDays != nil {
		parsed, apiErr := parseRepeatDays(*request.RepeatDays)
		if apiErr != nil {
			return recurrence.FamilyEdit{}, apiErr
		}
		days = parsed
		edit.RepeatDays = &days
	}

	if apiErr := validateRepeatConfig(interval, repeatType, endDate, maxCount, days); apiErr != nil {
		return recurrence.FamilyEdit{}, apiErr
	}
	return edit, nil
}

func parseRepeatDays(names []string) ([]model.Weekday, *api.APIError) {
	if len(names) == 0 {
		return nil, nil
	}
	days := make([]model.Weekday, 0, len(names))
	seen := make(map[model.Weekday]bool, len(names))
	for _, name := range names {
		day, err := model.ParseWeekday(name)
		if err != nil {
			return nil, &api.APIError{Code: http.StatusUnprocessableEntity, Message: err.Error()}
		}
		if seen[day] {
			return nil, &api.APIError{Code: http.StatusUnprocessableEntity, Message: "duplicate repeat day: " + name}
		}
		seen[day] = true
		days = append(days, day)
	}
	return days, nil
}

func validateRepeatConfig(interval model.RepeatInterval, repeatType model.RepeatType, endDate *time.Time, maxCount *int, days []model.Weekday) *api.APIError {
	if repeatType == model.RepeatUntilDate && endDate == nil {
		return &api.APIError{
			Code:    http.StatusUnprocessableEntity,
			Message: "repeat_end_date is required when repeat_type is until_date",
		}
	}
	if repeatType == model.RepeatAfterCount && maxCount == nil {
		return &api.APIError{
			Code:    http.StatusUnprocessableEntity,
			Message: "repeat_max_count is required when repeat_type is after_count",
		}
	}
	if len(days) > 0 && interval != model.IntervalWeekly {
		return &api.APIError{
			Code:    http.StatusUnprocessableEntity,
			Message: "repeat_days are only valid when repeat_interval is weekly",
		}
	}
	return nil
}

func engineError(err error) *api.APIError {
	switch {
	case errors.Is(err, recurrence.ErrNotFound):
		return &api.APIError{Code: http.StatusNotFound, Message: err.Error()}
	case errors.Is(err, recurrence.ErrAlreadyCompleted), errors.Is(err, recurrence.ErrNotCompleted):
		return &api.APIError{Code: http.StatusConflict, Message: err.Error()}
	case errors.Is(err, recurrence.ErrNotOriginal):
		return &api.APIError{Code: http.StatusUnprocessableEntity, Message: err.Error()}
	}
	return &api.APIError{Code: http.StatusInternalServerError, Message: "internal error"}
}
