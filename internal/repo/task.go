package repo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/task_manager/internal/apperr"
	"github.com/Skotchmaster/task_manager/internal/models"
	"github.com/Skotchmaster/task_manager/internal/transport"
)

// TaskFilter narrows a task listing. A nil Owner lists every user's tasks.
type TaskFilter struct {
	Owner    *uuid.UUID
	Status   string
	Priority string
	Tag      string
}

func (r *GormRepo) scopeTasks(ctx context.Context, f TaskFilter) *gorm.DB {
	q := r.DB.WithContext(ctx).Model(&models.Task{})
	if f.Owner != nil {
		q = q.Where("user_uid = ?", *f.Owner)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.Priority != "" {
		q = q.Where("priority = ?", f.Priority)
	}
	if f.Tag != "" {
		if r.DB.Dialector.Name() == "postgres" {
			q = q.Where("? = ANY(tags)", f.Tag)
		} else {
			// tags is stored as a text array literal, e.g. {"home","work"}.
			// instr is case-sensitive and has no wildcards.
			q = q.Where(`instr(',' || substr(tags, 2, length(tags) - 2) || ',', ?) > 0`, ","+quoteArrayElem(f.Tag)+",")
		}
	}
	return q
}

// quoteArrayElem encodes s the way pq.StringArray writes an element.
func quoteArrayElem(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return `"` + s + `"`
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike makes s match literally inside a LIKE pattern with ESCAPE '\'.
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

func (r *GormRepo) ListTasks(ctx context.Context, f TaskFilter, offset, limit int) (int64, []models.Task, error) {
	var total int64
	if err := r.scopeTasks(ctx, f).Count(&total).Error; err != nil {
		return 0, nil, fmt.Errorf("count tasks: %w", err)
	}

	items := make([]models.Task, 0, limit)
	if err := r.scopeTasks(ctx, f).Order("created_at DESC").Offset(offset).Limit(limit).Find(&items).Error; err != nil {
		return 0, nil, fmt.Errorf("list tasks: %w", err)
	}
	return total, items, nil
}

// GetTask returns ErrTaskNotFound both for a missing task and for one
// outside owner's scope.
func (r *GormRepo) GetTask(ctx context.Context, id uuid.UUID, owner *uuid.UUID) (*models.Task, error) {
	var task models.Task
	q := r.DB.WithContext(ctx).Where("uid = ?", id)
	if owner != nil {
		q = q.Where("user_uid = ?", *owner)
	}
	if err := q.First(&task).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrTaskNotFound
		}
		return nil, fmt.Errorf("get task: %w", err)
	}
	return &task, nil
}

// GetTasksByIDs keeps the order of ids and skips ids that no longer exist.
func (r *GormRepo) GetTasksByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Task, error) {
	if len(ids) == 0 {
		return []models.Task{}, nil
	}
	var found []models.Task
	if err := r.DB.WithContext(ctx).Where("uid IN ?", ids).Find(&found).Error; err != nil {
		return nil, fmt.Errorf("get tasks: %w", err)
	}
	byID := make(map[uuid.UUID]models.Task, len(found))
	for _, t := range found {
		byID[t.UID] = t
	}
	out := make([]models.Task, 0, len(found))
	for _, id := range ids {
		if t, ok := byID[id]; ok {
			out = append(out, t)
		}
	}
	return out, nil
}

func (r *GormRepo) CreateTask(ctx context.Context, task *models.Task) (*models.Task, error) {
	if err := r.DB.WithContext(ctx).Create(task).Error; err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}
	return task, nil
}

func (r *GormRepo) PatchTask(ctx context.Context, req transport.TaskUpdateRequest, id uuid.UUID, owner *uuid.UUID) (*models.Task, error) {
	task, err := r.GetTask(ctx, id, owner)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		task.Title = *req.Title
	}
	if req.Description != nil {
		task.Description = *req.Description
	}
	if req.Status != nil {
		task.Status = *req.Status
	}
	if req.Priority != nil {
		task.Priority = req.Priority
	}
	if req.AssignedTo != nil {
		task.AssignedTo = req.AssignedTo
	}
	if req.DueDate != nil {
		task.DueDate = req.DueDate
	}
	if req.Tags != nil {
		task.Tags = models.Tags(*req.Tags)
	}

	if err := r.DB.WithContext(ctx).Save(task).Error; err != nil {
		return nil, fmt.Errorf("patch task: %w", err)
	}
	return task, nil
}

func (r *GormRepo) DeleteTask(ctx context.Context, id uuid.UUID, owner *uuid.UUID) error {
	q := r.DB.WithContext(ctx).Where("uid = ?", id)
	if owner != nil {
		q = q.Where("user_uid = ?", *owner)
	}
	res := q.Delete(&models.Task{})
	if res.Error != nil {
		return fmt.Errorf("delete task: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.ErrTaskNotFound
	}
	return nil
}

// SearchTasks is a plain substring match over title and description, used
// when no search index is configured.
func (r *GormRepo) SearchTasks(ctx context.Context, f TaskFilter, q string, offset, limit int) (int64, []models.Task, error) {
	like := "%" + escapeLike(strings.ToLower(q)) + "%"
	scope := func() *gorm.DB {
		return r.scopeTasks(ctx, f).Where(`LOWER(title) LIKE ? ESCAPE '\' OR LOWER(description) LIKE ? ESCAPE '\'`, like, like)
	}

	var total int64
	if err := scope().Count(&total).Error; err != nil {
		return 0, nil, fmt.Errorf("count search: %w", err)
	}

	items := make([]models.Task, 0, limit)
	if err := scope().Order("created_at DESC").Offset(offset).Limit(limit).Find(&items).Error; err != nil {
		return 0, nil, fmt.Errorf("search tasks: %w", err)
	}
	return total, items, nil
}
