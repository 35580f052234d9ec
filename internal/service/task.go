package service

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/Skotchmaster/task_manager/internal/logging"
	"github.com/Skotchmaster/task_manager/internal/models"
	"github.com/Skotchmaster/task_manager/internal/mykafka"
	"github.com/Skotchmaster/task_manager/internal/repo"
	"github.com/Skotchmaster/task_manager/internal/search"
	"github.com/Skotchmaster/task_manager/internal/transport"
)

type TaskService struct {
	Repo   *repo.GormRepo
	Search search.Index
	Events mykafka.Publisher
	Jobs   *Background
}

type TaskQuery struct {
	Status   string
	Priority string
	Tag      string
	Skip     int
	Limit    int
}

// scope limits regular users to their own tasks; admins see everything.
func scope(identity *models.User) *uuid.UUID {
	if identity.Role == models.RoleAdmin {
		return nil
	}
	uid := identity.UID
	return &uid
}

func (s *TaskService) afterWrite(ctx context.Context, typ string, task *models.Task, reindex func(context.Context) error) {
	owner := ""
	if task.UserUID != nil {
		owner = task.UserUID.String()
	}
	ev := mykafka.NewEvent(typ, map[string]string{"task_uid": task.UID.String(), "user_uid": owner})

	s.Jobs.Go(ctx, typ+"_index", reindex)
	s.Jobs.Go(ctx, typ, func(ctx context.Context) error {
		return s.Events.PublishEvent(ctx, mykafka.TopicTaskEvents, task.UID.String(), ev)
	})
}

func (s *TaskService) List(ctx context.Context, identity *models.User, q TaskQuery) (int64, []models.Task, error) {
	f := repo.TaskFilter{Owner: scope(identity), Status: q.Status, Priority: q.Priority, Tag: q.Tag}
	return s.Repo.ListTasks(ctx, f, q.Skip, q.Limit)
}

func (s *TaskService) Get(ctx context.Context, identity *models.User, id uuid.UUID) (*models.Task, error) {
	return s.Repo.GetTask(ctx, id, scope(identity))
}

func (s *TaskService) Create(ctx context.Context, identity *models.User, req transport.TaskCreateRequest) (*models.Task, error) {
	owner := identity.UID
	task := &models.Task{
		Title:       req.Title,
		Description: req.Description,
		DueDate:     req.DueDate,
		Status:      req.Status,
		Priority:    req.Priority,
		AssignedTo:  req.AssignedTo,
		Tags:        models.Tags(req.Tags),
		UserUID:     &owner,
	}
	if task.Status == "" {
		task.Status = transport.StatusPending
	}
	if task.Tags == nil {
		task.Tags = models.Tags{}
	}

	created, err := s.Repo.CreateTask(ctx, task)
	if err != nil {
		return nil, err
	}

	s.afterWrite(ctx, "task_created", created, func(ctx context.Context) error {
		return s.Search.IndexTask(ctx, created)
	})
	return created, nil
}

func (s *TaskService) Update(ctx context.Context, identity *models.User, id uuid.UUID, req transport.TaskUpdateRequest) (*models.Task, error) {
	task, err := s.Repo.PatchTask(ctx, req, id, scope(identity))
	if err != nil {
		return nil, err
	}

	s.afterWrite(ctx, "task_updated", task, func(ctx context.Context) error {
		return s.Search.IndexTask(ctx, task)
	})
	return task, nil
}

func (s *TaskService) Delete(ctx context.Context, identity *models.User, id uuid.UUID) error {
	task, err := s.Repo.GetTask(ctx, id, scope(identity))
	if err != nil {
		return err
	}
	if err := s.Repo.DeleteTask(ctx, id, scope(identity)); err != nil {
		return err
	}

	s.afterWrite(ctx, "task_deleted", task, func(ctx context.Context) error {
		return s.Search.DeleteTask(ctx, id)
	})
	return nil
}

// SearchTasks queries the search index and falls back to a database
// substring match when no index is configured.
func (s *TaskService) SearchTasks(ctx context.Context, identity *models.User, q string, skip, limit int) (int64, []models.Task, error) {
	l := logging.FromContext(ctx).With("svc", "task.search")
	owner := scope(identity)

	total, ids, err := s.Search.Search(ctx, q, owner, skip, limit)
	if errors.Is(err, search.ErrDisabled) {
		return s.Repo.SearchTasks(ctx, repo.TaskFilter{Owner: owner}, q, skip, limit)
	}
	if err != nil {
		l.Error("search_failed", "status", 500, "error", err)
		return 0, nil, err
	}

	items, err := s.Repo.GetTasksByIDs(ctx, ids)
	if err != nil {
		return 0, nil, err
	}
	if owner != nil {
		visible := items[:0]
		for _, t := range items {
			if t.OwnedBy(*owner) {
				visible = append(visible, t)
			}
		}
		items = visible
	}
	return total, items, nil
}
