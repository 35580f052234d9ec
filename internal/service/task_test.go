package service

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/task_manager/internal/apperr"
	"github.com/Skotchmaster/task_manager/internal/models"
	"github.com/Skotchmaster/task_manager/internal/mykafka"
	"github.com/Skotchmaster/task_manager/internal/transport"
)

type memIndex struct {
	mu    sync.Mutex
	tasks map[uuid.UUID]models.Task
	// leak returns every match regardless of owner
	leak bool
}

func newMemIndex() *memIndex {
	return &memIndex{tasks: map[uuid.UUID]models.Task{}}
}

func (m *memIndex) IndexTask(_ context.Context, task *models.Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tasks[task.UID] = *task
	return nil
}

func (m *memIndex) DeleteTask(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.tasks, id)
	return nil
}

func (m *memIndex) Search(_ context.Context, q string, owner *uuid.UUID, _, _ int) (int64, []uuid.UUID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var ids []uuid.UUID
	for id, t := range m.tasks {
		if !strings.Contains(t.Title, q) {
			continue
		}
		if owner != nil && !m.leak && !t.OwnedBy(*owner) {
			continue
		}
		ids = append(ids, id)
	}
	return int64(len(ids)), ids, nil
}

func (m *memIndex) has(id uuid.UUID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.tasks[id]
	return ok
}

func newUser(t *testing.T, env *testEnv, email string, role models.Role) *models.User {
	t.Helper()
	u := &models.User{Username: "u", Email: email, PasswordHash: "h", IsVerified: true, Role: role}
	require.NoError(t, env.repo.CreateUser(context.Background(), u))
	return u
}

func TestTaskService_CRUDWithOwnership(t *testing.T) {
	t.Parallel()

	idx := newMemIndex()
	env := newTestEnv(t, idx)
	ctx := context.Background()
	alice := newUser(t, env, "alice@x.com", models.RoleUser)
	bob := newUser(t, env, "bob@x.com", models.RoleUser)
	admin := newUser(t, env, "admin@x.com", models.RoleAdmin)

	task, err := env.tasks.Create(ctx, alice, transport.TaskCreateRequest{Title: "plan sprint", Description: "d"})
	require.NoError(t, err)
	assert.Equal(t, transport.StatusPending, task.Status)
	assert.True(t, task.OwnedBy(alice.UID))

	_, err = env.tasks.Get(ctx, bob, task.UID)
	assert.ErrorIs(t, err, apperr.ErrTaskNotFound)
	got, err := env.tasks.Get(ctx, admin, task.UID)
	require.NoError(t, err)
	assert.Equal(t, task.UID, got.UID)

	status := transport.StatusCompleted
	_, err = env.tasks.Update(ctx, bob, task.UID, transport.TaskUpdateRequest{Status: &status})
	assert.ErrorIs(t, err, apperr.ErrTaskNotFound)
	updated, err := env.tasks.Update(ctx, alice, task.UID, transport.TaskUpdateRequest{Status: &status})
	require.NoError(t, err)
	assert.Equal(t, transport.StatusCompleted, updated.Status)

	total, items, err := env.tasks.List(ctx, bob, TaskQuery{Limit: 10})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, items)
	total, _, err = env.tasks.List(ctx, admin, TaskQuery{Limit: 10, Status: transport.StatusCompleted})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)

	env.jobs.Wait()
	assert.True(t, idx.has(task.UID))

	assert.ErrorIs(t, env.tasks.Delete(ctx, bob, task.UID), apperr.ErrTaskNotFound)
	require.NoError(t, env.tasks.Delete(ctx, alice, task.UID))
	assert.ErrorIs(t, env.tasks.Delete(ctx, alice, task.UID), apperr.ErrTaskNotFound)

	env.jobs.Wait()
	assert.False(t, idx.has(task.UID))

	var types []string
	for _, ev := range env.events.published() {
		if ev.topic == mykafka.TopicTaskEvents {
			types = append(types, ev.event.(mykafka.Event).Type)
		}
	}
	assert.ElementsMatch(t, []string{"task_created", "task_updated", "task_deleted"}, types)
}

func TestTaskService_SearchUsesIndex(t *testing.T) {
	t.Parallel()

	idx := newMemIndex()
	idx.leak = true
	env := newTestEnv(t, idx)
	ctx := context.Background()
	alice := newUser(t, env, "alice@x.com", models.RoleUser)
	bob := newUser(t, env, "bob@x.com", models.RoleUser)

	mine, err := env.tasks.Create(ctx, alice, transport.TaskCreateRequest{Title: "report", Description: "d"})
	require.NoError(t, err)
	_, err = env.tasks.Create(ctx, bob, transport.TaskCreateRequest{Title: "report", Description: "d"})
	require.NoError(t, err)
	env.jobs.Wait()

	_, items, err := env.tasks.SearchTasks(ctx, alice, "report", 0, 10)
	require.NoError(t, err)
	require.Len(t, items, 1, "results outside the caller's scope are dropped")
	assert.Equal(t, mine.UID, items[0].UID)
}

func TestTaskService_SearchFallsBackWithoutIndex(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, nil)
	ctx := context.Background()
	alice := newUser(t, env, "alice@x.com", models.RoleUser)

	_, err := env.tasks.Create(ctx, alice, transport.TaskCreateRequest{Title: "Buy milk", Description: "d", Tags: []string{"home"}})
	require.NoError(t, err)

	total, items, err := env.tasks.SearchTasks(ctx, alice, "milk", 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, items, 1)
	assert.Equal(t, models.Tags{"home"}, items[0].Tags)
}
