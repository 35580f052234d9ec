package repo

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/task_manager/internal/apperr"
	"github.com/Skotchmaster/task_manager/internal/db"
	"github.com/Skotchmaster/task_manager/internal/models"
	"github.com/Skotchmaster/task_manager/internal/transport"
)

func newTestRepo(t *testing.T) *GormRepo {
	t.Helper()

	gdb, err := db.Open(context.Background(), "sqlite://:memory:")
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gdb))
	t.Cleanup(func() { _ = db.Close(gdb) })

	return New(gdb)
}

func seedUser(t *testing.T, r *GormRepo, email string) *models.User {
	t.Helper()

	u := &models.User{Username: "user", Email: email, PasswordHash: "hash"}
	require.NoError(t, r.CreateUser(context.Background(), u))
	return u
}

func seedTask(t *testing.T, r *GormRepo, owner uuid.UUID, title, status string, tags []string, age time.Duration) *models.Task {
	t.Helper()

	task := &models.Task{
		Title:       title,
		Description: "desc",
		Status:      status,
		Tags:        tags,
		UserUID:     &owner,
		CreatedAt:   time.Now().UTC().Add(-age),
	}
	_, err := r.CreateTask(context.Background(), task)
	require.NoError(t, err)
	return task
}

func TestUsers_CreateAndLookup(t *testing.T) {
	t.Parallel()

	r := newTestRepo(t)
	ctx := context.Background()

	u := seedUser(t, r, "a@x.com")
	assert.NotEqual(t, uuid.Nil, u.UID)
	assert.Equal(t, models.RoleUser, u.Role)
	assert.False(t, u.IsVerified)

	err := r.CreateUser(ctx, &models.User{Username: "other", Email: "a@x.com", PasswordHash: "h"})
	assert.ErrorIs(t, err, apperr.ErrAlreadyExists)

	byEmail, err := r.GetUserByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, u.UID, byEmail.UID)

	byUID, err := r.GetUserByUID(ctx, u.UID)
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", byUID.Email)

	_, err = r.GetUserByEmail(ctx, "missing@x.com")
	assert.ErrorIs(t, err, apperr.ErrUserNotFound)
	_, err = r.GetUserByUID(ctx, uuid.New())
	assert.ErrorIs(t, err, apperr.ErrUserNotFound)
}

func TestUsers_Updates(t *testing.T) {
	t.Parallel()

	r := newTestRepo(t)
	ctx := context.Background()
	u := seedUser(t, r, "b@x.com")

	require.NoError(t, r.MarkVerified(ctx, u.UID))
	require.NoError(t, r.SetPasswordHash(ctx, u.UID, "new-hash"))
	require.NoError(t, r.SetRole(ctx, u.UID, models.RoleAdmin))

	got, err := r.GetUserByUID(ctx, u.UID)
	require.NoError(t, err)
	assert.True(t, got.IsVerified)
	assert.Equal(t, "new-hash", got.PasswordHash)
	assert.Equal(t, models.RoleAdmin, got.Role)

	assert.ErrorIs(t, r.MarkVerified(ctx, uuid.New()), apperr.ErrUserNotFound)

	total, users, err := r.ListUsers(ctx, 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Len(t, users, 1)
}

func TestTasks_ListFiltersAndOrder(t *testing.T) {
	t.Parallel()

	r := newTestRepo(t)
	ctx := context.Background()
	alice := seedUser(t, r, "alice@x.com")
	bob := seedUser(t, r, "bob@x.com")

	oldest := seedTask(t, r, alice.UID, "oldest", transport.StatusPending, []string{"work"}, 3*time.Hour)
	middle := seedTask(t, r, alice.UID, "middle", transport.StatusCompleted, []string{"home", "work"}, 2*time.Hour)
	newest := seedTask(t, r, alice.UID, "newest", transport.StatusPending, nil, time.Hour)
	seedTask(t, r, bob.UID, "bobs", transport.StatusPending, []string{"work"}, 0)

	total, items, err := r.ListTasks(ctx, TaskFilter{Owner: &alice.UID}, 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	require.Len(t, items, 3)
	assert.Equal(t, []uuid.UUID{newest.UID, middle.UID, oldest.UID}, []uuid.UUID{items[0].UID, items[1].UID, items[2].UID})

	total, items, err = r.ListTasks(ctx, TaskFilter{Owner: &alice.UID}, 1, 1)
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	require.Len(t, items, 1)
	assert.Equal(t, middle.UID, items[0].UID)

	_, items, err = r.ListTasks(ctx, TaskFilter{Owner: &alice.UID, Status: transport.StatusPending}, 0, 10)
	require.NoError(t, err)
	assert.Len(t, items, 2)

	_, items, err = r.ListTasks(ctx, TaskFilter{Owner: &alice.UID, Tag: "work"}, 0, 10)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, models.Tags{"home", "work"}, items[0].Tags)

	total, _, err = r.ListTasks(ctx, TaskFilter{Tag: "work"}, 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
}

func TestTasks_OwnershipScope(t *testing.T) {
	t.Parallel()

	r := newTestRepo(t)
	ctx := context.Background()
	alice := seedUser(t, r, "alice@x.com")
	bob := seedUser(t, r, "bob@x.com")
	task := seedTask(t, r, alice.UID, "mine", transport.StatusPending, nil, 0)

	_, err := r.GetTask(ctx, task.UID, &bob.UID)
	assert.ErrorIs(t, err, apperr.ErrTaskNotFound)

	got, err := r.GetTask(ctx, task.UID, nil)
	require.NoError(t, err)
	assert.True(t, got.OwnedBy(alice.UID))

	assert.ErrorIs(t, r.DeleteTask(ctx, task.UID, &bob.UID), apperr.ErrTaskNotFound)
	require.NoError(t, r.DeleteTask(ctx, task.UID, &alice.UID))
	assert.ErrorIs(t, r.DeleteTask(ctx, task.UID, nil), apperr.ErrTaskNotFound)
}

func TestTasks_Patch(t *testing.T) {
	t.Parallel()

	r := newTestRepo(t)
	ctx := context.Background()
	alice := seedUser(t, r, "alice@x.com")
	task := seedTask(t, r, alice.UID, "draft", transport.StatusPending, []string{"a"}, 0)

	title := "final"
	status := transport.StatusInProgress
	priority := "High"
	tags := []string{"b", "c"}

	got, err := r.PatchTask(ctx, transport.TaskUpdateRequest{
		Title:    &title,
		Status:   &status,
		Priority: &priority,
		Tags:     &tags,
	}, task.UID, &alice.UID)
	require.NoError(t, err)
	assert.Equal(t, "final", got.Title)
	assert.Equal(t, "desc", got.Description)

	reloaded, err := r.GetTask(ctx, task.UID, nil)
	require.NoError(t, err)
	assert.Equal(t, transport.StatusInProgress, reloaded.Status)
	require.NotNil(t, reloaded.Priority)
	assert.Equal(t, "High", *reloaded.Priority)
	assert.Equal(t, models.Tags{"b", "c"}, reloaded.Tags)

	_, err = r.PatchTask(ctx, transport.TaskUpdateRequest{Title: &title}, uuid.New(), nil)
	assert.ErrorIs(t, err, apperr.ErrTaskNotFound)
}

func TestUsers_GetWithTasksAndByIDs(t *testing.T) {
	t.Parallel()

	r := newTestRepo(t)
	ctx := context.Background()
	alice := seedUser(t, r, "alice@x.com")
	first := seedTask(t, r, alice.UID, "first", transport.StatusPending, nil, time.Hour)
	second := seedTask(t, r, alice.UID, "second", transport.StatusPending, nil, 0)

	u, err := r.GetUserWithTasks(ctx, alice.UID)
	require.NoError(t, err)
	require.Len(t, u.Tasks, 2)
	assert.Equal(t, second.UID, u.Tasks[0].UID)

	got, err := r.GetTasksByIDs(ctx, []uuid.UUID{first.UID, uuid.New(), second.UID})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, first.UID, got[0].UID)
	assert.Equal(t, second.UID, got[1].UID)
}

func TestTasks_SearchFallback(t *testing.T) {
	t.Parallel()

	r := newTestRepo(t)
	ctx := context.Background()
	alice := seedUser(t, r, "alice@x.com")
	bob := seedUser(t, r, "bob@x.com")
	seedTask(t, r, alice.UID, "Write Report", transport.StatusPending, nil, 0)
	seedTask(t, r, alice.UID, "groceries", transport.StatusPending, nil, 0)
	seedTask(t, r, bob.UID, "report for bob", transport.StatusPending, nil, 0)

	total, items, err := r.SearchTasks(ctx, TaskFilter{Owner: &alice.UID}, "REPORT", 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, items, 1)
	assert.Equal(t, "Write Report", items[0].Title)

	total, _, err = r.SearchTasks(ctx, TaskFilter{}, "report", 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
}

func TestTasks_TagFilterIsExact(t *testing.T) {
	t.Parallel()

	r := newTestRepo(t)
	ctx := context.Background()
	alice := seedUser(t, r, "alice@x.com")
	work := seedTask(t, r, alice.UID, "work", transport.StatusPending, []string{"work"}, 3*time.Hour)
	upper := seedTask(t, r, alice.UID, "upper", transport.StatusPending, []string{"Work"}, 2*time.Hour)
	odd := seedTask(t, r, alice.UID, "odd", transport.StatusPending, []string{`50%_off`, `say "hi"`, `a\b`}, time.Hour)
	seedTask(t, r, alice.UID, "homework", transport.StatusPending, []string{"homework"}, 0)

	tests := []struct {
		tag  string
		want []uuid.UUID
	}{
		{tag: "work", want: []uuid.UUID{work.UID}},
		{tag: "Work", want: []uuid.UUID{upper.UID}},
		{tag: "%", want: nil},
		{tag: "_", want: nil},
		{tag: "wor", want: nil},
		{tag: `50%_off`, want: []uuid.UUID{odd.UID}},
		{tag: `say "hi"`, want: []uuid.UUID{odd.UID}},
		{tag: `a\b`, want: []uuid.UUID{odd.UID}},
		{tag: `"work"`, want: nil},
	}

	for _, tt := range tests {
		_, items, err := r.ListTasks(ctx, TaskFilter{Owner: &alice.UID, Tag: tt.tag}, 0, 10)
		require.NoError(t, err, tt.tag)

		var got []uuid.UUID
		for _, it := range items {
			got = append(got, it.UID)
		}
		assert.Equal(t, tt.want, got, tt.tag)
	}
}

func TestTasks_SearchMatchesLiterally(t *testing.T) {
	t.Parallel()

	r := newTestRepo(t)
	ctx := context.Background()
	alice := seedUser(t, r, "alice@x.com")
	seedTask(t, r, alice.UID, "100% done", transport.StatusPending, nil, 2*time.Hour)
	seedTask(t, r, alice.UID, "snake_case", transport.StatusPending, nil, time.Hour)
	seedTask(t, r, alice.UID, `C:\tmp`, transport.StatusPending, nil, 0)
	seedTask(t, r, alice.UID, "plain", transport.StatusPending, nil, 0)

	tests := []struct {
		q    string
		want []string
	}{
		{q: "%", want: []string{"100% done"}},
		{q: "_", want: []string{"snake_case"}},
		{q: `\`, want: []string{`C:\tmp`}},
		{q: "e_c", want: []string{"snake_case"}},
		{q: "0%", want: []string{"100% done"}},
		{q: "x", want: nil},
	}

	for _, tt := range tests {
		_, items, err := r.SearchTasks(ctx, TaskFilter{Owner: &alice.UID}, tt.q, 0, 10)
		require.NoError(t, err, tt.q)

		var got []string
		for _, it := range items {
			got = append(got, it.Title)
		}
		assert.Equal(t, tt.want, got, tt.q)
	}
}
