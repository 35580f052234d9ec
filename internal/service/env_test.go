package service

import (
	"context"
	"sync"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/task_manager/internal/blocklist"
	"github.com/Skotchmaster/task_manager/internal/db"
	"github.com/Skotchmaster/task_manager/internal/mail"
	"github.com/Skotchmaster/task_manager/internal/repo"
	"github.com/Skotchmaster/task_manager/internal/search"
	"github.com/Skotchmaster/task_manager/internal/tokens"
)

type recordingQueue struct {
	mu   sync.Mutex
	msgs []mail.Message
}

func (q *recordingQueue) Enqueue(_ context.Context, msg mail.Message) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.msgs = append(q.msgs, msg)
	return nil
}

func (q *recordingQueue) sent() []mail.Message {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]mail.Message(nil), q.msgs...)
}

type publishedEvent struct {
	topic, key string
	event      any
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []publishedEvent
}

func (p *recordingPublisher) PublishEvent(_ context.Context, topic, key string, event any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{topic: topic, key: key, event: event})
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) published() []publishedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]publishedEvent(nil), p.events...)
}

type testEnv struct {
	repo   *repo.GormRepo
	codec  *tokens.Codec
	store  *blocklist.RedisStore
	mail   *recordingQueue
	events *recordingPublisher
	jobs   *Background
	auth   *AuthService
	tasks  *TaskService
}

func newTestEnv(t *testing.T, index search.Index) *testEnv {
	t.Helper()

	gdb, err := db.Open(context.Background(), "sqlite://:memory:")
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gdb))
	t.Cleanup(func() { _ = db.Close(gdb) })

	m := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: m.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	store, err := blocklist.NewRedisStore(client, "jti", 48*time.Hour, 48*time.Hour)
	require.NoError(t, err)

	codec, err := tokens.NewCodec([]byte("test-jwt-secret"), "HS256")
	require.NoError(t, err)

	if index == nil {
		index = search.Nop{}
	}

	env := &testEnv{
		repo:   repo.New(gdb),
		codec:  codec,
		store:  store,
		mail:   &recordingQueue{},
		events: &recordingPublisher{},
		jobs:   &Background{},
	}
	env.auth = &AuthService{
		Repo:       env.repo,
		Codec:      codec,
		Blocklist:  store,
		Mail:       env.mail,
		Events:     env.events,
		Jobs:       env.jobs,
		Domain:     "tasks.example.com",
		AccessTTL:  time.Hour,
		RefreshTTL: 48 * time.Hour,
		EmailTTL:   time.Hour,
	}
	env.tasks = &TaskService{
		Repo:   env.repo,
		Search: index,
		Events: env.events,
		Jobs:   env.jobs,
	}
	t.Cleanup(env.jobs.Wait)
	return env
}
