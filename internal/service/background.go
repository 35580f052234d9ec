package service

import (
	"context"
	"sync"
	"time"

	"github.com/Skotchmaster/task_manager/internal/logging"
)

const backgroundTimeout = 5 * time.Second

// Background runs fire-and-forget jobs detached from the request that
// started them. Failures are logged, never returned.
type Background struct {
	wg sync.WaitGroup
}

func (b *Background) Go(ctx context.Context, job string, fn func(context.Context) error) {
	l := logging.FromContext(ctx).With("job", job)
	detached := context.WithoutCancel(ctx)

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		ctx, cancel := context.WithTimeout(detached, backgroundTimeout)
		defer cancel()
		if err := fn(ctx); err != nil {
			l.Error("background_job_failed", "error", err)
		}
	}()
}

// Wait blocks until every started job has returned.
func (b *Background) Wait() {
	b.wg.Wait()
}
