package tracking

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Detached runs best-effort work that nobody waits for. Errors go to the
// logger and nowhere else.
type Detached struct {
	logger  zerolog.Logger
	timeout time.Duration
	wg      sync.WaitGroup
}

// NewDetached creates a runner. A zero timeout leaves tasks bounded only by
// the transport.
func NewDetached(logger zerolog.Logger, timeout time.Duration) *Detached {
	return &Detached{logger: logger, timeout: timeout}
}

// Go starts fn on a context that survives the caller's cancellation.
func (d *Detached) Go(ctx context.Context, name string, fn func(context.Context) error) {
	taskCtx := context.WithoutCancel(ctx)
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		if d.timeout > 0 {
			var cancel context.CancelFunc
			taskCtx, cancel = context.WithTimeout(taskCtx, d.timeout)
			defer cancel()
		}
		if err := fn(taskCtx); err != nil {
			d.logger.Error().Err(err).Str("task", name).Msg("detached task failed")
		}
	}()
}

// Wait blocks until every started task has returned.
func (d *Detached) Wait() {
	d.wg.Wait()
}
