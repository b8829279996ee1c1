package organizer

import (
	"context"
	"time"
)

// RunRestartWorker drains the restart queue until ctx is cancelled.
//
// All restarts funnel through this single goroutine, which avoids
// races between a reaper's enqueue and concurrent dispatcher commands
// against the same identifier. Each dequeued entry is removed first —
// a terminal Monitor for that identifier still occupies the registry —
// and then re-registered with its original launch args. Failures are
// logged and never stop the worker.
func (o *Organizer) RunRestartWorker(ctx context.Context) {
	ticker := time.NewTicker(o.cfg.RestartInterval())
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		for {
			args, ok := o.queue.Pop()
			if !ok {
				break
			}
			id := args.Identifier()
			o.logger.Printf("restart worker: remove %q: %s", id, o.commandRemove([]string{id}))
			o.logger.Printf("restart worker: register %q: %s", id, o.commandRegister(args))
		}
	}
}
