package workers

import "context"

// Workers runs multiple background workers in a unified way.
type Workers struct {
	workers []Worker
}

func New(ws ...Worker) *Workers {
	return &Workers{workers: ws}
}

// Start launches every worker.
func (w *Workers) Start(ctx context.Context) {
	for _, worker := range w.workers {
		worker.Start(ctx)
	}
}

// Stop stops every worker and blocks until all have exited.
func (w *Workers) Stop() {
	for _, worker := range w.workers {
		worker.Stop()
	}
}
