package webhook

import (
	"context"

	"github.com/lueurxax/telegram-webhook-forwarder/internal/core/domain"
	"github.com/lueurxax/telegram-webhook-forwarder/internal/platform/worker"
)

// Dispatcher delivers payloads in the background so callers never wait on the sink.
type Dispatcher struct {
	client *Client
	tasks  *worker.Tasks
}

func NewDispatcher(client *Client, tasks *worker.Tasks) *Dispatcher {
	return &Dispatcher{client: client, tasks: tasks}
}

// Submit starts delivery of p and returns immediately. The outcome is
// logged and counted by the client.
func (d *Dispatcher) Submit(ctx context.Context, p domain.Payload) {
	d.tasks.Go(ctx, "webhook delivery "+p.Event(), func(ctx context.Context) {
		d.client.Deliver(ctx, p)
	})
}

// Wait blocks until all submitted deliveries have finished.
func (d *Dispatcher) Wait() {
	d.tasks.Wait()
}
