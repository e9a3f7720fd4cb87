// Package worker implements the asynchronous cleanup consumer that removes
// attachment blobs dispatched by the write pipeline.
package worker

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"

	"commentd/internal/queue"
	"commentd/pkg/logger"
	"commentd/pkg/utils"
)

// Cleanup consumes delete jobs and unlinks each listed blob. Delivery is
// at-least-once: a file that is already absent counts as deleted, so
// re-delivered jobs are no-ops. Errors are contained to the single file
// being processed and never escalate to job-level failure.
type Cleanup struct {
	client *queue.Client
	log    *logger.Logger
}

func NewCleanup(client *queue.Client, log *logger.Logger) *Cleanup {
	return &Cleanup{client: client, log: log}
}

// Run consumes delete jobs until the context is canceled or the delivery
// channel closes. Every message is acked exactly once; nothing is requeued —
// dead-lettering is an operator concern.
func (w *Cleanup) Run(ctx context.Context) error {
	deliveries, err := w.client.ConsumeDeleteJobs()
	if err != nil {
		return err
	}

	w.log.Info(ctx).Logs("Cleanup worker started, waiting for delete jobs")

	for {
		select {
		case <-ctx.Done():
			w.log.Info(ctx).Logs("Cleanup worker stopping")
			return ctx.Err()
		case msg, ok := <-deliveries:
			if !ok {
				return errors.New("delivery channel closed")
			}
			w.HandleBody(ctx, msg.Body)
			if err := msg.Ack(false); err != nil {
				w.log.Error(ctx).WithMeta(utils.Map{"error": err.Error()}).Logs("Failed to ack delete job")
			}
		}
	}
}

// HandleBody decodes one delete job and processes every file in it.
func (w *Cleanup) HandleBody(ctx context.Context, body []byte) {
	var job queue.DeleteJob
	if err := json.Unmarshal(body, &job); err != nil {
		w.log.Error(ctx).WithMeta(utils.Map{"error": err.Error()}).Logs("Malformed delete job discarded")
		return
	}
	w.HandleJob(ctx, job)
}

// HandleJob removes each blob in the job, continuing past individual
// failures.
func (w *Cleanup) HandleJob(ctx context.Context, job queue.DeleteJob) {
	for _, path := range job.Files {
		if err := w.removeFile(path); err != nil {
			w.log.Error(ctx).WithMeta(utils.Map{"file": path, "error": err.Error()}).Logs("Failed to delete file")
			continue
		}
		w.log.Info(ctx).WithMeta(utils.Map{"file": path}).Logs("Deleted file")
	}
}

func (w *Cleanup) removeFile(path string) error {
	err := os.Remove(path)
	if errors.Is(err, fs.ErrNotExist) {
		// Already gone, likely a re-delivered job.
		return nil
	}
	return err
}
