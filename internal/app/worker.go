package app

import (
	"context"
	"fmt"
	"io"

	"eliechat/internal/util"
	"eliechat/pkg/queue"
	"eliechat/pkg/storage"
)

// IngestJobHandler returns the queue handler that drives a staged upload
// through the ingestion workflow. The staged object is removed only after a
// successful commit so a retried job can still read it.
//
// Progress flows through a buffered channel so the upload never waits on the
// status write; a slow redis drops intermediate percentages instead of
// stalling the byte stream.
func IngestJobHandler(a *App, objects storage.ObjectStore, jobs *queue.RedisJobQueue) func(context.Context, queue.IngestJob) error {
	return func(ctx context.Context, job queue.IngestJob) error {
		logger := util.LoggerFromContext(ctx).With("job_id", job.ID, "file", job.FileName)

		obj, _, err := objects.Get(ctx, job.ObjectKey)
		if err != nil {
			return fmt.Errorf("read staged object %s: %w", job.ObjectKey, err)
		}
		data, err := io.ReadAll(obj)
		obj.Close()
		if err != nil {
			return fmt.Errorf("read staged object %s: %w", job.ObjectKey, err)
		}

		// progressCh is never closed: callbacks arrive on the goroutine
		// streaming the upload body and a straggler can fire after the
		// error path returns. The consumer is told to stop instead.
		progressCh := make(chan int, 16)
		stop := make(chan struct{})
		done := make(chan struct{})
		writeProgress := func(percent int) {
			if err := jobs.SetProgress(ctx, job.ID, percent); err != nil {
				logger.Warn("update job progress", "err", err)
			}
		}
		go func() {
			defer close(done)
			for {
				select {
				case percent := <-progressCh:
					writeProgress(percent)
				case <-stop:
					for {
						select {
						case percent := <-progressCh:
							writeProgress(percent)
						default:
							return
						}
					}
				}
			}
		}()
		progress := func(percent int) {
			select {
			case progressCh <- percent:
			default:
			}
		}

		_, ingestErr := a.IngestFile(ctx, job.ConversationID, job.FileName, data, progress)
		close(stop)
		<-done
		if ingestErr != nil {
			return fmt.Errorf("ingest %s: %w", job.FileName, ingestErr)
		}

		if err := objects.Delete(ctx, job.ObjectKey); err != nil {
			logger.Warn("remove staged object", "key", job.ObjectKey, "err", err)
		}
		logger.Info("file ingested", "bytes", len(data))
		return nil
	}
}
