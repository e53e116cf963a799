package app

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"

	"eliechat/pkg/assistant"
	"eliechat/pkg/queue"
	"eliechat/pkg/storage"
)

func newWorkerQueue(t *testing.T) *queue.RedisJobQueue {
	t.Helper()
	redis := miniredis.RunT(t)
	jobs, err := queue.NewRedisJobQueue(queue.RedisQueueConfig{Addr: redis.Addr(), Stream: "ingest-test"})
	if err != nil {
		t.Fatalf("new queue: %v", err)
	}
	return jobs
}

func TestIngestJobHandlerCommitsAndRemovesStagedObject(t *testing.T) {
	env := newTestApp(t, true)
	env.saveConfig(t, validConfig())
	jobs := newWorkerQueue(t)
	objects := storage.NewMemoryObjectStore()
	ctx := context.Background()

	const key = "uploads/job-1/notes.txt"
	if err := objects.Put(ctx, key, strings.NewReader("hello world"), 11, "text/plain"); err != nil {
		t.Fatalf("stage object: %v", err)
	}
	job, err := jobs.Enqueue(ctx, key, "notes.txt", "")
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	handler := IngestJobHandler(env.app, objects, jobs)
	if err := handler(ctx, job); err != nil {
		t.Fatalf("handle job: %v", err)
	}

	files, err := env.store.ListIngestedFiles()
	if err != nil {
		t.Fatalf("list files: %v", err)
	}
	if len(files) != 1 || files[0].FileName != "notes.txt" {
		t.Fatalf("files = %+v", files)
	}
	if _, _, err := objects.Get(ctx, key); err == nil {
		t.Fatal("staged object should be removed after commit")
	}
	updated, found, err := jobs.GetJob(ctx, job.ID)
	if err != nil || !found {
		t.Fatalf("get job: found=%v err=%v", found, err)
	}
	if updated.Progress != 100 {
		t.Fatalf("progress = %d, want 100", updated.Progress)
	}
}

func TestIngestJobHandlerKeepsStagedObjectOnFailure(t *testing.T) {
	env := newTestApp(t, true)
	env.saveConfig(t, validConfig())
	env.client.upload = errors.New("upload rejected")
	jobs := newWorkerQueue(t)
	objects := storage.NewMemoryObjectStore()
	ctx := context.Background()

	const key = "uploads/job-2/notes.txt"
	if err := objects.Put(ctx, key, bytes.NewReader([]byte("data")), 4, "text/plain"); err != nil {
		t.Fatalf("stage object: %v", err)
	}
	job, err := jobs.Enqueue(ctx, key, "notes.txt", "")
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	handler := IngestJobHandler(env.app, objects, jobs)
	if err := handler(ctx, job); err == nil {
		t.Fatal("expected handler error")
	}
	if _, _, err := objects.Get(ctx, key); err != nil {
		t.Fatalf("staged object should survive a failed attempt: %v", err)
	}
	files, err := env.store.ListIngestedFiles()
	if err != nil {
		t.Fatalf("list files: %v", err)
	}
	if len(files) != 0 {
		t.Fatalf("files = %+v, want none", files)
	}
}

func TestIngestJobHandlerSurvivesLateProgressCallback(t *testing.T) {
	env := newTestApp(t, true)
	env.saveConfig(t, validConfig())
	env.client.upload = errors.New("upload rejected")
	release := make(chan struct{})
	fired := make(chan struct{})
	env.client.uploadHook = func(fn assistant.ProgressFunc) {
		// A straggler callback from the body-streaming goroutine can land
		// after the upload error has already been returned.
		go func() {
			<-release
			fn(10)
			close(fired)
		}()
	}
	jobs := newWorkerQueue(t)
	objects := storage.NewMemoryObjectStore()
	ctx := context.Background()

	const key = "uploads/job-4/notes.txt"
	if err := objects.Put(ctx, key, strings.NewReader("data"), 4, "text/plain"); err != nil {
		t.Fatalf("stage object: %v", err)
	}
	job, err := jobs.Enqueue(ctx, key, "notes.txt", "")
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	handler := IngestJobHandler(env.app, objects, jobs)
	if err := handler(ctx, job); err == nil {
		t.Fatal("expected handler error")
	}
	close(release)
	<-fired
}

func TestIngestJobHandlerMissingObject(t *testing.T) {
	env := newTestApp(t, true)
	jobs := newWorkerQueue(t)
	objects := storage.NewMemoryObjectStore()

	handler := IngestJobHandler(env.app, objects, jobs)
	err := handler(context.Background(), queue.IngestJob{ID: "job-3", ObjectKey: "uploads/gone"})
	if err == nil {
		t.Fatal("expected error for missing staged object")
	}
}
