package app

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"eliechat/internal/netcheck"
	"eliechat/pkg/assistant"
	"eliechat/pkg/domain"
	"eliechat/pkg/store"
)

// fakeClock drives App.now and App.sleep without real waiting. Every sleep
// advances the clock by the requested duration.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil
	}
}

// fakeClient scripts the remote API for one test.
type fakeClient struct {
	mu             sync.Mutex
	calls          []string
	createThread   error
	addMessage     func(content string) error
	startRun       error
	runStatuses    []string
	statusIdx      int
	threadMessages []assistant.ThreadMessage
	listMessages   error
	uploadID       string
	upload         error
	uploadHook     func(fn assistant.ProgressFunc)
	register       error
	deleteFile     error
	deletedFiles   []string
	updateReq      assistant.UpdateAssistantRequest
}

func (f *fakeClient) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakeClient) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeClient) CreateThread(ctx context.Context, apiKey string) (assistant.Thread, error) {
	f.record("CreateThread")
	if f.createThread != nil {
		return assistant.Thread{}, f.createThread
	}
	return assistant.Thread{ID: "thread-1"}, nil
}

func (f *fakeClient) AddMessage(ctx context.Context, apiKey, threadID, role, content string) (assistant.ThreadMessage, error) {
	f.record("AddMessage:" + content)
	if f.addMessage != nil {
		if err := f.addMessage(content); err != nil {
			return assistant.ThreadMessage{}, err
		}
	}
	return assistant.ThreadMessage{ID: "msg-1", Role: role}, nil
}

func (f *fakeClient) StartRun(ctx context.Context, apiKey, threadID, assistantID string) (assistant.Run, error) {
	f.record("StartRun")
	if f.startRun != nil {
		return assistant.Run{}, f.startRun
	}
	return assistant.Run{ID: "run-1", Status: string(domain.StatusQueued)}, nil
}

func (f *fakeClient) GetRun(ctx context.Context, apiKey, threadID, runID string) (assistant.RunStatus, error) {
	f.record("GetRun")
	f.mu.Lock()
	defer f.mu.Unlock()
	status := string(domain.StatusCompleted)
	if f.statusIdx < len(f.runStatuses) {
		status = f.runStatuses[f.statusIdx]
		f.statusIdx++
	}
	return assistant.RunStatus{ID: runID, Status: status}, nil
}

func (f *fakeClient) ListThreadMessages(ctx context.Context, apiKey, threadID string) ([]assistant.ThreadMessage, error) {
	f.record("ListThreadMessages")
	if f.listMessages != nil {
		return nil, f.listMessages
	}
	return f.threadMessages, nil
}

func (f *fakeClient) UploadFile(ctx context.Context, apiKey, fileName string, r io.Reader, size int64, fn assistant.ProgressFunc) (assistant.UploadedFile, error) {
	f.record("UploadFile")
	if f.uploadHook != nil {
		f.uploadHook(fn)
	}
	if f.upload != nil {
		return assistant.UploadedFile{}, f.upload
	}
	if fn != nil {
		fn(50)
		fn(100)
	}
	id := f.uploadID
	if id == "" {
		id = "file-1"
	}
	return assistant.UploadedFile{ID: id, Filename: fileName}, nil
}

func (f *fakeClient) RegisterFileToVectorStore(ctx context.Context, apiKey, vectorStoreID, fileID string) (assistant.VectorStoreFile, error) {
	f.record("RegisterFileToVectorStore")
	if f.register != nil {
		return assistant.VectorStoreFile{}, f.register
	}
	return assistant.VectorStoreFile{ID: fileID, Status: "completed"}, nil
}

func (f *fakeClient) DeleteVectorStoreFile(ctx context.Context, apiKey, vectorStoreID, fileID string) error {
	f.record("DeleteVectorStoreFile")
	if f.deleteFile != nil {
		return f.deleteFile
	}
	f.mu.Lock()
	f.deletedFiles = append(f.deletedFiles, fileID)
	f.mu.Unlock()
	return nil
}

func (f *fakeClient) CreateVectorStore(ctx context.Context, apiKey, name string) (assistant.VectorStore, error) {
	f.record("CreateVectorStore")
	return assistant.VectorStore{ID: "vs-1", Name: name}, nil
}

func (f *fakeClient) ListVectorStores(ctx context.Context, apiKey string) ([]assistant.VectorStore, error) {
	f.record("ListVectorStores")
	return nil, nil
}

func (f *fakeClient) DeleteVectorStore(ctx context.Context, apiKey, vectorStoreID string) error {
	f.record("DeleteVectorStore")
	return nil
}

func (f *fakeClient) CreateAssistant(ctx context.Context, apiKey string, req assistant.CreateAssistantRequest) (assistant.Assistant, error) {
	f.record("CreateAssistant")
	return assistant.Assistant{ID: "asst-1", Name: req.Name}, nil
}

func (f *fakeClient) ListAssistants(ctx context.Context, apiKey, order string, limit int) ([]assistant.Assistant, error) {
	f.record("ListAssistants")
	return nil, nil
}

func (f *fakeClient) DeleteAssistant(ctx context.Context, apiKey, assistantID string) error {
	f.record("DeleteAssistant")
	return nil
}

func (f *fakeClient) UpdateAssistant(ctx context.Context, apiKey, assistantID string, req assistant.UpdateAssistantRequest) (assistant.Assistant, error) {
	f.record("UpdateAssistant")
	f.mu.Lock()
	f.updateReq = req
	f.mu.Unlock()
	return assistant.Assistant{ID: assistantID}, nil
}

type testEnv struct {
	app    *App
	store  *store.MemoryStore
	client *fakeClient
	clock  *fakeClock
}

func newTestApp(t *testing.T, online bool) *testEnv {
	t.Helper()
	memStore := store.NewMemoryStore()
	client := &fakeClient{}
	clock := newFakeClock()
	a, err := New(Config{
		Store:        memStore,
		Client:       client,
		Prober:       netcheck.StaticProber(online),
		PollInterval: 2 * time.Second,
		Now:          clock.Now,
		Sleep:        clock.Sleep,
	})
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	return &testEnv{app: a, store: memStore, client: client, clock: clock}
}

func (e *testEnv) saveConfig(t *testing.T, cfg domain.APIConfig) {
	t.Helper()
	if err := e.store.SaveAPIConfig(cfg); err != nil {
		t.Fatalf("save api config: %v", err)
	}
}

func (e *testEnv) newConversation(t *testing.T) domain.Conversation {
	t.Helper()
	conversation, err := e.app.CreateConversation(context.Background(), "test")
	if err != nil {
		t.Fatalf("create conversation: %v", err)
	}
	return conversation
}
