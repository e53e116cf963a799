package app

import (
	"context"
	"fmt"
	"io"
	"time"

	"eliechat/internal/greeting"
	"eliechat/internal/netcheck"
	"eliechat/pkg/assistant"
	"eliechat/pkg/store"
)

// AssistantClient is the subset of the remote API the orchestrator drives.
type AssistantClient interface {
	CreateThread(ctx context.Context, apiKey string) (assistant.Thread, error)
	AddMessage(ctx context.Context, apiKey, threadID, role, content string) (assistant.ThreadMessage, error)
	StartRun(ctx context.Context, apiKey, threadID, assistantID string) (assistant.Run, error)
	GetRun(ctx context.Context, apiKey, threadID, runID string) (assistant.RunStatus, error)
	ListThreadMessages(ctx context.Context, apiKey, threadID string) ([]assistant.ThreadMessage, error)
	UploadFile(ctx context.Context, apiKey, fileName string, r io.Reader, size int64, fn assistant.ProgressFunc) (assistant.UploadedFile, error)
	RegisterFileToVectorStore(ctx context.Context, apiKey, vectorStoreID, fileID string) (assistant.VectorStoreFile, error)
	DeleteVectorStoreFile(ctx context.Context, apiKey, vectorStoreID, fileID string) error
	CreateVectorStore(ctx context.Context, apiKey, name string) (assistant.VectorStore, error)
	ListVectorStores(ctx context.Context, apiKey string) ([]assistant.VectorStore, error)
	DeleteVectorStore(ctx context.Context, apiKey, vectorStoreID string) error
	CreateAssistant(ctx context.Context, apiKey string, req assistant.CreateAssistantRequest) (assistant.Assistant, error)
	ListAssistants(ctx context.Context, apiKey, order string, limit int) ([]assistant.Assistant, error)
	DeleteAssistant(ctx context.Context, apiKey, assistantID string) error
	UpdateAssistant(ctx context.Context, apiKey, assistantID string, req assistant.UpdateAssistantRequest) (assistant.Assistant, error)
}

// Config holds runtime configuration for the core application.
type Config struct {
	DatabaseURL    string
	Store          store.Store
	Client         AssistantClient
	AssistantURL   string
	Prober         netcheck.Prober
	Greeter        *greeting.Greeter
	PollInterval   time.Duration
	PollTimeout    time.Duration
	ReadinessDelay time.Duration
	Now            func() time.Time
	Sleep          func(ctx context.Context, d time.Duration) error
}

// App wires the conversation store, the remote assistant client, and the
// ingestion pipeline together.
type App struct {
	store          store.Store
	client         AssistantClient
	prober         netcheck.Prober
	greeter        *greeting.Greeter
	pollInterval   time.Duration
	pollTimeout    time.Duration
	readinessDelay time.Duration
	now            func() time.Time
	sleep          func(ctx context.Context, d time.Duration) error
}

// New constructs the application with database-backed storage.
func New(cfg Config) (*App, error) {
	dataStore := cfg.Store
	if dataStore == nil {
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("database URL required")
		}
		var err error
		dataStore, err = store.NewGormStore(cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("init postgres store: %w", err)
		}
	}
	client := cfg.Client
	if client == nil {
		client = assistant.NewClient(cfg.AssistantURL)
	}
	prober := cfg.Prober
	if prober == nil {
		prober = netcheck.NewTCPProber("api.openai.com:443", 3*time.Second)
	}
	greeter := cfg.Greeter
	if greeter == nil {
		greeter = greeting.NewGreeter()
	}
	pollInterval := cfg.PollInterval
	if pollInterval <= 0 {
		pollInterval = 2 * time.Second
	}
	readinessDelay := cfg.ReadinessDelay
	if readinessDelay <= 0 {
		readinessDelay = 5 * time.Second
	}
	pollTimeout := cfg.PollTimeout
	if pollTimeout < 0 {
		pollTimeout = 0
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	sleep := cfg.Sleep
	if sleep == nil {
		sleep = waitFor
	}
	return &App{
		store:          dataStore,
		client:         client,
		prober:         prober,
		greeter:        greeter,
		pollInterval:   pollInterval,
		pollTimeout:    pollTimeout,
		readinessDelay: readinessDelay,
		now:            now,
		sleep:          sleep,
	}, nil
}

// Store exposes the underlying conversation store.
func (a *App) Store() store.Store { return a.store }

// Online reports whether the remote API is currently reachable.
func (a *App) Online(ctx context.Context) bool {
	return a.prober.Online(ctx)
}

// Welcome returns the session's welcome phrase, once per process lifetime.
func (a *App) Welcome(ctx context.Context) (string, bool) {
	return a.greeter.Welcome(a.prober.Online(ctx))
}

// apiConfig loads the configuration snapshot for one orchestration call.
func (a *App) apiConfig() (configSnapshot, error) {
	stored, found, err := a.store.GetAPIConfig()
	if err != nil {
		return configSnapshot{}, fmt.Errorf("load api config: %w", err)
	}
	if !found || stored.APIKey == "" {
		return configSnapshot{}, ErrMissingConfiguration
	}
	return configSnapshot{
		APIKey:        stored.APIKey,
		AssistantID:   stored.AssistantID,
		VectorStoreID: stored.VectorStoreID,
		CustomPrompt:  stored.CustomPrompt,
	}, nil
}

// configSnapshot is the read-only view of the configuration a single
// workflow runs against. It is never refreshed mid-call.
type configSnapshot struct {
	APIKey        string
	AssistantID   string
	VectorStoreID string
	CustomPrompt  string
}

func (c configSnapshot) hasBinding() bool {
	return c.AssistantID != "" && c.VectorStoreID != ""
}

func waitFor(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
