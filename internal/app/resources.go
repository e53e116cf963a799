package app

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"eliechat/internal/util"
	"eliechat/pkg/assistant"
	"eliechat/pkg/domain"
)

// CreateAssistant provisions a new remote assistant.
func (a *App) CreateAssistant(ctx context.Context, name, instructions, model, tool string) (assistant.Assistant, error) {
	if strings.TrimSpace(name) == "" || strings.TrimSpace(instructions) == "" || strings.TrimSpace(model) == "" {
		return assistant.Assistant{}, fmt.Errorf("name, instructions and model required")
	}
	if strings.TrimSpace(tool) == "" {
		tool = "file_search"
	}
	if !a.prober.Online(ctx) {
		return assistant.Assistant{}, ErrOffline
	}
	cfg, err := a.apiConfig()
	if err != nil {
		return assistant.Assistant{}, err
	}
	created, err := a.client.CreateAssistant(ctx, cfg.APIKey, assistant.CreateAssistantRequest{
		Instructions: instructions,
		Name:         name,
		Tools:        []assistant.Tool{{Type: tool}},
		Model:        model,
	})
	if err != nil {
		return assistant.Assistant{}, fmt.Errorf("create assistant: %w", err)
	}
	return created, nil
}

// ListAssistants returns the remote assistants, newest first.
func (a *App) ListAssistants(ctx context.Context) ([]assistant.Assistant, error) {
	cfg, err := a.apiConfig()
	if err != nil {
		return nil, err
	}
	return a.client.ListAssistants(ctx, cfg.APIKey, "desc", 20)
}

// DeleteAssistant removes a remote assistant.
func (a *App) DeleteAssistant(ctx context.Context, assistantID string) error {
	cfg, err := a.apiConfig()
	if err != nil {
		return err
	}
	return a.client.DeleteAssistant(ctx, cfg.APIKey, assistantID)
}

// CreateVectorStore provisions a new remote vector store.
func (a *App) CreateVectorStore(ctx context.Context, name string) (assistant.VectorStore, error) {
	if strings.TrimSpace(name) == "" {
		return assistant.VectorStore{}, fmt.Errorf("name required")
	}
	cfg, err := a.apiConfig()
	if err != nil {
		return assistant.VectorStore{}, err
	}
	created, err := a.client.CreateVectorStore(ctx, cfg.APIKey, name)
	if err != nil {
		return assistant.VectorStore{}, fmt.Errorf("create vector store: %w", err)
	}
	return created, nil
}

// ListVectorStores returns the remote vector stores.
func (a *App) ListVectorStores(ctx context.Context) ([]assistant.VectorStore, error) {
	cfg, err := a.apiConfig()
	if err != nil {
		return nil, err
	}
	return a.client.ListVectorStores(ctx, cfg.APIKey)
}

// DeleteVectorStore removes a remote vector store.
func (a *App) DeleteVectorStore(ctx context.Context, vectorStoreID string) error {
	cfg, err := a.apiConfig()
	if err != nil {
		return err
	}
	return a.client.DeleteVectorStore(ctx, cfg.APIKey, vectorStoreID)
}

// BindAssistantToVectorStore points the configured assistant's file search
// at the configured vector store.
func (a *App) BindAssistantToVectorStore(ctx context.Context) error {
	cfg, err := a.apiConfig()
	if err != nil {
		return err
	}
	if !cfg.hasBinding() {
		return ErrMissingAssistantBinding
	}
	_, err = a.client.UpdateAssistant(ctx, cfg.APIKey, cfg.AssistantID, assistant.UpdateAssistantRequest{
		ToolResources: assistant.FileSearchResources(cfg.VectorStoreID),
	})
	if err != nil {
		return fmt.Errorf("bind assistant: %w", err)
	}
	return nil
}

// ListIngestedFiles returns the committed file records.
func (a *App) ListIngestedFiles(ctx context.Context) ([]domain.IngestedFile, error) {
	return a.store.ListIngestedFiles()
}

// DeleteIngestedFile removes a file from the remote vector store first and
// then drops the local record, so a surviving record always points at a
// registered remote file.
func (a *App) DeleteIngestedFile(ctx context.Context, id string) error {
	record, found, err := a.store.GetIngestedFile(id)
	if err != nil {
		return fmt.Errorf("load file record: %w", err)
	}
	if !found {
		return ErrIngestedFileNotFound
	}
	cfg, err := a.apiConfig()
	if err != nil {
		return err
	}
	if cfg.VectorStoreID == "" {
		return ErrMissingAssistantBinding
	}
	if err := a.client.DeleteVectorStoreFile(ctx, cfg.APIKey, cfg.VectorStoreID, record.RemoteFileID); err != nil {
		return fmt.Errorf("delete remote file: %w", err)
	}
	return a.store.DeleteIngestedFile(id)
}

// PurgeIngestedFiles deletes every committed file, remote side first. Files
// are removed concurrently; the first error stops the remaining work but
// records already deleted stay deleted.
func (a *App) PurgeIngestedFiles(ctx context.Context) error {
	records, err := a.store.ListIngestedFiles()
	if err != nil {
		return fmt.Errorf("list file records: %w", err)
	}
	if len(records) == 0 {
		return nil
	}
	cfg, err := a.apiConfig()
	if err != nil {
		return err
	}
	if cfg.VectorStoreID == "" {
		return ErrMissingAssistantBinding
	}
	logger := util.LoggerFromContext(ctx)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for _, record := range records {
		record := record
		g.Go(func() error {
			if err := a.client.DeleteVectorStoreFile(ctx, cfg.APIKey, cfg.VectorStoreID, record.RemoteFileID); err != nil {
				return fmt.Errorf("delete remote file %s: %w", record.RemoteFileID, err)
			}
			if err := a.store.DeleteIngestedFile(record.ID); err != nil {
				return fmt.Errorf("delete file record %s: %w", record.ID, err)
			}
			logger.Info("ingested file purged", "file_id", record.RemoteFileID)
			return nil
		})
	}
	return g.Wait()
}
