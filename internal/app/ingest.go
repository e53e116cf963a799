package app

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"eliechat/internal/util"
	"eliechat/pkg/assistant"
	"eliechat/pkg/domain"
)

// IngestFile pushes one attachment through the full pipeline: upload the
// bytes to the remote API, wait out the readiness delay, register the file
// into the configured vector store, and only then commit the local record
// and the "file received" message. A failure at any step leaves no local
// trace; an already-uploaded remote file is accepted as an orphan rather
// than compensated.
func (a *App) IngestFile(ctx context.Context, conversationID, fileName string, data []byte, progress assistant.ProgressFunc) (domain.IngestedFile, error) {
	fileName = strings.TrimSpace(fileName)
	if fileName == "" {
		fileName = "uploaded_file"
	}
	if len(data) == 0 {
		return domain.IngestedFile{}, fmt.Errorf("file content required")
	}
	if strings.HasSuffix(strings.ToLower(fileName), ".pdf") {
		if err := validatePDF(data); err != nil {
			return domain.IngestedFile{}, err
		}
	}

	if !a.prober.Online(ctx) {
		return domain.IngestedFile{}, ErrOffline
	}
	cfg, err := a.apiConfig()
	if err != nil {
		return domain.IngestedFile{}, err
	}
	if cfg.VectorStoreID == "" {
		return domain.IngestedFile{}, ErrMissingAssistantBinding
	}

	logger := util.LoggerFromContext(ctx)

	uploaded, err := a.client.UploadFile(ctx, cfg.APIKey, fileName, bytes.NewReader(data), int64(len(data)), progress)
	if err != nil {
		return domain.IngestedFile{}, fmt.Errorf("upload file: %w", err)
	}
	logger.Info("file uploaded", "file_id", uploaded.ID, "file_name", fileName)

	// The remote side needs a moment before the file can be referenced.
	if err := a.sleep(ctx, a.readinessDelay); err != nil {
		return domain.IngestedFile{}, err
	}

	if _, err := a.client.RegisterFileToVectorStore(ctx, cfg.APIKey, cfg.VectorStoreID, uploaded.ID); err != nil {
		return domain.IngestedFile{}, fmt.Errorf("register file: %w", err)
	}

	record := domain.IngestedFile{
		ID:           util.NewID(),
		FileName:     fileName,
		RemoteFileID: uploaded.ID,
		CreatedAt:    a.now().UTC(),
	}
	if err := a.store.SaveIngestedFile(record); err != nil {
		return domain.IngestedFile{}, fmt.Errorf("persist file record: %w", err)
	}

	if conversationID != "" {
		received := domain.Message{
			ID:             util.NewID(),
			ConversationID: conversationID,
			Sender:         domain.SenderBot,
			Body:           fmt.Sprintf("I've received your file: %s.", fileName),
			CreatedAt:      a.now().UTC(),
		}
		if err := a.store.AppendMessage(received); err != nil {
			logger.Warn("persist file-received message failed", "conversation_id", conversationID, "error", err)
		}
	}
	return record, nil
}
