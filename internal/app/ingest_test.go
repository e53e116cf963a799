package app

import (
	"context"
	"errors"
	"strings"
	"testing"

	"eliechat/pkg/domain"
)

func TestIngestFileCommitsOnlyAfterRegistration(t *testing.T) {
	env := newTestApp(t, true)
	env.saveConfig(t, validConfig())
	conversation := env.newConversation(t)

	var progress []int
	record, err := env.app.IngestFile(context.Background(), conversation.ID, "notes.txt", []byte("hello world"), func(pct int) {
		progress = append(progress, pct)
	})
	if err != nil {
		t.Fatalf("ingest file: %v", err)
	}
	if record.FileName != "notes.txt" || record.RemoteFileID != "file-1" {
		t.Fatalf("unexpected record: %+v", record)
	}

	files, err := env.store.ListIngestedFiles()
	if err != nil {
		t.Fatalf("list files: %v", err)
	}
	if len(files) != 1 {
		t.Fatalf("expected one committed record, got %d", len(files))
	}

	messages, _ := env.store.ListMessages(conversation.ID)
	if len(messages) != 1 || messages[0].Sender != domain.SenderBot {
		t.Fatalf("expected one bot message, got %+v", messages)
	}
	if !strings.Contains(messages[0].Body, "notes.txt") {
		t.Fatalf("file-received message = %q, want file name mentioned", messages[0].Body)
	}

	if len(progress) == 0 || progress[len(progress)-1] != 100 {
		t.Fatalf("progress = %v, want non-empty ending at 100", progress)
	}
	for i := 1; i < len(progress); i++ {
		if progress[i] < progress[i-1] {
			t.Fatalf("progress not monotonic: %v", progress)
		}
	}
}

func TestIngestFileUploadFailureLeavesNoTrace(t *testing.T) {
	env := newTestApp(t, true)
	env.saveConfig(t, validConfig())
	conversation := env.newConversation(t)

	env.client.upload = errors.New("http 500")

	_, err := env.app.IngestFile(context.Background(), conversation.ID, "report.pdf.txt", []byte("data"), nil)
	if err == nil {
		t.Fatalf("expected ingest to fail")
	}
	files, _ := env.store.ListIngestedFiles()
	if len(files) != 0 {
		t.Fatalf("expected no committed record, got %d", len(files))
	}
	messages, _ := env.store.ListMessages(conversation.ID)
	if len(messages) != 0 {
		t.Fatalf("expected no file-received message, got %d", len(messages))
	}
}

func TestIngestFileRegistrationFailureDiscardsUpload(t *testing.T) {
	env := newTestApp(t, true)
	env.saveConfig(t, validConfig())
	conversation := env.newConversation(t)

	env.client.register = errors.New("http 400")

	_, err := env.app.IngestFile(context.Background(), conversation.ID, "notes.txt", []byte("data"), nil)
	if err == nil {
		t.Fatalf("expected ingest to fail")
	}
	files, _ := env.store.ListIngestedFiles()
	if len(files) != 0 {
		t.Fatalf("expected no committed record despite successful upload, got %d", len(files))
	}
	messages, _ := env.store.ListMessages(conversation.ID)
	if len(messages) != 0 {
		t.Fatalf("expected no file-received message, got %d", len(messages))
	}
}

func TestIngestFileRejectsInvalidPDF(t *testing.T) {
	env := newTestApp(t, true)
	env.saveConfig(t, validConfig())

	_, err := env.app.IngestFile(context.Background(), "", "broken.pdf", []byte("not a pdf"), nil)
	if !errors.Is(err, ErrInvalidPDF) {
		t.Fatalf("err = %v, want ErrInvalidPDF", err)
	}
	if env.client.callCount() != 0 {
		t.Fatalf("expected no remote calls for invalid pdf, got %d", env.client.callCount())
	}
}

func TestIngestFileMissingVectorStore(t *testing.T) {
	env := newTestApp(t, true)
	env.saveConfig(t, domain.APIConfig{APIKey: "sk-test", AssistantID: "asst-1"})

	_, err := env.app.IngestFile(context.Background(), "", "notes.txt", []byte("data"), nil)
	if !errors.Is(err, ErrMissingAssistantBinding) {
		t.Fatalf("err = %v, want ErrMissingAssistantBinding", err)
	}
}

func TestIngestFileOffline(t *testing.T) {
	env := newTestApp(t, false)
	env.saveConfig(t, validConfig())

	_, err := env.app.IngestFile(context.Background(), "", "notes.txt", []byte("data"), nil)
	if !errors.Is(err, ErrOffline) {
		t.Fatalf("err = %v, want ErrOffline", err)
	}
}

func TestDeleteIngestedFileRemoteFirst(t *testing.T) {
	env := newTestApp(t, true)
	env.saveConfig(t, validConfig())

	record, err := env.app.IngestFile(context.Background(), "", "notes.txt", []byte("data"), nil)
	if err != nil {
		t.Fatalf("ingest file: %v", err)
	}
	if err := env.app.DeleteIngestedFile(context.Background(), record.ID); err != nil {
		t.Fatalf("delete file: %v", err)
	}
	files, _ := env.store.ListIngestedFiles()
	if len(files) != 0 {
		t.Fatalf("expected record removed, got %d", len(files))
	}
	if len(env.client.deletedFiles) != 1 || env.client.deletedFiles[0] != record.RemoteFileID {
		t.Fatalf("deleted remote files = %v, want [%s]", env.client.deletedFiles, record.RemoteFileID)
	}
}

func TestDeleteIngestedFileKeepsRecordOnRemoteFailure(t *testing.T) {
	env := newTestApp(t, true)
	env.saveConfig(t, validConfig())

	record, err := env.app.IngestFile(context.Background(), "", "notes.txt", []byte("data"), nil)
	if err != nil {
		t.Fatalf("ingest file: %v", err)
	}
	env.client.deleteFile = errors.New("http 500")
	if err := env.app.DeleteIngestedFile(context.Background(), record.ID); err == nil {
		t.Fatalf("expected delete to fail")
	}
	files, _ := env.store.ListIngestedFiles()
	if len(files) != 1 {
		t.Fatalf("expected record kept on remote failure, got %d", len(files))
	}
}

func TestPurgeIngestedFiles(t *testing.T) {
	env := newTestApp(t, true)
	env.saveConfig(t, validConfig())

	for _, name := range []string{"a.txt", "b.txt", "c.txt"} {
		env.client.uploadID = "file-" + name
		if _, err := env.app.IngestFile(context.Background(), "", name, []byte("data"), nil); err != nil {
			t.Fatalf("ingest %s: %v", name, err)
		}
	}
	if err := env.app.PurgeIngestedFiles(context.Background()); err != nil {
		t.Fatalf("purge: %v", err)
	}
	files, _ := env.store.ListIngestedFiles()
	if len(files) != 0 {
		t.Fatalf("expected all records purged, got %d", len(files))
	}
	if len(env.client.deletedFiles) != 3 {
		t.Fatalf("expected 3 remote deletes, got %d", len(env.client.deletedFiles))
	}
}
