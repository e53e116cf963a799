package assistant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestCreateThreadSendsAuthAndBetaHeaders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/v1/threads" {
			t.Fatalf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer sk-test" {
			t.Fatalf("authorization header: %q", got)
		}
		if got := r.Header.Get("OpenAI-Beta"); got != "assistants=v2" {
			t.Fatalf("beta header: %q", got)
		}
		_, _ = w.Write([]byte(`{"id":"thread_abc","created_at":1700000000}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	thread, err := c.CreateThread(context.Background(), "sk-test")
	if err != nil {
		t.Fatalf("create thread: %v", err)
	}
	if thread.ID != "thread_abc" {
		t.Fatalf("thread id: %q", thread.ID)
	}
}

func TestStartRunBodyUsesAssistantIDField(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/threads/thread_1/runs" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		var body map[string]string
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if body["assistant_id"] != "asst_1" {
			t.Fatalf("expected assistant_id field, got %v", body)
		}
		_, _ = w.Write([]byte(`{"id":"run_1","status":"queued","started_at":1700000001}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	run, err := c.StartRun(context.Background(), "sk", "thread_1", "asst_1")
	if err != nil {
		t.Fatalf("start run: %v", err)
	}
	if run.Status != "queued" {
		t.Fatalf("run status: %q", run.Status)
	}
}

func TestListThreadMessagesUnwrapsDataEnvelope(t *testing.T) {
	payload := `{"data":[{"id":"msg_1","role":"assistant","created_at":5,` +
		`"content":[{"type":"text","text":{"value":"Hi there","annotations":[]}}]}]}`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/threads/thread_1/messages" || r.Method != http.MethodGet {
			t.Fatalf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		_, _ = w.Write([]byte(payload))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	msgs, err := c.ListThreadMessages(context.Background(), "sk", "thread_1")
	if err != nil {
		t.Fatalf("list messages: %v", err)
	}
	if len(msgs) != 1 {
		t.Fatalf("expected 1 message, got %d", len(msgs))
	}
	if msgs[0].Content[0].Text.Value != "Hi there" {
		t.Fatalf("content value: %q", msgs[0].Content[0].Text.Value)
	}
}

func TestNon2xxReturnsAPIErrorWithStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"no such vector store","type":"invalid_request_error"}}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	_, err := c.RegisterFileToVectorStore(context.Background(), "sk", "vs_missing", "file_1")
	if err == nil {
		t.Fatalf("expected error")
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %T: %v", err, err)
	}
	if apiErr.Status != http.StatusBadRequest {
		t.Fatalf("status: %d", apiErr.Status)
	}
	if !strings.Contains(apiErr.Message, "no such vector store") {
		t.Fatalf("message: %q", apiErr.Message)
	}
}

func TestUploadFileMultipartPartsAndProgress(t *testing.T) {
	content := bytes.Repeat([]byte("x"), 4096)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/files" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("parse multipart: %v", err)
		}
		if got := r.FormValue("purpose"); got != "assistants" {
			t.Fatalf("purpose field: %q", got)
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			t.Fatalf("form file: %v", err)
		}
		defer file.Close()
		if header.Filename != "report.pdf" {
			t.Fatalf("filename: %q", header.Filename)
		}
		_, _ = w.Write([]byte(`{"id":"file_1","filename":"report.pdf","status":"processed","created_at":7}`))
	}))
	defer srv.Close()

	var seen []int
	c := NewClient(srv.URL)
	uploaded, err := c.UploadFile(context.Background(), "sk", "report.pdf",
		bytes.NewReader(content), int64(len(content)), func(pct int) {
			seen = append(seen, pct)
		})
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if uploaded.ID != "file_1" {
		t.Fatalf("file id: %q", uploaded.ID)
	}
	if len(seen) == 0 {
		t.Fatalf("expected progress callbacks")
	}
	for i := 1; i < len(seen); i++ {
		if seen[i] < seen[i-1] {
			t.Fatalf("progress went backwards: %v", seen)
		}
	}
	if seen[len(seen)-1] != 100 {
		t.Fatalf("final progress: %d", seen[len(seen)-1])
	}
}

func TestUploadFileNon2xxSurfacesAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":{"message":"upstream overloaded"}}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	_, err := c.UploadFile(context.Background(), "sk", "report.pdf", strings.NewReader("data"), 4, nil)
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusInternalServerError {
		t.Fatalf("expected 500 APIError, got %v", err)
	}
}

func TestProgressUnknownTotalReportsZeroOnce(t *testing.T) {
	var seen []int
	r := WithProgress(strings.NewReader("abcdef"), 0, func(pct int) {
		seen = append(seen, pct)
	})
	buf := make([]byte, 2)
	for {
		if _, err := r.Read(buf); err != nil {
			break
		}
	}
	if len(seen) != 1 || seen[0] != 0 {
		t.Fatalf("expected single zero report, got %v", seen)
	}
}
