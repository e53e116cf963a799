package assistant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strconv"
	"strings"
	"time"
)

const betaHeader = "assistants=v2"

// Client calls the remote assistant API over HTTP. It performs no retries
// and no sequencing; resilience lives in the orchestrator above it.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// APIError is a non-2xx response from the remote API. Transport failures are
// returned as plain wrapped errors instead.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("assistant api error: HTTP %d", e.Status)
	}
	return fmt.Sprintf("assistant api error: HTTP %d: %s", e.Status, e.Message)
}

// NewClient constructs a client against baseURL, e.g. "https://api.openai.com".
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
	}
}

// CreateThread opens a new remote thread.
func (c *Client) CreateThread(ctx context.Context, apiKey string) (Thread, error) {
	var out Thread
	if err := c.doJSON(ctx, http.MethodPost, "/v1/threads", apiKey, createThreadRequest{}, &out); err != nil {
		return Thread{}, err
	}
	return out, nil
}

// AddMessage appends a message to a thread.
func (c *Client) AddMessage(ctx context.Context, apiKey, threadID, role, content string) (ThreadMessage, error) {
	var out ThreadMessage
	path := "/v1/threads/" + threadID + "/messages"
	if err := c.doJSON(ctx, http.MethodPost, path, apiKey, MessageRequest{Role: role, Content: content}, &out); err != nil {
		return ThreadMessage{}, err
	}
	return out, nil
}

// StartRun binds a thread to an assistant and starts execution.
func (c *Client) StartRun(ctx context.Context, apiKey, threadID, assistantID string) (Run, error) {
	var out Run
	path := "/v1/threads/" + threadID + "/runs"
	if err := c.doJSON(ctx, http.MethodPost, path, apiKey, runRequest{AssistantID: assistantID}, &out); err != nil {
		return Run{}, err
	}
	return out, nil
}

// GetRun fetches the current status of a run.
func (c *Client) GetRun(ctx context.Context, apiKey, threadID, runID string) (RunStatus, error) {
	var out RunStatus
	path := "/v1/threads/" + threadID + "/runs/" + runID
	if err := c.doJSON(ctx, http.MethodGet, path, apiKey, nil, &out); err != nil {
		return RunStatus{}, err
	}
	return out, nil
}

// ListThreadMessages retrieves all messages on a thread.
func (c *Client) ListThreadMessages(ctx context.Context, apiKey, threadID string) ([]ThreadMessage, error) {
	var out ThreadMessageList
	path := "/v1/threads/" + threadID + "/messages"
	if err := c.doJSON(ctx, http.MethodGet, path, apiKey, nil, &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}

// UploadFile streams file bytes as a multipart body with purpose
// "assistants". Progress is reported through fn as an integer percentage;
// see WithProgress for the reporting contract.
func (c *Client) UploadFile(ctx context.Context, apiKey, fileName string, r io.Reader, size int64, fn ProgressFunc) (UploadedFile, error) {
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	go func() {
		part, err := createFilePart(mw, fileName)
		if err != nil {
			pw.CloseWithError(err)
			return
		}
		if _, err := io.Copy(part, WithProgress(r, size, fn)); err != nil {
			pw.CloseWithError(err)
			return
		}
		if err := mw.WriteField("purpose", "assistants"); err != nil {
			pw.CloseWithError(err)
			return
		}
		pw.CloseWithError(mw.Close())
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/files", pr)
	if err != nil {
		return UploadedFile{}, err
	}
	req.Header.Set("Authorization", "Bearer "+apiKey)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return UploadedFile{}, fmt.Errorf("upload file: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return UploadedFile{}, decodeAPIError(resp)
	}
	var out UploadedFile
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return UploadedFile{}, fmt.Errorf("decode upload response: %w", err)
	}
	return out, nil
}

// RegisterFileToVectorStore binds an uploaded file to a vector store.
func (c *Client) RegisterFileToVectorStore(ctx context.Context, apiKey, vectorStoreID, fileID string) (VectorStoreFile, error) {
	var out VectorStoreFile
	path := "/v1/vector_stores/" + vectorStoreID + "/files"
	if err := c.doJSON(ctx, http.MethodPost, path, apiKey, vectorStoreFileRequest{FileID: fileID}, &out); err != nil {
		return VectorStoreFile{}, err
	}
	return out, nil
}

// DeleteVectorStoreFile removes a file registration from a vector store.
func (c *Client) DeleteVectorStoreFile(ctx context.Context, apiKey, vectorStoreID, fileID string) error {
	path := "/v1/vector_stores/" + vectorStoreID + "/files/" + fileID
	return c.doJSON(ctx, http.MethodDelete, path, apiKey, nil, nil)
}

// CreateVectorStore creates a named vector store.
func (c *Client) CreateVectorStore(ctx context.Context, apiKey, name string) (VectorStore, error) {
	var out VectorStore
	if err := c.doJSON(ctx, http.MethodPost, "/v1/vector_stores", apiKey, createVectorStoreRequest{Name: name}, &out); err != nil {
		return VectorStore{}, err
	}
	return out, nil
}

// ListVectorStores returns all vector stores.
func (c *Client) ListVectorStores(ctx context.Context, apiKey string) ([]VectorStore, error) {
	var out VectorStoreList
	if err := c.doJSON(ctx, http.MethodGet, "/v1/vector_stores", apiKey, nil, &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}

// DeleteVectorStore removes a vector store.
func (c *Client) DeleteVectorStore(ctx context.Context, apiKey, vectorStoreID string) error {
	return c.doJSON(ctx, http.MethodDelete, "/v1/vector_stores/"+vectorStoreID, apiKey, nil, nil)
}

// CreateAssistant creates a remote assistant.
func (c *Client) CreateAssistant(ctx context.Context, apiKey string, req CreateAssistantRequest) (Assistant, error) {
	var out Assistant
	if err := c.doJSON(ctx, http.MethodPost, "/v1/assistants", apiKey, req, &out); err != nil {
		return Assistant{}, err
	}
	return out, nil
}

// ListAssistants returns assistants, newest first by default.
func (c *Client) ListAssistants(ctx context.Context, apiKey, order string, limit int) ([]Assistant, error) {
	if order == "" {
		order = "desc"
	}
	if limit <= 0 {
		limit = 20
	}
	var out AssistantList
	path := "/v1/assistants?order=" + order + "&limit=" + strconv.Itoa(limit)
	if err := c.doJSON(ctx, http.MethodGet, path, apiKey, nil, &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}

// DeleteAssistant removes a remote assistant.
func (c *Client) DeleteAssistant(ctx context.Context, apiKey, assistantID string) error {
	return c.doJSON(ctx, http.MethodDelete, "/v1/assistants/"+assistantID, apiKey, nil, nil)
}

// UpdateAssistant rewrites an assistant's tool resources.
func (c *Client) UpdateAssistant(ctx context.Context, apiKey, assistantID string, req UpdateAssistantRequest) (Assistant, error) {
	var out Assistant
	if err := c.doJSON(ctx, http.MethodPut, "/v1/assistants/"+assistantID, apiKey, req, &out); err != nil {
		return Assistant{}, err
	}
	return out, nil
}

func (c *Client) doJSON(ctx context.Context, method, path, apiKey string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+apiKey)
	req.Header.Set("OpenAI-Beta", betaHeader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("assistant request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return decodeAPIError(resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("assistant decode: %w", err)
	}
	return nil
}

func decodeAPIError(resp *http.Response) error {
	var errResp apiErrorResponse
	_ = json.NewDecoder(resp.Body).Decode(&errResp)
	return &APIError{Status: resp.StatusCode, Message: errResp.Error.Message}
}

func createFilePart(mw *multipart.Writer, fileName string) (io.Writer, error) {
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, fileName))
	h.Set("Content-Type", "application/octet-stream")
	return mw.CreatePart(h)
}
