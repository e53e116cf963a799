package assistant

// Wire types for the remote assistant API. Field names follow the upstream
// contract and must not be renamed.

type createThreadRequest struct{}

// Thread is a remote conversation context. A new one is created per send.
type Thread struct {
	ID        string `json:"id"`
	CreatedAt int64  `json:"created_at"`
}

// MessageRequest appends one message to a thread.
type MessageRequest struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ContentText is the textual payload of a message content part.
type ContentText struct {
	Value       string `json:"value"`
	Annotations []any  `json:"annotations"`
}

// ContentPart is one segment of a message body.
type ContentPart struct {
	Type string      `json:"type"`
	Text ContentText `json:"text"`
}

// ThreadMessage is a message as stored on a remote thread.
type ThreadMessage struct {
	ID        string        `json:"id"`
	Role      string        `json:"role"`
	Content   []ContentPart `json:"content"`
	CreatedAt int64         `json:"created_at"`
}

// ThreadMessageList wraps the thread message listing payload.
type ThreadMessageList struct {
	Data []ThreadMessage `json:"data"`
}

type runRequest struct {
	AssistantID string `json:"assistant_id"`
}

// Run is a remote execution of the assistant over a thread.
type Run struct {
	ID        string `json:"id"`
	Status    string `json:"status"`
	StartedAt int64  `json:"started_at"`
}

// RunStatus is the polled state of a run. Status "completed" is the only
// terminal value.
type RunStatus struct {
	ID        string `json:"id"`
	Status    string `json:"status"`
	UpdatedAt int64  `json:"updated_at"`
}

// UploadedFile is the result of a multipart file upload.
type UploadedFile struct {
	ID        string `json:"id"`
	Filename  string `json:"filename"`
	Status    string `json:"status"`
	CreatedAt int64  `json:"created_at"`
}

type vectorStoreFileRequest struct {
	FileID string `json:"file_id"`
}

// VectorStoreFile is a file registration inside a vector store.
type VectorStoreFile struct {
	ID         string `json:"id"`
	Status     string `json:"status"`
	UploadedAt int64  `json:"uploaded_at"`
}

type createVectorStoreRequest struct {
	Name string `json:"name"`
}

// VectorStore is a remote searchable file collection.
type VectorStore struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	CreatedAt int64  `json:"created_at"`
}

// VectorStoreList wraps the vector store listing payload.
type VectorStoreList struct {
	Data []VectorStore `json:"data"`
}

// Tool enables one assistant capability, e.g. {"type": "file_search"}.
type Tool struct {
	Type string `json:"type"`
}

// CreateAssistantRequest configures a new remote assistant.
type CreateAssistantRequest struct {
	Instructions string `json:"instructions"`
	Name         string `json:"name"`
	Tools        []Tool `json:"tools"`
	Model        string `json:"model"`
}

// UpdateAssistantRequest rebinds assistant tool resources.
type UpdateAssistantRequest struct {
	ToolResources map[string]any `json:"tool_resources"`
}

// Assistant is a remote assistant definition.
type Assistant struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	CreatedAt int64  `json:"created_at"`
}

// AssistantList wraps the assistant listing payload.
type AssistantList struct {
	Data []Assistant `json:"data"`
}

type apiErrorResponse struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// FileSearchResources builds the tool_resources payload binding an assistant
// to one vector store.
func FileSearchResources(vectorStoreID string) map[string]any {
	return map[string]any{
		"file_search": map[string]any{
			"vector_store_ids": []string{vectorStoreID},
		},
	}
}
