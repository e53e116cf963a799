package domain

import "time"

// Sender identifies who authored a message. The set is closed.
type Sender string

const (
	SenderUser Sender = "user"
	SenderBot  Sender = "bot"
)

// RunStatus mirrors the remote run lifecycle. Any value other than
// StatusCompleted is treated as non-terminal.
type RunStatus string

const (
	StatusQueued     RunStatus = "queued"
	StatusInProgress RunStatus = "in_progress"
	StatusCompleted  RunStatus = "completed"
)

// Conversation is a locally owned chat transcript. Reaction counters are
// derived from its messages and kept for display only.
type Conversation struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Likes     int       `json:"likes"`
	Dislikes  int       `json:"dislikes"`
	CreatedAt time.Time `json:"createdAt"`
}

// Message is one utterance in a conversation. Messages are immutable after
// insert except for the reaction counters, which only ever increment.
// ResponseSeconds is set only on bot messages that answered a user message.
type Message struct {
	ID              string    `json:"id"`
	ConversationID  string    `json:"conversationId"`
	Sender          Sender    `json:"sender"`
	Body            string    `json:"body"`
	Likes           int       `json:"likes"`
	Dislikes        int       `json:"dislikes"`
	ResponseSeconds *int64    `json:"responseSeconds,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
}

// IngestedFile records an attachment that was uploaded AND registered into
// the remote vector store. A record exists only when both succeeded.
type IngestedFile struct {
	ID           string    `json:"id"`
	FileName     string    `json:"fileName"`
	RemoteFileID string    `json:"remoteFileId"`
	CreatedAt    time.Time `json:"createdAt"`
}

// APIConfig is the singleton credential/binding row. The orchestrator reads
// it once at the start of each workflow and treats it as immutable for the
// duration of that call.
type APIConfig struct {
	APIKey        string `json:"apiKey"`
	AssistantID   string `json:"assistantId"`
	VectorStoreID string `json:"vectorStoreId"`
	CustomPrompt  string `json:"customPrompt,omitempty"`
}

// ReactionTotals aggregates likes and dislikes across all messages.
type ReactionTotals struct {
	Likes    int `json:"likes"`
	Dislikes int `json:"dislikes"`
}
