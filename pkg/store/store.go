package store

import "eliechat/pkg/domain"

// Store defines persistence operations for conversations, messages,
// the API configuration singleton, and ingested file records.
//
// Each operation is independently atomic; no multi-row transaction spans a
// workflow. Deleting a conversation does not cascade here; callers delete
// the messages first.
type Store interface {
	// conversations
	CreateConversation(domain.Conversation) error
	GetConversation(id string) (domain.Conversation, bool, error)
	ListConversations() ([]domain.Conversation, error)
	UpdateConversationTitle(id, title string) error
	DeleteConversation(id string) error

	// messages
	AppendMessage(domain.Message) error
	ListMessages(conversationID string) ([]domain.Message, error)
	GetMessage(id string) (domain.Message, bool, error)
	UpdateMessage(domain.Message) error
	DeleteMessages(conversationID string) error
	SumLikes() (int, error)
	SumDislikes() (int, error)

	// api configuration (singleton row)
	GetAPIConfig() (domain.APIConfig, bool, error)
	SaveAPIConfig(domain.APIConfig) error

	// ingested files
	SaveIngestedFile(domain.IngestedFile) error
	ListIngestedFiles() ([]domain.IngestedFile, error)
	GetIngestedFile(id string) (domain.IngestedFile, bool, error)
	DeleteIngestedFile(id string) error
}
