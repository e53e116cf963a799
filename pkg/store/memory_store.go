package store

import (
	"sort"
	"sync"

	"eliechat/pkg/domain"
)

// MemoryStore is a mutex-guarded in-memory Store. It backs unit tests and
// mirrors the ordering semantics of the Postgres implementation.
type MemoryStore struct {
	mu            sync.Mutex
	conversations map[string]domain.Conversation
	messages      map[string]domain.Message
	files         map[string]domain.IngestedFile
	config        *domain.APIConfig
}

// NewMemoryStore constructs an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		conversations: make(map[string]domain.Conversation),
		messages:      make(map[string]domain.Message),
		files:         make(map[string]domain.IngestedFile),
	}
}

func (s *MemoryStore) CreateConversation(c domain.Conversation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conversations[c.ID] = c
	return nil
}

func (s *MemoryStore) GetConversation(id string) (domain.Conversation, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.conversations[id]
	return c, ok, nil
}

func (s *MemoryStore) ListConversations() ([]domain.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	items := make([]domain.Conversation, 0, len(s.conversations))
	for _, c := range s.conversations {
		items = append(items, c)
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})
	return items, nil
}

func (s *MemoryStore) UpdateConversationTitle(id, title string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.conversations[id]; ok {
		c.Title = title
		s.conversations[id] = c
	}
	return nil
}

func (s *MemoryStore) DeleteConversation(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.conversations, id)
	return nil
}

func (s *MemoryStore) AppendMessage(msg domain.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages[msg.ID] = msg
	return nil
}

func (s *MemoryStore) ListMessages(conversationID string) ([]domain.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	msgs := make([]domain.Message, 0)
	for _, m := range s.messages {
		if m.ConversationID == conversationID {
			msgs = append(msgs, m)
		}
	}
	sort.Slice(msgs, func(i, j int) bool {
		return msgs[i].CreatedAt.Before(msgs[j].CreatedAt)
	})
	return msgs, nil
}

func (s *MemoryStore) GetMessage(id string) (domain.Message, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.messages[id]
	return m, ok, nil
}

func (s *MemoryStore) UpdateMessage(msg domain.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.messages[msg.ID]; ok {
		existing.Likes = msg.Likes
		existing.Dislikes = msg.Dislikes
		s.messages[msg.ID] = existing
	}
	return nil
}

func (s *MemoryStore) DeleteMessages(conversationID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, m := range s.messages {
		if m.ConversationID == conversationID {
			delete(s.messages, id)
		}
	}
	return nil
}

func (s *MemoryStore) SumLikes() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := 0
	for _, m := range s.messages {
		total += m.Likes
	}
	return total, nil
}

func (s *MemoryStore) SumDislikes() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := 0
	for _, m := range s.messages {
		total += m.Dislikes
	}
	return total, nil
}

func (s *MemoryStore) GetAPIConfig() (domain.APIConfig, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.config == nil {
		return domain.APIConfig{}, false, nil
	}
	return *s.config, true, nil
}

func (s *MemoryStore) SaveAPIConfig(cfg domain.APIConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.config = &cfg
	return nil
}

func (s *MemoryStore) SaveIngestedFile(f domain.IngestedFile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files[f.ID] = f
	return nil
}

func (s *MemoryStore) ListIngestedFiles() ([]domain.IngestedFile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	files := make([]domain.IngestedFile, 0, len(s.files))
	for _, f := range s.files {
		files = append(files, f)
	}
	sort.Slice(files, func(i, j int) bool {
		return files[i].CreatedAt.Before(files[j].CreatedAt)
	})
	return files, nil
}

func (s *MemoryStore) GetIngestedFile(id string) (domain.IngestedFile, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.files[id]
	return f, ok, nil
}

func (s *MemoryStore) DeleteIngestedFile(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.files, id)
	return nil
}
