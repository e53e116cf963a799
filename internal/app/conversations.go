package app

import (
	"context"
	"fmt"
	"strings"

	"eliechat/internal/util"
	"eliechat/pkg/domain"
)

const defaultConversationTitle = "New conversation"

// CreateConversation starts a new conversation with the given title.
func (a *App) CreateConversation(ctx context.Context, title string) (domain.Conversation, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		title = defaultConversationTitle
	}
	conversation := domain.Conversation{
		ID:        util.NewID(),
		Title:     title,
		CreatedAt: a.now().UTC(),
	}
	if err := a.store.CreateConversation(conversation); err != nil {
		return domain.Conversation{}, fmt.Errorf("create conversation: %w", err)
	}
	return conversation, nil
}

// GetConversation returns one conversation by id.
func (a *App) GetConversation(ctx context.Context, id string) (domain.Conversation, error) {
	conversation, found, err := a.store.GetConversation(id)
	if err != nil {
		return domain.Conversation{}, fmt.Errorf("load conversation: %w", err)
	}
	if !found {
		return domain.Conversation{}, ErrConversationNotFound
	}
	return conversation, nil
}

// ListConversations returns all conversations, newest first.
func (a *App) ListConversations(ctx context.Context) ([]domain.Conversation, error) {
	return a.store.ListConversations()
}

// RenameConversation updates a conversation's title.
func (a *App) RenameConversation(ctx context.Context, id, title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return fmt.Errorf("title required")
	}
	if _, found, err := a.store.GetConversation(id); err != nil {
		return fmt.Errorf("load conversation: %w", err)
	} else if !found {
		return ErrConversationNotFound
	}
	return a.store.UpdateConversationTitle(id, title)
}

// DeleteConversation removes a conversation and all its messages. The
// store does not cascade, so the messages go first.
func (a *App) DeleteConversation(ctx context.Context, id string) error {
	if _, found, err := a.store.GetConversation(id); err != nil {
		return fmt.Errorf("load conversation: %w", err)
	} else if !found {
		return ErrConversationNotFound
	}
	if err := a.store.DeleteMessages(id); err != nil {
		return fmt.Errorf("delete messages: %w", err)
	}
	return a.store.DeleteConversation(id)
}

// ListMessages returns a conversation's messages ordered by timestamp.
func (a *App) ListMessages(ctx context.Context, conversationID string) ([]domain.Message, error) {
	if _, found, err := a.store.GetConversation(conversationID); err != nil {
		return nil, fmt.Errorf("load conversation: %w", err)
	} else if !found {
		return nil, ErrConversationNotFound
	}
	return a.store.ListMessages(conversationID)
}

// LikeMessage increments a message's like counter.
func (a *App) LikeMessage(ctx context.Context, messageID string) (domain.Message, error) {
	return a.react(messageID, func(m *domain.Message) { m.Likes++ })
}

// DislikeMessage increments a message's dislike counter.
func (a *App) DislikeMessage(ctx context.Context, messageID string) (domain.Message, error) {
	return a.react(messageID, func(m *domain.Message) { m.Dislikes++ })
}

func (a *App) react(messageID string, apply func(*domain.Message)) (domain.Message, error) {
	message, found, err := a.store.GetMessage(messageID)
	if err != nil {
		return domain.Message{}, fmt.Errorf("load message: %w", err)
	}
	if !found {
		return domain.Message{}, ErrMessageNotFound
	}
	apply(&message)
	if err := a.store.UpdateMessage(message); err != nil {
		return domain.Message{}, fmt.Errorf("update message: %w", err)
	}
	return message, nil
}

// ReactionTotals returns the like/dislike totals across all messages.
func (a *App) ReactionTotals(ctx context.Context) (domain.ReactionTotals, error) {
	likes, err := a.store.SumLikes()
	if err != nil {
		return domain.ReactionTotals{}, fmt.Errorf("sum likes: %w", err)
	}
	dislikes, err := a.store.SumDislikes()
	if err != nil {
		return domain.ReactionTotals{}, fmt.Errorf("sum dislikes: %w", err)
	}
	return domain.ReactionTotals{Likes: likes, Dislikes: dislikes}, nil
}

// APIConfig returns the stored configuration snapshot.
func (a *App) APIConfig(ctx context.Context) (domain.APIConfig, bool, error) {
	return a.store.GetAPIConfig()
}

// SaveAPIConfig replaces the configuration singleton.
func (a *App) SaveAPIConfig(ctx context.Context, cfg domain.APIConfig) error {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return fmt.Errorf("api key required")
	}
	return a.store.SaveAPIConfig(cfg)
}
