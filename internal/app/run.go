package app

import (
	"context"
	"fmt"
	"strings"

	"eliechat/internal/util"
	"eliechat/pkg/assistant"
	"eliechat/pkg/domain"
)

const (
	// sentinelReply is persisted when a completed run yields no assistant message.
	sentinelReply = "No assistant response found."
	// configPrompt is the synthetic bot message persisted when the assistant
	// or vector store id is not configured.
	configPrompt = "Configuration missing! Please set your Assistant ID and Vector Store ID in Settings."
)

// SendMessage runs the full send workflow for one user message: create a
// thread, append the message, start a run, poll it to completion, and
// persist the assistant's reply. The user message is committed as soon as
// the remote append succeeds; later failures do not remove it.
//
// When the assistant binding is missing, a bot message prompting the user
// to configure it is persisted and returned together with
// ErrMissingAssistantBinding.
func (a *App) SendMessage(ctx context.Context, conversationID, text string) (domain.Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return domain.Message{}, fmt.Errorf("message text required")
	}
	if _, found, err := a.store.GetConversation(conversationID); err != nil {
		return domain.Message{}, fmt.Errorf("load conversation: %w", err)
	} else if !found {
		return domain.Message{}, ErrConversationNotFound
	}

	if !a.prober.Online(ctx) {
		return domain.Message{}, ErrOffline
	}
	cfg, err := a.apiConfig()
	if err != nil {
		return domain.Message{}, err
	}
	if !cfg.hasBinding() {
		prompt := domain.Message{
			ID:             util.NewID(),
			ConversationID: conversationID,
			Sender:         domain.SenderBot,
			Body:           configPrompt,
			CreatedAt:      a.now().UTC(),
		}
		if err := a.store.AppendMessage(prompt); err != nil {
			return domain.Message{}, fmt.Errorf("persist config prompt: %w", err)
		}
		return prompt, ErrMissingAssistantBinding
	}

	logger := util.LoggerFromContext(ctx)

	thread, err := a.client.CreateThread(ctx, cfg.APIKey)
	if err != nil {
		return domain.Message{}, fmt.Errorf("create thread: %w", err)
	}

	if cfg.CustomPrompt != "" {
		if _, err := a.client.AddMessage(ctx, cfg.APIKey, thread.ID, "user", cfg.CustomPrompt); err != nil {
			logger.Warn("append custom prompt failed", "thread_id", thread.ID, "error", err)
		}
	}

	if _, err := a.client.AddMessage(ctx, cfg.APIKey, thread.ID, "user", text); err != nil {
		return domain.Message{}, fmt.Errorf("append message: %w", err)
	}
	userMsg := domain.Message{
		ID:             util.NewID(),
		ConversationID: conversationID,
		Sender:         domain.SenderUser,
		Body:           text,
		CreatedAt:      a.now().UTC(),
	}
	if err := a.store.AppendMessage(userMsg); err != nil {
		return domain.Message{}, fmt.Errorf("persist user message: %w", err)
	}

	run, err := a.client.StartRun(ctx, cfg.APIKey, thread.ID, cfg.AssistantID)
	if err != nil {
		return domain.Message{}, fmt.Errorf("start run: %w", err)
	}

	if err := a.awaitRun(ctx, cfg.APIKey, thread.ID, run.ID); err != nil {
		return domain.Message{}, err
	}

	messages, err := a.client.ListThreadMessages(ctx, cfg.APIKey, thread.ID)
	if err != nil {
		return domain.Message{}, fmt.Errorf("fetch thread messages: %w", err)
	}
	reply := latestAssistantReply(messages)

	botMsg := domain.Message{
		ID:             util.NewID(),
		ConversationID: conversationID,
		Sender:         domain.SenderBot,
		Body:           reply,
		CreatedAt:      a.now().UTC(),
	}
	latency := botMsg.CreatedAt.Sub(userMsg.CreatedAt).Milliseconds() / 1000
	botMsg.ResponseSeconds = &latency
	if err := a.store.AppendMessage(botMsg); err != nil {
		return domain.Message{}, fmt.Errorf("persist reply: %w", err)
	}
	return botMsg, nil
}

// awaitRun polls the run on a fixed interval until it reports completed.
// PollTimeout bounds the wait; zero means wait indefinitely.
func (a *App) awaitRun(ctx context.Context, apiKey, threadID, runID string) error {
	if a.pollTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.pollTimeout)
		defer cancel()
	}
	for {
		if err := a.sleep(ctx, a.pollInterval); err != nil {
			if a.pollTimeout > 0 && ctx.Err() == context.DeadlineExceeded {
				return ErrRunTimeout
			}
			return err
		}
		status, err := a.client.GetRun(ctx, apiKey, threadID, runID)
		if err != nil {
			if a.pollTimeout > 0 && ctx.Err() == context.DeadlineExceeded {
				return ErrRunTimeout
			}
			return fmt.Errorf("poll run: %w", err)
		}
		if status.Status == string(domain.StatusCompleted) {
			return nil
		}
	}
}

// latestAssistantReply selects the newest assistant-authored message and
// joins its content segments with a single space. Falls back to the
// sentinel text when none exists.
func latestAssistantReply(messages []assistant.ThreadMessage) string {
	var latest *assistant.ThreadMessage
	for i := range messages {
		msg := &messages[i]
		if !strings.EqualFold(msg.Role, "assistant") {
			continue
		}
		if latest == nil || msg.CreatedAt >= latest.CreatedAt {
			latest = msg
		}
	}
	if latest == nil {
		return sentinelReply
	}
	parts := make([]string, 0, len(latest.Content))
	for _, part := range latest.Content {
		parts = append(parts, part.Text.Value)
	}
	reply := strings.Join(parts, " ")
	if reply == "" {
		return sentinelReply
	}
	return reply
}
