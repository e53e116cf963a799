package store

import (
	"testing"
	"time"

	"eliechat/pkg/domain"
)

func TestMemoryStoreMessageOrderingByTimestamp(t *testing.T) {
	s := NewMemoryStore()
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	if err := s.CreateConversation(domain.Conversation{ID: "c1", Title: "test", CreatedAt: base}); err != nil {
		t.Fatalf("create conversation: %v", err)
	}
	// Insert out of order; listing must come back in timestamp order.
	for _, m := range []domain.Message{
		{ID: "m2", ConversationID: "c1", Sender: domain.SenderBot, Body: "second", CreatedAt: base.Add(2 * time.Second)},
		{ID: "m1", ConversationID: "c1", Sender: domain.SenderUser, Body: "first", CreatedAt: base.Add(time.Second)},
		{ID: "m3", ConversationID: "c1", Sender: domain.SenderUser, Body: "third", CreatedAt: base.Add(3 * time.Second)},
	} {
		if err := s.AppendMessage(m); err != nil {
			t.Fatalf("append %s: %v", m.ID, err)
		}
	}

	msgs, err := s.ListMessages("c1")
	if err != nil {
		t.Fatalf("list messages: %v", err)
	}
	if len(msgs) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(msgs))
	}
	for i, want := range []string{"first", "second", "third"} {
		if msgs[i].Body != want {
			t.Fatalf("message %d: got %q, want %q", i, msgs[i].Body, want)
		}
	}
}

func TestMemoryStoreReactionSums(t *testing.T) {
	s := NewMemoryStore()
	now := time.Now().UTC()

	for _, m := range []domain.Message{
		{ID: "m1", ConversationID: "c1", Sender: domain.SenderBot, Body: "a", Likes: 2, Dislikes: 1, CreatedAt: now},
		{ID: "m2", ConversationID: "c2", Sender: domain.SenderBot, Body: "b", Likes: 3, CreatedAt: now},
	} {
		if err := s.AppendMessage(m); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	likes, err := s.SumLikes()
	if err != nil {
		t.Fatalf("sum likes: %v", err)
	}
	if likes != 5 {
		t.Fatalf("likes total: got %d, want 5", likes)
	}
	dislikes, err := s.SumDislikes()
	if err != nil {
		t.Fatalf("sum dislikes: %v", err)
	}
	if dislikes != 1 {
		t.Fatalf("dislikes total: got %d, want 1", dislikes)
	}
}

func TestMemoryStoreUpdateMessageOnlyTouchesReactions(t *testing.T) {
	s := NewMemoryStore()
	now := time.Now().UTC()
	if err := s.AppendMessage(domain.Message{ID: "m1", ConversationID: "c1", Sender: domain.SenderBot, Body: "hello", CreatedAt: now}); err != nil {
		t.Fatalf("append: %v", err)
	}

	if err := s.UpdateMessage(domain.Message{ID: "m1", Body: "tampered", Likes: 4}); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, ok, err := s.GetMessage("m1")
	if err != nil || !ok {
		t.Fatalf("get message: ok=%v err=%v", ok, err)
	}
	if got.Body != "hello" {
		t.Fatalf("body must be immutable, got %q", got.Body)
	}
	if got.Likes != 4 {
		t.Fatalf("likes: got %d, want 4", got.Likes)
	}
}

func TestMemoryStoreAPIConfigSingleton(t *testing.T) {
	s := NewMemoryStore()

	if _, ok, err := s.GetAPIConfig(); err != nil || ok {
		t.Fatalf("expected no config yet, ok=%v err=%v", ok, err)
	}
	if err := s.SaveAPIConfig(domain.APIConfig{APIKey: "sk-1", AssistantID: "asst_1"}); err != nil {
		t.Fatalf("save config: %v", err)
	}
	if err := s.SaveAPIConfig(domain.APIConfig{APIKey: "sk-2", AssistantID: "asst_1", VectorStoreID: "vs_1"}); err != nil {
		t.Fatalf("save config again: %v", err)
	}
	cfg, ok, err := s.GetAPIConfig()
	if err != nil || !ok {
		t.Fatalf("get config: ok=%v err=%v", ok, err)
	}
	if cfg.APIKey != "sk-2" || cfg.VectorStoreID != "vs_1" {
		t.Fatalf("unexpected config after upsert: %+v", cfg)
	}
}

func TestMemoryStoreDeleteMessagesForConversation(t *testing.T) {
	s := NewMemoryStore()
	now := time.Now().UTC()
	for _, m := range []domain.Message{
		{ID: "m1", ConversationID: "c1", Sender: domain.SenderUser, Body: "a", CreatedAt: now},
		{ID: "m2", ConversationID: "c1", Sender: domain.SenderBot, Body: "b", CreatedAt: now},
		{ID: "m3", ConversationID: "c2", Sender: domain.SenderUser, Body: "c", CreatedAt: now},
	} {
		if err := s.AppendMessage(m); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	if err := s.DeleteMessages("c1"); err != nil {
		t.Fatalf("delete messages: %v", err)
	}
	left, err := s.ListMessages("c1")
	if err != nil {
		t.Fatalf("list c1: %v", err)
	}
	if len(left) != 0 {
		t.Fatalf("expected c1 empty, got %d messages", len(left))
	}
	other, err := s.ListMessages("c2")
	if err != nil {
		t.Fatalf("list c2: %v", err)
	}
	if len(other) != 1 {
		t.Fatalf("c2 must be untouched, got %d messages", len(other))
	}
}
