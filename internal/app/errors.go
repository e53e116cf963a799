package app

import "errors"

var (
	// ErrOffline is returned when the remote API is unreachable.
	ErrOffline = errors.New("remote api unreachable")
	// ErrMissingConfiguration is returned when no API key is configured.
	ErrMissingConfiguration = errors.New("api configuration missing")
	// ErrMissingAssistantBinding is returned when the assistant or vector
	// store id is not configured.
	ErrMissingAssistantBinding = errors.New("assistant binding missing")
	// ErrConversationNotFound is returned for operations on unknown conversations.
	ErrConversationNotFound = errors.New("conversation not found")
	// ErrMessageNotFound is returned for reactions on unknown messages.
	ErrMessageNotFound = errors.New("message not found")
	// ErrIngestedFileNotFound is returned for operations on unknown file records.
	ErrIngestedFileNotFound = errors.New("ingested file not found")
	// ErrInvalidPDF is returned when a .pdf attachment cannot be parsed.
	ErrInvalidPDF = errors.New("invalid pdf file")
	// ErrRunTimeout is returned when run polling exceeds the configured bound.
	ErrRunTimeout = errors.New("run polling timed out")
)
