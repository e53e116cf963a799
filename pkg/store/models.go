package store

import "time"

// GORM models used for persistence.
type ConversationModel struct {
	ID        string    `gorm:"primaryKey"`
	Title     string    `gorm:"not null"`
	Likes     int       `gorm:"not null;default:0"`
	Dislikes  int       `gorm:"not null;default:0"`
	CreatedAt time.Time `gorm:"not null;index"`
}

type MessageModel struct {
	ID              string `gorm:"primaryKey"`
	ConversationID  string `gorm:"not null;index"`
	Sender          string `gorm:"not null"`
	Body            string `gorm:"type:text;not null"`
	Likes           int    `gorm:"not null;default:0"`
	Dislikes        int    `gorm:"not null;default:0"`
	ResponseSeconds *int64
	CreatedAt       time.Time `gorm:"not null;index"`
}

type APIConfigModel struct {
	ID            int    `gorm:"primaryKey"`
	APIKey        string `gorm:"not null"`
	AssistantID   string
	VectorStoreID string
	CustomPrompt  string `gorm:"type:text"`
	UpdatedAt     time.Time
}

type IngestedFileModel struct {
	ID           string    `gorm:"primaryKey"`
	FileName     string    `gorm:"not null"`
	RemoteFileID string    `gorm:"not null;uniqueIndex"`
	CreatedAt    time.Time `gorm:"not null"`
}
