package store

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"eliechat/pkg/domain"
)

const migrateLockID int64 = 52180931

const apiConfigRowID = 1

// GormStore implements Store using GORM + Postgres.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore opens the DB and runs auto-migrations.
func NewGormStore(dsn string) (*GormStore, error) {
	gormLog := gormlogger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		gormlogger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: gormLog})
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := withMigrationLock(db, func(tx *gorm.DB) error {
		if err := tx.AutoMigrate(&ConversationModel{}, &MessageModel{}, &APIConfigModel{}, &IngestedFileModel{}); err != nil {
			return fmt.Errorf("auto migrate: %w", err)
		}
		return nil
	}); err != nil {
		return nil, err
	}
	return &GormStore{db: db}, nil
}

func withMigrationLock(db *gorm.DB, fn func(*gorm.DB) error) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("get sql db: %w", err)
	}
	conn, err := sqlDB.Conn(ctx)
	if err != nil {
		return fmt.Errorf("open sql conn: %w", err)
	}
	defer conn.Close()
	if err := execAdvisory(ctx, conn, "SELECT pg_advisory_lock($1)", migrateLockID); err != nil {
		return fmt.Errorf("acquire migrate lock: %w", err)
	}
	defer func() {
		_ = execAdvisory(ctx, conn, "SELECT pg_advisory_unlock($1)", migrateLockID)
	}()
	return fn(db)
}

func execAdvisory(ctx context.Context, conn *sql.Conn, query string, lockID int64) error {
	_, err := conn.ExecContext(ctx, query, lockID)
	return err
}

// CreateConversation inserts a new conversation record.
func (s *GormStore) CreateConversation(c domain.Conversation) error {
	model := conversationToModel(c)
	return s.db.Create(&model).Error
}

// GetConversation returns one conversation by ID.
func (s *GormStore) GetConversation(id string) (domain.Conversation, bool, error) {
	var model ConversationModel
	if err := s.db.First(&model, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.Conversation{}, false, nil
		}
		return domain.Conversation{}, false, err
	}
	return conversationFromModel(model), true, nil
}

// ListConversations returns all conversations, newest first.
func (s *GormStore) ListConversations() ([]domain.Conversation, error) {
	var models []ConversationModel
	if err := s.db.Order("created_at DESC").Find(&models).Error; err != nil {
		return nil, err
	}
	items := make([]domain.Conversation, 0, len(models))
	for _, m := range models {
		items = append(items, conversationFromModel(m))
	}
	return items, nil
}

// UpdateConversationTitle renames a conversation. Title is the only mutable
// conversation field.
func (s *GormStore) UpdateConversationTitle(id, title string) error {
	return s.db.Model(&ConversationModel{}).Where("id = ?", id).
		Update("title", title).Error
}

// DeleteConversation removes the conversation row only. Messages are deleted
// by the caller beforehand.
func (s *GormStore) DeleteConversation(id string) error {
	return s.db.Delete(&ConversationModel{}, "id = ?", id).Error
}

// AppendMessage records a message.
func (s *GormStore) AppendMessage(msg domain.Message) error {
	model := messageToModel(msg)
	return s.db.Create(&model).Error
}

// ListMessages returns a conversation's messages in timestamp order.
func (s *GormStore) ListMessages(conversationID string) ([]domain.Message, error) {
	var models []MessageModel
	if err := s.db.Where("conversation_id = ?", conversationID).
		Order("created_at ASC").
		Find(&models).Error; err != nil {
		return nil, err
	}
	msgs := make([]domain.Message, 0, len(models))
	for _, m := range models {
		msgs = append(msgs, messageFromModel(m))
	}
	return msgs, nil
}

// GetMessage returns one message by ID.
func (s *GormStore) GetMessage(id string) (domain.Message, bool, error) {
	var model MessageModel
	if err := s.db.First(&model, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.Message{}, false, nil
		}
		return domain.Message{}, false, err
	}
	return messageFromModel(model), true, nil
}

// UpdateMessage writes back a message; in practice only the reaction
// counters change after insert.
func (s *GormStore) UpdateMessage(msg domain.Message) error {
	model := messageToModel(msg)
	return s.db.Model(&MessageModel{}).Where("id = ?", msg.ID).
		Updates(map[string]any{
			"likes":    model.Likes,
			"dislikes": model.Dislikes,
		}).Error
}

// DeleteMessages removes all messages of a conversation.
func (s *GormStore) DeleteMessages(conversationID string) error {
	return s.db.Delete(&MessageModel{}, "conversation_id = ?", conversationID).Error
}

// SumLikes returns the like total across all messages.
func (s *GormStore) SumLikes() (int, error) {
	return s.sumColumn("likes")
}

// SumDislikes returns the dislike total across all messages.
func (s *GormStore) SumDislikes() (int, error) {
	return s.sumColumn("dislikes")
}

func (s *GormStore) sumColumn(column string) (int, error) {
	var total int64
	err := s.db.Model(&MessageModel{}).
		Select("COALESCE(SUM(" + column + "), 0)").
		Scan(&total).Error
	if err != nil {
		return 0, err
	}
	return int(total), nil
}

// GetAPIConfig returns the singleton configuration row.
func (s *GormStore) GetAPIConfig() (domain.APIConfig, bool, error) {
	var model APIConfigModel
	if err := s.db.First(&model, "id = ?", apiConfigRowID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.APIConfig{}, false, nil
		}
		return domain.APIConfig{}, false, err
	}
	return apiConfigFromModel(model), true, nil
}

// SaveAPIConfig upserts the singleton configuration row.
func (s *GormStore) SaveAPIConfig(cfg domain.APIConfig) error {
	model := apiConfigToModel(cfg)
	return s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"api_key", "assistant_id", "vector_store_id", "custom_prompt", "updated_at"}),
	}).Create(&model).Error
}

// SaveIngestedFile records a fully ingested file.
func (s *GormStore) SaveIngestedFile(f domain.IngestedFile) error {
	model := ingestedFileToModel(f)
	return s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "remote_file_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"file_name"}),
	}).Create(&model).Error
}

// ListIngestedFiles returns all ingested file records.
func (s *GormStore) ListIngestedFiles() ([]domain.IngestedFile, error) {
	var models []IngestedFileModel
	if err := s.db.Order("created_at ASC").Find(&models).Error; err != nil {
		return nil, err
	}
	files := make([]domain.IngestedFile, 0, len(models))
	for _, m := range models {
		files = append(files, ingestedFileFromModel(m))
	}
	return files, nil
}

// GetIngestedFile returns one ingested file record.
func (s *GormStore) GetIngestedFile(id string) (domain.IngestedFile, bool, error) {
	var model IngestedFileModel
	if err := s.db.First(&model, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.IngestedFile{}, false, nil
		}
		return domain.IngestedFile{}, false, err
	}
	return ingestedFileFromModel(model), true, nil
}

// DeleteIngestedFile removes an ingested file record.
func (s *GormStore) DeleteIngestedFile(id string) error {
	return s.db.Delete(&IngestedFileModel{}, "id = ?", id).Error
}

func conversationToModel(c domain.Conversation) ConversationModel {
	return ConversationModel{
		ID:        c.ID,
		Title:     c.Title,
		Likes:     c.Likes,
		Dislikes:  c.Dislikes,
		CreatedAt: c.CreatedAt,
	}
}

func conversationFromModel(m ConversationModel) domain.Conversation {
	return domain.Conversation{
		ID:        m.ID,
		Title:     m.Title,
		Likes:     m.Likes,
		Dislikes:  m.Dislikes,
		CreatedAt: m.CreatedAt,
	}
}

func messageToModel(msg domain.Message) MessageModel {
	return MessageModel{
		ID:              msg.ID,
		ConversationID:  msg.ConversationID,
		Sender:          string(msg.Sender),
		Body:            msg.Body,
		Likes:           msg.Likes,
		Dislikes:        msg.Dislikes,
		ResponseSeconds: msg.ResponseSeconds,
		CreatedAt:       msg.CreatedAt,
	}
}

func messageFromModel(m MessageModel) domain.Message {
	return domain.Message{
		ID:              m.ID,
		ConversationID:  m.ConversationID,
		Sender:          domain.Sender(m.Sender),
		Body:            m.Body,
		Likes:           m.Likes,
		Dislikes:        m.Dislikes,
		ResponseSeconds: m.ResponseSeconds,
		CreatedAt:       m.CreatedAt,
	}
}

func apiConfigToModel(cfg domain.APIConfig) APIConfigModel {
	return APIConfigModel{
		ID:            apiConfigRowID,
		APIKey:        cfg.APIKey,
		AssistantID:   cfg.AssistantID,
		VectorStoreID: cfg.VectorStoreID,
		CustomPrompt:  cfg.CustomPrompt,
		UpdatedAt:     time.Now().UTC(),
	}
}

func apiConfigFromModel(m APIConfigModel) domain.APIConfig {
	return domain.APIConfig{
		APIKey:        m.APIKey,
		AssistantID:   m.AssistantID,
		VectorStoreID: m.VectorStoreID,
		CustomPrompt:  m.CustomPrompt,
	}
}

func ingestedFileToModel(f domain.IngestedFile) IngestedFileModel {
	return IngestedFileModel{
		ID:           f.ID,
		FileName:     f.FileName,
		RemoteFileID: f.RemoteFileID,
		CreatedAt:    f.CreatedAt,
	}
}

func ingestedFileFromModel(m IngestedFileModel) domain.IngestedFile {
	return domain.IngestedFile{
		ID:           m.ID,
		FileName:     m.FileName,
		RemoteFileID: m.RemoteFileID,
		CreatedAt:    m.CreatedAt,
	}
}
