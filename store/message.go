package store

import (
	"ChatLink/models"
	"context"
	"time"

	"gorm.io/gorm"
)

// MessageStore owns the append-mostly message log. Rows are only ever
// mutated by the bulk read sweep and by tombstoning; never removed.
type MessageStore struct {
	db *gorm.DB
}

func NewMessageStore(db *gorm.DB) *MessageStore {
	return &MessageStore{db: db}
}

// Tx returns a copy bound to the given transaction handle.
func (s *MessageStore) Tx(tx *gorm.DB) *MessageStore {
	return &MessageStore{db: tx}
}

func (s *MessageStore) Create(ctx context.Context, msg *models.Message) error {
	return s.db.WithContext(ctx).Create(msg).Error
}

func (s *MessageStore) GetByID(ctx context.Context, id uint) (*models.Message, error) {
	var msg models.Message
	if err := s.db.WithContext(ctx).First(&msg, id).Error; err != nil {
		return nil, err
	}
	return &msg, nil
}

// PageBefore fetches up to limit messages of a conversation, newest first,
// tombstones included. With a cursor it returns only messages strictly older
// than (before, beforeID); beforeID breaks equal-timestamp ties so a page
// boundary inside one timestamp neither repeats nor skips. Callers reverse
// the page for oldest-to-newest presentation.
func (s *MessageStore) PageBefore(ctx context.Context, convID uint, before *time.Time, beforeID uint, limit int) ([]models.Message, error) {
	q := s.db.WithContext(ctx).
		Where("conversation_id = ?", convID).
		Order("created_at DESC, id DESC").
		Limit(limit)

	if before != nil {
		if beforeID > 0 {
			q = q.Where("created_at < ? OR (created_at = ? AND id < ?)", *before, *before, beforeID)
		} else {
			q = q.Where("created_at < ?", *before)
		}
	}

	var msgs []models.Message
	if err := q.Find(&msgs).Error; err != nil {
		return nil, err
	}
	return msgs, nil
}

// MarkConversationRead flags every unread message sent to readerID by the
// other participant as read at the given time. Already-read rows keep their
// original read_at, which makes the sweep idempotent.
func (s *MessageStore) MarkConversationRead(ctx context.Context, convID, readerID uint, at time.Time) error {
	return s.db.WithContext(ctx).Model(&models.Message{}).
		Where("conversation_id = ? AND sender_id <> ? AND is_read = ?", convID, readerID, false).
		Updates(map[string]interface{}{"is_read": true, "read_at": at}).Error
}

// Tombstone soft-deletes a message: the flag is set and the text replaced
// with the fixed placeholder. Position, counts and the conversation snapshot
// are untouched.
func (s *MessageStore) Tombstone(ctx context.Context, msgID uint) error {
	return s.db.WithContext(ctx).Model(&models.Message{}).
		Where("id = ?", msgID).
		Updates(map[string]interface{}{"is_deleted": true, "text": models.DeletedPlaceholder}).Error
}
