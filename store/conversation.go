package store

import (
	"ChatLink/models"
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

// ConversationStore owns the conversation table: the pair-unique index, the
// per-participant unread slots and the denormalized last-message snapshot.
type ConversationStore struct {
	db *gorm.DB
}

func NewConversationStore(db *gorm.DB) *ConversationStore {
	return &ConversationStore{db: db}
}

// Tx returns a copy bound to the given transaction handle.
func (s *ConversationStore) Tx(tx *gorm.DB) *ConversationStore {
	return &ConversationStore{db: tx}
}

// GetOrCreate finds the conversation for the unordered pair {a, b}, creating
// it with zeroed unread slots if absent. Concurrent first-time calls race on
// the unique pair index; the loser's duplicate-key error is resolved by
// re-running the lookup, so exactly one conversation ever exists per pair.
func (s *ConversationStore) GetOrCreate(ctx context.Context, a, b uint) (*models.Conversation, error) {
	low, high := models.NormalizePair(a, b)

	for attempt := 0; attempt < 2; attempt++ {
		var conv models.Conversation
		err := s.db.WithContext(ctx).
			Where("user_low_id = ? AND user_high_id = ?", low, high).
			First(&conv).Error
		if err == nil {
			return &conv, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}

		conv = models.Conversation{UserLowID: low, UserHighID: high}
		err = s.db.WithContext(ctx).Create(&conv).Error
		if err == nil {
			return &conv, nil
		}
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// lost the creation race; next iteration finds the winner
			continue
		}
		return nil, err
	}

	// second lookup after a conflict cannot miss unless the row vanished
	var conv models.Conversation
	if err := s.db.WithContext(ctx).
		Where("user_low_id = ? AND user_high_id = ?", low, high).
		First(&conv).Error; err != nil {
		return nil, err
	}
	return &conv, nil
}

func (s *ConversationStore) GetByID(ctx context.Context, id uint) (*models.Conversation, error) {
	var conv models.Conversation
	if err := s.db.WithContext(ctx).First(&conv, id).Error; err != nil {
		return nil, err
	}
	return &conv, nil
}

// ListForUser returns every conversation the user participates in, most
// recent message first; conversations that have no messages yet sort last.
func (s *ConversationStore) ListForUser(ctx context.Context, userID uint) ([]models.Conversation, error) {
	var convs []models.Conversation
	err := s.db.WithContext(ctx).
		Where("user_low_id = ? OR user_high_id = ?", userID, userID).
		Order("last_message_at IS NULL, last_message_at DESC").
		Find(&convs).Error
	if err != nil {
		return nil, err
	}
	return convs, nil
}

// IncrementUnread adds 1 to the participant's unread slot as a single SQL
// column update. Concurrent sends into the same conversation must never lose
// an increment, so this is never done as a fetch-mutate-save on the struct.
func (s *ConversationStore) IncrementUnread(ctx context.Context, conv *models.Conversation, participantID uint) error {
	col := unreadColumn(conv, participantID)
	return s.db.WithContext(ctx).Model(&models.Conversation{}).
		Where("id = ?", conv.ID).
		Update(col, gorm.Expr(col+" + ?", 1)).Error
}

// ResetUnread zeroes the participant's unread slot. Idempotent.
func (s *ConversationStore) ResetUnread(ctx context.Context, conv *models.Conversation, participantID uint) error {
	return s.db.WithContext(ctx).Model(&models.Conversation{}).
		Where("id = ?", conv.ID).
		Update(unreadColumn(conv, participantID), 0).Error
}

// UpdateLastMessage refreshes the denormalized snapshot and bumps updated_at.
func (s *ConversationStore) UpdateLastMessage(ctx context.Context, convID uint, text string, senderID uint, at time.Time) error {
	return s.db.WithContext(ctx).Model(&models.Conversation{}).
		Where("id = ?", convID).
		Updates(map[string]interface{}{
			"last_message_text":      text,
			"last_message_sender_id": senderID,
			"last_message_at":        at,
		}).Error
}

// UnreadTotal sums the user's unread slots across all conversations.
func (s *ConversationStore) UnreadTotal(ctx context.Context, userID uint) (int64, error) {
	var total int64
	err := s.db.WithContext(ctx).Raw(`
		SELECT COALESCE(SUM(CASE
			WHEN user_low_id = ? THEN unread_low
			WHEN user_high_id = ? THEN unread_high
			ELSE 0 END), 0)
		FROM conversations
		WHERE user_low_id = ? OR user_high_id = ?`,
		userID, userID, userID, userID).
		Scan(&total).Error
	if err != nil {
		return 0, err
	}
	return total, nil
}

func unreadColumn(conv *models.Conversation, participantID uint) string {
	if participantID == conv.UserLowID {
		return "unread_low"
	}
	return "unread_high"
}
