package models

import "time"

// DeletedPlaceholder replaces the text of a tombstoned message.
const DeletedPlaceholder = "This message was deleted"

// Message is an append-mostly record; it is tombstoned, never removed.
// (conversation_id, created_at) is indexed for ordered range scans, with the
// autoincrement id breaking creation-time ties.
type Message struct {
	ID             uint      `gorm:"primaryKey"`
	ConversationID uint      `gorm:"not null;index:idx_message_page,priority:1"`
	SenderID       uint      `gorm:"not null;index"`
	Text           string    `gorm:"type:text;not null"`
	IsRead         bool      `gorm:"not null;default:false"`
	ReadAt         *time.Time
	IsDeleted      bool      `gorm:"not null;default:false"`
	CreatedAt      time.Time `gorm:"autoCreateTime;index:idx_message_page,priority:2"`
}
