package models

import "time"

// Conversation is the unique channel between exactly two users. The pair is
// stored normalized (lower id first) so a composite unique index can enforce
// one conversation per unordered pair.
type Conversation struct {
	ID         uint `gorm:"primaryKey"`
	UserLowID  uint `gorm:"not null;uniqueIndex:idx_conversation_pair,priority:1"`
	UserHighID uint `gorm:"not null;uniqueIndex:idx_conversation_pair,priority:2"`

	// Per-participant unread counters, one slot per participant. Mutated only
	// through atomic column updates, never read-modify-write.
	UnreadLow  int64 `gorm:"not null;default:0"`
	UnreadHigh int64 `gorm:"not null;default:0"`

	// Denormalized snapshot of the most recently accepted message for list
	// views. Not rewritten when that message is later tombstoned.
	LastMessageText     string `gorm:"type:text"`
	LastMessageSenderID uint
	LastMessageAt       *time.Time `gorm:"index"`

	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

// NormalizePair orders two user ids so (A,B) and (B,A) map to the same row.
func NormalizePair(a, b uint) (low, high uint) {
	if a > b {
		return b, a
	}
	return a, b
}

func (c *Conversation) HasParticipant(userID uint) bool {
	return userID == c.UserLowID || userID == c.UserHighID
}

// PeerOf returns the other participant of the conversation.
func (c *Conversation) PeerOf(userID uint) uint {
	if userID == c.UserLowID {
		return c.UserHighID
	}
	return c.UserLowID
}

// UnreadFor returns the unread counter slot belonging to userID.
func (c *Conversation) UnreadFor(userID uint) int64 {
	if userID == c.UserLowID {
		return c.UnreadLow
	}
	return c.UnreadHigh
}
