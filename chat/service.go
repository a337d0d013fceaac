package chat

import (
	"ChatLink/models"
	"ChatLink/pkg/cache"
	"ChatLink/realtime"
	"ChatLink/store"
	"context"
	"errors"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"gorm.io/gorm"
)

// Notifier publishes message-lifecycle events to the subscribers of a
// conversation channel. Publication is best-effort; it is never part of the
// durability contract of an operation.
type Notifier interface {
	Publish(conversationID uint, ev realtime.Event) int
}

// Options carry the tunables the service enforces. Zero values fall back to
// the defaults below.
type Options struct {
	MaxMessageLen   int
	HistoryPageSize int
	HistoryPageMax  int
	ProfileCacheTTL time.Duration
	ProfileCacheMax int
}

const (
	defaultMaxMessageLen   = 2000
	defaultHistoryPageSize = 50
	defaultHistoryPageMax  = 100
)

// Service orchestrates send/read/delete across the conversation and message
// stores, enforcing membership and atomicity of unread-counter updates.
type Service struct {
	db            *gorm.DB
	conversations *store.ConversationStore
	messages      *store.MessageStore
	users         *store.UserStore
	notifier      Notifier
	profiles      *cache.Cache
	opts          Options
}

func NewService(db *gorm.DB, notifier Notifier, opts Options) *Service {
	if opts.MaxMessageLen <= 0 {
		opts.MaxMessageLen = defaultMaxMessageLen
	}
	if opts.HistoryPageSize <= 0 {
		opts.HistoryPageSize = defaultHistoryPageSize
	}
	if opts.HistoryPageMax <= 0 {
		opts.HistoryPageMax = defaultHistoryPageMax
	}
	return &Service{
		db:            db,
		conversations: store.NewConversationStore(db),
		messages:      store.NewMessageStore(db),
		users:         store.NewUserStore(db),
		notifier:      notifier,
		profiles:      cache.New(opts.ProfileCacheMax),
		opts:          opts,
	}
}

// MessageView is the wire shape of a message, also carried in events.
type MessageView struct {
	ID             uint       `json:"id"`
	ConversationID uint       `json:"conversation_id"`
	SenderID       uint       `json:"sender_id"`
	Text           string     `json:"text"`
	IsRead         bool       `json:"is_read"`
	ReadAt         *time.Time `json:"read_at,omitempty"`
	IsDeleted      bool       `json:"is_deleted"`
	CreatedAt      time.Time  `json:"created_at"`
}

func ViewOf(m *models.Message) MessageView {
	return MessageView{
		ID:             m.ID,
		ConversationID: m.ConversationID,
		SenderID:       m.SenderID,
		Text:           m.Text,
		IsRead:         m.IsRead,
		ReadAt:         m.ReadAt,
		IsDeleted:      m.IsDeleted,
		CreatedAt:      m.CreatedAt,
	}
}

// LastMessage is the denormalized snapshot exposed in list summaries.
type LastMessage struct {
	Text      string    `json:"text"`
	SenderID  uint      `json:"sender_id"`
	Timestamp time.Time `json:"timestamp"`
}

// ConversationSummary is one row of the conversation list for a given user.
type ConversationSummary struct {
	ID          uint                 `json:"id"`
	Peer        models.PublicProfile `json:"peer"`
	LastMessage *LastMessage         `json:"last_message,omitempty"`
	Unread      int64                `json:"unread"`
	UpdatedAt   time.Time            `json:"updated_at"`
}

// GetOrCreate finds or creates the single conversation between userID and
// peerID. Idempotent for the unordered pair, including under concurrent
// first-time creation.
func (s *Service) GetOrCreate(ctx context.Context, userID, peerID uint) (*models.Conversation, error) {
	if userID == peerID {
		return nil, ErrSelfConversation
	}
	if _, err := s.users.GetByID(ctx, peerID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return s.conversations.GetOrCreate(ctx, userID, peerID)
}

// ListConversations returns the user's conversations ordered by last-message
// time descending, each with the peer's public profile and the user's own
// unread count. Pure read.
func (s *Service) ListConversations(ctx context.Context, userID uint) ([]ConversationSummary, error) {
	convs, err := s.conversations.ListForUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	summaries := make([]ConversationSummary, 0, len(convs))
	for i := range convs {
		conv := &convs[i]
		summary := ConversationSummary{
			ID:        conv.ID,
			Peer:      s.peerProfile(ctx, conv.PeerOf(userID)),
			Unread:    conv.UnreadFor(userID),
			UpdatedAt: conv.UpdatedAt,
		}
		if conv.LastMessageAt != nil {
			summary.LastMessage = &LastMessage{
				Text:      conv.LastMessageText,
				SenderID:  conv.LastMessageSenderID,
				Timestamp: *conv.LastMessageAt,
			}
		}
		summaries = append(summaries, summary)
	}
	return summaries, nil
}

// Send validates and persists a message, refreshes the conversation snapshot
// and atomically bumps the recipient's unread slot, all in one transaction.
// The created event is published after commit; publish failure never fails
// the send.
func (s *Service) Send(ctx context.Context, convID, senderID uint, text string) (*models.Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyText
	}
	if utf8.RuneCountInString(text) > s.opts.MaxMessageLen {
		return nil, ErrTextTooLong
	}

	conv, err := s.conversations.GetByID(ctx, convID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if !conv.HasParticipant(senderID) {
		return nil, ErrForbidden
	}

	msg := &models.Message{
		ConversationID: conv.ID,
		SenderID:       senderID,
		Text:           text,
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.messages.Tx(tx).Create(ctx, msg); err != nil {
			return err
		}
		if err := s.conversations.Tx(tx).UpdateLastMessage(ctx, conv.ID, msg.Text, senderID, msg.CreatedAt); err != nil {
			return err
		}
		return s.conversations.Tx(tx).IncrementUnread(ctx, conv, conv.PeerOf(senderID))
	})
	if err != nil {
		return nil, err
	}

	s.publish(conv.ID, realtime.Event{
		Type:           realtime.EventMessageCreated,
		ConversationID: conv.ID,
		Message:        ViewOf(msg),
	})
	return msg, nil
}

// History returns up to limit messages strictly older than the cursor,
// oldest-to-newest, tombstones included. Fetches newest-first internally for
// efficient bounding, then reverses the page.
func (s *Service) History(ctx context.Context, convID, requesterID uint, limit int, before *time.Time, beforeID uint) ([]models.Message, error) {
	conv, err := s.conversations.GetByID(ctx, convID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if !conv.HasParticipant(requesterID) {
		return nil, ErrForbidden
	}

	if limit <= 0 {
		limit = s.opts.HistoryPageSize
	}
	if limit > s.opts.HistoryPageMax {
		limit = s.opts.HistoryPageMax
	}

	msgs, err := s.messages.PageBefore(ctx, convID, before, beforeID, limit)
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return msgs, nil
}

// MarkRead zeroes the reader's unread slot and flags the peer's unsent-read
// messages as read, in one transaction. Idempotent.
func (s *Service) MarkRead(ctx context.Context, convID, readerID uint) error {
	conv, err := s.conversations.GetByID(ctx, convID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	if !conv.HasParticipant(readerID) {
		return ErrForbidden
	}

	now := time.Now()
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.conversations.Tx(tx).ResetUnread(ctx, conv, readerID); err != nil {
			return err
		}
		return s.messages.Tx(tx).MarkConversationRead(ctx, conv.ID, readerID, now)
	})
}

// Delete tombstones a message. Only the original sender may delete; the
// conversation's last-message snapshot is deliberately left as written.
func (s *Service) Delete(ctx context.Context, msgID, requesterID uint) error {
	msg, err := s.messages.GetByID(ctx, msgID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	if msg.SenderID != requesterID {
		return ErrForbidden
	}
	if msg.IsDeleted {
		return nil
	}
	if err := s.messages.Tombstone(ctx, msgID); err != nil {
		return err
	}

	msg.IsDeleted = true
	msg.Text = models.DeletedPlaceholder
	s.publish(msg.ConversationID, realtime.Event{
		Type:           realtime.EventMessageDeleted,
		ConversationID: msg.ConversationID,
		Message:        ViewOf(msg),
	})
	return nil
}

// UnreadTotal sums the user's unread counters across all conversations.
// Pure read.
func (s *Service) UnreadTotal(ctx context.Context, userID uint) (int64, error) {
	return s.conversations.UnreadTotal(ctx, userID)
}

// Conversation loads a conversation and verifies membership; used by the
// subscribe binding before upgrading a socket.
func (s *Service) Conversation(ctx context.Context, convID, requesterID uint) (*models.Conversation, error) {
	conv, err := s.conversations.GetByID(ctx, convID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if !conv.HasParticipant(requesterID) {
		return nil, ErrForbidden
	}
	return conv, nil
}

func (s *Service) publish(convID uint, ev realtime.Event) {
	if s.notifier == nil {
		return
	}
	s.notifier.Publish(convID, ev)
}

// peerProfile resolves a participant's public profile through the process
// cache; a vanished user degrades to a bare id rather than failing the list.
func (s *Service) peerProfile(ctx context.Context, peerID uint) models.PublicProfile {
	key := cache.KeyFromStrings("peer-profile", strconv.FormatUint(uint64(peerID), 10))
	if v, ok := s.profiles.Get(key); ok {
		if p, ok2 := v.(models.PublicProfile); ok2 {
			return p
		}
	}

	user, err := s.users.GetByID(ctx, peerID)
	if err != nil {
		return models.PublicProfile{ID: peerID}
	}
	profile := user.Public()
	ttl := s.opts.ProfileCacheTTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	s.profiles.Set(key, profile, ttl)
	return profile
}
