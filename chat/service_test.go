package chat

import (
	"ChatLink/models"
	"ChatLink/realtime"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// recorder collects published events in order.
type recorder struct {
	mu     sync.Mutex
	events []realtime.Event
}

func (r *recorder) Publish(conversationID uint, ev realtime.Event) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return 1
}

func (r *recorder) all() []realtime.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]realtime.Event, len(r.events))
	copy(out, r.events)
	return out
}

type fixture struct {
	svc      *Service
	db       *gorm.DB
	notifier *recorder
	alice    uint
	bob      uint
	carol    uint
}

func newFixture(t *testing.T, opts Options) *fixture {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("unwrap sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := db.AutoMigrate(&models.User{}, &models.Conversation{}, &models.Message{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	f := &fixture{db: db, notifier: &recorder{}}
	for _, name := range []string{"alice", "bob", "carol"} {
		u := models.User{Email: name + "@example.com", Username: name, PasswordHash: "x"}
		if err := db.Create(&u).Error; err != nil {
			t.Fatalf("seed %s: %v", name, err)
		}
		switch name {
		case "alice":
			f.alice = u.ID
		case "bob":
			f.bob = u.ID
		case "carol":
			f.carol = u.ID
		}
	}
	f.svc = NewService(db, f.notifier, opts)
	return f
}

func TestSendReadScenario(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()

	conv, err := f.svc.GetOrCreate(ctx, f.alice, f.bob)
	if err != nil {
		t.Fatalf("getOrCreate: %v", err)
	}

	if _, err := f.svc.Send(ctx, conv.ID, f.alice, "  hi  "); err != nil {
		t.Fatalf("send hi: %v", err)
	}
	if _, err := f.svc.Send(ctx, conv.ID, f.alice, "there"); err != nil {
		t.Fatalf("send there: %v", err)
	}

	for _, uid := range []uint{f.alice, f.bob} {
		hist, err := f.svc.History(ctx, conv.ID, uid, 0, nil, 0)
		if err != nil {
			t.Fatalf("history for %d: %v", uid, err)
		}
		if len(hist) != 2 {
			t.Fatalf("expected 2 messages, got %d", len(hist))
		}
		if hist[0].Text != "hi" || hist[1].Text != "there" {
			t.Fatalf("wrong order/content: %q then %q", hist[0].Text, hist[1].Text)
		}
	}

	total, err := f.svc.UnreadTotal(ctx, f.bob)
	if err != nil {
		t.Fatalf("unreadTotal: %v", err)
	}
	if total != 2 {
		t.Fatalf("expected unreadTotal(bob)=2, got %d", total)
	}
	total, _ = f.svc.UnreadTotal(ctx, f.alice)
	if total != 0 {
		t.Fatalf("expected unreadTotal(alice)=0, got %d", total)
	}

	// mark read twice; same state as once
	for i := 0; i < 2; i++ {
		if err := f.svc.MarkRead(ctx, conv.ID, f.bob); err != nil {
			t.Fatalf("markRead #%d: %v", i+1, err)
		}
	}
	total, _ = f.svc.UnreadTotal(ctx, f.bob)
	if total != 0 {
		t.Fatalf("expected unreadTotal(bob)=0 after markRead, got %d", total)
	}
	hist, _ := f.svc.History(ctx, conv.ID, f.bob, 0, nil, 0)
	for _, m := range hist {
		if !m.IsRead || m.ReadAt == nil {
			t.Fatalf("message %d not flagged read", m.ID)
		}
	}
}

func TestSendValidation(t *testing.T) {
	f := newFixture(t, Options{MaxMessageLen: 10})
	ctx := context.Background()

	conv, _ := f.svc.GetOrCreate(ctx, f.alice, f.bob)

	if _, err := f.svc.Send(ctx, conv.ID, f.alice, "   "); !errors.Is(err, ErrEmptyText) {
		t.Fatalf("expected ErrEmptyText, got %v", err)
	}
	if _, err := f.svc.Send(ctx, conv.ID, f.alice, strings.Repeat("x", 11)); !errors.Is(err, ErrTextTooLong) {
		t.Fatalf("expected ErrTextTooLong, got %v", err)
	}
	if _, err := f.svc.Send(ctx, conv.ID+999, f.alice, "hello"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := f.svc.Send(ctx, conv.ID, f.carol, "hello"); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden for outsider, got %v", err)
	}

	// nothing slipped through
	total, _ := f.svc.UnreadTotal(ctx, f.bob)
	if total != 0 {
		t.Fatalf("failed sends must not bump unread, got %d", total)
	}
}

func TestGetOrCreateRules(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()

	if _, err := f.svc.GetOrCreate(ctx, f.alice, f.alice); !errors.Is(err, ErrSelfConversation) {
		t.Fatalf("expected ErrSelfConversation, got %v", err)
	}
	if _, err := f.svc.GetOrCreate(ctx, f.alice, 9999); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown peer, got %v", err)
	}

	c1, err := f.svc.GetOrCreate(ctx, f.alice, f.bob)
	if err != nil {
		t.Fatalf("getOrCreate: %v", err)
	}
	c2, err := f.svc.GetOrCreate(ctx, f.bob, f.alice)
	if err != nil {
		t.Fatalf("getOrCreate reversed: %v", err)
	}
	if c1.ID != c2.ID {
		t.Fatalf("pair must map to one conversation, got %d and %d", c1.ID, c2.ID)
	}
}

func TestConcurrentSendsNoLostUnread(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()

	conv, _ := f.svc.GetOrCreate(ctx, f.alice, f.bob)

	const k = 10
	var wg sync.WaitGroup
	for i := 0; i < k; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := f.svc.Send(ctx, conv.ID, f.alice, "ping"); err != nil {
				t.Errorf("concurrent send: %v", err)
			}
		}()
	}
	wg.Wait()

	total, err := f.svc.UnreadTotal(ctx, f.bob)
	if err != nil {
		t.Fatalf("unreadTotal: %v", err)
	}
	if total != k {
		t.Fatalf("expected unread %d after %d concurrent sends, got %d", k, k, total)
	}
}

func TestDeleteTombstone(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()

	conv, _ := f.svc.GetOrCreate(ctx, f.alice, f.bob)
	first, _ := f.svc.Send(ctx, conv.ID, f.alice, "hello")
	second, _ := f.svc.Send(ctx, conv.ID, f.alice, "world")

	// non-sender cannot delete
	if err := f.svc.Delete(ctx, first.ID, f.bob); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden for non-sender, got %v", err)
	}
	if msg, _ := f.svc.History(ctx, conv.ID, f.bob, 0, nil, 0); msg[0].Text != "hello" {
		t.Fatalf("rejected delete must change nothing, got %q", msg[0].Text)
	}

	if err := f.svc.Delete(ctx, first.ID, f.alice); err != nil {
		t.Fatalf("delete: %v", err)
	}

	hist, err := f.svc.History(ctx, conv.ID, f.bob, 0, nil, 0)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(hist) != 2 {
		t.Fatalf("tombstone must keep ordering/count, got %d messages", len(hist))
	}
	if hist[0].Text != models.DeletedPlaceholder || !hist[0].IsDeleted {
		t.Fatalf("expected tombstone, got %q deleted=%v", hist[0].Text, hist[0].IsDeleted)
	}
	if hist[1].ID != second.ID || hist[1].Text != "world" {
		t.Fatalf("second message must be untouched")
	}

	// snapshot stays as last written; deletion is not propagated backward
	summaries, err := f.svc.ListConversations(ctx, f.bob)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if summaries[0].LastMessage == nil || summaries[0].LastMessage.Text != "world" {
		t.Fatalf("snapshot must still show last accepted message")
	}
}

func TestListConversationsSummaries(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()

	withBob, _ := f.svc.GetOrCreate(ctx, f.alice, f.bob)
	withCarol, _ := f.svc.GetOrCreate(ctx, f.alice, f.carol)

	if _, err := f.svc.Send(ctx, withBob.ID, f.bob, "from bob"); err != nil {
		t.Fatalf("send: %v", err)
	}

	summaries, err := f.svc.ListConversations(ctx, f.alice)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(summaries) != 2 {
		t.Fatalf("expected 2 summaries, got %d", len(summaries))
	}

	// messaged conversation first; empty one sorts last
	if summaries[0].ID != withBob.ID || summaries[1].ID != withCarol.ID {
		t.Fatalf("wrong order: %d,%d", summaries[0].ID, summaries[1].ID)
	}
	if summaries[0].Peer.Username != "bob" {
		t.Fatalf("expected peer profile for bob, got %q", summaries[0].Peer.Username)
	}
	if summaries[0].Unread != 1 {
		t.Fatalf("expected unread 1, got %d", summaries[0].Unread)
	}
	if summaries[0].LastMessage == nil || summaries[0].LastMessage.Text != "from bob" {
		t.Fatalf("missing last-message snapshot")
	}
	if summaries[1].LastMessage != nil {
		t.Fatalf("empty conversation must have no snapshot")
	}
}

func TestEventsPublished(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()

	conv, _ := f.svc.GetOrCreate(ctx, f.alice, f.bob)
	msg, err := f.svc.Send(ctx, conv.ID, f.alice, "hi")
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if err := f.svc.Delete(ctx, msg.ID, f.alice); err != nil {
		t.Fatalf("delete: %v", err)
	}

	events := f.notifier.all()
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[0].Type != realtime.EventMessageCreated || events[1].Type != realtime.EventMessageDeleted {
		t.Fatalf("wrong event types: %s, %s", events[0].Type, events[1].Type)
	}
	created, ok := events[0].Message.(MessageView)
	if !ok {
		t.Fatalf("created event must carry a message view")
	}
	if created.ID != msg.ID || created.Text != "hi" {
		t.Fatalf("created event payload wrong: %+v", created)
	}
	deleted := events[1].Message.(MessageView)
	if !deleted.IsDeleted || deleted.Text != models.DeletedPlaceholder {
		t.Fatalf("deleted event must carry the tombstoned view")
	}
}

func TestNilNotifierIsSafe(t *testing.T) {
	f := newFixture(t, Options{})
	f.svc.notifier = nil
	ctx := context.Background()

	conv, _ := f.svc.GetOrCreate(ctx, f.alice, f.bob)
	if _, err := f.svc.Send(ctx, conv.ID, f.alice, "hi"); err != nil {
		t.Fatalf("send without notifier: %v", err)
	}
}
