package chat

import "errors"

// Sentinel errors mapped to transport status codes at the controller edge.
// Validation and authorization failures are detected before any mutation.
var (
	ErrNotFound         = errors.New("chat: not found")
	ErrForbidden        = errors.New("chat: caller is not allowed")
	ErrEmptyText        = errors.New("chat: message text is empty")
	ErrTextTooLong      = errors.New("chat: message text exceeds length bound")
	ErrSelfConversation = errors.New("chat: conversation requires two distinct users")
	ErrBadCursor        = errors.New("chat: malformed pagination cursor")
)
