package realtime

// Event types published on a conversation channel.
const (
	EventMessageCreated = "message-created"
	EventMessageDeleted = "message-deleted"
)

// Event is one message-lifecycle notification. Message carries the fully
// populated message view for created events and the tombstoned view for
// deleted events.
type Event struct {
	Type           string      `json:"type"`
	ConversationID uint        `json:"conversation_id"`
	Message        interface{} `json:"message,omitempty"`
}
