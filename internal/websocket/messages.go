package websocket

import "time"

// MessageType names an event pushed to the admin live feed.
type MessageType string

const (
	MessageTypeLeadCreated   MessageType = "lead.created"
	MessageTypePostChanged   MessageType = "post.changed"
	MessageTypeBackupCreated MessageType = "backup.created"
)

// Post change actions carried by post.changed messages.
const (
	PostCreated = "created"
	PostUpdated = "updated"
	PostDeleted = "deleted"
)

type Message struct {
	Type      MessageType `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   any         `json:"payload"`
}

// PostChange is the payload of a post.changed message.
type PostChange struct {
	Action string `json:"action"`
	ID     string `json:"id"`
	Slug   string `json:"slug,omitempty"`
	Status string `json:"status,omitempty"`
}

func newMessage(t MessageType, payload any) Message {
	return Message{
		Type:      t,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
}

func NewLeadCreatedMessage(lead any) Message {
	return newMessage(MessageTypeLeadCreated, lead)
}

func NewPostChangedMessage(change PostChange) Message {
	return newMessage(MessageTypePostChanged, change)
}

func NewBackupCreatedMessage(record any) Message {
	return newMessage(MessageTypeBackupCreated, record)
}
