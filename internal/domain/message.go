package domain

import "time"

// Message is a chat message document inside a conversation.
type Message struct {
	ConversationID string `json:"conversation_id" dynamodbav:"conversation_id"`
	MessageID      string `json:"message_id" dynamodbav:"message_id"`
	SenderID       string `json:"sender_id" dynamodbav:"sender_id"`
	SenderEmail    string `json:"sender_email,omitempty" dynamodbav:"sender_email,omitempty"`
	ReceiverID     string `json:"receiver_id" dynamodbav:"receiver_id"`
	Text           string `json:"message,omitempty" dynamodbav:"message,omitempty"`
	IsDeleted      bool   `json:"is_deleted" dynamodbav:"is_deleted"`
	// Timestamp is the creation time in epoch milliseconds.
	Timestamp int64 `json:"timestamp" dynamodbav:"timestamp"`
}

// CreatedAt converts the stored epoch-millisecond timestamp.
func (m *Message) CreatedAt() time.Time {
	return time.UnixMilli(m.Timestamp).UTC()
}

// MessageEvent is one observed message creation, as delivered by the change feed.
type MessageEvent struct {
	ConversationID string  `json:"conversation_id" validate:"required"`
	MessageID      string  `json:"message_id" validate:"required"`
	Message        Message `json:"message"`
}

// Conversation is a chat room that owns a set of messages.
type Conversation struct {
	ConversationID string    `json:"id" dynamodbav:"conversation_id"`
	CreatedAt      time.Time `json:"created,omitempty" dynamodbav:"created_at,omitempty"`
}

// MessageKey addresses a single message for deletion.
type MessageKey struct {
	ConversationID string
	MessageID      string
}
