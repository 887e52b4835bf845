// Package payload builds platform-neutral notification payloads. It performs no I/O.
package payload

import (
	"strconv"

	"github.com/go-chat-push/internal/domain"
)

const (
	// MaxBodyLength is the longest body shown before truncation, in runes.
	MaxBodyLength = 100
	ellipsis      = "..."

	fallbackTitle = "Someone"
	fallbackBody  = "New message"

	WelcomeTitle = "👋 Welcome to Chat App!"
	WelcomeBody  = "Start connecting with friends and family."
)

// Data map keys.
const (
	KeySenderID    = "senderId"
	KeySenderEmail = "senderEmail"
	KeyChatRoomID  = "chatRoomId"
	KeyMessageID   = "messageId"
	KeyType        = "type"
	KeyTimestamp   = "timestamp"
)

// ForMessage builds the chat-message notification for a recipient.
func ForMessage(ev domain.MessageEvent, recipient *domain.Recipient) domain.Payload {
	title := ev.Message.SenderEmail
	if title == "" {
		title = fallbackTitle
	}
	text := ev.Message.Text
	if text == "" {
		text = fallbackBody
	}
	badge := 1
	return domain.Payload{
		Title: title,
		Body:  Truncate(text, MaxBodyLength),
		Sound: sound(recipient),
		Data: map[string]string{
			KeySenderID:    ev.Message.SenderID,
			KeySenderEmail: title,
			KeyChatRoomID:  ev.ConversationID,
			KeyMessageID:   ev.MessageID,
			KeyType:        domain.PayloadTypeChatMessage,
			KeyTimestamp:   strconv.FormatInt(ev.Message.Timestamp, 10),
		},
		Shaping: domain.Shaping{
			GroupTag:  ev.ConversationID,
			AlertBody: text,
			Badge:     &badge,
		},
	}
}

// Welcome builds the fixed greeting sent to newly registered users.
func Welcome() domain.Payload {
	return domain.Payload{
		Title: WelcomeTitle,
		Body:  WelcomeBody,
		Sound: domain.SoundDefault,
		Data:  map[string]string{KeyType: domain.PayloadTypeWelcome},
	}
}

// Broadcast builds a caller-authored broadcast notification.
func Broadcast(title, body string) domain.Payload {
	return domain.Payload{
		Title: title,
		Body:  body,
		Data:  map[string]string{KeyType: domain.PayloadTypeBroadcast},
	}
}

// Truncate shortens s to at most limit runes, replacing the tail with "..." when it is cut.
func Truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	keep := limit - len(ellipsis)
	if keep < 0 {
		keep = 0
	}
	return string(runes[:keep]) + ellipsis
}

func sound(r *domain.Recipient) string {
	if r != nil && !r.SoundEnabled() {
		return ""
	}
	return domain.SoundDefault
}
