package payload

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/go-chat-push/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func baseEvent() domain.MessageEvent {
	return domain.MessageEvent{
		ConversationID: "room-1",
		MessageID:      "msg-1",
		Message: domain.Message{
			SenderID:    "U0",
			SenderEmail: "a@x.com",
			ReceiverID:  "U1",
			Text:        "hi",
			Timestamp:   1700000000123,
		},
	}
}

func TestForMessage_HappyPath(t *testing.T) {
	p := ForMessage(baseEvent(), &domain.Recipient{UserID: "U1"})

	assert.Equal(t, "a@x.com", p.Title)
	assert.Equal(t, "hi", p.Body)
	assert.Equal(t, domain.SoundDefault, p.Sound)
	assert.Equal(t, map[string]string{
		"senderId":    "U0",
		"senderEmail": "a@x.com",
		"chatRoomId":  "room-1",
		"messageId":   "msg-1",
		"type":        "chat_message",
		"timestamp":   "1700000000123",
	}, p.Data)
	assert.Equal(t, "room-1", p.Shaping.GroupTag)
	require.NotNil(t, p.Shaping.Badge)
	assert.Equal(t, 1, *p.Shaping.Badge)
}

func TestForMessage_Fallbacks(t *testing.T) {
	ev := baseEvent()
	ev.Message.SenderEmail = ""
	ev.Message.Text = ""

	p := ForMessage(ev, &domain.Recipient{UserID: "U1"})

	assert.Equal(t, "Someone", p.Title)
	assert.Equal(t, "New message", p.Body)
	assert.Equal(t, "Someone", p.Data[KeySenderEmail])
}

func TestForMessage_SoundDisabled(t *testing.T) {
	r := &domain.Recipient{UserID: "U1", Settings: domain.NotificationSettings{Sound: ptr(false)}}
	assert.Equal(t, "", ForMessage(baseEvent(), r).Sound)
}

func TestForMessage_SoundExplicitlyEnabled(t *testing.T) {
	r := &domain.Recipient{UserID: "U1", Settings: domain.NotificationSettings{Sound: ptr(true)}}
	assert.Equal(t, domain.SoundDefault, ForMessage(baseEvent(), r).Sound)
}

func TestForMessage_LongBodyTruncatedButAlertKeepsFullText(t *testing.T) {
	ev := baseEvent()
	ev.Message.Text = strings.Repeat("a", 150)

	p := ForMessage(ev, &domain.Recipient{UserID: "U1"})

	assert.Len(t, p.Body, 100)
	assert.True(t, strings.HasSuffix(p.Body, "..."))
	assert.Equal(t, strings.Repeat("a", 97), strings.TrimSuffix(p.Body, "..."))
	assert.Equal(t, ev.Message.Text, p.Shaping.AlertBody)
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"short", "hello", "hello"},
		{"exactly max", strings.Repeat("b", 100), strings.Repeat("b", 100)},
		{"one over", strings.Repeat("c", 101), strings.Repeat("c", 97) + "..."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Truncate(tt.in, MaxBodyLength))
		})
	}
}

func TestTruncate_CountsRunesNotBytes(t *testing.T) {
	in := strings.Repeat("é", 120)

	out := Truncate(in, MaxBodyLength)

	assert.True(t, utf8.ValidString(out))
	assert.Equal(t, 100, utf8.RuneCountInString(out))
}

func TestWelcome(t *testing.T) {
	p := Welcome()
	assert.Equal(t, WelcomeTitle, p.Title)
	assert.Equal(t, WelcomeBody, p.Body)
	assert.Equal(t, domain.SoundDefault, p.Sound)
	assert.Equal(t, "welcome", p.Data[KeyType])
}

func TestBroadcast(t *testing.T) {
	p := Broadcast("Maintenance", "Back at 5pm")
	assert.Equal(t, "Maintenance", p.Title)
	assert.Equal(t, "Back at 5pm", p.Body)
	assert.Equal(t, "broadcast", p.Data[KeyType])
}
