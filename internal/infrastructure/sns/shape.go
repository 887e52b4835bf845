package sns

import (
	"encoding/json"
	"fmt"

	"github.com/go-chat-push/internal/domain"
)

// Android presentation used for grouped chat notifications.
const (
	androidChannelID = "chat_messages"
	androidColor     = "#4CAF50"
)

type gcmNotification struct {
	Title     string `json:"title"`
	Body      string `json:"body"`
	Sound     string `json:"sound,omitempty"`
	Tag       string `json:"tag,omitempty"`
	Color     string `json:"color,omitempty"`
	ChannelID string `json:"android_channel_id,omitempty"`
}

type gcmMessage struct {
	Notification gcmNotification   `json:"notification"`
	Data         map[string]string `json:"data,omitempty"`
	Priority     string            `json:"priority,omitempty"`
}

type apsAlert struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

type aps struct {
	Alert    apsAlert `json:"alert"`
	Sound    string   `json:"sound,omitempty"`
	Badge    *int     `json:"badge,omitempty"`
	ThreadID string   `json:"thread-id,omitempty"`
}

// envelope renders p as an SNS MessageStructure=json document: one JSON
// string per platform plus the default text body.
func envelope(p *domain.Payload) (string, error) {
	gcm := gcmMessage{
		Notification: gcmNotification{Title: p.Title, Body: p.Body, Sound: p.Sound},
		Data:         p.Data,
	}
	if p.Shaping.GroupTag != "" {
		gcm.Notification.Tag = p.Shaping.GroupTag
		gcm.Notification.Color = androidColor
		gcm.Notification.ChannelID = androidChannelID
		gcm.Priority = "high"
	}

	alertBody := p.Body
	if p.Shaping.AlertBody != "" {
		alertBody = p.Shaping.AlertBody
	}
	apns := map[string]any{
		"aps": aps{
			Alert:    apsAlert{Title: p.Title, Body: alertBody},
			Sound:    p.Sound,
			Badge:    p.Shaping.Badge,
			ThreadID: p.Shaping.GroupTag,
		},
	}
	for k, v := range p.Data {
		apns[k] = v
	}

	gcmJSON, err := json.Marshal(gcm)
	if err != nil {
		return "", fmt.Errorf("marshal gcm payload: %w", err)
	}
	apnsJSON, err := json.Marshal(apns)
	if err != nil {
		return "", fmt.Errorf("marshal apns payload: %w", err)
	}

	doc, err := json.Marshal(map[string]string{
		"default":      p.Body,
		"GCM":          string(gcmJSON),
		"APNS":         string(apnsJSON),
		"APNS_SANDBOX": string(apnsJSON),
	})
	if err != nil {
		return "", fmt.Errorf("marshal envelope: %w", err)
	}
	return string(doc), nil
}
