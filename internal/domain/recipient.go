package domain

import "time"

// NotificationSettings holds a user's push preferences. A nil flag means the
// user never set it and the default (true) applies.
type NotificationSettings struct {
	Enabled *bool `json:"enabled,omitempty" dynamodbav:"enabled,omitempty"`
	Sound   *bool `json:"sound,omitempty" dynamodbav:"sound,omitempty"`
}

// Recipient is a user's notification profile as stored in the users table.
type Recipient struct {
	UserID    string               `json:"user_id" dynamodbav:"user_id"`
	Email     string               `json:"email,omitempty" dynamodbav:"email,omitempty"`
	Token     *string              `json:"fcm_token,omitempty" dynamodbav:"fcm_token,omitempty"`
	Settings  NotificationSettings `json:"notification_settings" dynamodbav:"notification_settings"`
	CreatedAt time.Time            `json:"created,omitempty" dynamodbav:"created_at,omitempty"`
	UpdatedAt time.Time            `json:"updated,omitempty" dynamodbav:"updated_at,omitempty"`
}

// HasToken reports whether the recipient has a usable delivery token.
func (r *Recipient) HasToken() bool {
	return r != nil && r.Token != nil && *r.Token != ""
}

// DeliveryToken returns the token, or "" when absent.
func (r *Recipient) DeliveryToken() string {
	if !r.HasToken() {
		return ""
	}
	return *r.Token
}

// NotificationsEnabled is false only when the user explicitly disabled notifications.
func (r *Recipient) NotificationsEnabled() bool {
	return r.Settings.Enabled == nil || *r.Settings.Enabled
}

// SoundEnabled is false only when the user explicitly disabled sound.
func (r *Recipient) SoundEnabled() bool {
	return r.Settings.Sound == nil || *r.Settings.Sound
}
