package domain

// UserCreatedEvent is emitted when a users document is created.
type UserCreatedEvent struct {
	UserID string    `json:"user_id" validate:"required"`
	User   Recipient `json:"user"`
}

// UserUpdatedEvent carries the before and after images of a users document.
type UserUpdatedEvent struct {
	Before Recipient `json:"before"`
	After  Recipient `json:"after"`
}
