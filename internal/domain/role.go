package domain

// Caller roles carried in JWT claims.
const (
	RoleUser    = "user"
	RoleAdmin   = "admin"
	RoleTrigger = "trigger" // the change-feed / event bus service identity
)
