package domain

// FailureKind classifies a per-target delivery failure.
type FailureKind string

const (
	FailureNone          FailureKind = "none"
	FailureInvalidTarget FailureKind = "invalid_target"
	FailureTransient     FailureKind = "transient"
	FailureUnknown       FailureKind = "unknown"
)

// Outcome is the delivery result for one target (token or topic).
type Outcome struct {
	Target  string      `json:"target"`
	Success bool        `json:"success"`
	Failure FailureKind `json:"failure"`
	// MessageID is the provider's message id on success.
	MessageID string `json:"message_id,omitempty"`
	Detail    string `json:"detail,omitempty"`
}

// Delivered builds a successful outcome.
func Delivered(target, messageID string) Outcome {
	return Outcome{Target: target, Success: true, Failure: FailureNone, MessageID: messageID}
}

// Failed builds a failed outcome.
func Failed(target string, kind FailureKind, detail string) Outcome {
	return Outcome{Target: target, Failure: kind, Detail: detail}
}
