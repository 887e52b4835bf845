package domain

// DispatchState is the terminal state of one dispatch.
type DispatchState string

const (
	StateSkipped         DispatchState = "skipped"
	StateAcknowledged    DispatchState = "acknowledged"
	StatePartiallyFailed DispatchState = "partially_failed"
	StateErrored         DispatchState = "errored"
)

// SkipReason explains why a dispatch was skipped.
type SkipReason string

const (
	SkipNone      SkipReason = ""
	SkipDeleted   SkipReason = "message_deleted"
	SkipNotFound  SkipReason = "recipient_not_found"
	SkipNoToken   SkipReason = "no_token"
	SkipDisabled  SkipReason = "notifications_disabled"
	SkipNoTargets SkipReason = "no_targets"
)

// DispatchResult captures whether a send was attempted and how it ended.
type DispatchResult struct {
	DispatchID   string        `json:"dispatch_id"`
	State        DispatchState `json:"state"`
	Attempted    bool          `json:"attempted"`
	SkipReason   SkipReason    `json:"skip_reason,omitempty"`
	Outcome      *Outcome      `json:"outcome,omitempty"`
	TokenCleared bool          `json:"token_cleared,omitempty"`
	Error        string        `json:"error,omitempty"`
}

// BroadcastRequest is the caller-supplied body of a broadcast.
type BroadcastRequest struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	Topic string `json:"topic,omitempty"`
}

// BroadcastResult aggregates the outcomes of a broadcast.
type BroadcastResult struct {
	DispatchID    string    `json:"dispatch_id"`
	Topic         string    `json:"topic,omitempty"`
	SuccessCount  int       `json:"success_count"`
	FailureCount  int       `json:"failure_count"`
	Outcomes      []Outcome `json:"outcomes"`
	TokensCleared int       `json:"tokens_cleared"`
}

// Add records one target outcome.
func (r *BroadcastResult) Add(o Outcome) {
	r.Outcomes = append(r.Outcomes, o)
	if o.Success {
		r.SuccessCount++
	} else {
		r.FailureCount++
	}
}
