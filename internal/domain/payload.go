package domain

// Event type tags carried in Payload.Data["type"].
const (
	PayloadTypeChatMessage = "chat_message"
	PayloadTypeWelcome     = "welcome"
	PayloadTypeBroadcast   = "broadcast"
)

// SoundDefault is the platform default notification sound. An empty Sound means silent.
const SoundDefault = "default"

// Payload is a transport-agnostic notification. It is built per dispatch and never persisted.
type Payload struct {
	Title string            `json:"title"`
	Body  string            `json:"body"`
	Sound string            `json:"sound,omitempty"`
	Data  map[string]string `json:"data,omitempty"`
	// Shaping carries hints the transport adapter may project onto platform payloads.
	Shaping Shaping `json:"-"`
}

// Shaping holds platform-specific presentation hints. Adapters ignore what they cannot express.
type Shaping struct {
	// GroupTag collapses notifications from the same conversation.
	GroupTag string
	// AlertBody is the untruncated body for platforms that render long alerts.
	AlertBody string
	Badge     *int
}
