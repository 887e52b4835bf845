package http

import (
	"github.com/go-chat-push/internal/application/dispatch"
	"github.com/go-chat-push/internal/transport/http/middleware"
)

// Deps holds the collaborators the router wires into handlers.
type Deps struct {
	Dispatch dispatch.Service
	// Verifier authenticates callers. When nil, trigger routes are open and
	// every broadcast caller is anonymous.
	Verifier middleware.TokenVerifier
	// BroadcastRate and BroadcastBurst bound per-IP broadcast calls.
	BroadcastRate  float64
	BroadcastBurst int
}
