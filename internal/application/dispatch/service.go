package dispatch

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"

	"github.com/go-chat-push/internal/application/payload"
	"github.com/go-chat-push/internal/domain"
	"github.com/go-chat-push/internal/pkg/id"
)

// DefaultBatchSize is the largest token set handed to one multicast call.
const DefaultBatchSize = 500

// Dispatch kinds used in logs and metrics.
const (
	kindMessage   = "message"
	kindWelcome   = "welcome"
	kindBroadcast = "broadcast"
)

// Service is the dispatch engine. Trigger-driven methods never return errors:
// every path resolves to a logged DispatchResult. Only DispatchBroadcast
// surfaces typed errors to its caller.
type Service interface {
	DispatchForMessage(ctx context.Context, ev domain.MessageEvent) domain.DispatchResult
	// DispatchWelcome greets a new user. Failures never mutate the directory.
	DispatchWelcome(ctx context.Context, userID string, recipient *domain.Recipient) domain.DispatchResult
	DispatchBroadcast(ctx context.Context, req domain.BroadcastRequest, callerIsAuthenticated bool) (*domain.BroadcastResult, error)
	// ObserveUserUpdate reports whether the update removed the user's token.
	ObserveUserUpdate(ctx context.Context, userID string, ev domain.UserUpdatedEvent) bool
}

// Directory is the recipient store the engine reads from and reconciles.
type Directory interface {
	Get(ctx context.Context, userID string) (*domain.Recipient, error)
	// ClearToken must be idempotent: clearing an absent token is not an error.
	ClearToken(ctx context.Context, userID string) error
	// ListWithToken lazily yields the population with a token, one page at a time.
	ListWithToken(ctx context.Context) iter.Seq2[[]domain.Recipient, error]
}

// Transport delivers payloads. Per-target failures are reported in outcomes;
// the error return is for failures not attributable to a single target.
type Transport interface {
	SendOne(ctx context.Context, token string, p *domain.Payload) (domain.Outcome, error)
	SendMulticast(ctx context.Context, tokens []string, p *domain.Payload) ([]domain.Outcome, error)
	SendToTopic(ctx context.Context, topic string, p *domain.Payload) (domain.Outcome, error)
}

// ServiceDeps holds the collaborators injected into the engine.
type ServiceDeps struct {
	Directory Directory
	Transport Transport
	BatchSize int
}

type service struct {
	directory Directory
	transport Transport
	batchSize int
}

func NewService(deps ServiceDeps) Service {
	batch := deps.BatchSize
	if batch <= 0 {
		batch = DefaultBatchSize
	}
	return &service{directory: deps.Directory, transport: deps.Transport, batchSize: batch}
}

func (s *service) DispatchForMessage(ctx context.Context, ev domain.MessageEvent) domain.DispatchResult {
	res := domain.DispatchResult{DispatchID: id.New()}
	log := slog.With("dispatch_id", res.DispatchID, "chat_room_id", ev.ConversationID, "message_id", ev.MessageID)

	if ev.Message.IsDeleted {
		return s.skip(ctx, log, kindMessage, res, domain.SkipDeleted)
	}
	if ev.Message.ReceiverID == "" {
		return s.skip(ctx, log, kindMessage, res, domain.SkipNotFound)
	}

	rcpt, err := s.directory.Get(ctx, ev.Message.ReceiverID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return s.skip(ctx, log, kindMessage, res, domain.SkipNotFound)
		}
		log.ErrorContext(ctx, "recipient lookup failed", "receiver_id", ev.Message.ReceiverID, "err", err)
		res.State = domain.StateErrored
		res.Error = err.Error()
		recordDispatch(kindMessage, res.State)
		return res
	}
	if !rcpt.HasToken() {
		return s.skip(ctx, log, kindMessage, res, domain.SkipNoToken)
	}
	if !rcpt.NotificationsEnabled() {
		return s.skip(ctx, log, kindMessage, res, domain.SkipDisabled)
	}

	p := payload.ForMessage(ev, rcpt)
	return s.sendOne(ctx, log, kindMessage, res, rcpt, &p, true)
}

func (s *service) DispatchWelcome(ctx context.Context, userID string, recipient *domain.Recipient) domain.DispatchResult {
	res := domain.DispatchResult{DispatchID: id.New()}
	log := slog.With("dispatch_id", res.DispatchID, "user_id", userID)

	if !recipient.HasToken() {
		return s.skip(ctx, log, kindWelcome, res, domain.SkipNoToken)
	}
	if !recipient.NotificationsEnabled() {
		return s.skip(ctx, log, kindWelcome, res, domain.SkipDisabled)
	}

	p := payload.Welcome()
	res = s.sendOne(ctx, log, kindWelcome, res, recipient, &p, false)
	if res.State == domain.StateAcknowledged {
		log.InfoContext(ctx, "welcome notification sent", "email", recipient.Email)
	}
	return res
}

func (s *service) DispatchBroadcast(ctx context.Context, req domain.BroadcastRequest, callerIsAuthenticated bool) (*domain.BroadcastResult, error) {
	if !callerIsAuthenticated {
		return nil, fmt.Errorf("user must be authenticated to send broadcast: %w", domain.ErrUnauthenticated)
	}
	if req.Title == "" || req.Body == "" {
		return nil, fmt.Errorf("title and body are required: %w", domain.ErrInvalidArgument)
	}

	res := &domain.BroadcastResult{DispatchID: id.New(), Topic: req.Topic, Outcomes: []domain.Outcome{}}
	log := slog.With("dispatch_id", res.DispatchID)
	p := payload.Broadcast(req.Title, req.Body)

	if req.Topic != "" {
		out, err := s.transport.SendToTopic(ctx, req.Topic, &p)
		if err != nil {
			recordDispatch(kindBroadcast, domain.StateErrored)
			log.ErrorContext(ctx, "topic broadcast failed", "topic", req.Topic, "err", err)
			return nil, fmt.Errorf("%w: send to topic: %w", domain.ErrInternal, err)
		}
		res.Add(out)
		recordOutcome(kindBroadcast, out)
		recordDispatch(kindBroadcast, broadcastState(res))
		log.InfoContext(ctx, "broadcast sent to topic", "topic", req.Topic, "success", out.Success)
		return res, nil
	}

	fan := &fanout{svc: s, res: res, payload: &p, log: log, owners: make(map[string]string, s.batchSize), seen: make(map[string]struct{})}
	for page, err := range s.directory.ListWithToken(ctx) {
		if err != nil {
			recordDispatch(kindBroadcast, domain.StateErrored)
			log.ErrorContext(ctx, "recipient enumeration failed", "err", err)
			return nil, fmt.Errorf("%w: enumerate recipients: %w", domain.ErrInternal, err)
		}
		for i := range page {
			if err := fan.add(ctx, &page[i]); err != nil {
				return nil, err
			}
		}
	}
	if err := fan.flush(ctx); err != nil {
		return nil, err
	}

	if len(res.Outcomes) == 0 {
		recordDispatch(kindBroadcast, domain.StateSkipped)
		log.InfoContext(ctx, "broadcast had no recipients")
		return res, nil
	}
	recordDispatch(kindBroadcast, broadcastState(res))
	log.InfoContext(ctx, "broadcast sent",
		"recipients", len(res.Outcomes),
		"success", res.SuccessCount,
		"failure", res.FailureCount,
		"tokens_cleared", res.TokensCleared)
	return res, nil
}

func (s *service) ObserveUserUpdate(ctx context.Context, userID string, ev domain.UserUpdatedEvent) bool {
	if ev.Before.HasToken() && !ev.After.HasToken() {
		slog.InfoContext(ctx, "FCM token removed for user", "user_id", userID)
		return true
	}
	return false
}

func (s *service) skip(ctx context.Context, log *slog.Logger, kind string, res domain.DispatchResult, reason domain.SkipReason) domain.DispatchResult {
	res.State = domain.StateSkipped
	res.SkipReason = reason
	recordDispatch(kind, res.State)
	log.DebugContext(ctx, "dispatch skipped", "kind", kind, "reason", string(reason))
	return res
}

// sendOne delivers p to the recipient's token and, when cleanup is set,
// clears the token if the transport reports it as an invalid target.
func (s *service) sendOne(ctx context.Context, log *slog.Logger, kind string, res domain.DispatchResult, rcpt *domain.Recipient, p *domain.Payload, cleanup bool) domain.DispatchResult {
	token := rcpt.DeliveryToken()
	log.DebugContext(ctx, "sending notification", "kind", kind, "token", redact(token))

	res.Attempted = true
	out, err := s.transport.SendOne(ctx, token, p)
	if err != nil {
		res.State = domain.StateErrored
		res.Error = err.Error()
		recordDispatch(kind, res.State)
		log.ErrorContext(ctx, "transport error", "kind", kind, "err", err)
		return res
	}

	res.Outcome = &out
	recordOutcome(kind, out)
	if out.Success {
		res.State = domain.StateAcknowledged
		recordDispatch(kind, res.State)
		log.InfoContext(ctx, "notification sent", "kind", kind, "user_id", rcpt.UserID)
		return res
	}

	res.State = domain.StatePartiallyFailed
	recordDispatch(kind, res.State)
	log.WarnContext(ctx, "notification failed",
		"kind", kind,
		"user_id", rcpt.UserID,
		"failure", string(out.Failure),
		"detail", out.Detail)
	if cleanup && out.Failure == domain.FailureInvalidTarget {
		res.TokenCleared = s.clearToken(ctx, log, rcpt.UserID)
	}
	return res
}

// clearToken is best-effort: a failure is logged and never escalated.
func (s *service) clearToken(ctx context.Context, log *slog.Logger, userID string) bool {
	if err := s.directory.ClearToken(ctx, userID); err != nil {
		log.WarnContext(ctx, "could not remove invalid token", "user_id", userID, "err", err)
		return false
	}
	recordTokenCleared()
	log.InfoContext(ctx, "removed invalid token", "user_id", userID)
	return true
}

// fanout accumulates broadcast tokens from the chunked enumeration and
// flushes them to the transport in fixed-size batches.
type fanout struct {
	svc     *service
	res     *domain.BroadcastResult
	payload *domain.Payload
	log     *slog.Logger
	batch   []string
	owners  map[string]string   // token -> user id, current batch only
	seen    map[string]struct{} // every token queued during this broadcast
}

func (f *fanout) add(ctx context.Context, r *domain.Recipient) error {
	if !r.HasToken() || !r.NotificationsEnabled() {
		return nil
	}
	tok := r.DeliveryToken()
	if _, dup := f.seen[tok]; dup {
		return nil
	}
	f.seen[tok] = struct{}{}
	f.owners[tok] = r.UserID
	f.batch = append(f.batch, tok)
	if len(f.batch) >= f.svc.batchSize {
		return f.flush(ctx)
	}
	return nil
}

func (f *fanout) flush(ctx context.Context) error {
	if len(f.batch) == 0 {
		return nil
	}
	recordBroadcastRecipients(len(f.batch))
	outcomes, err := f.svc.transport.SendMulticast(ctx, f.batch, f.payload)
	if err != nil {
		recordDispatch(kindBroadcast, domain.StateErrored)
		f.log.ErrorContext(ctx, "multicast failed", "tokens", len(f.batch), "err", err)
		return fmt.Errorf("%w: multicast: %w", domain.ErrInternal, err)
	}
	for _, out := range outcomes {
		f.res.Add(out)
		recordOutcome(kindBroadcast, out)
		if out.Failure != domain.FailureInvalidTarget {
			continue
		}
		if owner, ok := f.owners[out.Target]; ok && f.svc.clearToken(ctx, f.log, owner) {
			f.res.TokensCleared++
		}
	}
	f.batch = make([]string, 0, f.svc.batchSize)
	clear(f.owners)
	return nil
}

func broadcastState(res *domain.BroadcastResult) domain.DispatchState {
	if res.FailureCount > 0 {
		return domain.StatePartiallyFailed
	}
	return domain.StateAcknowledged
}

func redact(token string) string {
	if len(token) <= 20 {
		return token
	}
	return token[:20] + "..."
}
