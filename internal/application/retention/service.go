package retention

import (
	"context"
	"iter"
	"log/slog"
	"time"

	"github.com/go-chat-push/internal/domain"
)

// DefaultWindow is the age past which messages are removed.
const DefaultWindow = 30 * 24 * time.Hour

// Store is the message store the sweeper enumerates and prunes.
type Store interface {
	ListConversations(ctx context.Context) iter.Seq2[[]domain.Conversation, error]
	// ListExpired returns keys of messages in the conversation created strictly before cutoff.
	ListExpired(ctx context.Context, conversationID string, cutoff time.Time) ([]domain.MessageKey, error)
	// DeleteBatch removes the keys of one conversation and reports how many
	// were committed, including when it fails part way through.
	DeleteBatch(ctx context.Context, conversationID string, keys []domain.MessageKey) (int, error)
}

// SweepResult summarises one sweep.
type SweepResult struct {
	Containers       int           `json:"containers"`
	Deleted          int           `json:"deleted"`
	FailedContainers int           `json:"failed_containers"`
	Duration         time.Duration `json:"duration"`
}

type Service interface {
	Sweep(ctx context.Context, window time.Duration, now time.Time) (SweepResult, error)
	// RunScheduled sweeps with the configured window at the current time.
	RunScheduled(ctx context.Context)
}

type service struct {
	store  Store
	window time.Duration
	now    func() time.Time
}

// NewService builds a sweeper. A non-positive window falls back to DefaultWindow.
func NewService(store Store, window time.Duration) Service {
	if window <= 0 {
		window = DefaultWindow
	}
	return &service{store: store, window: window, now: time.Now}
}

// Sweep deletes every message older than now-window. A failure inside one
// conversation is logged and counted; the sweep moves on to the next one.
// The returned error is set only when the conversation enumeration itself fails.
func (s *service) Sweep(ctx context.Context, window time.Duration, now time.Time) (SweepResult, error) {
	start := time.Now()
	cutoff := now.Add(-window)
	var res SweepResult

	for page, err := range s.store.ListConversations(ctx) {
		if err != nil {
			res.Duration = time.Since(start)
			slog.ErrorContext(ctx, "conversation enumeration failed", "err", err)
			return res, err
		}
		for _, conv := range page {
			if ctx.Err() != nil {
				res.Duration = time.Since(start)
				return res, ctx.Err()
			}
			res.Containers++
			n, err := s.sweepOne(ctx, conv.ConversationID, cutoff)
			res.Deleted += n
			if err != nil {
				res.FailedContainers++
				slog.ErrorContext(ctx, "conversation sweep failed", "chat_room_id", conv.ConversationID, "deleted", n, "err", err)
			}
		}
	}

	res.Duration = time.Since(start)
	return res, nil
}

func (s *service) sweepOne(ctx context.Context, conversationID string, cutoff time.Time) (int, error) {
	keys, err := s.store.ListExpired(ctx, conversationID, cutoff)
	if err != nil {
		return 0, err
	}
	if len(keys) == 0 {
		return 0, nil
	}
	return s.store.DeleteBatch(ctx, conversationID, keys)
}

func (s *service) RunScheduled(ctx context.Context) {
	res, err := s.Sweep(ctx, s.window, s.now())
	recordSweep(res, err)
	if err != nil {
		slog.ErrorContext(ctx, "error cleaning up messages", "err", err, "deleted", res.Deleted)
		return
	}
	slog.InfoContext(ctx, "deleted old messages",
		"deleted", res.Deleted,
		"containers", res.Containers,
		"failed_containers", res.FailedContainers,
		"duration", res.Duration)
}
