package services

import (
	"context"
	"time"

	"github.com/arogyalabs/bitebot/internal/cache"
	"github.com/arogyalabs/bitebot/internal/utils"
)

// MaxHistoryTurns bounds the per-browser-session conversation history.
const MaxHistoryTurns = 10

// Exchange is one (user, bot) turn, serialized as a two-element array to
// match the chat API's history shape.
type Exchange [2]string

func (e Exchange) User() string { return e[0] }
func (e Exchange) Bot() string  { return e[1] }

// HistoryStore keeps the short-lived conversation context used for
// question contextualization, keyed by the caller's client session id.
type HistoryStore interface {
	Get(ctx context.Context, clientSessionID string) ([]Exchange, error)
	// Append adds one exchange and returns the updated, bounded history.
	Append(ctx context.Context, clientSessionID, userText, botText string) ([]Exchange, error)
	Clear(ctx context.Context, clientSessionID string) error
}

type historyStore struct {
	cache cache.Cache
	ttl   time.Duration
}

func NewHistoryStore(c cache.Cache, ttl time.Duration) HistoryStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &historyStore{cache: c, ttl: ttl}
}

func historyKey(clientSessionID string) string {
	return "chat:history:" + clientSessionID
}

func (s *historyStore) Get(ctx context.Context, clientSessionID string) ([]Exchange, error) {
	const op = "HistoryStore.Get"

	if clientSessionID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "client session id is required", nil)
	}

	var hist []Exchange
	hit, err := s.cache.GetJSON(ctx, historyKey(clientSessionID), &hist)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to read history", err)
	}
	if !hit {
		return []Exchange{}, nil
	}
	return hist, nil
}

func (s *historyStore) Append(ctx context.Context, clientSessionID, userText, botText string) ([]Exchange, error) {
	const op = "HistoryStore.Append"

	hist, err := s.Get(ctx, clientSessionID)
	if err != nil {
		return nil, err
	}

	hist = append(hist, Exchange{userText, botText})
	if len(hist) > MaxHistoryTurns {
		hist = hist[len(hist)-MaxHistoryTurns:]
	}

	if err := s.cache.SetJSON(ctx, historyKey(clientSessionID), hist, s.ttl); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to write history", err)
	}
	return hist, nil
}

func (s *historyStore) Clear(ctx context.Context, clientSessionID string) error {
	const op = "HistoryStore.Clear"

	if err := s.cache.Del(ctx, historyKey(clientSessionID)); err != nil {
		return utils.E(utils.CodeInternal, op, "failed to clear history", err)
	}
	return nil
}
