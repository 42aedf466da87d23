package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/arogyalabs/bitebot/internal/models"
	mongorepo "github.com/arogyalabs/bitebot/internal/repositories/mongo"
	"github.com/arogyalabs/bitebot/internal/utils"
)

// SessionSummary is the list view of a persisted session.
type SessionSummary struct {
	SessionID    string    `json:"session_id"`
	Preview      string    `json:"preview"`
	Language     string    `json:"language"`
	CreatedAt    time.Time `json:"created_at"`
	LastActivity time.Time `json:"last_activity"`
	MessageCount int64     `json:"message_count"`
}

type SessionService interface {
	// ActiveSession returns the user's most recent active session,
	// creating one when none exists.
	ActiveSession(ctx context.Context, userID, language string) (*models.ChatSession, error)
	// StartSession always creates a fresh session.
	StartSession(ctx context.Context, userID, language string) (*models.ChatSession, error)
	List(ctx context.Context, userID string, limit int64) ([]SessionSummary, error)
	Messages(ctx context.Context, sessionID, userID string, limit int64) ([]models.ChatMessage, error)
	// AppendExchange persists one user/bot exchange and touches the
	// session metadata.
	AppendExchange(ctx context.Context, sessionID, userMessage, botResponse, language string) error
	Delete(ctx context.Context, sessionID, userID string) error
	ClearAll(ctx context.Context, userID string) (int64, error)
}

type sessionService struct {
	sessions mongorepo.SessionRepository
	messages mongorepo.MessageRepository
	log      *logrus.Logger
}

func NewSessionService(sessions mongorepo.SessionRepository, messages mongorepo.MessageRepository, log *logrus.Logger) SessionService {
	return &sessionService{sessions: sessions, messages: messages, log: log}
}

func (s *sessionService) ActiveSession(ctx context.Context, userID, language string) (*models.ChatSession, error) {
	const op = "SessionService.ActiveSession"

	sess, err := s.sessions.MostRecentActive(ctx, userID)
	if err == nil {
		return sess, nil
	}
	if !errors.Is(err, utils.ErrNotFound) {
		return nil, utils.E(utils.CodeInternal, op, "failed to look up active session", err)
	}
	return s.StartSession(ctx, userID, language)
}

func (s *sessionService) StartSession(ctx context.Context, userID, language string) (*models.ChatSession, error) {
	const op = "SessionService.StartSession"

	now := time.Now().UTC()
	sess := &models.ChatSession{
		SessionID:    uuid.NewString(),
		UserID:       userID,
		Language:     language,
		IsActive:     true,
		CreatedAt:    now,
		LastActivity: now,
	}
	if err := s.sessions.Create(ctx, sess); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to create session", err)
	}
	s.log.WithFields(logrus.Fields{"session_id": sess.SessionID, "user_id": userID}).Info("session created")
	return sess, nil
}

func (s *sessionService) List(ctx context.Context, userID string, limit int64) ([]SessionSummary, error) {
	const op = "SessionService.List"

	rows, err := s.sessions.ListByUser(ctx, userID, limit)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to list sessions", err)
	}

	out := make([]SessionSummary, 0, len(rows))
	for _, sess := range rows {
		preview := sess.Preview
		if preview == "" {
			// Sessions created before the first exchange carry no
			// preview yet; fall back to the first stored message.
			if first, err := s.messages.First(ctx, sess.SessionID); err == nil && first != nil {
				preview = models.Preview(first.UserMessage)
			}
		}
		if preview == "" {
			preview = "New conversation"
		}
		out = append(out, SessionSummary{
			SessionID:    sess.SessionID,
			Preview:      preview,
			Language:     sess.Language,
			CreatedAt:    sess.CreatedAt,
			LastActivity: sess.LastActivity,
			MessageCount: sess.MessageCount,
		})
	}
	return out, nil
}

func (s *sessionService) Messages(ctx context.Context, sessionID, userID string, limit int64) ([]models.ChatMessage, error) {
	const op = "SessionService.Messages"

	sess, err := s.sessions.GetBySessionID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return nil, utils.E(utils.CodeNotFound, op, "session not found", err)
		}
		return nil, utils.E(utils.CodeInternal, op, "failed to load session", err)
	}
	if sess.UserID != userID {
		return nil, utils.E(utils.CodeForbidden, op, "session belongs to another user", nil)
	}

	msgs, err := s.messages.ListBySession(ctx, sessionID, limit)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to list messages", err)
	}
	return msgs, nil
}

func (s *sessionService) AppendExchange(ctx context.Context, sessionID, userMessage, botResponse, language string) error {
	const op = "SessionService.AppendExchange"

	now := time.Now().UTC()
	msg := &models.ChatMessage{
		SessionID:   sessionID,
		UserMessage: userMessage,
		BotResponse: botResponse,
		Language:    language,
		Timestamp:   now,
	}
	if err := s.messages.Insert(ctx, msg); err != nil {
		return utils.E(utils.CodeInternal, op, "failed to store message", err)
	}

	if err := s.sessions.Touch(ctx, sessionID, models.Preview(userMessage), now); err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return utils.E(utils.CodeNotFound, op, "session not found", err)
		}
		return utils.E(utils.CodeInternal, op, "failed to update session", err)
	}
	return nil
}

func (s *sessionService) Delete(ctx context.Context, sessionID, userID string) error {
	const op = "SessionService.Delete"

	if err := s.sessions.Deactivate(ctx, sessionID, userID); err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return utils.E(utils.CodeNotFound, op, "session not found", err)
		}
		return utils.E(utils.CodeInternal, op, "failed to delete session", err)
	}
	return nil
}

func (s *sessionService) ClearAll(ctx context.Context, userID string) (int64, error) {
	const op = "SessionService.ClearAll"

	n, err := s.sessions.DeactivateAll(ctx, userID)
	if err != nil {
		return 0, utils.E(utils.CodeInternal, op, "failed to clear sessions", err)
	}
	return n, nil
}
