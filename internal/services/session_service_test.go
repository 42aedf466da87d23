package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/arogyalabs/bitebot/internal/models"
	"github.com/arogyalabs/bitebot/internal/utils"
)

type memSessionRepo struct {
	rows []models.ChatSession
}

func (r *memSessionRepo) Create(ctx context.Context, s *models.ChatSession) error {
	r.rows = append(r.rows, *s)
	return nil
}

func (r *memSessionRepo) GetBySessionID(ctx context.Context, sessionID string) (*models.ChatSession, error) {
	for i := range r.rows {
		if r.rows[i].SessionID == sessionID {
			cp := r.rows[i]
			return &cp, nil
		}
	}
	return nil, utils.ErrNotFound
}

func (r *memSessionRepo) MostRecentActive(ctx context.Context, userID string) (*models.ChatSession, error) {
	var best *models.ChatSession
	for i := range r.rows {
		s := &r.rows[i]
		if s.UserID != userID || !s.IsActive {
			continue
		}
		if best == nil || s.LastActivity.After(best.LastActivity) {
			best = s
		}
	}
	if best == nil {
		return nil, utils.ErrNotFound
	}
	cp := *best
	return &cp, nil
}

func (r *memSessionRepo) ListByUser(ctx context.Context, userID string, limit int64) ([]models.ChatSession, error) {
	var out []models.ChatSession
	for _, s := range r.rows {
		if s.UserID == userID && s.IsActive {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *memSessionRepo) Touch(ctx context.Context, sessionID, preview string, at time.Time) error {
	for i := range r.rows {
		if r.rows[i].SessionID == sessionID {
			r.rows[i].LastActivity = at
			r.rows[i].Preview = preview
			r.rows[i].MessageCount++
			return nil
		}
	}
	return utils.ErrNotFound
}

func (r *memSessionRepo) Deactivate(ctx context.Context, sessionID, userID string) error {
	for i := range r.rows {
		if r.rows[i].SessionID == sessionID && r.rows[i].UserID == userID {
			r.rows[i].IsActive = false
			return nil
		}
	}
	return utils.ErrNotFound
}

func (r *memSessionRepo) DeactivateAll(ctx context.Context, userID string) (int64, error) {
	var n int64
	for i := range r.rows {
		if r.rows[i].UserID == userID && r.rows[i].IsActive {
			r.rows[i].IsActive = false
			n++
		}
	}
	return n, nil
}

type memMessageRepo struct {
	rows []models.ChatMessage
}

func (r *memMessageRepo) Insert(ctx context.Context, m *models.ChatMessage) error {
	r.rows = append(r.rows, *m)
	return nil
}

func (r *memMessageRepo) ListBySession(ctx context.Context, sessionID string, limit int64) ([]models.ChatMessage, error) {
	var out []models.ChatMessage
	for _, m := range r.rows {
		if m.SessionID == sessionID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *memMessageRepo) First(ctx context.Context, sessionID string) (*models.ChatMessage, error) {
	for i := range r.rows {
		if r.rows[i].SessionID == sessionID {
			cp := r.rows[i]
			return &cp, nil
		}
	}
	return nil, utils.ErrNotFound
}

func TestActiveSessionCreatesWhenNoneExists(t *testing.T) {
	sessions := &memSessionRepo{}
	svc := NewSessionService(sessions, &memMessageRepo{}, testLogger())

	sess, err := svc.ActiveSession(context.Background(), "u1", "ta")
	if err != nil {
		t.Fatal(err)
	}
	if sess.SessionID == "" {
		t.Error("session id not assigned")
	}
	if !sess.IsActive || sess.Language != "ta" {
		t.Errorf("session = %+v, want active ta session", sess)
	}

	again, err := svc.ActiveSession(context.Background(), "u1", "ta")
	if err != nil {
		t.Fatal(err)
	}
	if again.SessionID != sess.SessionID {
		t.Error("second call created a new session instead of reusing the active one")
	}
}

func TestAppendExchangeUpdatesPreview(t *testing.T) {
	sessions := &memSessionRepo{}
	messages := &memMessageRepo{}
	svc := NewSessionService(sessions, messages, testLogger())

	sess, err := svc.StartSession(context.Background(), "u1", "en")
	if err != nil {
		t.Fatal(err)
	}

	long := strings.Repeat("dog bite wound care ", 5) // over the preview cut
	if err := svc.AppendExchange(context.Background(), sess.SessionID, long, "Wash it.", "en"); err != nil {
		t.Fatal(err)
	}

	list, err := svc.List(context.Background(), "u1", 20)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 {
		t.Fatalf("sessions = %d, want 1", len(list))
	}
	if got := list[0].Preview; len([]rune(got)) > models.PreviewMaxLen || !strings.HasSuffix(got, "...") {
		t.Errorf("preview = %q, want truncation with ellipsis", got)
	}
	if list[0].MessageCount != 1 {
		t.Errorf("message count = %d, want 1", list[0].MessageCount)
	}
}

func TestListFillsEmptyPreview(t *testing.T) {
	sessions := &memSessionRepo{}
	svc := NewSessionService(sessions, &memMessageRepo{}, testLogger())

	if _, err := svc.StartSession(context.Background(), "u1", "en"); err != nil {
		t.Fatal(err)
	}

	list, err := svc.List(context.Background(), "u1", 20)
	if err != nil {
		t.Fatal(err)
	}
	if list[0].Preview != "New conversation" {
		t.Errorf("preview = %q, want placeholder for empty session", list[0].Preview)
	}
}

func TestMessagesRejectsForeignSession(t *testing.T) {
	sessions := &memSessionRepo{}
	svc := NewSessionService(sessions, &memMessageRepo{}, testLogger())

	sess, err := svc.StartSession(context.Background(), "u1", "en")
	if err != nil {
		t.Fatal(err)
	}

	_, err = svc.Messages(context.Background(), sess.SessionID, "u2", 10)
	if !utils.IsCode(err, utils.CodeForbidden) {
		t.Errorf("expected forbidden error, got %v", err)
	}
}

func TestClearAllDeactivatesEverySession(t *testing.T) {
	sessions := &memSessionRepo{}
	svc := NewSessionService(sessions, &memMessageRepo{}, testLogger())

	for range 3 {
		if _, err := svc.StartSession(context.Background(), "u1", "en"); err != nil {
			t.Fatal(err)
		}
	}

	n, err := svc.ClearAll(context.Background(), "u1")
	if err != nil {
		t.Fatal(err)
	}
	if n != 3 {
		t.Errorf("cleared = %d, want 3", n)
	}

	list, err := svc.List(context.Background(), "u1", 20)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 0 {
		t.Errorf("sessions = %d, want 0 after clear", len(list))
	}
}
