package services

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/arogyalabs/bitebot/internal/models"
	mongorepo "github.com/arogyalabs/bitebot/internal/repositories/mongo"
	"github.com/arogyalabs/bitebot/internal/utils"
)

// Answer substrings marking an exchange that was forwarded to the doctor.
var forwardedIndicators = []string{
	"doctor has been notified",
	"doctor will be notified",
	"check back in a few days",
	"unable to answer your question",
}

// Answer prefixes that are fallback strings, never persisted as answered
// interactions.
var fallbackResponses = []string{
	"Sorry, but I specialize in answering questions related to animal bites",
	"An internal error occurred",
}

type Stats struct {
	ResolvedToday    int `json:"resolved_today"`
	TotalQueries     int `json:"total_queries"`
	PendingQuestions int `json:"pending_questions"`
}

// EscalationOptions toggles the pre-enqueue filters. Upstream behavior for
// these is unresolved, so both default to off.
type EscalationOptions struct {
	FilterCasual     bool
	FilterDuplicates bool
}

type EscalationService interface {
	// Enqueue appends a pending question to the doctor inbox.
	Enqueue(ctx context.Context, question string) error
	// RecordInteraction writes the audit record for one exchange. Casual
	// exchanges and fallback replies are skipped.
	RecordInteraction(ctx context.Context, question, answer, sessionID string) error
	// DoctorAnswers returns the curated question → answer map.
	DoctorAnswers(ctx context.Context) (map[string]string, error)

	PendingQuestions(ctx context.Context, limit int) ([]models.PendingQuestion, error)
	SubmitAnswer(ctx context.Context, question, answer string) error
	AddQA(ctx context.Context, question, answer string) error
	UserQueries(ctx context.Context, limit int64) ([]models.Interaction, error)
	SolvedQuestions(ctx context.Context, limit int64) ([]models.SolvedQuestion, error)
	UpdateSolved(ctx context.Context, id, question, answer string) error
	DeleteSolved(ctx context.Context, id string) error
	DailyStats(ctx context.Context) (Stats, error)
}

type escalationService struct {
	inbox        mongorepo.InboxRepository
	solved       mongorepo.SolvedRepository
	interactions mongorepo.InteractionRepository
	knowledge    KnowledgeService
	opts         EscalationOptions
	log          *logrus.Logger
}

func NewEscalationService(
	inbox mongorepo.InboxRepository,
	solved mongorepo.SolvedRepository,
	interactions mongorepo.InteractionRepository,
	knowledge KnowledgeService,
	opts EscalationOptions,
	log *logrus.Logger,
) EscalationService {
	return &escalationService{
		inbox:        inbox,
		solved:       solved,
		interactions: interactions,
		knowledge:    knowledge,
		opts:         opts,
		log:          log,
	}
}

func (s *escalationService) Enqueue(ctx context.Context, question string) error {
	const op = "EscalationService.Enqueue"

	if strings.TrimSpace(question) == "" {
		return utils.E(utils.CodeInvalidArgument, op, "question is required", nil)
	}

	if s.opts.FilterCasual && IsCasualExchange(question, "") {
		s.log.WithField("question", question).Info("escalation: skipping casual question")
		return nil
	}
	if s.opts.FilterDuplicates {
		inbox, err := s.inbox.Get(ctx)
		if err != nil {
			return utils.E(utils.CodeInternal, op, "failed to read doctor inbox", err)
		}
		existing := make([]string, 0, len(inbox.Questions))
		for _, q := range inbox.Questions {
			existing = append(existing, q.Question)
		}
		if IsDuplicateQuestion(question, existing) {
			s.log.WithField("question", question).Info("escalation: skipping duplicate question")
			return nil
		}
	}

	entry := models.InboxQuestion{
		Question:  question,
		Timestamp: time.Now().UTC(),
		Status:    models.QuestionPending,
	}
	if err := s.inbox.PushQuestion(ctx, entry); err != nil {
		return utils.E(utils.CodeInternal, op, "failed to enqueue question", err)
	}
	s.log.WithField("question", question).Info("escalation: question forwarded to doctor")
	return nil
}

func (s *escalationService) RecordInteraction(ctx context.Context, question, answer, sessionID string) error {
	const op = "EscalationService.RecordInteraction"

	if IsCasualExchange(question, answer) {
		return nil
	}
	for _, f := range fallbackResponses {
		if strings.Contains(answer, f) {
			return nil
		}
	}

	status := models.InteractionAnswered
	lower := strings.ToLower(answer)
	for _, ind := range forwardedIndicators {
		if strings.Contains(lower, ind) {
			status = models.InteractionForwarded
			break
		}
	}

	if sessionID == "" {
		sessionID = "anonymous"
	}
	it := &models.Interaction{
		Question:  question,
		Answer:    answer,
		SessionID: sessionID,
		Status:    status,
		Timestamp: time.Now().UTC(),
	}
	if err := s.interactions.Insert(ctx, it); err != nil {
		return utils.E(utils.CodeInternal, op, "failed to record interaction", err)
	}
	return nil
}

func (s *escalationService) DoctorAnswers(ctx context.Context) (map[string]string, error) {
	const op = "EscalationService.DoctorAnswers"

	inbox, err := s.inbox.Get(ctx)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to read doctor inbox", err)
	}
	return inbox.Answers, nil
}

func (s *escalationService) PendingQuestions(ctx context.Context, limit int) ([]models.PendingQuestion, error) {
	const op = "EscalationService.PendingQuestions"

	if limit <= 0 {
		limit = 50
	}

	inbox, err := s.inbox.Get(ctx)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to read doctor inbox", err)
	}

	out := []models.PendingQuestion{}
	for i, q := range inbox.Questions {
		if q.Status != models.QuestionPending {
			continue
		}
		out = append(out, models.PendingQuestion{
			ID:        "qn_" + strconv.Itoa(i),
			Question:  q.Question,
			Timestamp: q.Timestamp,
		})
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}

// SubmitAnswer is a best-effort multi-store operation: the inbox update is
// authoritative; the solved-question, knowledge-store, and audit mirrors
// each continue on error and log independently.
func (s *escalationService) SubmitAnswer(ctx context.Context, question, answer string) error {
	const op = "EscalationService.SubmitAnswer"

	if strings.TrimSpace(question) == "" || strings.TrimSpace(answer) == "" {
		return utils.E(utils.CodeInvalidArgument, op, "question and answer are required", nil)
	}

	inbox, err := s.inbox.Get(ctx)
	if err != nil {
		return utils.E(utils.CodeInternal, op, "failed to read doctor inbox", err)
	}

	now := time.Now().UTC()
	inbox.Answers[question] = answer
	for i := range inbox.Questions {
		if inbox.Questions[i].Question == question {
			inbox.Questions[i].Status = models.QuestionAnswered
			inbox.Questions[i].AnsweredAt = &now
		}
	}
	if err := s.inbox.Save(ctx, inbox); err != nil {
		return utils.E(utils.CodeInternal, op, "failed to update doctor inbox", err)
	}

	s.mirrorAnswer(ctx, question, answer, models.SourceDashboardSubmit, "dashboard")
	return nil
}

func (s *escalationService) AddQA(ctx context.Context, question, answer string) error {
	const op = "EscalationService.AddQA"

	if strings.TrimSpace(question) == "" || strings.TrimSpace(answer) == "" {
		return utils.E(utils.CodeInvalidArgument, op, "question and answer are required", nil)
	}

	inbox, err := s.inbox.Get(ctx)
	if err != nil {
		return utils.E(utils.CodeInternal, op, "failed to read doctor inbox", err)
	}
	inbox.Answers[question] = answer
	if err := s.inbox.Save(ctx, inbox); err != nil {
		return utils.E(utils.CodeInternal, op, "failed to update doctor inbox", err)
	}

	s.mirrorAnswer(ctx, question, answer, models.SourceDashboardManual, "dashboard_manual")
	return nil
}

// mirrorAnswer fans an accepted answer out to the solved table, the
// knowledge store, and the audit log.
func (s *escalationService) mirrorAnswer(ctx context.Context, question, answer, source, sessionID string) {
	if err := s.solved.Insert(ctx, &models.SolvedQuestion{
		Question: question,
		Answer:   answer,
		Source:   source,
		Status:   models.SolvedActive,
	}); err != nil {
		s.log.WithError(err).Error("escalation: failed to store solved question")
	}

	if err := s.knowledge.StoreQA(ctx, question, answer); err != nil {
		s.log.WithError(err).Error("escalation: failed to store q/a in knowledge store")
	}

	if err := s.interactions.Insert(ctx, &models.Interaction{
		Question:  question,
		Answer:    answer,
		SessionID: sessionID,
		Status:    models.InteractionAnsweredByDoctor,
		Timestamp: time.Now().UTC(),
	}); err != nil {
		s.log.WithError(err).Error("escalation: failed to record doctor interaction")
	}
}

func (s *escalationService) UserQueries(ctx context.Context, limit int64) ([]models.Interaction, error) {
	const op = "EscalationService.UserQueries"

	rows, err := s.interactions.ListRecent(ctx, limit)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to list interactions", err)
	}

	out := []models.Interaction{}
	for _, it := range rows {
		if !IsCasualExchange(it.Question, it.Answer) {
			out = append(out, it)
		}
	}
	return out, nil
}

func (s *escalationService) SolvedQuestions(ctx context.Context, limit int64) ([]models.SolvedQuestion, error) {
	const op = "EscalationService.SolvedQuestions"

	rows, err := s.solved.ListActive(ctx, limit)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to list solved questions", err)
	}
	return rows, nil
}

func (s *escalationService) UpdateSolved(ctx context.Context, id, question, answer string) error {
	const op = "EscalationService.UpdateSolved"

	old, err := s.solved.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return utils.E(utils.CodeNotFound, op, "question not found", err)
		}
		return utils.E(utils.CodeInternal, op, "failed to load solved question", err)
	}

	if err := s.solved.Update(ctx, id, question, answer, time.Now().UTC()); err != nil {
		return utils.E(utils.CodeInternal, op, "failed to update solved question", err)
	}

	// Mirror into the inbox answer map and the knowledge store, each
	// best-effort.
	if inbox, err := s.inbox.Get(ctx); err != nil {
		s.log.WithError(err).Error("escalation: failed to read inbox for update")
	} else {
		if old.Question != question {
			delete(inbox.Answers, old.Question)
		}
		inbox.Answers[question] = answer
		if err := s.inbox.Save(ctx, inbox); err != nil {
			s.log.WithError(err).Error("escalation: failed to update inbox answers")
		}
	}

	if err := s.knowledge.UpdateQA(ctx, old.Question, question, answer); err != nil {
		s.log.WithError(err).Error("escalation: failed to update knowledge store")
	}
	return nil
}

func (s *escalationService) DeleteSolved(ctx context.Context, id string) error {
	const op = "EscalationService.DeleteSolved"

	old, err := s.solved.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return utils.E(utils.CodeNotFound, op, "question not found", err)
		}
		return utils.E(utils.CodeInternal, op, "failed to load solved question", err)
	}

	if err := s.solved.SoftDelete(ctx, id, time.Now().UTC()); err != nil {
		return utils.E(utils.CodeInternal, op, "failed to delete solved question", err)
	}

	if inbox, err := s.inbox.Get(ctx); err != nil {
		s.log.WithError(err).Error("escalation: failed to read inbox for delete")
	} else if _, ok := inbox.Answers[old.Question]; ok {
		delete(inbox.Answers, old.Question)
		if err := s.inbox.Save(ctx, inbox); err != nil {
			s.log.WithError(err).Error("escalation: failed to update inbox answers")
		}
	}

	if err := s.knowledge.DeleteQA(ctx, old.Question); err != nil {
		s.log.WithError(err).Error("escalation: failed to delete from knowledge store")
	}
	return nil
}

func (s *escalationService) DailyStats(ctx context.Context) (Stats, error) {
	const op = "EscalationService.DailyStats"

	now := time.Now().UTC()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	var stats Stats

	resolved, err := s.solved.CountActiveSince(ctx, midnight)
	if err != nil {
		s.log.WithError(err).Error("escalation: failed to count resolved questions")
	} else {
		stats.ResolvedToday = int(resolved)
	}

	queries, err := s.UserQueries(ctx, 500)
	if err != nil {
		return stats, err
	}
	stats.TotalQueries = len(queries)

	pending, err := s.PendingQuestions(ctx, 0)
	if err != nil {
		return stats, err
	}
	stats.PendingQuestions = len(pending)

	return stats, nil
}
