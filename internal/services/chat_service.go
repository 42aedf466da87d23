package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/arogyalabs/bitebot/internal/language"
	"github.com/arogyalabs/bitebot/internal/providers/llm"
	"github.com/arogyalabs/bitebot/internal/providers/translate"
	"github.com/arogyalabs/bitebot/internal/utils"
)

// Fixed response strings. These are matched verbatim downstream (the
// interaction recorder keys off them), so change them in both places or
// not at all.
const (
	RefusalResponse = "Sorry, but I specialize in answering questions related to animal bites. " +
		"I may not be able to help with your query, but if you have any questions about animal bites, " +
		"their effects, treatment, or prevention, I'd be happy to assist!"

	ForwardedResponse = "I am unable to answer your question at the moment. " +
		"The Doctor has been notified, please check back in a few days."

	internalErrorResponse    = "An internal error occurred while processing your request. Please try again."
	internalGreetingResponse = "An internal error occurred while generating a greeting. Please try again."
)

const casualSystemPrompt = "you are a friendly chatbot that specializes in medical questions related to animal bites"

type ChatRequest struct {
	Message string
	// Language the user writes and reads in. Defaults to English.
	Language string
	// ClientSessionID keys the short-lived contextualization history.
	ClientSessionID string
	// PersistSessionID, when set, is the browser-persisted session the
	// exchange is appended to.
	PersistSessionID string
}

type ChatResponse struct {
	Reply     string `json:"response"`
	Language  string `json:"language"`
	Forwarded bool   `json:"forwarded"`
}

type ChatService interface {
	Respond(ctx context.Context, req ChatRequest) (*ChatResponse, error)
}

type chatService struct {
	llm        llm.Provider
	generator  llm.Generator
	translator translate.Provider
	knowledge  KnowledgeService
	escalation EscalationService
	history    HistoryStore
	sessions   SessionService
	log        *logrus.Logger
}

func NewChatService(
	provider llm.Provider,
	generator llm.Generator,
	translator translate.Provider,
	knowledge KnowledgeService,
	escalation EscalationService,
	history HistoryStore,
	sessions SessionService,
	log *logrus.Logger,
) ChatService {
	return &chatService{
		llm:        provider,
		generator:  generator,
		translator: translator,
		knowledge:  knowledge,
		escalation: escalation,
		history:    history,
		sessions:   sessions,
		log:        log,
	}
}

// Respond runs one message through the full pipeline: translate in,
// classify, answer or escalate, translate out, persist.
func (s *chatService) Respond(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	const op = "ChatService.Respond"

	message := strings.TrimSpace(req.Message)
	if message == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "message is required", nil)
	}

	lang := req.Language
	if !language.IsSupported(lang) {
		lang = language.Default
	}

	english := s.translator.Translate(ctx, message, language.Default, lang)
	standalone := s.contextualize(ctx, english, req.ClientSessionID)

	intent, err := s.llm.ClassifyIntent(ctx, standalone)
	if err != nil {
		// Fail open: an unreachable classifier must not silence the
		// bot. Treat the message as subject-specific.
		s.log.WithError(err).Warn("chat: intent classification failed, assuming subject-specific")
		intent = llm.CategorySubject
	}

	var reply string
	forwarded := false
	if intent == llm.CategoryCasual {
		reply = s.respondCasual(ctx, english)
	} else {
		reply, forwarded = s.respondSubject(ctx, english, standalone)
	}

	localized := s.translator.Translate(ctx, reply, lang, language.Default)

	// History, audit, and session writes are best-effort; the user
	// already has an answer. The history keeps the user's own wording
	// and the reply they actually saw.
	if req.ClientSessionID != "" {
		if _, err := s.history.Append(ctx, req.ClientSessionID, message, localized); err != nil {
			s.log.WithError(err).Error("chat: failed to append history")
		}
	}
	if err := s.escalation.RecordInteraction(ctx, english, reply, req.ClientSessionID); err != nil {
		s.log.WithError(err).Error("chat: failed to record interaction")
	}
	if req.PersistSessionID != "" {
		if err := s.sessions.AppendExchange(ctx, req.PersistSessionID, message, localized, lang); err != nil {
			s.log.WithError(err).Error("chat: failed to persist exchange")
		}
	}

	return &ChatResponse{Reply: localized, Language: lang, Forwarded: forwarded}, nil
}

func (s *chatService) respondCasual(ctx context.Context, english string) string {
	reply, err := s.llm.Complete(ctx, casualSystemPrompt, english)
	if err != nil {
		s.log.WithError(err).Error("chat: greeting generation failed")
		return internalGreetingResponse
	}
	return reply
}

// respondSubject handles the medical path. The second return reports
// whether the question was forwarded to the doctor; escalation happens at
// most once per message. The relevance gate runs only after retrieval
// comes up empty, so anything the store can answer is answered even when
// the classifier would call it off-topic.
func (s *chatService) respondSubject(ctx context.Context, english, standalone string) (string, bool) {
	// A doctor's own prior answer beats anything we could generate.
	if answers, err := s.escalation.DoctorAnswers(ctx); err != nil {
		s.log.WithError(err).Error("chat: failed to load doctor answers")
	} else if len(answers) > 0 {
		questions := make([]string, 0, len(answers))
		for q := range answers {
			questions = append(questions, q)
		}
		match, ok, err := s.knowledge.BestMatch(ctx, standalone, questions)
		if err != nil {
			s.log.WithError(err).Error("chat: doctor-answer match failed")
		} else if ok {
			s.log.WithField("question", match).Info("chat: answered from doctor inbox")
			return answers[match], false
		}
	}

	docs, err := s.knowledge.SearchContext(ctx, standalone)
	if err != nil {
		s.log.WithError(err).Error("chat: retrieval failed")
		return internalErrorResponse, false
	}
	if docs == "" {
		relevance, err := s.llm.ClassifyRelevance(ctx, standalone)
		if err != nil {
			s.log.WithError(err).Warn("chat: relevance classification failed, assuming related")
			relevance = llm.CategoryRelated
		}
		if relevance == llm.CategoryUnrelated {
			return RefusalResponse, false
		}
		if err := s.escalation.Enqueue(ctx, english); err != nil {
			s.log.WithError(err).Error("chat: failed to forward question")
		}
		return ForwardedResponse, true
	}

	if s.generator == nil {
		s.log.Error("chat: answer generator is not configured")
		return internalErrorResponse, false
	}

	prompt := fmt.Sprintf(
		"You are a medical assistant that answers questions about animal bites, their effects, treatment, and prevention.\n"+
			"Answer the question using only the context below. Be concise and factual. "+
			"If the context does not contain the answer, say you cannot answer.\n\n"+
			"Context:\n%s\n\nQuestion: %s",
		docs, standalone,
	)
	reply, err := s.generator.Generate(ctx, prompt)
	if err != nil {
		s.log.WithError(err).Error("chat: answer generation failed")
		return internalErrorResponse, false
	}
	return reply, false
}

// contextualize rewrites a follow-up question into a standalone one using
// the recent conversation history. It returns the original question when
// there is no history or the rewrite fails.
func (s *chatService) contextualize(ctx context.Context, english, clientSessionID string) string {
	if clientSessionID == "" {
		return english
	}
	turns, err := s.history.Get(ctx, clientSessionID)
	if err != nil {
		s.log.WithError(err).Error("chat: failed to load history")
		return english
	}
	if len(turns) == 0 {
		return english
	}

	var b strings.Builder
	for _, t := range turns {
		b.WriteString("User: ")
		b.WriteString(t.User())
		b.WriteString("\nBot: ")
		b.WriteString(t.Bot())
		b.WriteString("\n")
	}

	prompt := fmt.Sprintf(
		"Given the conversation below, rewrite the final user question so it is fully self-contained. "+
			"If the final user message is a greeting, thanks, or other short pleasantry, return it as is. "+
			"Return only the rewritten question, nothing else.\n\n%s\nUser: %s",
		b.String(), english,
	)
	standalone, err := s.llm.Rephrase(ctx, prompt)
	if err != nil || strings.TrimSpace(standalone) == "" {
		if err != nil {
			s.log.WithError(err).Warn("chat: question rewrite failed, using original")
		}
		return english
	}
	return strings.TrimSpace(standalone)
}
