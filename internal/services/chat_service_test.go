package services

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/arogyalabs/bitebot/internal/models"
	"github.com/arogyalabs/bitebot/internal/providers/llm"
	"github.com/arogyalabs/bitebot/internal/utils"
)

func testLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

type stubLLM struct {
	intent       string
	relevance    string
	completion   string
	rephrased    string
	intentErr     error
	completeErr   error
	completeSeen  int
	relevanceSeen int
}

func (s *stubLLM) Complete(ctx context.Context, system, user string) (string, error) {
	s.completeSeen++
	return s.completion, s.completeErr
}

func (s *stubLLM) Rephrase(ctx context.Context, prompt string) (string, error) {
	return s.rephrased, nil
}

func (s *stubLLM) ClassifyIntent(ctx context.Context, input string) (string, error) {
	return s.intent, s.intentErr
}

func (s *stubLLM) ClassifyRelevance(ctx context.Context, input string) (string, error) {
	s.relevanceSeen++
	return s.relevance, nil
}

type stubGenerator struct {
	reply string
	err   error
	calls int
}

func (g *stubGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	g.calls++
	return g.reply, g.err
}

func (g *stubGenerator) Close() error { return nil }

// identityTranslator passes text through unchanged, like the real provider
// does for same-language pairs.
type identityTranslator struct{}

func (identityTranslator) Translate(ctx context.Context, text, target, source string) string {
	return text
}

func (identityTranslator) SupportedLanguages(ctx context.Context, allowed []string) (map[string]string, error) {
	return nil, errors.New("unavailable")
}

func (identityTranslator) Close() error { return nil }

// taggingTranslator marks cross-language translations so tests can tell
// which rendition of a string a component stored.
type taggingTranslator struct{}

func (taggingTranslator) Translate(ctx context.Context, text, target, source string) string {
	if target == source {
		return text
	}
	return text + " (" + target + ")"
}

func (taggingTranslator) SupportedLanguages(ctx context.Context, allowed []string) (map[string]string, error) {
	return nil, errors.New("unavailable")
}

func (taggingTranslator) Close() error { return nil }

type stubKnowledge struct {
	context     string
	contextErr  error
	searchCalls int
	match       string
	matched     bool
	stored      []string
}

func (k *stubKnowledge) StoreQA(ctx context.Context, q, a string) error {
	k.stored = append(k.stored, q)
	return nil
}

func (k *stubKnowledge) UpdateQA(ctx context.Context, oldQ, q, a string) error { return nil }
func (k *stubKnowledge) DeleteQA(ctx context.Context, q string) error          { return nil }

func (k *stubKnowledge) SearchContext(ctx context.Context, query string) (string, error) {
	k.searchCalls++
	return k.context, k.contextErr
}

func (k *stubKnowledge) BestMatch(ctx context.Context, query string, candidates []string) (string, bool, error) {
	return k.match, k.matched, nil
}

type stubEscalation struct {
	enqueued     []string
	interactions []models.Interaction
	answers      map[string]string
}

func (e *stubEscalation) Enqueue(ctx context.Context, q string) error {
	e.enqueued = append(e.enqueued, q)
	return nil
}

func (e *stubEscalation) RecordInteraction(ctx context.Context, q, a, sid string) error {
	e.interactions = append(e.interactions, models.Interaction{Question: q, Answer: a, SessionID: sid})
	return nil
}

func (e *stubEscalation) DoctorAnswers(ctx context.Context) (map[string]string, error) {
	return e.answers, nil
}

func (e *stubEscalation) PendingQuestions(ctx context.Context, limit int) ([]models.PendingQuestion, error) {
	return nil, nil
}
func (e *stubEscalation) SubmitAnswer(ctx context.Context, q, a string) error { return nil }
func (e *stubEscalation) AddQA(ctx context.Context, q, a string) error        { return nil }
func (e *stubEscalation) UserQueries(ctx context.Context, limit int64) ([]models.Interaction, error) {
	return nil, nil
}
func (e *stubEscalation) SolvedQuestions(ctx context.Context, limit int64) ([]models.SolvedQuestion, error) {
	return nil, nil
}
func (e *stubEscalation) UpdateSolved(ctx context.Context, id, q, a string) error { return nil }
func (e *stubEscalation) DeleteSolved(ctx context.Context, id string) error       { return nil }
func (e *stubEscalation) DailyStats(ctx context.Context) (Stats, error)           { return Stats{}, nil }

type stubHistory struct {
	turns    []Exchange
	appended []Exchange
}

func (h *stubHistory) Get(ctx context.Context, id string) ([]Exchange, error) {
	return h.turns, nil
}

func (h *stubHistory) Append(ctx context.Context, id, user, bot string) ([]Exchange, error) {
	h.appended = append(h.appended, Exchange{user, bot})
	return h.appended, nil
}

func (h *stubHistory) Clear(ctx context.Context, id string) error { return nil }

type stubSessions struct {
	exchanges int
}

func (s *stubSessions) ActiveSession(ctx context.Context, userID, lang string) (*models.ChatSession, error) {
	return nil, nil
}
func (s *stubSessions) StartSession(ctx context.Context, userID, lang string) (*models.ChatSession, error) {
	return nil, nil
}
func (s *stubSessions) List(ctx context.Context, userID string, limit int64) ([]SessionSummary, error) {
	return nil, nil
}
func (s *stubSessions) Messages(ctx context.Context, sid, uid string, limit int64) ([]models.ChatMessage, error) {
	return nil, nil
}
func (s *stubSessions) AppendExchange(ctx context.Context, sid, user, bot, lang string) error {
	s.exchanges++
	return nil
}
func (s *stubSessions) Delete(ctx context.Context, sid, uid string) error      { return nil }
func (s *stubSessions) ClearAll(ctx context.Context, uid string) (int64, error) { return 0, nil }

func newTestChatService(l *stubLLM, g *stubGenerator, k *stubKnowledge, e *stubEscalation, h *stubHistory) ChatService {
	return NewChatService(l, g, identityTranslator{}, k, e, h, &stubSessions{}, testLogger())
}

func TestRespondRejectsEmptyMessage(t *testing.T) {
	svc := newTestChatService(&stubLLM{}, &stubGenerator{}, &stubKnowledge{}, &stubEscalation{}, &stubHistory{})

	_, err := svc.Respond(context.Background(), ChatRequest{Message: "   "})
	if !utils.IsCode(err, utils.CodeInvalidArgument) {
		t.Fatalf("expected invalid argument error, got %v", err)
	}
}

func TestRespondCasualSkipsRetrievalAndEscalation(t *testing.T) {
	l := &stubLLM{intent: llm.CategoryCasual, completion: "Hello! How can I help you with animal bites today?"}
	k := &stubKnowledge{}
	e := &stubEscalation{}
	svc := newTestChatService(l, &stubGenerator{}, k, e, &stubHistory{})

	resp, err := svc.Respond(context.Background(), ChatRequest{Message: "hello"})
	if err != nil {
		t.Fatal(err)
	}
	if resp.Reply != l.completion {
		t.Errorf("reply = %q, want greeting", resp.Reply)
	}
	if k.searchCalls != 0 {
		t.Error("casual message must not trigger retrieval")
	}
	if len(e.enqueued) != 0 {
		t.Error("casual message must not be escalated")
	}
	if l.completeSeen != 1 {
		t.Errorf("completion called %d times, want 1", l.completeSeen)
	}
}

func TestRespondUnrelatedWithoutContextReturnsRefusal(t *testing.T) {
	l := &stubLLM{intent: llm.CategorySubject, relevance: llm.CategoryUnrelated}
	k := &stubKnowledge{}
	e := &stubEscalation{}
	svc := newTestChatService(l, &stubGenerator{}, k, e, &stubHistory{})

	resp, err := svc.Respond(context.Background(), ChatRequest{Message: "what is the capital of france"})
	if err != nil {
		t.Fatal(err)
	}
	if resp.Reply != RefusalResponse {
		t.Errorf("reply = %q, want refusal", resp.Reply)
	}
	if k.searchCalls != 1 {
		t.Errorf("retrieval attempted %d times, want 1; the refusal must come after retrieval misses", k.searchCalls)
	}
	if len(e.enqueued) != 0 {
		t.Error("unrelated message must not be escalated")
	}
}

func TestRespondQualifyingContextBeatsRelevanceGate(t *testing.T) {
	l := &stubLLM{intent: llm.CategorySubject, relevance: llm.CategoryUnrelated}
	g := &stubGenerator{reply: "Wash the wound and seek medical care."}
	k := &stubKnowledge{context: "Dog bites should be washed immediately."}
	svc := newTestChatService(l, g, k, &stubEscalation{}, &stubHistory{})

	resp, err := svc.Respond(context.Background(), ChatRequest{Message: "what to do after a dog bite"})
	if err != nil {
		t.Fatal(err)
	}
	if resp.Reply != g.reply {
		t.Errorf("reply = %q, want the generated answer when the store has context", resp.Reply)
	}
	if l.relevanceSeen != 0 {
		t.Errorf("relevance classified %d times, want 0 when context qualifies", l.relevanceSeen)
	}
}

func TestRespondNoContextForwardsExactlyOnce(t *testing.T) {
	l := &stubLLM{intent: llm.CategorySubject, relevance: llm.CategoryRelated}
	g := &stubGenerator{reply: "unused"}
	k := &stubKnowledge{context: ""}
	e := &stubEscalation{}
	svc := newTestChatService(l, g, k, e, &stubHistory{})

	resp, err := svc.Respond(context.Background(), ChatRequest{Message: "can a monitor lizard bite be venomous"})
	if err != nil {
		t.Fatal(err)
	}
	if resp.Reply != ForwardedResponse {
		t.Errorf("reply = %q, want forwarded notice", resp.Reply)
	}
	if !resp.Forwarded {
		t.Error("response not flagged as forwarded")
	}
	if len(e.enqueued) != 1 {
		t.Fatalf("question enqueued %d times, want exactly 1", len(e.enqueued))
	}
	if e.enqueued[0] != "can a monitor lizard bite be venomous" {
		t.Errorf("enqueued %q, want the user's question as asked", e.enqueued[0])
	}
	if g.calls != 0 {
		t.Error("generator must not run without context")
	}
}

func TestRespondWithContextGenerates(t *testing.T) {
	l := &stubLLM{intent: llm.CategorySubject, relevance: llm.CategoryRelated}
	g := &stubGenerator{reply: "Wash the wound and seek medical care."}
	k := &stubKnowledge{context: "Dog bites should be washed immediately."}
	e := &stubEscalation{}
	svc := newTestChatService(l, g, k, e, &stubHistory{})

	resp, err := svc.Respond(context.Background(), ChatRequest{Message: "what to do after a dog bite"})
	if err != nil {
		t.Fatal(err)
	}
	if resp.Reply != g.reply {
		t.Errorf("reply = %q, want generated answer", resp.Reply)
	}
	if resp.Forwarded {
		t.Error("answered response flagged as forwarded")
	}
	if len(e.enqueued) != 0 {
		t.Error("answered question must not be escalated")
	}
}

func TestRespondPrefersDoctorAnswer(t *testing.T) {
	l := &stubLLM{intent: llm.CategorySubject, relevance: llm.CategoryRelated}
	g := &stubGenerator{reply: "generated"}
	k := &stubKnowledge{context: "some context", match: "Is a bat scratch dangerous?", matched: true}
	e := &stubEscalation{answers: map[string]string{
		"Is a bat scratch dangerous?": "Yes, treat any bat contact as a rabies exposure.",
	}}
	svc := newTestChatService(l, g, k, e, &stubHistory{})

	resp, err := svc.Respond(context.Background(), ChatRequest{Message: "is a bat scratch dangerous"})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(resp.Reply, "rabies exposure") {
		t.Errorf("reply = %q, want the doctor's answer", resp.Reply)
	}
	if g.calls != 0 {
		t.Error("generator must not run when a doctor answer matches")
	}
}

func TestRespondClassifierFailureFailsOpen(t *testing.T) {
	l := &stubLLM{intentErr: errors.New("upstream down"), relevance: llm.CategoryRelated}
	g := &stubGenerator{reply: "answer"}
	k := &stubKnowledge{context: "context"}
	svc := newTestChatService(l, g, k, &stubEscalation{}, &stubHistory{})

	resp, err := svc.Respond(context.Background(), ChatRequest{Message: "dog bite care"})
	if err != nil {
		t.Fatal(err)
	}
	if resp.Reply != "answer" {
		t.Errorf("reply = %q, want the generated answer despite classifier failure", resp.Reply)
	}
}

func TestRespondAppendsHistory(t *testing.T) {
	l := &stubLLM{intent: llm.CategorySubject, relevance: llm.CategoryRelated}
	g := &stubGenerator{reply: "answer"}
	h := &stubHistory{}
	svc := newTestChatService(l, g, &stubKnowledge{context: "context"}, &stubEscalation{}, h)

	_, err := svc.Respond(context.Background(), ChatRequest{Message: "dog bite care", ClientSessionID: "c1"})
	if err != nil {
		t.Fatal(err)
	}
	if len(h.appended) != 1 {
		t.Fatalf("history appended %d times, want 1", len(h.appended))
	}
	if h.appended[0].User() != "dog bite care" || h.appended[0].Bot() != "answer" {
		t.Errorf("history entry = %v, want the exchange", h.appended[0])
	}
}

func TestRespondHistoryKeepsUserLanguage(t *testing.T) {
	l := &stubLLM{intent: llm.CategorySubject, relevance: llm.CategoryRelated}
	g := &stubGenerator{reply: "wash the wound"}
	h := &stubHistory{}
	svc := NewChatService(l, g, taggingTranslator{}, &stubKnowledge{context: "context"},
		&stubEscalation{}, h, &stubSessions{}, testLogger())

	_, err := svc.Respond(context.Background(), ChatRequest{
		Message:         "நாய் கடித்தால் என்ன செய்வது",
		Language:        "ta",
		ClientSessionID: "c1",
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(h.appended) != 1 {
		t.Fatalf("history appended %d times, want 1", len(h.appended))
	}
	if h.appended[0].User() != "நாய் கடித்தால் என்ன செய்வது" {
		t.Errorf("history user turn = %q, want the message as typed", h.appended[0].User())
	}
	if h.appended[0].Bot() != "wash the wound (ta)" {
		t.Errorf("history bot turn = %q, want the localized reply", h.appended[0].Bot())
	}
}
