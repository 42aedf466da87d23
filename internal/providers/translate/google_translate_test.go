package translate

import (
	"context"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestTranslateSameLanguagePassthrough(t *testing.T) {
	// Nil inner client: any path that reaches the service would return the
	// input anyway, so a non-passthrough result can only mean an RPC attempt.
	g := &GoogleTranslate{c: nil, projectID: "my-project-123", log: logrus.New()}

	if got := g.Translate(context.Background(), "hello", "en", "en"); got != "hello" {
		t.Errorf("same-language translate = %q, want input unchanged", got)
	}
}

func TestTranslateEmptyText(t *testing.T) {
	g := &GoogleTranslate{log: logrus.New()}
	for _, in := range []string{"", "   "} {
		if got := g.Translate(context.Background(), in, "ta", "en"); got != in {
			t.Errorf("Translate(%q) = %q, want input unchanged", in, got)
		}
	}
}

func TestTranslateNoClientFallsBack(t *testing.T) {
	g := &GoogleTranslate{c: nil, projectID: "my-project-123", log: logrus.New()}
	if got := g.Translate(context.Background(), "vanakkam", "en", "ta"); got != "vanakkam" {
		t.Errorf("Translate with nil client = %q, want original text", got)
	}
}

func TestSupportedLanguagesNoClient(t *testing.T) {
	g := &GoogleTranslate{c: nil, log: logrus.New()}
	if _, err := g.SupportedLanguages(context.Background(), []string{"en"}); err == nil {
		t.Error("SupportedLanguages with nil client should error so callers use the fallback table")
	}
}
