package translate

import (
	"context"
	"errors"
	"strings"

	translate "cloud.google.com/go/translate/apiv3"
	"cloud.google.com/go/translate/apiv3/translatepb"
	"github.com/sirupsen/logrus"

	"github.com/arogyalabs/bitebot/internal/language"
)

type GoogleTranslate struct {
	c         *translate.TranslationClient
	projectID string
	log       *logrus.Logger
}

func NewGoogleTranslate(ctx context.Context, projectID string, log *logrus.Logger) (*GoogleTranslate, error) {
	c, err := translate.NewTranslationClient(ctx)
	if err != nil {
		return nil, err
	}
	return &GoogleTranslate{c: c, projectID: strings.TrimSpace(projectID), log: log}, nil
}

func (g *GoogleTranslate) Close() error {
	if g == nil || g.c == nil {
		return nil
	}
	return g.c.Close()
}

// Translate returns text rendered in targetLang. Same-language calls
// short-circuit without touching the service; any failure returns the
// input unchanged.
func (g *GoogleTranslate) Translate(ctx context.Context, text, targetLang, sourceLang string) string {
	if strings.TrimSpace(text) == "" {
		return text
	}
	if sourceLang == targetLang {
		return text
	}
	if g == nil || g.c == nil {
		return text
	}
	if !language.ValidProjectID(g.projectID) {
		g.log.WithField("project_id", g.projectID).Warn("translate: invalid project id, returning original text")
		return text
	}

	resp, err := g.c.TranslateText(ctx, &translatepb.TranslateTextRequest{
		Parent:             "projects/" + g.projectID + "/locations/global",
		Contents:           []string{text},
		MimeType:           "text/plain",
		SourceLanguageCode: sourceLang,
		TargetLanguageCode: targetLang,
	})
	if err != nil {
		g.log.WithError(err).WithFields(logrus.Fields{
			"source": sourceLang,
			"target": targetLang,
		}).Warn("translate: request failed, returning original text")
		return text
	}

	translations := resp.GetTranslations()
	if len(translations) == 0 || translations[0].GetTranslatedText() == "" {
		return text
	}
	return translations[0].GetTranslatedText()
}

// SupportedLanguages fetches the code → display-name map for the allowed
// codes. Callers fall back to the static table on error.
func (g *GoogleTranslate) SupportedLanguages(ctx context.Context, allowed []string) (map[string]string, error) {
	if g == nil || g.c == nil {
		return nil, errors.New("translation client not configured")
	}
	if !language.ValidProjectID(g.projectID) {
		return nil, errors.New("invalid google cloud project id: " + g.projectID)
	}

	resp, err := g.c.GetSupportedLanguages(ctx, &translatepb.GetSupportedLanguagesRequest{
		Parent:              "projects/" + g.projectID + "/locations/global",
		DisplayLanguageCode: language.Default,
	})
	if err != nil {
		return nil, err
	}

	allow := map[string]struct{}{}
	for _, code := range allowed {
		allow[code] = struct{}{}
	}

	out := map[string]string{}
	for _, l := range resp.GetLanguages() {
		code := l.GetLanguageCode()
		if len(allow) > 0 {
			if _, ok := allow[code]; !ok {
				continue
			}
		}
		name := l.GetDisplayName()
		if name == "" {
			name = code
		}
		out[code] = name
	}
	return out, nil
}
