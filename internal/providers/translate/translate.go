package translate

import "context"

// Provider converts text between the pivot language and a user language.
// Implementations degrade to the input text on any failure: translation is
// never allowed to block the message pipeline.
type Provider interface {
	Translate(ctx context.Context, text, targetLang, sourceLang string) string
	SupportedLanguages(ctx context.Context, allowed []string) (map[string]string, error)
	Close() error
}
