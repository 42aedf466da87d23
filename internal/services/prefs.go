package services

import (
	"context"
	"time"

	"github.com/arogyalabs/bitebot/internal/cache"
	"github.com/arogyalabs/bitebot/internal/language"
	"github.com/arogyalabs/bitebot/internal/utils"
)

// LanguagePrefs remembers each browser session's chosen language alongside
// its conversation history.
type LanguagePrefs interface {
	Get(ctx context.Context, clientSessionID string) string
	Set(ctx context.Context, clientSessionID, lang string) error
}

type languagePrefs struct {
	cache cache.Cache
	ttl   time.Duration
}

func NewLanguagePrefs(c cache.Cache, ttl time.Duration) LanguagePrefs {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &languagePrefs{cache: c, ttl: ttl}
}

func prefsKey(clientSessionID string) string {
	return "chat:lang:" + clientSessionID
}

func (p *languagePrefs) Get(ctx context.Context, clientSessionID string) string {
	if clientSessionID == "" {
		return language.Default
	}
	var lang string
	hit, err := p.cache.GetJSON(ctx, prefsKey(clientSessionID), &lang)
	if err != nil || !hit || !language.IsSupported(lang) {
		return language.Default
	}
	return lang
}

func (p *languagePrefs) Set(ctx context.Context, clientSessionID, lang string) error {
	const op = "LanguagePrefs.Set"

	if clientSessionID == "" {
		return utils.E(utils.CodeInvalidArgument, op, "client session id is required", nil)
	}
	if !language.IsSupported(lang) {
		return utils.E(utils.CodeInvalidArgument, op, "unsupported language", nil)
	}
	if err := p.cache.SetJSON(ctx, prefsKey(clientSessionID), lang, p.ttl); err != nil {
		return utils.E(utils.CodeInternal, op, "failed to store language preference", err)
	}
	return nil
}
