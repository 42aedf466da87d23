package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/arogyalabs/bitebot/internal/language"
	"github.com/arogyalabs/bitebot/internal/providers/translate"
)

type LanguageHandler struct {
	translator translate.Provider
	log        *logrus.Logger
}

func NewLanguageHandler(translator translate.Provider, log *logrus.Logger) *LanguageHandler {
	return &LanguageHandler{translator: translator, log: log}
}

// Supported returns the language-code → display-name map. Names come from
// the translation service when it is reachable, otherwise from the static
// fallback table.
func (h *LanguageHandler) Supported(c *gin.Context) {
	names, err := h.translator.SupportedLanguages(c.Request.Context(), language.Supported())
	if err != nil || len(names) == 0 {
		if err != nil {
			h.log.WithError(err).Debug("language: falling back to static display names")
		}
		names = language.FallbackNames()
	}

	c.JSON(http.StatusOK, gin.H{"languages": names, "default": language.Default})
}
