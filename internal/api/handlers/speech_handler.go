package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/arogyalabs/bitebot/internal/language"
	"github.com/arogyalabs/bitebot/internal/providers/stt"
	"github.com/arogyalabs/bitebot/internal/providers/tts"
	"github.com/arogyalabs/bitebot/internal/utils"
)

// maxAudioBytes caps uploaded recordings at 10 MiB.
const maxAudioBytes = 10 << 20

type SpeechHandler struct {
	tts tts.Provider
	stt stt.Provider
}

// NewSpeechHandler accepts nil providers; the corresponding endpoint then
// answers 503.
func NewSpeechHandler(t tts.Provider, s stt.Provider) *SpeechHandler {
	return &SpeechHandler{tts: t, stt: s}
}

type SynthesizeRequest struct {
	Text     string `json:"text"`
	Language string `json:"language"`
}

func (h *SpeechHandler) Synthesize(c *gin.Context) {
	const op = "SpeechHandler.Synthesize"

	if h.tts == nil {
		writeError(c, utils.E(utils.CodeUnavailable, op, "text-to-speech is not configured", nil))
		return
	}

	var req SynthesizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, op, "invalid request body", err))
		return
	}
	if req.Text == "" {
		writeError(c, utils.E(utils.CodeInvalidArgument, op, "text is required", nil))
		return
	}
	lang := req.Language
	if !language.IsSupported(lang) {
		lang = language.Default
	}

	audio, err := h.tts.Synthesize(c.Request.Context(), req.Text, lang)
	if err != nil {
		writeError(c, err)
		return
	}

	c.Data(http.StatusOK, "audio/mpeg", audio)
}

func (h *SpeechHandler) Transcribe(c *gin.Context) {
	const op = "SpeechHandler.Transcribe"

	if h.stt == nil {
		writeError(c, utils.E(utils.CodeUnavailable, op, "speech-to-text is not configured", nil))
		return
	}

	file, _, err := c.Request.FormFile("file")
	if err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, op, "audio file is required", err))
		return
	}
	defer file.Close()

	audio, err := io.ReadAll(io.LimitReader(file, maxAudioBytes+1))
	if err != nil {
		writeError(c, utils.E(utils.CodeInternal, op, "failed to read audio", err))
		return
	}
	if len(audio) == 0 {
		writeError(c, utils.E(utils.CodeInvalidArgument, op, "audio file is empty", nil))
		return
	}
	if len(audio) > maxAudioBytes {
		writeError(c, utils.E(utils.CodeInvalidArgument, op, "audio file too large", nil))
		return
	}

	lang := c.PostForm("language")
	if !language.IsSupported(lang) {
		lang = language.Default
	}

	transcript, err := h.stt.Transcribe(c.Request.Context(), audio, lang)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"transcript": transcript})
}
