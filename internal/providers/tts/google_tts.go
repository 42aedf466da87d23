package tts

import (
	"context"
	"errors"

	texttospeech "cloud.google.com/go/texttospeech/apiv1"
	"cloud.google.com/go/texttospeech/apiv1/texttospeechpb"

	"github.com/arogyalabs/bitebot/internal/language"
)

type GoogleTTS struct {
	c *texttospeech.Client

	SampleRateHz int32
}

func NewGoogleTTS(ctx context.Context) (*GoogleTTS, error) {
	c, err := texttospeech.NewClient(ctx)
	if err != nil {
		return nil, err
	}
	return &GoogleTTS{c: c, SampleRateHz: 24000}, nil
}

func (g *GoogleTTS) Close() error { return g.c.Close() }

func (g *GoogleTTS) Synthesize(ctx context.Context, text, lang string) ([]byte, error) {
	voice := language.VoiceFor(lang)

	resp, err := g.c.SynthesizeSpeech(ctx, &texttospeechpb.SynthesizeSpeechRequest{
		Input: &texttospeechpb.SynthesisInput{
			InputSource: &texttospeechpb.SynthesisInput_Text{Text: text},
		},
		Voice: &texttospeechpb.VoiceSelectionParams{
			LanguageCode: voice.Locale,
			Name:         voice.Name,
			SsmlGender:   texttospeechpb.SsmlVoiceGender_FEMALE,
		},
		AudioConfig: &texttospeechpb.AudioConfig{
			AudioEncoding:   texttospeechpb.AudioEncoding_MP3,
			SpeakingRate:    1.0,
			Pitch:           0.0,
			SampleRateHertz: g.SampleRateHz,
		},
	})
	if err != nil {
		return nil, err
	}

	if len(resp.GetAudioContent()) == 0 {
		return nil, errors.New("tts: empty audio content")
	}
	return resp.GetAudioContent(), nil
}
