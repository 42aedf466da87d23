package stt

import (
	"context"

	speech "cloud.google.com/go/speech/apiv1"
	speechpb "cloud.google.com/go/speech/apiv1/speechpb"

	"github.com/arogyalabs/bitebot/internal/language"
)

type GoogleSpeech struct {
	c *speech.Client

	// Browser MediaRecorder defaults.
	Encoding     speechpb.RecognitionConfig_AudioEncoding
	SampleRateHz int32
}

func NewGoogleSpeech(ctx context.Context) (*GoogleSpeech, error) {
	c, err := speech.NewClient(ctx)
	if err != nil {
		return nil, err
	}
	return &GoogleSpeech{
		c:            c,
		Encoding:     speechpb.RecognitionConfig_WEBM_OPUS,
		SampleRateHz: 48000,
	}, nil
}

func (g *GoogleSpeech) Close() error { return g.c.Close() }

func (g *GoogleSpeech) Transcribe(ctx context.Context, audio []byte, lang string) (string, error) {
	locale := language.VoiceFor(lang).Locale

	// Offer the other supported locales as alternatives so a mislabeled
	// recording still transcribes.
	var alternatives []string
	for _, code := range language.Supported() {
		if alt := language.VoiceFor(code).Locale; alt != locale {
			alternatives = append(alternatives, alt)
		}
	}

	resp, err := g.c.Recognize(ctx, &speechpb.RecognizeRequest{
		Config: &speechpb.RecognitionConfig{
			Encoding:                   g.Encoding,
			SampleRateHertz:            g.SampleRateHz,
			LanguageCode:               locale,
			AlternativeLanguageCodes:   alternatives,
			EnableAutomaticPunctuation: true,
		},
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Content{Content: audio},
		},
	})
	if err != nil {
		return "", err
	}

	var transcript string
	for _, r := range resp.Results {
		if len(r.Alternatives) > 0 {
			transcript += r.Alternatives[0].Transcript
		}
	}
	return transcript, nil
}
