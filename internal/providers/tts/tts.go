package tts

import "context"

type Provider interface {
	// Synthesize renders text as MP3 audio using the given language's voice.
	Synthesize(ctx context.Context, text, lang string) ([]byte, error)
	Close() error
}
