package stt

import "context"

type Provider interface {
	// Transcribe converts recorded audio to text in the given language.
	Transcribe(ctx context.Context, audio []byte, lang string) (string, error)
	Close() error
}
