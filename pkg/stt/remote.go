package stt

import (
	"context"
	"fmt"
	"os"

	openai "github.com/openai/openai-go/v3"

	"ninuska/pkg/audioconv"
)

const engineRemote = "openai"

// minSamples is a quarter second; shorter windows are never speech.
const minSamples = audioconv.SampleRate / 4

// Remote sends each listening window to the OpenAI transcription endpoint.
type Remote struct {
	client openai.Client
	model  string
}

func NewRemote(client openai.Client, model string) *Remote {
	if model == "" {
		model = openai.AudioModelWhisper1
	}
	return &Remote{client: client, model: model}
}

func (r *Remote) Close() error { return nil }

// Recognize implements Recognizer.
func (r *Remote) Recognize(ctx context.Context, pcm16k []float32, lang string) (string, error) {
	if len(pcm16k) < minSamples {
		return "", ErrNoMatch
	}

	f, err := os.CreateTemp("", "ninuska-utterance-*.wav")
	if err != nil {
		return "", fmt.Errorf("temp wav: %w", err)
	}
	defer os.Remove(f.Name())
	defer f.Close()

	if err := audioconv.EncodeWAV(f, pcm16k, audioconv.SampleRate); err != nil {
		return "", err
	}
	if _, err := f.Seek(0, 0); err != nil {
		return "", fmt.Errorf("rewind wav: %w", err)
	}

	params := openai.AudioTranscriptionNewParams{
		File:  openai.File(f, "utterance.wav", "audio/wav"),
		Model: r.model,
	}
	if l := BaseLanguage(lang); l != "" {
		params.Language = openai.String(l)
	}

	resp, err := r.client.Audio.Transcriptions.New(ctx, params)
	if err != nil {
		return "", &ServiceError{Engine: engineRemote, Err: err}
	}

	text := CleanTranscript(resp.Text)
	if text == "" {
		return "", ErrNoMatch
	}
	return text, nil
}
