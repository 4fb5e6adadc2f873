package speech

import (
	"context"
	"fmt"
	"io"
	log "log/slog"

	openai "github.com/openai/openai-go/v3"
)

// OpenAITTS synthesizes with the OpenAI speech endpoint. The language follows
// the text, so lang is only passed on as an instruction.
type OpenAITTS struct {
	client openai.Client
	model  string
	voice  string
}

// DefaultOpenAIVoice is used when no voice is configured.
const DefaultOpenAIVoice = openai.AudioSpeechNewParamsVoiceCoral

func NewOpenAITTS(client openai.Client, model, voice string) *OpenAITTS {
	if model == "" {
		model = openai.SpeechModelGPT4oMiniTTS
	}
	if voice == "" {
		voice = string(DefaultOpenAIVoice)
	}
	return &OpenAITTS{client: client, model: model, voice: voice}
}

func (o *OpenAITTS) Synthesize(ctx context.Context, text, lang string) (*Audio, error) {
	params := openai.AudioSpeechNewParams{
		Input:          text,
		Model:          o.model,
		Voice:          openai.AudioSpeechNewParamsVoice(o.voice),
		ResponseFormat: openai.AudioSpeechNewParamsResponseFormatMP3,
	}
	if o.model == openai.SpeechModelGPT4oMiniTTS {
		params.Instructions = openai.String(fmt.Sprintf("Speak naturally in language %q.", lang))
	}

	resp, err := o.client.Audio.Speech.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("openai tts: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("openai tts: read: %w", err)
	}

	log.Debug("Synthesized speech", "engine", "openai", "voice", o.voice, "bytes", len(data))
	return &Audio{Data: data, Ext: ".mp3"}, nil
}
