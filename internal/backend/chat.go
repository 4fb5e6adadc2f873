package backend

import (
	"context"
	"errors"
	"fmt"
	log "log/slog"
	"strings"

	openai "github.com/openai/openai-go/v3"

	"ninuska/internal/vision"
)

const nameChat = "chat"

type ChatConfig struct {
	Model        string // text-only turns
	VisionModel  string // turns with a frame, defaults to Model
	SystemPrompt string
}

// Chat answers through the OpenAI chat completions API.
type Chat struct {
	client openai.Client
	cfg    ChatConfig
}

func NewChat(client openai.Client, cfg ChatConfig) *Chat {
	if cfg.Model == "" {
		cfg.Model = openai.ChatModelGPT4oMini
	}
	if cfg.VisionModel == "" {
		cfg.VisionModel = cfg.Model
	}
	if cfg.SystemPrompt == "" {
		cfg.SystemPrompt = SystemPrompt
	}
	return &Chat{client: client, cfg: cfg}
}

// Respond implements Backend. The frame, if any, is inlined as base64.
func (c *Chat) Respond(ctx context.Context, utterance string, frame *vision.Frame) (string, error) {
	model := c.cfg.Model
	user := openai.UserMessage(utterance)
	if frame != nil {
		model = c.cfg.VisionModel
		user = openai.UserMessage([]openai.ChatCompletionContentPartUnionParam{
			openai.TextContentPart(utterance),
			openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{
				URL: frame.DataURL(),
			}),
		})
	}

	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(c.cfg.SystemPrompt),
			user,
		},
		Model: model,
	})
	if err != nil {
		return "", chatError(ctx, err)
	}

	if len(resp.Choices) == 0 {
		return "", newError(nameChat, "no choices in response", nil)
	}

	reply := strings.TrimSpace(resp.Choices[0].Message.Content)
	if reply == "" {
		return "", newError(nameChat, "empty reply", nil)
	}

	log.Debug("Chat reply", "model", model, "chars", len([]rune(reply)))
	return reply, nil
}

func chatError(ctx context.Context, err error) *Error {
	if errors.Is(err, context.DeadlineExceeded) || ctx.Err() == context.DeadlineExceeded {
		e := newError(nameChat, "request timed out", err)
		e.Timeout = true
		return e
	}

	var apierr *openai.Error
	if errors.As(err, &apierr) {
		msg := apierr.Message
		if msg == "" {
			msg = apierr.RawJSON()
		}
		return newError(nameChat, fmt.Sprintf("API %d: %s", apierr.StatusCode, msg), err)
	}
	return newError(nameChat, err.Error(), err)
}
