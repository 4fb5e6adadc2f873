package assistant

import (
	"context"
	"fmt"
	log "log/slog"
	"strings"
	"unicode/utf8"

	"ninuska/internal/backend"
)

const (
	DefaultSummaryThreshold = 200
	DefaultHardCap          = 300
)

// LengthPolicy keeps replies short enough to be spoken.
type LengthPolicy struct {
	Threshold int // replies this long or longer are summarized
	Cap       int // spoken text never exceeds this many characters
}

func (p LengthPolicy) NeedsSummary(reply string) bool {
	return utf8.RuneCountInString(reply) >= p.Threshold
}

// Apply returns reply unchanged when it is short; otherwise it asks b for a
// one-sentence summary and cuts that to Cap characters.
func (p LengthPolicy) Apply(ctx context.Context, b backend.Backend, reply string) (string, error) {
	if !p.NeedsSummary(reply) {
		return reply, nil
	}

	log.Info("Summarizing long reply", "chars", utf8.RuneCountInString(reply))
	summary, err := b.Respond(ctx, backend.SummaryPrompt(reply), nil)
	if err != nil {
		return "", fmt.Errorf("summarize: %w", err)
	}
	return strings.TrimSpace(backend.Truncate(summary, p.Cap)), nil
}

// IsVisionRequest reports whether text contains one of the triggers, ignoring case.
func IsVisionRequest(text string, triggers []string) bool {
	lower := strings.ToLower(text)
	for _, t := range triggers {
		if t != "" && strings.Contains(lower, strings.ToLower(t)) {
			return true
		}
	}
	return false
}
