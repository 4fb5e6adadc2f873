package speech

import (
	"bytes"
	"context"
	"fmt"
	"io"
	log "log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"unicode/utf8"
)

const (
	googleTTSURL = "https://translate.google.com/translate_tts"
	googleChunk  = 100
)

// GoogleTTS uses the public Google Translate speech endpoint. Long text is
// split at word boundaries and the MP3 parts are concatenated.
type GoogleTTS struct {
	client  *http.Client
	baseURL string
}

func NewGoogleTTS(client *http.Client) *GoogleTTS {
	if client == nil {
		client = http.DefaultClient
	}
	return &GoogleTTS{client: client, baseURL: googleTTSURL}
}

// WithBaseURL points the synthesizer at another endpoint.
func (g *GoogleTTS) WithBaseURL(u string) *GoogleTTS {
	g.baseURL = u
	return g
}

func (g *GoogleTTS) Synthesize(ctx context.Context, text, lang string) (*Audio, error) {
	parts := splitText(text, googleChunk)
	if len(parts) == 0 {
		return nil, fmt.Errorf("google tts: nothing to say")
	}

	var out bytes.Buffer
	for i, part := range parts {
		if err := g.fetch(ctx, &out, part, lang, i, len(parts)); err != nil {
			return nil, fmt.Errorf("google tts part %d/%d: %w", i+1, len(parts), err)
		}
	}

	log.Debug("Synthesized speech", "engine", "google", "parts", len(parts), "bytes", out.Len())
	return &Audio{Data: out.Bytes(), Ext: ".mp3"}, nil
}

func (g *GoogleTTS) fetch(ctx context.Context, w io.Writer, text, lang string, idx, total int) error {
	q := url.Values{}
	q.Set("ie", "UTF-8")
	q.Set("client", "tw-ob")
	q.Set("tl", lang)
	q.Set("q", text)
	q.Set("idx", strconv.Itoa(idx))
	q.Set("total", strconv.Itoa(total))
	q.Set("textlen", strconv.Itoa(utf8.RuneCountInString(text)))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")
	req.Header.Set("Referer", "https://translate.google.com/")

	resp, err := g.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 200))
		return fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	_, err = io.Copy(w, resp.Body)
	return err
}

// splitText cuts text into chunks of at most max characters, preferring to
// break after sentence punctuation and otherwise between words.
func splitText(text string, max int) []string {
	var (
		chunks []string
		cur    []rune
	)
	flush := func() {
		if s := strings.TrimSpace(string(cur)); s != "" {
			chunks = append(chunks, s)
		}
		cur = cur[:0]
	}

	for _, word := range strings.Fields(text) {
		w := []rune(word)
		for len(w) > max {
			flush()
			chunks = append(chunks, string(w[:max]))
			w = w[max:]
		}

		if len(cur) > 0 && len(cur)+1+len(w) > max {
			flush()
		}
		if len(cur) > 0 {
			cur = append(cur, ' ')
		}
		cur = append(cur, w...)

		if strings.ContainsRune(".!?;", w[len(w)-1]) && len(cur) > max/2 {
			flush()
		}
	}
	flush()
	return chunks
}
