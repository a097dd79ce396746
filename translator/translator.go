// ytparser/translator/translator.go

// Package translator batches subtitle text through an OpenAI-compatible
// chat-completions endpoint. It degrades instead of failing: with no API key
// or on any transport error the inputs are returned unchanged.
package translator

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"resty.dev/v3"

	"ytparser/config"
)

const requestTimeout = 60 * time.Second

const systemPrompt = "You are a professional subtitle translator. You always " +
	"return exactly the same number of lines as provided, maintaining the " +
	"exact 'LineNumber|TranslatedText' format."

type Translator struct {
	apiKey string
	model  string
	http   *resty.Client
	log    *zap.Logger
}

func New(cfg *config.Config, log *zap.Logger) *Translator {
	return &Translator{
		apiKey: cfg.LLMAPIKey,
		model:  cfg.LLMModel,
		http: resty.New().
			SetBaseURL(strings.TrimRight(cfg.LLMBaseURL, "/")).
			SetTimeout(requestTimeout),
		log: log,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// buildPrompt numbers each text so the model's output can be mapped back to
// its input regardless of ordering.
func buildPrompt(texts []string) string {
	var sb strings.Builder
	sb.WriteString("Translate the following English subtitles to Chinese. " +
		"Maintain the exact line count and formatting. Return ONLY the " +
		"translated lines, each preceded by its line number and a separator " +
		"(e.g., '1|你好').\n\n")
	for i, text := range texts {
		fmt.Fprintf(&sb, "%d|%s\n", i, text)
	}
	return sb.String()
}

// parseReply maps 'N|text' lines back onto the input order, substituting the
// original text for any index the model dropped.
func parseReply(content string, texts []string) []string {
	byIndex := make(map[int]string)
	for _, line := range strings.Split(content, "\n") {
		idxStr, txt, found := strings.Cut(line, "|")
		if !found {
			continue
		}
		idx, err := strconv.Atoi(strings.TrimSpace(idxStr))
		if err != nil {
			continue
		}
		byIndex[idx] = strings.TrimSpace(txt)
	}

	out := make([]string, len(texts))
	for i, original := range texts {
		if translated, ok := byIndex[i]; ok && translated != "" {
			out[i] = translated
		} else {
			out[i] = original
		}
	}
	return out
}

// Translate returns one translated string per input, in order. Any failure
// falls back to the originals so a broken LLM backend never fails the job.
func (t *Translator) Translate(ctx context.Context, texts []string) []string {
	if len(texts) == 0 {
		return nil
	}
	if t.apiKey == "" {
		t.log.Warn("llm api key is empty, keeping original text")
		return texts
	}

	req := chatRequest{
		Model: t.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: buildPrompt(texts)},
		},
		MaxTokens:   2000,
		Temperature: 0.3,
	}

	var out chatResponse
	resp, err := t.http.R().
		SetContext(ctx).
		SetAuthToken(t.apiKey).
		SetBody(req).
		SetResult(&out).
		Post("/chat/completions")
	if err != nil {
		t.log.Error("llm request failed, keeping original text", zap.Error(err))
		return texts
	}
	if resp.IsError() {
		t.log.Error("llm returned an error, keeping original text",
			zap.Int("status", resp.StatusCode()))
		return texts
	}
	if len(out.Choices) == 0 {
		t.log.Error("llm response has no choices, keeping original text")
		return texts
	}

	return parseReply(out.Choices[0].Message.Content, texts)
}
