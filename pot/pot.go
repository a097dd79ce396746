// ytparser/pot/pot.go

// Package pot talks to the PO token provider service (e.g. a
// bgutil-ytdl-pot-provider container). Token fetch failures are never fatal:
// extraction proceeds without a token.
package pot

import (
	"context"
	"time"

	"go.uber.org/zap"
	"resty.dev/v3"

	"ytparser/config"
)

const requestTimeout = 15 * time.Second

// Token is a proof-of-origin token bound to a visitor identity.
type Token struct {
	ContentBinding string
	POToken        string
}

type Client struct {
	baseURL string
	http    *resty.Client
	log     *zap.Logger
}

func NewClient(cfg *config.Config, log *zap.Logger) *Client {
	return &Client{
		baseURL: cfg.POTProviderURL,
		http:    resty.New().SetTimeout(requestTimeout),
		log:     log,
	}
}

// providerResponse tolerates both camelCase and snake_case provider builds.
type providerResponse struct {
	ContentBinding      string `json:"contentBinding"`
	ContentBindingSnake string `json:"content_binding"`
	POToken             string `json:"poToken"`
	POTokenSnake        string `json:"po_token"`
}

// FetchToken requests a token, optionally bound to a video id. It returns
// nil when the provider is not configured, unreachable, or returns an empty
// token; it never returns an error to the caller.
func (c *Client) FetchToken(ctx context.Context, videoID string) *Token {
	if c.baseURL == "" {
		return nil
	}

	body := map[string]string{}
	if videoID != "" {
		body["video_id"] = videoID
	}

	var out providerResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(&out).
		Post(c.baseURL + "/get_pot")
	if err != nil {
		c.log.Warn("po token provider unreachable, proceeding without token",
			zap.String("url", c.baseURL), zap.Error(err))
		return nil
	}
	if resp.IsError() {
		c.log.Warn("po token provider returned an error, proceeding without token",
			zap.Int("status", resp.StatusCode()))
		return nil
	}

	binding := out.ContentBinding
	if binding == "" {
		binding = out.ContentBindingSnake
	}
	token := out.POToken
	if token == "" {
		token = out.POTokenSnake
	}
	if token == "" {
		c.log.Warn("po token provider returned an empty token")
		return nil
	}

	c.log.Info("po token obtained", zap.String("content_binding", truncate(binding, 16)))
	return &Token{ContentBinding: binding, POToken: token}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
