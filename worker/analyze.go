// ytparser/worker/analyze.go

// Package worker holds the job bodies executed under the task runner.
package worker

import (
	"context"
	"regexp"

	"go.uber.org/zap"

	"ytparser/config"
	"ytparser/pot"
	"ytparser/task"
	"ytparser/ytdlp"
)

// TokenProvider yields an optional PO token; implementations never fail.
type TokenProvider interface {
	FetchToken(ctx context.Context, videoID string) *pot.Token
}

// Analyzer builds analyze jobs: fetch an optional PO token, run the blocking
// extractor under the shared limiter, and normalize the raw format list.
type Analyzer struct {
	cfg       *config.Config
	extractor ytdlp.Extractor
	tokens    TokenProvider
	limiter   *task.Limiter
	log       *zap.Logger
}

func NewAnalyzer(cfg *config.Config, extractor ytdlp.Extractor, tokens TokenProvider, limiter *task.Limiter, log *zap.Logger) *Analyzer {
	return &Analyzer{cfg: cfg, extractor: extractor, tokens: tokens, limiter: limiter, log: log}
}

var videoIDRe = regexp.MustCompile(`(?:v=|/v/|youtu\.be/|/embed/|/shorts/)([a-zA-Z0-9_-]{11})`)

// ExtractVideoID pulls the 11-character video id out of a URL; empty when
// the URL has no recognizable id (which is not an error).
func ExtractVideoID(url string) string {
	if m := videoIDRe.FindStringSubmatch(url); m != nil {
		return m[1]
	}
	return ""
}

// Categorize classifies a format by codec presence. yt-dlp reports an absent
// codec as "none" or an empty string.
func Categorize(vcodec, acodec string) string {
	hasVideo := vcodec != "" && vcodec != "none"
	hasAudio := acodec != "" && acodec != "none"
	switch {
	case hasVideo && hasAudio:
		return "muxed"
	case hasVideo:
		return "video_only"
	case hasAudio:
		return "audio_only"
	default:
		return "unknown"
	}
}

// Options assembles the extractor option bag for one call.
func (a *Analyzer) Options(ctx context.Context, url string, onProgress ytdlp.ProgressFunc) ytdlp.Options {
	opts := ytdlp.Options{
		Proxy:      a.cfg.GlobalProxy,
		OnProgress: onProgress,
	}
	if tok := a.tokens.FetchToken(ctx, ExtractVideoID(url)); tok != nil {
		opts.POToken = tok.POToken
		opts.ContentBinding = tok.ContentBinding
		a.log.Info("po token injected into extractor args")
	}
	return opts
}

// Job returns the runner job body for one analyze task.
func (a *Analyzer) Job(url string) task.JobFunc {
	return func(ctx context.Context, report func(float64)) (*task.Result, error) {
		// Token fetch and option assembly stay outside the limiter; only
		// the expensive blocking extraction holds a slot.
		opts := a.Options(ctx, url, func(pct float64) { report(pct) })

		if err := a.limiter.Acquire(ctx); err != nil {
			return nil, err
		}
		defer a.limiter.Release()

		extractCtx, cancel := context.WithTimeout(ctx, a.cfg.ExtractTimeout)
		defer cancel()

		info, err := a.extractor.Extract(extractCtx, url, opts)
		if err != nil {
			return nil, err
		}

		video := BuildVideoInfo(url, info)
		a.log.Info("analysis finished",
			zap.String("url", url), zap.Int("formats", len(video.Formats)))
		return &task.Result{Video: video}, nil
	}
}

// Stream feeds one normalized VideoInfo per playlist entry to fn until the
// playlist is exhausted or fn returns false (e.g. the client went away).
// Unlike Job, cancelling ctx stops the extraction itself: nothing else will
// ever consume its output.
func (a *Analyzer) Stream(ctx context.Context, url string, fn func(*task.VideoInfo) bool) error {
	opts := a.Options(ctx, url, nil)

	if err := a.limiter.Acquire(ctx); err != nil {
		return err
	}
	defer a.limiter.Release()

	return a.extractor.ExtractEach(ctx, url, opts, func(info *ytdlp.RawInfo) bool {
		return fn(BuildVideoInfo(url, info))
	})
}

// BuildVideoInfo maps the raw yt-dlp dump to the normalized result payload.
func BuildVideoInfo(url string, info *ytdlp.RawInfo) *task.VideoInfo {
	formats := make([]task.VideoFormat, 0, len(info.Formats))
	for _, f := range info.Formats {
		formats = append(formats, task.VideoFormat{
			FormatID:       f.FormatID,
			Ext:            f.Ext,
			Resolution:     f.Resolution,
			FPS:            f.FPS,
			VCodec:         f.VCodec,
			ACodec:         f.ACodec,
			Filesize:       f.Filesize,
			FilesizeApprox: f.FilesizeApprox,
			TBR:            f.TBR,
			URL:            f.URL,
			FormatNote:     f.FormatNote,
			Category:       Categorize(f.VCodec, f.ACodec),
		})
	}

	title := info.Title
	if title == "" {
		title = "Unknown"
	}
	channel := info.Channel
	if channel == "" {
		channel = info.Uploader
	}
	channelURL := info.ChannelURL
	if channelURL == "" {
		channelURL = info.UploaderURL
	}
	webpageURL := info.WebpageURL
	if webpageURL == "" {
		webpageURL = url
	}

	return &task.VideoInfo{
		Title:      title,
		Thumbnail:  info.Thumbnail,
		Duration:   info.Duration,
		Channel:    channel,
		ChannelURL: channelURL,
		ViewCount:  info.ViewCount,
		UploadDate: info.UploadDate,
		WebpageURL: webpageURL,
		Formats:    formats,
	}
}
