// ytparser/worker/translate.go
package worker

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
	"resty.dev/v3"

	"ytparser/config"
	"ytparser/subtitle"
	"ytparser/task"
)

// translateBatchSize is the number of blocks sent to the LLM per request.
const translateBatchSize = 50

const fetchTimeout = 30 * time.Second

// TextTranslator is the translation collaborator: equal-length output,
// originals substituted on any failure.
type TextTranslator interface {
	Translate(ctx context.Context, texts []string) []string
}

// Translator builds translate jobs: fetch subtitle content, translate it in
// batches, and render a bilingual ASS artifact to disk.
type Translator struct {
	cfg  *config.Config
	llm  TextTranslator
	http *resty.Client
	log  *zap.Logger
}

func NewTranslator(cfg *config.Config, llm TextTranslator, log *zap.Logger) *Translator {
	client := resty.New().SetTimeout(fetchTimeout)
	if cfg.GlobalProxy != "" {
		client.SetProxy(cfg.GlobalProxy)
	}
	return &Translator{cfg: cfg, llm: llm, http: client, log: log}
}

// fetchContent retrieves the subtitle source, either over HTTP (redirects
// followed) or from the local filesystem, enforcing the configured size cap.
func (w *Translator) fetchContent(ctx context.Context, src string) (string, error) {
	if strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://") {
		resp, err := w.http.R().SetContext(ctx).SetDoNotParseResponse(true).Get(src)
		if err != nil {
			return "", fmt.Errorf("failed to fetch subtitle: %w", err)
		}
		defer resp.Body.Close()
		if resp.IsError() {
			return "", fmt.Errorf("failed to fetch subtitle: status %d", resp.StatusCode())
		}
		// Read at most one byte past the cap so an oversized body is
		// rejected without ever being buffered whole.
		data, err := io.ReadAll(io.LimitReader(resp.Body, w.cfg.MaxSubtitleSize+1))
		if err != nil {
			return "", fmt.Errorf("failed to fetch subtitle: %w", err)
		}
		if int64(len(data)) > w.cfg.MaxSubtitleSize {
			return "", fmt.Errorf("subtitle exceeds size limit of %d bytes", w.cfg.MaxSubtitleSize)
		}
		return string(data), nil
	}

	info, err := os.Stat(src)
	if err != nil {
		return "", fmt.Errorf("local file not found: %s", src)
	}
	if info.Size() > w.cfg.MaxSubtitleSize {
		return "", fmt.Errorf("subtitle exceeds size limit of %d bytes", w.cfg.MaxSubtitleSize)
	}
	data, err := os.ReadFile(src)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// OutputName derives the artifact filename from the source basename plus a
// short task-id suffix.
func OutputName(src, taskID string) string {
	base := filepath.Base(src)
	if strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://") {
		if u, err := url.Parse(src); err == nil {
			base = path.Base(u.Path)
		}
	}
	name := strings.TrimSuffix(base, filepath.Ext(base))
	if name == "" || name == "." || name == "/" {
		name = taskID
	}
	suffix := taskID
	if len(suffix) > 6 {
		suffix = suffix[:6]
	}
	return fmt.Sprintf("%s_%s.ass", name, suffix)
}

// Job returns the runner job body for one translate task.
func (w *Translator) Job(src, taskID string) task.JobFunc {
	return func(ctx context.Context, report func(float64)) (*task.Result, error) {
		content, err := w.fetchContent(ctx, src)
		if err != nil {
			return nil, err
		}

		blocks := subtitle.Parse(content)
		if len(blocks) == 0 {
			return nil, fmt.Errorf("could not parse subtitle content as SRT/VTT")
		}
		report(10)

		total := len(blocks)
		for i := 0; i < total; i += translateBatchSize {
			end := i + translateBatchSize
			if end > total {
				end = total
			}
			batch := blocks[i:end]

			texts := make([]string, len(batch))
			for j, b := range batch {
				texts[j] = subtitle.JoinLines(b)
			}

			translated := w.llm.Translate(ctx, texts)
			if len(translated) != len(texts) {
				// A misbehaving collaborator degrades to originals.
				translated = texts
			}
			for j := range batch {
				subtitle.Bilingual(&blocks[i+j], translated[j])
			}

			report(10 + 90*float64(end)/float64(total))
		}

		doc := subtitle.RenderASS("Translated Subtitles", blocks)

		if err := os.MkdirAll(w.cfg.DownloadDir, 0o755); err != nil {
			return nil, fmt.Errorf("could not create download dir: %w", err)
		}
		outName := OutputName(src, taskID)
		outPath := filepath.Join(w.cfg.DownloadDir, outName)
		if err := os.WriteFile(outPath, []byte(doc), 0o644); err != nil {
			return nil, fmt.Errorf("could not write artifact: %w", err)
		}
		absPath, err := filepath.Abs(outPath)
		if err != nil {
			absPath = outPath
		}

		w.log.Info("translation artifact written",
			zap.String("task_id", taskID), zap.String("path", absPath))

		return &task.Result{Subtitle: &task.SubtitleArtifact{
			OutputPath: absPath,
			OutputName: outName,
			SourcePath: src,
			Format:     "ass",
		}}, nil
	}
}
