// ytparser/ytdlp/ytdlp.go
package ytdlp

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"regexp"
	"strconv"
	"strings"

	"github.com/google/shlex"
	"go.uber.org/zap"

	"ytparser/config"
)

// ProgressFunc receives download percentages (0-100). It is invoked from the
// goroutine reading the subprocess output, not from the caller's goroutine,
// so implementations must not block.
type ProgressFunc func(pct float64)

// Options is the per-call option bag for an extraction.
type Options struct {
	Proxy          string
	POToken        string
	ContentBinding string
	OnProgress     ProgressFunc
}

// RawFormat mirrors the format entries of yt-dlp's JSON dump.
type RawFormat struct {
	FormatID       string  `json:"format_id"`
	Ext            string  `json:"ext"`
	Resolution     string  `json:"resolution"`
	FPS            float64 `json:"fps"`
	VCodec         string  `json:"vcodec"`
	ACodec         string  `json:"acodec"`
	Filesize       int64   `json:"filesize"`
	FilesizeApprox int64   `json:"filesize_approx"`
	TBR            float64 `json:"tbr"`
	URL            string  `json:"url"`
	FormatNote     string  `json:"format_note"`
}

// RawInfo mirrors the top-level fields of yt-dlp's JSON dump that this
// service consumes.
type RawInfo struct {
	Title       string      `json:"title"`
	Thumbnail   string      `json:"thumbnail"`
	Duration    float64     `json:"duration"`
	Channel     string      `json:"channel"`
	Uploader    string      `json:"uploader"`
	ChannelURL  string      `json:"channel_url"`
	UploaderURL string      `json:"uploader_url"`
	ViewCount   int64       `json:"view_count"`
	UploadDate  string      `json:"upload_date"`
	WebpageURL  string      `json:"webpage_url"`
	Formats     []RawFormat `json:"formats"`
}

// Extractor is the metadata-extraction collaborator. Extract performs one
// blocking call for a single video; ExtractEach streams one RawInfo per
// playlist entry to fn until exhaustion, error, or fn returning false.
type Extractor interface {
	Extract(ctx context.Context, url string, opts Options) (*RawInfo, error)
	ExtractEach(ctx context.Context, url string, opts Options, fn func(*RawInfo) bool) error
}

// CLI shells out to the yt-dlp binary.
type CLI struct {
	bin       string
	extraArgs []string
	log       *zap.Logger
}

func NewCLI(cfg *config.Config, log *zap.Logger) (*CLI, error) {
	if _, err := exec.LookPath(cfg.YTDLPBin); err != nil {
		return nil, fmt.Errorf("yt-dlp binary not found or not in PATH: %s", cfg.YTDLPBin)
	}
	extra, err := splitExtraArgs(cfg.YTDLPExtraArgs)
	if err != nil {
		return nil, fmt.Errorf("invalid YTDLP_EXTRA_ARGS: %w", err)
	}
	return &CLI{bin: cfg.YTDLPBin, extraArgs: extra, log: log}, nil
}

// splitExtraArgs shell-splits the operator-supplied extra argument string.
func splitExtraArgs(raw string) ([]string, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	return shlex.Split(raw)
}

func (c *CLI) buildArgs(url string, opts Options, streaming bool) []string {
	args := []string{"--no-warnings", "--skip-download"}
	if streaming {
		// One JSON object per playlist entry, unavailable entries skipped.
		args = append(args, "-j", "--ignore-errors")
	} else {
		args = append(args, "-J", "--no-playlist")
	}
	if opts.Proxy != "" {
		args = append(args, "--proxy", opts.Proxy)
	}
	if opts.POToken != "" {
		extractorArg := "youtube:po_token=web+" + opts.POToken
		if opts.ContentBinding != "" {
			extractorArg += ";visitor_data=" + opts.ContentBinding
		}
		args = append(args, "--extractor-args", extractorArg)
	}
	args = append(args, c.extraArgs...)
	args = append(args, url)
	return args
}

var progressRe = regexp.MustCompile(`\[download\]\s+([0-9.]+)%`)

// parseProgress extracts the percentage from a yt-dlp "[download]  42.3% ..."
// line; ok is false for any other line.
func parseProgress(line string) (float64, bool) {
	m := progressRe.FindStringSubmatch(line)
	if m == nil {
		return 0, false
	}
	pct, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, false
	}
	return pct, true
}

// scanStderr feeds progress lines to the hook and keeps the last non-empty
// line for error reporting.
func (c *CLI) scanStderr(scanner *bufio.Scanner, onProgress ProgressFunc) string {
	var lastLine string
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		lastLine = line
		if pct, ok := parseProgress(line); ok && onProgress != nil {
			onProgress(pct)
		}
	}
	return lastLine
}

func (c *CLI) Extract(ctx context.Context, url string, opts Options) (*RawInfo, error) {
	args := c.buildArgs(url, opts, false)
	cmd := exec.CommandContext(ctx, c.bin, args...)

	var stdout bytes.Buffer
	cmd.Stdout = &stdout
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, err
	}

	c.log.Debug("running extractor", zap.String("url", url))
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start yt-dlp: %w", err)
	}

	errScanner := bufio.NewScanner(stderr)
	lastErrLine := c.scanStderr(errScanner, opts.OnProgress)

	if err := cmd.Wait(); err != nil {
		if lastErrLine != "" {
			return nil, fmt.Errorf("yt-dlp failed: %s", lastErrLine)
		}
		return nil, fmt.Errorf("yt-dlp failed: %w", err)
	}

	var info RawInfo
	if err := json.Unmarshal(stdout.Bytes(), &info); err != nil {
		return nil, fmt.Errorf("could not decode yt-dlp output: %w", err)
	}
	return &info, nil
}

func (c *CLI) ExtractEach(ctx context.Context, url string, opts Options, fn func(*RawInfo) bool) error {
	// Own the subprocess lifetime so an abandoned consumer kills it.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	args := c.buildArgs(url, opts, true)
	cmd := exec.CommandContext(ctx, c.bin, args...)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return err
	}
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start yt-dlp: %w", err)
	}

	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 1024*1024), 128*1024*1024)

	entries := 0
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var info RawInfo
		if err := json.Unmarshal(line, &info); err != nil {
			c.log.Warn("skipping undecodable playlist entry", zap.Error(err))
			continue
		}
		entries++
		if !fn(&info) {
			cancel()
			_ = cmd.Wait()
			return nil
		}
	}

	if err := cmd.Wait(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("yt-dlp failed: %s", strings.TrimSpace(stderr.String()))
	}
	if entries == 0 {
		return fmt.Errorf("no extractable entries for %s", url)
	}
	return nil
}
