// ytparser/task/task.go
package task

import "time"

type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Terminal reports whether the status admits no further transitions.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

type Kind string

const (
	KindAnalyze   Kind = "analyze"
	KindTranslate Kind = "translate"
)

// Task is the persisted record of one asynchronous job. Exactly one of
// Result/Error is set once the task reaches a terminal status; after that
// the owning runner makes no further writes.
type Task struct {
	ID        string    `json:"task_id"`
	Kind      Kind      `json:"kind"`
	Status    Status    `json:"status"`
	Progress  float64   `json:"progress"`
	Result    *Result   `json:"result,omitempty"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Result is a tagged union keyed by the task kind: analyze tasks carry a
// Video payload, translate tasks a Subtitle payload. Stored as-is; the API
// layer flattens it via Payload so clients see a single polymorphic field.
type Result struct {
	Video    *VideoInfo        `json:"video,omitempty"`
	Subtitle *SubtitleArtifact `json:"subtitle,omitempty"`
}

// Payload returns whichever variant is set, for serialization at the API
// boundary.
func (r *Result) Payload() interface{} {
	if r == nil {
		return nil
	}
	if r.Video != nil {
		return r.Video
	}
	if r.Subtitle != nil {
		return r.Subtitle
	}
	return nil
}

// VideoFormat is one downloadable format of an analyzed video.
type VideoFormat struct {
	FormatID       string  `json:"format_id"`
	Ext            string  `json:"ext"`
	Resolution     string  `json:"resolution,omitempty"`
	FPS            float64 `json:"fps,omitempty"`
	VCodec         string  `json:"vcodec,omitempty"`
	ACodec         string  `json:"acodec,omitempty"`
	Filesize       int64   `json:"filesize,omitempty"`
	FilesizeApprox int64   `json:"filesize_approx,omitempty"`
	TBR            float64 `json:"tbr,omitempty"` // total bitrate, kbps
	URL            string  `json:"url,omitempty"`
	FormatNote     string  `json:"format_note,omitempty"`
	Category       string  `json:"category"` // muxed / video_only / audio_only / unknown
}

// VideoInfo is the analyze-task result payload.
type VideoInfo struct {
	Title      string        `json:"title"`
	Thumbnail  string        `json:"thumbnail,omitempty"`
	Duration   float64       `json:"duration,omitempty"` // seconds
	Channel    string        `json:"channel,omitempty"`
	ChannelURL string        `json:"channel_url,omitempty"`
	ViewCount  int64         `json:"view_count,omitempty"`
	UploadDate string        `json:"upload_date,omitempty"`
	WebpageURL string        `json:"webpage_url"`
	Formats    []VideoFormat `json:"formats"`
}

// SubtitleArtifact is the translate-task result payload, describing the
// rendered ASS file on disk.
type SubtitleArtifact struct {
	OutputPath string `json:"output_path"`
	OutputName string `json:"output_name"`
	SourcePath string `json:"source_path"`
	Format     string `json:"format"`
}
