// ytparser/subtitle/subtitle.go

// Package subtitle parses SRT/VTT content into timed blocks and renders
// bilingual ASS documents.
package subtitle

import (
	"fmt"
	"regexp"
	"strings"
)

// Block is one timed subtitle cue. Start/End are normalized to
// HH:MM:SS.mmm with a dot millisecond separator.
type Block struct {
	Index int
	Start string
	End   string
	Lines []string
}

var timeLineRe = regexp.MustCompile(
	`(\d{2}:\d{2}:\d{2}[.,]\d{3})\s*(?:-->|--!>)\s*(\d{2}:\d{2}:\d{2}[.,]\d{3})`)

var digitsOnlyRe = regexp.MustCompile(`^\d+$`)

// Parse splits SRT (or VTT) content into blocks. A block opens at a
// timestamp line, accumulates non-blank text lines (cue numbers and the
// WEBVTT header are skipped), and closes at a blank line or the next
// timestamp line. A trailing unterminated block is kept if it has text.
func Parse(content string) []Block {
	var blocks []Block
	var current *Block
	index := 1

	flush := func() {
		if current != nil && len(current.Lines) > 0 {
			blocks = append(blocks, *current)
		}
		current = nil
	}

	for _, line := range strings.Split(strings.TrimSpace(content), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			flush()
			continue
		}

		if m := timeLineRe.FindStringSubmatch(line); m != nil {
			flush()
			current = &Block{
				Index: index,
				Start: strings.ReplaceAll(m[1], ",", "."),
				End:   strings.ReplaceAll(m[2], ",", "."),
			}
			index++
			continue
		}

		if current != nil && !digitsOnlyRe.MatchString(line) && line != "WEBVTT" {
			current.Lines = append(current.Lines, line)
		}
	}
	flush()

	return blocks
}

// ASSTime converts an HH:MM:SS.mmm timestamp to the ASS H:MM:SS.cs
// convention: hours unpadded, milliseconds truncated to centiseconds.
// Unrecognized input is returned unchanged.
func ASSTime(ts string) string {
	parts := strings.Split(ts, ":")
	if len(parts) != 3 {
		return ts
	}
	h := strings.TrimLeft(parts[0], "0")
	if h == "" {
		h = "0"
	}
	sec, ms, _ := strings.Cut(parts[2], ".")
	cs := "00"
	if len(ms) >= 2 {
		cs = ms[:2]
	} else if len(ms) == 1 {
		cs = ms + "0"
	}
	return fmt.Sprintf("%s:%s:%s.%s", h, parts[1], sec, cs)
}

// lineBreak is the ASS soft line-break marker used both for joining cue
// lines and for stacking the bilingual pair.
const lineBreak = `\N`

// secondaryStyle dims and shrinks the original-language line under the
// translation.
const secondaryStyle = `{\fs40\c&HCCCCCC&}`

// JoinLines collapses a block's lines into the single string sent to the
// translator.
func JoinLines(b Block) string {
	return strings.Join(b.Lines, lineBreak)
}

// Bilingual replaces a block's text with the translated line on top and the
// dimmed original underneath.
func Bilingual(b *Block, translated string) {
	original := JoinLines(*b)
	b.Lines = []string{translated, secondaryStyle + original}
}

// Header returns the fixed ASS script header.
func Header(title string) string {
	return fmt.Sprintf(`[Script Info]
Title: %s
ScriptType: v4.00+
WrapStyle: 0
ScaledBorderAndShadow: yes
PlayResX: 1920
PlayResY: 1080

[V4+ Styles]
Format: Name, Fontname, Fontsize, PrimaryColour, SecondaryColour, OutlineColour, BackColour, Bold, Italic, Underline, StrikeOut, ScaleX, ScaleY, Spacing, Angle, BorderStyle, Outline, Shadow, Alignment, MarginL, MarginR, MarginV, Encoding
Style: Default,Arial,65,&H00FFFFFF,&H000000FF,&H00000000,&H00000000,-1,0,0,0,100,100,0,0,1,2,2,2,10,10,20,1

[Events]
Format: Layer, Start, End, Style, Name, MarginL, MarginR, MarginV, Effect, Text
`, title)
}

// RenderASS produces the full ASS document for the given blocks.
func RenderASS(title string, blocks []Block) string {
	var sb strings.Builder
	sb.WriteString(Header(title))
	for _, b := range blocks {
		sb.WriteString(fmt.Sprintf("Dialogue: 0,%s,%s,Default,,0,0,0,,%s\n",
			ASSTime(b.Start), ASSTime(b.End), JoinLines(b)))
	}
	return sb.String()
}
