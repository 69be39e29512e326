package transcript

import (
	"fmt"
	"strconv"
	"strings"

	apperrors "github.com/johnquangdev/meeting-followup/errors"
	"github.com/johnquangdev/meeting-followup/internal/domain/entities"
)

// ParseResult holds the normalized output of one caption track.
type ParseResult struct {
	FullText  string
	Segments  []entities.SpeakerSegment
	WordCount int
}

// cue is one numbered caption entry before speaker merging.
type cue struct {
	start   float64
	end     float64
	speaker string
	text    string
}

// Parse normalizes a caption track: sequential numbered cues, each with a
// start/end timestamp line and one or more text lines, optionally prefixed
// "Speaker: text". Consecutive cues from the same speaker merge into one
// segment. WordCount is the whitespace-token count of the full text.
func Parse(raw string) (*ParseResult, error) {
	raw = strings.ReplaceAll(raw, "\r\n", "\n")
	lines := strings.Split(raw, "\n")

	var cues []cue
	var current *cue
	for _, line := range lines {
		line = strings.TrimSpace(line)
		switch {
		case line == "" || strings.HasPrefix(line, "WEBVTT") || strings.HasPrefix(line, "NOTE"):
			if current != nil && current.text != "" {
				cues = append(cues, *current)
				current = nil
			}
		case strings.Contains(line, "-->"):
			start, end, err := parseTimestampLine(line)
			if err != nil {
				return nil, apperrors.ErrTranscriptParse(err)
			}
			current = &cue{start: start, end: end}
		case isCueIndex(line):
			// sequence number between cues, nothing to record
		default:
			if current == nil {
				// text outside any cue, tolerate leading garbage
				continue
			}
			speaker, text := splitSpeaker(line)
			if current.speaker == "" {
				current.speaker = speaker
			}
			if current.text != "" {
				current.text += " "
			}
			current.text += text
		}
	}
	if current != nil && current.text != "" {
		cues = append(cues, *current)
	}

	if len(cues) == 0 {
		return nil, apperrors.ErrTranscriptParse(fmt.Errorf("no cues found in %d lines", len(lines)))
	}

	var segments []entities.SpeakerSegment
	var parts []string
	for _, c := range cues {
		parts = append(parts, c.text)
		if n := len(segments); n > 0 && segments[n-1].Speaker == c.speaker {
			segments[n-1].End = c.end
			segments[n-1].Text += " " + c.text
			continue
		}
		segments = append(segments, entities.SpeakerSegment{
			Speaker: c.speaker,
			Start:   c.start,
			End:     c.end,
			Text:    c.text,
		})
	}

	fullText := strings.Join(parts, " ")
	return &ParseResult{
		FullText:  fullText,
		Segments:  segments,
		WordCount: len(strings.Fields(fullText)),
	}, nil
}

func isCueIndex(line string) bool {
	if line == "" {
		return false
	}
	for _, r := range line {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// splitSpeaker pulls a "Speaker: text" prefix apart. A colon too far into
// the line is treated as sentence punctuation, not a speaker label.
func splitSpeaker(line string) (speaker, text string) {
	idx := strings.Index(line, ":")
	if idx <= 0 || idx > 40 {
		return "", line
	}
	candidate := strings.TrimSpace(line[:idx])
	rest := strings.TrimSpace(line[idx+1:])
	if candidate == "" || rest == "" || strings.ContainsAny(candidate, ".!?") {
		return "", line
	}
	return candidate, rest
}

func parseTimestampLine(line string) (float64, float64, error) {
	parts := strings.SplitN(line, "-->", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("malformed timestamp line: %q", line)
	}
	startFields := strings.Fields(strings.TrimSpace(parts[0]))
	if len(startFields) == 0 {
		return 0, 0, fmt.Errorf("missing start timestamp: %q", line)
	}
	start, err := parseTimestamp(startFields[0])
	if err != nil {
		return 0, 0, err
	}
	endFields := strings.Fields(strings.TrimSpace(parts[1]))
	if len(endFields) == 0 {
		return 0, 0, fmt.Errorf("missing end timestamp: %q", line)
	}
	end, err := parseTimestamp(endFields[0])
	if err != nil {
		return 0, 0, err
	}
	return start, end, nil
}

// parseTimestamp converts "HH:MM:SS.mmm" (hours optional) to seconds.
func parseTimestamp(ts string) (float64, error) {
	ts = strings.ReplaceAll(ts, ",", ".")
	parts := strings.Split(ts, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, fmt.Errorf("malformed timestamp: %q", ts)
	}
	var total float64
	for _, p := range parts {
		v, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return 0, fmt.Errorf("malformed timestamp component %q: %w", p, err)
		}
		total = total*60 + v
	}
	return total, nil
}
