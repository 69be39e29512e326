package transcript

import (
	"strings"
	"testing"

	apperrors "github.com/johnquangdev/meeting-followup/errors"
)

const sampleTrack = `WEBVTT

1
00:00:01.000 --> 00:00:04.000
Alice: Good morning everyone, let's get started.

2
00:00:04.500 --> 00:00:07.000
Alice: First item is the launch date.

3
00:00:07.500 --> 00:00:11.000
Bob: I think we should push it a week.

4
00:00:11.500 --> 00:00:14.000
Alice: Agreed, let's do that.
`

func TestParseMergesSameSpeakerCues(t *testing.T) {
	res, err := Parse(sampleTrack)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	// Alice x2 merged, Bob, Alice: three alternation boundaries.
	if len(res.Segments) != 3 {
		t.Fatalf("segments = %d, want 3", len(res.Segments))
	}
	if res.Segments[0].Speaker != "Alice" || res.Segments[1].Speaker != "Bob" || res.Segments[2].Speaker != "Alice" {
		t.Fatalf("speaker order wrong: %+v", res.Segments)
	}
	if res.Segments[0].Start != 1.0 || res.Segments[0].End != 7.0 {
		t.Fatalf("merged segment bounds = [%v, %v], want [1, 7]", res.Segments[0].Start, res.Segments[0].End)
	}
	if !strings.Contains(res.Segments[0].Text, "get started") || !strings.Contains(res.Segments[0].Text, "launch date") {
		t.Fatalf("merged text incomplete: %q", res.Segments[0].Text)
	}
}

func TestParseWordCount(t *testing.T) {
	res, err := Parse(sampleTrack)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	want := len(strings.Fields(res.FullText))
	if res.WordCount != want {
		t.Fatalf("wordCount = %d, want %d", res.WordCount, want)
	}
	if res.WordCount != 24 {
		t.Fatalf("wordCount = %d, want 24", res.WordCount)
	}
}

func TestParseWithoutSpeakerPrefix(t *testing.T) {
	raw := `1
00:00:00.000 --> 00:00:02.000
hello there

2
00:00:02.000 --> 00:00:04.000
general kenobi
`
	res, err := Parse(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(res.Segments) != 1 {
		t.Fatalf("segments = %d, want 1 (both unattributed)", len(res.Segments))
	}
	if res.Segments[0].Speaker != "" {
		t.Fatalf("speaker = %q, want empty", res.Segments[0].Speaker)
	}
	if res.WordCount != 4 {
		t.Fatalf("wordCount = %d, want 4", res.WordCount)
	}
}

func TestParseMultilineCue(t *testing.T) {
	raw := `1
00:00:00.000 --> 00:00:05.000
Carol: This cue spans
two text lines.
`
	res, err := Parse(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if res.Segments[0].Text != "This cue spans two text lines." {
		t.Fatalf("text = %q", res.Segments[0].Text)
	}
}

func TestParseTimestampFormats(t *testing.T) {
	cases := []struct {
		in   string
		want float64
	}{
		{"00:00:01.000", 1},
		{"00:01:30.500", 90.5},
		{"01:00:00.000", 3600},
		{"05:30.000", 330},
		{"00:00:02,500", 2.5},
	}
	for _, tc := range cases {
		got, err := parseTimestamp(tc.in)
		if err != nil {
			t.Errorf("parseTimestamp(%q): %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("parseTimestamp(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestParseMalformedTimestampLineIsError(t *testing.T) {
	tracks := []string{
		"--> 00:00:02.000\nAlice: hello there\n",
		"00:00:01.000 -->\nAlice: hello there\n",
		"-->\nAlice: hello there\n",
	}
	for _, raw := range tracks {
		_, err := Parse(raw)
		if err == nil {
			t.Errorf("Parse(%q) succeeded, want error", raw)
			continue
		}
		if apperrors.ClassOf(err) != apperrors.ClassMalformed {
			t.Errorf("Parse(%q) error class = %v, want malformed", raw, apperrors.ClassOf(err))
		}
	}
}

func TestParseRejectsEmptyTrack(t *testing.T) {
	for _, raw := range []string{"", "WEBVTT\n\n", "no cues here at all"} {
		if _, err := Parse(raw); err == nil {
			t.Errorf("Parse(%q) succeeded, want error", raw)
		}
	}
}

func TestSplitSpeaker(t *testing.T) {
	cases := []struct {
		line    string
		speaker string
		text    string
	}{
		{"Alice: hi there", "Alice", "hi there"},
		{"no speaker here", "", "no speaker here"},
		{"Warning: this is not a speaker. Really: not", "Warning", "this is not a speaker. Really: not"},
		{": leading colon", "", ": leading colon"},
	}
	for _, tc := range cases {
		speaker, text := splitSpeaker(tc.line)
		if speaker != tc.speaker || text != tc.text {
			t.Errorf("splitSpeaker(%q) = (%q, %q), want (%q, %q)", tc.line, speaker, text, tc.speaker, tc.text)
		}
	}
}
