package draft

import (
	"strings"
	"testing"
)

func TestParseResponseJSON(t *testing.T) {
	raw := `{"summary": "We agreed on the launch date.", "topics": ["launch"], "decisions": ["push one week"], "subject": "Launch follow-up", "body": "Hi team, ...", "action_items": [{"title": "Update the roadmap", "owner": "Bob"}], "detected_type": "planning", "tone": "professional"}`

	res, degraded, err := ParseResponse(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if degraded {
		t.Fatal("well-formed JSON flagged as degraded")
	}
	if res.Subject != "Launch follow-up" || res.Body != "Hi team, ..." {
		t.Fatalf("subject/body wrong: %q / %q", res.Subject, res.Body)
	}
	if len(res.ActionItems) != 1 || res.ActionItems[0].Owner != "Bob" {
		t.Fatalf("action items wrong: %+v", res.ActionItems)
	}
}

func TestParseResponseStripsMarkdownFences(t *testing.T) {
	raw := "```json\n{\"subject\": \"S\", \"body\": \"B\", \"summary\": \"x\"}\n```"
	res, degraded, err := ParseResponse(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if degraded || res.Subject != "S" || res.Body != "B" {
		t.Fatalf("fenced JSON mishandled: degraded=%v %+v", degraded, res)
	}
}

func TestParseResponseLineFallback(t *testing.T) {
	raw := `Here is your follow-up email.

Subject: Notes from today's sync

Hi everyone,

Thanks for joining. Key decisions below.

Best,
Alice`

	res, degraded, err := ParseResponse(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !degraded {
		t.Fatal("line-oriented response not flagged degraded")
	}
	if res.Subject != "Notes from today's sync" {
		t.Fatalf("subject = %q", res.Subject)
	}
	if !strings.Contains(res.Body, "Thanks for joining") || !strings.Contains(res.Body, "Best,") {
		t.Fatalf("body incomplete: %q", res.Body)
	}
}

func TestParseResponseJSONMissingBodyFallsBack(t *testing.T) {
	// Valid JSON, but no usable body. The fallback cannot recover either.
	raw := `{"summary": "only a summary"}`
	if _, _, err := ParseResponse(raw); err == nil {
		t.Fatal("expected parse failure")
	}
}

func TestParseResponseGarbageFails(t *testing.T) {
	for _, raw := range []string{"", "complete nonsense", "Subject:\n\n"} {
		if _, _, err := ParseResponse(raw); err == nil {
			t.Errorf("ParseResponse(%q) succeeded, want error", raw)
		}
	}
}
