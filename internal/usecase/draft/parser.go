package draft

import (
	"encoding/json"
	"fmt"
	"strings"

	apperrors "github.com/johnquangdev/meeting-followup/errors"
	"github.com/johnquangdev/meeting-followup/internal/domain/entities"
)

// GenerationResult is the structured schema the generation model is asked
// to produce.
type GenerationResult struct {
	Summary      string                     `json:"summary"`
	Topics       []string                   `json:"topics"`
	Decisions    []string                   `json:"decisions"`
	Subject      string                     `json:"subject"`
	Body         string                     `json:"body"`
	ActionItems  []entities.DraftActionItem `json:"action_items"`
	DetectedType string                     `json:"detected_type"`
	Tone         string                     `json:"tone"`
}

// ParseResponse parses a model response. The primary path expects the JSON
// schema, possibly wrapped in markdown fences. When that fails a
// line-oriented fallback recovers at minimum subject and body, so a
// malformed response degrades instead of losing the draft.
func ParseResponse(raw string) (*GenerationResult, bool, error) {
	cleaned := extractJSON(raw)

	var result GenerationResult
	if err := json.Unmarshal([]byte(cleaned), &result); err == nil {
		if result.Subject != "" && result.Body != "" {
			return &result, false, nil
		}
	}

	fallback, ok := parseLineOriented(raw)
	if !ok {
		return nil, false, apperrors.ErrDraftParse(fmt.Errorf("response matches neither JSON schema nor subject/body layout"))
	}
	return fallback, true, nil
}

// parseLineOriented scans for a "Subject:" line and treats everything after
// it as the body.
func parseLineOriented(raw string) (*GenerationResult, bool) {
	lines := strings.Split(strings.ReplaceAll(raw, "\r\n", "\n"), "\n")

	subjectIdx := -1
	var subject string
	for i, line := range lines {
		trimmed := strings.TrimSpace(strings.Trim(strings.TrimSpace(line), "*#"))
		lower := strings.ToLower(trimmed)
		if strings.HasPrefix(lower, "subject:") {
			subject = strings.TrimSpace(trimmed[len("subject:"):])
			subjectIdx = i
			break
		}
	}
	if subjectIdx == -1 || subject == "" {
		return nil, false
	}

	body := strings.TrimSpace(strings.Join(lines[subjectIdx+1:], "\n"))
	body = strings.TrimPrefix(body, "Body:")
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, false
	}

	return &GenerationResult{Subject: subject, Body: body}, true
}

// extractJSON strips markdown code fences from a model response.
func extractJSON(content string) string {
	content = strings.TrimSpace(content)

	if strings.HasPrefix(content, "```json") {
		content = strings.TrimPrefix(content, "```json")
		if idx := strings.LastIndex(content, "```"); idx != -1 {
			content = content[:idx]
		}
	} else if strings.HasPrefix(content, "```") {
		content = strings.TrimPrefix(content, "```")
		if idx := strings.LastIndex(content, "```"); idx != -1 {
			content = content[:idx]
		}
	}

	return strings.TrimSpace(content)
}
