package script

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"dubber/internal/services"
)

// ErrEmptyScript reports a response that decoded to zero segments.
var ErrEmptyScript = errors.New("script has no segments")

// Parse decodes a model completion into a validated, start-ordered Script.
// The completion may be wrapped in a Markdown code fence or surrounded by
// prose. Translation keys that match outputLanguage case-insensitively are
// re-keyed to outputLanguage. Every failure is tagged with
// services.ErrValidation.
func Parse(content, outputLanguage string) (*Script, error) {
	payload := extractJSONArray(content)
	if payload == "" {
		return nil, services.Wrap(services.ErrValidation, "analyzing", "parse script", "empty response", nil)
	}

	var elements []json.RawMessage
	if err := json.Unmarshal([]byte(payload), &elements); err != nil {
		return nil, services.Wrap(services.ErrValidation, "analyzing", "parse script",
			fmt.Sprintf("response is not a JSON array (snippet: %s)", summarizeSnippet(payload)), err)
	}
	if len(elements) == 0 {
		return nil, services.Wrap(services.ErrValidation, "analyzing", "parse script", "", ErrEmptyScript)
	}

	segments := make([]Segment, 0, len(elements))
	for i, raw := range elements {
		var seg Segment
		if err := json.Unmarshal(raw, &seg); err != nil {
			return nil, services.Wrap(services.ErrValidation, "analyzing", "parse script", fmt.Sprintf("segment %d", i), err)
		}
		if err := seg.Validate(); err != nil {
			return nil, services.Wrap(services.ErrValidation, "analyzing", "parse script", fmt.Sprintf("segment %d", i), err)
		}
		canonicalizeTranslation(&seg, outputLanguage)
		segments = append(segments, seg)
	}

	s := &Script{Segments: segments}
	s.SortByStart()
	return s, nil
}

func canonicalizeTranslation(seg *Segment, language string) {
	language = strings.TrimSpace(language)
	if language == "" || seg.Translations == nil {
		return
	}
	if _, ok := seg.Translations[language]; ok {
		return
	}
	for key, text := range seg.Translations {
		if strings.EqualFold(key, language) {
			delete(seg.Translations, key)
			seg.Translations[language] = text
			return
		}
	}
}

// extractJSONArray strips a surrounding code fence and any prose outside the
// outermost brackets.
func extractJSONArray(content string) string {
	trimmed := stripCodeFence(content)
	if trimmed == "" || trimmed[0] == '[' {
		return trimmed
	}
	start := strings.Index(trimmed, "[")
	end := strings.LastIndex(trimmed, "]")
	if start >= 0 && end > start {
		return strings.TrimSpace(trimmed[start : end+1])
	}
	return trimmed
}

func stripCodeFence(content string) string {
	trimmed := strings.TrimSpace(content)
	start := strings.Index(trimmed, "```")
	if start < 0 {
		return trimmed
	}
	body := trimmed[start+3:]
	if nl := strings.IndexAny(body, "\r\n"); nl >= 0 && isFenceTag(body[:nl]) {
		body = body[nl+1:]
	} else if len(body) >= 4 && strings.EqualFold(body[:4], "json") {
		body = body[4:]
	}
	if idx := strings.LastIndex(body, "```"); idx >= 0 {
		body = body[:idx]
	}
	return strings.TrimSpace(body)
}

func isFenceTag(line string) bool {
	tag := strings.TrimSpace(line)
	if tag == "" {
		return true
	}
	for _, r := range tag {
		if (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') {
			return false
		}
	}
	return true
}

func summarizeSnippet(content string) string {
	const limit = 160
	flat := strings.Join(strings.Fields(content), " ")
	if len(flat) <= limit {
		return flat
	}
	return flat[:limit] + "..."
}
