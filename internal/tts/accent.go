package tts

import "strings"

const defaultEnglishAccent = "Indian English"

var regionalEnglish = []struct {
	marker string
	accent string
}{
	{"british", "British English"},
	{"american", "American English"},
	{"australian", "Australian English"},
	{"canadian", "Canadian English"},
}

// AccentSpecification names the accent the voice should use for language.
// Unqualified English resolves to Indian English; other languages are
// returned as given.
func AccentSpecification(language string) string {
	trimmed := strings.TrimSpace(language)
	lower := strings.ToLower(trimmed)
	switch lower {
	case "english", "english (indian)", "indian english":
		return defaultEnglishAccent
	}
	for _, r := range regionalEnglish {
		if strings.Contains(lower, r.marker) {
			return r.accent
		}
	}
	if strings.Contains(lower, "english") {
		return defaultEnglishAccent
	}
	return trimmed
}

func isEnglish(language string) bool {
	return strings.Contains(strings.ToLower(language), "english")
}
