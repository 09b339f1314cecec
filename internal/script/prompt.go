package script

import (
	_ "embed"
	"strings"
)

//go:embed analysis_prompt.txt
var defaultAnalysisPrompt string

// DefaultAnalysisPrompt returns the built-in analysis prompt template.
func DefaultAnalysisPrompt() string {
	return defaultAnalysisPrompt
}

// RenderPrompt substitutes {INPUT_LANGUAGE} and {OUTPUT_LANGUAGE} in template
// and collapses doubled braces to literal ones. An empty template renders the
// built-in prompt.
func RenderPrompt(template, inputLanguage, outputLanguage string) string {
	if strings.TrimSpace(template) == "" {
		template = defaultAnalysisPrompt
	}
	r := strings.NewReplacer(
		"{INPUT_LANGUAGE}", inputLanguage,
		"{OUTPUT_LANGUAGE}", outputLanguage,
		"{{", "{",
		"}}", "}",
	)
	return strings.TrimSpace(r.Replace(template))
}
