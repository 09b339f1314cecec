package main

import (
	"fmt"
	"strings"

	"dubber/internal/language"
	"dubber/internal/services"
)

// resolveLanguages picks flag values over config defaults and maps both to
// the English names used in prompts.
func resolveLanguages(inputFlag, outputFlag, inputDefault, outputDefault string) (string, string, error) {
	input := strings.TrimSpace(inputFlag)
	if input == "" {
		input = strings.TrimSpace(inputDefault)
	}
	output := strings.TrimSpace(outputFlag)
	if output == "" {
		output = strings.TrimSpace(outputDefault)
	}
	if input == "" {
		return "", "", services.Wrap(services.ErrValidation, "", "languages", "an input language is required (--input-language or languages.input)", nil)
	}
	if output == "" {
		return "", "", services.Wrap(services.ErrValidation, "", "languages", "an output language is required (--output-language or languages.output)", nil)
	}

	inputName, ok := language.Canonical(input)
	if !ok {
		return "", "", services.Wrap(services.ErrValidation, "", "languages", fmt.Sprintf("unsupported input language %q (see 'dubber languages')", input), nil)
	}
	input = inputName
	name, ok := language.Canonical(output)
	if !ok {
		return "", "", services.Wrap(services.ErrValidation, "", "languages", fmt.Sprintf("unsupported output language %q (see 'dubber languages')", output), nil)
	}
	if name == input {
		return "", "", services.Wrap(services.ErrValidation, "", "languages", fmt.Sprintf("input and output language are both %s", name), nil)
	}
	return input, name, nil
}
