package language

import (
	"strings"

	"golang.org/x/text/cases"
	xlang "golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// Language is one supported dubbing language.
type Language struct {
	Name   string // English name used in prompts
	Code   string // ISO 639-1
	Native string // name in the language itself
}

type entry struct {
	name string
	tag  xlang.Tag
}

var supported = []entry{
	{"Arabic", xlang.Arabic},
	{"Bengali", xlang.Bengali},
	{"Chinese", xlang.Chinese},
	{"Dutch", xlang.Dutch},
	{"English", xlang.English},
	{"French", xlang.French},
	{"German", xlang.German},
	{"Hindi", xlang.Hindi},
	{"Indonesian", xlang.Indonesian},
	{"Italian", xlang.Italian},
	{"Japanese", xlang.Japanese},
	{"Korean", xlang.Korean},
	{"Malayalam", xlang.Malayalam},
	{"Marathi", xlang.Marathi},
	{"Polish", xlang.Polish},
	{"Portuguese", xlang.Portuguese},
	{"Punjabi", xlang.Punjabi},
	{"Russian", xlang.Russian},
	{"Spanish", xlang.Spanish},
	{"Tamil", xlang.Tamil},
	{"Telugu", xlang.Telugu},
	{"Turkish", xlang.Turkish},
	{"Ukrainian", xlang.Ukrainian},
	{"Urdu", xlang.Urdu},
	{"Vietnamese", xlang.Vietnamese},
}

var (
	byName = make(map[string]*entry, len(supported))
	byBase = make(map[string]*entry, len(supported))
	titler = cases.Title(xlang.English)
)

func init() {
	for i := range supported {
		e := &supported[i]
		byName[strings.ToLower(e.name)] = e
		base, _ := e.tag.Base()
		byBase[base.String()] = e
	}
	// CLDR calls Bengali "Bangla".
	byName["bangla"] = byName["bengali"]
	byName["mandarin"] = byName["chinese"]
}

// Supported lists the languages offered for dubbing, sorted by name.
func Supported() []Language {
	out := make([]Language, 0, len(supported))
	for _, e := range supported {
		out = append(out, e.language())
	}
	return out
}

func (e *entry) language() Language {
	base, _ := e.tag.Base()
	return Language{
		Name:   e.name,
		Code:   base.String(),
		Native: display.Self.Name(e.tag),
	}
}

// Canonical maps a language name or code to the English name used in
// prompts. ok is false when the language is not in Supported; the returned
// name is then the best available English rendering of the input.
func Canonical(input string) (name string, ok bool) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return "", false
	}
	if e := lookup(trimmed); e != nil {
		return e.name, true
	}
	if tag, err := xlang.Parse(trimmed); err == nil {
		if english := display.English.Languages().Name(tag); english != "" {
			return english, false
		}
	}
	return titler.String(trimmed), false
}

// Lookup returns the supported language for a name or code.
func Lookup(input string) (Language, bool) {
	if e := lookup(strings.TrimSpace(input)); e != nil {
		return e.language(), true
	}
	return Language{}, false
}

// IsSupported reports whether input names a supported language.
func IsSupported(input string) bool {
	return lookup(strings.TrimSpace(input)) != nil
}

func lookup(value string) *entry {
	if value == "" {
		return nil
	}
	if e, ok := byName[strings.ToLower(value)]; ok {
		return e
	}
	tag, err := xlang.Parse(value)
	if err != nil {
		return nil
	}
	base, confidence := tag.Base()
	if confidence == xlang.No {
		return nil
	}
	return byBase[base.String()]
}
