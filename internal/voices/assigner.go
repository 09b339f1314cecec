package voices

import (
	"strings"

	"dubber/internal/config"
	"dubber/internal/script"
)

// DefaultFallback is used when no pool covers a speaker's character type.
const DefaultFallback = "Leda"

// Pools holds the voice lists per character type.
type Pools map[script.CharacterType][]string

// Assigner casts voices for a script.
type Assigner struct {
	pools    Pools
	fallback string
}

// NewAssigner builds an assigner from explicit pools.
func NewAssigner(pools Pools, fallback string) *Assigner {
	fallback = strings.TrimSpace(fallback)
	if fallback == "" {
		fallback = DefaultFallback
	}
	copied := make(Pools, len(pools))
	for kind, voices := range pools {
		cleaned := make([]string, 0, len(voices))
		for _, v := range voices {
			if v = strings.TrimSpace(v); v != "" {
				cleaned = append(cleaned, v)
			}
		}
		if len(cleaned) > 0 {
			copied[kind] = cleaned
		}
	}
	return &Assigner{pools: copied, fallback: fallback}
}

// NewFromConfig builds an assigner from the [voices] section.
func NewFromConfig(cfg config.Voices) *Assigner {
	return NewAssigner(Pools{
		script.CharacterMale:    cfg.Male,
		script.CharacterFemale:  cfg.Female,
		script.CharacterChild:   cfg.Child,
		script.CharacterElderly: cfg.Elderly,
	}, cfg.Fallback)
}

// Fallback returns the voice used for uncovered types and unknown speakers.
func (a *Assigner) Fallback() string {
	return a.fallback
}

// Assign casts every speaker in s. A speaker's character type is taken from
// their last segment in script order.
func (a *Assigner) Assign(s *script.Script) Assignment {
	out := Assignment{
		voices:   make(map[string]string),
		kinds:    make(map[string]script.CharacterType),
		fallback: a.fallback,
	}
	if s == nil {
		return out
	}
	for _, seg := range s.Segments {
		out.kinds[seg.SpeakerLabel] = seg.CharacterType
	}
	counters := make(map[script.CharacterType]int)
	for _, speaker := range s.Speakers() {
		kind := out.kinds[speaker]
		pool := a.pools[kind]
		if len(pool) == 0 {
			out.voices[speaker] = a.fallback
			continue
		}
		out.voices[speaker] = pool[counters[kind]%len(pool)]
		counters[kind]++
	}
	out.order = s.Speakers()
	return out
}

// Assignment is the immutable speaker to voice mapping for one run.
type Assignment struct {
	voices   map[string]string
	kinds    map[string]script.CharacterType
	order    []string
	fallback string
}

// Voice returns the voice cast for speaker, or the fallback.
func (a Assignment) Voice(speaker string) string {
	if v, ok := a.voices[speaker]; ok {
		return v
	}
	if a.fallback == "" {
		return DefaultFallback
	}
	return a.fallback
}

// Entry is one row of an assignment.
type Entry struct {
	Speaker       string
	CharacterType script.CharacterType
	Voice         string
}

// Entries lists the assignment in speaker order.
func (a Assignment) Entries() []Entry {
	out := make([]Entry, 0, len(a.order))
	for _, speaker := range a.order {
		out = append(out, Entry{Speaker: speaker, CharacterType: a.kinds[speaker], Voice: a.voices[speaker]})
	}
	return out
}

// Len reports the number of cast speakers.
func (a Assignment) Len() int {
	return len(a.voices)
}
