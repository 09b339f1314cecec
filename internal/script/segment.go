package script

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

const translationSuffix = "_translation"

// Segment is one timed line of dialogue.
type Segment struct {
	StartTime          float64
	EndTime            float64
	SpeakerLabel       string
	CharacterType      CharacterType
	Emotion            Emotion
	EmotionIntensity   Intensity
	DeliveryStyle      DeliveryStyle
	Pace               Pace
	Intonation         Intonation
	VoiceQuality       VoiceQuality
	NaturalPauses      string
	ProsodicNotes      string
	OriginalTranscript string
	// Translations is keyed by language name as it appears in the
	// "<Language>_translation" JSON key.
	Translations map[string]string
}

// StartMillis returns the start offset truncated to whole milliseconds.
func (s Segment) StartMillis() int {
	return int(s.StartTime * 1000)
}

// EndMillis returns the end offset truncated to whole milliseconds.
func (s Segment) EndMillis() int {
	return int(s.EndTime * 1000)
}

// DurationMillis is the slot length the synthesized line must fill.
func (s Segment) DurationMillis() int {
	return s.EndMillis() - s.StartMillis()
}

// Translation returns the text for language, matching the key exactly first
// and then case-insensitively.
func (s Segment) Translation(language string) (string, bool) {
	if text, ok := s.Translations[language]; ok {
		return text, true
	}
	for key, text := range s.Translations {
		if strings.EqualFold(key, language) {
			return text, true
		}
	}
	return "", false
}

// Validate checks the timing and speaker invariants.
func (s Segment) Validate() error {
	if math.IsNaN(s.StartTime) || math.IsNaN(s.EndTime) || math.IsInf(s.StartTime, 0) || math.IsInf(s.EndTime, 0) {
		return fmt.Errorf("non-finite timestamps")
	}
	if s.StartTime < 0 {
		return fmt.Errorf("start_time %.3f is negative", s.StartTime)
	}
	if s.EndTime <= s.StartTime {
		return fmt.Errorf("end_time %.3f must be after start_time %.3f", s.EndTime, s.StartTime)
	}
	if strings.TrimSpace(s.SpeakerLabel) == "" {
		return fmt.Errorf("speaker_label is empty")
	}
	return nil
}

// MarshalJSON emits the analysis schema. Optional prosody fields are omitted
// when they hold their defaults.
func (s Segment) MarshalJSON() ([]byte, error) {
	out := map[string]any{
		"start_time":          s.StartTime,
		"end_time":            s.EndTime,
		"speaker_label":       s.SpeakerLabel,
		"character_type":      string(s.CharacterType),
		"emotion":             string(s.Emotion),
		"delivery_style":      string(s.DeliveryStyle),
		"pace":                string(s.Pace),
		"original_transcript": s.OriginalTranscript,
	}
	if s.EmotionIntensity != "" {
		out["emotion_intensity"] = string(s.EmotionIntensity)
	}
	if s.Intonation != "" {
		out["intonation_pattern"] = string(s.Intonation)
	}
	if s.VoiceQuality != "" {
		out["voice_quality"] = string(s.VoiceQuality)
	}
	if s.NaturalPauses != "" {
		out["natural_pauses"] = s.NaturalPauses
	}
	if s.ProsodicNotes != "" {
		out["prosodic_notes"] = s.ProsodicNotes
	}
	for lang, text := range s.Translations {
		out[lang+translationSuffix] = text
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes one element of the analysis response. start_time,
// end_time, and speaker_label are required; enum fields fall back to their
// defaults when missing or unrecognised.
func (s *Segment) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return fmt.Errorf("segment is not an object: %w", err)
	}

	var seg Segment
	var err error
	if seg.StartTime, err = requiredSeconds(fields, "start_time"); err != nil {
		return err
	}
	if seg.EndTime, err = requiredSeconds(fields, "end_time"); err != nil {
		return err
	}
	raw, ok := fields["speaker_label"]
	if !ok {
		return fmt.Errorf("missing speaker_label")
	}
	if seg.SpeakerLabel, err = stringValue(raw); err != nil {
		return fmt.Errorf("speaker_label: %w", err)
	}
	seg.SpeakerLabel = strings.TrimSpace(seg.SpeakerLabel)

	seg.CharacterType = ParseCharacterType(optionalString(fields, "character_type"))
	seg.Emotion = ParseEmotion(optionalString(fields, "emotion"))
	seg.DeliveryStyle = ParseDeliveryStyle(optionalString(fields, "delivery_style"))
	seg.Pace = ParsePace(optionalString(fields, "pace"))
	if v := optionalString(fields, "emotion_intensity"); v != "" {
		seg.EmotionIntensity = ParseIntensity(v)
	}
	if v := optionalString(fields, "intonation_pattern"); v != "" {
		seg.Intonation = ParseIntonation(v)
	}
	if v := optionalString(fields, "voice_quality"); v != "" {
		seg.VoiceQuality = ParseVoiceQuality(v)
	}
	seg.NaturalPauses = pausesValue(fields["natural_pauses"])
	seg.ProsodicNotes = strings.TrimSpace(optionalString(fields, "prosodic_notes"))
	seg.OriginalTranscript = optionalString(fields, "original_transcript")

	for key, value := range fields {
		lang, ok := strings.CutSuffix(key, translationSuffix)
		if !ok || lang == "" {
			continue
		}
		text, err := stringValue(value)
		if err != nil {
			continue
		}
		if seg.Translations == nil {
			seg.Translations = make(map[string]string)
		}
		seg.Translations[lang] = text
	}

	*s = seg
	return nil
}

// requiredSeconds accepts a JSON number or a numeric string.
func requiredSeconds(fields map[string]json.RawMessage, key string) (float64, error) {
	raw, ok := fields[key]
	if !ok || string(raw) == "null" {
		return 0, fmt.Errorf("missing %s", key)
	}
	var num float64
	if err := json.Unmarshal(raw, &num); err == nil {
		return num, nil
	}
	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		if parsed, perr := strconv.ParseFloat(strings.TrimSpace(text), 64); perr == nil {
			return parsed, nil
		}
	}
	return 0, fmt.Errorf("%s is not a number: %s", key, string(raw))
}

func stringValue(raw json.RawMessage) (string, error) {
	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		return text, nil
	}
	var num json.Number
	if err := json.Unmarshal(raw, &num); err == nil {
		return num.String(), nil
	}
	return "", fmt.Errorf("expected string, got %s", string(raw))
}

// pausesValue accepts either a string or a list of pause kinds.
func pausesValue(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		kept := list[:0]
		for _, item := range list {
			if item = strings.TrimSpace(item); item != "" {
				kept = append(kept, item)
			}
		}
		return strings.Join(kept, ", ")
	}
	text, err := stringValue(raw)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(text)
}

func optionalString(fields map[string]json.RawMessage, key string) string {
	raw, ok := fields[key]
	if !ok {
		return ""
	}
	text, err := stringValue(raw)
	if err != nil {
		return ""
	}
	return text
}

// Script is an ordered dubbing script.
type Script struct {
	Segments []Segment
}

// MarshalJSON renders the script as the bare segment array the model produces.
func (s Script) MarshalJSON() ([]byte, error) {
	if s.Segments == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(s.Segments)
}

// UnmarshalJSON accepts the bare segment array.
func (s *Script) UnmarshalJSON(data []byte) error {
	return json.Unmarshal(data, &s.Segments)
}

// SortByStart orders segments by start time, keeping model order for ties.
func (s *Script) SortByStart() {
	sort.SliceStable(s.Segments, func(i, j int) bool {
		return s.Segments[i].StartTime < s.Segments[j].StartTime
	})
}

// Speakers returns the distinct speaker labels in lexicographic order.
func (s Script) Speakers() []string {
	seen := make(map[string]struct{})
	var out []string
	for _, seg := range s.Segments {
		if _, ok := seen[seg.SpeakerLabel]; ok {
			continue
		}
		seen[seg.SpeakerLabel] = struct{}{}
		out = append(out, seg.SpeakerLabel)
	}
	sort.Strings(out)
	return out
}

// EndTime is the latest segment end in seconds.
func (s Script) EndTime() float64 {
	end := 0.0
	for _, seg := range s.Segments {
		if seg.EndTime > end {
			end = seg.EndTime
		}
	}
	return end
}
