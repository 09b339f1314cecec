package tts

import (
	"fmt"
	"strings"

	"dubber/internal/script"
)

const separator = " • "

// PromptInput is everything the performance prompt depends on.
type PromptInput struct {
	Speaker        string
	CharacterType  script.CharacterType
	Language       string
	Emotion        script.Emotion
	Intensity      script.Intensity
	Delivery       script.DeliveryStyle
	Pace           script.Pace
	Intonation     script.Intonation
	VoiceQuality   script.VoiceQuality
	NaturalPauses  string
	ProsodicNotes  string
	DurationMillis int
	Text           string
}

// NewPromptInput collects the prompt fields for seg spoken as text in
// language.
func NewPromptInput(seg script.Segment, language, text string) PromptInput {
	return PromptInput{
		Speaker:        seg.SpeakerLabel,
		CharacterType:  seg.CharacterType,
		Language:       language,
		Emotion:        seg.Emotion,
		Intensity:      seg.EmotionIntensity,
		Delivery:       seg.DeliveryStyle,
		Pace:           seg.Pace,
		Intonation:     seg.Intonation,
		VoiceQuality:   seg.VoiceQuality,
		NaturalPauses:  seg.NaturalPauses,
		ProsodicNotes:  seg.ProsodicNotes,
		DurationMillis: seg.DurationMillis(),
		Text:           text,
	}
}

var intonationPhrases = map[script.Intonation]string{
	script.IntonationRising:   "Use rising intonation (↗) for questioning, uncertain, or list-like delivery",
	script.IntonationFalling:  "Use falling intonation (↘) for declarative, final, authoritative delivery",
	script.IntonationRiseFall: "Use a rise-fall pattern (↗↘) for emphasis, contrast, and significance",
	script.IntonationFlat:     "Use flat intonation (→) for monotone, bored, or tightly controlled delivery",
}

var voiceQualityPhrases = map[script.VoiceQuality]string{
	script.VoiceModal:   "Modal voice quality, natural and relaxed",
	script.VoiceBreathy: "Breathy voice quality, intimate, tired, or sensual",
	script.VoiceCreaky:  "Creaky voice quality, low pitch with vocal fry and authority",
	script.VoiceTense:   "Tense voice quality, carrying stress, anger, or physical effort",
}

var pacePhrases = map[script.Pace]string{
	script.PaceVerySlow:  "Very deliberate, drawn-out delivery with dramatic emphasis",
	script.PaceSlow:      "Measured, thoughtful speech with careful articulation",
	script.PaceNormal:    "Standard conversational rhythm and timing",
	script.PaceFast:      "Quick, energetic delivery with increased tempo",
	script.PaceVeryFast:  "Rapid, rushed delivery suggesting excitement or urgency",
	script.PaceIrregular: "Varied pace within the line, as in natural speech",
}

var intensityModifiers = map[script.Intensity]string{
	script.IntensityMild:     "subtle",
	script.IntensityModerate: "clear",
	script.IntensityIntense:  "strong",
}

var deliveryPhrases = map[script.DeliveryStyle]string{
	script.DeliveryShouting:     "Loud, projected delivery with increased volume",
	script.DeliveryWhispering:   "Quiet, intimate delivery with reduced volume",
	script.DeliveryCrying:       "Voice breaking with emotional distress",
	script.DeliveryPleading:     "Urgent, desperate tone with a begging quality",
	script.DeliveryLaughing:     "Joyful delivery with laughter breaking through",
	script.DeliveryMocking:      "Sneering, sarcastic edge on the key words",
	script.DeliveryMenacing:     "Low, controlled, threatening delivery",
	script.DeliveryFrantic:      "Breathless, hurried delivery on the edge of panic",
	script.DeliveryHesitant:     "Halting delivery with small hesitations",
	script.DeliveryFirm:         "Steady, resolute delivery without wavering",
	script.DeliveryStorytelling: "Engaging, narrative rhythm",
	script.DeliveryExplaining:   "Clear, methodical delivery",
	script.DeliveryArguing:      "Confrontational delivery with sharp edges",
	script.DeliveryCommanding:   "Authoritative, direct delivery",
}

var naturalnessBaseline = []string{
	"Maintain natural speech rhythm with organic timing",
	"Use authentic vocal expressions and micro-variations",
	"Avoid robotic or overly perfect pronunciation",
	"Include natural vocal traits such as slight hesitations or shifts in emphasis",
}

// BuildPrompt renders the performance direction for one line.
func BuildPrompt(in PromptInput) string {
	speaker := strings.TrimSpace(in.Speaker)
	if speaker == "" {
		speaker = "the character"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "You are voicing %s in a professional film dubbing session.\n\n", speaker)
	fmt.Fprintf(&b, "CHARACTER VOICE: %s\n\n", voiceFoundation(in.CharacterType, in.Language))
	fmt.Fprintf(&b, "ACCENT CONSISTENCY: %s\n\n", accentEnforcement(in.Language))
	fmt.Fprintf(&b, "PROSODIC DELIVERY: %s\n\n", prosody(in))
	fmt.Fprintf(&b, "PERFORMANCE CONTEXT: %s\n\n", contextualDelivery(in))
	fmt.Fprintf(&b, "SCRIPT COMPLIANCE: %s\n\n", scriptCompliance(in))
	fmt.Fprintf(&b, "NATURALNESS: %s\n\n", naturalness(in))
	fmt.Fprintf(&b, "TIMING: Deliver naturally within %dms, keeping an organic rhythm and flow.\n\n", in.DurationMillis)
	fmt.Fprintf(&b, "TEXT: %q\n\n", in.Text)
	b.WriteString("CRITICAL: Keep the accent consistent throughout. Perform this line as the character in this exact emotional moment, not as a script reading. ")
	b.WriteString("Aim for authentic human speech, real emotion, and strict adherence to the accent specification.")
	return b.String()
}

func voiceFoundation(kind script.CharacterType, language string) string {
	accent := AccentSpecification(language)
	switch kind {
	case script.CharacterMale:
		return fmt.Sprintf("Adult male %s speaker with natural masculine vocal characteristics", accent)
	case script.CharacterFemale:
		return fmt.Sprintf("Adult female %s speaker with natural feminine vocal characteristics", accent)
	case script.CharacterChild:
		return fmt.Sprintf("Young %s speaker with an age-appropriate higher pitch and youthful speech patterns", accent)
	case script.CharacterElderly:
		return fmt.Sprintf("Elderly %s speaker with mature vocal characteristics", accent)
	default:
		return fmt.Sprintf("Natural %s speaker with conversational vocal characteristics", accent)
	}
}

func accentEnforcement(language string) string {
	accent := AccentSpecification(language)
	if isEnglish(language) {
		return fmt.Sprintf("MANDATORY: Use ONLY %s pronunciation, intonation, and speech patterns.", accent)
	}
	return fmt.Sprintf("Keep %s pronunciation and speech characteristics consistent throughout.", accent)
}

func prosody(in PromptInput) string {
	intonation := in.Intonation
	if intonation == "" {
		intonation = script.IntonationFalling
	}
	quality := in.VoiceQuality
	if quality == "" {
		quality = script.VoiceModal
	}
	parts := make([]string, 0, 3)
	if phrase, ok := intonationPhrases[intonation]; ok {
		parts = append(parts, phrase)
	}
	if phrase, ok := voiceQualityPhrases[quality]; ok {
		parts = append(parts, phrase)
	} else {
		parts = append(parts, voiceQualityPhrases[script.VoiceModal])
	}
	if phrase, ok := pacePhrases[in.Pace]; ok {
		parts = append(parts, phrase)
	} else {
		parts = append(parts, "Natural conversational pace")
	}
	return strings.Join(parts, separator)
}

func contextualDelivery(in PromptInput) string {
	var parts []string
	if !in.Emotion.IsNeutral() {
		modifier, ok := intensityModifiers[in.Intensity]
		if !ok {
			modifier = intensityModifiers[script.IntensityModerate]
		}
		parts = append(parts, fmt.Sprintf("%s %s emotional colouring", modifier, strings.ToLower(string(in.Emotion))))
	}
	if phrase, ok := deliveryPhrases[in.Delivery]; ok {
		parts = append(parts, phrase)
	}
	if len(parts) == 0 {
		return "Calm, neutral delivery"
	}
	return strings.Join(parts, separator)
}

func scriptCompliance(in PromptInput) string {
	var parts []string
	if !in.Emotion.IsNeutral() {
		parts = append(parts, fmt.Sprintf("EXPRESS %s emotion", strings.ToUpper(string(in.Emotion))))
	}
	if in.Delivery != "" && in.Delivery != script.DeliveryNormal {
		parts = append(parts, fmt.Sprintf("Use %s delivery style", strings.ToUpper(string(in.Delivery))))
	}
	if len(parts) == 0 {
		return "Follow every emotional and delivery direction from the dubbing script."
	}
	return "FOLLOW SCRIPT ANALYSIS: " + strings.Join(parts, separator)
}

func naturalness(in PromptInput) string {
	parts := make([]string, 0, len(naturalnessBaseline)+2)
	if pauses := strings.TrimSpace(in.NaturalPauses); pauses != "" {
		kinds := strings.ReplaceAll(strings.ToLower(pauses), "_", " ")
		parts = append(parts, fmt.Sprintf("Include natural %s for authentic speech flow", kinds))
	}
	if notes := strings.TrimSpace(in.ProsodicNotes); notes != "" {
		parts = append(parts, "Performance notes: "+notes)
	}
	parts = append(parts, naturalnessBaseline...)
	return strings.Join(parts, separator)
}
