package tts

import (
	"strings"
	"testing"

	"dubber/internal/script"
)

func TestBuildPromptSections(t *testing.T) {
	seg := script.Segment{
		StartTime:        1,
		EndTime:          3.5,
		SpeakerLabel:     "SPEAKER_1",
		CharacterType:    script.CharacterFemale,
		Emotion:          "HEARTBROKEN",
		EmotionIntensity: script.IntensityIntense,
		DeliveryStyle:    script.DeliveryCrying,
		Pace:             script.PaceSlow,
		Intonation:       script.IntonationRiseFall,
		VoiceQuality:     script.VoiceBreathy,
		NaturalPauses:    "BREATH_PAUSE",
		ProsodicNotes:    "voice cracks on the last word",
	}
	prompt := BuildPrompt(NewPromptInput(seg, "English", "Why did you leave?"))

	want := []string{
		"You are voicing SPEAKER_1",
		"CHARACTER VOICE: Adult female Indian English speaker",
		"ACCENT CONSISTENCY: MANDATORY: Use ONLY Indian English pronunciation",
		"PROSODIC DELIVERY: Use a rise-fall pattern (↗↘)",
		" • Breathy voice quality",
		" • Measured, thoughtful speech",
		"PERFORMANCE CONTEXT: strong heartbroken emotional colouring • Voice breaking with emotional distress",
		"SCRIPT COMPLIANCE: FOLLOW SCRIPT ANALYSIS: EXPRESS HEARTBROKEN emotion • Use CRYING delivery style",
		"Include natural breath pause for authentic speech flow",
		"Performance notes: voice cracks on the last word",
		"TIMING: Deliver naturally within 2500ms",
		`TEXT: "Why did you leave?"`,
		"CRITICAL:",
	}
	for _, fragment := range want {
		if !strings.Contains(prompt, fragment) {
			t.Errorf("prompt missing %q\n%s", fragment, prompt)
		}
	}
}

func TestBuildPromptDefaults(t *testing.T) {
	seg := script.Segment{StartTime: 0, EndTime: 1, SpeakerLabel: "", CharacterType: script.CharacterUnknown, Emotion: script.EmotionNeutral, DeliveryStyle: script.DeliveryNormal, Pace: script.PaceMedium}
	prompt := BuildPrompt(NewPromptInput(seg, "Hindi", "namaste"))
	want := []string{
		"You are voicing the character",
		"Natural Hindi speaker",
		"Keep Hindi pronunciation and speech characteristics consistent",
		"Use falling intonation (↘)",
		"Modal voice quality",
		"Natural conversational pace",
		"PERFORMANCE CONTEXT: Calm, neutral delivery",
		"Follow every emotional and delivery direction from the dubbing script.",
		"TIMING: Deliver naturally within 1000ms",
	}
	for _, fragment := range want {
		if !strings.Contains(prompt, fragment) {
			t.Errorf("prompt missing %q", fragment)
		}
	}
	if strings.Contains(prompt, "EXPRESS") || strings.Contains(prompt, "Performance notes") {
		t.Errorf("neutral prompt carries emotion directions:\n%s", prompt)
	}
}

func TestBuildPromptEveryDeliveryStyleHasPhrase(t *testing.T) {
	styles := []script.DeliveryStyle{
		script.DeliveryShouting, script.DeliveryWhispering, script.DeliveryPleading,
		script.DeliveryCrying, script.DeliveryLaughing, script.DeliveryMocking,
		script.DeliveryMenacing, script.DeliveryFrantic, script.DeliveryHesitant,
		script.DeliveryFirm, script.DeliveryStorytelling, script.DeliveryExplaining,
		script.DeliveryArguing, script.DeliveryCommanding,
	}
	for _, style := range styles {
		if _, ok := deliveryPhrases[style]; !ok {
			t.Errorf("no phrase for %s", style)
		}
	}
}
