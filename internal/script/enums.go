package script

import "strings"

// CharacterType is the coarse voice class the model assigns to a speaker.
type CharacterType string

const (
	CharacterMale    CharacterType = "MALE"
	CharacterFemale  CharacterType = "FEMALE"
	CharacterChild   CharacterType = "CHILD"
	CharacterElderly CharacterType = "ELDERLY"
	CharacterUnknown CharacterType = "UNKNOWN"
)

// ParseCharacterType maps model output onto a CharacterType.
func ParseCharacterType(value string) CharacterType {
	switch c := CharacterType(normalizeLabel(value)); c {
	case CharacterMale, CharacterFemale, CharacterChild, CharacterElderly:
		return c
	}
	switch normalizeLabel(value) {
	case "MAN":
		return CharacterMale
	case "WOMAN":
		return CharacterFemale
	case "KID", "BOY", "GIRL":
		return CharacterChild
	case "OLD", "SENIOR":
		return CharacterElderly
	}
	return CharacterUnknown
}

// DeliveryStyle is how a line is performed.
type DeliveryStyle string

const (
	DeliveryNormal       DeliveryStyle = "NORMAL"
	DeliveryShouting     DeliveryStyle = "SHOUTING"
	DeliveryWhispering   DeliveryStyle = "WHISPERING"
	DeliveryPleading     DeliveryStyle = "PLEADING"
	DeliveryCrying       DeliveryStyle = "CRYING"
	DeliveryLaughing     DeliveryStyle = "LAUGHING"
	DeliveryMocking      DeliveryStyle = "MOCKING"
	DeliveryMenacing     DeliveryStyle = "MENACING"
	DeliveryFrantic      DeliveryStyle = "FRANTIC"
	DeliveryHesitant     DeliveryStyle = "HESITANT"
	DeliveryFirm         DeliveryStyle = "FIRM"
	DeliveryStorytelling DeliveryStyle = "STORYTELLING"
	DeliveryExplaining   DeliveryStyle = "EXPLAINING"
	DeliveryArguing      DeliveryStyle = "ARGUING"
	DeliveryCommanding   DeliveryStyle = "COMMANDING"
)

var deliveryAliases = map[string]DeliveryStyle{
	"SOBBING":   DeliveryCrying,
	"SARCASTIC": DeliveryMocking,
	"YELLING":   DeliveryShouting,
}

// ParseDeliveryStyle maps model output onto a DeliveryStyle. Slash pairs such
// as "CRYING / SOBBING" resolve to their first member. Unknown styles become
// DeliveryNormal.
func ParseDeliveryStyle(value string) DeliveryStyle {
	label := normalizeLabel(value)
	switch d := DeliveryStyle(label); d {
	case DeliveryNormal, DeliveryShouting, DeliveryWhispering, DeliveryPleading, DeliveryCrying,
		DeliveryLaughing, DeliveryMocking, DeliveryMenacing, DeliveryFrantic, DeliveryHesitant,
		DeliveryFirm, DeliveryStorytelling, DeliveryExplaining, DeliveryArguing, DeliveryCommanding:
		return d
	}
	if alias, ok := deliveryAliases[label]; ok {
		return alias
	}
	return DeliveryNormal
}

// Pace is the speaking rate of a line.
type Pace string

const (
	PaceVerySlow  Pace = "VERY_SLOW"
	PaceSlow      Pace = "SLOW"
	PaceMedium    Pace = "MEDIUM"
	PaceNormal    Pace = "NORMAL"
	PaceFast      Pace = "FAST"
	PaceVeryFast  Pace = "VERY_FAST"
	PaceIrregular Pace = "IRREGULAR"
)

// ParsePace maps model output onto a Pace, defaulting to PaceNormal.
func ParsePace(value string) Pace {
	switch p := Pace(normalizeLabel(value)); p {
	case PaceVerySlow, PaceSlow, PaceMedium, PaceNormal, PaceFast, PaceVeryFast, PaceIrregular:
		return p
	}
	return PaceNormal
}

// Intensity scales how strongly an emotion colours the delivery.
type Intensity string

const (
	IntensityMild     Intensity = "MILD"
	IntensityModerate Intensity = "MODERATE"
	IntensityIntense  Intensity = "INTENSE"
)

// ParseIntensity defaults to IntensityModerate.
func ParseIntensity(value string) Intensity {
	switch i := Intensity(normalizeLabel(value)); i {
	case IntensityMild, IntensityModerate, IntensityIntense:
		return i
	case "HIGH", "STRONG":
		return IntensityIntense
	case "LOW", "SUBTLE":
		return IntensityMild
	}
	return IntensityModerate
}

// Intonation is the pitch contour of a line.
type Intonation string

const (
	IntonationRising   Intonation = "RISING"
	IntonationFalling  Intonation = "FALLING"
	IntonationRiseFall Intonation = "RISE_FALL"
	IntonationFlat     Intonation = "FLAT"
)

// ParseIntonation defaults to IntonationFalling.
func ParseIntonation(value string) Intonation {
	switch i := Intonation(normalizeLabel(value)); i {
	case IntonationRising, IntonationFalling, IntonationRiseFall, IntonationFlat:
		return i
	}
	return IntonationFalling
}

// VoiceQuality is the phonation type of a line.
type VoiceQuality string

const (
	VoiceModal   VoiceQuality = "MODAL"
	VoiceBreathy VoiceQuality = "BREATHY"
	VoiceCreaky  VoiceQuality = "CREAKY"
	VoiceTense   VoiceQuality = "TENSE"
)

// ParseVoiceQuality defaults to VoiceModal.
func ParseVoiceQuality(value string) VoiceQuality {
	switch v := VoiceQuality(normalizeLabel(value)); v {
	case VoiceModal, VoiceBreathy, VoiceCreaky, VoiceTense:
		return v
	}
	return VoiceModal
}

// normalizeLabel upper-cases a model label, drops a "Family:" prefix and any
// "/ alternative" suffix, and joins words with underscores.
func normalizeLabel(value string) string {
	label := strings.TrimSpace(value)
	if idx := strings.LastIndex(label, ":"); idx >= 0 {
		label = label[idx+1:]
	}
	if idx := strings.Index(label, "/"); idx >= 0 {
		label = label[:idx]
	}
	label = strings.ToUpper(strings.TrimSpace(label))
	label = strings.Trim(label, "\"'.")
	return strings.Join(strings.FieldsFunc(label, func(r rune) bool {
		return r == ' ' || r == '-' || r == '_'
	}), "_")
}
