package script

// Emotion is one label from the fixed emotion taxonomy.
type Emotion string

// EmotionNeutral is the absence of emotional colouring.
const EmotionNeutral Emotion = "NEUTRAL"

// EmotionUnknown marks a label outside the taxonomy. It is voiced as neutral.
const EmotionUnknown Emotion = "UNKNOWN"

// EmotionFamily groups related emotions.
type EmotionFamily struct {
	Name     string
	Emotions []Emotion
}

// EmotionFamilies is the taxonomy the analysis prompt asks the model to use.
var EmotionFamilies = []EmotionFamily{
	{"Love & Affection", []Emotion{"PASSIONATE", "LONGING", "ADORING", "FLIRTATIOUS", "TENDER", "SHY"}},
	{"Joy & Happiness", []Emotion{"ELATED", "AMUSED", "CONTENT", "RELIEVED", "HOPEFUL"}},
	{"Anger & Fury", []Emotion{"IRRITATED", "FRUSTRATED", "RAGING", "INDIGNANT", "VENGEFUL", "CONTEMPTUOUS"}},
	{"Sadness & Grief", []Emotion{"SORROWFUL", "HEARTBROKEN", "DESPAIRING", "MELANCHOLIC", "SYMPATHETIC"}},
	{"Fear & Anxiety", []Emotion{"TERRIFIED", "ANXIOUS", "NERVOUS", "DREADFUL", "PANICKED"}},
	{"Surprise & Wonder", []Emotion{"SHOCKED", "ASTONISHED", "AWESTRUCK", "DISBELIEF"}},
	{"Complex & Social", []Emotion{"GUILTY", "ASHAMED", "JEALOUS", "BETRAYED", "DESPERATE", "ARROGANT", "SUSPICIOUS"}},
	{"Neutral", []Emotion{EmotionNeutral}},
}

var emotionFamily = func() map[Emotion]string {
	out := make(map[Emotion]string)
	for _, family := range EmotionFamilies {
		for _, e := range family.Emotions {
			out[e] = family.Name
		}
	}
	return out
}()

// ParseEmotion maps model output onto the taxonomy. Empty input is neutral;
// anything else outside the taxonomy is EmotionUnknown.
func ParseEmotion(value string) Emotion {
	label := normalizeLabel(value)
	if label == "" {
		return EmotionNeutral
	}
	e := Emotion(label)
	if _, ok := emotionFamily[e]; ok {
		return e
	}
	return EmotionUnknown
}

// Family reports the taxonomy family name, or "" for EmotionUnknown.
func (e Emotion) Family() string {
	return emotionFamily[e]
}

// IsNeutral reports whether e adds no emotional colouring.
func (e Emotion) IsNeutral() bool {
	return e == EmotionNeutral || e == EmotionUnknown || e == ""
}
