// Package script defines the dubbing script: the time-aligned dialogue lines a
// multimodal model extracts from the source video, together with the speaker,
// emotion, delivery, and translation metadata the speech stage needs.
//
// Key pieces:
//   - Segment and Script, with JSON encoding that matches the model's output
//     schema including the dynamic "<Language>_translation" key.
//   - Closed enums (CharacterType, Emotion, DeliveryStyle, Pace, ...) parsed
//     at the JSON boundary with an explicit unknown/default variant.
//   - Parse, which strips Markdown fences, validates, and sorts a response.
//   - Analyzer, which uploads the video, waits for it to be ready, renders
//     the analysis prompt, and turns the completion into a Script.
package script
