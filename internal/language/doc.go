// Package language canonicalises the language names used in prompts and
// translation keys.
//
// The analysis prompt and the <Language>_translation key both use English
// language names, so user input such as "hi", "hin", "hi-IN" or "HINDI" is
// mapped to "Hindi" before a run starts.
package language
