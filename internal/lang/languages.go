// internal/lang/languages.go
package lang

// RelayConfig holds the voice-relay settings a language switches the call to.
type RelayConfig struct {
	TTSProvider           string
	Voice                 string
	TranscriptionProvider string
	SpeechModel           string
}

// Language is one supported conversation language.
type Language struct {
	Value string
	Label string
	Relay RelayConfig
}

// Languages lists the supported conversation languages in preference order.
// The first entry is the fallback.
var Languages = []Language{
	{
		Value: "en-US",
		Label: "English (US)",
		Relay: RelayConfig{TTSProvider: "ElevenLabs", Voice: "g6xIsTj2HwM6VR4iXFCw", TranscriptionProvider: "Deepgram", SpeechModel: "nova-3-general"},
	},
	{
		Value: "es-ES",
		Label: "Spanish (Spain)",
		Relay: RelayConfig{TTSProvider: "ElevenLabs", Voice: "g6xIsTj2HwM6VR4iXFCw", TranscriptionProvider: "Google", SpeechModel: "long"},
	},
	{
		Value: "de-DE",
		Label: "German (Germany)",
		Relay: RelayConfig{TTSProvider: "ElevenLabs", Voice: "g6xIsTj2HwM6VR4iXFCw", TranscriptionProvider: "Google", SpeechModel: "long"},
	},
	{
		Value: "pt-BR",
		Label: "Portuguese (Brazil)",
		Relay: RelayConfig{TTSProvider: "ElevenLabs", Voice: "g6xIsTj2HwM6VR4iXFCw", TranscriptionProvider: "Google", SpeechModel: "long"},
	},
	{
		Value: "fr-FR",
		Label: "French (France)",
		Relay: RelayConfig{TTSProvider: "ElevenLabs", Voice: "g6xIsTj2HwM6VR4iXFCw", TranscriptionProvider: "Google", SpeechModel: "long"},
	},
	{
		Value: "ja-JP",
		Label: "Japanese",
		Relay: RelayConfig{TTSProvider: "ElevenLabs", Voice: "g6xIsTj2HwM6VR4iXFCw", TranscriptionProvider: "Google", SpeechModel: "long"},
	},
	{
		Value: "it-IT",
		Label: "Italian",
		Relay: RelayConfig{TTSProvider: "ElevenLabs", Voice: "g6xIsTj2HwM6VR4iXFCw", TranscriptionProvider: "Deepgram", SpeechModel: "nova-2-general"},
	},
	{
		Value: "zh-CN",
		Label: "Chinese (Mandarin)",
		Relay: RelayConfig{TTSProvider: "ElevenLabs", Voice: "g6xIsTj2HwM6VR4iXFCw", TranscriptionProvider: "Deepgram", SpeechModel: "nova-2-general"},
	},
}

// codeMap normalizes bare and regional language codes to supported values.
var codeMap = map[string]string{
	"en": "en-US", "en-US": "en-US",
	"es": "es-ES", "es-ES": "es-ES",
	"de": "de-DE", "de-DE": "de-DE",
	"pt": "pt-BR", "pt-BR": "pt-BR",
	"fr": "fr-FR", "fr-FR": "fr-FR",
	"ja": "ja-JP", "ja-JP": "ja-JP",
	"it": "it-IT", "it-IT": "it-IT",
	"zh": "zh-CN", "zh-CN": "zh-CN",
}

// Normalize maps a language code to its canonical supported form, returning
// the input unchanged when no mapping exists.
func Normalize(code string) string {
	if v, ok := codeMap[code]; ok {
		return v
	}
	return code
}

// Supported reports whether code names a supported language.
func Supported(code string) bool {
	for _, l := range Languages {
		if l.Value == code {
			return true
		}
	}
	return false
}

// Label returns the human-readable name for a language code, or the code
// itself when unknown.
func Label(code string) string {
	for _, l := range Languages {
		if l.Value == code {
			return l.Label
		}
	}
	return code
}

// Codes returns all supported language codes.
func Codes() []string {
	out := make([]string, len(Languages))
	for i, l := range Languages {
		out[i] = l.Value
	}
	return out
}
