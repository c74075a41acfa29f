// internal/tools/switchlanguage.go
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/user/relayagent/internal/lang"
	"github.com/user/relayagent/internal/types"
)

// SwitchLanguage changes the conversation's TTS and transcription
// languages. It carries ControlLanguage: a successful dispatch emits a
// language event without ending the turn.
type SwitchLanguage struct{}

// NewSwitchLanguage creates the switch_language tool.
func NewSwitchLanguage() *SwitchLanguage { return &SwitchLanguage{} }

func (s *SwitchLanguage) Name() string { return "switch_language" }
func (s *SwitchLanguage) Description() string {
	return "Switch the conversation language for both text-to-speech and transcription"
}
func (s *SwitchLanguage) Control() Control { return ControlLanguage }
func (s *SwitchLanguage) Parameters() json.RawMessage {
	codes, _ := json.Marshal(lang.Codes())
	schema := fmt.Sprintf(`{
		"type": "object",
		"properties": {
			"tts_language": {"type": "string", "description": "Target language code for text-to-speech", "enum": %s},
			"transcription_language": {"type": "string", "description": "Target language code for speech transcription", "enum": %s}
		},
		"required": ["tts_language", "transcription_language"]
	}`, codes, codes)
	return json.RawMessage(schema)
}

func (s *SwitchLanguage) Execute(_ context.Context, args json.RawMessage, _ CallContext) (any, error) {
	var params struct {
		TTS           string `json:"tts_language"`
		Transcription string `json:"transcription_language"`
	}
	if err := json.Unmarshal(args, &params); err != nil {
		return nil, fmt.Errorf("parse args: %w", err)
	}
	if params.TTS == "" || params.Transcription == "" {
		return nil, fmt.Errorf("both tts_language and transcription_language are required")
	}

	tts := lang.Normalize(params.TTS)
	transcription := lang.Normalize(params.Transcription)

	if !lang.Supported(tts) {
		return nil, fmt.Errorf("unsupported TTS language %q, supported: %s", tts, strings.Join(lang.Codes(), ", "))
	}
	if !lang.Supported(transcription) {
		return nil, fmt.Errorf("unsupported transcription language %q, supported: %s", transcription, strings.Join(lang.Codes(), ", "))
	}

	var warning string
	if tts != transcription {
		warning = fmt.Sprintf("TTS language (%s) differs from transcription language (%s); the agent may not understand speech in the target language", tts, transcription)
	}

	return types.LanguagePayload{
		Message:               fmt.Sprintf("Language switched to %s", lang.Label(transcription)),
		TTSLanguage:           tts,
		TranscriptionLanguage: transcription,
		Warning:               warning,
	}, nil
}
