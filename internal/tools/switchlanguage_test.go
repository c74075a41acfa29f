// internal/tools/switchlanguage_test.go
package tools

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/user/relayagent/internal/types"
)

func TestSwitchLanguage(t *testing.T) {
	tool := NewSwitchLanguage()
	args := json.RawMessage(`{"tts_language":"es-ES","transcription_language":"es-ES"}`)
	got, err := tool.Execute(context.Background(), args, testCall())
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	p, ok := got.(types.LanguagePayload)
	if !ok {
		t.Fatalf("expected LanguagePayload, got %T", got)
	}
	if p.TTSLanguage != "es-ES" || p.TranscriptionLanguage != "es-ES" {
		t.Errorf("unexpected payload %+v", p)
	}
	if !strings.Contains(p.Message, "Spanish") {
		t.Errorf("expected human-readable label in message, got %q", p.Message)
	}
	if p.Warning != "" {
		t.Errorf("matched languages must not warn, got %q", p.Warning)
	}
}

func TestSwitchLanguageNormalizesShortCodes(t *testing.T) {
	tool := NewSwitchLanguage()
	args := json.RawMessage(`{"tts_language":"de","transcription_language":"de"}`)
	got, err := tool.Execute(context.Background(), args, testCall())
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	p := got.(types.LanguagePayload)
	if p.TTSLanguage != "de-DE" {
		t.Errorf("expected normalization to de-DE, got %q", p.TTSLanguage)
	}
}

func TestSwitchLanguageMismatchWarns(t *testing.T) {
	tool := NewSwitchLanguage()
	args := json.RawMessage(`{"tts_language":"fr-FR","transcription_language":"en-US"}`)
	got, err := tool.Execute(context.Background(), args, testCall())
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	p := got.(types.LanguagePayload)
	if p.Warning == "" {
		t.Error("expected mismatch warning")
	}
}

func TestSwitchLanguageRejectsUnsupported(t *testing.T) {
	tool := NewSwitchLanguage()
	args := json.RawMessage(`{"tts_language":"xx-XX","transcription_language":"xx-XX"}`)
	if _, err := tool.Execute(context.Background(), args, testCall()); err == nil {
		t.Fatal("expected error for unsupported language")
	}
}

func TestSwitchLanguageRequiresBoth(t *testing.T) {
	tool := NewSwitchLanguage()
	args := json.RawMessage(`{"tts_language":"es-ES"}`)
	if _, err := tool.Execute(context.Background(), args, testCall()); err == nil {
		t.Fatal("expected error when transcription language missing")
	}
}
