// internal/prompt/prompt.go
package prompt

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/pkoukk/tiktoken-go"
)

// Data holds the operator-authored prompt documents seeded into every new
// conversation.
type Data struct {
	Instructions string
	Context      string
}

// Loader reads prompt documents from a directory and accounts for their
// token footprint against the model's context window.
type Loader struct {
	dir       string
	tokenizer *tiktoken.Tiktoken
	budget    int
}

// NewLoader creates a Loader for the given prompts directory. model picks
// the tokenizer; budget is the input-token allowance a seeded prompt
// should stay under (0 disables the check).
func NewLoader(dir, model string, budget int) (*Loader, error) {
	enc, err := tiktoken.EncodingForModel(model)
	if err != nil {
		// Unknown model names fall back to the common encoding.
		enc, err = tiktoken.GetEncoding("cl100k_base")
		if err != nil {
			return nil, fmt.Errorf("get tokenizer: %w", err)
		}
	}
	return &Loader{dir: dir, tokenizer: enc, budget: budget}, nil
}

// CountTokens returns the token count for a string.
func (l *Loader) CountTokens(text string) int {
	return len(l.tokenizer.Encode(text, nil, nil))
}

// Load reads instructions.md and context.md from the prompts directory.
// Missing files are not errors: the conversation simply starts without
// that document.
func (l *Loader) Load() (*Data, error) {
	d := &Data{}

	instructions, err := readOptional(filepath.Join(l.dir, "instructions.md"))
	if err != nil {
		return nil, err
	}
	d.Instructions = instructions

	contextDoc, err := readOptional(filepath.Join(l.dir, "context.md"))
	if err != nil {
		return nil, err
	}
	d.Context = contextDoc

	if l.budget > 0 {
		total := l.CountTokens(d.Instructions) + l.CountTokens(d.Context)
		if total > l.budget {
			slog.Warn("prompt documents exceed token budget",
				"tokens", total, "budget", l.budget, "dir", l.dir)
		}
	}
	return d, nil
}

func readOptional(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return string(data), nil
}
