package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// Config is the full daemon configuration. Defaults are written to the
// config file on first run; environment variables take highest precedence.
type Config struct {
	Port          int    `json:"port"`
	LogLevel      string `json:"log_level"`
	PromptsDir    string `json:"prompts_dir"`
	WebhookURL    string `json:"webhook_url"`
	MaxConcurrent int    `json:"max_concurrent"`

	LLM struct {
		BaseURL           string  `json:"base_url"`
		APIKey            string  `json:"api_key"`
		Model             string  `json:"model"`
		MaxTokens         int     `json:"max_tokens"`
		Temperature       float32 `json:"temperature"`
		PromptTokenBudget int     `json:"prompt_token_budget"`
	} `json:"llm"`

	Twilio struct {
		AccountSID  string `json:"account_sid"`
		AuthToken   string `json:"auth_token"`
		PhoneNumber string `json:"phone_number"`
		WorkflowSID string `json:"workflow_sid"`
	} `json:"twilio"`

	Profile struct {
		BaseURL string `json:"base_url"`
		APIKey  string `json:"api_key"`
	} `json:"profile"`

	Telegram struct {
		Token string `json:"token"`
	} `json:"telegram"`

	Conversation struct {
		VoiceTTLMinutes int `json:"voice_ttl_minutes"`
		TextTTLMinutes  int `json:"text_ttl_minutes"`
		SweepMinutes    int `json:"sweep_minutes"`
		MessageLimit    int `json:"message_limit"`
		FlushRunes      int `json:"flush_runes"`
	} `json:"conversation"`
}

// Load reads config from path, writing defaults there when no file exists,
// then applies environment variable overrides.
func Load(path string) (*Config, error) {
	cfg := defaults()

	if _, err := os.Stat(path); err == nil {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
	} else if os.IsNotExist(err) {
		if err := writeDefaults(path, cfg); err != nil {
			return nil, err
		}
	}

	applyEnv(cfg)
	return cfg, nil
}

// loadFile reads config from path without environment overrides, so that
// writes back to the file never capture ambient env values.
func loadFile(path string) (*Config, error) {
	cfg := defaults()
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func defaults() *Config {
	cfg := &Config{
		Port:          3000,
		LogLevel:      "info",
		PromptsDir:    filepath.Join(os.Getenv("HOME"), ".relayagent", "prompts"),
		MaxConcurrent: 8,
	}
	cfg.LLM.BaseURL = "https://api.openai.com/v1"
	cfg.LLM.Model = "gpt-4o"
	cfg.LLM.MaxTokens = 2000
	// Transactional dialogue wants deterministic-leaning sampling.
	cfg.LLM.Temperature = 0.1
	cfg.LLM.PromptTokenBudget = 8000
	cfg.Conversation.VoiceTTLMinutes = 30
	cfg.Conversation.TextTTLMinutes = 60
	cfg.Conversation.SweepMinutes = 10
	cfg.Conversation.MessageLimit = 300
	cfg.Conversation.FlushRunes = 10
	return cfg
}

// applyEnv overrides file values from the environment (highest precedence).
func applyEnv(cfg *Config) {
	if v := os.Getenv("PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Port = n
		}
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		cfg.LLM.APIKey = v
	}
	if v := os.Getenv("OPENAI_BASE_URL"); v != "" {
		cfg.LLM.BaseURL = v
	}
	if v := os.Getenv("OPENAI_MODEL"); v != "" {
		cfg.LLM.Model = v
	}
	if v := os.Getenv("WEBHOOK_URL"); v != "" {
		cfg.WebhookURL = v
	}
	if v := os.Getenv("TWILIO_ACCOUNT_SID"); v != "" {
		cfg.Twilio.AccountSID = v
	}
	if v := os.Getenv("TWILIO_AUTH_TOKEN"); v != "" {
		cfg.Twilio.AuthToken = v
	}
	if v := os.Getenv("TWILIO_PHONE_NUMBER"); v != "" {
		cfg.Twilio.PhoneNumber = v
	}
	if v := os.Getenv("TWILIO_WORKFLOW_SID"); v != "" {
		cfg.Twilio.WorkflowSID = v
	}
	if v := os.Getenv("PROFILE_API_URL"); v != "" {
		cfg.Profile.BaseURL = v
	}
	if v := os.Getenv("PROFILE_API_KEY"); v != "" {
		cfg.Profile.APIKey = v
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.Token = v
	}
}

func writeDefaults(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal default config: %w", err)
	}
	data = append(data, '\n')
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("write default config: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename default config: %w", err)
	}
	return nil
}
