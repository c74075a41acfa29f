package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/user/relayagent/internal/convo"
	"github.com/user/relayagent/internal/notify"
	"github.com/user/relayagent/internal/prompt"
	"github.com/user/relayagent/internal/relay"
	"github.com/user/relayagent/internal/telegram"
	"github.com/user/relayagent/internal/tools"
	"github.com/user/relayagent/internal/twilio"
	"github.com/user/relayagent/pkg/llm"
	"github.com/user/relayagent/pkg/llm/openai"
)

func init() {
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the conversation relay server",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	setupLogging(cfg)

	if cfg.LLM.APIKey == "" {
		return fmt.Errorf("no LLM API key configured (set OPENAI_API_KEY or llm.api_key)")
	}

	// LLM provider
	provider := openai.New(&llm.Config{
		BaseURL:     cfg.LLM.BaseURL,
		APIKey:      cfg.LLM.APIKey,
		Model:       cfg.LLM.Model,
		MaxTokens:   cfg.LLM.MaxTokens,
		Temperature: cfg.LLM.Temperature,
	})

	// Outbound messaging
	sender := twilio.New(cfg.Twilio.AccountSID, cfg.Twilio.AuthToken, cfg.Twilio.PhoneNumber)
	if !sender.Configured() {
		slog.Warn("twilio credentials not configured, outbound messaging disabled")
	}

	// Tool registry
	registry := tools.NewRegistry()
	registry.Register(tools.NewSendText(sender))
	registry.Register(tools.NewTransferToAgent())
	registry.Register(tools.NewSwitchLanguage())
	registry.Register(tools.NewReadURL())
	if cfg.Profile.BaseURL != "" {
		registry.Register(tools.NewGetProfile(cfg.Profile.BaseURL, cfg.Profile.APIKey))
	}

	// Side-channel notifier
	notifier := notify.NewWebhook(cfg.WebhookURL)
	dispatcher := tools.NewDispatcher(registry, notifier)

	// Prompt documents
	loader, err := prompt.NewLoader(cfg.PromptsDir, cfg.LLM.Model, cfg.LLM.PromptTokenBudget)
	if err != nil {
		return fmt.Errorf("create prompt loader: %w", err)
	}
	prompts, err := loader.Load()
	if err != nil {
		return fmt.Errorf("load prompts: %w", err)
	}

	// Conversation registry
	reg, err := convo.NewRegistry(convo.Deps{
		Provider:     provider,
		Tools:        registry,
		Dispatcher:   dispatcher,
		Notifier:     notifier,
		MessageLimit: cfg.Conversation.MessageLimit,
		FlushRunes:   cfg.Conversation.FlushRunes,
	}, convo.RegistryConfig{
		VoiceTTL:   time.Duration(cfg.Conversation.VoiceTTLMinutes) * time.Minute,
		TextTTL:    time.Duration(cfg.Conversation.TextTTLMinutes) * time.Minute,
		SweepEvery: time.Duration(cfg.Conversation.SweepMinutes) * time.Minute,
	})
	if err != nil {
		return fmt.Errorf("create conversation registry: %w", err)
	}
	if err := reg.Start(); err != nil {
		return fmt.Errorf("start conversation registry: %w", err)
	}
	defer reg.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Inbound event queue
	queue := convo.NewQueue(int64(cfg.MaxConcurrent))
	queue.Start(ctx)
	defer queue.Stop()

	slog.Info("relayagent started",
		"port", cfg.Port,
		"log_level", cfg.LogLevel,
		"max_concurrent", cfg.MaxConcurrent,
		"llm_model", cfg.LLM.Model,
		"voice_ttl_minutes", cfg.Conversation.VoiceTTLMinutes,
		"text_ttl_minutes", cfg.Conversation.TextTTLMinutes,
	)

	// Telegram adapter
	if cfg.Telegram.Token != "" {
		adapter, err := telegram.New(cfg.Telegram.Token, reg, queue, prompts)
		if err != nil {
			return fmt.Errorf("create telegram adapter: %w", err)
		}
		go adapter.Start(ctx)
		slog.Info("telegram adapter started")
	} else {
		slog.Warn("telegram adapter disabled (no token)")
	}

	// HTTP server: websocket relay, SMS webhook, health, stats
	srv := relay.NewServer(reg, queue, prompts, sender)
	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: srv,
	}
	go func() {
		slog.Info("relay server listening", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("relay server error", "error", err)
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan

	slog.Info("shutting down", "signal", sig)
	return nil
}
