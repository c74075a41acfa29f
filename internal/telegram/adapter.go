package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/user/relayagent/internal/convo"
	"github.com/user/relayagent/internal/prompt"
	"github.com/user/relayagent/internal/types"
)

const maxTelegramMessage = 4096

// Adapter bridges Telegram chats to the conversation engine. Each chat
// maps to one text conversation in the registry, keyed by chat id, so a
// Telegram thread ages out the same way an SMS thread does.
type Adapter struct {
	bot      *tgbotapi.BotAPI
	registry *convo.Registry
	queue    *convo.Queue
	prompts  *prompt.Data
}

// New creates a Telegram adapter.
func New(token string, registry *convo.Registry, queue *convo.Queue, prompts *prompt.Data) (*Adapter, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot: %w", err)
	}
	return &Adapter{
		bot:      bot,
		registry: registry,
		queue:    queue,
		prompts:  prompts,
	}, nil
}

// Start begins long-polling for Telegram updates.
func (a *Adapter) Start(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30

	updates := a.bot.GetUpdatesChan(u)

	for {
		select {
		case update := <-updates:
			if update.Message == nil || update.Message.Text == "" {
				continue
			}
			a.handleMessage(ctx, update.Message)
		case <-ctx.Done():
			a.bot.StopReceivingUpdates()
			return
		}
	}
}

func (a *Adapter) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.IsCommand() {
		a.handleCommand(msg)
		return
	}

	chatID := msg.Chat.ID
	key := partyKey(chatID)
	text := msg.Text

	err := a.queue.Enqueue(key, func(ctx context.Context) {
		a.processMessage(ctx, chatID, key, text)
	})
	if err != nil {
		slog.Error("telegram enqueue failed", "chat", chatID, "error", err)
		a.sendResponse(chatID, "Sorry, I'm handling too many messages right now. Please try again.")
	}
}

func (a *Adapter) processMessage(ctx context.Context, chatID int64, key, text string) {
	conv, created := a.registry.GetOrCreate(key, false)
	if created {
		conv.SetHooks(types.Hooks{
			OnText: func(_ string, final bool, full string) {
				if final && full != "" {
					a.sendResponse(chatID, full)
				}
			},
			OnHandoff: func(p types.HandoffPayload) {
				a.sendResponse(chatID, "Connecting you with a team member. Someone will follow up here shortly.")
			},
		})
		conv.Begin(ctx, a.prompts.Instructions, a.prompts.Context)
		conv.AddSystemMessage("This is a Telegram text conversation.")
	}

	conv.AddUserMessage(text)
	conv.Run(ctx, true)
}

func (a *Adapter) handleCommand(msg *tgbotapi.Message) {
	chatID := msg.Chat.ID

	switch msg.Command() {
	case "start":
		a.sendResponse(chatID, "Hello! Send me a message to start a conversation.")

	case "new":
		a.registry.Close(partyKey(chatID))
		a.sendResponse(chatID, "Starting fresh. Previous conversation has been discarded.")

	case "status":
		conv, ok := a.registry.Get(partyKey(chatID))
		if !ok {
			a.sendResponse(chatID, "No active conversation. Send a message to start one.")
			return
		}
		a.sendResponse(chatID, fmt.Sprintf("Conversation: %s\nMessages: %d\nExpires: %s",
			conv.ID, conv.History().Len(), conv.ExpiresAt().Format("15:04:05 MST")))

	default:
		a.sendResponse(chatID, "Unknown command. Available: /start, /new, /status")
	}
}

func (a *Adapter) sendResponse(chatID int64, text string) {
	parts := splitMessage(text)
	for _, part := range parts {
		msg := tgbotapi.NewMessage(chatID, part)
		msg.ParseMode = "Markdown"
		if _, err := a.bot.Send(msg); err != nil {
			// Retry without markdown if it fails
			msg.ParseMode = ""
			if _, err := a.bot.Send(msg); err != nil {
				slog.Error("telegram send failed", "chat", chatID, "error", err)
			}
		}
	}
}

func splitMessage(text string) []string {
	if len(text) <= maxTelegramMessage {
		return []string{text}
	}
	var parts []string
	for len(text) > 0 {
		end := maxTelegramMessage
		if end > len(text) {
			end = len(text)
		}
		parts = append(parts, text[:end])
		text = text[end:]
	}
	return parts
}

func partyKey(chatID int64) string {
	return "tg:" + strconv.FormatInt(chatID, 10)
}
