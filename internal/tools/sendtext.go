// internal/tools/sendtext.go
package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/user/relayagent/internal/twilio"
)

// SendText sends an SMS follow-up to the customer mid-conversation.
type SendText struct {
	client *twilio.Client
}

// NewSendText creates the send_text tool backed by the given Twilio client.
func NewSendText(client *twilio.Client) *SendText {
	return &SendText{client: client}
}

func (s *SendText) Name() string        { return "send_text" }
func (s *SendText) Description() string { return "Send an SMS text message to a phone number" }
func (s *SendText) Control() Control    { return ControlNone }
func (s *SendText) Parameters() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"to": {"type": "string", "description": "Phone number to send to, E.164 format"},
			"message": {"type": "string", "description": "Message content"}
		},
		"required": ["to", "message"]
	}`)
}

func (s *SendText) Execute(ctx context.Context, args json.RawMessage, call CallContext) (any, error) {
	var params struct {
		To      string `json:"to"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(args, &params); err != nil {
		return nil, fmt.Errorf("parse args: %w", err)
	}
	if params.To == "" {
		params.To = call.PartyKey
	}
	if params.Message == "" {
		return nil, fmt.Errorf("message is required")
	}

	sid, err := s.client.SendMessage(ctx, params.To, params.Message)
	if err != nil {
		return nil, err
	}
	return map[string]string{
		"message_sid": sid,
		"to":          params.To,
		"status":      "sent",
	}, nil
}
