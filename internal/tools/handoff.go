// internal/tools/handoff.go
package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/user/relayagent/internal/types"
)

// TransferToAgent hands the conversation off to a live agent. It carries
// ControlHandoff, so a successful dispatch terminates the current turn.
type TransferToAgent struct{}

// NewTransferToAgent creates the transfer_to_agent tool.
func NewTransferToAgent() *TransferToAgent { return &TransferToAgent{} }

func (t *TransferToAgent) Name() string { return "transfer_to_agent" }
func (t *TransferToAgent) Description() string {
	return "Transfer the conversation to a live human agent"
}
func (t *TransferToAgent) Control() Control { return ControlHandoff }
func (t *TransferToAgent) Parameters() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"reason": {"type": "string", "description": "Reason for the handoff"},
			"priority": {"type": "string", "description": "Priority level", "enum": ["low", "medium", "high", "urgent"]},
			"conversation_summary": {"type": "string", "description": "Short summary of the conversation so far"}
		},
		"required": ["reason"]
	}`)
}

func (t *TransferToAgent) Execute(_ context.Context, args json.RawMessage, call CallContext) (any, error) {
	var params struct {
		Reason  string `json:"reason"`
		Summary string `json:"conversation_summary"`
	}
	if err := json.Unmarshal(args, &params); err != nil {
		return nil, fmt.Errorf("parse args: %w", err)
	}
	if call.IsVoice && call.CallSID == "" {
		return nil, fmt.Errorf("call SID is required for live agent handoff")
	}
	if params.Reason == "" {
		params.Reason = "Customer requested live agent"
	}
	if params.Summary == "" {
		params.Summary = "No summary provided"
	}

	return types.HandoffPayload{
		CallSID:    call.CallSID,
		Reason:     params.Reason,
		ReasonCode: "live_agent_request",
		Summary:    params.Summary,
	}, nil
}
