package openai

import (
	"context"
	"errors"
	"io"

	openai "github.com/sashabaranov/go-openai"

	"github.com/user/relayagent/pkg/llm"
)

// Client implements llm.Provider against OpenAI-compatible chat completion
// APIs, decoding the SSE stream into llm.Increment values. Tool-call
// fragments are forwarded as they arrive; accumulation is the caller's
// concern.
type Client struct {
	api    *openai.Client
	config *llm.Config
}

// New creates a streaming client with the given configuration.
func New(config *llm.Config) *Client {
	cfg := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		cfg.BaseURL = config.BaseURL
	}
	return &Client{
		api:    openai.NewClientWithConfig(cfg),
		config: config,
	}
}

// Stream opens a streamed chat completion request. The returned channel is
// closed on stream exhaustion; errors other than normal termination are
// delivered as a final increment with Err set.
func (c *Client) Stream(ctx context.Context, messages []llm.Message, tools []llm.Tool) (<-chan llm.Increment, error) {
	req := openai.ChatCompletionRequest{
		Model:       c.config.Model,
		Messages:    make([]openai.ChatCompletionMessage, len(messages)),
		MaxTokens:   c.config.MaxTokens,
		Temperature: c.config.Temperature,
	}
	for i, msg := range messages {
		req.Messages[i] = openai.ChatCompletionMessage{
			Role:    msg.Role,
			Content: msg.Content,
		}
	}
	for _, t := range tools {
		req.Tools = append(req.Tools, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        t.Function.Name,
				Description: t.Function.Description,
				Parameters:  t.Function.Parameters,
			},
		})
	}

	stream, err := c.api.CreateChatCompletionStream(ctx, req)
	if err != nil {
		return nil, err
	}

	out := make(chan llm.Increment)
	go c.pump(ctx, stream, out)
	return out, nil
}

// pump drains the SSE stream into the increment channel.
func (c *Client) pump(ctx context.Context, stream *openai.ChatCompletionStream, out chan<- llm.Increment) {
	defer close(out)
	defer stream.Close()

	for {
		resp, err := stream.Recv()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return
			}
			select {
			case out <- llm.Increment{Err: err}:
			case <-ctx.Done():
			}
			return
		}

		if len(resp.Choices) == 0 {
			continue
		}
		choice := resp.Choices[0]

		if choice.Delta.Content != "" {
			select {
			case out <- llm.Increment{Text: choice.Delta.Content}:
			case <-ctx.Done():
				return
			}
		}

		// Fragments are forwarded per tool-call delta: the name arrives on
		// the first fragment, argument text trickles in afterwards.
		for _, tc := range choice.Delta.ToolCalls {
			inc := llm.Increment{
				ToolName: tc.Function.Name,
				ToolArgs: tc.Function.Arguments,
			}
			if inc.ToolName == "" && inc.ToolArgs == "" {
				continue
			}
			select {
			case out <- inc:
			case <-ctx.Done():
				return
			}
		}

		if choice.FinishReason == openai.FinishReasonToolCalls {
			select {
			case out <- llm.Increment{ToolDone: true}:
			case <-ctx.Done():
				return
			}
		}
	}
}
