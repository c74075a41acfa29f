// internal/tools/profile.go
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// GetProfile looks up customer traits in an external profile service,
// keyed by phone number.
type GetProfile struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewGetProfile creates the get_profile tool against the given profile
// service endpoint.
func NewGetProfile(baseURL, apiKey string) *GetProfile {
	return &GetProfile{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

func (g *GetProfile) Name() string { return "get_profile" }
func (g *GetProfile) Description() string {
	return "Look up the customer's profile and traits by phone number"
}
func (g *GetProfile) Control() Control { return ControlNone }
func (g *GetProfile) Parameters() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"phone": {"type": "string", "description": "Phone number to look up, defaults to the current caller"}
		},
		"required": []
	}`)
}

func (g *GetProfile) Execute(ctx context.Context, args json.RawMessage, call CallContext) (any, error) {
	var params struct {
		Phone string `json:"phone"`
	}
	if len(args) > 0 {
		if err := json.Unmarshal(args, &params); err != nil {
			return nil, fmt.Errorf("parse args: %w", err)
		}
	}
	if params.Phone == "" {
		params.Phone = call.PartyKey
	}
	if params.Phone == "" {
		return nil, fmt.Errorf("phone is required")
	}

	u, err := url.Parse(g.baseURL + "/profiles")
	if err != nil {
		return nil, fmt.Errorf("parse base URL: %w", err)
	}
	q := u.Query()
	q.Set("phone", params.Phone)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if g.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+g.apiKey)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch profile: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return map[string]any{"phone": params.Phone, "found": false}, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("profile service: status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var traits map[string]any
	if err := json.Unmarshal(body, &traits); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}
	return map[string]any{
		"phone":  params.Phone,
		"found":  true,
		"traits": traits,
	}, nil
}
