package provider

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/anthropics/anthropic-sdk-go/packages/param"
	"github.com/anthropics/anthropic-sdk-go/packages/ssestream"

	"github.com/armatrix/claude-agent-runtime/message"
)

// Provider tool types understood by the Anthropic adapter.
const (
	WebSearchType = "web_search_20250305"
)

// apiToolNames maps provider tool types to the tool name the API reports in
// server_tool_use blocks.
var apiToolNames = map[string]string{
	WebSearchType: "web_search",
}

// MessageStreamer abstracts the Anthropic Messages API so the provider can be
// tested against canned SSE. Production code wraps client.Messages.
type MessageStreamer interface {
	NewStreaming(ctx context.Context, params anthropic.MessageNewParams) *ssestream.Stream[anthropic.MessageStreamEventUnion]
}

type messageServiceAdapter struct {
	svc *anthropic.MessageService
}

func (a *messageServiceAdapter) NewStreaming(ctx context.Context, params anthropic.MessageNewParams) *ssestream.Stream[anthropic.MessageStreamEventUnion] {
	return a.svc.NewStreaming(ctx, params)
}

// Anthropic is a Provider backed by the Anthropic Messages API.
type Anthropic struct {
	streamer MessageStreamer
}

// NewAnthropic creates a provider using a fresh SDK client. Without an
// explicit option.WithAPIKey the SDK reads ANTHROPIC_API_KEY.
func NewAnthropic(opts ...option.RequestOption) *Anthropic {
	client := anthropic.NewClient(opts...)
	return &Anthropic{streamer: &messageServiceAdapter{svc: &client.Messages}}
}

// NewAnthropicWithStreamer creates a provider over an arbitrary streamer.
func NewAnthropicWithStreamer(s MessageStreamer) *Anthropic {
	return &Anthropic{streamer: s}
}

// Call streams one response and accumulates it into a Response.
func (p *Anthropic) Call(ctx context.Context, req Request) (*Response, error) {
	params, err := buildParams(req)
	if err != nil {
		return nil, err
	}

	stream := p.streamer.NewStreaming(ctx, params)
	defer stream.Close()

	msg := anthropic.Message{}
	for stream.Next() {
		if err := msg.Accumulate(stream.Current()); err != nil {
			return nil, fmt.Errorf("accumulate: %w", err)
		}
	}
	if err := stream.Err(); err != nil {
		return nil, fmt.Errorf("stream: %w", err)
	}

	return convertResponse(msg, registeredNames(req.Tools))
}

// registeredNames maps API tool names back to the names the request
// registered provider tools under.
func registeredNames(defs []ToolDefinition) map[string]string {
	names := make(map[string]string)
	for _, def := range defs {
		if api, ok := apiToolNames[def.ProviderType]; ok {
			names[api] = def.Name
		}
	}
	return names
}

func buildParams(req Request) (anthropic.MessageNewParams, error) {
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(req.Model),
		MaxTokens: int64(req.MaxTokens),
	}
	if req.SystemPrompt != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.SystemPrompt}}
	}
	if req.Temperature != nil {
		params.Temperature = param.NewOpt(*req.Temperature)
	}

	msgs := make([]anthropic.MessageParam, 0, len(req.Messages))
	for i, m := range req.Messages {
		// The API rejects turns without content.
		if len(m.Content.Blocks()) == 0 {
			continue
		}
		mp, err := toMessageParam(m)
		if err != nil {
			return params, fmt.Errorf("message %d: %w", i, err)
		}
		msgs = append(msgs, mp)
	}
	params.Messages = msgs

	for _, def := range req.Tools {
		tool, err := toToolParam(def)
		if err != nil {
			return params, err
		}
		params.Tools = append(params.Tools, tool)
	}
	return params, nil
}

func toMessageParam(m message.ConversationMessage) (anthropic.MessageParam, error) {
	var blocks []anthropic.ContentBlockParamUnion
	for _, b := range m.Content.Blocks() {
		switch v := b.(type) {
		case message.TextBlock:
			blocks = append(blocks, anthropic.NewTextBlock(v.Text))
		case message.ToolUseBlock:
			blocks = append(blocks, anthropic.NewToolUseBlock(v.ID, rawInput(v.Input), v.Name))
		case message.ToolResultBlock:
			blocks = append(blocks, anthropic.NewToolResultBlock(v.ToolUseID, v.Content, v.IsError))
		case message.ProviderToolUseBlock:
			blocks = append(blocks, anthropic.NewServerToolUseBlock(v.ID, rawInput(v.Input)))
		case message.ProviderToolResultBlock:
			raw, err := json.Marshal(map[string]any{
				"type":        "web_search_tool_result",
				"tool_use_id": v.ToolUseID,
				"content":     rawInput(v.Content),
			})
			if err != nil {
				return anthropic.MessageParam{}, err
			}
			replay := param.Override[anthropic.WebSearchToolResultBlockParam](json.RawMessage(raw))
			blocks = append(blocks, anthropic.ContentBlockParamUnion{OfWebSearchToolResult: &replay})
		default:
			return anthropic.MessageParam{}, fmt.Errorf("unsupported block type %q", b.Type())
		}
	}

	if m.Role == message.RoleAssistant {
		return anthropic.NewAssistantMessage(blocks...), nil
	}
	return anthropic.NewUserMessage(blocks...), nil
}

func toToolParam(def ToolDefinition) (anthropic.ToolUnionParam, error) {
	switch def.ProviderType {
	case "":
		tp := anthropic.ToolParam{
			Name: def.Name,
			InputSchema: anthropic.ToolInputSchemaParam{
				Properties: def.InputSchema.Properties,
				Required:   def.InputSchema.Required,
			},
		}
		if def.Description != "" {
			tp.Description = param.NewOpt(def.Description)
		}
		return anthropic.ToolUnionParam{OfTool: &tp}, nil
	case WebSearchType:
		return anthropic.ToolUnionParam{OfWebSearchTool20250305: &anthropic.WebSearchTool20250305Param{}}, nil
	default:
		return anthropic.ToolUnionParam{}, fmt.Errorf("unsupported provider tool type %q for %s", def.ProviderType, def.Name)
	}
}

func convertResponse(msg anthropic.Message, names map[string]string) (*Response, error) {
	rename := func(api string) string {
		if name, ok := names[api]; ok {
			return name
		}
		return api
	}

	resp := &Response{
		StopReason: StopReason(msg.StopReason),
		Model:      string(msg.Model),
		Usage: message.TokenUsage{
			InputTokens:              msg.Usage.InputTokens,
			OutputTokens:             msg.Usage.OutputTokens,
			CacheReadInputTokens:     msg.Usage.CacheReadInputTokens,
			CacheCreationInputTokens: msg.Usage.CacheCreationInputTokens,
		},
	}

	for _, block := range msg.Content {
		switch block.Type {
		case "text":
			if block.Text == "" {
				continue
			}
			resp.Content = append(resp.Content, message.TextBlock{Text: block.Text})
		case "tool_use":
			resp.Content = append(resp.Content, message.ToolUseBlock{
				ID:    block.ID,
				Name:  block.Name,
				Input: cloneRaw(block.Input),
			})
		case "server_tool_use":
			resp.Content = append(resp.Content, message.ProviderToolUseBlock{
				ID:    block.ID,
				Name:  rename(block.Name),
				Input: cloneRaw(block.Input),
			})
		case "web_search_tool_result":
			content := json.RawMessage(block.Content.RawJSON())
			if !json.Valid(content) {
				return nil, fmt.Errorf("decode %s: invalid content payload", block.Type)
			}
			resp.Content = append(resp.Content, message.ProviderToolResultBlock{
				ToolUseID: block.ToolUseID,
				Name:      rename(apiToolNames[WebSearchType]),
				Content:   cloneRaw(content),
			})
		default:
			// thinking and other block kinds are not part of the conversation model
		}
	}
	return resp, nil
}

// rawInput returns v as a json.RawMessage suitable for an SDK "any" field,
// substituting an empty object for missing input.
func rawInput(v json.RawMessage) json.RawMessage {
	if len(v) == 0 {
		return json.RawMessage(`{}`)
	}
	return v
}

func cloneRaw(v json.RawMessage) json.RawMessage {
	if len(v) == 0 {
		return nil
	}
	out := make(json.RawMessage, len(v))
	copy(out, v)
	return out
}
