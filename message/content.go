// Package message defines the conversation data model shared by the turn
// loop, the session actor and the providers: tagged content blocks,
// conversation messages and token usage counters.
package message

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// BlockType is the wire tag of a content block.
type BlockType string

const (
	BlockText               BlockType = "text"
	BlockToolUse            BlockType = "tool_use"
	BlockToolResult         BlockType = "tool_result"
	BlockProviderToolUse    BlockType = "provider_tool_use"
	BlockProviderToolResult BlockType = "provider_tool_result"
)

// ContentBlock is one tagged unit of message content. The set of
// implementations is closed: only the block types in this package satisfy it.
type ContentBlock interface {
	Type() BlockType
	contentBlock()
}

// TextBlock is plain model or user text.
type TextBlock struct {
	Text string `json:"text"`
}

// ToolUseBlock is a tool invocation requested by the model that the local
// dispatcher must execute.
type ToolUseBlock struct {
	ID    string          `json:"id"`
	Name  string          `json:"name"`
	Input json.RawMessage `json:"input"`
}

// ToolResultBlock is the result of a locally executed tool, correlated to its
// ToolUseBlock by ToolUseID.
type ToolResultBlock struct {
	ToolUseID string `json:"tool_use_id"`
	Content   string `json:"content"`
	IsError   bool   `json:"is_error,omitempty"`
}

// ProviderToolUseBlock is a tool invocation the provider executed itself.
type ProviderToolUseBlock struct {
	ID    string          `json:"id"`
	Name  string          `json:"name"`
	Input json.RawMessage `json:"input"`
}

// ProviderToolResultBlock is the result of a provider-executed tool. Content
// holds the provider's own payload verbatim so it can be replayed on later
// turns.
type ProviderToolResultBlock struct {
	ToolUseID string          `json:"tool_use_id"`
	Name      string          `json:"name,omitempty"`
	Content   json.RawMessage `json:"content"`
}

func (TextBlock) Type() BlockType               { return BlockText }
func (ToolUseBlock) Type() BlockType            { return BlockToolUse }
func (ToolResultBlock) Type() BlockType         { return BlockToolResult }
func (ProviderToolUseBlock) Type() BlockType    { return BlockProviderToolUse }
func (ProviderToolResultBlock) Type() BlockType { return BlockProviderToolResult }

func (TextBlock) contentBlock()               {}
func (ToolUseBlock) contentBlock()            {}
func (ToolResultBlock) contentBlock()         {}
func (ProviderToolUseBlock) contentBlock()    {}
func (ProviderToolResultBlock) contentBlock() {}

func (b TextBlock) MarshalJSON() ([]byte, error) {
	type shadow TextBlock
	return marshalTagged(b.Type(), shadow(b))
}

func (b ToolUseBlock) MarshalJSON() ([]byte, error) {
	type shadow ToolUseBlock
	if len(b.Input) == 0 {
		b.Input = json.RawMessage(`{}`)
	}
	return marshalTagged(b.Type(), shadow(b))
}

func (b ToolResultBlock) MarshalJSON() ([]byte, error) {
	type shadow ToolResultBlock
	return marshalTagged(b.Type(), shadow(b))
}

func (b ProviderToolUseBlock) MarshalJSON() ([]byte, error) {
	type shadow ProviderToolUseBlock
	if len(b.Input) == 0 {
		b.Input = json.RawMessage(`{}`)
	}
	return marshalTagged(b.Type(), shadow(b))
}

func (b ProviderToolResultBlock) MarshalJSON() ([]byte, error) {
	type shadow ProviderToolResultBlock
	if len(b.Content) == 0 {
		b.Content = json.RawMessage(`null`)
	}
	return marshalTagged(b.Type(), shadow(b))
}

// marshalTagged encodes v as a JSON object with a leading "type" field.
func marshalTagged(t BlockType, v any) ([]byte, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	fmt.Fprintf(&buf, `{"type":%q`, t)
	if len(body) > 2 {
		buf.WriteByte(',')
		buf.Write(body[1 : len(body)-1])
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalBlock decodes a single tagged content block.
func UnmarshalBlock(data []byte) (ContentBlock, error) {
	var tag struct {
		Type BlockType `json:"type"`
	}
	if err := json.Unmarshal(data, &tag); err != nil {
		return nil, fmt.Errorf("decode block tag: %w", err)
	}

	switch tag.Type {
	case BlockText:
		var b TextBlock
		err := json.Unmarshal(data, &b)
		return b, err
	case BlockToolUse:
		var b ToolUseBlock
		err := json.Unmarshal(data, &b)
		return b, err
	case BlockToolResult:
		var b ToolResultBlock
		err := json.Unmarshal(data, &b)
		return b, err
	case BlockProviderToolUse:
		var b ProviderToolUseBlock
		err := json.Unmarshal(data, &b)
		return b, err
	case BlockProviderToolResult:
		var b ProviderToolResultBlock
		err := json.Unmarshal(data, &b)
		return b, err
	default:
		return nil, fmt.Errorf("unknown content block type %q", tag.Type)
	}
}

// Blocks is an ordered list of content blocks with tagged JSON encoding.
type Blocks []ContentBlock

// UnmarshalJSON decodes a JSON array of tagged blocks.
func (bs *Blocks) UnmarshalJSON(data []byte) error {
	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return err
	}
	out := make(Blocks, 0, len(raws))
	for i, raw := range raws {
		b, err := UnmarshalBlock(raw)
		if err != nil {
			return fmt.Errorf("block %d: %w", i, err)
		}
		out = append(out, b)
	}
	*bs = out
	return nil
}

// ToolUses returns the locally dispatched tool invocations in order.
func (bs Blocks) ToolUses() []ToolUseBlock {
	var uses []ToolUseBlock
	for _, b := range bs {
		if tu, ok := b.(ToolUseBlock); ok {
			uses = append(uses, tu)
		}
	}
	return uses
}

// ToolResults returns the tool result blocks in order.
func (bs Blocks) ToolResults() []ToolResultBlock {
	var results []ToolResultBlock
	for _, b := range bs {
		if tr, ok := b.(ToolResultBlock); ok {
			results = append(results, tr)
		}
	}
	return results
}

// Text concatenates the text blocks.
func (bs Blocks) Text() string {
	var buf bytes.Buffer
	for _, b := range bs {
		if t, ok := b.(TextBlock); ok {
			buf.WriteString(t.Text)
		}
	}
	return buf.String()
}
