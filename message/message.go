package message

import (
	"bytes"
	"encoding/json"
	"time"
)

// Role identifies the author of a conversation message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Content is either a raw string or an ordered list of content blocks. It
// encodes as a JSON string or a JSON array accordingly.
type Content struct {
	text   string
	blocks Blocks
	isText bool
}

// TextContent returns string content.
func TextContent(s string) Content {
	return Content{text: s, isText: true}
}

// BlockContent returns block-list content.
func BlockContent(blocks ...ContentBlock) Content {
	return Content{blocks: Blocks(blocks)}
}

// IsText reports whether the content is a raw string.
func (c Content) IsText() bool { return c.isText }

// Text returns the raw string, or the concatenated text blocks.
func (c Content) Text() string {
	if c.isText {
		return c.text
	}
	return c.blocks.Text()
}

// Blocks returns the content as blocks. Raw string content is returned as a
// single text block.
func (c Content) Blocks() Blocks {
	if c.isText {
		return Blocks{TextBlock{Text: c.text}}
	}
	return c.blocks
}

func (c Content) MarshalJSON() ([]byte, error) {
	if c.isText {
		return json.Marshal(c.text)
	}
	if c.blocks == nil {
		return []byte(`[]`), nil
	}
	return json.Marshal([]ContentBlock(c.blocks))
}

func (c *Content) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*c = TextContent(s)
		return nil
	}
	var bs Blocks
	if err := json.Unmarshal(data, &bs); err != nil {
		return err
	}
	*c = Content{blocks: bs}
	return nil
}

// ConversationMessage is one entry of a session's message history.
type ConversationMessage struct {
	Role      Role      `json:"role"`
	Content   Content   `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// NewUserText creates a user message with raw string content.
func NewUserText(text string) ConversationMessage {
	return ConversationMessage{
		Role:      RoleUser,
		Content:   TextContent(text),
		Timestamp: time.Now(),
	}
}

// NewAssistant creates an assistant message from content blocks.
func NewAssistant(blocks ...ContentBlock) ConversationMessage {
	return ConversationMessage{
		Role:      RoleAssistant,
		Content:   BlockContent(blocks...),
		Timestamp: time.Now(),
	}
}

// NewToolResults creates the user message that carries a turn's tool results.
func NewToolResults(results ...ToolResultBlock) ConversationMessage {
	blocks := make([]ContentBlock, len(results))
	for i, r := range results {
		blocks[i] = r
	}
	return ConversationMessage{
		Role:      RoleUser,
		Content:   BlockContent(blocks...),
		Timestamp: time.Now(),
	}
}

// CloneMessages copies a message history. Blocks are immutable values, so
// the copy shares them.
func CloneMessages(msgs []ConversationMessage) []ConversationMessage {
	if msgs == nil {
		return nil
	}
	out := make([]ConversationMessage, len(msgs))
	copy(out, msgs)
	return out
}
