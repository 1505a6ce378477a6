package agent

import (
	"fmt"
	"strings"
)

// --- Role constants ---

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// ValidRole returns true if r is a known message role.
func ValidRole(r string) bool {
	switch r {
	case RoleSystem, RoleUser, RoleAssistant, RoleTool:
		return true
	}
	return false
}

// UserInputRole returns true if the role is allowed in caller-submitted
// messages.
func UserInputRole(r string) bool {
	return r == RoleUser || r == RoleSystem
}

// --- Constructors ---

// Human creates a user message.
func Human(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// System creates a system message.
func System(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}

// AI creates an assistant message with optional tool calls.
func AI(content string, toolCalls ...ToolCall) Message {
	return Message{Role: RoleAssistant, Content: content, ToolCalls: toolCalls}
}

// ToolMsg creates a tool result message.
func ToolMsg(toolCallID, name, output string) Message {
	return Message{Role: RoleTool, Content: output, ToolCallID: toolCallID, Name: name}
}

// Messages is an ordered message list with builder and filter helpers.
type Messages []Message

// NewMessages creates a message chain from the given messages.
func NewMessages(msgs ...Message) Messages {
	return Messages(msgs)
}

// Human appends a user message and returns the chain.
func (m Messages) Human(content string) Messages {
	return append(m, Human(content))
}

// System appends a system message and returns the chain.
func (m Messages) System(content string) Messages {
	return append(m, System(content))
}

// AI appends an assistant message and returns the chain.
func (m Messages) AI(content string, toolCalls ...ToolCall) Messages {
	return append(m, AI(content, toolCalls...))
}

// Tool appends a tool result message and returns the chain.
func (m Messages) Tool(toolCallID, name, output string) Messages {
	return append(m, ToolMsg(toolCallID, name, output))
}

// Last returns the last message, or a zero Message if empty.
func (m Messages) Last() Message {
	if len(m) == 0 {
		return Message{}
	}
	return m[len(m)-1]
}

// ByRole returns messages with the given role.
func (m Messages) ByRole(role string) Messages {
	var out Messages
	for _, msg := range m {
		if msg.Role == role {
			out = append(out, msg)
		}
	}
	return out
}

// Slice returns the underlying []Message.
func (m Messages) Slice() []Message {
	return []Message(m)
}

// FinalAssistantContent returns the content of the last assistant message
// that carries text, or "".
func (m Messages) FinalAssistantContent() string {
	for i := len(m) - 1; i >= 0; i-- {
		if m[i].Role == RoleAssistant && m[i].Content != "" {
			return m[i].Content
		}
	}
	return ""
}

// Validate checks that the message chain is well-formed: known roles, tool
// messages carry a call id and name, assistant tool calls carry ids, and
// non-assistant messages have content.
func (m Messages) Validate() error {
	for i, msg := range m {
		if !ValidRole(msg.Role) {
			return fmt.Errorf("message[%d]: unknown role %q", i, msg.Role)
		}
		switch msg.Role {
		case RoleTool:
			if msg.ToolCallID == "" {
				return fmt.Errorf("message[%d]: tool message missing tool_call_id", i)
			}
			if msg.Name == "" {
				return fmt.Errorf("message[%d]: tool message missing name", i)
			}
		case RoleAssistant:
			if msg.Content == "" && len(msg.ToolCalls) == 0 {
				return fmt.Errorf("message[%d]: assistant message has no content and no tool calls", i)
			}
			for j, tc := range msg.ToolCalls {
				if tc.ID == "" {
					return fmt.Errorf("message[%d].tool_calls[%d]: missing ID", i, j)
				}
				if tc.Name == "" {
					return fmt.Errorf("message[%d].tool_calls[%d]: missing name", i, j)
				}
			}
		case RoleUser, RoleSystem:
			if msg.Content == "" {
				return fmt.Errorf("message[%d]: %s message has empty content", i, msg.Role)
			}
		}
	}
	return nil
}

// ValidateUserInput checks that messages are valid for submission by a
// caller (only user and system roles, non-empty content).
func (m Messages) ValidateUserInput() error {
	if len(m) == 0 {
		return fmt.Errorf("messages must not be empty")
	}
	for i, msg := range m {
		if !UserInputRole(msg.Role) {
			return fmt.Errorf("message[%d]: role %q not allowed (must be \"user\" or \"system\")", i, msg.Role)
		}
		if msg.Content == "" {
			return fmt.Errorf("message[%d]: content must not be empty", i)
		}
	}
	return nil
}

// EstimateTokens returns a rough token count (len/4 heuristic).
func (m Messages) EstimateTokens() int {
	total := 0
	for _, msg := range m {
		total += len(msg.Content) / 4
		for _, tc := range msg.ToolCalls {
			total += len(fmt.Sprint(tc.Args)) / 4
		}
	}
	return total
}

// String renders the chain in a compact human-readable form.
func (m Messages) String() string {
	var sb strings.Builder
	for _, msg := range m {
		if msg.Role == RoleTool {
			fmt.Fprintf(&sb, "[tool %s call_id=%s]\n", msg.Name, msg.ToolCallID)
		} else {
			fmt.Fprintf(&sb, "[%s]\n", msg.Role)
		}
		if msg.Content != "" {
			sb.WriteString(msg.Content)
			sb.WriteByte('\n')
		}
		for _, tc := range msg.ToolCalls {
			fmt.Fprintf(&sb, "  -> %s(id=%s, args=%v)\n", tc.Name, tc.ID, tc.Args)
		}
	}
	return sb.String()
}
