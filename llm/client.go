// Package llm defines the model interface the agent loop consumes and its
// provider adapters (OpenAI-compatible, Anthropic, scripted test double).
// Resolve turns a config model spec into a Client.
package llm

import "context"

// Client is one model endpoint. The loop only ever talks to this
// interface; which provider backs it is decided at config resolution.
type Client interface {
	// Call performs one blocking model invocation.
	Call(ctx context.Context, req Request) (*Response, error)

	// Stream performs one model invocation, delivering chunks to ch as
	// they arrive. Implementations close ch before returning.
	Stream(ctx context.Context, req Request, ch chan<- StreamChunk) error
}

// Message is one transcript entry in provider-neutral form.
type Message struct {
	Role       string         `json:"role"`
	Content    string         `json:"content"`
	ToolCallID string         `json:"tool_call_id,omitempty"`
	Name       string         `json:"name,omitempty"`
	ToolCalls  []ToolCallInfo `json:"tool_calls,omitempty"`
}

// ToolCallInfo is a tool call carried on an assistant message.
type ToolCallInfo struct {
	ID   string         `json:"id"`
	Name string         `json:"name"`
	Args map[string]any `json:"arguments"`
}

// ToolSchema advertises one tool to the model. Parameters holds a JSON
// Schema object.
type ToolSchema struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

// Request is the input to one model invocation.
type Request struct {
	Model        string       `json:"model"`
	Messages     []Message    `json:"messages"`
	Tools        []ToolSchema `json:"tools,omitempty"`
	SystemPrompt string       `json:"system_prompt,omitempty"`
	MaxTokens    int          `json:"max_tokens,omitempty"`
	Temperature  *float64     `json:"temperature,omitempty"`
}

// Response is the fully assembled result of one model invocation. Streamed
// calls re-assemble into this shape as well.
type Response struct {
	Content   string           `json:"content"`
	ToolCalls []ToolCallResult `json:"tool_calls,omitempty"`
}

// ToolCallResult is one parsed tool call from a model response.
type ToolCallResult struct {
	ID   string         `json:"id"`
	Name string         `json:"name"`
	Args map[string]any `json:"arguments"`
}

// StreamChunk is one increment of a streaming response: a text delta, a
// completed tool call, or the final Done marker. Error is transport-level
// and terminates the stream.
type StreamChunk struct {
	Delta    string          `json:"delta,omitempty"`
	ToolCall *ToolCallResult `json:"tool_call,omitempty"`
	Done     bool            `json:"done,omitempty"`
	Error    error           `json:"-"`
}
