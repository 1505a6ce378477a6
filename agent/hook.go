package agent

import (
	"context"

	"deepagent/llm"
)

// ModelCallWrapFunc is the signature for the "next" function in the model
// call chain.
type ModelCallWrapFunc func(ctx context.Context, msgs []Message) (*llm.Response, error)

// ToolCallFunc is the signature for the "next" function in the tool call
// chain.
type ToolCallFunc func(ctx context.Context, call ToolCall) (*ToolResult, error)

// Hook is the middleware interface for the agent loop (onion ring pattern).
// Hooks mount the built-in subsystems: the filesystem and todolist hooks
// register their tools in BeforeAgent, memory injects prompt sections in
// ModifyRequest, summarization wraps the model call.
type Hook interface {
	// Name returns the hook identifier.
	Name() string

	// BeforeAgent is called once before the loop starts. Use for one-time
	// setup: register tools on the state, seed memory files.
	BeforeAgent(ctx context.Context, state *State) error

	// ModifyRequest is called before each model call to adjust the
	// outgoing message list.
	ModifyRequest(ctx context.Context, msgs []Message) ([]Message, error)

	// WrapModelCall wraps each model call. Call next to proceed.
	WrapModelCall(ctx context.Context, msgs []Message, next ModelCallWrapFunc) (*llm.Response, error)

	// WrapToolCall wraps each tool execution. Call next to proceed.
	WrapToolCall(ctx context.Context, call ToolCall, next ToolCallFunc) (*ToolResult, error)
}

// BaseHook provides no-op defaults for all hook methods. Embed it and
// override only what you need.
type BaseHook struct{}

func (BaseHook) Name() string { return "base" }

func (BaseHook) BeforeAgent(ctx context.Context, state *State) error {
	return nil
}

func (BaseHook) ModifyRequest(ctx context.Context, msgs []Message) ([]Message, error) {
	return msgs, nil
}

func (BaseHook) WrapModelCall(ctx context.Context, msgs []Message, next ModelCallWrapFunc) (*llm.Response, error) {
	return next(ctx, msgs)
}

func (BaseHook) WrapToolCall(ctx context.Context, call ToolCall, next ToolCallFunc) (*ToolResult, error) {
	return next(ctx, call)
}
