package agent

import "context"

// Tool defines the interface for agent tools.
type Tool interface {
	Name() string
	Description() string
	Parameters() map[string]any // JSON Schema
	Execute(ctx context.Context, args map[string]any) (string, error)
}

// OrderedTool is implemented by tools whose shared-state effects must apply
// in request order. Within one model turn the loop runs ordered tools
// sequentially, in the order the model issued them, while everything else
// fans out concurrently. The built-in write_file/edit_file/write_todos
// tools are ordered, which makes same-turn conflicting writes deterministic.
type OrderedTool interface {
	Tool
	Ordered() bool
}

// FuncTool wraps a plain function as a Tool.
type FuncTool struct {
	ToolName   string
	ToolDesc   string
	ToolParams map[string]any
	// InOrder marks the tool's effects as request-order dependent.
	InOrder bool
	Fn      func(ctx context.Context, args map[string]any) (string, error)
}

func (f *FuncTool) Name() string               { return f.ToolName }
func (f *FuncTool) Description() string        { return f.ToolDesc }
func (f *FuncTool) Parameters() map[string]any { return f.ToolParams }
func (f *FuncTool) Ordered() bool              { return f.InOrder }
func (f *FuncTool) Execute(ctx context.Context, args map[string]any) (string, error) {
	return f.Fn(ctx, args)
}

func isOrdered(t Tool) bool {
	ot, ok := t.(OrderedTool)
	return ok && ot.Ordered()
}
