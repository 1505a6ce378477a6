package hooks

import (
	"context"
	"encoding/json"
	"fmt"

	"deepagent/agent"
)

// TodoListHook gives the agent a planning list via a write_todos tool.
type TodoListHook struct {
	agent.BaseHook
}

// NewTodoListHook creates a todo list hook.
func NewTodoListHook() *TodoListHook {
	return &TodoListHook{}
}

func (h *TodoListHook) Name() string { return "todolist" }

// BeforeAgent registers the write_todos tool. Every call replaces the
// whole list, so the tool is ordered to keep same-turn updates
// deterministic.
func (h *TodoListHook) BeforeAgent(ctx context.Context, state *agent.State) error {
	state.RegisterTool(&agent.FuncTool{
		ToolName: "write_todos",
		ToolDesc: "Update the task planning list. Pass the complete list every time; it replaces the previous one. Keep at most one item in_progress.",
		ToolParams: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"todos": map[string]any{
					"type": "array",
					"items": map[string]any{
						"type": "object",
						"properties": map[string]any{
							"id":      map[string]any{"type": "string"},
							"content": map[string]any{"type": "string"},
							"status":  map[string]any{"type": "string", "enum": []string{"pending", "in_progress", "completed"}},
						},
						"required": []string{"content", "status"},
					},
				},
			},
			"required": []string{"todos"},
		},
		InOrder: true,
		Fn: func(ctx context.Context, args map[string]any) (string, error) {
			todosRaw, ok := args["todos"]
			if !ok {
				return "", fmt.Errorf("'todos' field is required")
			}

			// Convert via JSON round-trip for type safety
			data, _ := json.Marshal(todosRaw)
			var todos []agent.Todo
			if err := json.Unmarshal(data, &todos); err != nil {
				return "", fmt.Errorf("parse todos: %w", err)
			}

			if err := state.SetTodos(todos); err != nil {
				return "", err
			}
			return fmt.Sprintf("Updated %d todo(s)", len(todos)), nil
		},
	})

	return nil
}
