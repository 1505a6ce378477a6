package hooks

import (
	"context"
	"fmt"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"

	"deepagent/agent"
)

// FilesystemHook registers the virtual file tools (ls, read_file,
// write_file, edit_file) over the run's statefs store. Files live in state
// only; nothing touches the host disk. The write and edit tools are
// ordered so same-turn conflicting writes resolve in request order.
//
// Also implements large result eviction: if a tool result exceeds 80,000
// chars (~20k tokens), the output is truncated with a head+tail reference.
type FilesystemHook struct {
	agent.BaseHook
}

// NewFilesystemHook creates a filesystem hook.
func NewFilesystemHook() *FilesystemHook {
	return &FilesystemHook{}
}

func (h *FilesystemHook) Name() string { return "filesystem" }

// BeforeAgent registers the 4 file tools on the agent state. The tools
// close over the state's file store, so subagent loops see the same files.
func (h *FilesystemHook) BeforeAgent(ctx context.Context, state *agent.State) error {
	files := state.Files

	state.RegisterTool(&agent.FuncTool{
		ToolName: "ls",
		ToolDesc: "List all files in the workspace.",
		ToolParams: map[string]any{
			"type":       "object",
			"properties": map[string]any{},
		},
		Fn: func(ctx context.Context, args map[string]any) (string, error) {
			paths := files.List()
			if len(paths) == 0 {
				return "No files yet.", nil
			}
			return strings.Join(paths, "\n"), nil
		},
	})

	state.RegisterTool(&agent.FuncTool{
		ToolName: "read_file",
		ToolDesc: "Read a file from the workspace. Returns numbered lines. Use offset and limit to page through large files.",
		ToolParams: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"file_path": map[string]any{"type": "string", "description": "Path of the file to read"},
				"offset":    map[string]any{"type": "integer", "description": "Line number to start from (0-based, default 0)"},
				"limit":     map[string]any{"type": "integer", "description": "Maximum number of lines to return (default 2000)"},
			},
			"required": []string{"file_path"},
		},
		Fn: func(ctx context.Context, args map[string]any) (string, error) {
			path, _ := args["file_path"].(string)
			if path == "" {
				return "", fmt.Errorf("file_path is required")
			}
			offset := intArg(args, "offset", 0)
			limit := intArg(args, "limit", 0)
			out, err := files.Read(path, offset, limit)
			if err != nil {
				return "", err
			}
			if out == "" {
				return "(empty)", nil
			}
			return out, nil
		},
	})

	state.RegisterTool(&agent.FuncTool{
		ToolName: "write_file",
		ToolDesc: "Write content to a file in the workspace, creating or overwriting it.",
		ToolParams: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"file_path": map[string]any{"type": "string", "description": "Path of the file to write"},
				"content":   map[string]any{"type": "string", "description": "Content to write"},
			},
			"required": []string{"file_path", "content"},
		},
		InOrder: true,
		Fn: func(ctx context.Context, args map[string]any) (string, error) {
			path, _ := args["file_path"].(string)
			content, _ := args["content"].(string)
			if path == "" {
				return "", fmt.Errorf("file_path is required")
			}
			files.Write(path, content)
			return fmt.Sprintf("File written: %s (%d bytes)", path, len(content)), nil
		},
	})

	state.RegisterTool(&agent.FuncTool{
		ToolName: "edit_file",
		ToolDesc: "Edit a file by replacing old_string with new_string. old_string must match exactly once unless replace_all is set.",
		ToolParams: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"file_path":   map[string]any{"type": "string", "description": "Path of the file to edit"},
				"old_string":  map[string]any{"type": "string", "description": "Exact text to find"},
				"new_string":  map[string]any{"type": "string", "description": "Text to replace it with"},
				"replace_all": map[string]any{"type": "boolean", "description": "Replace every occurrence (default false)"},
			},
			"required": []string{"file_path", "old_string", "new_string"},
		},
		InOrder: true,
		Fn: func(ctx context.Context, args map[string]any) (string, error) {
			path, _ := args["file_path"].(string)
			oldStr, _ := args["old_string"].(string)
			newStr, _ := args["new_string"].(string)
			replaceAll, _ := args["replace_all"].(bool)
			if path == "" {
				return "", fmt.Errorf("file_path is required")
			}
			n, err := files.Edit(path, oldStr, newStr, replaceAll)
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("Edited %s: %d replacement(s), %s", path, n, changeSummary(oldStr, newStr)), nil
		},
	})

	return nil
}

// WrapToolCall implements large result eviction. File tool results are
// already bounded by read paging, so they are excluded.
func (h *FilesystemHook) WrapToolCall(ctx context.Context, call agent.ToolCall, next agent.ToolCallFunc) (*agent.ToolResult, error) {
	result, err := next(ctx, call)
	if err != nil || result == nil {
		return result, err
	}

	const maxChars = 80_000
	excluded := map[string]bool{
		"ls": true, "read_file": true, "write_file": true, "edit_file": true,
	}

	if len(result.Output) > maxChars && !excluded[call.Name] {
		head := result.Output[:2000]
		tail := result.Output[len(result.Output)-2000:]
		result.Output = fmt.Sprintf(
			"%s\n\n... [Output truncated: %d chars total. Showing first and last 2000 chars] ...\n\n%s",
			head, len(result.Output), tail,
		)
	}

	return result, nil
}

// changeSummary renders a compact diff stat for an edit result.
func changeSummary(oldStr, newStr string) string {
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(oldStr, newStr, false)
	var ins, del int
	for _, d := range diffs {
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			ins += len(d.Text)
		case diffmatchpatch.DiffDelete:
			del += len(d.Text)
		}
	}
	return fmt.Sprintf("+%d/-%d chars", ins, del)
}

func intArg(args map[string]any, key string, def int) int {
	switch v := args[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	}
	return def
}
