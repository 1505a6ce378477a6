package hooks

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"deepagent/agent"
	"deepagent/statefs"
)

// MemoryHook seeds memory files into the run's virtual filesystem and
// injects their current content, wrapped in <agent_memory> tags, into the
// system prompt before each model call. Because the files live in state,
// the agent can update its own memory with edit_file and the change shows
// up on the very next turn.
type MemoryHook struct {
	agent.BaseHook
	cfg   *agent.MemoryCfg
	state *agent.State
}

// NewMemoryHook creates a memory hook from config.
func NewMemoryHook(cfg *agent.MemoryCfg) *MemoryHook {
	return &MemoryHook{cfg: cfg}
}

func (h *MemoryHook) Name() string { return "memory" }

// BeforeAgent seeds initial content for memory paths not yet present.
func (h *MemoryHook) BeforeAgent(ctx context.Context, state *agent.State) error {
	h.state = state
	for path, content := range h.cfg.InitialContent {
		if _, err := state.Files.Get(path); errors.Is(err, statefs.ErrNotFound) {
			state.Files.Write(path, content)
		}
	}
	return nil
}

// ModifyRequest injects current memory file content into the system prompt.
func (h *MemoryHook) ModifyRequest(ctx context.Context, msgs []agent.Message) ([]agent.Message, error) {
	if h.state == nil {
		return msgs, nil
	}

	var parts []string
	for _, path := range h.memoryPaths() {
		content, err := h.state.Files.Get(path)
		if err != nil || strings.TrimSpace(content) == "" {
			continue
		}
		parts = append(parts, fmt.Sprintf("## %s\n%s", path, content))
	}
	if len(parts) == 0 {
		return msgs, nil
	}

	injection := fmt.Sprintf(`

<agent_memory>
%s
</agent_memory>

Guidelines for agent memory:
- This memory persists for the thread
- You can update it with edit_file or write_file on the paths above
- Use it to track important context, decisions, and patterns
- Keep entries concise and organized`, strings.Join(parts, "\n\n---\n\n"))

	if len(msgs) > 0 && msgs[0].Role == agent.RoleSystem {
		out := make([]agent.Message, len(msgs))
		copy(out, msgs)
		out[0].Content += injection
		return out, nil
	}
	return append([]agent.Message{agent.System(injection)}, msgs...), nil
}

func (h *MemoryHook) memoryPaths() []string {
	if len(h.cfg.Paths) > 0 {
		return h.cfg.Paths
	}
	paths := make([]string, 0, len(h.cfg.InitialContent))
	for path := range h.cfg.InitialContent {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths
}
