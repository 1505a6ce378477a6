package agent

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"deepagent/statefs"
)

// State is the shared mutable record for one task invocation: the
// conversation transcript, the planning list, and the virtual file table.
// One State is created per top-level run and threaded by reference through
// every tool execution and every nested subagent loop. Messages belong to
// the owning loop only; todos and files are shared with subagents, so their
// mutation goes through synchronized methods.
type State struct {
	ThreadID string
	// Messages is the top-level transcript. Only the loop that owns the
	// State appends here; subagent histories stay isolated.
	Messages []Message
	// Files is the virtual filesystem shared across all nested loops.
	Files *statefs.Store
	// Truncated is set when the run hit its step budget before the model
	// produced a final answer.
	Truncated bool

	mu    sync.Mutex
	todos []Todo
	tools map[string]Tool // runtime-registered by hooks, shared per run
}

// NewState creates an empty State for the given thread.
func NewState(threadID string) *State {
	return &State{
		ThreadID: threadID,
		Messages: []Message{},
		Files:    statefs.NewStore(),
	}
}

// SetTodos validates and wholly replaces the planning list. There is no
// partial update: every call carries the complete list. Items that carry an
// ID keep it; items without one reuse the ID of a current item with the
// same content, so resubmitting a list (or flipping an item's status) keeps
// IDs stable. Replaying the same list is a no-op.
func (s *State) SetTodos(todos []Todo) error {
	replacement := make([]Todo, len(todos))
	for i, td := range todos {
		if td.Content == "" {
			return fmt.Errorf("%w: item %d has empty content", ErrInvalidTodo, i)
		}
		if !td.Status.Valid() {
			return fmt.Errorf("%w: item %d has status %q (must be pending, in_progress or completed)", ErrInvalidTodo, i, td.Status)
		}
		replacement[i] = td
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	prevIDs := make(map[string][]string, len(s.todos))
	for _, td := range s.todos {
		prevIDs[td.Content] = append(prevIDs[td.Content], td.ID)
	}
	for i := range replacement {
		if replacement[i].ID != "" {
			continue
		}
		if ids := prevIDs[replacement[i].Content]; len(ids) > 0 {
			replacement[i].ID = ids[0]
			prevIDs[replacement[i].Content] = ids[1:]
		} else {
			replacement[i].ID = uuid.NewString()
		}
	}

	s.todos = replacement
	return nil
}

// Todos returns a copy of the current planning list.
func (s *State) Todos() []Todo {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Todo, len(s.todos))
	copy(out, s.todos)
	return out
}

// RegisterTool adds a tool to the per-run registry. Used by hooks (the
// filesystem and todolist hooks register their tools here in BeforeAgent)
// so the tools close over this State. Shared with subagent loops.
func (s *State) RegisterTool(tool Tool) {
	s.mu.Lock()
	if s.tools == nil {
		s.tools = make(map[string]Tool)
	}
	s.tools[tool.Name()] = tool
	s.mu.Unlock()
}

// Tool returns a tool registered on this state, or nil.
func (s *State) Tool(name string) Tool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tools[name]
}

// runtimeTools returns a copy of the per-run tool registry.
func (s *State) runtimeTools() map[string]Tool {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]Tool, len(s.tools))
	for name, t := range s.tools {
		out[name] = t
	}
	return out
}

func (s *State) markTruncated() {
	s.mu.Lock()
	s.Truncated = true
	s.mu.Unlock()
}

// MarshalJSON serializes the state with todos and a snapshot of the file
// table, matching the wire shape returned to task invokers.
func (s *State) MarshalJSON() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return json.Marshal(struct {
		ThreadID  string            `json:"thread_id"`
		Messages  []Message         `json:"messages"`
		Todos     []Todo            `json:"todos"`
		Files     map[string]string `json:"files"`
		Truncated bool              `json:"truncated"`
	}{
		ThreadID:  s.ThreadID,
		Messages:  s.Messages,
		Todos:     s.todos,
		Files:     s.Files.Snapshot(),
		Truncated: s.Truncated,
	})
}
