package agent_test

import (
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"deepagent/agent"
)

func TestSetTodosValidation(t *testing.T) {
	s := agent.NewState("t")

	t.Run("empty content rejected", func(t *testing.T) {
		err := s.SetTodos([]agent.Todo{{Content: "", Status: agent.TodoPending}})
		require.ErrorIs(t, err, agent.ErrInvalidTodo)
		assert.Empty(t, s.Todos())
	})

	t.Run("bad status rejected", func(t *testing.T) {
		err := s.SetTodos([]agent.Todo{{Content: "x", Status: "done"}})
		require.ErrorIs(t, err, agent.ErrInvalidTodo)
	})

	t.Run("ids assigned and kept", func(t *testing.T) {
		err := s.SetTodos([]agent.Todo{
			{Content: "a", Status: agent.TodoPending},
			{ID: "fixed", Content: "b", Status: agent.TodoInProgress},
		})
		require.NoError(t, err)
		todos := s.Todos()
		require.Len(t, todos, 2)
		assert.NotEmpty(t, todos[0].ID)
		assert.Equal(t, "fixed", todos[1].ID)
	})

	t.Run("replacement is total", func(t *testing.T) {
		require.NoError(t, s.SetTodos([]agent.Todo{{Content: "only", Status: agent.TodoCompleted}}))
		todos := s.Todos()
		require.Len(t, todos, 1)
		assert.Equal(t, "only", todos[0].Content)
	})

	t.Run("invalid call leaves list unchanged", func(t *testing.T) {
		before := s.Todos()
		require.Error(t, s.SetTodos([]agent.Todo{{Content: "", Status: agent.TodoPending}}))
		assert.Equal(t, before, s.Todos())
	})
}

func TestSetTodosReplayKeepsIDs(t *testing.T) {
	s := agent.NewState("t")
	list := []agent.Todo{
		{Content: "gather sources", Status: agent.TodoPending},
		{Content: "write draft", Status: agent.TodoInProgress},
	}
	require.NoError(t, s.SetTodos(list))
	first := s.Todos()

	// Replaying the same ID-less list changes nothing, IDs included.
	require.NoError(t, s.SetTodos([]agent.Todo{
		{Content: "gather sources", Status: agent.TodoPending},
		{Content: "write draft", Status: agent.TodoInProgress},
	}))
	assert.Equal(t, first, s.Todos())

	// A status flip keeps the item's ID.
	require.NoError(t, s.SetTodos([]agent.Todo{
		{Content: "gather sources", Status: agent.TodoCompleted},
		{Content: "write draft", Status: agent.TodoInProgress},
	}))
	updated := s.Todos()
	require.Len(t, updated, 2)
	assert.Equal(t, first[0].ID, updated[0].ID)
	assert.Equal(t, agent.TodoCompleted, updated[0].Status)
	assert.Equal(t, first[1].ID, updated[1].ID)
}

func TestTodosReturnsCopy(t *testing.T) {
	s := agent.NewState("t")
	require.NoError(t, s.SetTodos([]agent.Todo{{Content: "a", Status: agent.TodoPending}}))

	got := s.Todos()
	got[0].Content = "mutated"
	assert.Equal(t, "a", s.Todos()[0].Content)
}

func TestConcurrentTodoUpdates(t *testing.T) {
	s := agent.NewState("t")
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.SetTodos([]agent.Todo{
				{Content: "a", Status: agent.TodoPending},
				{Content: "b", Status: agent.TodoPending},
			})
		}()
	}
	wg.Wait()
	assert.Len(t, s.Todos(), 2)
}

func TestStateMarshalJSON(t *testing.T) {
	s := agent.NewState("thread-1")
	s.Messages = append(s.Messages, agent.Human("hi"))
	s.Files.Write("a.txt", "abc")
	require.NoError(t, s.SetTodos([]agent.Todo{{Content: "x", Status: agent.TodoPending}}))

	data, err := json.Marshal(s)
	require.NoError(t, err)

	var out struct {
		ThreadID  string            `json:"thread_id"`
		Todos     []agent.Todo      `json:"todos"`
		Files     map[string]string `json:"files"`
		Truncated bool              `json:"truncated"`
	}
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, "thread-1", out.ThreadID)
	assert.Equal(t, map[string]string{"a.txt": "abc"}, out.Files)
	require.Len(t, out.Todos, 1)
	assert.False(t, out.Truncated)
}
