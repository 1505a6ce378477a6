package hooks_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"deepagent/agent"
	"deepagent/hooks"
)

func TestMemoryHookSeedsAndInjects(t *testing.T) {
	h := hooks.NewMemoryHook(&agent.MemoryCfg{
		InitialContent: map[string]string{"AGENTS.md": "# Notes\nremember the plan"},
	})
	state := agent.NewState("t")
	require.NoError(t, h.BeforeAgent(context.Background(), state))

	content, err := state.Files.Get("AGENTS.md")
	require.NoError(t, err)
	assert.Contains(t, content, "remember the plan")

	msgs, err := h.ModifyRequest(context.Background(), []agent.Message{agent.Human("hi")})
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, agent.RoleSystem, msgs[0].Role)
	assert.Contains(t, msgs[0].Content, "<agent_memory>")
	assert.Contains(t, msgs[0].Content, "remember the plan")
}

func TestMemoryHookDoesNotOverwriteExisting(t *testing.T) {
	h := hooks.NewMemoryHook(&agent.MemoryCfg{
		InitialContent: map[string]string{"AGENTS.md": "seed"},
	})
	state := agent.NewState("t")
	state.Files.Write("AGENTS.md", "already edited")

	require.NoError(t, h.BeforeAgent(context.Background(), state))
	content, err := state.Files.Get("AGENTS.md")
	require.NoError(t, err)
	assert.Equal(t, "already edited", content)
}

func TestMemoryHookSeesAgentEdits(t *testing.T) {
	h := hooks.NewMemoryHook(&agent.MemoryCfg{
		InitialContent: map[string]string{"AGENTS.md": "v1"},
	})
	state := agent.NewState("t")
	require.NoError(t, h.BeforeAgent(context.Background(), state))

	state.Files.Write("AGENTS.md", "v2")

	msgs, err := h.ModifyRequest(context.Background(), []agent.Message{agent.Human("hi")})
	require.NoError(t, err)
	assert.Contains(t, msgs[0].Content, "v2")
	assert.NotContains(t, msgs[0].Content, "v1")
}

func TestMemoryHookAppendsToExistingSystemMessage(t *testing.T) {
	h := hooks.NewMemoryHook(&agent.MemoryCfg{
		InitialContent: map[string]string{"AGENTS.md": "the fact"},
	})
	state := agent.NewState("t")
	require.NoError(t, h.BeforeAgent(context.Background(), state))

	in := []agent.Message{agent.System("base prompt"), agent.Human("hi")}
	msgs, err := h.ModifyRequest(context.Background(), in)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Contains(t, msgs[0].Content, "base prompt")
	assert.Contains(t, msgs[0].Content, "the fact")
	// Input slice left untouched.
	assert.Equal(t, "base prompt", in[0].Content)
}
