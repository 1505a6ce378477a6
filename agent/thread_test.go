package agent_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"deepagent/agent"
)

func TestThreadStoreLoadOrCreate(t *testing.T) {
	ts := agent.NewThreadStore()
	defer ts.Close()

	s1 := ts.LoadOrCreate("a")
	require.NotNil(t, s1)
	assert.Equal(t, "a", s1.ThreadID)

	s1.Files.Write("x.txt", "1")
	s2 := ts.LoadOrCreate("a")
	assert.Same(t, s1, s2)

	assert.Equal(t, 1, ts.Len())
	assert.Nil(t, ts.Get("missing"))
}

func TestThreadStoreDelete(t *testing.T) {
	ts := agent.NewThreadStore()
	defer ts.Close()

	ts.LoadOrCreate("a")
	ts.Delete("a")
	assert.Nil(t, ts.Get("a"))
	assert.Equal(t, 0, ts.Len())
}
