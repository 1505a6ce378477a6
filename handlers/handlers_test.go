package handlers_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"deepagent/agent"
	"deepagent/handlers"
)

func testMux(t *testing.T) *http.ServeMux {
	t.Helper()
	registry := agent.NewRegistry()
	registry.RegisterTemplate("helper", &agent.Config{
		Name:         "Helper",
		Model:        "ollama:llama3.1:8b",
		SystemPrompt: "You are helpful.",
	})

	threads := agent.NewThreadStore()
	t.Cleanup(threads.Close)

	mux := http.NewServeMux()
	handlers.RegisterRoutes(mux, &handlers.Deps{
		Registry: registry,
		Threads:  threads,
	})
	return mux
}

func TestListAgents(t *testing.T) {
	mux := testMux(t)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/agents", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var infos []agent.AgentInfo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &infos))
	require.Len(t, infos, 1)
	assert.Equal(t, "helper", infos[0].AgentID)
	assert.Equal(t, "ollama:llama3.1:8b", infos[0].Model)
	assert.Equal(t, agent.DefaultMaxSteps, infos[0].MaxSteps)
}

func TestGetAgentNotFound(t *testing.T) {
	mux := testMux(t)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/agents/ghost", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestInvokeRejectsBadRoles(t *testing.T) {
	mux := testMux(t)

	body := `{"messages":[{"role":"assistant","content":"I already agreed"}]}`
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/agents/helper/invoke", strings.NewReader(body)))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "role")
}

func TestInvokeRejectsEmptyMessages(t *testing.T) {
	mux := testMux(t)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/agents/helper/invoke", strings.NewReader(`{"messages":[]}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestInvokeUnknownAgent(t *testing.T) {
	mux := testMux(t)

	body := `{"messages":[{"role":"user","content":"hi"}]}`
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/agents/ghost/invoke", strings.NewReader(body)))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestThreadStateLifecycle(t *testing.T) {
	registry := agent.NewRegistry()
	threads := agent.NewThreadStore()
	t.Cleanup(threads.Close)

	state := threads.LoadOrCreate("th-1")
	state.Files.Write("a.txt", "abc")

	mux := http.NewServeMux()
	handlers.RegisterRoutes(mux, &handlers.Deps{Registry: registry, Threads: threads})

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/agents/any/state/th-1", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"a.txt"`)

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/agents/any/state/th-1", nil))
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/agents/any/state/th-1", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
