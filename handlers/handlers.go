package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"deepagent/agent"
	"deepagent/hooks"
	"deepagent/llm"
	"deepagent/sse"
	"deepagent/tracing"
)

// Deps holds shared dependencies injected into handlers.
type Deps struct {
	Registry *agent.Registry
	Threads  *agent.ThreadStore
	Traces   *tracing.Store
	Logger   *zap.Logger
	// Tools are static tools given to every agent in addition to the
	// hook-registered built-ins.
	Tools []agent.Tool
}

// RegisterRoutes registers all /agents/ and /traces/ routes on the mux.
func RegisterRoutes(mux *http.ServeMux, deps *Deps) {
	if deps.Threads == nil {
		deps.Threads = agent.GlobalThreadStore
	}
	if deps.Traces == nil {
		deps.Traces = tracing.NewStore(200)
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}

	h := &agentHandler{deps: deps}

	mux.HandleFunc("/agents", h.listAgents)
	mux.HandleFunc("/agents/", func(w http.ResponseWriter, r *http.Request) {
		path := strings.TrimPrefix(r.URL.Path, "/agents/")
		parts := strings.Split(path, "/")
		agentID := parts[0]
		if agentID == "" {
			h.listAgents(w, r)
			return
		}

		sub := ""
		if len(parts) > 1 {
			sub = parts[1]
		}

		switch sub {
		case "":
			h.getAgent(w, r, agentID)
		case "invoke":
			h.invoke(w, r, agentID)
		case "stream":
			h.stream(w, r, agentID)
		case "state":
			if len(parts) < 3 || parts[2] == "" {
				writeJSONError(w, http.StatusBadRequest, "thread id required")
				return
			}
			h.threadState(w, r, parts[2])
		default:
			http.NotFound(w, r)
		}
	})

	mux.HandleFunc("/traces", h.listTraces)
	mux.HandleFunc("/traces/", func(w http.ResponseWriter, r *http.Request) {
		traceID := strings.TrimPrefix(r.URL.Path, "/traces/")
		h.getTrace(w, r, traceID)
	})
}

type agentHandler struct {
	deps *Deps
}

// --- Listings ---

func (h *agentHandler) listAgents(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	infos := []agent.AgentInfo{}
	for _, id := range h.deps.Registry.List() {
		tmpl, err := h.deps.Registry.Get(id)
		if err != nil {
			continue
		}
		infos = append(infos, tmpl.Info())
	}
	writeJSON(w, http.StatusOK, infos)
}

func (h *agentHandler) getAgent(w http.ResponseWriter, r *http.Request, agentID string) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	tmpl, err := h.deps.Registry.Get(agentID)
	if err != nil {
		writeJSONError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, tmpl.Info())
}

// --- Invoke ---

type invokeRequest struct {
	Messages []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
	ThreadID *string `json:"thread_id"`
	Trace    bool    `json:"trace"`
}

// validateMessages checks caller-submitted messages. Only "user" and
// "system" are accepted; "assistant" and "tool" are internal roles created
// by the agent loop.
func validateMessages(req *invokeRequest) ([]agent.Message, error) {
	chain := make(agent.Messages, len(req.Messages))
	for i, m := range req.Messages {
		chain[i] = agent.Message{Role: m.Role, Content: m.Content}
	}
	if err := chain.ValidateUserInput(); err != nil {
		return nil, err
	}
	return chain.Slice(), nil
}

func (h *agentHandler) invoke(w http.ResponseWriter, r *http.Request, agentID string) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req invokeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}

	tmpl, err := h.deps.Registry.Get(agentID)
	if err != nil {
		writeJSONError(w, http.StatusNotFound, err.Error())
		return
	}

	msgs, err := validateMessages(&req)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	a, err := h.buildAgent(tmpl)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}

	threadID := uuid.NewString()
	if req.ThreadID != nil && *req.ThreadID != "" {
		threadID = *req.ThreadID
	}

	ctx := r.Context()
	var trace *tracing.Trace
	if req.Trace {
		trace = tracing.NewTrace(agentID, threadID, tmpl.Config.ModelStr(), "invoke", len(msgs))
		ctx = tracing.WithTrace(ctx, trace)
	}

	state, err := a.Run(ctx, msgs, threadID)
	if trace != nil {
		trace.Finish(err)
		h.deps.Traces.Put(trace)
	}
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}

	resp := map[string]any{
		"thread_id": state.ThreadID,
		"response":  agent.Messages(state.Messages).FinalAssistantContent(),
		"todos":     state.Todos(),
		"files":     state.Files.Snapshot(),
		"truncated": state.Truncated,
	}
	if trace != nil {
		resp["trace_id"] = trace.TraceID
	}
	writeJSON(w, http.StatusOK, resp)
}

// --- Stream (SSE) ---

func (h *agentHandler) stream(w http.ResponseWriter, r *http.Request, agentID string) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req invokeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}

	tmpl, err := h.deps.Registry.Get(agentID)
	if err != nil {
		writeJSONError(w, http.StatusNotFound, err.Error())
		return
	}

	// Validate before SSE headers are sent (NewWriter commits 200)
	msgs, err := validateMessages(&req)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	a, err := h.buildAgent(tmpl)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}

	sseWriter := sse.NewWriter(w)
	if sseWriter == nil {
		writeJSONError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	threadID := uuid.NewString()
	if req.ThreadID != nil && *req.ThreadID != "" {
		threadID = *req.ThreadID
	}

	ctx := r.Context()
	var trace *tracing.Trace
	if req.Trace {
		trace = tracing.NewTrace(agentID, threadID, tmpl.Config.ModelStr(), "stream", len(msgs))
		ctx = tracing.WithTrace(ctx, trace)
	}

	start := time.Now()
	eventCh := make(chan agent.StreamEvent, 64)
	go a.RunStream(ctx, msgs, threadID, eventCh)

	for evt := range eventCh {
		switch evt.Event {
		case "done":
			sseWriter.SendEvent("done", map[string]any{
				"thread_id":         threadID,
				"data":              evt.Data,
				"total_duration_ms": time.Since(start).Milliseconds(),
			})
		case "error":
			sseWriter.SendEvent("error", evt.Data)
		default:
			sseWriter.SendEvent(evt.Event, map[string]any{
				"event":  evt.Event,
				"name":   evt.Name,
				"run_id": evt.RunID,
				"data":   evt.Data,
			})
		}
	}

	if trace != nil {
		trace.Finish(nil)
		h.deps.Traces.Put(trace)
	}
}

// --- Thread state ---

func (h *agentHandler) threadState(w http.ResponseWriter, r *http.Request, threadID string) {
	switch r.Method {
	case http.MethodGet:
		state := h.deps.Threads.Get(threadID)
		if state == nil {
			writeJSONError(w, http.StatusNotFound, "thread not found: "+threadID)
			return
		}
		writeJSON(w, http.StatusOK, state)
	case http.MethodDelete:
		h.deps.Threads.Delete(threadID)
		w.WriteHeader(http.StatusNoContent)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// --- Traces ---

func (h *agentHandler) listTraces(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, h.deps.Traces.List(50))
}

func (h *agentHandler) getTrace(w http.ResponseWriter, r *http.Request, traceID string) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	t := h.deps.Traces.Get(traceID)
	if t == nil {
		writeJSONError(w, http.StatusNotFound, "trace not found: "+traceID)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// --- Agent builder ---

func (h *agentHandler) buildAgent(tmpl *agent.Template) (*agent.Agent, error) {
	cfg := tmpl.Config

	client, _, err := llm.Resolve(cfg.Model)
	if err != nil {
		return nil, err
	}

	agentHooks := []agent.Hook{
		tracing.NewTracingHook(),
		hooks.NewTodoListHook(),
		hooks.NewFilesystemHook(),
	}
	if cfg.Memory != nil {
		agentHooks = append(agentHooks, hooks.NewMemoryHook(cfg.Memory))
	}
	agentHooks = append(agentHooks, hooks.NewSummarizationHook(client, cfg.ContextWindow))

	return agent.New(tmpl.AgentID, cfg, client, h.deps.Tools, agentHooks, h.deps.Logger)
}
