package agent

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"deepagent/llm"
)

// DefaultMaxSteps is the default number of model turns per invocation. The
// budget is shared with every nested subagent loop.
const DefaultMaxSteps = 25

// Agent is a configured agent instance ready to run.
type Agent struct {
	ID        string
	Config    *Config
	LLM       llm.Client
	Tools     []Tool
	Hooks     []Hook
	Subagents map[string]*SubAgentSpec
	Logger    *zap.Logger

	threads *ThreadStore
	// allow restricts which tool names this agent may call. Nil means all.
	allow map[string]bool
}

// New creates an Agent with the given configuration, resolving any
// configured subagents. A nil logger defaults to zap.NewNop().
func New(id string, cfg *Config, client llm.Client, tools []Tool, hooks []Hook, logger *zap.Logger) (*Agent, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	a := &Agent{
		ID:      id,
		Config:  cfg,
		LLM:     client,
		Tools:   tools,
		Hooks:   hooks,
		Logger:  logger,
		threads: GlobalThreadStore,
	}
	subs, err := resolveSubAgents(cfg, client)
	if err != nil {
		return nil, err
	}
	a.Subagents = subs
	return a, nil
}

func (a *Agent) maxSteps() int {
	if a.Config.MaxSteps > 0 {
		return a.Config.MaxSteps
	}
	return DefaultMaxSteps
}

// Run executes the agent synchronously and returns the final state.
func (a *Agent) Run(ctx context.Context, messages []Message, threadID string) (*State, error) {
	ch := make(chan StreamEvent, 64)
	var state *State
	var runErr error

	go func() {
		defer close(ch)
		state, runErr = a.run(ctx, messages, threadID, ch)
	}()

	// Drain channel
	for range ch {
	}

	return state, runErr
}

// RunStream executes the agent and streams events to the given channel.
// The caller must read from eventCh until it's closed.
func (a *Agent) RunStream(ctx context.Context, messages []Message, threadID string, eventCh chan<- StreamEvent) {
	defer close(eventCh)

	state, err := a.run(ctx, messages, threadID, eventCh)
	if err != nil {
		eventCh <- StreamEvent{
			Event: "error",
			Data:  map[string]string{"error": err.Error()},
		}
		return
	}

	eventCh <- StreamEvent{
		Event:    "done",
		ThreadID: state.ThreadID,
		Data: map[string]any{
			"thread_id": state.ThreadID,
			"truncated": state.Truncated,
		},
	}
}

func (a *Agent) run(ctx context.Context, messages []Message, threadID string, eventCh chan<- StreamEvent) (*State, error) {
	start := time.Now()

	state := a.threads.LoadOrCreate(threadID)
	tr := TraceFromContext(ctx)

	for _, hook := range a.Hooks {
		var s SpanHandle
		if tr != nil {
			s = tr.StartSpan("hook.before_agent/" + hook.Name())
		}
		if err := hook.BeforeAgent(ctx, state); err != nil {
			if s != nil {
				s.Set("error", err.Error()).End()
			}
			return nil, fmt.Errorf("hook %s BeforeAgent: %w", hook.Name(), err)
		}
		if s != nil {
			s.End()
		}
	}

	state.Messages = append(state.Messages, messages...)

	budget := NewBudget(a.maxSteps())
	history, err := a.runLoop(ctx, state, state.Messages, budget, eventCh)
	if err != nil {
		return nil, err
	}
	state.Messages = history
	a.threads.Save(threadID, state)

	a.Logger.Debug("run complete",
		zap.String("agent_id", a.ID),
		zap.String("thread_id", state.ThreadID),
		zap.Bool("truncated", state.Truncated),
		zap.Int("steps_left", budget.Remaining()),
		zap.Duration("elapsed", time.Since(start)))

	return state, nil
}

// runLoop drives model turns against the given history until the model
// answers without tool calls, the step budget runs out, or the context is
// cancelled. The history is the loop's own: subagent loops run this same
// method with a freshly seeded history while sharing state and budget.
// Tool failures become error results the model can react to; only a failed
// model invocation aborts the loop.
func (a *Agent) runLoop(ctx context.Context, state *State, history []Message, budget *Budget, eventCh chan<- StreamEvent) ([]Message, error) {
	tr := TraceFromContext(ctx)

	toolMap := a.toolMap(state, budget, eventCh)
	toolSchemas := buildToolSchemas(toolMap)

	if tr != nil {
		names := make([]string, 0, len(toolMap))
		for name := range toolMap {
			names = append(names, name)
		}
		tr.RecordEvent("tools.available", map[string]any{
			"count": len(names),
			"tools": names,
		})
	}

	modelCall := a.buildModelChain(toolSchemas, eventCh)

	for {
		select {
		case <-ctx.Done():
			return history, ctx.Err()
		default:
		}

		if !budget.Take() {
			state.markTruncated()
			a.Logger.Warn("step budget exhausted",
				zap.String("agent_id", a.ID),
				zap.String("thread_id", state.ThreadID))
			break
		}

		msgs := make([]Message, len(history))
		copy(msgs, history)
		for _, hook := range a.Hooks {
			var s SpanHandle
			if tr != nil {
				s = tr.StartSpan("hook.modify_request/" + hook.Name())
				s.Set("message_count_before", len(msgs))
			}
			var err error
			msgs, err = hook.ModifyRequest(ctx, msgs)
			if err != nil {
				if s != nil {
					s.Set("error", err.Error()).End()
				}
				return history, fmt.Errorf("hook %s ModifyRequest: %w", hook.Name(), err)
			}
			if s != nil {
				s.Set("message_count_after", len(msgs)).End()
			}
		}

		eventCh <- StreamEvent{Event: "on_chat_model_start", Name: a.Config.ModelStr()}

		response, err := modelCall(ctx, msgs)
		if err != nil {
			return history, fmt.Errorf("%w: %v", ErrModelInvocation, err)
		}

		eventCh <- StreamEvent{Event: "on_chat_model_end", Name: a.Config.ModelStr()}

		calls := make([]ToolCall, len(response.ToolCalls))
		for i, tc := range response.ToolCalls {
			calls[i] = ToolCall{ID: tc.ID, Name: tc.Name, Args: tc.Args}
		}
		history = append(history, AI(response.Content, calls...))

		if len(calls) == 0 {
			break
		}

		results := a.executeToolCalls(ctx, calls, toolMap, eventCh)
		for _, result := range results {
			history = append(history, ToolMsg(result.ToolCallID, result.Name, result.Output))
		}
	}

	return history, nil
}

// executeToolCalls runs one turn's tool calls and returns results indexed
// by request position. Unordered tools fan out concurrently; tools marked
// ordered run one after another in request order, each waiting for the
// previous ordered tool to finish.
func (a *Agent) executeToolCalls(ctx context.Context, calls []ToolCall, toolMap map[string]Tool, eventCh chan<- StreamEvent) []ToolResult {
	results := make([]ToolResult, len(calls))

	g, gctx := errgroup.WithContext(ctx)
	prev := make(chan struct{})
	close(prev)

	for i, tc := range calls {
		i, tc := i, tc
		var gate, done chan struct{}
		if tool := toolMap[tc.Name]; tool != nil && isOrdered(tool) {
			gate = prev
			done = make(chan struct{})
			prev = done
		}
		g.Go(func() error {
			if gate != nil {
				defer close(done)
				select {
				case <-gate:
				case <-gctx.Done():
				}
			}
			results[i] = a.executeOne(gctx, tc, toolMap, eventCh)
			return nil
		})
	}
	g.Wait()

	return results
}

func (a *Agent) executeOne(ctx context.Context, tc ToolCall, toolMap map[string]Tool, eventCh chan<- StreamEvent) ToolResult {
	eventCh <- StreamEvent{
		Event: "on_tool_start",
		Name:  tc.Name,
		RunID: tc.ID,
		Data:  map[string]any{"input": tc.Args},
	}

	chain := a.buildToolCallChain(toolMap)
	wrapped, err := chain(ctx, tc)

	var result ToolResult
	if err != nil {
		result = ToolResult{
			ToolCallID: tc.ID,
			Name:       tc.Name,
			Error:      err.Error(),
			Output:     "Error: " + err.Error(),
		}
	} else if wrapped != nil {
		result = *wrapped
	}

	if result.Error != "" {
		a.Logger.Debug("tool error",
			zap.String("tool", tc.Name),
			zap.String("call_id", tc.ID),
			zap.String("error", result.Error))
	}

	eventCh <- StreamEvent{
		Event: "on_tool_end",
		Name:  tc.Name,
		RunID: tc.ID,
		Data:  map[string]any{"output": result.Output},
	}
	return result
}

func (a *Agent) executeTool(ctx context.Context, tc ToolCall, toolMap map[string]Tool) ToolResult {
	tool, ok := toolMap[tc.Name]
	if !ok {
		return ToolResult{
			ToolCallID: tc.ID,
			Name:       tc.Name,
			Error:      fmt.Sprintf("unknown tool: %s", tc.Name),
			Output:     fmt.Sprintf("Error: tool %q not found", tc.Name),
		}
	}

	output, err := tool.Execute(ctx, tc.Args)
	if err != nil {
		return ToolResult{
			ToolCallID: tc.ID,
			Name:       tc.Name,
			Error:      err.Error(),
			Output:     "Error: " + err.Error(),
		}
	}

	return ToolResult{
		ToolCallID: tc.ID,
		Name:       tc.Name,
		Output:     output,
	}
}

// toolMap assembles the tools visible to this agent for one run: static
// tools, tools hooks registered on the state, and the task tool when
// subagents are configured. The allow filter applies to everything but the
// task tool, which only exists on agents that own subagents.
func (a *Agent) toolMap(state *State, budget *Budget, eventCh chan<- StreamEvent) map[string]Tool {
	out := make(map[string]Tool)
	for _, t := range a.Tools {
		out[t.Name()] = t
	}
	for name, t := range state.runtimeTools() {
		out[name] = t
	}
	if a.allow != nil {
		for name := range out {
			if !a.allow[name] {
				delete(out, name)
			}
		}
	}
	if len(a.Subagents) > 0 {
		task := a.taskTool(state, budget, eventCh)
		out[task.Name()] = task
	}
	return out
}

// buildModelChain wraps the base model call with every WrapModelCall hook,
// reverse order so index 0 is outermost. The base call streams and
// re-assembles the response, forwarding text deltas to eventCh.
func (a *Agent) buildModelChain(toolSchemas []llm.ToolSchema, eventCh chan<- StreamEvent) ModelCallWrapFunc {
	base := func(ctx context.Context, msgs []Message) (*llm.Response, error) {
		req := llm.Request{
			Model:     a.Config.ModelStr(),
			Messages:  convertMessages(msgs),
			Tools:     toolSchemas,
			MaxTokens: 4096,
		}
		if a.Config.SystemPrompt != "" {
			req.SystemPrompt = a.Config.SystemPrompt
		}

		chunkCh := make(chan llm.StreamChunk, 64)
		var llmErr error
		var llmDone sync.WaitGroup
		llmDone.Add(1)
		go func() {
			defer llmDone.Done()
			llmErr = a.LLM.Stream(ctx, req, chunkCh)
		}()

		resp := &llm.Response{}
		for chunk := range chunkCh {
			if chunk.Error != nil {
				return nil, chunk.Error
			}
			if chunk.Delta != "" {
				resp.Content += chunk.Delta
				eventCh <- StreamEvent{
					Event: "on_chat_model_stream",
					Name:  a.Config.ModelStr(),
					Data: map[string]any{
						"chunk": map[string]any{"content": chunk.Delta},
					},
				}
			}
			if chunk.ToolCall != nil {
				resp.ToolCalls = append(resp.ToolCalls, *chunk.ToolCall)
			}
		}

		llmDone.Wait()
		if llmErr != nil {
			return nil, llmErr
		}
		return resp, nil
	}

	fn := base
	for i := len(a.Hooks) - 1; i >= 0; i-- {
		hook := a.Hooks[i]
		next := fn
		fn = func(ctx context.Context, msgs []Message) (*llm.Response, error) {
			return hook.WrapModelCall(ctx, msgs, next)
		}
	}
	return fn
}

// buildToolCallChain wraps actual tool execution with all WrapToolCall
// hooks, reverse order so index 0 is outermost.
func (a *Agent) buildToolCallChain(toolMap map[string]Tool) ToolCallFunc {
	base := func(ctx context.Context, tc ToolCall) (*ToolResult, error) {
		r := a.executeTool(ctx, tc, toolMap)
		return &r, nil
	}

	fn := base
	for i := len(a.Hooks) - 1; i >= 0; i-- {
		hook := a.Hooks[i]
		next := fn
		fn = func(ctx context.Context, tc ToolCall) (*ToolResult, error) {
			return hook.WrapToolCall(ctx, tc, next)
		}
	}
	return fn
}

func convertMessages(msgs []Message) []llm.Message {
	out := make([]llm.Message, len(msgs))
	for i, m := range msgs {
		out[i] = llm.Message{
			Role:       m.Role,
			Content:    m.Content,
			ToolCallID: m.ToolCallID,
			Name:       m.Name,
		}
		for _, tc := range m.ToolCalls {
			out[i].ToolCalls = append(out[i].ToolCalls, llm.ToolCallInfo{
				ID:   tc.ID,
				Name: tc.Name,
				Args: tc.Args,
			})
		}
	}
	return out
}

func buildToolSchemas(toolMap map[string]Tool) []llm.ToolSchema {
	schemas := make([]llm.ToolSchema, 0, len(toolMap))
	for _, t := range toolMap {
		schemas = append(schemas, llm.ToolSchema{
			Name:        t.Name(),
			Description: t.Description(),
			Parameters:  t.Parameters(),
		})
	}
	return schemas
}
