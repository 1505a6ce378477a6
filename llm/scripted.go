package llm

import (
	"context"
	"fmt"
	"sync"
)

// ScriptedTurn configures one model turn in a scripted sequence.
type ScriptedTurn struct {
	Response *Response
	Err      error
}

// ScriptedClient is a deterministic Client for tests. It replays a fixed
// sequence of turns and records every request it receives.
type ScriptedClient struct {
	mu       sync.Mutex
	index    int
	turns    []ScriptedTurn
	Requests []Request
}

// NewScriptedClient builds a client that replays the given turns in order.
func NewScriptedClient(turns ...ScriptedTurn) *ScriptedClient {
	cloned := make([]ScriptedTurn, len(turns))
	copy(cloned, turns)
	return &ScriptedClient{turns: cloned}
}

var _ Client = (*ScriptedClient)(nil)

func (c *ScriptedClient) next(req Request) (*Response, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.Requests = append(c.Requests, req)
	if c.index >= len(c.turns) {
		return nil, fmt.Errorf("script exhausted at step %d", c.index+1)
	}
	turn := c.turns[c.index]
	c.index++
	if turn.Err != nil {
		return nil, turn.Err
	}
	if turn.Response == nil {
		return &Response{}, nil
	}
	cp := *turn.Response
	return &cp, nil
}

func (c *ScriptedClient) Call(_ context.Context, req Request) (*Response, error) {
	return c.next(req)
}

func (c *ScriptedClient) Stream(_ context.Context, req Request, ch chan<- StreamChunk) error {
	defer close(ch)

	resp, err := c.next(req)
	if err != nil {
		return err
	}
	if resp.Content != "" {
		ch <- StreamChunk{Delta: resp.Content}
	}
	for i := range resp.ToolCalls {
		tc := resp.ToolCalls[i]
		ch <- StreamChunk{ToolCall: &tc}
	}
	ch <- StreamChunk{Done: true}
	return nil
}

// Calls returns how many turns have been consumed.
func (c *ScriptedClient) Calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.index
}
