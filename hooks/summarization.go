package hooks

import (
	"context"
	"fmt"
	"strings"

	"deepagent/agent"
	"deepagent/llm"
)

// SummarizationHook compresses conversation context when it exceeds 85% of
// the model's context window, using the len/4 token heuristic. Tool
// transcripts in old messages are truncated before summarizing so the
// summary prompt itself stays small.
type SummarizationHook struct {
	agent.BaseHook
	client        llm.Client
	contextWindow int
}

// NewSummarizationHook creates a summarization hook. A zero contextWindow
// defaults to 128k tokens.
func NewSummarizationHook(client llm.Client, contextWindow int) *SummarizationHook {
	if contextWindow == 0 {
		contextWindow = 128_000
	}
	return &SummarizationHook{
		client:        client,
		contextWindow: contextWindow,
	}
}

func (h *SummarizationHook) Name() string { return "summarization" }

// WrapModelCall checks token count and summarizes if needed.
func (h *SummarizationHook) WrapModelCall(ctx context.Context, msgs []agent.Message, next agent.ModelCallWrapFunc) (*llm.Response, error) {
	threshold := int(float64(h.contextWindow) * 0.85)
	if agent.Messages(msgs).EstimateTokens() <= threshold {
		return next(ctx, msgs)
	}

	// Keep the recent 10% of messages, summarize the rest
	keepCount := len(msgs) / 10
	if keepCount < 2 {
		keepCount = 2
	}
	if keepCount >= len(msgs) {
		return next(ctx, msgs)
	}

	oldMsgs := msgs[:len(msgs)-keepCount]
	recentMsgs := msgs[len(msgs)-keepCount:]

	var sb strings.Builder
	sb.WriteString("Summarize the following conversation context concisely. ")
	sb.WriteString("Preserve key decisions, file paths, tool results, and important details. ")
	sb.WriteString("Keep the summary under 2000 words.\n\n")
	for _, m := range oldMsgs {
		content := m.Content
		if len(content) > 2000 && (m.Name == "write_file" || m.Name == "edit_file") {
			content = content[:2000] + "... [truncated]"
		}
		fmt.Fprintf(&sb, "[%s] %s\n\n", m.Role, content)
	}

	summaryResp, err := h.client.Call(ctx, llm.Request{
		Messages:  []llm.Message{{Role: "user", Content: sb.String()}},
		MaxTokens: 2000,
	})
	if err != nil {
		// Degraded but functional: send the full history
		return next(ctx, msgs)
	}

	summaryMsg := agent.System(fmt.Sprintf("[Conversation Summary]\n%s", summaryResp.Content))
	compressed := append([]agent.Message{summaryMsg}, recentMsgs...)
	return next(ctx, compressed)
}
