package agent

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"deepagent/llm"
)

// GeneralPurposeName is the subagent available on every agent that has
// delegation enabled. It runs with the parent's model and full tool set.
const GeneralPurposeName = "general-purpose"

const generalPurposePrompt = "You are a capable assistant. Complete the task you are given thoroughly, then reply with your findings. Your final message is the only thing reported back, so make it complete and self-contained."

// SubAgentSpec is a resolved delegation target.
type SubAgentSpec struct {
	Name        string
	Description string
	Prompt      string
	// Tools restricts the subagent's tool set. Empty means all of the
	// parent's tools.
	Tools []string

	client llm.Client
	model  any
}

// resolveSubAgents builds the delegation table from configuration. The
// general-purpose subagent is always present. Specs with their own model
// get their own client; the rest share the parent's.
func resolveSubAgents(cfg *Config, parent llm.Client) (map[string]*SubAgentSpec, error) {
	out := map[string]*SubAgentSpec{
		GeneralPurposeName: {
			Name:        GeneralPurposeName,
			Description: "General-purpose agent for complex, multi-step tasks. Has access to the same tools as you.",
			Prompt:      generalPurposePrompt,
			client:      parent,
			model:       cfg.Model,
		},
	}

	for _, sc := range cfg.Subagents {
		if sc.Name == "" {
			return nil, fmt.Errorf("subagent with empty name")
		}
		spec := &SubAgentSpec{
			Name:        sc.Name,
			Description: sc.Description,
			Prompt:      sc.SystemPrompt,
			Tools:       sc.Tools,
			client:      parent,
			model:       cfg.Model,
		}
		if spec.Prompt == "" {
			spec.Prompt = generalPurposePrompt
		}
		if sc.Model != "" {
			client, _, err := llm.Resolve(sc.Model)
			if err != nil {
				return nil, fmt.Errorf("subagent %s: %w", sc.Name, err)
			}
			spec.client = client
			spec.model = sc.Model
		}
		out[sc.Name] = spec
	}

	return out, nil
}

// taskTool builds the delegation tool for one run. The subagent loop gets
// a fresh history seeded with only the task description; it shares the
// parent's files, todos and step budget. Only the subagent's final text
// comes back, so the parent's context stays clean of the subagent's
// intermediate traffic.
func (a *Agent) taskTool(state *State, budget *Budget, eventCh chan<- StreamEvent) Tool {
	return &FuncTool{
		ToolName:   "task",
		ToolDesc:   a.taskDescription(),
		ToolParams: taskParams,
		Fn: func(ctx context.Context, args map[string]any) (string, error) {
			subagentType, _ := args["subagent_type"].(string)
			description, _ := args["description"].(string)
			if description == "" {
				return "", fmt.Errorf("description is required")
			}

			spec, ok := a.Subagents[subagentType]
			if !ok {
				return "", fmt.Errorf("%w: %q (available: %s)",
					ErrUnknownSubAgent, subagentType, strings.Join(a.subagentNames(), ", "))
			}

			child := a.childAgent(spec)
			seeded := []Message{Human(description)}
			history, err := child.runLoop(ctx, state, seeded, budget, eventCh)
			if err != nil {
				return "", fmt.Errorf("subagent %s: %w", spec.Name, err)
			}

			final := Messages(history).FinalAssistantContent()
			if final == "" {
				return "Subagent ran out of steps before producing a final answer.", nil
			}
			return final, nil
		},
	}
}

var taskParams = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"description": map[string]any{
			"type":        "string",
			"description": "The task for the subagent to perform. Include all necessary context; the subagent cannot see this conversation.",
		},
		"subagent_type": map[string]any{
			"type":        "string",
			"description": "The type of subagent to launch.",
		},
	},
	"required": []string{"description", "subagent_type"},
}

func (a *Agent) taskDescription() string {
	var sb strings.Builder
	sb.WriteString("Launch a subagent to handle a task. The subagent works in isolation: it only sees the description you give it, and only its final answer comes back. It shares your files and todo list. Available subagent types:\n")
	for _, name := range a.subagentNames() {
		fmt.Fprintf(&sb, "- %s: %s\n", name, a.Subagents[name].Description)
	}
	return sb.String()
}

func (a *Agent) subagentNames() []string {
	names := make([]string, 0, len(a.Subagents))
	for name := range a.Subagents {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// childAgent builds the loop runner for one delegation. Children share the
// parent's hooks, static tools, thread store and delegation table, but
// carry their own system prompt, model and tool allowlist. Nested
// delegation is bounded by the shared step budget.
func (a *Agent) childAgent(spec *SubAgentSpec) *Agent {
	var allow map[string]bool
	if len(spec.Tools) > 0 {
		allow = make(map[string]bool, len(spec.Tools))
		for _, name := range spec.Tools {
			allow[name] = true
		}
	}

	return &Agent{
		ID: a.ID + "/" + spec.Name,
		Config: &Config{
			Name:         spec.Name,
			Model:        spec.model,
			SystemPrompt: spec.Prompt,
			MaxSteps:     a.Config.MaxSteps,
		},
		LLM:       spec.client,
		Tools:     a.Tools,
		Hooks:     a.Hooks,
		Subagents: a.Subagents,
		Logger:    a.Logger,
		threads:   a.threads,
		allow:     allow,
	}
}
