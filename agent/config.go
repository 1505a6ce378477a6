package agent

// Config is the immutable configuration for an agent, resolved once before
// any loop runs.
type Config struct {
	Name         string        `yaml:"name" json:"name"`
	Model        any           `yaml:"model" json:"model"` // string or map, resolved by llm.Resolve
	SystemPrompt string        `yaml:"system_prompt" json:"system_prompt"`
	Subagents    []SubAgentCfg `yaml:"subagents" json:"subagents"`
	Memory       *MemoryCfg    `yaml:"memory" json:"memory"`
	// ContextWindow enables context summarization when > 0 (token budget
	// of the configured model).
	ContextWindow int `yaml:"context_window" json:"context_window"`
	// MaxSteps bounds model turns per invocation, shared with subagents.
	// Zero means DefaultMaxSteps.
	MaxSteps int  `yaml:"max_steps" json:"max_steps"`
	Debug    bool `yaml:"debug" json:"debug"`
}

// SubAgentCfg describes a delegation target in configuration form.
type SubAgentCfg struct {
	Name         string   `yaml:"name" json:"name"`
	Description  string   `yaml:"description" json:"description"`
	SystemPrompt string   `yaml:"system_prompt" json:"system_prompt"`
	Tools        []string `yaml:"tools" json:"tools"`
	Model        string   `yaml:"model" json:"model"`
}

// MemoryCfg seeds and exposes persistent-style memory files inside the
// virtual filesystem.
type MemoryCfg struct {
	Paths          []string          `yaml:"paths" json:"paths"`
	InitialContent map[string]string `yaml:"initial_content" json:"initial_content"`
}

// AgentInfo is the JSON shape for agent metadata listings.
type AgentInfo struct {
	AgentID      string   `json:"agent_id"`
	Name         string   `json:"name,omitempty"`
	Model        string   `json:"model"`
	SystemPrompt string   `json:"system_prompt,omitempty"`
	Tools        []string `json:"tools"`
	Subagents    []string `json:"subagents"`
	Hooks        []string `json:"hooks"`
	MaxSteps     int      `json:"max_steps"`
}

// ModelStr extracts a display string from the Model field (string or map).
func (c *Config) ModelStr() string {
	switch v := c.Model.(type) {
	case string:
		return v
	case map[string]any:
		prov, _ := v["provider"].(string)
		model, _ := v["model"].(string)
		if prov != "" && model != "" {
			return prov + ":" + model
		}
		if model != "" {
			return model
		}
		return prov
	default:
		return ""
	}
}
