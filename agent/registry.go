package agent

import (
	"fmt"
	"sort"
	"sync"
)

// Registry holds agent templates loaded from configuration.
type Registry struct {
	mu        sync.RWMutex
	templates map[string]*Template // key = agent_id
}

// Template is an agent configuration not yet instantiated.
type Template struct {
	AgentID string
	Config  *Config
}

// NewRegistry creates an empty agent registry.
func NewRegistry() *Registry {
	return &Registry{templates: make(map[string]*Template)}
}

// RegisterTemplate stores an agent template from config.
func (r *Registry) RegisterTemplate(agentID string, cfg *Config) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.templates[agentID] = &Template{AgentID: agentID, Config: cfg}
}

// Get returns the template for agentID.
func (r *Registry) Get(agentID string) (*Template, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tmpl, ok := r.templates[agentID]
	if !ok {
		return nil, fmt.Errorf("agent template %q not found", agentID)
	}
	return tmpl, nil
}

// List returns all template IDs, sorted.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.templates))
	for id := range r.templates {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// TemplateCount returns the number of registered templates.
func (r *Registry) TemplateCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.templates)
}

// Info returns the metadata listing for one template.
func (t *Template) Info() AgentInfo {
	cfg := t.Config
	info := AgentInfo{
		AgentID:   t.AgentID,
		Name:      cfg.Name,
		Model:     cfg.ModelStr(),
		Tools:     []string{},
		Subagents: []string{},
		Hooks:     []string{"todolist", "filesystem", "summarization"},
		MaxSteps:  cfg.MaxSteps,
	}
	if info.MaxSteps == 0 {
		info.MaxSteps = DefaultMaxSteps
	}
	if cfg.SystemPrompt != "" {
		info.SystemPrompt = truncate(cfg.SystemPrompt, 120)
	}
	if cfg.Memory != nil {
		info.Hooks = append(info.Hooks, "memory")
	}
	for _, sa := range cfg.Subagents {
		info.Subagents = append(info.Subagents, sa.Name)
	}
	return info
}

func truncate(s string, maxLen int) string {
	if len(s) > maxLen {
		return s[:maxLen] + "..."
	}
	return s
}
