package deepagent

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"deepagent/agent"
)

// configFile is the top-level structure of agents.yaml.
type configFile struct {
	Defaults *configDefaults          `yaml:"defaults"`
	Agents   map[string]*agent.Config `yaml:"agents"`
}

type configDefaults struct {
	Model         any  `yaml:"model"`
	MaxSteps      int  `yaml:"max_steps"`
	ContextWindow int  `yaml:"context_window"`
	Debug         bool `yaml:"debug"`
}

// LoadConfigFile reads agents.yaml and registers agent templates, merging
// per-agent config over the defaults block.
func LoadConfigFile(path string, registry *agent.Registry, logger *zap.Logger) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config: %w", err)
	}

	var cfg configFile
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}

	for agentID, agentCfg := range cfg.Agents {
		if agentCfg == nil {
			return fmt.Errorf("agent %q has empty config", agentID)
		}
		if cfg.Defaults != nil {
			if agentCfg.Model == nil {
				agentCfg.Model = cfg.Defaults.Model
			}
			if agentCfg.MaxSteps == 0 {
				agentCfg.MaxSteps = cfg.Defaults.MaxSteps
			}
			if agentCfg.ContextWindow == 0 {
				agentCfg.ContextWindow = cfg.Defaults.ContextWindow
			}
			if !agentCfg.Debug && cfg.Defaults.Debug {
				agentCfg.Debug = true
			}
		}
		if agentCfg.Model == nil {
			return fmt.Errorf("agent %q has no model (set it or add a defaults block)", agentID)
		}

		registry.RegisterTemplate(agentID, agentCfg)
		logger.Info("loaded agent", zap.String("agent_id", agentID), zap.String("name", agentCfg.Name))
	}

	return nil
}
