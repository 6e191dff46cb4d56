package runner

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/tailored-agentic-units/imitation/game"
	"github.com/tailored-agentic-units/imitation/orchestrate/config"
)

// Config holds initialization parameters for the engine, the bus and the
// game. Each section delegates to its own Default and Merge.
type Config struct {
	Machine     config.MachineConfig     `json:"machine" yaml:"machine"`
	Concurrence config.ConcurrenceConfig `json:"concurrence" yaml:"concurrence"`
	Monitor     config.MonitorConfig     `json:"monitor" yaml:"monitor"`
	Bus         config.BusConfig         `json:"bus" yaml:"bus"`
	Game        game.Config              `json:"game" yaml:"game"`
}

func DefaultConfig() Config {
	concurrence := config.DefaultConcurrenceConfig(game.RootName)
	concurrence.DefaultOutcome = game.GameError

	return Config{
		Machine:     config.DefaultMachineConfig(game.GameName),
		Concurrence: concurrence,
		Monitor:     config.DefaultMonitorConfig(),
		Bus:         config.DefaultBusConfig(),
		Game:        game.DefaultConfig(),
	}
}

func (c *Config) Merge(source *Config) {
	c.Machine.Merge(&source.Machine)
	c.Concurrence.Merge(&source.Concurrence)
	c.Monitor.Merge(&source.Monitor)
	c.Bus.Merge(&source.Bus)
	c.Game.Merge(&source.Game)
}

// LoadConfig reads a YAML (.yaml, .yml) or JSON (.json) config file, merges
// it with defaults, and returns the resulting Config. A relative
// game.content_file is resolved against the config file's directory.
func LoadConfig(filename string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var loaded Config
	switch ext := strings.ToLower(filepath.Ext(filename)); ext {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &loaded)
	case ".json":
		err = json.Unmarshal(data, &loaded)
	default:
		return nil, fmt.Errorf("unsupported config file extension %q", ext)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if f := loaded.Game.ContentFile; f != "" && !filepath.IsAbs(f) {
		loaded.Game.ContentFile = filepath.Join(filepath.Dir(filename), f)
	}

	cfg.Merge(&loaded)
	return &cfg, nil
}
