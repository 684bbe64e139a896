package runtime

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/rtfs-lang/rtfs/internal/eval"
	"github.com/rtfs-lang/rtfs/internal/module"
	"github.com/rtfs-lang/rtfs/internal/optimize"
)

// Config is the on-disk shape of a runtime configuration file: module
// search roots and the default strategy/optimization level.
type Config struct {
	Strategy      string   `yaml:"strategy"`
	OptimizeLevel string   `yaml:"optimize_level"`
	ModulePaths   []string `yaml:"module_paths"`
}

// LoadConfig reads and parses a YAML runtime configuration file.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing %s: %w", path, err)
	}
	return cfg, nil
}

// ToOptions resolves a Config into runtime Options, defaulting an empty or
// unrecognized strategy/level to StrategyIR/Basic.
func (c Config) ToOptions(parser module.Parser, logger eval.Logger) Options {
	return Options{
		Strategy:      parseStrategy(c.Strategy),
		OptimizeLevel: parseLevel(c.OptimizeLevel),
		ModulePaths:   c.ModulePaths,
		Parser:        parser,
		Logger:        logger,
	}
}

func parseStrategy(s string) Strategy {
	switch s {
	case "ast":
		return StrategyASTWalker
	case "ir-fallback":
		return StrategyIRWithASTFallback
	case "ir", "":
		return StrategyIR
	default:
		return StrategyIR
	}
}

func parseLevel(s string) optimize.Level {
	switch s {
	case "none":
		return optimize.None
	case "aggressive":
		return optimize.Aggressive
	case "basic", "":
		return optimize.Basic
	default:
		return optimize.Basic
	}
}
