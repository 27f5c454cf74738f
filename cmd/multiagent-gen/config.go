// ABOUTME: Loads --config's YAML file and merges it under CLI flags (flags win on any field explicitly set).
package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// fileConfig mirrors config's fields for YAML decoding; every field is a
// pointer so an absent key in the file is distinguishable from a zero value.
type fileConfig struct {
	Name            *string  `yaml:"name"`
	Goal            *string  `yaml:"goal"`
	Requirements    []string `yaml:"requirements"`
	ReferenceImages []string `yaml:"reference_images"`
	OutputDir       *string  `yaml:"output_dir"`
	Resume          *bool    `yaml:"resume"`
	Verbose         *bool    `yaml:"verbose"`
	Dashboard       *bool    `yaml:"dashboard"`
	Model           *string  `yaml:"model"`
	MaxToolRounds   *int     `yaml:"max_tool_rounds"`
	MaxTurns        *int     `yaml:"max_turns"`
}

// mergeConfigFile reads path as YAML and fills any field of cfg that was not
// explicitly set on the command line, per SPEC_FULL's precedence order:
// defaults < config file < flags.
func mergeConfigFile(cfg *config, path string, explicitFlags map[string]bool) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(raw, &fc); err != nil {
		return fmt.Errorf("parsing config file: %w", err)
	}

	if fc.Name != nil && !explicitFlags["name"] {
		cfg.name = *fc.Name
	}
	if fc.Goal != nil && !explicitFlags["goal"] {
		cfg.goal = *fc.Goal
	}
	if len(fc.Requirements) > 0 && !explicitFlags["requirement"] {
		cfg.requirements = append(stringSlice(nil), fc.Requirements...)
	}
	if len(fc.ReferenceImages) > 0 && !explicitFlags["reference-image"] {
		cfg.referenceImages = append(stringSlice(nil), fc.ReferenceImages...)
	}
	if fc.OutputDir != nil && !explicitFlags["output-dir"] {
		cfg.outputDir = *fc.OutputDir
	}
	if fc.Resume != nil && !explicitFlags["resume"] {
		cfg.resume = *fc.Resume
	}
	if fc.Verbose != nil && !explicitFlags["verbose"] {
		cfg.verbose = *fc.Verbose
	}
	if fc.Dashboard != nil && !explicitFlags["dashboard"] {
		cfg.dashboard = *fc.Dashboard
	}
	if fc.Model != nil && !explicitFlags["model"] {
		cfg.model = *fc.Model
	}
	if fc.MaxToolRounds != nil && !explicitFlags["max-tool-rounds"] {
		cfg.maxToolRounds = *fc.MaxToolRounds
	}
	if fc.MaxTurns != nil && !explicitFlags["max-turns"] {
		cfg.maxTurns = *fc.MaxTurns
	}

	return nil
}
