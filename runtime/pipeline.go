package runtime

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

// Step is one {type, arg} entry of a pipeline's process or failure list.
type Step struct {
	Type string `yaml:"type" mapstructure:"type"`
	Arg  any    `yaml:"arg" mapstructure:"arg"`
}

// Pipeline is immutable after load. Exactly one of Re or Glob is set;
// SortingConfig.Validate enforces this at load time.
type Pipeline struct {
	Name      string         `yaml:"name" mapstructure:"name"`
	Input     string         `yaml:"input" mapstructure:"input"`
	Re        string         `yaml:"re" mapstructure:"re"`
	Glob      string         `yaml:"glob" mapstructure:"glob"`
	Blacklist []string       `yaml:"blacklist" mapstructure:"blacklist"`
	Context   map[string]any `yaml:"context" mapstructure:"context"`
	Process   []Step         `yaml:"process" mapstructure:"process"`
	Failure   []Step         `yaml:"failure" mapstructure:"failure"`

	compiledRe *regexp.Regexp
}

// SortingConfig is the top-level document of a sorting agent's config file.
type SortingConfig struct {
	// Debounce coalesces bursts of filesystem events for the same path
	// before a pipeline runs against it.
	Debounce  time.Duration `yaml:"debounce" mapstructure:"debounce" default:"1s"`
	Pipelines []Pipeline    `yaml:"pipelines" mapstructure:"pipelines"`
}

// Validate checks the load-time invariants: exactly one of re/glob per
// pipeline, every process/failure step's type registered, and compiles
// each pipeline's regex once up front.
func (s *SortingConfig) Validate(registry *Registry) error {
	seen := make(map[string]bool, len(s.Pipelines))
	for i := range s.Pipelines {
		p := &s.Pipelines[i]

		if p.Name == "" {
			return &PipelineError{Pipeline: fmt.Sprintf("#%d", i), Message: "missing name"}
		}
		if seen[p.Name] {
			return &PipelineError{Pipeline: p.Name, Message: "duplicate pipeline name"}
		}
		seen[p.Name] = true

		if p.Input == "" {
			return &PipelineError{Pipeline: p.Name, Message: "missing input"}
		}

		hasRe := p.Re != ""
		hasGlob := p.Glob != ""
		if hasRe == hasGlob {
			return &PipelineError{Pipeline: p.Name, Message: "exactly one of re or glob is required"}
		}
		if hasRe {
			compiled, err := regexp.Compile(p.Re)
			if err != nil {
				return &PipelineError{Pipeline: p.Name, Message: "invalid regex: " + err.Error()}
			}
			p.compiledRe = compiled
		}

		for _, step := range p.Process {
			if !registry.Has(step.Type) {
				return &PipelineError{Pipeline: p.Name, Message: "unknown processor type " + step.Type}
			}
		}
		for _, step := range p.Failure {
			if !registry.Has(step.Type) {
				return &PipelineError{Pipeline: p.Name, Message: "unknown processor type " + step.Type}
			}
		}
	}
	return nil
}

// Matches reports whether relativePath satisfies the pipeline's matcher
// and clears the blacklist.
func (p *Pipeline) Matches(relativePath string) bool {
	if p.compiledRe != nil {
		if !p.compiledRe.MatchString(relativePath) {
			return false
		}
	} else {
		ok, err := filepath.Match(p.Glob, relativePath)
		if err != nil || !ok {
			return false
		}
	}

	if len(p.Blacklist) == 0 {
		return true
	}
	components := strings.Split(relativePath, string(filepath.Separator))
	for _, pattern := range p.Blacklist {
		for _, component := range components {
			if ok, err := filepath.Match(pattern, component); err == nil && ok {
				return false
			}
		}
	}
	return true
}
