package runtime

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"

	"nasagent/runtime/notify"
)

var validate = validator.New()

// AgentType names one entry of an agent manifest's `agents` list.
type AgentType string

const (
	AgentTypeSorting AgentType = "sorting_agent"
	AgentTypeDove    AgentType = "dove"
)

// AgentEntry is one `{type, name, config}` entry of the manifest.
type AgentEntry struct {
	Type   AgentType `yaml:"type"`
	Name   string    `yaml:"name"`
	Config string    `yaml:"config"`
}

// Manifest is the top-level `agents:` document the CLI's `takeoff` loads.
type Manifest struct {
	Agents []AgentEntry `yaml:"agents"`
}

// envVarPattern matches ${VAR} and ${VAR:default} for environment-variable
// substitution in loaded config documents.
var envVarPattern = regexp.MustCompile(`^\$\{([A-Za-z_][A-Za-z0-9_]*)(:[^}]*)?\}$`)

func resolveEnvVar(value any) any {
	s, ok := value.(string)
	if !ok {
		return value
	}
	m := envVarPattern.FindStringSubmatch(s)
	if m == nil {
		return value
	}
	if v, ok := os.LookupEnv(m[1]); ok {
		return v
	}
	if m[2] != "" {
		return strings.TrimPrefix(m[2], ":")
	}
	return ""
}

func resolveEnvVarsDeep(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, vv := range t {
			out[k] = resolveEnvVarsDeep(vv)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, vv := range t {
			out[i] = resolveEnvVarsDeep(vv)
		}
		return out
	default:
		return resolveEnvVar(v)
	}
}

// LoadManifest reads and parses the top-level agent manifest.
func LoadManifest(path string) (*Manifest, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	var m Manifest
	if err := yaml.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	return &m, nil
}

// LoadSortingConfig reads, defaults, substitutes env vars into, and
// validates a sorting agent's pipeline configuration.
func LoadSortingConfig(path string, registry *Registry) (*SortingConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read sorting config: %w", err)
	}

	var loose map[string]any
	if err := yaml.Unmarshal(raw, &loose); err != nil {
		return nil, fmt.Errorf("parse sorting config: %w", err)
	}
	loose = resolveEnvVarsDeep(loose).(map[string]any)

	var cfg SortingConfig
	if err := decodeInto(loose, &cfg); err != nil {
		return nil, fmt.Errorf("decode sorting config: %w", err)
	}
	if err := defaults.Set(&cfg); err != nil {
		return nil, fmt.Errorf("apply defaults: %w", err)
	}
	if err := cfg.Validate(registry); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// DoveConfig is the top-level document of a dove agent's config file.
type DoveConfig struct {
	Doves []notify.ChannelConfig `yaml:"doves" mapstructure:"doves"`
}

// LoadDoveConfig reads and decodes a dove agent's channel list, randomly
// naming any channel entry that omits `name`.
func LoadDoveConfig(path string) (*DoveConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read dove config: %w", err)
	}

	var loose map[string]any
	if err := yaml.Unmarshal(raw, &loose); err != nil {
		return nil, fmt.Errorf("parse dove config: %w", err)
	}
	loose = resolveEnvVarsDeep(loose).(map[string]any)

	var cfg DoveConfig
	if err := decodeInto(loose, &cfg); err != nil {
		return nil, fmt.Errorf("decode dove config: %w", err)
	}
	for i := range cfg.Doves {
		if cfg.Doves[i].Name == "" {
			cfg.Doves[i].Name = uuid.New().String()
		}
		if err := defaults.Set(&cfg.Doves[i]); err != nil {
			return nil, fmt.Errorf("apply defaults to dove %q: %w", cfg.Doves[i].Name, err)
		}
		if err := validate.Struct(cfg.Doves[i]); err != nil {
			return nil, fmt.Errorf("dove %q: %w", cfg.Doves[i].Name, formatValidationError(err))
		}
	}
	return &cfg, nil
}

// decodeInto merges a loosely-typed YAML document into a typed struct via
// mapstructure, reading the struct's `yaml` tags so the same tag set
// written for yaml.v3 unmarshalling also drives the mapstructure pass.
// StringToTimeDurationHookFunc lets duration fields (SortingConfig.Debounce,
// notify.ChannelConfig.Timeout) accept the same "1s"/"200ms" strings YAML
// authors write, rather than requiring a raw nanosecond integer.
func decodeInto(raw map[string]any, out any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "yaml",
		WeaklyTypedInput: true,
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
		Result:           out,
	})
	if err != nil {
		return err
	}
	return decoder.Decode(raw)
}

// formatValidationError renders validator.ValidationErrors as a multi-line
// message.
func formatValidationError(err error) error {
	if validationErrors, ok := err.(validator.ValidationErrors); ok {
		var msgs []string
		for _, fieldErr := range validationErrors {
			msgs = append(msgs, fmt.Sprintf("field %q failed validation: %s", fieldErr.Field(), fieldErr.Tag()))
		}
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(msgs, "\n  - "))
	}
	return fmt.Errorf("config validation failed: %w", err)
}
