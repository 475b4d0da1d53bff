package stepform

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"
)

// ErrInvalidDefinition is wrapped by every semantic error reported while
// loading a YAML wizard definition.
var ErrInvalidDefinition = errors.New("invalid wizard definition")

// Definition is a declarative wizard description, typically loaded from
// YAML:
//
//	name: signup
//	storage_key: signup
//	defaults:
//	  plan: free
//	steps:
//	  - id: account
//	    title: Account
//	    fields:
//	      - key: email
//	        label: Email
//	        required: true
//	        pattern: '^[^@\s]+@[^@\s]+$'
//	  - id: plan
//	    title: Plan
//	    fields:
//	      - key: plan
//	        one_of: [free, pro]
type Definition struct {
	Name       string         `yaml:"name"`
	StorageKey string         `yaml:"storage_key"`
	Defaults   map[string]any `yaml:"defaults"`
	Steps      []StepSpec     `yaml:"steps"`
}

// StepSpec describes one step of a Definition.
type StepSpec struct {
	ID          string      `yaml:"id"`
	Title       string      `yaml:"title"`
	Description string      `yaml:"description"`
	Fields      []FieldSpec `yaml:"fields"`
}

// FieldSpec describes one input and the rules applied to it when the
// owning step is validated.
type FieldSpec struct {
	Key       string   `yaml:"key"`
	Label     string   `yaml:"label"`
	Help      string   `yaml:"help"`
	Required  bool     `yaml:"required"`
	MinLength int      `yaml:"min_length"`
	MaxLength int      `yaml:"max_length"`
	Pattern   string   `yaml:"pattern"`
	OneOf     []string `yaml:"one_of"`
}

// DisplayLabel returns Label, falling back to Key.
func (f FieldSpec) DisplayLabel() string {
	if f.Label != "" {
		return f.Label
	}
	return f.Key
}

// ParseDefinitionYAML decodes and checks a wizard definition.
func ParseDefinitionYAML(data []byte) (Definition, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return Definition{}, fmt.Errorf("stepform: definition payload is empty: %w", ErrInvalidDefinition)
	}
	var def Definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return Definition{}, fmt.Errorf("stepform: decode definition: %w", err)
	}
	if err := def.validate(); err != nil {
		return Definition{}, err
	}
	return def, nil
}

// LoadDefinitionReader reads definition data from an io.Reader.
func LoadDefinitionReader(r io.Reader) (Definition, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return Definition{}, fmt.Errorf("stepform: read definition: %w", err)
	}
	return ParseDefinitionYAML(content)
}

// LoadDefinitionFile loads a definition from path.
func LoadDefinitionFile(path string) (Definition, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return Definition{}, fmt.Errorf("stepform: read %s: %w", path, err)
	}
	def, err := ParseDefinitionYAML(content)
	if err != nil {
		return Definition{}, fmt.Errorf("stepform: %s: %w", path, err)
	}
	return def, nil
}

func (d Definition) validate() error {
	if len(d.Steps) == 0 {
		return fmt.Errorf("stepform: definition %q has no steps: %w", d.Name, ErrInvalidDefinition)
	}

	stepIDs := make(map[string]struct{}, len(d.Steps))
	fieldKeys := make(map[string]string)
	for i, s := range d.Steps {
		if s.ID == "" {
			return fmt.Errorf("stepform: step %d has no id: %w", i, ErrInvalidDefinition)
		}
		if _, dup := stepIDs[s.ID]; dup {
			return fmt.Errorf("stepform: duplicate step id %q: %w", s.ID, ErrInvalidDefinition)
		}
		stepIDs[s.ID] = struct{}{}

		for _, f := range s.Fields {
			if f.Key == "" {
				return fmt.Errorf("stepform: step %q has a field without key: %w", s.ID, ErrInvalidDefinition)
			}
			if owner, dup := fieldKeys[f.Key]; dup {
				return fmt.Errorf("stepform: field %q declared by steps %q and %q: %w", f.Key, owner, s.ID, ErrInvalidDefinition)
			}
			fieldKeys[f.Key] = s.ID

			if f.MinLength < 0 || f.MaxLength < 0 || (f.MaxLength > 0 && f.MinLength > f.MaxLength) {
				return fmt.Errorf("stepform: field %q has invalid length bounds: %w", f.Key, ErrInvalidDefinition)
			}
			if f.Pattern != "" {
				if _, err := regexp.Compile(f.Pattern); err != nil {
					return fmt.Errorf("stepform: field %q pattern: %v: %w", f.Key, err, ErrInvalidDefinition)
				}
			}
		}
	}
	return nil
}

// DefaultValues returns the initial FormState: an empty string for every
// declared field, overlaid with the explicit defaults.
func (d Definition) DefaultValues() FormState {
	state := FormState{}
	for _, s := range d.Steps {
		for _, f := range s.Fields {
			state[f.Key] = ""
		}
	}
	for k, v := range d.Defaults {
		state[k] = v
	}
	return state
}

// StepDefinitions converts the specs into engine steps. Each step's
// Component is its []FieldSpec, so renderers can recover labels and help
// text.
func (d Definition) StepDefinitions() []StepDefinition {
	steps := make([]StepDefinition, 0, len(d.Steps))
	for _, s := range d.Steps {
		keys := make([]string, 0, len(s.Fields))
		var validators []Validator
		for _, f := range s.Fields {
			keys = append(keys, f.Key)
			validators = append(validators, f.validators()...)
		}

		def := StepDefinition{
			ID:          s.ID,
			Title:       s.Title,
			Description: s.Description,
			FieldKeys:   keys,
			Component:   append([]FieldSpec(nil), s.Fields...),
		}
		if len(validators) > 0 {
			def.Validate = All(validators...)
		}
		steps = append(steps, def)
	}
	return steps
}

func (f FieldSpec) validators() []Validator {
	var out []Validator
	if f.Required {
		out = append(out, Required(f.Key))
	}
	if f.MinLength > 0 {
		out = append(out, MinLength(f.Key, f.MinLength))
	}
	if f.MaxLength > 0 {
		out = append(out, MaxLength(f.Key, f.MaxLength))
	}
	if f.Pattern != "" {
		out = append(out, Matches(f.Key, f.Pattern))
	}
	if len(f.OneOf) > 0 {
		out = append(out, OneOf(f.Key, f.OneOf...))
	}
	return out
}

// Config returns a wizard configuration for the definition. Persistence,
// observers and logging are left for the caller to add.
func (d Definition) Config(onComplete CompleteFunc) Config {
	return Config{
		Steps:         d.StepDefinitions(),
		DefaultValues: d.DefaultValues(),
		OnComplete:    onComplete,
		StorageKey:    d.StorageKey,
	}
}

// Builder returns a WizardBuilder preloaded with the definition's steps
// and defaults.
func (d Definition) Builder() *WizardBuilder {
	b := New().Defaults(d.DefaultValues())
	for _, s := range d.StepDefinitions() {
		b.StepDefinition(s)
	}
	return b
}

// FieldSpecs returns the field specs of a step built from a Definition,
// or synthesized specs (key only) for any other step.
func FieldSpecs(step StepDefinition) []FieldSpec {
	if specs, ok := step.Component.([]FieldSpec); ok {
		return specs
	}
	out := make([]FieldSpec, len(step.FieldKeys))
	for i, k := range step.FieldKeys {
		out[i] = FieldSpec{Key: k}
	}
	return out
}
