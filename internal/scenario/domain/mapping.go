package scenario

import (
	"fmt"
	"strings"
)

const (
	// SettingURDBLabel resolves to the configured utility rate identifier.
	SettingURDBLabel = "urdb_label"
	// SettingLoadProfilePath resolves to the configured load profile CSV path.
	SettingLoadProfilePath = "load_profile_path"
)

// FieldSpec binds one document field to exactly one source: a column,
// a literal value or a run setting.
type FieldSpec struct {
	Name    string   `yaml:"name"`
	Column  *int     `yaml:"column,omitempty"`
	Type    Coercion `yaml:"type,omitempty"`
	Value   any      `yaml:"value,omitempty"`
	Setting string   `yaml:"setting,omitempty"`
}

// SectionSpec groups the fields of one top-level document section.
type SectionSpec struct {
	Name     string      `yaml:"name"`
	Optional bool        `yaml:"optional,omitempty"`
	Fields   []FieldSpec `yaml:"fields"`
}

// Mapping is the declarative column-to-field table.
type Mapping struct {
	Name     string        `yaml:"name,omitempty"`
	Sections []SectionSpec `yaml:"sections"`
}

// Settings carries the run-level values fields can reference.
type Settings struct {
	URDBLabel       string
	LoadProfilePath string
}

func (s Settings) lookup(name string) (string, bool) {
	switch name {
	case SettingURDBLabel:
		return s.URDBLabel, true
	case SettingLoadProfilePath:
		return s.LoadProfilePath, true
	}
	return "", false
}

// Validate checks names, sources and coercions.
func (m Mapping) Validate() error {
	if len(m.Sections) == 0 {
		return fmt.Errorf("%w: no sections", ErrInvalidMapping)
	}
	sections := make(map[string]struct{}, len(m.Sections))
	for _, section := range m.Sections {
		if strings.TrimSpace(section.Name) == "" {
			return fmt.Errorf("%w: section without name", ErrInvalidMapping)
		}
		if _, dup := sections[section.Name]; dup {
			return fmt.Errorf("%w: duplicate section %s", ErrInvalidMapping, section.Name)
		}
		sections[section.Name] = struct{}{}
		fields := make(map[string]struct{}, len(section.Fields))
		for _, field := range section.Fields {
			qualified := section.Name + "." + field.Name
			if strings.TrimSpace(field.Name) == "" {
				return fmt.Errorf("%w: %s has a field without name", ErrInvalidMapping, section.Name)
			}
			if _, dup := fields[field.Name]; dup {
				return fmt.Errorf("%w: duplicate field %s", ErrInvalidMapping, qualified)
			}
			fields[field.Name] = struct{}{}
			if err := field.validate(); err != nil {
				return fmt.Errorf("%w: %s: %v", ErrInvalidMapping, qualified, err)
			}
		}
	}
	return nil
}

func (f FieldSpec) validate() error {
	sources := 0
	if f.Column != nil {
		sources++
		if *f.Column < 0 {
			return fmt.Errorf("negative column %d", *f.Column)
		}
	}
	if f.Value != nil {
		sources++
	}
	if f.Setting != "" {
		sources++
		if _, ok := (Settings{}).lookup(f.Setting); !ok {
			return fmt.Errorf("unknown setting %q", f.Setting)
		}
	}
	if sources != 1 {
		return fmt.Errorf("expected exactly one of column, value or setting, got %d", sources)
	}
	if !f.Type.Valid() {
		return fmt.Errorf("unknown type %q", string(f.Type))
	}
	return nil
}

// OptionalSections lists the sections that are only emitted on request.
func (m Mapping) OptionalSections() []string {
	var names []string
	for _, section := range m.Sections {
		if section.Optional {
			names = append(names, section.Name)
		}
	}
	return names
}

func (m Mapping) section(name string) (SectionSpec, bool) {
	for _, section := range m.Sections {
		if section.Name == name {
			return section, true
		}
	}
	return SectionSpec{}, false
}

// Col is a shorthand for a column-sourced field.
func Col(name string, column int, typ Coercion) FieldSpec {
	return FieldSpec{Name: name, Column: &column, Type: typ}
}

// Const is a shorthand for a literal field.
func Const(name string, value any) FieldSpec {
	return FieldSpec{Name: name, Value: value}
}

// FromSetting is a shorthand for a setting-sourced field.
func FromSetting(name, setting string) FieldSpec {
	return FieldSpec{Name: name, Setting: setting}
}
