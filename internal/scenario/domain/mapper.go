package scenario

import (
	"fmt"
	"strconv"
	"strings"
)

// DefaultNamePattern names documents by 1-based row index.
const DefaultNamePattern = "case_{n}.json"

// Row is one positional record of the scenario table.
type Row struct {
	// Index is the 0-based position among data rows.
	Index int
	Cells []string
}

// DocumentName expands {n} in pattern with the 1-based row number.
func DocumentName(pattern string, index int) string {
	if pattern == "" {
		pattern = DefaultNamePattern
	}
	return strings.ReplaceAll(pattern, "{n}", strconv.Itoa(index+1))
}

// Mapper turns rows into documents using a fixed mapping and profile.
type Mapper struct {
	mapping  Mapping
	profile  Profile
	settings Settings
	enabled  map[string]bool
	width    int
}

// NewMapper validates the mapping and resolves which optional sections are emitted.
func NewMapper(mapping Mapping, profile Profile, settings Settings, optional []string) (*Mapper, error) {
	if err := mapping.Validate(); err != nil {
		return nil, err
	}
	switch profile {
	case "":
		profile = ProfileTyped
	case ProfileTyped, ProfileAllString:
	default:
		return nil, fmt.Errorf("%w: unknown coercion profile %q", ErrInvalidMapping, profile)
	}
	enabled := make(map[string]bool, len(mapping.Sections))
	for _, section := range mapping.Sections {
		if !section.Optional {
			enabled[section.Name] = true
		}
	}
	for _, name := range optional {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		section, ok := mapping.section(name)
		if !ok || !section.Optional {
			return nil, fmt.Errorf("%w: %q is not an optional section", ErrInvalidMapping, name)
		}
		enabled[name] = true
	}

	m := &Mapper{mapping: mapping, profile: profile, settings: settings, enabled: enabled}
	for _, section := range mapping.Sections {
		if !enabled[section.Name] {
			continue
		}
		for _, field := range section.Fields {
			if field.Column != nil && *field.Column+1 > m.width {
				m.width = *field.Column + 1
			}
			if field.Setting != "" {
				if value, _ := settings.lookup(field.Setting); value == "" {
					return nil, fmt.Errorf("%w: %s.%s needs setting %s", ErrInvalidMapping, section.Name, field.Name, field.Setting)
				}
			}
		}
	}
	return m, nil
}

// Width is the minimum number of columns a row must carry.
func (m *Mapper) Width() int { return m.width }

// Profile returns the coercion profile in use.
func (m *Mapper) Profile() Profile { return m.profile }

// Map builds the document for row. Rows shorter than Width fail with a
// MissingFieldError naming the lowest absent column.
func (m *Mapper) Map(row Row) (Document, error) {
	if err := m.checkWidth(row); err != nil {
		return Document{}, err
	}
	doc := Document{Row: row.Index}
	for _, spec := range m.mapping.Sections {
		if !m.enabled[spec.Name] {
			continue
		}
		section := Section{Name: spec.Name, Fields: make([]Field, 0, len(spec.Fields))}
		for _, field := range spec.Fields {
			value, err := m.fieldValue(row, spec.Name, field)
			if err != nil {
				return Document{}, err
			}
			section.Fields = append(section.Fields, Field{Name: field.Name, Value: value})
		}
		doc.Sections = append(doc.Sections, section)
	}
	return doc, nil
}

func (m *Mapper) checkWidth(row Row) error {
	if len(row.Cells) >= m.width {
		return nil
	}
	var missing *MissingFieldError
	for _, section := range m.mapping.Sections {
		if !m.enabled[section.Name] {
			continue
		}
		for _, field := range section.Fields {
			if field.Column == nil || *field.Column < len(row.Cells) {
				continue
			}
			if missing == nil || *field.Column < missing.Column {
				missing = &MissingFieldError{
					Row:    row.Index,
					Column: *field.Column,
					Field:  section.Name + "." + field.Name,
					Width:  len(row.Cells),
				}
			}
		}
	}
	if missing == nil {
		return nil
	}
	return missing
}

func (m *Mapper) fieldValue(row Row, section string, field FieldSpec) (any, error) {
	switch {
	case field.Setting != "":
		value, _ := m.settings.lookup(field.Setting)
		return value, nil
	case field.Column == nil:
		if m.profile == ProfileAllString {
			return formatConstant(field.Value), nil
		}
		return field.Value, nil
	}

	raw := row.Cells[*field.Column]
	if m.profile == ProfileAllString {
		return raw, nil
	}
	value, err := field.Type.Apply(raw)
	if err != nil {
		return nil, &CoercionError{
			Row:    row.Index,
			Column: *field.Column,
			Field:  section + "." + field.Name,
			Type:   field.Type,
			Value:  raw,
			Err:    err,
		}
	}
	return value, nil
}
