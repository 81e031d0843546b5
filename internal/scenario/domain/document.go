package scenario

import (
	"bytes"
	"encoding/json"
)

// Field is a named scalar inside a section.
type Field struct {
	Name  string
	Value any
}

// Section is an ordered group of fields.
type Section struct {
	Name   string
	Fields []Field
}

// Document is one scenario, serialized with sections and fields in mapping order.
type Document struct {
	Name     string
	Row      int
	Sections []Section
}

// Lookup returns the value of section.field.
func (d Document) Lookup(section, field string) (any, bool) {
	for _, s := range d.Sections {
		if s.Name != section {
			continue
		}
		for _, f := range s.Fields {
			if f.Name == field {
				return f.Value, true
			}
		}
	}
	return nil, false
}

// SectionNames returns the section names in order.
func (d Document) SectionNames() []string {
	names := make([]string, 0, len(d.Sections))
	for _, s := range d.Sections {
		names = append(names, s.Name)
	}
	return names
}

// MarshalJSON writes the sections as a JSON object keeping mapping order.
func (d Document) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, section := range d.Sections {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeKey(&buf, section.Name); err != nil {
			return nil, err
		}
		buf.WriteByte('{')
		for j, field := range section.Fields {
			if j > 0 {
				buf.WriteByte(',')
			}
			if err := writeKey(&buf, field.Name); err != nil {
				return nil, err
			}
			value, err := json.Marshal(field.Value)
			if err != nil {
				return nil, err
			}
			buf.Write(value)
		}
		buf.WriteByte('}')
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Encode renders the document with four-space indentation and a trailing newline.
func (d Document) Encode() ([]byte, error) {
	compact, err := d.MarshalJSON()
	if err != nil {
		return nil, err
	}
	var out bytes.Buffer
	if err := json.Indent(&out, compact, "", "    "); err != nil {
		return nil, err
	}
	out.WriteByte('\n')
	return out.Bytes(), nil
}

func writeKey(buf *bytes.Buffer, key string) error {
	encoded, err := json.Marshal(key)
	if err != nil {
		return err
	}
	buf.Write(encoded)
	buf.WriteByte(':')
	return nil
}
