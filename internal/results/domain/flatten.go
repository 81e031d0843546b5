package results

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// Kind is the JSON type of a flattened value.
type Kind int

const (
	KindNull Kind = iota
	KindString
	KindNumber
	KindBool
	// KindArray holds a compact JSON array; arrays are not expanded into columns.
	KindArray
)

// Value is a flattened leaf. Text keeps numbers in their document form.
type Value struct {
	Kind Kind
	Text string
}

// String renders the value as a table cell.
func (v Value) String() string {
	if v.Kind == KindNull {
		return ""
	}
	return v.Text
}

// Interface returns the value as a JSON-compatible Go value.
func (v Value) Interface() any {
	switch v.Kind {
	case KindString:
		return v.Text
	case KindNumber:
		return json.Number(v.Text)
	case KindBool:
		return v.Text == "true"
	case KindArray:
		return json.RawMessage(v.Text)
	}
	return nil
}

// Cell is one flattened column of a document.
type Cell struct {
	Column string
	Value  Value
}

var (
	errNotObject     = errors.New("top-level value is not an object")
	errTrailingData  = errors.New("unexpected data after top-level object")
	errUnexpectedTok = errors.New("unexpected token")
)

// Flatten decodes one JSON object and returns its leaves as dot-joined
// columns in document order. Later duplicate keys replace earlier values
// but keep the first position.
func Flatten(r io.Reader) ([]Cell, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, errNotObject
	}
	f := &flattener{dec: dec, index: map[string]int{}}
	if err := f.object(""); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		if err != nil {
			return nil, err
		}
		return nil, errTrailingData
	}
	return f.cells, nil
}

type flattener struct {
	dec   *json.Decoder
	cells []Cell
	index map[string]int
}

func (f *flattener) object(prefix string) error {
	for f.dec.More() {
		tok, err := f.dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("%w %v", errUnexpectedTok, tok)
		}
		column := key
		if prefix != "" {
			column = prefix + "." + key
		}
		if err := f.value(column); err != nil {
			return err
		}
	}
	_, err := f.dec.Token()
	return err
}

func (f *flattener) value(column string) error {
	tok, err := f.dec.Token()
	if err != nil {
		return err
	}
	switch t := tok.(type) {
	case json.Delim:
		if t == '{' {
			return f.object(column)
		}
		items, err := f.collect(t)
		if err != nil {
			return err
		}
		raw, err := json.Marshal(items)
		if err != nil {
			return err
		}
		f.set(column, Value{Kind: KindArray, Text: string(raw)})
	case string:
		f.set(column, Value{Kind: KindString, Text: t})
	case json.Number:
		f.set(column, Value{Kind: KindNumber, Text: t.String()})
	case bool:
		text := "false"
		if t {
			text = "true"
		}
		f.set(column, Value{Kind: KindBool, Text: text})
	case nil:
		f.set(column, Value{Kind: KindNull})
	default:
		return fmt.Errorf("%w %v", errUnexpectedTok, tok)
	}
	return nil
}

// collect rebuilds the array or object opened by delim as plain Go values.
func (f *flattener) collect(delim json.Delim) (any, error) {
	switch delim {
	case '[':
		items := []any{}
		for f.dec.More() {
			item, err := f.next()
			if err != nil {
				return nil, err
			}
			items = append(items, item)
		}
		_, err := f.dec.Token()
		return items, err
	case '{':
		obj := map[string]any{}
		for f.dec.More() {
			tok, err := f.dec.Token()
			if err != nil {
				return nil, err
			}
			key, ok := tok.(string)
			if !ok {
				return nil, fmt.Errorf("%w %v", errUnexpectedTok, tok)
			}
			item, err := f.next()
			if err != nil {
				return nil, err
			}
			obj[key] = item
		}
		_, err := f.dec.Token()
		return obj, err
	}
	return nil, fmt.Errorf("%w %v", errUnexpectedTok, delim)
}

func (f *flattener) next() (any, error) {
	tok, err := f.dec.Token()
	if err != nil {
		return nil, err
	}
	if delim, ok := tok.(json.Delim); ok {
		return f.collect(delim)
	}
	return tok, nil
}

func (f *flattener) set(column string, value Value) {
	if i, ok := f.index[column]; ok {
		f.cells[i].Value = value
		return
	}
	f.index[column] = len(f.cells)
	f.cells = append(f.cells, Cell{Column: column, Value: value})
}
