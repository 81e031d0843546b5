package results

// SourceColumn is the optional leading column naming the input document.
const SourceColumn = "source"

// Record is the flattened form of one result document.
type Record struct {
	Source string
	Cells  []Cell
	index  map[string]int
}

// NewRecord indexes cells by column.
func NewRecord(source string, cells []Cell) Record {
	index := make(map[string]int, len(cells))
	for i, cell := range cells {
		index[cell.Column] = i
	}
	return Record{Source: source, Cells: cells, index: index}
}

// Get returns the value of column and whether the document carried it.
func (r Record) Get(column string) (Value, bool) {
	if r.index == nil {
		for _, cell := range r.Cells {
			if cell.Column == column {
				return cell.Value, true
			}
		}
		return Value{}, false
	}
	i, ok := r.index[column]
	if !ok {
		return Value{}, false
	}
	return r.Cells[i].Value, true
}

// Table is the union of flattened records.
type Table struct {
	Columns []string
	Rows    []Record
}

// Union collects every column in order of first appearance. Records keep
// only their own cells; absent columns read as empty.
func Union(records []Record) Table {
	seen := make(map[string]struct{})
	table := Table{Rows: records}
	for _, record := range records {
		for _, cell := range record.Cells {
			if _, ok := seen[cell.Column]; ok {
				continue
			}
			seen[cell.Column] = struct{}{}
			table.Columns = append(table.Columns, cell.Column)
		}
	}
	return table
}

// HasColumn reports whether column is part of the table schema.
func (t Table) HasColumn(column string) bool {
	for _, c := range t.Columns {
		if c == column {
			return true
		}
	}
	return false
}

// Project narrows the table to columns, in the requested order. Any column
// missing from the schema fails the projection; nothing is dropped or renamed.
func (t Table) Project(columns []string) (Table, error) {
	known := make(map[string]struct{}, len(t.Columns))
	for _, c := range t.Columns {
		known[c] = struct{}{}
	}
	var missing []string
	for _, c := range columns {
		if _, ok := known[c]; !ok {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return Table{}, &ColumnMissingError{Columns: missing}
	}
	return Table{Columns: append([]string(nil), columns...), Rows: t.Rows}, nil
}

// Header returns the column names, with the source column first when requested.
func (t Table) Header(withSource bool) []string {
	header := make([]string, 0, len(t.Columns)+1)
	if withSource {
		header = append(header, SourceColumn)
	}
	return append(header, t.Columns...)
}

// Values returns each row aligned to the table columns.
func (t Table) Values() [][]Value {
	out := make([][]Value, 0, len(t.Rows))
	for _, record := range t.Rows {
		row := make([]Value, len(t.Columns))
		for i, column := range t.Columns {
			row[i], _ = record.Get(column)
		}
		out = append(out, row)
	}
	return out
}

// Strings renders the table as text cells, matching Header(withSource).
func (t Table) Strings(withSource bool) [][]string {
	values := t.Values()
	out := make([][]string, 0, len(values))
	for i, row := range values {
		cells := make([]string, 0, len(row)+1)
		if withSource {
			cells = append(cells, t.Rows[i].Source)
		}
		for _, v := range row {
			cells = append(cells, v.String())
		}
		out = append(out, cells)
	}
	return out
}
