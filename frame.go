package dbtools

import (
	"bytes"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/petar/GoLLRB/llrb"
)

// Frame is a labeled table: named columns plus one label per row. When
// the source table has a primary key the labels are its values and
// IndexName is its name; otherwise the labels are row positions and
// IndexName is empty.
type Frame struct {
	Columns   []string
	IndexName string
	Index     []interface{}
	Rows      [][]interface{}

	labels  *llrb.LLRB
	labeled []interface{}
}

// newFrame maps result rows selected as cols onto a Frame, lifting index
// out of the columns when it was selected.
func newFrame(cols []string, index string, rows [][]interface{}) *Frame {
	pos := -1
	for i, col := range cols {
		if index != "" && col == index {
			pos = i
			break
		}
	}

	f := &Frame{Columns: []string{}, Index: []interface{}{}, Rows: [][]interface{}{}}
	for i, col := range cols {
		if i != pos {
			f.Columns = append(f.Columns, col)
		}
	}
	if pos >= 0 {
		f.IndexName = index
	}

	for n, row := range rows {
		values := make([]interface{}, 0, len(f.Columns))
		for i, v := range row {
			if i == pos {
				continue
			}
			values = append(values, normalizeValue(v))
		}

		if pos >= 0 {
			f.Index = append(f.Index, normalizeValue(row[pos]))
		} else {
			f.Index = append(f.Index, int64(n))
		}
		f.Rows = append(f.Rows, values)
	}

	return f
}

// normalizeValue folds the integer and float kinds a driver may hand back
// onto int64 and float64.
func normalizeValue(v interface{}) interface{} {
	switch n := v.(type) {
	case int:
		return int64(n)
	case int8:
		return int64(n)
	case int16:
		return int64(n)
	case int32:
		return int64(n)
	case uint8:
		return int64(n)
	case uint16:
		return int64(n)
	case uint32:
		return int64(n)
	case float32:
		return float64(n)
	}

	return v
}

// Len returns the number of rows.
func (f *Frame) Len() int {
	return len(f.Rows)
}

// Column returns the values of the named column, or of the index when
// name is IndexName.
func (f *Frame) Column(name string) ([]interface{}, bool) {
	if f.IndexName != "" && name == f.IndexName {
		return f.Index, true
	}

	for i, col := range f.Columns {
		if col != name {
			continue
		}

		values := make([]interface{}, 0, len(f.Rows))
		for _, row := range f.Rows {
			values = append(values, row[i])
		}
		return values, true
	}

	return nil, false
}

// Row returns the ith row as a record. The index is included under
// IndexName when the frame has one.
func (f *Frame) Row(i int) Record {
	r := Record{}
	for j, col := range f.Columns {
		r[col] = f.Rows[i][j]
	}
	if f.IndexName != "" {
		r[f.IndexName] = f.Index[i]
	}

	return r
}

// Records returns every row, see Row.
func (f *Frame) Records() []Record {
	records := make([]Record, 0, len(f.Rows))
	for i := range f.Rows {
		records = append(records, f.Row(i))
	}

	return records
}

type labelItem struct {
	label interface{}
	pos   int
}

func (li labelItem) Less(than llrb.Item) bool {
	return compareValues(li.label, than.(labelItem).label) < 0
}

// labelTree returns the label index, rebuilt whenever Index differs from
// the labels it was built from.
func (f *Frame) labelTree() *llrb.LLRB {
	if f.labels != nil && sameLabels(f.labeled, f.Index) {
		return f.labels
	}

	f.labels = llrb.New()
	for i, label := range f.Index {
		f.labels.ReplaceOrInsert(labelItem{label: label, pos: i})
	}
	f.labeled = append([]interface{}{}, f.Index...)

	return f.labels
}

func sameLabels(a, b []interface{}) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if compareValues(a[i], b[i]) != 0 {
			return false
		}
	}

	return true
}

// Loc returns the row labeled label.
func (f *Frame) Loc(label interface{}) (Record, bool) {
	item := f.labelTree().Get(labelItem{label: normalizeValue(label)})
	if item == nil || item.(labelItem).pos >= len(f.Rows) {
		return nil, false
	}

	return f.Row(item.(labelItem).pos), true
}

// Labels returns the row labels in ascending order.
func (f *Frame) Labels() []interface{} {
	labels := make([]interface{}, 0, len(f.Index))
	tree := f.labelTree()
	if tree.Len() == 0 {
		return labels
	}

	tree.AscendGreaterOrEqual(tree.Min(), func(i llrb.Item) bool {
		labels = append(labels, i.(labelItem).label)
		return true
	})

	return labels
}

// Equal reports whether two frames have the same columns, index and
// values. Numbers compare by value, so int64(66) equals float64(66).
func (f *Frame) Equal(other *Frame) bool {
	if other == nil || f.IndexName != other.IndexName || len(f.Columns) != len(other.Columns) || len(f.Rows) != len(other.Rows) {
		return false
	}
	if len(f.Index) != len(f.Rows) || len(other.Index) != len(other.Rows) {
		return false
	}

	for i := range f.Columns {
		if f.Columns[i] != other.Columns[i] {
			return false
		}
	}

	for i := range f.Rows {
		if !valueEqual(f.Index[i], other.Index[i]) || len(f.Rows[i]) != len(other.Rows[i]) {
			return false
		}
		for j := range f.Rows[i] {
			if !valueEqual(f.Rows[i][j], other.Rows[i][j]) {
				return false
			}
		}
	}

	return true
}

// CoerceFloat returns a copy of f in which text that parses as a number
// is replaced by its float64 value.
func (f *Frame) CoerceFloat() *Frame {
	c := &Frame{
		Columns:   append([]string{}, f.Columns...),
		IndexName: f.IndexName,
		Index:     append([]interface{}{}, f.Index...),
		Rows:      make([][]interface{}, 0, len(f.Rows)),
	}

	for _, row := range f.Rows {
		values := make([]interface{}, 0, len(row))
		for _, v := range row {
			if s, ok := v.(string); ok {
				if fl, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
					v = fl
				}
			}
			values = append(values, v)
		}
		c.Rows = append(c.Rows, values)
	}

	return c
}

func formatValue(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case []byte:
		return fmt.Sprintf("%x", t)
	case float64:
		return strconv.FormatFloat(t, 'g', -1, 64)
	}

	return fmt.Sprint(v)
}

// String renders the frame as a text table.
func (f *Frame) String() string {
	var buf strings.Builder

	table := tablewriter.NewWriter(&buf)
	header := []string{f.IndexName}
	header = append(header, f.Columns...)
	table.SetHeader(header)
	table.SetAutoFormatHeaders(false)
	table.SetBorder(false)

	rows := [][]string{}
	for i, result := range f.Rows {
		row := []string{""}
		if i < len(f.Index) {
			row[0] = formatValue(f.Index[i])
		}
		for _, v := range result {
			row = append(row, formatValue(v))
		}

		rows = append(rows, row)
	}

	table.AppendBulk(rows)
	table.Render()

	return buf.String()
}

func asInt(v interface{}) (int64, bool) {
	switch n := normalizeValue(v).(type) {
	case int64:
		return n, true
	case uint:
		return int64(n), true
	case uint64:
		return int64(n), true
	case bool:
		if n {
			return 1, true
		}
		return 0, true
	}

	return 0, false
}

func asFloat(v interface{}) (float64, bool) {
	if i, ok := asInt(v); ok {
		return float64(i), true
	}
	if fl, ok := normalizeValue(v).(float64); ok {
		return fl, true
	}

	return 0, false
}

func valueEqual(a, b interface{}) bool {
	if ai, ok := asInt(a); ok {
		if bi, ok := asInt(b); ok {
			return ai == bi
		}
	}
	if af, ok := asFloat(a); ok {
		if bf, ok := asFloat(b); ok {
			return af == bf
		}
		return false
	}

	if ab, ok := a.([]byte); ok {
		bb, ok := b.([]byte)
		return ok && bytes.Equal(ab, bb)
	}

	return reflect.DeepEqual(a, b)
}

// storageClass orders values the way SQLite sorts them: NULL, numbers,
// text, blobs.
func storageClass(v interface{}) int {
	if v == nil {
		return 0
	}
	if _, ok := asFloat(v); ok {
		return 1
	}
	switch v.(type) {
	case string:
		return 2
	case []byte:
		return 3
	}

	return 4
}

func compareValues(a, b interface{}) int {
	ca, cb := storageClass(a), storageClass(b)
	if ca != cb {
		return ca - cb
	}

	switch ca {
	case 1:
		ai, aok := asInt(a)
		bi, bok := asInt(b)
		if aok && bok {
			switch {
			case ai < bi:
				return -1
			case ai > bi:
				return 1
			}
			return 0
		}
		af, _ := asFloat(a)
		bf, _ := asFloat(b)
		switch {
		case af < bf:
			return -1
		case af > bf:
			return 1
		}
		return 0
	case 2:
		return strings.Compare(a.(string), b.(string))
	case 3:
		return bytes.Compare(a.([]byte), b.([]byte))
	case 4:
		return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
	}

	return 0
}
