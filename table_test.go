package dbtools

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

var fooSpecs = []ColumnSpec{
	{Name: "name", Type: TextType},
	{Name: "age", Type: IntegerType},
	{Name: "height", Type: RealType},
}

var fooRows = [][]interface{}{
	{"Alyssa P. Hacker", int64(25), 66.25},
	{"Ben Bitdiddle", int64(24), 70.1},
	{"Louis Reasoner", int64(26), 68.0},
	{"Eva Lu Ator", int64(29), 67.42},
}

// TableSuite runs against Foo(id INTEGER PRIMARY KEY AUTOINCREMENT, name
// TEXT, age INTEGER, height REAL) in a fresh database per test.
type TableSuite struct {
	suite.Suite
	mb  *MemoryBackend
	tbl *Table
}

func (s *TableSuite) SetupTest() {
	mb, err := NewMemoryBackend()
	s.Require().Nil(err)
	s.mb = mb

	s.tbl, err = Create(mb, "Foo", fooSpecs, CreateOptions{PrimaryKey: "id", Autoincrement: true, Verbose: true})
	s.Require().Nil(err)
}

func (s *TableSuite) TearDownTest() {
	s.mb.Close()
}

func (s *TableSuite) insert() {
	s.Require().Nil(s.tbl.Insert(fooRows))
}

// expect builds the frame Foo should hold for the given rows, labeled
// from 1 in insertion order.
func (s *TableSuite) expect(rows [][]interface{}, labels ...int64) *Frame {
	f := &Frame{Columns: []string{"name", "age", "height"}, IndexName: "id", Index: []interface{}{}, Rows: [][]interface{}{}}
	for i, row := range rows {
		f.Index = append(f.Index, labels[i])
		f.Rows = append(f.Rows, row)
	}

	return f
}

func (s *TableSuite) TestCreate() {
	s.Equal("Foo", s.tbl.Name)
	s.Equal([]string{"id", "name", "age", "height"}, s.tbl.Columns())
	s.Equal("id", s.tbl.PrimaryKey())
	s.True(s.tbl.Autoincrement())
	s.Equal("Foo(id INTEGER PRIMARY KEY AUTOINCREMENT, name TEXT, age INTEGER, height REAL)", s.tbl.String())

	ok, err := Exists(s.mb, "Foo")
	s.Nil(err)
	s.True(ok)

	_, err = Create(s.mb, "Foo", fooSpecs, CreateOptions{})
	s.NotNil(err)
}

func (s *TableSuite) TestOpen() {
	tbl, err := Open(s.mb, "Foo", false)
	s.Nil(err)
	s.Equal(s.tbl.Schema, tbl.Schema)

	_, err = Open(s.mb, "Bar", false)
	s.ErrorIs(err, ErrTableDoesNotExist)
}

func (s *TableSuite) TestScenario() {
	err := s.tbl.Insert(Record{"name": "A", "age": 25, "height": 66.25})
	s.Nil(err)

	all, err := s.tbl.Select(nil, nil)
	s.Nil(err)
	s.True(s.expect([][]interface{}{{"A", int64(25), 66.25}}, 1).Equal(all), all.String())

	one, err := s.tbl.Index(1)
	s.Nil(err)
	s.True(all.Equal(one))

	names, err := s.tbl.Index("name")
	s.Nil(err)
	s.Equal([]string{"name"}, names.Columns)
	s.Equal([]interface{}{int64(1)}, names.Index)
	s.Equal([][]interface{}{{"A"}}, names.Rows)

	err = s.tbl.Delete(NewWhere("age=?", 25))
	s.Nil(err)

	all, err = s.tbl.Select(nil, nil)
	s.Nil(err)
	s.Equal(0, all.Len())
}

func (s *TableSuite) TestInsertNull() {
	s.Nil(s.tbl.Insert([]interface{}{nil, nil, nil}))

	all, err := s.tbl.Select(nil, nil)
	s.Nil(err)
	s.True(s.expect([][]interface{}{{nil, nil, nil}}, 1).Equal(all))
}

func (s *TableSuite) TestInsertRoundTrip() {
	s.insert()

	all, err := s.tbl.Select(nil, nil)
	s.Nil(err)
	s.True(s.expect(fooRows, 1, 2, 3, 4).Equal(all), all.String())
}

func (s *TableSuite) TestInsertMixed() {
	err := s.tbl.Insert(
		Record{"name": "Alyssa P. Hacker", "age": 25, "height": 66.25},
		[]interface{}{"Ben Bitdiddle", 24, 70.1},
		map[string]interface{}{"name": "Louis Reasoner", "age": 26, "height": 68.0},
	)
	s.Nil(err)

	all, err := s.tbl.Select(nil, nil)
	s.Nil(err)
	s.True(s.expect(fooRows[:3], 1, 2, 3).Equal(all), all.String())
}

func (s *TableSuite) TestInsertArity() {
	s.insert()

	for _, n := range []int{0, 1, 2, 4, 5} {
		record := make([]interface{}, n)
		err := s.tbl.Insert(record)
		s.ErrorIs(err, ErrArity, "%d values", n)
	}

	// Nothing from a batch with one bad record is written.
	err := s.tbl.Insert([]interface{}{"Cy D. Fect", 30, 71.0}, []interface{}{"short"})
	s.ErrorIs(err, ErrArity)

	all, err := s.tbl.Select(nil, nil)
	s.Nil(err)
	s.Equal(4, all.Len())
}

func (s *TableSuite) TestInsertNothing() {
	s.Nil(s.tbl.Insert())
	s.Nil(s.tbl.Insert([][]interface{}{}))
}

func (s *TableSuite) TestInsertInvalid() {
	s.ErrorIs(s.tbl.Insert("Alyssa"), ErrInvalidRecord)
	s.ErrorIs(s.tbl.Insert(Record{"id": 10, "name": "Alyssa"}), ErrSchema)
	s.ErrorIs(s.tbl.Insert(Record{"weight": 10}), ErrSchema)
}

func (s *TableSuite) TestSelectColumns() {
	s.insert()

	f, err := s.tbl.Select([]string{"age", "height"}, nil)
	s.Nil(err)
	s.Equal([]string{"age", "height"}, f.Columns)
	s.Equal("id", f.IndexName)

	heights, ok := f.Column("height")
	s.True(ok)
	s.Equal([]interface{}{66.25, 70.1, 68.0, 67.42}, heights)

	_, err = s.tbl.Select([]string{"weight"}, nil)
	s.ErrorIs(err, ErrSchema)
}

func (s *TableSuite) TestSelectWhere() {
	s.insert()

	tests := []struct {
		where  *Where
		labels []interface{}
	}{
		{NewWhere("age=25"), []interface{}{int64(1)}},
		{NewWhere("age=?", 24), []interface{}{int64(2)}},
		{NewWhere("age=? OR name=?", 26, "Eva Lu Ator"), []interface{}{int64(3), int64(4)}},
		{NewWhere("age=? OR name=?", []interface{}{26, "Eva Lu Ator"}), []interface{}{int64(3), int64(4)}},
		{NewWhere("height>?", 100), []interface{}{}},
	}

	for _, test := range tests {
		f, err := s.tbl.Select(nil, test.where)
		s.Nil(err, test.where.Cond)
		s.Equal(test.labels, f.Index, test.where.Cond)
	}

	_, err := s.tbl.Select(nil, NewWhere("age=? OR name=?", 26))
	s.ErrorIs(err, ErrBindCount)
}

func (s *TableSuite) TestIndex() {
	s.insert()

	tests := []struct {
		key    interface{}
		labels []int64
	}{
		{0, nil},
		{1, []int64{1}},
		{All(), []int64{1, 2, 3, 4}},
		{All().Every(1), []int64{1, 2, 3, 4}},
		{Range(1, 3), []int64{1, 2}},
		{Until(3), []int64{1, 2}},
		{From(3), []int64{3, 4}},
		{Range(3, 3), nil},
	}

	for _, test := range tests {
		f, err := s.tbl.Index(test.key)
		s.Nil(err, "%v", test.key)

		rows := [][]interface{}{}
		for _, label := range test.labels {
			rows = append(rows, fooRows[label-1])
		}
		s.True(s.expect(rows, test.labels...).Equal(f), "%v\n%s", test.key, f)
	}

	_, err := s.tbl.Index(Slice{}.Every(2))
	s.ErrorIs(err, ErrStep)

	_, err = s.tbl.Index(2.5)
	s.ErrorIs(err, ErrInvalidKey)

	_, err = s.tbl.Index(uint64(1) << 63)
	s.ErrorIs(err, ErrInvalidKey)
}

func (s *TableSuite) TestIndexColumns() {
	s.insert()

	f, err := s.tbl.Index([]string{"name", "age"})
	s.Nil(err)
	s.Equal([]string{"name", "age"}, f.Columns)
	s.Equal([]interface{}{int64(1), int64(2), int64(3), int64(4)}, f.Index)
	s.Equal([]interface{}{"Alyssa P. Hacker", int64(25)}, f.Rows[0])
}

func (s *TableSuite) TestIndexWhere() {
	s.insert()

	f, err := s.tbl.IndexWhere("name", NewWhere("age>?", 24))
	s.Nil(err)
	s.Equal([]string{"name"}, f.Columns)
	s.Equal([]interface{}{int64(1), int64(3), int64(4)}, f.Index)

	f, err = s.tbl.IndexWhere(All(), NewWhere("age=?", 24))
	s.Nil(err)
	s.Equal([]interface{}{int64(2)}, f.Index)

	_, err = s.tbl.IndexWhere(Slice{}.Every(2), NewWhere("age=?", 24))
	s.ErrorIs(err, ErrStep)

	_, err = s.tbl.IndexWhere(From(2), NewWhere("age=?", 24))
	s.ErrorIs(err, ErrInvalidKey)

	_, err = s.tbl.IndexWhere(2, nil)
	s.ErrorIs(err, ErrInvalidKey)
}

func (s *TableSuite) TestUpdate() {
	s.insert()

	err := s.tbl.Update(Record{"age": 30, "height": nil}, NewWhere("name=?", "Ben Bitdiddle"))
	s.Nil(err)

	r, ok := mustIndex(s, 2).Loc(2)
	s.True(ok)
	s.Equal(Record{"id": int64(2), "name": "Ben Bitdiddle", "age": int64(30), "height": nil}, r)

	// Other rows are untouched.
	r, _ = mustIndex(s, 1).Loc(1)
	s.Equal(int64(25), r["age"])

	s.ErrorIs(s.tbl.Update([]interface{}{1}, nil), ErrNotMapping)
	s.ErrorIs(s.tbl.Update(Record{"weight": 1}, nil), ErrSchema)
}

func mustIndex(s *TableSuite, key interface{}) *Frame {
	f, err := s.tbl.Index(key)
	s.Require().Nil(err)
	return f
}

func (s *TableSuite) TestDeleteAll() {
	s.insert()

	s.Nil(s.tbl.Delete(nil))

	all, err := s.tbl.Select(nil, nil)
	s.Nil(err)
	s.Equal(0, all.Len())

	// Keys keep counting after a delete.
	s.Nil(s.tbl.Insert([]interface{}{"Cy D. Fect", 30, 71.0}))
	all, err = s.tbl.Select(nil, nil)
	s.Nil(err)
	s.Equal([]interface{}{int64(5)}, all.Index)
}

func (s *TableSuite) TestDrop() {
	s.Nil(s.tbl.Drop())

	ok, err := Exists(s.mb, "Foo")
	s.Nil(err)
	s.False(ok)

	// The store reports the missing table.
	_, err = s.tbl.Select(nil, nil)
	s.NotNil(err)
	s.NotErrorIs(err, ErrSchema)
}

func (s *TableSuite) TestInferenceIdempotence() {
	s.insert()

	all, err := s.tbl.Select(nil, nil)
	s.Nil(err)

	specs, err := InferTypes(all.Records(), s.tbl.Columns()...)
	s.Nil(err)

	created := []ColumnSpec{}
	for _, c := range s.tbl.Schema.Columns {
		created = append(created, ColumnSpec{Name: c.Name, Type: c.Type})
	}
	s.Equal(created, specs)
}

func TestTableSuite(t *testing.T) {
	suite.Run(t, new(TableSuite))
}

func TestCreate_primaryKey(t *testing.T) {
	mb := newTestBackend(t)

	tbl, err := Create(mb, "Foo", fooSpecs, CreateOptions{PrimaryKey: "id"})
	require.Nil(t, err)
	assert.False(t, tbl.Autoincrement())

	// Explicit keys, in any order.
	err = tbl.Insert(
		[]interface{}{8, "Eva Lu Ator", 29, 67.42},
		[]interface{}{2, "Alyssa P. Hacker", 25, 66.25},
	)
	assert.Nil(t, err)

	f, err := tbl.Index(Range(2, 9))
	assert.Nil(t, err)
	assert.Equal(t, []interface{}{int64(2), int64(8)}, f.Labels())

	err = tbl.Insert([]interface{}{2, "Duplicate", 1, 1.0})
	assert.NotNil(t, err)
}

func TestCreate_noPrimaryKey(t *testing.T) {
	mb := newTestBackend(t)

	tbl, err := Create(mb, "Foo", fooSpecs, CreateOptions{})
	require.Nil(t, err)
	assert.Equal(t, "", tbl.PrimaryKey())

	err = tbl.Insert([][]interface{}{{"Alyssa P. Hacker", 25, 66.25}, {"Ben Bitdiddle", 24, 70.1}})
	assert.Nil(t, err)

	f, err := tbl.Select(nil, nil)
	assert.Nil(t, err)
	assert.Equal(t, "", f.IndexName)
	assert.Equal(t, []interface{}{int64(0), int64(1)}, f.Index)

	_, err = tbl.Index(1)
	assert.ErrorIs(t, err, ErrNoPrimaryKey)

	f, err = tbl.Index(All())
	assert.Nil(t, err)
	assert.Equal(t, 2, f.Len())
}

func TestCreate_fromRecords(t *testing.T) {
	mb := newTestBackend(t)

	records := []Record{
		{"id": 2, "name": "Alyssa P. Hacker", "age": 25, "height": 66.25},
		{"id": 4, "name": "Ben Bitdiddle", "age": 24, "height": 70.1},
	}
	tbl, err := Create(mb, "Foo", records, CreateOptions{PrimaryKey: "id", Autoincrement: true})
	require.Nil(t, err)
	assert.Equal(t, "Foo(age INTEGER, height REAL, id INTEGER PRIMARY KEY AUTOINCREMENT, name TEXT)", tbl.String())

	f, err := tbl.Select([]string{"name"}, nil)
	assert.Nil(t, err)
	assert.Equal(t, []interface{}{int64(2), int64(4)}, f.Index)

	// The store carries on from the largest seeded key.
	assert.Nil(t, tbl.Insert(Record{"name": "Louis Reasoner"}))
	f, err = tbl.Select([]string{"name"}, nil)
	assert.Nil(t, err)
	assert.Equal(t, []interface{}{int64(2), int64(4), int64(5)}, f.Index)
}

func TestCreate_fromRecordsAddsKey(t *testing.T) {
	mb := newTestBackend(t)

	tbl, err := Create(mb, "Foo", map[string]interface{}{"name": "Alyssa P. Hacker"}, CreateOptions{PrimaryKey: "id"})
	require.Nil(t, err)
	assert.Equal(t, []string{"id", "name"}, tbl.Columns())

	f, err := tbl.Index(1)
	assert.Nil(t, err)
	assert.Equal(t, [][]interface{}{{"Alyssa P. Hacker"}}, f.Rows)
}

func TestCreate_fromFrame(t *testing.T) {
	mb := newTestBackend(t)

	frame := &Frame{
		Columns:   []string{"name", "age"},
		IndexName: "id",
		Index:     []interface{}{int64(3), int64(7)},
		Rows:      [][]interface{}{{"Alyssa P. Hacker", int64(25)}, {"Ben Bitdiddle", nil}},
	}

	tbl, err := Create(mb, "Foo", frame, CreateOptions{})
	require.Nil(t, err)
	assert.Equal(t, "Foo(id INTEGER PRIMARY KEY, name TEXT, age INTEGER)", tbl.String())

	f, err := tbl.Select(nil, nil)
	assert.Nil(t, err)
	assert.True(t, frame.Equal(f), f.String())

	_, err = Create(mb, "Bar", frame, CreateOptions{PrimaryKey: "key"})
	assert.ErrorIs(t, err, ErrSchema)

	ok, err := Exists(mb, "Bar")
	assert.Nil(t, err)
	assert.False(t, ok)
}

func TestCreate_invalid(t *testing.T) {
	mb := newTestBackend(t)

	tests := []struct {
		init interface{}
		opts CreateOptions
		err  error
	}{
		{42, CreateOptions{}, ErrInvalidInit},
		{[]Record{}, CreateOptions{}, ErrInvalidInit},
		{[]Record{{"a": 1}, {"a": "one"}}, CreateOptions{}, ErrAmbiguousType},
		{Record{"flag": true}, CreateOptions{}, ErrUnsupportedType},
		{Record{"id": "x"}, CreateOptions{PrimaryKey: "id"}, ErrSchema},
		{fooSpecs, CreateOptions{Autoincrement: true}, ErrSchema},
	}

	for _, test := range tests {
		_, err := Create(mb, "Foo", test.init, test.opts)
		assert.ErrorIs(t, err, test.err, "%v", test.init)
	}

	names, err := ListTables(mb)
	assert.Nil(t, err)
	assert.Empty(t, names)
}

func TestListTables(t *testing.T) {
	mb := newTestBackend(t)

	for _, name := range []string{"Foo", "Bar", "Baz"} {
		_, err := Create(mb, name, fooSpecs, CreateOptions{PrimaryKey: "id", Autoincrement: true})
		require.Nil(t, err)
	}

	names, err := ListTables(mb)
	assert.Nil(t, err)
	assert.Equal(t, []string{"Foo", "Bar", "Baz"}, names)
}

func TestTable_verboseLogging(t *testing.T) {
	var buf bytes.Buffer
	SetLogger(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo})))
	defer SetLogger(nil)

	mb := newTestBackend(t)
	quiet, err := Create(mb, "Quiet", fooSpecs, CreateOptions{})
	require.Nil(t, err)
	assert.Nil(t, quiet.Insert([]interface{}{"a", 1, 1.0}))
	assert.Empty(t, buf.String())

	loud, err := Create(mb, "Loud", fooSpecs, CreateOptions{Verbose: true})
	require.Nil(t, err)
	assert.Nil(t, loud.Insert([]interface{}{"a", 1, 1.0}))
	assert.Contains(t, buf.String(), `CREATE TABLE \"Loud\"`)
	assert.Contains(t, buf.String(), `INSERT INTO \"Loud\"`)
}
