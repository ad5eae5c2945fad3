package sqlenc

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
)

var peopleSchema = arrow.NewSchema([]arrow.Field{
	{Name: "id", Type: arrow.PrimitiveTypes.Int64},
	{Name: "name", Type: arrow.BinaryTypes.String, Nullable: true},
}, nil)

// newPeople builds a record of n rows: id = row index, name = "p<i>" with
// every fifth name null.
func newPeople(t *testing.T, mem memory.Allocator, n int) arrow.Record {
	t.Helper()
	b := array.NewRecordBuilder(mem, peopleSchema)
	defer b.Release()

	ids := b.Field(0).(*array.Int64Builder)
	names := b.Field(1).(*array.StringBuilder)
	for i := 0; i < n; i++ {
		ids.Append(int64(i))
		if i%5 == 4 {
			names.AppendNull()
		} else {
			names.Append(fmt.Sprintf("p%d", i))
		}
	}
	return b.NewRecord()
}

func expectedTuple(i int) string {
	if i%5 == 4 {
		return fmt.Sprintf("(%d,NULL)", i)
	}
	return fmt.Sprintf("(%d,'p%d')", i, i)
}

func TestAssembleBatches(t *testing.T) {
	mem := newAllocator(t)
	rec := newPeople(t, mem, 250)
	defer rec.Release()

	stmts, err := Collect(Assemble(rec, "people", "", 100))
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	if len(stmts) != 3 {
		t.Fatalf("got %d statements, want 3", len(stmts))
	}

	row := 0
	for s, want := range []int{100, 100, 50} {
		tuples := make([]string, want)
		for k := range tuples {
			tuples[k] = expectedTuple(row)
			row++
		}
		expected := "INSERT INTO `people` VALUES " + strings.Join(tuples, ",") + ";"
		if stmts[s] != expected {
			t.Errorf("statement %d mismatch:\n got %.120s...\nwant %.120s...", s, stmts[s], expected)
		}
	}
}

func TestAssembleColumnList(t *testing.T) {
	mem := newAllocator(t)
	rec := newPeople(t, mem, 2)
	defer rec.Release()

	cols, err := ColumnNames(rec.Schema())
	if err != nil {
		t.Fatalf("ColumnNames: %v", err)
	}
	if cols != "`id`,`name`" {
		t.Fatalf("ColumnNames = %s", cols)
	}

	tests := []struct {
		name    string
		columns string
		want    string
	}{
		{
			name:    "with column list",
			columns: cols,
			want:    "INSERT INTO `t` (`id`,`name`) VALUES (0,'p0'),(1,'p1');",
		},
		{
			name:    "without column list",
			columns: "",
			want:    "INSERT INTO `t` VALUES (0,'p0'),(1,'p1');",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stmts, err := Collect(Assemble(rec, "t", tt.columns, DefaultBatchSize))
			if err != nil {
				t.Fatalf("Assemble: %v", err)
			}
			if len(stmts) != 1 || stmts[0] != tt.want {
				t.Errorf("got %q, want [%q]", stmts, tt.want)
			}
		})
	}
}

func TestAssembleBatchSizeOne(t *testing.T) {
	mem := newAllocator(t)
	rec := newPeople(t, mem, 3)
	defer rec.Release()

	stmts, err := Collect(Assemble(rec, "t", "", 1))
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	want := []string{
		"INSERT INTO `t` VALUES (0,'p0');",
		"INSERT INTO `t` VALUES (1,'p1');",
		"INSERT INTO `t` VALUES (2,'p2');",
	}
	assertLiterals(t, stmts, want)
}

func TestAssembleEmptyBlock(t *testing.T) {
	mem := newAllocator(t)
	rec := newPeople(t, mem, 0)
	defer rec.Release()

	stmts, err := Collect(Assemble(rec, "t", "", 10))
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	if len(stmts) != 0 {
		t.Errorf("got %d statements for an empty block", len(stmts))
	}
}

func TestAssembleIsRestartableAndDeterministic(t *testing.T) {
	mem := newAllocator(t)
	rec := newPeople(t, mem, 42)
	defer rec.Release()

	a, err := NewAssembler("t", "`id`,`name`", 10)
	if err != nil {
		t.Fatalf("NewAssembler: %v", err)
	}
	seq := a.Assemble(rec)

	first, err := Collect(seq)
	if err != nil {
		t.Fatalf("first pass: %v", err)
	}
	second, err := Collect(seq)
	if err != nil {
		t.Fatalf("second pass: %v", err)
	}
	if strings.Join(first, "\n") != strings.Join(second, "\n") {
		t.Error("two passes over the same block differ")
	}
	if len(first) != 5 {
		t.Errorf("got %d statements, want 5", len(first))
	}
}

func TestAssembleStopsEarly(t *testing.T) {
	mem := newAllocator(t)
	rec := newPeople(t, mem, 30)
	defer rec.Release()

	n := 0
	for _, err := range Assemble(rec, "t", "", 10) {
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		n++
		break
	}
	if n != 1 {
		t.Errorf("consumed %d statements, want 1", n)
	}
}

func TestAssembleInvalidConfig(t *testing.T) {
	tests := []struct {
		name      string
		table     string
		batchSize int
	}{
		{"zero batch size", "t", 0},
		{"negative batch size", "t", -3},
		{"empty table", "", 10},
		{"backtick in table", "we`ird", 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewAssembler(tt.table, "", tt.batchSize); !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("NewAssembler error = %v, want ErrInvalidConfig", err)
			}

			var got []error
			for _, err := range Assemble(nil, tt.table, "", tt.batchSize) {
				got = append(got, err)
			}
			if len(got) != 1 || !errors.Is(got[0], ErrInvalidConfig) {
				t.Errorf("Assemble yielded %v, want one ErrInvalidConfig", got)
			}
		})
	}
}

func TestAssembleReportsCell(t *testing.T) {
	mem := newAllocator(t)

	schema := arrow.NewSchema([]arrow.Field{
		{Name: "id", Type: arrow.PrimitiveTypes.Int32},
		{Name: "tags", Type: arrow.ListOf(arrow.PrimitiveTypes.Int32), Nullable: true},
	}, nil)
	b := array.NewRecordBuilder(mem, schema)
	defer b.Release()

	b.Field(0).(*array.Int32Builder).AppendValues([]int32{1, 2}, nil)
	tags := b.Field(1).(*array.ListBuilder)
	tags.AppendNull()
	tags.Append(true)
	tags.ValueBuilder().(*array.Int32Builder).Append(7)

	rec := b.NewRecord()
	defer rec.Release()

	stmts, err := Collect(Assemble(rec, "t", "", 1))
	if len(stmts) != 1 || stmts[0] != "INSERT INTO `t` VALUES (1,NULL);" {
		t.Errorf("statements before the failure = %q", stmts)
	}

	var cellErr *CellError
	if !errors.As(err, &cellErr) {
		t.Fatalf("got %v, want *CellError", err)
	}
	if cellErr.Row != 1 || cellErr.Column != 1 || cellErr.Name != "tags" {
		t.Errorf("cell error at row %d column %d (%s)", cellErr.Row, cellErr.Column, cellErr.Name)
	}
	if !errors.Is(err, ErrUnsupportedType) {
		t.Errorf("cell error does not wrap ErrUnsupportedType: %v", err)
	}
}

func TestColumnNamesRejectsBacktick(t *testing.T) {
	schema := arrow.NewSchema([]arrow.Field{
		{Name: "ok", Type: arrow.PrimitiveTypes.Int8},
		{Name: "not`ok", Type: arrow.PrimitiveTypes.Int8},
	}, nil)
	if _, err := ColumnNames(schema); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("got %v, want ErrInvalidConfig", err)
	}
}

func BenchmarkAssemble(b *testing.B) {
	mem := memory.NewGoAllocator()
	rb := array.NewRecordBuilder(mem, peopleSchema)
	defer rb.Release()
	for i := 0; i < 10_000; i++ {
		rb.Field(0).(*array.Int64Builder).Append(int64(i))
		rb.Field(1).(*array.StringBuilder).Append("name with 'quotes' and \\ slashes")
	}
	rec := rb.NewRecord()
	defer rec.Release()

	a, err := NewAssembler("bench", "`id`,`name`", DefaultBatchSize)
	if err != nil {
		b.Fatal(err)
	}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		for _, err := range a.Assemble(rec) {
			if err != nil {
				b.Fatal(err)
			}
		}
	}
}
