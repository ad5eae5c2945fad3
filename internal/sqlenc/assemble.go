package sqlenc

import (
	"iter"
	"strings"

	"github.com/apache/arrow-go/v18/arrow"
)

// DefaultBatchSize is the number of rows per INSERT statement when none is
// configured.
const DefaultBatchSize = 100

// Block is an aligned set of columns. arrow.Record satisfies it.
type Block interface {
	NumRows() int64
	NumCols() int64
	Column(i int) arrow.Array
}

type columnNamer interface {
	ColumnName(i int) string
}

// Assembler renders row blocks as INSERT statements of at most batchSize
// rows each.
type Assembler struct {
	table     string
	prefix    string
	batchSize int
}

// NewAssembler validates the batch configuration. An empty columnNames
// omits the column list from every statement; otherwise it is inserted
// verbatim and should come from ColumnNames.
func NewAssembler(table, columnNames string, batchSize int) (*Assembler, error) {
	if batchSize < 1 {
		return nil, configErrorf("rows batch size must be at least 1, got %d", batchSize)
	}
	quoted, err := QuoteIdentifier(table)
	if err != nil {
		return nil, err
	}

	var b strings.Builder
	b.WriteString("INSERT INTO ")
	b.WriteString(quoted)
	if columnNames != "" {
		b.WriteString(" (")
		b.WriteString(columnNames)
		b.WriteString(")")
	}
	b.WriteString(" VALUES ")

	return &Assembler{table: table, prefix: b.String(), batchSize: batchSize}, nil
}

// Table returns the unquoted target table name.
func (a *Assembler) Table() string { return a.table }

// BatchSize returns the maximum rows per statement.
func (a *Assembler) BatchSize() int { return a.batchSize }

// Assemble yields one statement per chunk of rows, in row order. Nothing is
// rendered until the sequence is ranged over, and ranging again starts
// over. The first encoding failure is yielded as a *CellError and ends the
// sequence.
func (a *Assembler) Assemble(block Block) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		rows := int(block.NumRows())
		columns := make([]arrow.Array, block.NumCols())
		for c := range columns {
			columns[c] = block.Column(c)
		}

		var b strings.Builder
		for start := 0; start < rows; start += a.batchSize {
			end := min(start+a.batchSize, rows)

			b.Reset()
			b.WriteString(a.prefix)
			for r := start; r < end; r++ {
				if r > start {
					b.WriteByte(',')
				}
				b.WriteByte('(')
				for c, col := range columns {
					if c > 0 {
						b.WriteByte(',')
					}
					lit, err := Encode(col, r)
					if err != nil {
						yield("", cellError(block, r, c, err))
						return
					}
					b.WriteString(lit)
				}
				b.WriteByte(')')
			}
			b.WriteByte(';')

			if !yield(b.String(), nil) {
				return
			}
		}
	}
}

// Assemble is a one-shot form of NewAssembler(...).Assemble(block). A bad
// configuration is yielded as the only element.
func Assemble(block Block, table, columnNames string, batchSize int) iter.Seq2[string, error] {
	a, err := NewAssembler(table, columnNames, batchSize)
	if err != nil {
		return func(yield func(string, error) bool) {
			yield("", err)
		}
	}
	return a.Assemble(block)
}

// Collect drains a statement sequence, stopping at the first error.
func Collect(stmts iter.Seq2[string, error]) ([]string, error) {
	var out []string
	for stmt, err := range stmts {
		if err != nil {
			return out, err
		}
		out = append(out, stmt)
	}
	return out, nil
}

func cellError(block Block, row, col int, err error) error {
	ce := &CellError{Row: row, Column: col, Err: err}
	if n, ok := block.(columnNamer); ok {
		ce.Name = n.ColumnName(col)
	}
	return ce
}
