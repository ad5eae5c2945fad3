// Package sqlenc turns Arrow columns into MySQL literals and row blocks into
// batched INSERT statements.
package sqlenc

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
)

const (
	nullLiteral  = "NULL"
	trueLiteral  = "TRUE"
	falseLiteral = "FALSE"

	timestampLayout = "'2006-01-02 15:04:05'"
)

// Calendar bounds of a four-digit year, in seconds since the epoch.
const (
	minTimestampSec = -62167219200 // 0000-01-01 00:00:00
	maxTimestampSec = 253402300799 // 9999-12-31 23:59:59
)

// Encode renders the value at index i of col as a SQL literal.
// It panics if i is outside the column.
func Encode(col arrow.Array, i int) (string, error) {
	if i < 0 || i >= col.Len() {
		panic(fmt.Sprintf("sqlenc: index %d out of range [0, %d)", i, col.Len()))
	}
	if col.IsNull(i) {
		return nullLiteral, nil
	}

	switch a := col.(type) {
	case *array.Boolean:
		if a.Value(i) {
			return trueLiteral, nil
		}
		return falseLiteral, nil
	case *array.Int8:
		return strconv.FormatInt(int64(a.Value(i)), 10), nil
	case *array.Int16:
		return strconv.FormatInt(int64(a.Value(i)), 10), nil
	case *array.Int32:
		return strconv.FormatInt(int64(a.Value(i)), 10), nil
	case *array.Int64:
		return strconv.FormatInt(a.Value(i), 10), nil
	case *array.Uint8:
		return strconv.FormatUint(uint64(a.Value(i)), 10), nil
	case *array.Uint16:
		return strconv.FormatUint(uint64(a.Value(i)), 10), nil
	case *array.Uint32:
		return strconv.FormatUint(uint64(a.Value(i)), 10), nil
	case *array.Uint64:
		return strconv.FormatUint(a.Value(i), 10), nil
	case *array.Float16:
		return formatFloat(float64(a.Value(i).Float32()), 32)
	case *array.Float32:
		return formatFloat(float64(a.Value(i)), 32)
	case *array.Float64:
		return formatFloat(a.Value(i), 64)
	case *array.Timestamp:
		unit := a.DataType().(*arrow.TimestampType).Unit
		return formatTimestamp(int64(a.Value(i)), unit)
	case *array.String:
		return QuoteString(a.Value(i)), nil
	case *array.LargeString:
		return QuoteString(a.Value(i)), nil
	default:
		return "", &UnsupportedTypeError{Type: col.DataType()}
	}
}

// Supported reports whether Encode has a literal form for dt.
func Supported(dt arrow.DataType) bool {
	switch dt.ID() {
	case arrow.BOOL,
		arrow.INT8, arrow.INT16, arrow.INT32, arrow.INT64,
		arrow.UINT8, arrow.UINT16, arrow.UINT32, arrow.UINT64,
		arrow.FLOAT16, arrow.FLOAT32, arrow.FLOAT64,
		arrow.TIMESTAMP,
		arrow.STRING, arrow.LARGE_STRING:
		return true
	default:
		return false
	}
}

// ValidateSchema fails on the first field Encode cannot handle, so a
// conversion can be refused before any output is produced.
func ValidateSchema(schema *arrow.Schema) error {
	for i, f := range schema.Fields() {
		if !Supported(f.Type) {
			return fmt.Errorf("column %d (%s): %w", i, f.Name, &UnsupportedTypeError{Type: f.Type})
		}
	}
	return nil
}

// formatFloat prints the shortest decimal text that parses back to v at
// the given bit size, without exponent notation.
func formatFloat(v float64, bitSize int) (string, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "", &NonFiniteFloatError{Value: v}
	}
	return strconv.FormatFloat(v, 'f', -1, bitSize), nil
}

func formatTimestamp(v int64, unit arrow.TimeUnit) (string, error) {
	perUnit := int64(unit.Multiplier())
	scale := int64(time.Second) / perUnit

	sec, rem := v/scale, v%scale
	if rem < 0 {
		sec--
		rem += scale
	}
	if sec < minTimestampSec || sec > maxTimestampSec {
		return "", &TimestampRangeError{Value: v, Unit: unit}
	}
	return time.Unix(sec, rem*perUnit).UTC().Format(timestampLayout), nil
}

// QuoteString wraps s in single quotes, escaping it the way
// mysql_real_escape_string does. Bytes are copied as-is otherwise, so
// invalid UTF-8 survives unchanged.
func QuoteString(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('\'')
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case 0:
			b.WriteString(`\0`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\\':
			b.WriteString(`\\`)
		case '\'':
			b.WriteString(`\'`)
		case '"':
			b.WriteString(`\"`)
		case 0x1a:
			b.WriteString(`\Z`)
		default:
			b.WriteByte(c)
		}
	}
	b.WriteByte('\'')
	return b.String()
}
