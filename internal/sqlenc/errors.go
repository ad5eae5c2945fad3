package sqlenc

import (
	"errors"
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
)

var (
	ErrUnsupportedType = errors.New("unsupported column type")
	ErrTimestampRange  = errors.New("timestamp out of range")
	ErrNonFiniteFloat  = errors.New("non-finite float has no SQL literal")
	ErrInvalidConfig   = errors.New("invalid configuration")
)

// UnsupportedTypeError is returned for columns whose logical type has no
// SQL encoding.
type UnsupportedTypeError struct {
	Type arrow.DataType
}

func (e *UnsupportedTypeError) Error() string {
	return fmt.Sprintf("unsupported column type %s", e.Type)
}

func (e *UnsupportedTypeError) Unwrap() error { return ErrUnsupportedType }

// TimestampRangeError reports a stored timestamp that does not map to a
// four-digit-year calendar date.
type TimestampRangeError struct {
	Value int64
	Unit  arrow.TimeUnit
}

func (e *TimestampRangeError) Error() string {
	return fmt.Sprintf("timestamp %d%s out of range", e.Value, e.Unit)
}

func (e *TimestampRangeError) Unwrap() error { return ErrTimestampRange }

// NonFiniteFloatError is returned for NaN and infinite floats, which MySQL
// cannot represent as literals.
type NonFiniteFloatError struct {
	Value float64
}

func (e *NonFiniteFloatError) Error() string {
	return fmt.Sprintf("float value %v has no SQL literal", e.Value)
}

func (e *NonFiniteFloatError) Unwrap() error { return ErrNonFiniteFloat }

// CellError locates a failed encoding inside a row block.
type CellError struct {
	Row    int
	Column int
	Name   string
	Err    error
}

func (e *CellError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("row %d, column %d (%s): %v", e.Row, e.Column, e.Name, e.Err)
	}
	return fmt.Sprintf("row %d, column %d: %v", e.Row, e.Column, e.Err)
}

func (e *CellError) Unwrap() error { return e.Err }

func configErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, args...))
}
