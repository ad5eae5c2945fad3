// Package bench times the conversion pipeline end to end and per stage,
// reporting latency percentiles across iterations.
package bench

import (
	"context"
	"fmt"
	"io"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/jolyndenning/parquet2sql/internal/dump"
	"github.com/jolyndenning/parquet2sql/internal/source"
	"github.com/jolyndenning/parquet2sql/internal/sqlenc"
)

type BenchmarkResult struct {
	Name       string
	Iterations int
	Rows       int64
	Durations  []time.Duration
}

type PercentileStats struct {
	Min    time.Duration
	P50    time.Duration
	P95    time.Duration
	P99    time.Duration
	Max    time.Duration
	Mean   time.Duration
	StdDev time.Duration
}

func (r *BenchmarkResult) Percentiles() PercentileStats {
	if len(r.Durations) == 0 {
		return PercentileStats{}
	}

	sorted := make([]time.Duration, len(r.Durations))
	copy(sorted, r.Durations)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i] < sorted[j]
	})

	percentile := func(p float64) time.Duration {
		idx := int(float64(len(sorted)) * p)
		if idx >= len(sorted) {
			idx = len(sorted) - 1
		}
		return sorted[idx]
	}

	var sum time.Duration
	for _, d := range sorted {
		sum += d
	}
	mean := sum / time.Duration(len(sorted))

	var variance float64
	for _, d := range sorted {
		diff := float64(d - mean)
		variance += diff * diff
	}

	return PercentileStats{
		Min:    sorted[0],
		P50:    percentile(0.50),
		P95:    percentile(0.95),
		P99:    percentile(0.99),
		Max:    sorted[len(sorted)-1],
		Mean:   mean,
		StdDev: time.Duration(math.Sqrt(variance / float64(len(sorted)))),
	}
}

// RowsPerSecond is measured against the mean iteration time.
func (r *BenchmarkResult) RowsPerSecond() float64 {
	mean := r.Percentiles().Mean
	if mean <= 0 {
		return 0
	}
	return float64(r.Rows) / mean.Seconds()
}

func (s PercentileStats) String() string {
	return fmt.Sprintf(
		"min=%v p50=%v p95=%v p99=%v max=%v mean=%v±%v",
		s.Min, s.P50, s.P95, s.P99, s.Max, s.Mean, s.StdDev,
	)
}

type Benchmarker struct {
	Ctx        context.Context
	Warmup     int
	Iterations int
}

func NewBenchmarker(ctx context.Context, warmup, iterations int) *Benchmarker {
	return &Benchmarker{Ctx: ctx, Warmup: warmup, Iterations: iterations}
}

// run times fn Warmup+Iterations times and keeps the timed runs. A failing
// iteration aborts the benchmark.
func (b *Benchmarker) run(name string, rows int64, fn func() error) (*BenchmarkResult, error) {
	result := &BenchmarkResult{
		Name:       name,
		Iterations: b.Iterations,
		Rows:       rows,
		Durations:  make([]time.Duration, 0, b.Iterations),
	}

	for i := 0; i < b.Warmup; i++ {
		if err := fn(); err != nil {
			return nil, fmt.Errorf("%s warmup: %w", name, err)
		}
	}
	for i := 0; i < b.Iterations; i++ {
		start := time.Now()
		if err := fn(); err != nil {
			return nil, fmt.Errorf("%s iteration %d: %w", name, i, err)
		}
		result.Durations = append(result.Durations, time.Since(start))
	}
	return result, nil
}

// BenchmarkRead decodes every record batch of path without rendering.
func (b *Benchmarker) BenchmarkRead(path string, readBatchSize int64) (*BenchmarkResult, error) {
	rd, err := source.Open(path, source.Options{BatchSize: readBatchSize})
	if err != nil {
		return nil, err
	}
	defer rd.Close()

	return b.run(fmt.Sprintf("Read_read_batch_%d", readBatchSize), rd.NumRows(), func() error {
		for _, err := range rd.Blocks(b.Ctx) {
			if err != nil {
				return err
			}
		}
		return nil
	})
}

// BenchmarkDump runs the full conversion of path into io.Discard.
func (b *Benchmarker) BenchmarkDump(path string, rowsBatchSize, workers int) (*BenchmarkResult, error) {
	rd, err := source.Open(path, source.Options{Parallel: workers > 1})
	if err != nil {
		return nil, err
	}
	defer rd.Close()

	columns, err := sqlenc.ColumnNames(rd.Schema())
	if err != nil {
		return nil, err
	}
	asm, err := sqlenc.NewAssembler("bench", columns, rowsBatchSize)
	if err != nil {
		return nil, err
	}

	name := fmt.Sprintf("Dump_batch_%d_workers_%d", rowsBatchSize, workers)
	return b.run(name, rd.NumRows(), func() error {
		_, err := dump.NewWriter(io.Discard, asm, &dump.Options{Workers: workers}).Write(b.Ctx, rd.Blocks(b.Ctx))
		return err
	})
}

// BenchmarkAssemble renders a synthetic in-memory block, isolating value
// encoding from Parquet decoding.
func (b *Benchmarker) BenchmarkAssemble(rows, rowsBatchSize int) (*BenchmarkResult, error) {
	rec := SyntheticRecord(memory.NewGoAllocator(), rows)
	defer rec.Release()

	columns, err := sqlenc.ColumnNames(rec.Schema())
	if err != nil {
		return nil, err
	}
	asm, err := sqlenc.NewAssembler("bench", columns, rowsBatchSize)
	if err != nil {
		return nil, err
	}

	name := fmt.Sprintf("Assemble_%d_rows_batch_%d", rows, rowsBatchSize)
	return b.run(name, int64(rows), func() error {
		for _, err := range asm.Assemble(rec) {
			if err != nil {
				return err
			}
		}
		return nil
	})
}

// SyntheticRecord builds rows of mixed column types, with every fifth
// optional value null.
func SyntheticRecord(mem memory.Allocator, rows int) arrow.Record {
	schema := arrow.NewSchema([]arrow.Field{
		{Name: "id", Type: arrow.PrimitiveTypes.Int64},
		{Name: "name", Type: arrow.BinaryTypes.String, Nullable: true},
		{Name: "value", Type: arrow.PrimitiveTypes.Float64, Nullable: true},
		{Name: "active", Type: arrow.FixedWidthTypes.Boolean},
		{Name: "created_at", Type: &arrow.TimestampType{Unit: arrow.Microsecond}, Nullable: true},
	}, nil)

	b := array.NewRecordBuilder(mem, schema)
	defer b.Release()

	ids := b.Field(0).(*array.Int64Builder)
	names := b.Field(1).(*array.StringBuilder)
	values := b.Field(2).(*array.Float64Builder)
	active := b.Field(3).(*array.BooleanBuilder)
	created := b.Field(4).(*array.TimestampBuilder)

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).UnixMicro()
	for i := 0; i < rows; i++ {
		ids.Append(int64(i))
		active.Append(i%2 == 0)
		if i%5 == 0 {
			names.AppendNull()
			values.AppendNull()
			created.AppendNull()
			continue
		}
		names.Append(fmt.Sprintf("user's name %d", i))
		values.Append(float64(i) * 1.25)
		created.Append(arrow.Timestamp(base + int64(i)*1_000_000))
	}
	return b.NewRecord()
}

func PrintResults(w io.Writer, results []*BenchmarkResult) {
	fmt.Fprintln(w, "\n"+strings.Repeat("=", 80))
	fmt.Fprintln(w, "BENCHMARK RESULTS")
	fmt.Fprintln(w, strings.Repeat("=", 80)+"\n")

	for _, r := range results {
		fmt.Fprintf(w, "%-50s iterations=%d rows=%d\n", r.Name, r.Iterations, r.Rows)
		fmt.Fprintf(w, "  %s\n", r.Percentiles().String())
		fmt.Fprintf(w, "  throughput: %.0f rows/sec\n\n", r.RowsPerSecond())
	}
}
