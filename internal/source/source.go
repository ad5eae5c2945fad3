// Package source reads Parquet files as a stream of Arrow record batches.
package source

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"iter"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet/file"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"
	"github.com/jolyndenning/parquet2sql/internal/logx"
	"go.uber.org/zap"
)

const DefaultBatchSize = 1024

type Options struct {
	// Rows per record batch. Zero means DefaultBatchSize.
	BatchSize int64
	// Decode columns concurrently.
	Parallel  bool
	Allocator memory.Allocator
}

type Reader struct {
	name   string
	pf     *file.Reader
	fr     *pqarrow.FileReader
	schema *arrow.Schema
}

// Open opens the Parquet file at path.
func Open(path string, opts Options) (*Reader, error) {
	pf, err := file.OpenParquetFile(path, false)
	if err != nil {
		return nil, fmt.Errorf("unable to open parquet file %s: %w", path, err)
	}
	return newReader(path, pf, opts)
}

// FromBytes reads a Parquet file held in memory.
func FromBytes(name string, data []byte, opts Options) (*Reader, error) {
	pf, err := file.NewParquetReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("invalid parquet data %s: %w", name, err)
	}
	return newReader(name, pf, opts)
}

func newReader(name string, pf *file.Reader, opts Options) (*Reader, error) {
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}
	if opts.Allocator == nil {
		opts.Allocator = memory.DefaultAllocator
	}

	fr, err := pqarrow.NewFileReader(pf, pqarrow.ArrowReadProperties{
		BatchSize: opts.BatchSize,
		Parallel:  opts.Parallel,
	}, opts.Allocator)
	if err != nil {
		pf.Close()
		return nil, fmt.Errorf("unable to build arrow reader for %s: %w", name, err)
	}

	schema, err := fr.Schema()
	if err != nil {
		pf.Close()
		return nil, fmt.Errorf("unable to read arrow schema of %s: %w", name, err)
	}

	logx.Logger.Debug("Opened parquet source",
		zap.String("source", name),
		zap.Int64("rows", pf.NumRows()),
		zap.Int("row_groups", pf.NumRowGroups()),
		zap.Int("columns", schema.NumFields()),
		zap.Int64("batch_size", opts.BatchSize),
	)

	return &Reader{name: name, pf: pf, fr: fr, schema: schema}, nil
}

func (r *Reader) Name() string { return r.name }

func (r *Reader) Schema() *arrow.Schema { return r.schema }

func (r *Reader) NumRows() int64 { return r.pf.NumRows() }

// Blocks yields the file's record batches in order. Each record is only
// valid until the loop body returns; call Retain to keep it longer. Every
// call reads the file from the start.
func (r *Reader) Blocks(ctx context.Context) iter.Seq2[arrow.Record, error] {
	return func(yield func(arrow.Record, error) bool) {
		if err := ctx.Err(); err != nil {
			yield(nil, err)
			return
		}
		rr, err := r.fr.GetRecordReader(ctx, nil, nil)
		if err != nil {
			yield(nil, fmt.Errorf("unable to read record batches of %s: %w", r.name, err))
			return
		}
		defer rr.Release()

		for rr.Next() {
			if err := ctx.Err(); err != nil {
				yield(nil, err)
				return
			}
			if !yield(rr.Record(), nil) {
				return
			}
		}
		if err := rr.Err(); err != nil && !errors.Is(err, io.EOF) {
			yield(nil, fmt.Errorf("error reading %s: %w", r.name, err))
		}
	}
}

func (r *Reader) Close() error {
	return r.pf.Close()
}
