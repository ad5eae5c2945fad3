// Package dump writes a complete mysqldump-style script: the session
// prologue, INSERT statements for every row block, and the epilogue.
package dump

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"iter"
	"path/filepath"
	"strings"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/jolyndenning/parquet2sql/internal/logx"
	"github.com/jolyndenning/parquet2sql/internal/sqlenc"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Header saves the client charset, time zone and SQL mode, then forces
// utf8mb4 and UTC so literals are read the way they were written.
const Header = `/*!40101 SET @OLD_CHARACTER_SET_CLIENT=@@CHARACTER_SET_CLIENT */;
/*!40101 SET @OLD_CHARACTER_SET_RESULTS=@@CHARACTER_SET_RESULTS */;
/*!40101 SET @OLD_COLLATION_CONNECTION=@@COLLATION_CONNECTION */;
/*!50503 SET NAMES utf8mb4 */;
/*!40103 SET @OLD_TIME_ZONE=@@TIME_ZONE */;
/*!40103 SET TIME_ZONE='+00:00' */;
/*!40101 SET @OLD_SQL_MODE=@@SQL_MODE, SQL_MODE='NO_AUTO_VALUE_ON_ZERO' */;`

// Footer restores what Header saved.
const Footer = `/*!40103 SET TIME_ZONE=@OLD_TIME_ZONE */;
/*!40101 SET SQL_MODE=@OLD_SQL_MODE */;
/*!40101 SET CHARACTER_SET_CLIENT=@OLD_CHARACTER_SET_CLIENT */;
/*!40101 SET CHARACTER_SET_RESULTS=@OLD_CHARACTER_SET_RESULTS */;
/*!40101 SET COLLATION_CONNECTION=@OLD_COLLATION_CONNECTION */;`

// Stats summarises a finished (or aborted) dump
type Stats struct {
	Blocks     int64
	Rows       int64
	Statements int64
	Duration   time.Duration
}

// Options contains optional tuning and callbacks for progress reporting
type Options struct {
	// Blocks rendered concurrently. Output order never changes.
	Workers int
	// OnBlock runs after a block's statements have been written.
	OnBlock func(rows, statements int64)
}

type Writer struct {
	out  io.Writer
	asm  *sqlenc.Assembler
	opts Options
}

func NewWriter(out io.Writer, asm *sqlenc.Assembler, opts *Options) *Writer {
	w := &Writer{out: out, asm: asm}
	if opts != nil {
		w.opts = *opts
	}
	if w.opts.Workers < 1 {
		w.opts.Workers = 1
	}
	return w
}

// Write emits Header, the statements for every block in order, then Footer.
// It stops at the first error; the Footer is only written on success.
func (w *Writer) Write(ctx context.Context, blocks iter.Seq2[arrow.Record, error]) (Stats, error) {
	start := time.Now()
	bw := bufio.NewWriterSize(w.out, 64<<10)

	var (
		stats Stats
		err   error
	)
	if _, err = io.WriteString(bw, Header+"\n"); err == nil {
		if w.opts.Workers > 1 {
			err = w.writeParallel(ctx, bw, blocks, &stats)
		} else {
			err = w.writeSequential(ctx, bw, blocks, &stats)
		}
	}
	if err == nil {
		_, err = io.WriteString(bw, Footer+"\n")
	}
	if flushErr := bw.Flush(); err == nil && flushErr != nil {
		err = fmt.Errorf("failed to flush output: %w", flushErr)
	}

	stats.Duration = time.Since(start)
	if err != nil {
		return stats, err
	}

	logx.Logger.Info("Dump written",
		zap.String("table", w.asm.Table()),
		zap.Int64("blocks", stats.Blocks),
		zap.Int64("rows", stats.Rows),
		zap.Int64("statements", stats.Statements),
		zap.Duration("duration", stats.Duration),
	)
	return stats, nil
}

func (w *Writer) writeSequential(ctx context.Context, out io.Writer, blocks iter.Seq2[arrow.Record, error], stats *Stats) error {
	for rec, err := range blocks {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		var n int64
		for stmt, err := range w.asm.Assemble(rec) {
			if err != nil {
				return fmt.Errorf("block %d: %w", stats.Blocks, err)
			}
			if _, err := io.WriteString(out, stmt+"\n"); err != nil {
				return fmt.Errorf("failed to write statement: %w", err)
			}
			n++
		}
		w.blockDone(stats, rec.NumRows(), n)
	}
	return nil
}

type rendered struct {
	rows  int64
	stmts []string
	err   error
}

// writeParallel renders up to Workers blocks at once. Each block gets a
// slot queued in input order, so the writer drains results in order no
// matter which render finishes first.
func (w *Writer) writeParallel(ctx context.Context, out io.Writer, blocks iter.Seq2[arrow.Record, error], stats *Stats) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(w.opts.Workers + 1)

	slots := make(chan chan rendered, w.opts.Workers)

	g.Go(func() error {
		for slot := range slots {
			r := <-slot
			if r.err != nil {
				return fmt.Errorf("block %d: %w", stats.Blocks, r.err)
			}
			for _, stmt := range r.stmts {
				if _, err := io.WriteString(out, stmt+"\n"); err != nil {
					return fmt.Errorf("failed to write statement: %w", err)
				}
			}
			w.blockDone(stats, r.rows, int64(len(r.stmts)))
		}
		return nil
	})

	var produceErr error
	for rec, err := range blocks {
		if err != nil {
			produceErr = err
			break
		}
		if gctx.Err() != nil {
			break
		}

		rec.Retain()
		slot := make(chan rendered, 1)
		g.Go(func() error {
			defer rec.Release()
			if err := gctx.Err(); err != nil {
				slot <- rendered{err: err}
				return nil
			}
			stmts, err := sqlenc.Collect(w.asm.Assemble(rec))
			slot <- rendered{rows: rec.NumRows(), stmts: stmts, err: err}
			return nil
		})

		select {
		case slots <- slot:
		case <-gctx.Done():
		}
	}
	if produceErr != nil {
		cancel()
	}
	close(slots)

	if err := g.Wait(); err != nil && produceErr == nil {
		return err
	}
	if produceErr != nil {
		return produceErr
	}
	return ctx.Err()
}

func (w *Writer) blockDone(stats *Stats, rows, statements int64) {
	stats.Blocks++
	stats.Rows += rows
	stats.Statements += statements

	logx.Logger.Debug("Converted block",
		zap.String("table", w.asm.Table()),
		zap.Int64("block", stats.Blocks),
		zap.Int64("rows", rows),
		zap.Int64("statements", statements),
		zap.Int("batch_size", w.asm.BatchSize()),
	)
	if w.opts.OnBlock != nil {
		w.opts.OnBlock(rows, statements)
	}
}

// TableNameFromPath derives a table name from a file name by dropping the
// directory and the final extension: "data/users.parquet" becomes "users".
func TableNameFromPath(path string) (string, error) {
	base := filepath.Base(path)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	if name == "" || name == "." || name == string(filepath.Separator) {
		return "", fmt.Errorf("cannot derive a table name from %q, pass --table", path)
	}
	return name, nil
}
