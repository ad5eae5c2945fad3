package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/jolyndenning/parquet2sql/internal/config"
	"github.com/jolyndenning/parquet2sql/internal/dump"
	"github.com/jolyndenning/parquet2sql/internal/logx"
	"github.com/jolyndenning/parquet2sql/internal/source"
	"github.com/jolyndenning/parquet2sql/internal/sqlenc"
	"github.com/jolyndenning/parquet2sql/internal/ui"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	convertTable         string
	convertRowsBatchSize int
	convertNoColumnNames bool
	convertOut           string
	convertReadBatchSize int64
	convertWorkers       int
	convertConfigPath    string
	convertInteractive   bool
)

var errCancelled = errors.New("conversion cancelled")

var convertCmd = &cobra.Command{
	Use:   "convert <file.parquet>",
	Short: "Convert a Parquet file to MySQL INSERT statements",
	Long: `Convert writes a mysqldump-style script for a Parquet file: a session
prologue, one INSERT statement per batch of rows, and an epilogue.

The table name defaults to the file name without its extension.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		input := args[0]

		cfg, err := loadConfig(convertConfigPath)
		if err != nil {
			return err
		}
		opts := cfg.Resolve()

		// Flags override config values when set
		flags := cmd.Flags()
		if flags.Changed("table") {
			opts.Table = convertTable
		}
		if flags.Changed("rows-batch-size") {
			opts.RowsBatchSize = convertRowsBatchSize
		}
		if flags.Changed("no-column-names") {
			opts.ColumnNames = !convertNoColumnNames
		}
		if flags.Changed("out") {
			opts.Output = convertOut
		}
		if flags.Changed("read-batch-size") {
			opts.ReadBatchSize = convertReadBatchSize
		}
		if flags.Changed("workers") {
			opts.Workers = convertWorkers
		}

		if opts.Table == "" {
			if opts.Table, err = dump.TableNameFromPath(input); err != nil {
				return err
			}
		}
		if err := opts.Validate(true); err != nil {
			return err
		}

		ctx, stop := signalContext()
		defer stop()

		stats, err := convertFile(ctx, input, opts, convertInteractive)
		if err != nil {
			return fmt.Errorf("converting %s: %w", input, err)
		}

		log := logx.StyledLog.With(
			zap.String("input", input),
			zap.String("table", opts.Table),
		)
		log.Success("Conversion completed",
			zap.Int64("rows", stats.Rows),
			zap.Int64("statements", stats.Statements),
		)
		output := opts.Output
		if output == "" {
			output = "stdout"
		}
		ui.PrintBox("Conversion Result", fmt.Sprintf(
			"Input: %s\nTable: %s\nOutput: %s\nRows: %d\nStatements: %d\nDuration: %s",
			input, opts.Table, output, stats.Rows, stats.Statements, stats.Duration.Round(1e6),
		))
		return nil
	},
}

// convertFile runs one conversion. When writing to a file, a failed
// conversion removes the partial output.
func convertFile(ctx context.Context, input string, opts config.Resolved, interactive bool) (dump.Stats, error) {
	rd, err := source.Open(input, source.Options{
		BatchSize: opts.ReadBatchSize,
		Parallel:  opts.Workers > 1,
	})
	if err != nil {
		return dump.Stats{}, err
	}
	defer rd.Close()

	if err := sqlenc.ValidateSchema(rd.Schema()); err != nil {
		return dump.Stats{}, err
	}

	var columns string
	if opts.ColumnNames {
		if columns, err = sqlenc.ColumnNames(rd.Schema()); err != nil {
			return dump.Stats{}, err
		}
	}
	asm, err := sqlenc.NewAssembler(opts.Table, columns, opts.RowsBatchSize)
	if err != nil {
		return dump.Stats{}, err
	}

	if opts.Output == "" {
		return runDump(ctx, rd, asm, os.Stdout, opts, interactive)
	}

	f, err := os.Create(opts.Output)
	if err != nil {
		return dump.Stats{}, fmt.Errorf("could not create output file %s: %w", opts.Output, err)
	}
	stats, err := runDump(ctx, rd, asm, f, opts, interactive)
	if closeErr := f.Close(); err == nil && closeErr != nil {
		err = fmt.Errorf("could not close output file %s: %w", opts.Output, closeErr)
	}
	if err != nil {
		os.Remove(opts.Output)
		return stats, err
	}
	return stats, nil
}

func runDump(ctx context.Context, rd *source.Reader, asm *sqlenc.Assembler, out io.Writer, opts config.Resolved, interactive bool) (dump.Stats, error) {
	logx.Logger.Info("Starting conversion",
		zap.String("input", rd.Name()),
		zap.String("table", opts.Table),
		zap.Int64("rows", rd.NumRows()),
		zap.Int("rows_batch_size", opts.RowsBatchSize),
		zap.Int("workers", opts.Workers),
	)

	if !interactive {
		return dump.NewWriter(out, asm, &dump.Options{Workers: opts.Workers}).Write(ctx, rd.Blocks(ctx))
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(
		ui.NewProgressModel("Converting "+filepath.Base(rd.Name()), rd.NumRows()),
		tea.WithOutput(ui.Out),
		tea.WithContext(ctx),
	)

	var (
		stats   dump.Stats
		dumpErr error
	)
	done := make(chan struct{})
	go func() {
		defer close(done)
		w := dump.NewWriter(out, asm, &dump.Options{
			Workers: opts.Workers,
			OnBlock: func(rows, statements int64) {
				p.Send(ui.BlockDoneMsg{Rows: rows, Statements: statements})
			},
		})
		stats, dumpErr = w.Write(ctx, rd.Blocks(ctx))
		p.Send(ui.ConversionDoneMsg{Err: dumpErr})
	}()

	final, err := p.Run()
	if m, ok := final.(ui.ProgressModel); ok && m.Cancelled() {
		cancel()
		<-done
		return stats, errCancelled
	}
	<-done
	if dumpErr != nil {
		return stats, dumpErr
	}
	if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		// The dump itself succeeded; only the display broke.
		logx.StyledLog.Warn("Progress display failed", zap.Error(err))
	}
	return stats, nil
}

func init() {
	convertCmd.Flags().StringVarP(&convertTable, "table", "t", "", "SQL table name (default: input file name without extension)")
	convertCmd.Flags().IntVarP(&convertRowsBatchSize, "rows-batch-size", "r", config.DefaultRowsBatchSize, "Rows per INSERT statement")
	convertCmd.Flags().BoolVar(&convertNoColumnNames, "no-column-names", false, "Omit the column list from INSERT statements")
	convertCmd.Flags().StringVarP(&convertOut, "out", "o", "", "Output file (default: stdout)")
	convertCmd.Flags().Int64Var(&convertReadBatchSize, "read-batch-size", config.DefaultReadBatchSize, "Rows decoded per Parquet record batch")
	convertCmd.Flags().IntVar(&convertWorkers, "workers", config.DefaultWorkers, "Record batches rendered concurrently")
	convertCmd.Flags().StringVar(&convertConfigPath, "config", "", "Path to YAML config file (default: "+config.DefaultPath+")")
	convertCmd.Flags().BoolVarP(&convertInteractive, "interactive", "i", false, "Show a progress view while converting")

	rootCmd.AddCommand(convertCmd)
}
