package cmd

import (
	"fmt"
	"strconv"

	"github.com/jolyndenning/parquet2sql/internal/logx"
	"github.com/jolyndenning/parquet2sql/internal/source"
	"github.com/jolyndenning/parquet2sql/internal/sqlenc"
	"github.com/jolyndenning/parquet2sql/internal/ui"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var schemaCmd = &cobra.Command{
	Use:   "schema <file.parquet>",
	Short: "Show the columns of a Parquet file and whether they can be converted",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rd, err := source.Open(args[0], source.Options{})
		if err != nil {
			return err
		}
		defer rd.Close()

		headers, rows, muted := schemaRows(rd)
		ui.PrintTitle(rd.Name())
		ui.DisplayTable(headers, rows, muted)

		unsupported := len(muted)
		ui.PrintBox("Summary", fmt.Sprintf("Rows: %d\nColumns: %d\nUnsupported: %d",
			rd.NumRows(), len(rows), unsupported))

		if unsupported > 0 {
			logx.StyledLog.Warn("File has columns that cannot be converted",
				zap.String("input", rd.Name()),
				zap.Int("unsupported", unsupported),
			)
		}
		return nil
	},
}

// schemaRows lays out one table row per column. Unsupported columns are
// marked in muted.
func schemaRows(rd *source.Reader) ([]string, [][]string, map[int]bool) {
	headers := []string{"#", "Column", "Type", "Nullable", "Supported"}
	fields := rd.Schema().Fields()
	rows := make([][]string, 0, len(fields))
	muted := make(map[int]bool)

	for i, f := range fields {
		ok := sqlenc.Supported(f.Type)
		if !ok {
			muted[i] = true
		}
		rows = append(rows, []string{
			strconv.Itoa(i),
			f.Name,
			f.Type.String(),
			strconv.FormatBool(f.Nullable),
			yesNo(ok),
		})
	}
	return headers, rows, muted
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func init() {
	rootCmd.AddCommand(schemaCmd)
}
