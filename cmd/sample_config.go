package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/jolyndenning/parquet2sql/internal/config"
	"github.com/jolyndenning/parquet2sql/internal/logx"
	"github.com/jolyndenning/parquet2sql/internal/ui"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var sampleConfigForce bool

const sampleConfig = `# .parquet2sql.yaml - Sample Configuration

# Target table. Defaults to the input file name without its extension.
# table: users

# Rows per INSERT statement
rows_batch_size: 100

# Emit the column list in every INSERT statement
column_names: true

# Rows decoded per Parquet record batch
read_batch_size: 1024

# Record batches rendered concurrently. Output order never changes.
workers: 1

# Output file. Empty means stdout.
output: ""

# HTTP API (parquet2sql serve)
server:
  addr: ":8080"
  # Largest accepted upload in bytes
  max_upload_bytes: 268435456
`

var sampleConfigCmd = &cobra.Command{
	Use:   "sample-config",
	Short: "Generate a sample config file (" + config.DefaultPath + ")",
	RunE: func(cmd *cobra.Command, args []string) error {
		ui.PrintTitle("Configuration Generator")

		log := logx.StyledLog

		if err := writeSampleConfig(config.DefaultPath, sampleConfigForce); err != nil {
			return err
		}

		log.Success("Sample config written", zap.String("path", config.DefaultPath))

		ui.PrintBox("Next Steps",
			"1. Edit "+config.DefaultPath+" to set batch sizes and output\n"+
				"2. Run 'parquet2sql schema <file>' to check the columns\n"+
				"3. Run 'parquet2sql convert <file>' to write the SQL")
		return nil
	},
}

// writeSampleConfig creates path with the sample contents. An existing file
// is only replaced when force is set.
func writeSampleConfig(path string, force bool) error {
	flag := os.O_WRONLY | os.O_CREATE | os.O_EXCL
	if force {
		flag = os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	}
	f, err := os.OpenFile(path, flag, 0644)
	if errors.Is(err, os.ErrExist) {
		return fmt.Errorf("%s already exists, pass --force to overwrite it", path)
	}
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if _, err := f.WriteString(sampleConfig); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

func init() {
	sampleConfigCmd.Flags().BoolVar(&sampleConfigForce, "force", false, "Overwrite an existing config file")
	rootCmd.AddCommand(sampleConfigCmd)
}
