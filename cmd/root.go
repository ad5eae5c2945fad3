package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jolyndenning/parquet2sql/internal/config"
	"github.com/jolyndenning/parquet2sql/internal/logx"
	"github.com/jolyndenning/parquet2sql/internal/ui"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var verboseLogging bool

var rootCmd = &cobra.Command{
	Use:   "parquet2sql",
	Short: "parquet2sql turns Parquet files into MySQL INSERT scripts",
	Long: `parquet2sql reads a Parquet file and writes a mysqldump-style script
of batched INSERT statements that can be piped straight into mysql.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logx.InitLoggerWithLevel(verboseLogging)
	},
	Run: func(cmd *cobra.Command, args []string) {
		showLogo()
		cmd.Help()
	},
}

// showLogo displays the application logo and header
func showLogo() {
	ui.PrintLogo()
	ui.PrintTitle("parquet2sql")
	ui.PrintSubtitle("Parquet to MySQL INSERT statements")
	fmt.Fprintln(ui.Out)
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		logx.StyledLog.Error(err.Error(), zap.Error(err))
		logx.Sync()
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verboseLogging, "verbose", "v", false, "Enable verbose logging (shows all operations)")
}

// loadConfig reads the YAML config. An explicit path must exist; a missing
// default file just means every setting comes from flags and defaults.
func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err == nil {
		return cfg, nil
	}
	if path == "" && errors.Is(err, os.ErrNotExist) {
		logx.Logger.Debug("No config file, using flags and defaults", zap.String("path", config.DefaultPath))
		return &config.Config{}, nil
	}
	return nil, err
}

// signalContext is cancelled on SIGINT or SIGTERM
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
