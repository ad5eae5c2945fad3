package cmd

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jolyndenning/parquet2sql/api"
	"github.com/jolyndenning/parquet2sql/internal/config"
	"github.com/jolyndenning/parquet2sql/internal/logx"
	"github.com/jolyndenning/parquet2sql/internal/ui"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	serveAddr           string
	serveMaxUploadBytes int64
	serveConfigPath     string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP conversion API",
	Long: `Starts an HTTP server that converts uploaded Parquet files. The request
body is the Parquet file; the response is the SQL script.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ui.PrintTitle("parquet2sql API Server")

		cfg, err := loadConfig(serveConfigPath)
		if err != nil {
			return err
		}
		opts := cfg.Resolve()
		if cmd.Flags().Changed("addr") {
			opts.Addr = serveAddr
		}
		if cmd.Flags().Changed("max-upload-bytes") {
			opts.MaxUploadBytes = serveMaxUploadBytes
		}
		if err := opts.Validate(false); err != nil {
			return err
		}

		log := logx.StyledLog
		ui.PrintBox("Configuration", fmt.Sprintf(
			"Address: %s\nMax upload: %d bytes\nRows per statement: %d\nWorkers: %d",
			opts.Addr, opts.MaxUploadBytes, opts.RowsBatchSize, opts.Workers,
		))

		log.Highlight("Listening on " + opts.Addr)
		log.Info("Endpoints available:")
		log.Info("  GET  /health            - Health check")
		log.Info("  POST /api/v1/convert    - Convert an uploaded Parquet file")
		log.Info("  POST /api/v1/schema     - Describe an uploaded Parquet file")
		log.Highlight("Press Ctrl+C to stop")

		ctx, stop := signalContext()
		defer stop()

		if err := api.NewServer(opts, log.Zap()).Run(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		log.Success("Server stopped", zap.String("addr", opts.Addr))
		return nil
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", config.DefaultListenAddr, "Listen address")
	serveCmd.Flags().Int64Var(&serveMaxUploadBytes, "max-upload-bytes", config.DefaultMaxUploadBytes, "Largest accepted upload in bytes")
	serveCmd.Flags().StringVar(&serveConfigPath, "config", "", "Path to YAML config file")
	rootCmd.AddCommand(serveCmd)
}
