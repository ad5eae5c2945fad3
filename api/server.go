package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/jolyndenning/parquet2sql/internal/config"
	"github.com/jolyndenning/parquet2sql/internal/dump"
	"github.com/jolyndenning/parquet2sql/internal/source"
	"github.com/jolyndenning/parquet2sql/internal/sqlenc"
	"go.uber.org/zap"
)

const (
	Version = "1.0.0"

	requestIDHeader       = "X-Request-ID"
	conversionErrorHeader = "X-Conversion-Error"
)

type Server struct {
	config config.Resolved
	logger *zap.Logger
	router *chi.Mux
}

type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Version   string    `json:"version"`
}

type ErrorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

type ColumnInfo struct {
	Name      string `json:"name"`
	Type      string `json:"type"`
	Nullable  bool   `json:"nullable"`
	Supported bool   `json:"supported"`
}

type SchemaResponse struct {
	Rows    int64        `json:"rows"`
	Columns []ColumnInfo `json:"columns"`
}

func NewServer(cfg config.Resolved, logger *zap.Logger) *Server {
	s := &Server{
		config: cfg,
		logger: logger,
		router: chi.NewRouter(),
	}

	s.router.Use(middleware.RealIP)
	s.router.Use(s.requestID)
	s.router.Use(s.requestLogger)
	s.router.Use(middleware.Recoverer)

	s.router.Get("/health", s.handleHealth)
	s.router.Route("/api/v1", func(r chi.Router) {
		r.Post("/convert", s.handleConvert)
		r.Post("/schema", s.handleSchema)
	})

	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until ctx is cancelled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.config.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Starting API server", zap.String("addr", s.config.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		s.logger.Info("Shutting down API server")
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r)
	})
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.logger.Info("HTTP request",
			zap.String("request_id", w.Header().Get(requestIDHeader)),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC(),
		Version:   Version,
	})
}

// handleConvert streams the SQL dump of the uploaded Parquet body.
//
// Query parameters: table (required), rows_batch_size, column_names.
func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	opts := s.config
	opts.Table = q.Get("table")
	if v := q.Get("rows_batch_size"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			s.writeError(w, r, http.StatusBadRequest, fmt.Errorf("rows_batch_size: %w", err))
			return
		}
		opts.RowsBatchSize = n
	}
	if v := q.Get("column_names"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			s.writeError(w, r, http.StatusBadRequest, fmt.Errorf("column_names: %w", err))
			return
		}
		opts.ColumnNames = b
	}
	if err := opts.Validate(true); err != nil {
		s.writeError(w, r, http.StatusBadRequest, err)
		return
	}

	rd, status, err := s.readUpload(w, r, opts)
	if err != nil {
		s.writeError(w, r, status, err)
		return
	}
	defer rd.Close()

	if err := sqlenc.ValidateSchema(rd.Schema()); err != nil {
		s.writeError(w, r, http.StatusUnprocessableEntity, err)
		return
	}

	var columns string
	if opts.ColumnNames {
		if columns, err = sqlenc.ColumnNames(rd.Schema()); err != nil {
			s.writeError(w, r, http.StatusUnprocessableEntity, err)
			return
		}
	}
	asm, err := sqlenc.NewAssembler(opts.Table, columns, opts.RowsBatchSize)
	if err != nil {
		s.writeError(w, r, http.StatusBadRequest, err)
		return
	}

	// Failures after the first byte can only be reported in a trailer.
	w.Header().Set("Trailer", conversionErrorHeader)
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", opts.Table+".sql"))
	w.WriteHeader(http.StatusOK)

	stats, err := dump.NewWriter(w, asm, &dump.Options{Workers: opts.Workers}).Write(r.Context(), rd.Blocks(r.Context()))
	if err != nil {
		w.Header().Set(conversionErrorHeader, err.Error())
		s.logger.Error("Conversion failed mid-stream",
			zap.String("request_id", w.Header().Get(requestIDHeader)),
			zap.String("table", opts.Table),
			zap.Error(err),
		)
		return
	}

	s.logger.Info("Converted upload",
		zap.String("request_id", w.Header().Get(requestIDHeader)),
		zap.String("table", opts.Table),
		zap.Int64("rows", stats.Rows),
		zap.Int64("statements", stats.Statements),
	)
}

func (s *Server) handleSchema(w http.ResponseWriter, r *http.Request) {
	rd, status, err := s.readUpload(w, r, s.config)
	if err != nil {
		s.writeError(w, r, status, err)
		return
	}
	defer rd.Close()

	resp := SchemaResponse{Rows: rd.NumRows()}
	for _, f := range rd.Schema().Fields() {
		resp.Columns = append(resp.Columns, ColumnInfo{
			Name:      f.Name,
			Type:      f.Type.String(),
			Nullable:  f.Nullable,
			Supported: sqlenc.Supported(f.Type),
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

// readUpload buffers the request body, bounded by MaxUploadBytes, and opens
// it as Parquet. Parquet needs random access, so the body cannot be
// streamed.
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request, opts config.Resolved) (*source.Reader, int, error) {
	body := http.MaxBytesReader(w, r.Body, opts.MaxUploadBytes)
	data, err := io.ReadAll(body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, http.StatusRequestEntityTooLarge, fmt.Errorf("upload exceeds %d bytes", tooLarge.Limit)
		}
		return nil, http.StatusBadRequest, fmt.Errorf("failed to read upload: %w", err)
	}

	rd, err := source.FromBytes("upload", data, source.Options{BatchSize: opts.ReadBatchSize})
	if err != nil {
		return nil, http.StatusBadRequest, err
	}
	return rd, http.StatusOK, nil
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, status int, err error) {
	id := w.Header().Get(requestIDHeader)
	s.logger.Warn("Request failed",
		zap.String("request_id", id),
		zap.String("path", r.URL.Path),
		zap.Int("status", status),
		zap.Error(err),
	)
	writeJSON(w, status, ErrorResponse{Error: err.Error(), RequestID: id})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
