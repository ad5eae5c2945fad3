package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v2"
)

const (
	DefaultPath           = ".parquet2sql.yaml"
	DefaultRowsBatchSize  = 100
	DefaultReadBatchSize  = 1024
	DefaultWorkers        = 1
	DefaultListenAddr     = ":8080"
	DefaultMaxUploadBytes = 256 << 20
)

var ErrInvalid = errors.New("invalid configuration")

// Config mirrors the YAML file. Numeric settings are pointers so an explicit
// zero is kept and rejected by Validate instead of becoming the default.
type Config struct {
	Table         string       `yaml:"table"`
	RowsBatchSize *int         `yaml:"rows_batch_size"`
	ColumnNames   *bool        `yaml:"column_names"`
	ReadBatchSize *int64       `yaml:"read_batch_size"`
	Workers       *int         `yaml:"workers"`
	Output        string       `yaml:"output"`
	Server        ServerConfig `yaml:"server"`
}

type ServerConfig struct {
	Addr           string `yaml:"addr"`
	MaxUploadBytes int64  `yaml:"max_upload_bytes"`
}

// Resolved is a Config with defaults applied. It is what the rest of the
// program consumes.
type Resolved struct {
	Table          string
	RowsBatchSize  int
	ColumnNames    bool
	ReadBatchSize  int64
	Workers        int
	Output         string
	Addr           string
	MaxUploadBytes int64
}

// Load reads path, or DefaultPath when path is empty.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config file %s not found, pass --config or run 'parquet2sql sample-config': %w", path, err)
	}

	var config Config
	if err := yaml.UnmarshalStrict(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	return &config, nil
}

// Resolve fills every unset field with its default.
func (c *Config) Resolve() Resolved {
	r := Resolved{
		Table:          c.Table,
		RowsBatchSize:  DefaultRowsBatchSize,
		ColumnNames:    true,
		ReadBatchSize:  DefaultReadBatchSize,
		Workers:        DefaultWorkers,
		Output:         c.Output,
		Addr:           c.Server.Addr,
		MaxUploadBytes: c.Server.MaxUploadBytes,
	}

	if c.RowsBatchSize != nil {
		r.RowsBatchSize = *c.RowsBatchSize
	}
	if c.ColumnNames != nil {
		r.ColumnNames = *c.ColumnNames
	}
	if c.ReadBatchSize != nil {
		r.ReadBatchSize = *c.ReadBatchSize
	}
	if c.Workers != nil {
		r.Workers = *c.Workers
	}
	if r.Addr == "" {
		r.Addr = DefaultListenAddr
	}
	if r.MaxUploadBytes == 0 {
		r.MaxUploadBytes = DefaultMaxUploadBytes
	}

	return r
}

// Validate checks ranges. The table name is only checked when requireTable
// is set, since it may still be derived from the input file name.
func (r Resolved) Validate(requireTable bool) error {
	var problems []string

	if r.RowsBatchSize < 1 {
		problems = append(problems, fmt.Sprintf("rows_batch_size must be at least 1, got %d", r.RowsBatchSize))
	}
	if r.ReadBatchSize < 1 {
		problems = append(problems, fmt.Sprintf("read_batch_size must be at least 1, got %d", r.ReadBatchSize))
	}
	if r.Workers < 1 {
		problems = append(problems, fmt.Sprintf("workers must be at least 1, got %d", r.Workers))
	}
	if r.MaxUploadBytes < 1 {
		problems = append(problems, fmt.Sprintf("server.max_upload_bytes must be positive, got %d", r.MaxUploadBytes))
	}
	if strings.ContainsRune(r.Table, '`') {
		problems = append(problems, fmt.Sprintf("table %q must not contain a backtick", r.Table))
	}
	if requireTable && r.Table == "" {
		problems = append(problems, "table is required")
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(problems, "; "))
	}
	return nil
}
