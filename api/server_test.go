package api

import (
	"bytes"
	"encoding/json"
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"
	"github.com/jolyndenning/parquet2sql/internal/config"
	"github.com/jolyndenning/parquet2sql/internal/dump"
	"go.uber.org/zap"
)

func parquetBytes(t *testing.T, rec arrow.Record) []byte {
	t.Helper()
	tbl := array.NewTableFromRecords(rec.Schema(), []arrow.Record{rec})
	defer tbl.Release()

	var buf bytes.Buffer
	if err := pqarrow.WriteTable(tbl, &buf, 1024, parquet.NewWriterProperties(), pqarrow.NewArrowWriterProperties(pqarrow.WithStoreSchema())); err != nil {
		t.Fatalf("write parquet: %v", err)
	}
	return buf.Bytes()
}

func usersParquet(t *testing.T) []byte {
	t.Helper()
	schema := arrow.NewSchema([]arrow.Field{
		{Name: "id", Type: arrow.PrimitiveTypes.Int64},
		{Name: "name", Type: arrow.BinaryTypes.String, Nullable: true},
	}, nil)
	b := array.NewRecordBuilder(memory.NewGoAllocator(), schema)
	defer b.Release()
	b.Field(0).(*array.Int64Builder).AppendValues([]int64{1, 2, 3}, nil)
	b.Field(1).(*array.StringBuilder).AppendValues([]string{"ann", "o'brien", ""}, []bool{true, true, false})
	rec := b.NewRecord()
	defer rec.Release()
	return parquetBytes(t, rec)
}

func listParquet(t *testing.T) []byte {
	t.Helper()
	schema := arrow.NewSchema([]arrow.Field{
		{Name: "tags", Type: arrow.ListOf(arrow.PrimitiveTypes.Int32), Nullable: true},
	}, nil)
	b := array.NewRecordBuilder(memory.NewGoAllocator(), schema)
	defer b.Release()
	lb := b.Field(0).(*array.ListBuilder)
	lb.Append(true)
	lb.ValueBuilder().(*array.Int32Builder).Append(1)
	rec := b.NewRecord()
	defer rec.Release()
	return parquetBytes(t, rec)
}

func nanParquet(t *testing.T) []byte {
	t.Helper()
	schema := arrow.NewSchema([]arrow.Field{
		{Name: "f", Type: arrow.PrimitiveTypes.Float64},
	}, nil)
	b := array.NewRecordBuilder(memory.NewGoAllocator(), schema)
	defer b.Release()
	b.Field(0).(*array.Float64Builder).AppendValues([]float64{1, math.NaN()}, nil)
	rec := b.NewRecord()
	defer rec.Release()
	return parquetBytes(t, rec)
}

func newTestServer(t *testing.T, mutate func(*config.Resolved)) *httptest.Server {
	t.Helper()
	cfg := (&config.Config{}).Resolve()
	if mutate != nil {
		mutate(&cfg)
	}
	srv := httptest.NewServer(NewServer(cfg, zap.NewNop()).Handler())
	t.Cleanup(srv.Close)
	return srv
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t, nil)

	resp, err := http.Get(srv.URL + "/health")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if resp.Header.Get("X-Request-ID") == "" {
		t.Error("missing X-Request-ID")
	}
	var health HealthResponse
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		t.Fatal(err)
	}
	if health.Status != "healthy" || health.Version != Version {
		t.Errorf("health = %+v", health)
	}
}

func TestConvert(t *testing.T) {
	srv := newTestServer(t, nil)

	resp, err := http.Post(srv.URL+"/api/v1/convert?table=users&rows_batch_size=2", "application/octet-stream", bytes.NewReader(usersParquet(t)))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d: %s", resp.StatusCode, body)
	}
	want := dump.Header + "\n" +
		"INSERT INTO `users` (`id`,`name`) VALUES (1,'ann'),(2,'o\\'brien');\n" +
		"INSERT INTO `users` (`id`,`name`) VALUES (3,NULL);\n" +
		dump.Footer + "\n"
	if string(body) != want {
		t.Errorf("body mismatch:\n got:\n%s\nwant:\n%s", body, want)
	}
	if got := resp.Trailer.Get("X-Conversion-Error"); got != "" {
		t.Errorf("unexpected conversion error trailer %q", got)
	}
}

func TestConvertReportsMidStreamFailureInTrailer(t *testing.T) {
	srv := newTestServer(t, nil)

	resp, err := http.Post(srv.URL+"/api/v1/convert?table=t&rows_batch_size=1", "application/octet-stream", bytes.NewReader(nanParquet(t)))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d: %s", resp.StatusCode, body)
	}
	if !strings.Contains(string(body), "INSERT INTO `t` (`f`) VALUES (1);\n") {
		t.Errorf("first statement missing from body:\n%s", body)
	}
	if strings.Contains(string(body), dump.Footer) {
		t.Error("footer written after a failed conversion")
	}

	// Trailers are only populated once the body has been read.
	trailer := resp.Trailer.Get("X-Conversion-Error")
	for _, want := range []string{"row 1", "column 0 (f)", "NaN"} {
		if !strings.Contains(trailer, want) {
			t.Errorf("trailer %q does not mention %q", trailer, want)
		}
	}
}

func TestConvertWithoutColumnNames(t *testing.T) {
	srv := newTestServer(t, nil)

	resp, err := http.Post(srv.URL+"/api/v1/convert?table=users&column_names=false", "application/octet-stream", bytes.NewReader(usersParquet(t)))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	if !strings.Contains(string(body), "INSERT INTO `users` VALUES (1,'ann'),(2,'o\\'brien'),(3,NULL);\n") {
		t.Errorf("unexpected body:\n%s", body)
	}
}

func TestConvertRejectsBadRequests(t *testing.T) {
	srv := newTestServer(t, func(c *config.Resolved) { c.MaxUploadBytes = 64 << 10 })
	users := usersParquet(t)

	tests := []struct {
		name   string
		query  string
		body   []byte
		status int
	}{
		{"missing table", "", users, http.StatusBadRequest},
		{"zero batch size", "table=t&rows_batch_size=0", users, http.StatusBadRequest},
		{"non-numeric batch size", "table=t&rows_batch_size=lots", users, http.StatusBadRequest},
		{"bad column_names flag", "table=t&column_names=maybe", users, http.StatusBadRequest},
		{"backtick table", "table=a%60b", users, http.StatusBadRequest},
		{"not parquet", "table=t", []byte("hello"), http.StatusBadRequest},
		{"unsupported column", "table=t", listParquet(t), http.StatusUnprocessableEntity},
		{"too large", "table=t", bytes.Repeat([]byte{'x'}, 65<<10), http.StatusRequestEntityTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := http.Post(srv.URL+"/api/v1/convert?"+tt.query, "application/octet-stream", bytes.NewReader(tt.body))
			if err != nil {
				t.Fatal(err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != tt.status {
				t.Fatalf("status = %d, want %d", resp.StatusCode, tt.status)
			}
			var e ErrorResponse
			if err := json.NewDecoder(resp.Body).Decode(&e); err != nil {
				t.Fatalf("decode error body: %v", err)
			}
			if e.Error == "" || e.RequestID == "" {
				t.Errorf("error response = %+v", e)
			}
		})
	}
}

func TestSchema(t *testing.T) {
	srv := newTestServer(t, nil)

	resp, err := http.Post(srv.URL+"/api/v1/schema", "application/octet-stream", bytes.NewReader(listParquet(t)))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	var schema SchemaResponse
	if err := json.NewDecoder(resp.Body).Decode(&schema); err != nil {
		t.Fatal(err)
	}
	if schema.Rows != 1 || len(schema.Columns) != 1 {
		t.Fatalf("schema = %+v", schema)
	}
	col := schema.Columns[0]
	if col.Name != "tags" || col.Supported || !strings.HasPrefix(col.Type, "list") {
		t.Errorf("column = %+v", col)
	}
}
