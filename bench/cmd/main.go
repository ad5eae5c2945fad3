package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/jolyndenning/parquet2sql/bench"
	"github.com/jolyndenning/parquet2sql/internal/logx"
)

func main() {
	logx.InitLogger()
	defer logx.Sync()

	file := flag.String("file", "", "Parquet file for read and dump benchmarks")
	warmup := flag.Int("warmup", 3, "Number of warmup iterations")
	iterations := flag.Int("iterations", 20, "Number of benchmark iterations")
	benchType := flag.String("bench", "all", "Benchmark type: assemble, read, dump, all")

	flag.Parse()

	b := bench.NewBenchmarker(context.Background(), *warmup, *iterations)

	var results []*bench.BenchmarkResult
	switch *benchType {
	case "assemble":
		results = runAssembleBenchmarks(b)
	case "read":
		results = runReadBenchmarks(b, requireFile(*file))
	case "dump":
		results = runDumpBenchmarks(b, requireFile(*file))
	case "all":
		results = append(results, runAssembleBenchmarks(b)...)
		if *file != "" {
			results = append(results, runReadBenchmarks(b, *file)...)
			results = append(results, runDumpBenchmarks(b, *file)...)
		}
	default:
		log.Fatalf("Unknown benchmark type: %s (use: assemble, read, dump, all)", *benchType)
	}

	bench.PrintResults(os.Stdout, results)
	printTips(results)
}

func requireFile(file string) string {
	if file == "" {
		log.Fatal("-file is required for this benchmark")
	}
	return file
}

func must(r *bench.BenchmarkResult, err error) *bench.BenchmarkResult {
	if err != nil {
		log.Fatalf("Benchmark failed: %v", err)
	}
	return r
}

func runAssembleBenchmarks(b *bench.Benchmarker) []*bench.BenchmarkResult {
	return []*bench.BenchmarkResult{
		must(b.BenchmarkAssemble(10000, 100)),
		must(b.BenchmarkAssemble(10000, 1000)),
		must(b.BenchmarkAssemble(100000, 100)),
	}
}

func runReadBenchmarks(b *bench.Benchmarker, file string) []*bench.BenchmarkResult {
	return []*bench.BenchmarkResult{
		must(b.BenchmarkRead(file, 1024)),
		must(b.BenchmarkRead(file, 8192)),
	}
}

func runDumpBenchmarks(b *bench.Benchmarker, file string) []*bench.BenchmarkResult {
	return []*bench.BenchmarkResult{
		must(b.BenchmarkDump(file, 100, 1)),
		must(b.BenchmarkDump(file, 100, 4)),
		must(b.BenchmarkDump(file, 1000, 4)),
	}
}

func printTips(results []*bench.BenchmarkResult) {
	fmt.Println(strings.Repeat("=", 80))
	fmt.Println("TUNING TIPS")
	fmt.Println(strings.Repeat("=", 80))

	for _, r := range results {
		stats := r.Percentiles()

		if stats.P95 > 0 && stats.P99 > stats.P95*2 {
			fmt.Printf("\n⚠ High tail latency in %s:\n", r.Name)
			fmt.Printf("  p99/p95 ratio: %.2fx\n", float64(stats.P99)/float64(stats.P95))
			fmt.Println("  Check for GC pauses or a busy disk")
		}

		if strings.HasPrefix(r.Name, "Dump") && strings.HasSuffix(r.Name, "workers_1") && r.RowsPerSecond() < 100000 {
			fmt.Printf("\n⚠ Low single-worker throughput in %s: %.0f rows/sec\n", r.Name, r.RowsPerSecond())
			fmt.Println("  Try --workers to render record batches concurrently")
		}
	}

	fmt.Println()
}
