package main

import (
	"github.com/jolyndenning/parquet2sql/cmd"
	"github.com/jolyndenning/parquet2sql/internal/logx"
)

func main() {
	logx.InitLogger()
	defer logx.Sync()
	cmd.Execute()
}
