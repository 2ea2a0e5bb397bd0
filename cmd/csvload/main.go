// Command csvload loads delimited text files into SQL tables. It detects
// each file's layout, infers column types from a sample, creates the table
// and streams the rows in batches, writing rows that fail to a dead-letter
// CSV next to a JSON run summary on stdout.
//
//	csvload -db-kind postgres -dsn postgres://u:p@db/warehouse customers.csv
//	csvload -config run.yaml -parallel 4 data/*.csv
//	csvload -dry-run -db-kind mssql orders.csv
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	// register all backends with the storage factory.
	_ "csvload/internal/storage/all"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	failed, err := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	if err != nil {
		stop()
		fatalf("csvload: %v", err)
	}
	if failed {
		stop()
		os.Exit(1)
	}
}

func fatalf(format string, a ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", a...)
	os.Exit(1)
}
