package main

import (
	"context"
	"flag"
	"os"
	"time"

	"go-catalogue-ws/internal/config"
	"go-catalogue-ws/internal/remote"
	"go-catalogue-ws/internal/rows"
	"go-catalogue-ws/pkg/logger"

	"go.uber.org/zap"
)

// import-rows replaces one sheet of a self-hosted backend (postgres or
// sqlite) with the records of a CSV export, e.g. the file served by
// GET /api/v1/products/export or a download of the spreadsheet.
func main() {
	sheet := flag.String("sheet", rows.SheetProducts, "Products, Categories, Clusters or Users")
	file := flag.String("file", "", "CSV file with a header line (required)")
	flag.Parse()

	envErr := config.LoadEnv()
	cfg := config.Load()
	log := logger.Init(cfg.Log)
	defer log.Sync()
	if envErr != nil {
		log.Warn(".env file not found, relying on system env")
	}

	if *file == "" {
		flag.Usage()
		os.Exit(2)
	}
	if !rows.KnownSheet(*sheet) {
		log.Fatal("unknown sheet", zap.String("sheet", *sheet))
	}

	f, err := os.Open(*file)
	if err != nil {
		log.Fatal("failed to open file", zap.String("file", *file), zap.Error(err))
	}
	defer f.Close()
	data, err := rows.ReadCSV(f)
	if err != nil {
		log.Fatal("failed to parse file", zap.String("file", *file), zap.Error(err))
	}

	rs, closeRows, err := cfg.RowService(log)
	if err != nil {
		log.Fatal("failed to set up row service", zap.Error(err))
	}
	defer closeRows()

	imp, ok := rs.(remote.Importer)
	if !ok {
		log.Fatal("row backend cannot import", zap.String("backend", cfg.RowBackend), zap.Bool("configured", cfg.Configured()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	if err := imp.Import(ctx, *sheet, data); err != nil {
		log.Fatal("import failed", zap.String("sheet", *sheet), zap.Error(err))
	}
	log.Info("sheet imported", zap.String("sheet", *sheet), zap.Int("rows", len(data)), zap.String("backend", cfg.RowBackend))
}
