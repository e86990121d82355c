// Command ticketscan extracts ticket fields from scanned images and PDFs and
// writes them to a spreadsheet.
// Usage: ticketscan [flags] <file|dir|s3://bucket/prefix>...
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"
	"time"

	"ticketscan/internal/config"
	"ticketscan/internal/domain"
	"ticketscan/internal/ocr"
	"ticketscan/internal/port"
	"ticketscan/internal/repository/sqlite"
	"ticketscan/internal/service"
	s3storage "ticketscan/internal/storage/s3"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	var (
		out         = flag.String("out", "", "output file path (default <base>_<date>.<format> in the working directory)")
		format      = flag.String("format", "xlsx", "export format: xlsx or csv")
		concurrency = flag.Int("concurrency", 0, "number of files processed in parallel (default from config)")
		dbPath      = flag.String("db", "", "record the run in this sqlite database (optional)")
		publish     = flag.Bool("publish", false, "also upload the spreadsheet to the configured S3 bucket")
	)
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		return domain.ErrNoInput
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if *concurrency > 0 {
		cfg.Queue.Concurrency = *concurrency
	}

	exportFormat := domain.ExportFormat(strings.ToLower(*format))
	if _, ok := domain.ExportContentTypes[exportFormat]; !ok {
		return fmt.Errorf("%w: %s", domain.ErrInvalidFormat, *format)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	paths, cleanup, err := collectInputs(ctx, cfg, flag.Args())
	if cleanup != nil {
		defer cleanup()
	}
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return domain.ErrNoInput
	}

	recognizer, err := newRecognizer(&cfg.OCR)
	if err != nil {
		return fmt.Errorf("initializing recognizer: %w", err)
	}
	processor := service.NewBatchProcessor(recognizer, cfg.Queue.Concurrency)

	opts := service.BatchOptions{
		OnProgress: func(done, total int) {
			fmt.Fprintf(os.Stderr, "\rProgress: %d%% (%d/%d)", done*100/total, done, total)
			if done == total {
				fmt.Fprintln(os.Stderr)
			}
		},
		OnStatus: func(msg string) {
			fmt.Fprintln(os.Stderr, msg)
		},
	}

	var rows []domain.TicketRow
	if *dbPath != "" {
		cfg.DB.Path = *dbPath
		rows, err = processWithStore(ctx, cfg, processor, paths, opts)
	} else {
		var results []service.FileResult
		results, err = processor.Process(ctx, paths, opts)
		if err == nil {
			rows = service.Flatten(results)
		}
	}
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return domain.ErrEmptyResult
	}

	var storage port.ObjectStorage
	if *publish {
		if cfg.S3.Bucket == "" {
			return fmt.Errorf("-publish requires TICKETSCAN_S3_BUCKET to be set")
		}
		storage, err = s3storage.NewS3Client(&cfg.S3)
		if err != nil {
			return fmt.Errorf("initializing S3 client: %w", err)
		}
	}

	exportSvc := service.NewExportService(nil, nil, storage, cfg.Export, cfg.S3.Bucket)
	filename, data, err := exportSvc.ExportRows(rows, exportFormat)
	if err != nil {
		return err
	}

	dst := *out
	if dst == "" {
		dst = filename
	}
	if err := os.WriteFile(dst, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", dst, err)
	}
	log.Printf("wrote %d rows to %s", len(rows), dst)

	if *publish {
		location, err := exportSvc.Publish(ctx, filename, data, exportFormat)
		if err != nil {
			return err
		}
		log.Printf("published export to %s", location)
	}
	return nil
}

// processWithStore records the run in the sqlite database like the server
// does, so CLI batches show up next to API batches.
func processWithStore(ctx context.Context, cfg *config.Config, processor *service.BatchProcessor, paths []string, opts service.BatchOptions) ([]domain.TicketRow, error) {
	db, err := sqlite.NewDB(&cfg.DB)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	defer func() { _ = db.Close() }()

	svc := service.NewRunService(sqlite.NewRunRepo(db), sqlite.NewRowRepo(db), processor)
	run, err := svc.Create(ctx, paths)
	if err != nil {
		return nil, err
	}
	return svc.Process(ctx, run, paths, opts)
}

// collectInputs resolves command line arguments to local file paths. A
// directory contributes its supported files in name order; an s3://bucket/prefix
// argument downloads every supported object under the prefix into a temp dir.
func collectInputs(ctx context.Context, cfg *config.Config, args []string) ([]string, func(), error) {
	var paths []string
	var tempDir string
	cleanup := func() {
		if tempDir != "" {
			_ = os.RemoveAll(tempDir)
		}
	}

	for _, arg := range args {
		if strings.HasPrefix(arg, "s3://") {
			remote, err := downloadPrefix(ctx, cfg, arg, &tempDir)
			if err != nil {
				return nil, cleanup, err
			}
			paths = append(paths, remote...)
			continue
		}

		info, err := os.Stat(arg)
		if err != nil {
			return nil, cleanup, fmt.Errorf("reading %s: %w", arg, err)
		}
		if !info.IsDir() {
			paths = append(paths, arg)
			continue
		}

		entries, err := os.ReadDir(arg)
		if err != nil {
			return nil, cleanup, fmt.Errorf("reading %s: %w", arg, err)
		}
		var names []string
		for _, e := range entries {
			if e.IsDir() {
				continue
			}
			ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(e.Name()), "."))
			if _, ok := domain.AllowedExtensions[ext]; ok {
				names = append(names, e.Name())
			}
		}
		sort.Strings(names)
		for _, name := range names {
			paths = append(paths, filepath.Join(arg, name))
		}
	}

	return paths, cleanup, nil
}

func downloadPrefix(ctx context.Context, cfg *config.Config, arg string, tempDir *string) ([]string, error) {
	rest := strings.TrimPrefix(arg, "s3://")
	bucket, prefix, _ := strings.Cut(rest, "/")
	if bucket == "" {
		return nil, fmt.Errorf("invalid s3 url: %s", arg)
	}

	storage, err := s3storage.NewS3Client(&cfg.S3)
	if err != nil {
		return nil, fmt.Errorf("initializing S3 client: %w", err)
	}

	keys, err := storage.List(ctx, bucket, prefix)
	if err != nil {
		return nil, err
	}

	if *tempDir == "" {
		dir, err := os.MkdirTemp("", "ticketscan-s3-*")
		if err != nil {
			return nil, err
		}
		*tempDir = dir
	}

	var paths []string
	for _, key := range keys {
		ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(key), "."))
		if _, ok := domain.AllowedExtensions[ext]; !ok {
			continue
		}
		data, err := storage.Download(ctx, bucket, key)
		if err != nil {
			return nil, fmt.Errorf("downloading s3://%s/%s: %w", bucket, key, err)
		}
		dst := filepath.Join(*tempDir, filepath.Base(key))
		if err := os.WriteFile(dst, data, 0o644); err != nil {
			return nil, err
		}
		paths = append(paths, dst)
	}
	return paths, nil
}

func newRecognizer(cfg *config.OCRConfig) (port.TextRecognizer, error) {
	ocrCfg := ocr.Config{
		Tesseract: cfg.Tesseract,
		Pdftoppm:  cfg.Pdftoppm,
		Language:  cfg.Language,
		DPI:       cfg.DPI,
		PSM:       cfg.PSM,
		OEM:       cfg.OEM,
		MaxPages:  cfg.MaxPages,
		Timeout:   time.Duration(cfg.TimeoutSecs) * time.Second,
	}
	if cfg.Engine == "gosseract" {
		return ocr.NewGosseractRecognizer(ocrCfg)
	}
	return ocr.NewRecognizer(ocrCfg), nil
}
