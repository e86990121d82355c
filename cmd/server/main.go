package main

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"ticketscan/internal/config"
	"ticketscan/internal/handler"
	"ticketscan/internal/ocr"
	"ticketscan/internal/port"
	"ticketscan/internal/repository/sqlite"
	"ticketscan/internal/router"
	"ticketscan/internal/service"
	s3storage "ticketscan/internal/storage/s3"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	db, err := sqlite.NewDB(&cfg.DB)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	// Initialize repositories
	runRepo := sqlite.NewRunRepo(db)
	rowRepo := sqlite.NewRowRepo(db)

	// Initialize recognizer
	recognizer, err := newRecognizer(&cfg.OCR)
	if err != nil {
		return fmt.Errorf("failed to initialize recognizer: %w", err)
	}

	// Initialize storage (optional; exports stay local without a bucket)
	var storage port.ObjectStorage
	if cfg.S3.Bucket != "" {
		storage, err = s3storage.NewS3Client(&cfg.S3)
		if err != nil {
			return fmt.Errorf("failed to initialize S3 client: %w", err)
		}
	}

	// Initialize services
	processor := service.NewBatchProcessor(recognizer, cfg.Queue.Concurrency)
	runSvc := service.NewRunService(runRepo, rowRepo, processor)
	exportSvc := service.NewExportService(runRepo, rowRepo, storage, cfg.Export, cfg.S3.Bucket)

	// Initialize handlers
	runH := handler.NewRunHandler(runSvc, exportSvc, cfg.Server.MaxUploadSizeMB)
	healthH := handler.NewHealthHandler(db)

	// Setup router
	r := router.Setup(cfg, runH, healthH)

	srv := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	log.Printf("Server starting on %s", cfg.Server.Port)
	if err := srv.ListenAndServe(); err != nil {
		return fmt.Errorf("server failed: %w", err)
	}

	return nil
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
