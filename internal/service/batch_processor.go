package service

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"sync"

	"ticketscan/internal/domain"
	"ticketscan/internal/extract"
	"ticketscan/internal/port"
)

// ProgressFunc receives the number of completed files out of the total,
// once per completed file.
type ProgressFunc func(done, total int)

// StatusFunc receives human-readable per-file status messages.
type StatusFunc func(msg string)

// BatchOptions carries the optional callbacks for a batch.
type BatchOptions struct {
	OnProgress ProgressFunc
	OnStatus   StatusFunc
}

// FileResult is the outcome of processing one input file. Warnings hold
// per-page OCR failures inside a file that otherwise processed.
type FileResult struct {
	Path     string
	Pages    int
	Rows     []domain.TicketRow
	Warnings []string
	Err      error
}

// BatchProcessor OCRs a list of files and extracts ticket fields from every
// recognized page. Files are processed by a bounded pool of workers; results
// are assembled in input order and a failure in one file never aborts the
// batch.
type BatchProcessor struct {
	recognizer  port.TextRecognizer
	concurrency int
}

// NewBatchProcessor creates a BatchProcessor. concurrency < 1 means 1.
func NewBatchProcessor(recognizer port.TextRecognizer, concurrency int) *BatchProcessor {
	if concurrency < 1 {
		concurrency = 1
	}
	return &BatchProcessor{recognizer: recognizer, concurrency: concurrency}
}

// Process runs the batch. The returned slice has one entry per input path,
// in input order. Canceling ctx stops dispatching new files; files already
// dispatched run to completion and the remainder are marked with ctx's error.
func (p *BatchProcessor) Process(ctx context.Context, paths []string, opts BatchOptions) ([]FileResult, error) {
	if len(paths) == 0 {
		return nil, domain.ErrNoInput
	}

	total := len(paths)
	results := make([]FileResult, total)

	sem := make(chan struct{}, p.concurrency)
	var wg sync.WaitGroup

	var mu sync.Mutex
	done := 0

	advance := func() {
		mu.Lock()
		done++
		d := done
		mu.Unlock()
		if opts.OnProgress != nil {
			opts.OnProgress(d, total)
		}
	}
	status := func(msg string) {
		if opts.OnStatus != nil {
			opts.OnStatus(msg)
		}
	}

	for i, path := range paths {
		if ctx.Err() != nil {
			results[i] = FileResult{Path: path, Err: ctx.Err()}
			advance()
			continue
		}

		sem <- struct{}{}
		wg.Add(1)
		go func(i int, path string) {
			defer wg.Done()
			defer func() { <-sem }()

			name := filepath.Base(path)
			status(fmt.Sprintf("Processing (%d/%d): %s", i+1, total, name))

			results[i] = p.processFile(ctx, path)
			if results[i].Err != nil {
				log.Printf("batchProcessor: %s: %v", name, results[i].Err)
				status(fmt.Sprintf("Error in %s: %v", name, results[i].Err))
			}
			for _, w := range results[i].Warnings {
				log.Printf("batchProcessor: %s: %s", name, w)
				status(fmt.Sprintf("Warning in %s: %s", name, w))
			}
			advance()
		}(i, path)
	}

	wg.Wait()
	return results, nil
}

func (p *BatchProcessor) processFile(ctx context.Context, path string) FileResult {
	res := FileResult{Path: path}

	out, err := p.recognizer.Recognize(ctx, path)
	if err != nil {
		res.Err = err
		return res
	}

	res.Pages = len(out.Pages)
	res.Warnings = out.Warnings
	for _, page := range out.Pages {
		row := extract.ParseFields(page.Text)
		row.SourceFile = filepath.Base(path)
		row.Page = page.Page
		res.Rows = append(res.Rows, row)
	}
	return res
}

// Flatten concatenates per-file rows, preserving input-file order and page
// order within each file.
func Flatten(results []FileResult) []domain.TicketRow {
	var rows []domain.TicketRow
	for i := range results {
		rows = append(rows, results[i].Rows...)
	}
	return rows
}
