package ocr

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"ticketscan/internal/port"
)

func (r *Recognizer) recognizePDF(ctx context.Context, path string) (*port.RecognizeOutput, error) {
	tmpDir, err := os.MkdirTemp("", "ticketscan-pages-*")
	if err != nil {
		return nil, fmt.Errorf("creating temp dir: %w", err)
	}
	defer func() {
		if rmErr := os.RemoveAll(tmpDir); rmErr != nil {
			// recognition already succeeded or failed on its own terms
			fmt.Fprintf(os.Stderr, "warning: failed to remove temp dir %q: %v\n", tmpDir, rmErr)
		}
	}()

	pages, err := r.rasterize(ctx, path, tmpDir)
	if err != nil {
		return nil, err
	}

	out := &port.RecognizeOutput{}
	for i, img := range pages {
		text, ocrErr := r.tesseract(ctx, img)
		if ocrErr != nil {
			// keep going; the page contributes a warning instead of text
			out.Warnings = append(out.Warnings, ocrErr.Error())
			continue
		}
		out.Pages = append(out.Pages, port.PageText{Page: i + 1, Text: text})
	}
	return out, nil
}

// rasterize runs pdftoppm and returns the rendered page images in page order.
func (r *Recognizer) rasterize(ctx context.Context, pdfPath, tmpDir string) ([]string, error) {
	prefix := filepath.Join(tmpDir, "page")

	ctx, cancel := context.WithTimeout(ctx, r.cfg.Timeout)
	defer cancel()

	// pdftoppm -r <DPI> -png <in.pdf> <tmp/page>
	_, errb, err := r.runner.Run(ctx, r.cfg.Pdftoppm, "-r", fmt.Sprintf("%d", r.cfg.DPI), "-png", pdfPath, prefix)
	if err != nil {
		return nil, fmt.Errorf("pdftoppm %s: %w (%s)", filepath.Base(pdfPath), err, strings.TrimSpace(string(errb)))
	}

	// pdftoppm zero-pads page numbers to a fixed width, so a lexical sort is
	// page order (page-01.png ... page-12.png).
	matches, _ := filepath.Glob(prefix + "-*.png")
	sort.Strings(matches)
	if len(matches) == 0 {
		return nil, fmt.Errorf("pdftoppm rendered no pages for %s", filepath.Base(pdfPath))
	}
	if r.cfg.MaxPages > 0 && len(matches) > r.cfg.MaxPages {
		matches = matches[:r.cfg.MaxPages]
	}
	return matches, nil
}
