//go:build gosseract

package ocr

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/otiai10/gosseract/v2"

	"ticketscan/internal/domain"
	"ticketscan/internal/port"
)

// GosseractRecognizer runs tesseract in-process through the gosseract cgo
// binding instead of spawning the binary. PDFs still go through pdftoppm.
// Build with -tags gosseract.
type GosseractRecognizer struct {
	cfg    Config
	runner Runner
}

var _ port.TextRecognizer = (*GosseractRecognizer)(nil)

// NewGosseractRecognizer creates the in-process recognizer.
func NewGosseractRecognizer(cfg Config) (*GosseractRecognizer, error) {
	base := NewRecognizer(cfg)
	return &GosseractRecognizer{cfg: base.cfg, runner: base.runner}, nil
}

func (g *GosseractRecognizer) Recognize(ctx context.Context, path string) (*port.RecognizeOutput, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	fileType, ok := domain.AllowedExtensions[ext]
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnsupportedFileType, ext)
	}

	if fileType != domain.FileTypePDF {
		text, err := g.imageText(path)
		if err != nil {
			return nil, err
		}
		return &port.RecognizeOutput{Pages: []port.PageText{{Page: 1, Text: text}}}, nil
	}

	tmpDir, err := os.MkdirTemp("", "ticketscan-pages-*")
	if err != nil {
		return nil, fmt.Errorf("creating temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	raster := &Recognizer{cfg: g.cfg, runner: g.runner}
	pages, err := raster.rasterize(ctx, path, tmpDir)
	if err != nil {
		return nil, err
	}

	out := &port.RecognizeOutput{}
	for i, img := range pages {
		text, ocrErr := g.imageText(img)
		if ocrErr != nil {
			out.Warnings = append(out.Warnings, ocrErr.Error())
			continue
		}
		out.Pages = append(out.Pages, port.PageText{Page: i + 1, Text: text})
	}
	return out, nil
}

func (g *GosseractRecognizer) imageText(path string) (string, error) {
	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage(g.cfg.Language); err != nil {
		return "", fmt.Errorf("gosseract language %q: %w", g.cfg.Language, err)
	}
	if g.cfg.PSM > 0 {
		if err := client.SetPageSegMode(gosseract.PageSegMode(g.cfg.PSM)); err != nil {
			return "", fmt.Errorf("gosseract psm %d: %w", g.cfg.PSM, err)
		}
	}
	if err := client.SetImage(path); err != nil {
		return "", fmt.Errorf("gosseract image %s: %w", filepath.Base(path), err)
	}
	text, err := client.Text()
	if err != nil {
		return "", fmt.Errorf("gosseract %s: %w", filepath.Base(path), err)
	}
	return text, nil
}
