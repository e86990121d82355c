// Package ocr implements port.TextRecognizer over the external tesseract and
// poppler binaries. Images are recognized directly; PDFs are rasterized one
// page at a time with pdftoppm and each page image is recognized in turn.
package ocr

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"ticketscan/internal/domain"
	"ticketscan/internal/port"
)

// Config holds recognizer settings. Tesseract and Pdftoppm are binary names
// or absolute paths, so bundled installs can point at shipped binaries.
type Config struct {
	Tesseract string
	Pdftoppm  string

	Language string        // default "eng"
	DPI      int           // rasterization DPI for PDFs, default 300
	PSM      int           // page segmentation mode; 0 = tesseract default
	OEM      int           // OCR engine mode; 0 = tesseract default
	MaxPages int           // 0 = no limit
	Timeout  time.Duration // per external invocation, default 2m
}

// Runner executes an external binary and captures its output. It exists so
// tests can run without tesseract or poppler installed.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (stdout, stderr []byte, err error)
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var out, errb bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errb
	err := cmd.Run()
	return out.Bytes(), errb.Bytes(), err
}

// Recognizer is the exec-backed TextRecognizer.
type Recognizer struct {
	cfg    Config
	runner Runner
}

var _ port.TextRecognizer = (*Recognizer)(nil)

// NewRecognizer creates a Recognizer, applying defaults for unset fields.
func NewRecognizer(cfg Config) *Recognizer {
	if cfg.Tesseract == "" {
		cfg.Tesseract = "tesseract"
	}
	if cfg.Pdftoppm == "" {
		cfg.Pdftoppm = "pdftoppm"
	}
	if cfg.Language == "" {
		cfg.Language = "eng"
	}
	if cfg.DPI <= 0 {
		cfg.DPI = 300
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 2 * time.Minute
	}
	return &Recognizer{cfg: cfg, runner: execRunner{}}
}

// NewRecognizerWithRunner is NewRecognizer with an injected Runner.
func NewRecognizerWithRunner(cfg Config, runner Runner) *Recognizer {
	r := NewRecognizer(cfg)
	r.runner = runner
	return r
}

// Recognize picks a strategy based on file extension.
func (r *Recognizer) Recognize(ctx context.Context, path string) (*port.RecognizeOutput, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	fileType, ok := domain.AllowedExtensions[ext]
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnsupportedFileType, ext)
	}

	if fileType == domain.FileTypePDF {
		return r.recognizePDF(ctx, path)
	}
	return r.recognizeImage(ctx, path)
}

func (r *Recognizer) recognizeImage(ctx context.Context, path string) (*port.RecognizeOutput, error) {
	text, err := r.tesseract(ctx, path)
	if err != nil {
		return nil, err
	}
	return &port.RecognizeOutput{
		Pages: []port.PageText{{Page: 1, Text: text}},
	}, nil
}

func (r *Recognizer) tesseract(ctx context.Context, imagePath string) (string, error) {
	args := []string{imagePath, "stdout", "-l", r.cfg.Language}
	if r.cfg.PSM > 0 {
		args = append(args, "--psm", fmt.Sprintf("%d", r.cfg.PSM))
	}
	if r.cfg.OEM > 0 {
		args = append(args, "--oem", fmt.Sprintf("%d", r.cfg.OEM))
	}

	ctx, cancel := context.WithTimeout(ctx, r.cfg.Timeout)
	defer cancel()

	out, errb, err := r.runner.Run(ctx, r.cfg.Tesseract, args...)
	if err != nil {
		return "", fmt.Errorf("tesseract %s: %w (%s)", filepath.Base(imagePath), err, strings.TrimSpace(string(errb)))
	}
	return string(out), nil
}
