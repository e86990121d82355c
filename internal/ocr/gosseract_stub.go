//go:build !gosseract

package ocr

import (
	"context"
	"errors"

	"ticketscan/internal/port"
)

// ErrGosseractNotEnabled is returned when the in-process engine is requested
// but the binary was built without the gosseract tag.
var ErrGosseractNotEnabled = errors.New("in-process OCR not enabled; rebuild with -tags gosseract")

// GosseractRecognizer is only available when built with -tags gosseract.
type GosseractRecognizer struct{}

// NewGosseractRecognizer always fails without the gosseract build tag.
func NewGosseractRecognizer(cfg Config) (*GosseractRecognizer, error) {
	return nil, ErrGosseractNotEnabled
}

func (g *GosseractRecognizer) Recognize(ctx context.Context, path string) (*port.RecognizeOutput, error) {
	return nil, ErrGosseractNotEnabled
}
