package port

import "context"

// PageText is the recognized text of a single page.
type PageText struct {
	Page int
	Text string
}

// RecognizeOutput contains the per-page text produced for one input file.
type RecognizeOutput struct {
	Pages    []PageText
	Warnings []string
}

// TextRecognizer abstracts the OCR engine. Implementations handle both
// direct image inputs and PDF inputs rasterized page by page.
type TextRecognizer interface {
	Recognize(ctx context.Context, path string) (*RecognizeOutput, error)
}
