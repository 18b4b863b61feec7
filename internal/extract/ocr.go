package extract

import (
	"context"
	"fmt"
	"strings"

	"github.com/otiai10/gosseract/v2"
)

// TesseractOCR runs Tesseract over image bytes. A fresh client is created per
// call: gosseract clients hold cgo state and the pipeline is serial anyway.
type TesseractOCR struct {
	lang string
}

func NewTesseractOCR(lang string) *TesseractOCR {
	if lang == "" {
		lang = "fra"
	}
	return &TesseractOCR{lang: lang}
}

// Recognize returns the raw text Tesseract reads from the given PNG bytes,
// using single-block page segmentation as the documentation screenshots are
// uniform text regions.
func (o *TesseractOCR) Recognize(ctx context.Context, pngBytes []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage(o.lang); err != nil {
		return "", fmt.Errorf("failed to set ocr language %q: %w", o.lang, err)
	}
	if err := client.SetPageSegMode(gosseract.PSM_SINGLE_BLOCK); err != nil {
		return "", fmt.Errorf("failed to set page segmentation mode: %w", err)
	}
	if err := client.SetImageFromBytes(pngBytes); err != nil {
		return "", fmt.Errorf("failed to load image for ocr: %w", err)
	}

	text, err := client.Text()
	if err != nil {
		return "", fmt.Errorf("ocr failed: %w", err)
	}
	return strings.TrimSpace(text), nil
}
