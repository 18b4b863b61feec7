// Package extract turns one PDF into a single linearized, reading-ordered
// text document, merging native text blocks with classified image captions.
package extract

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/carozum/bot-support-client/internal/domain"
)

// Classification thresholds over cleaned OCR text length, and the caption
// token budgets for each class.
const (
	imageOCRThreshold = 30 // above: a real screenshot, caption as image
	iconOCRThreshold  = 5  // at or below: an icon, almost no readable text

	imageCaptionBudget = 30
	iconCaptionBudget  = 15
)

// attentionOCRLiteral is what Tesseract persistently reads off the warning
// triangle icon in the source documentation.
const attentionOCRLiteral = "de,"

// OCRClient recognizes text in PNG image bytes.
type OCRClient interface {
	Recognize(ctx context.Context, pngBytes []byte) (string, error)
}

// Captioner generates and reviews alt-text captions via a vision model.
type Captioner interface {
	CaptionImage(ctx context.Context, imageBytes []byte, maxTokens int) (string, error)
	CaptionIcon(ctx context.Context, imageBytes []byte, maxTokens int) (string, error)
	ReviewCaption(ctx context.Context, caption string, maxTokens int) (string, error)
}

// SourceOpener opens a path as a DocumentSource; swapped out in tests.
type SourceOpener func(path string) (DocumentSource, error)

// Result is one extracted document: the linearized text plus the role prefix
// and title derived from the filename.
type Result struct {
	Text   string
	Prefix string
	Title  string
}

// Extractor linearizes PDFs. All collaborators are injected; it holds no
// global state.
type Extractor struct {
	ocr         OCRClient
	captioner   Captioner
	open        SourceOpener
	boilerplate []string
	logger      zerolog.Logger
}

func New(ocr OCRClient, captioner Captioner, logger zerolog.Logger) *Extractor {
	return &Extractor{
		ocr:         ocr,
		captioner:   captioner,
		open:        OpenPDF,
		boilerplate: defaultBoilerplate,
		logger:      logger,
	}
}

// WithOpener replaces the PDF opener, for tests.
func (e *Extractor) WithOpener(open SourceOpener) *Extractor {
	e.open = open
	return e
}

// ExtractDocument reads the PDF at path and returns its linearized text with
// the (prefix, title) pair derived from the filename. OCR or captioning
// failures for individual images degrade to the raw OCR text; only a
// structurally unreadable PDF fails the whole document.
func (e *Extractor) ExtractDocument(ctx context.Context, path string) (*Result, error) {
	prefix, title := DeriveTitle(path)
	if prefix == PrefixUnknown {
		e.logger.Warn().Str("file", path).Str("title", title).Msg("no role prefix detected in filename")
	}

	src, err := e.open(path)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	var doc strings.Builder
	for n := 1; n <= src.NumPages(); n++ {
		page, err := src.Page(n)
		if err != nil {
			return nil, fmt.Errorf("failed to read page %d: %w", n, err)
		}

		elements := make([]domain.PositionedElement, 0, len(page.Texts)+len(page.Images))
		elements = append(elements, page.Texts...)
		for i, img := range page.Images {
			e.logger.Debug().Int("page", n).Int("image", i).Msg("image detected")
			elements = append(elements, domain.PositionedElement{
				Type:    domain.ElementImage,
				Content: e.placeholderFor(ctx, img.Data),
				X:       img.X,
				Y:       img.Y,
				Width:   img.Width,
			})
		}

		doc.WriteString(e.linearize(elements))
		doc.WriteByte('\n')
	}

	text := doc.String()
	if strings.TrimSpace(text) == "" {
		return nil, domain.ErrEmptyDocument
	}
	return &Result{Text: text, Prefix: prefix, Title: title}, nil
}

// linearize sorts a page's elements into reading order and joins their
// contents, stripping recurring header/footer boilerplate.
func (e *Extractor) linearize(elements []domain.PositionedElement) string {
	sort.SliceStable(elements, func(i, j int) bool {
		return elements[i].Before(elements[j])
	})

	var page strings.Builder
	page.WriteByte('\n')
	for _, el := range elements {
		page.WriteString(stripBoilerplate(el.Content, e.boilerplate))
		page.WriteByte('\n')
	}
	return page.String()
}

// placeholderFor classifies an embedded image by the length of its cleaned OCR
// text and produces the tagged caption used as its stand-in in the document.
func (e *Extractor) placeholderFor(ctx context.Context, imageBytes []byte) string {
	ocrText := e.recognize(ctx, imageBytes)

	switch {
	case len(ocrText) > imageOCRThreshold:
		return e.tagged(ctx, "Image", imageBytes, ocrText, imageCaptionBudget, e.captioner.CaptionImage)

	case len(ocrText) > iconOCRThreshold:
		return e.tagged(ctx, "Bouton", imageBytes, ocrText, iconCaptionBudget, e.captioner.CaptionIcon)

	default:
		if ocrText == attentionOCRLiteral {
			return "[Alt: attention]"
		}
		placeholder := e.tagged(ctx, "Icône", imageBytes, ocrText, iconCaptionBudget, e.captioner.CaptionIcon)
		if suppressDecorativeTriangle(placeholder) {
			return ""
		}
		return placeholder
	}
}

// recognize runs OCR over a preprocessed copy of the image and cleans the
// result. OCR failure yields empty text, never an aborted file.
func (e *Extractor) recognize(ctx context.Context, imageBytes []byte) string {
	img, err := DecodeImage(imageBytes)
	if err != nil {
		e.logger.Warn().Err(err).Msg("undecodable embedded image")
		return ""
	}

	pngBytes, err := EncodePNG(PrepareForOCR(img))
	if err != nil {
		e.logger.Warn().Err(err).Msg("failed to re-encode image for ocr")
		return ""
	}

	raw, err := e.ocr.Recognize(ctx, pngBytes)
	if err != nil {
		e.logger.Warn().Err(err).Msg("ocr failed for embedded image")
		return ""
	}

	cleaned := CleanOCRText(raw)
	e.logger.Debug().Str("ocr", cleaned).Msg("ocr text")
	return cleaned
}

type captionFn func(ctx context.Context, imageBytes []byte, maxTokens int) (string, error)

// tagged captions the image, runs the review pass and truncates to the last
// complete sentence or clause. Any generation failure falls back to the
// cleaned OCR text; an image with neither caption nor OCR text contributes an
// empty placeholder.
func (e *Extractor) tagged(ctx context.Context, tag string, imageBytes []byte, ocrText string, budget int, caption captionFn) string {
	text, err := caption(ctx, imageBytes, budget)
	if err == nil {
		if reviewed, reviewErr := e.captioner.ReviewCaption(ctx, text, budget); reviewErr == nil {
			text = reviewed
		} else {
			e.logger.Warn().Err(reviewErr).Msg("caption review failed, keeping unreviewed caption")
		}
		text = TruncateCaption(text)
	} else {
		e.logger.Warn().Err(err).Str("tag", tag).Msg("captioning failed, falling back to ocr text")
		text = ocrText
	}

	if text == "" {
		return ""
	}
	return fmt.Sprintf("[%s: %s]", tag, text)
}

// suppressDecorativeTriangle drops icon captions describing triangular or
// pyramidal shapes unless they name a red triangle: decorative separators OCR
// the same way as the warning icon, and only the latter matters.
func suppressDecorativeTriangle(placeholder string) bool {
	lower := strings.ToLower(placeholder)
	if strings.Contains(lower, "triangle rouge") {
		return false
	}
	return strings.Contains(lower, "triangle") ||
		strings.Contains(lower, "triangulaire") ||
		strings.Contains(lower, "pyramide")
}
