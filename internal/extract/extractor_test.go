package extract

import (
	"context"
	"errors"
	"image"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carozum/bot-support-client/internal/domain"
)

type fakeOCR struct {
	text string
	err  error
}

func (f *fakeOCR) Recognize(ctx context.Context, pngBytes []byte) (string, error) {
	return f.text, f.err
}

type fakeCaptioner struct {
	imageCaption string
	iconCaption  string
	captionErr   error
	reviewErr    error
}

func (f *fakeCaptioner) CaptionImage(ctx context.Context, imageBytes []byte, maxTokens int) (string, error) {
	return f.imageCaption, f.captionErr
}

func (f *fakeCaptioner) CaptionIcon(ctx context.Context, imageBytes []byte, maxTokens int) (string, error) {
	return f.iconCaption, f.captionErr
}

func (f *fakeCaptioner) ReviewCaption(ctx context.Context, caption string, maxTokens int) (string, error) {
	if f.reviewErr != nil {
		return "", f.reviewErr
	}
	return caption, nil
}

func testPNG(t *testing.T) []byte {
	t.Helper()
	data, err := EncodePNG(image.NewGray(image.Rect(0, 0, 4, 4)))
	require.NoError(t, err)
	return data
}

func newTestExtractor(ocr *fakeOCR, cap *fakeCaptioner) *Extractor {
	return New(ocr, cap, zerolog.Nop())
}

func TestPlaceholderFor_Classification(t *testing.T) {
	png := testPNG(t)

	tests := []struct {
		name     string
		ocrText  string
		caption  string
		expected string
	}{
		{
			name:     "long ocr text classifies as image",
			ocrText:  "Ecran du planning mensuel avec les compteurs",
			caption:  "Capture du planning mensuel.",
			expected: "[Image: Capture du planning mensuel.]",
		},
		{
			name:     "medium ocr text classifies as button",
			ocrText:  "Valider",
			caption:  "Bouton de validation.",
			expected: "[Bouton: Bouton de validation.]",
		},
		{
			name:     "short ocr text classifies as icon",
			ocrText:  "OK",
			caption:  "Coche verte.",
			expected: "[Icône: Coche verte.]",
		},
		{
			name:     "warning triangle ocr literal",
			ocrText:  "de,",
			caption:  "ignored",
			expected: "[Alt: attention]",
		},
		{
			name:     "decorative triangle suppressed",
			ocrText:  "",
			caption:  "Forme triangulaire grise.",
			expected: "",
		},
		{
			name:     "red triangle kept",
			ocrText:  "",
			caption:  "Triangle rouge d'alerte.",
			expected: "[Icône: Triangle rouge d'alerte.]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestExtractor(
				&fakeOCR{text: tt.ocrText},
				&fakeCaptioner{imageCaption: tt.caption, iconCaption: tt.caption},
			)
			assert.Equal(t, tt.expected, e.placeholderFor(context.Background(), png))
		})
	}
}

func TestPlaceholderFor_Boundaries(t *testing.T) {
	png := testPNG(t)
	cap := &fakeCaptioner{imageCaption: "img.", iconCaption: "icon."}

	// 31 chars crosses the image threshold, 30 does not.
	e := newTestExtractor(&fakeOCR{text: strings.Repeat("a", 31)}, cap)
	assert.True(t, strings.HasPrefix(e.placeholderFor(context.Background(), png), "[Image:"))

	e = newTestExtractor(&fakeOCR{text: strings.Repeat("a", 30)}, cap)
	assert.True(t, strings.HasPrefix(e.placeholderFor(context.Background(), png), "[Bouton:"))

	// 6 chars crosses the icon threshold, 5 does not.
	e = newTestExtractor(&fakeOCR{text: strings.Repeat("a", 6)}, cap)
	assert.True(t, strings.HasPrefix(e.placeholderFor(context.Background(), png), "[Bouton:"))

	e = newTestExtractor(&fakeOCR{text: strings.Repeat("a", 5)}, cap)
	assert.True(t, strings.HasPrefix(e.placeholderFor(context.Background(), png), "[Icône:"))
}

func TestPlaceholderFor_CaptionFailureFallsBackToOCR(t *testing.T) {
	png := testPNG(t)
	e := newTestExtractor(
		&fakeOCR{text: "Valider"},
		&fakeCaptioner{captionErr: errors.New("api down")},
	)

	assert.Equal(t, "[Bouton: Valider]", e.placeholderFor(context.Background(), png))
}

func TestPlaceholderFor_NoCaptionNoOCR(t *testing.T) {
	png := testPNG(t)
	e := newTestExtractor(
		&fakeOCR{err: errors.New("tesseract crashed")},
		&fakeCaptioner{captionErr: errors.New("api down")},
	)

	assert.Equal(t, "", e.placeholderFor(context.Background(), png))
}

func TestPlaceholderFor_ReviewFailureKeepsCaption(t *testing.T) {
	png := testPNG(t)
	e := newTestExtractor(
		&fakeOCR{text: "Valider"},
		&fakeCaptioner{iconCaption: "Bouton de validation.", reviewErr: errors.New("api down")},
	)

	assert.Equal(t, "[Bouton: Bouton de validation.]", e.placeholderFor(context.Background(), png))
}

type fakeSource struct {
	pages []Page
}

func (f *fakeSource) NumPages() int            { return len(f.pages) }
func (f *fakeSource) Page(n int) (Page, error) { return f.pages[n-1], nil }
func (f *fakeSource) Close() error             { return nil }

func TestExtractDocument_ReadingOrder(t *testing.T) {
	png := testPNG(t)

	src := &fakeSource{pages: []Page{{
		Texts: []domain.PositionedElement{
			{Type: domain.ElementText, Content: "Bas de page", X: 10, Y: 200},
			{Type: domain.ElementText, Content: "Titre", X: 5, Y: 10},
			{Type: domain.ElementText, Content: "Colonne droite", X: 300, Y: 10},
		},
		Images: []PageImage{{Data: png, X: 40, Y: 100}},
	}}}

	e := newTestExtractor(
		&fakeOCR{text: "Valider"},
		&fakeCaptioner{iconCaption: "Bouton de validation."},
	).WithOpener(func(path string) (DocumentSource, error) { return src, nil })

	result, err := e.ExtractDocument(context.Background(), "Employé Congés.pdf")
	require.NoError(t, err)

	assert.Equal(t, "Employé", result.Prefix)
	assert.Equal(t, "Congés", result.Title)

	titre := strings.Index(result.Text, "Titre")
	droite := strings.Index(result.Text, "Colonne droite")
	bouton := strings.Index(result.Text, "[Bouton:")
	bas := strings.Index(result.Text, "Bas de page")
	require.NotEqual(t, -1, titre)
	require.NotEqual(t, -1, droite)
	require.NotEqual(t, -1, bouton)
	require.NotEqual(t, -1, bas)

	// Sorted by y then x: title row first, then the image, then the footer.
	assert.Less(t, titre, droite)
	assert.Less(t, droite, bouton)
	assert.Less(t, bouton, bas)
}

func TestExtractDocument_StripsBoilerplate(t *testing.T) {
	src := &fakeSource{pages: []Page{{
		Texts: []domain.PositionedElement{
			{Type: domain.ElementText, Content: "OCTIME - Module web Employé Planning", X: 0, Y: 0},
		},
	}}}

	e := newTestExtractor(&fakeOCR{}, &fakeCaptioner{}).
		WithOpener(func(path string) (DocumentSource, error) { return src, nil })

	result, err := e.ExtractDocument(context.Background(), "Employé Planning.pdf")
	require.NoError(t, err)
	assert.Contains(t, result.Text, "Planning")
	assert.NotContains(t, result.Text, "OCTIME")
}

func TestExtractDocument_EmptyDocument(t *testing.T) {
	src := &fakeSource{pages: []Page{{}}}
	e := newTestExtractor(&fakeOCR{}, &fakeCaptioner{}).
		WithOpener(func(path string) (DocumentSource, error) { return src, nil })

	_, err := e.ExtractDocument(context.Background(), "Employé Congés.pdf")
	require.ErrorIs(t, err, domain.ErrEmptyDocument)
}

func TestExtractDocument_OpenFailure(t *testing.T) {
	e := newTestExtractor(&fakeOCR{}, &fakeCaptioner{}).
		WithOpener(func(path string) (DocumentSource, error) { return nil, errors.New("not a pdf") })

	_, err := e.ExtractDocument(context.Background(), "Employé Congés.pdf")
	assert.Error(t, err)
}
