package extract

import (
	"fmt"
	"image"
	"image/color"
	"io"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/carozum/bot-support-client/internal/domain"
)

// PageImage is an embedded image together with its placement on the page, in
// reading-order coordinates (y grows downwards).
type PageImage struct {
	Data  []byte // PNG bytes
	X     float64
	Y     float64
	Width float64
}

// Page holds the positioned content of one PDF page before linearization.
type Page struct {
	Texts  []domain.PositionedElement
	Images []PageImage
}

// DocumentSource yields the positioned content of a PDF page by page. The
// extractor consumes this interface so tests can feed synthetic pages.
type DocumentSource interface {
	NumPages() int
	Page(n int) (Page, error)
	Close() error
}

// pdfSource reads pages through github.com/ledongthuc/pdf.
type pdfSource struct {
	f *os.File
	r *pdf.Reader
}

// OpenPDF opens a PDF file as a DocumentSource.
func OpenPDF(path string) (DocumentSource, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUnreadablePDF, err)
	}
	return &pdfSource{f: f, r: r}, nil
}

func (s *pdfSource) NumPages() int { return s.r.NumPage() }

func (s *pdfSource) Close() error { return s.f.Close() }

// Page reads page n (1-based). The underlying reader panics on malformed
// structures, so the whole read is panic-guarded and surfaced as an
// extraction error.
func (s *pdfSource) Page(n int) (page Page, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = domain.NewDomainErrorWithCause(domain.ErrCodeExtraction,
				fmt.Sprintf("malformed pdf page %d", n), fmt.Errorf("%v", r))
		}
	}()

	p := s.r.Page(n)
	if p.V.IsNull() {
		return Page{}, domain.NewDomainError(domain.ErrCodeExtraction, fmt.Sprintf("page %d not found", n))
	}

	height := pageHeight(p)
	page.Texts = textLines(p, height)
	page.Images = pageImages(p, height)
	return page, nil
}

func pageHeight(p pdf.Page) float64 {
	box := p.V.Key("MediaBox")
	if box.Len() < 4 {
		return 0
	}
	return box.Index(3).Float64() - box.Index(1).Float64()
}

// textLines groups the page's styled text runs into lines and converts them to
// positioned elements with y growing downwards.
func textLines(p pdf.Page, height float64) []domain.PositionedElement {
	content := p.Content()
	if len(content.Text) == 0 {
		return nil
	}

	runs := make([]pdf.Text, len(content.Text))
	copy(runs, content.Text)
	sort.SliceStable(runs, func(i, j int) bool {
		if runs[i].Y != runs[j].Y {
			return runs[i].Y > runs[j].Y // PDF y grows upwards
		}
		return runs[i].X < runs[j].X
	})

	var elements []domain.PositionedElement
	var line strings.Builder
	lineY, lineX, lineRight := 0.0, 0.0, 0.0
	flush := func() {
		text := strings.TrimSpace(line.String())
		if text != "" {
			elements = append(elements, domain.PositionedElement{
				Type:    domain.ElementText,
				Content: text,
				X:       lineX,
				Y:       height - lineY,
				Width:   lineRight - lineX,
			})
		}
		line.Reset()
	}

	for i, t := range runs {
		if i == 0 || math.Abs(t.Y-lineY) > 2 {
			if i > 0 {
				flush()
			}
			lineY, lineX, lineRight = t.Y, t.X, t.X
		}
		if t.X > lineRight+1 && line.Len() > 0 {
			line.WriteByte(' ')
		}
		line.WriteString(t.S)
		if right := t.X + t.W; right > lineRight {
			lineRight = right
		}
	}
	flush()
	return elements
}

// imagePlacement is a `/Name Do` occurrence in the content stream with the
// current transformation matrix applied at that point.
type imagePlacement struct {
	name string
	x, y float64
	w, h float64
}

// pageImages joins XObject image data with the placements found in the page's
// content stream. Images whose data cannot be decoded are skipped: captioning
// degrades, the file is not aborted.
func pageImages(p pdf.Page, height float64) []PageImage {
	placements := scanPlacements(contentStream(p))
	if len(placements) == 0 {
		return nil
	}

	xobjects := p.Resources().Key("XObject")
	var images []PageImage
	for _, pl := range placements {
		obj := xobjects.Key(pl.name)
		if obj.IsNull() || obj.Key("Subtype").Name() != "Image" {
			continue
		}
		data, err := decodeXObjectImage(obj)
		if err != nil {
			continue
		}
		images = append(images, PageImage{
			Data:  data,
			X:     pl.x,
			Y:     height - (pl.y + pl.h),
			Width: pl.w,
		})
	}
	return images
}

// contentStream concatenates the page's content stream(s).
func contentStream(p pdf.Page) []byte {
	contents := p.V.Key("Contents")
	switch contents.Kind() {
	case pdf.Stream:
		return readStream(contents)
	case pdf.Array:
		var buf []byte
		for i := 0; i < contents.Len(); i++ {
			buf = append(buf, readStream(contents.Index(i))...)
			buf = append(buf, '\n')
		}
		return buf
	default:
		return nil
	}
}

func readStream(v pdf.Value) (data []byte) {
	defer func() {
		// unsupported stream filters panic in the reader
		if recover() != nil {
			data = nil
		}
	}()
	rc := v.Reader()
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil
	}
	return data
}

// scanPlacements walks content-stream tokens tracking the operands of the last
// `cm` operator; each `/Name Do` pair is recorded with that matrix. Graphics
// state push/pop is ignored, which is adequate for the flat one-level streams
// the documentation PDFs use.
func scanPlacements(stream []byte) []imagePlacement {
	if len(stream) == 0 {
		return nil
	}

	fields := strings.Fields(string(stream))
	var placements []imagePlacement
	cur := imagePlacement{w: 1, h: 1}
	for i, tok := range fields {
		switch tok {
		case "cm":
			if i >= 6 {
				m, ok := parseMatrix(fields[i-6 : i])
				if ok {
					cur.x, cur.y, cur.w, cur.h = m[4], m[5], m[0], m[3]
				}
			}
		case "Do":
			if i >= 1 && strings.HasPrefix(fields[i-1], "/") {
				pl := cur
				pl.name = strings.TrimPrefix(fields[i-1], "/")
				placements = append(placements, pl)
			}
		}
	}
	return placements
}

func parseMatrix(fields []string) ([6]float64, bool) {
	var m [6]float64
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return m, false
		}
		m[i] = v
	}
	return m, true
}

// decodeXObjectImage converts a decoded image XObject's samples to PNG bytes.
// Only 8-bit DeviceGray and DeviceRGB raster data is handled; anything else
// (JPEG passthrough, indexed palettes) is reported as unsupported.
func decodeXObjectImage(v pdf.Value) ([]byte, error) {
	width := int(v.Key("Width").Int64())
	height := int(v.Key("Height").Int64())
	bpc := int(v.Key("BitsPerComponent").Int64())
	if width <= 0 || height <= 0 || bpc != 8 {
		return nil, fmt.Errorf("unsupported image geometry %dx%d bpc=%d", width, height, bpc)
	}

	data := readStream(v)
	if data == nil {
		return nil, fmt.Errorf("unsupported image stream filter")
	}

	var img image.Image
	switch cs := v.Key("ColorSpace").Name(); cs {
	case "DeviceGray":
		if len(data) < width*height {
			return nil, fmt.Errorf("short gray image data")
		}
		g := image.NewGray(image.Rect(0, 0, width, height))
		copy(g.Pix, data[:width*height])
		img = g
	case "DeviceRGB":
		if len(data) < width*height*3 {
			return nil, fmt.Errorf("short rgb image data")
		}
		rgba := image.NewRGBA(image.Rect(0, 0, width, height))
		for i := 0; i < width*height; i++ {
			rgba.SetRGBA(i%width, i/width, color.RGBA{
				R: data[i*3],
				G: data[i*3+1],
				B: data[i*3+2],
				A: 0xff,
			})
		}
		img = rgba
	default:
		return nil, fmt.Errorf("unsupported color space %q", cs)
	}

	return EncodePNG(img)
}
