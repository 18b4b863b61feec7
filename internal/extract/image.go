package extract

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
)

// PrepareForOCR converts an image to greyscale, sharpens it and stretches its
// contrast. Tesseract fares noticeably better on product screenshots after
// this pass.
func PrepareForOCR(img image.Image) *image.Gray {
	gray := toGray(img)
	gray = sharpen(gray)
	return autocontrast(gray)
}

// DecodeImage decodes PNG, JPEG or GIF bytes.
func DecodeImage(data []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return img, nil
}

// EncodePNG serializes an image to PNG bytes for the OCR and vision calls.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode png: %w", err)
	}
	return buf.Bytes(), nil
}

func toGray(img image.Image) *image.Gray {
	b := img.Bounds()
	gray := image.NewGray(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			gray.Set(x, y, color.GrayModel.Convert(img.At(x, y)))
		}
	}
	return gray
}

// sharpen applies a 3x3 sharpening kernel (center 5, cross -1).
func sharpen(src *image.Gray) *image.Gray {
	b := src.Bounds()
	dst := image.NewGray(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := int(src.GrayAt(x, y).Y)
			sum := 5 * c
			sum -= int(grayAtClamped(src, x-1, y))
			sum -= int(grayAtClamped(src, x+1, y))
			sum -= int(grayAtClamped(src, x, y-1))
			sum -= int(grayAtClamped(src, x, y+1))
			dst.SetGray(x, y, color.Gray{Y: clampByte(sum)})
		}
	}
	return dst
}

// autocontrast linearly stretches pixel values so the darkest pixel maps to 0
// and the lightest to 255. A flat image is returned unchanged.
func autocontrast(src *image.Gray) *image.Gray {
	b := src.Bounds()
	lo, hi := 255, 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			v := int(src.GrayAt(x, y).Y)
			if v < lo {
				lo = v
			}
			if v > hi {
				hi = v
			}
		}
	}
	if hi <= lo {
		return src
	}

	dst := image.NewGray(b)
	scale := 255.0 / float64(hi-lo)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			v := float64(int(src.GrayAt(x, y).Y)-lo) * scale
			dst.SetGray(x, y, color.Gray{Y: clampByte(int(v + 0.5))})
		}
	}
	return dst
}

func grayAtClamped(img *image.Gray, x, y int) uint8 {
	b := img.Bounds()
	if x < b.Min.X {
		x = b.Min.X
	}
	if x >= b.Max.X {
		x = b.Max.X - 1
	}
	if y < b.Min.Y {
		y = b.Min.Y
	}
	if y >= b.Max.Y {
		y = b.Max.Y - 1
	}
	return img.GrayAt(x, y).Y
}

func clampByte(v int) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}
