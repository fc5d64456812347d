package imageprocessor

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // регистрация webp-декодера
)

// Processor handles avatar image processing
type Processor struct {
	maxSide int // max side length in pixels
	quality int // JPEG quality (1-100)
}

// NewProcessor creates a new image processor
func NewProcessor(maxSide, quality int) *Processor {
	if maxSide <= 0 {
		maxSide = 400
	}
	if quality <= 0 || quality > 100 {
		quality = 85
	}
	return &Processor{
		maxSide: maxSide,
		quality: quality,
	}
}

// ProcessAvatar decodes an image, downscales it to fit the
// configured bounding square and re-encodes it. Returns the
// processed bytes, the output extension and content type.
// Images already within bounds are still re-encoded, which
// strips any non-image payload from the uploaded file.
func (p *Processor) ProcessAvatar(reader io.Reader) (io.Reader, string, string, error) {
	img, format, err := image.Decode(reader)
	if err != nil {
		return nil, "", "", fmt.Errorf("failed to decode image: %w", err)
	}

	resized := p.downscale(img)

	var buf bytes.Buffer
	switch format {
	case "png":
		if err := png.Encode(&buf, resized); err != nil {
			return nil, "", "", fmt.Errorf("failed to encode PNG: %w", err)
		}
		return &buf, "png", "image/png", nil
	default:
		// jpeg и все остальное (webp декодируется, кодируем в jpeg)
		if err := jpeg.Encode(&buf, resized, &jpeg.Options{Quality: p.quality}); err != nil {
			return nil, "", "", fmt.Errorf("failed to encode JPEG: %w", err)
		}
		return &buf, "jpg", "image/jpeg", nil
	}
}

// downscale resizes an image to fit maxSide keeping aspect ratio.
// Images smaller than the bound are returned as is.
func (p *Processor) downscale(img image.Image) image.Image {
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	if width <= p.maxSide && height <= p.maxSide {
		return img
	}

	newWidth := p.maxSide
	newHeight := p.maxSide
	if width > height {
		newHeight = height * p.maxSide / width
	} else {
		newWidth = width * p.maxSide / height
	}

	dst := image.NewRGBA(image.Rect(0, 0, newWidth, newHeight))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
	return dst
}
