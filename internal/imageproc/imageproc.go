// Package imageproc resizes and re-encodes inspection photos.
//
// Uploads are optimized down to a tenant-configured maximum width before they
// hit object storage, and a small thumbnail is generated for list views.
// Output is always JPEG regardless of the input format.
package imageproc

import (
	"bytes"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

// Processor resizes and re-encodes images.
type Processor interface {
	// Optimize downscales the image to at most maxWidth pixels wide,
	// preserving aspect ratio, and re-encodes it as JPEG at the given
	// quality. Images already narrower than maxWidth are re-encoded only.
	Optimize(data []byte, maxWidth, quality int) (*Result, error)

	// Thumbnail produces a small JPEG preview at most width pixels wide.
	Thumbnail(data []byte, width, quality int) (*Result, error)
}

// Result is a processed image with its output dimensions.
type Result struct {
	Data   []byte
	Width  int
	Height int
}

type imagingProcessor struct{}

// NewProcessor creates a Processor backed by the imaging library.
func NewProcessor() Processor {
	return &imagingProcessor{}
}

func (p *imagingProcessor) Optimize(data []byte, maxWidth, quality int) (*Result, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	if img.Bounds().Dx() > maxWidth {
		img = imaging.Resize(img, maxWidth, 0, imaging.Lanczos)
	}

	return encodeJPEG(img, quality)
}

func (p *imagingProcessor) Thumbnail(data []byte, width, quality int) (*Result, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	thumb := imaging.Fit(img, width, width, imaging.Lanczos)

	return encodeJPEG(thumb, quality)
}

func encodeJPEG(img image.Image, quality int) (*Result, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}

	bounds := img.Bounds()
	return &Result{
		Data:   buf.Bytes(),
		Width:  bounds.Dx(),
		Height: bounds.Dy(),
	}, nil
}
