// Package service holds content-processing services used by the ticket
// lifecycle, currently the attachment image pipeline.
package service

import (
	"fmt"
	"strings"

	"github.com/davidbyttow/govips/v2/vips"
)

// ImageOptions bounds stored image size.
type ImageOptions struct {
	MaxDimension int // longest side after resampling
	JPEGQuality  int
}

// DefaultImageOptions matches the deployed tuning: 1600px cap keeps
// screenshots readable in the ticket history without storing originals.
func DefaultImageOptions() ImageOptions {
	return ImageOptions{MaxDimension: 1600, JPEGQuality: 85}
}

// ImageService resamples and re-encodes attachment images with libvips.
type ImageService struct {
	opts ImageOptions
}

// NewImageService creates an image service.
func NewImageService(opts ImageOptions) *ImageService {
	if opts.MaxDimension <= 0 {
		opts.MaxDimension = 1600
	}
	if opts.JPEGQuality <= 0 || opts.JPEGQuality > 100 {
		opts.JPEGQuality = 85
	}
	return &ImageService{opts: opts}
}

// IsImage reports whether a MIME type goes through the resample step.
func IsImage(mimeType string) bool {
	return strings.HasPrefix(strings.ToLower(mimeType), "image/")
}

// Process resamples image bytes: the longest dimension is capped, JPEGs are
// re-encoded at the configured quality with alpha flattened to white, and
// everything else is written as lossless-optimized PNG to preserve
// transparency. newMime is empty when the bytes are returned unchanged.
//
// Processing is fail-open for storage: any decode/encode error returns the
// original bytes and no error, because losing an attachment over a broken
// image is worse than storing it untouched.
func (s *ImageService) Process(data []byte, mimeType string) (out []byte, newMime string) {
	processed, mime, err := s.resample(data, mimeType)
	if err != nil {
		return data, ""
	}
	return processed, mime
}

func (s *ImageService) resample(data []byte, mimeType string) ([]byte, string, error) {
	img, err := vips.NewImageFromBuffer(data)
	if err != nil {
		return nil, "", fmt.Errorf("decode image: %w", err)
	}
	defer img.Close()

	if longest := max(img.Width(), img.Height()); longest > s.opts.MaxDimension {
		scale := float64(s.opts.MaxDimension) / float64(longest)
		if err := img.Resize(scale, vips.KernelLanczos3); err != nil {
			return nil, "", fmt.Errorf("resize image: %w", err)
		}
	}

	if isJPEG(mimeType, img.Format()) {
		// JPEG has no alpha channel; composite any transparency onto white.
		if img.HasAlpha() {
			if err := img.Flatten(&vips.Color{R: 255, G: 255, B: 255}); err != nil {
				return nil, "", fmt.Errorf("flatten alpha: %w", err)
			}
		}
		buf, _, err := img.ExportJpeg(&vips.JpegExportParams{Quality: s.opts.JPEGQuality, OptimizeCoding: true})
		if err != nil {
			return nil, "", fmt.Errorf("encode jpeg: %w", err)
		}
		return buf, "image/jpeg", nil
	}

	buf, _, err := img.ExportPng(&vips.PngExportParams{Compression: 6})
	if err != nil {
		return nil, "", fmt.Errorf("encode png: %w", err)
	}
	return buf, "image/png", nil
}

func isJPEG(mimeType string, format vips.ImageType) bool {
	m := strings.ToLower(mimeType)
	return m == "image/jpeg" || m == "image/jpg" || format == vips.ImageTypeJPEG
}
