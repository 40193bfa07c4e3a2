package files

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"io"
	"path/filepath"
	"strings"

	// decoders
	_ "image/gif"
	_ "image/png"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// DefaultThumbSize bounds the longest edge of a thumbnail.
const DefaultThumbSize = 256

func IsImage(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".jpg", ".jpeg", ".png", ".gif", ".webp":
		return true
	default:
		return false
	}
}

// MaxThumbSourcePixels caps the declared dimensions of an image Thumbnail
// will decode. Decoders allocate the full frame from the header alone.
const MaxThumbSourcePixels = 50_000_000

// Thumbnail renders a JPEG no larger than edge on either side for the image
// at rel. Nothing is cached on disk.
func (s *Service) Thumbnail(ctx context.Context, user, rel string, edge int) ([]byte, error) {
	if !IsImage(rel) {
		return nil, ErrNotImage
	}
	f, _, err := s.Open(ctx, user, rel)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return nil, ErrNotImage
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || int64(cfg.Width)*int64(cfg.Height) > MaxThumbSourcePixels {
		return nil, fmt.Errorf("%w: %dx%d exceeds pixel limit", ErrNotImage, cfg.Width, cfg.Height)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}

	src, _, err := image.Decode(f)
	if err != nil {
		return nil, ErrNotImage
	}
	if edge <= 0 {
		edge = DefaultThumbSize
	}

	b := src.Bounds()
	dst := image.NewRGBA(fitWithin(b.Dx(), b.Dy(), edge))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Over, nil)

	var out bytes.Buffer
	if err := jpeg.Encode(&out, dst, &jpeg.Options{Quality: 82}); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

// fitWithin scales w x h down so the longer edge is at most edge, keeping
// the aspect ratio. Images already small enough keep their size.
func fitWithin(w, h, edge int) image.Rectangle {
	long := w
	if h > long {
		long = h
	}
	if long > edge {
		w = w * edge / long
		h = h * edge / long
	}
	return image.Rect(0, 0, max(w, 1), max(h, 1))
}
