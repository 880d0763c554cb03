package imgproc

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	_ "image/png"
	"log/slog"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"

	"github.com/m3rciful/imgbot/core/logger"
	"github.com/m3rciful/imgbot/imgbot/dispatch"
)

const (
	segmentThreshold = 100
	noiseLow         = 0.2
	noiseHigh        = 0.8
	jpegQuality      = 90
)

// Loader opens images for transformation.
type Loader struct {
	// OutDir receives saved results. Empty keeps results next to their source.
	OutDir string
	// Rand returns values in [0,1) for the salt and pepper transform.
	Rand func() float64
}

// NewLoader returns a Loader writing results into outDir.
func NewLoader(outDir string) *Loader {
	return &Loader{OutDir: outDir, Rand: rand.Float64}
}

// Load decodes the image at path and converts it to grayscale.
func (l *Loader) Load(path string) (dispatch.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("imgproc: open %s: %w", path, err)
	}
	defer f.Close()

	src, format, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("imgproc: decode %s: %w", path, err)
	}
	b := src.Bounds()
	gray := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(gray, gray.Bounds(), src, b.Min, draw.Src)

	logger.Debug(context.Background(), "imgproc", "image.load",
		slog.String("path", path),
		slog.String("format", format),
		slog.Int("width", b.Dx()),
		slog.Int("height", b.Dy()),
	)

	rnd := l.Rand
	if rnd == nil {
		rnd = rand.Float64
	}
	dir := l.OutDir
	if dir == "" {
		dir = filepath.Dir(path)
	}
	return &Img{path: path, outDir: dir, pix: gray, rand: rnd}, nil
}

// Img is a grayscale image transformed in place.
type Img struct {
	path   string
	outDir string
	pix    *image.Gray
	rand   func() float64
}

// Bounds returns the current image bounds.
func (i *Img) Bounds() image.Rectangle { return i.pix.Bounds() }

// Gray exposes the pixel buffer.
func (i *Img) Gray() *image.Gray { return i.pix }

// Segment turns every pixel above the threshold white and the rest black.
func (i *Img) Segment() error {
	for n, v := range i.pix.Pix {
		if v > segmentThreshold {
			i.pix.Pix[n] = 255
		} else {
			i.pix.Pix[n] = 0
		}
	}
	return nil
}

// SaltAndPepper sets a random fifth of the pixels to white and another fifth to black.
func (i *Img) SaltAndPepper() error {
	for n := range i.pix.Pix {
		switch r := i.rand(); {
		case r < noiseLow:
			i.pix.Pix[n] = 255
		case r > noiseHigh:
			i.pix.Pix[n] = 0
		}
	}
	return nil
}

// Rotate turns the image 90 degrees clockwise.
func (i *Img) Rotate() error {
	b := i.pix.Bounds()
	w, h := b.Dx(), b.Dy()
	out := image.NewGray(image.Rect(0, 0, h, w))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			out.SetGray(h-1-y, x, i.pix.GrayAt(b.Min.X+x, b.Min.Y+y))
		}
	}
	i.pix = out
	return nil
}

// Contour replaces each pixel with its absolute difference to the left neighbour.
// The first column becomes black.
func (i *Img) Contour() error {
	b := i.pix.Bounds()
	out := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		for x := 1; x < b.Dx(); x++ {
			prev := int(i.pix.GrayAt(b.Min.X+x-1, b.Min.Y+y).Y)
			cur := int(i.pix.GrayAt(b.Min.X+x, b.Min.Y+y).Y)
			d := prev - cur
			if d < 0 {
				d = -d
			}
			out.SetGray(x, y, color.Gray{Y: uint8(d)})
		}
	}
	i.pix = out
	return nil
}

// Concat appends other to the right. Both images must have the same height.
func (i *Img) Concat(other dispatch.Image) error {
	o, ok := other.(*Img)
	if !ok {
		return errors.New("imgproc: concat needs an image opened by imgproc")
	}
	lb, rb := i.pix.Bounds(), o.pix.Bounds()
	if lb.Dy() != rb.Dy() {
		return &DimensionError{Left: lb.Size(), Right: rb.Size()}
	}
	out := image.NewGray(image.Rect(0, 0, lb.Dx()+rb.Dx(), lb.Dy()))
	draw.Draw(out, image.Rect(0, 0, lb.Dx(), lb.Dy()), i.pix, lb.Min, draw.Src)
	draw.Draw(out, image.Rect(lb.Dx(), 0, out.Bounds().Dx(), lb.Dy()), o.pix, rb.Min, draw.Src)
	i.pix = out
	return nil
}

// Save writes the image as JPEG under a new unique name and returns its path.
func (i *Img) Save() (string, error) {
	if err := os.MkdirAll(i.outDir, 0o755); err != nil {
		return "", fmt.Errorf("imgproc: create %s: %w", i.outDir, err)
	}
	stem := strings.TrimSuffix(filepath.Base(i.path), filepath.Ext(i.path))
	name := fmt.Sprintf("%s_filtered_%s.jpg", stem, uuid.NewString()[:8])
	out := filepath.Join(i.outDir, name)

	f, err := os.Create(out)
	if err != nil {
		return "", fmt.Errorf("imgproc: create %s: %w", out, err)
	}
	if err := jpeg.Encode(f, i.pix, &jpeg.Options{Quality: jpegQuality}); err != nil {
		f.Close()
		_ = os.Remove(out)
		return "", fmt.Errorf("imgproc: encode %s: %w", out, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("imgproc: close %s: %w", out, err)
	}
	return out, nil
}
