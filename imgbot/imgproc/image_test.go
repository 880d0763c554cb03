package imgproc

import (
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/m3rciful/imgbot/imgbot/dispatch"
)

// writePNG stores a grayscale image whose pixel (x,y) has value fn(x,y).
func writePNG(t *testing.T, dir, name string, w, h int, fn func(x, y int) uint8) string {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetGray(x, y, color.Gray{Y: fn(x, y)})
		}
	}
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("encode: %v", err)
	}
	return path
}

func load(t *testing.T, l *Loader, path string) *Img {
	t.Helper()
	img, err := l.Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	return img.(*Img)
}

func TestRotateClockwise(t *testing.T) {
	dir := t.TempDir()
	// 3x2, value encodes position: 10*y + x.
	path := writePNG(t, dir, "r.png", 3, 2, func(x, y int) uint8 { return uint8(10*y + x) })
	img := load(t, NewLoader(dir), path)

	if err := img.Rotate(); err != nil {
		t.Fatalf("rotate: %v", err)
	}
	if got := img.Bounds().Size(); got != (image.Point{X: 2, Y: 3}) {
		t.Fatalf("size = %v", got)
	}
	// Top-left after a clockwise turn is the former bottom-left.
	if got := img.Gray().GrayAt(0, 0).Y; got != 10 {
		t.Fatalf("(0,0) = %d, want 10", got)
	}
	if got := img.Gray().GrayAt(1, 2).Y; got != 2 {
		t.Fatalf("(1,2) = %d, want 2", got)
	}
}

func TestSegmentThreshold(t *testing.T) {
	dir := t.TempDir()
	path := writePNG(t, dir, "s.png", 4, 1, func(x, _ int) uint8 { return []uint8{0, 100, 101, 250}[x] })
	img := load(t, NewLoader(dir), path)

	_ = img.Segment()
	want := []uint8{0, 0, 255, 255}
	for x, w := range want {
		if got := img.Gray().GrayAt(x, 0).Y; got != w {
			t.Fatalf("pixel %d = %d, want %d", x, got, w)
		}
	}
}

func TestSaltAndPepper(t *testing.T) {
	dir := t.TempDir()
	path := writePNG(t, dir, "n.png", 3, 1, func(int, int) uint8 { return 50 })
	l := NewLoader(dir)
	seq := []float64{0.1, 0.5, 0.9}
	n := 0
	l.Rand = func() float64 { v := seq[n%len(seq)]; n++; return v }
	img := load(t, l, path)

	_ = img.SaltAndPepper()
	want := []uint8{255, 50, 0}
	for x, w := range want {
		if got := img.Gray().GrayAt(x, 0).Y; got != w {
			t.Fatalf("pixel %d = %d, want %d", x, got, w)
		}
	}
}

func TestContour(t *testing.T) {
	dir := t.TempDir()
	path := writePNG(t, dir, "c.png", 3, 1, func(x, _ int) uint8 { return []uint8{10, 50, 20}[x] })
	img := load(t, NewLoader(dir), path)

	_ = img.Contour()
	want := []uint8{0, 40, 30}
	for x, w := range want {
		if got := img.Gray().GrayAt(x, 0).Y; got != w {
			t.Fatalf("pixel %d = %d, want %d", x, got, w)
		}
	}
}

func TestConcatSideBySide(t *testing.T) {
	dir := t.TempDir()
	l := NewLoader(dir)
	left := load(t, l, writePNG(t, dir, "a.png", 2, 2, func(int, int) uint8 { return 10 }))
	right := load(t, l, writePNG(t, dir, "b.png", 3, 2, func(int, int) uint8 { return 200 }))

	if err := left.Concat(right); err != nil {
		t.Fatalf("concat: %v", err)
	}
	if got := left.Bounds().Size(); got != (image.Point{X: 5, Y: 2}) {
		t.Fatalf("size = %v", got)
	}
	if left.Gray().GrayAt(1, 1).Y != 10 || left.Gray().GrayAt(2, 0).Y != 200 {
		t.Fatal("pixels not placed side by side")
	}
}

func TestConcatDimensionMismatch(t *testing.T) {
	dir := t.TempDir()
	l := NewLoader(dir)
	left := load(t, l, writePNG(t, dir, "a.png", 2, 2, func(int, int) uint8 { return 0 }))
	right := load(t, l, writePNG(t, dir, "b.png", 2, 3, func(int, int) uint8 { return 0 }))

	err := left.Concat(right)
	if !errors.Is(err, ErrDimensionMismatch) || !errors.Is(err, dispatch.ErrInvalidImage) {
		t.Fatalf("err = %v", err)
	}
	if !strings.Contains(err.Error(), "2x2 and 2x3") {
		t.Fatalf("message = %q", err.Error())
	}
	if got := left.Bounds().Size(); got != (image.Point{X: 2, Y: 2}) {
		t.Fatalf("failed concat must not modify the image, size = %v", got)
	}
}

func TestSaveWritesJPEG(t *testing.T) {
	src := t.TempDir()
	out := filepath.Join(t.TempDir(), "results")
	img := load(t, NewLoader(out), writePNG(t, src, "photo.png", 4, 3, func(int, int) uint8 { return 128 }))

	first, err := img.Save()
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	second, err := img.Save()
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if first == second {
		t.Fatalf("saves must not overwrite each other: %s", first)
	}
	if filepath.Dir(first) != out || !strings.HasPrefix(filepath.Base(first), "photo_filtered_") {
		t.Fatalf("path = %s", first)
	}

	f, err := os.Open(first)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()
	cfg, err := jpeg.DecodeConfig(f)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if cfg.Width != 4 || cfg.Height != 3 {
		t.Fatalf("saved size = %dx%d", cfg.Width, cfg.Height)
	}
}

func TestLoadRejectsNonImage(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "x.jpg")
	if err := os.WriteFile(path, []byte("not an image"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := NewLoader(dir).Load(path); err == nil {
		t.Fatal("expected decode error")
	}
	if _, err := NewLoader(dir).Load(filepath.Join(dir, "missing.jpg")); err == nil {
		t.Fatal("expected open error")
	}
}
