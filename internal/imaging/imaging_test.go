package imaging

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"
)

func solidImage(w, h int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func createTestJPEG(w, h int) []byte {
	var buf bytes.Buffer
	jpeg.Encode(&buf, solidImage(w, h, color.RGBA{255, 0, 0, 255}), &jpeg.Options{Quality: 90})
	return buf.Bytes()
}

func createTestPNG(w, h int) []byte {
	var buf bytes.Buffer
	png.Encode(&buf, solidImage(w, h, color.RGBA{0, 0, 255, 255}))
	return buf.Bytes()
}

func TestPreparePNGBecomesJPEG(t *testing.T) {
	result, err := Prepare(bytes.NewReader(createTestPNG(100, 80)))
	if err != nil {
		t.Fatalf("Prepare PNG: %v", err)
	}
	if _, format, err := image.Decode(bytes.NewReader(result.Data)); err != nil || format != "jpeg" {
		t.Errorf("expected JPEG output, got format %q err %v", format, err)
	}
	if result.Width != 100 || result.Height != 80 {
		t.Errorf("expected 100x80, got %dx%d", result.Width, result.Height)
	}
}

func TestPrepareDownscalesLandscape(t *testing.T) {
	result, err := Prepare(bytes.NewReader(createTestJPEG(2048, 1024)))
	if err != nil {
		t.Fatalf("Prepare large image: %v", err)
	}
	if result.Width != MaxDimension || result.Height != MaxDimension/2 {
		t.Errorf("expected %dx%d, got %dx%d", MaxDimension, MaxDimension/2, result.Width, result.Height)
	}
}

func TestPrepareSmallImageNotUpscaled(t *testing.T) {
	result, err := Prepare(bytes.NewReader(createTestJPEG(50, 50)))
	if err != nil {
		t.Fatalf("Prepare small image: %v", err)
	}
	img, _, err := image.Decode(bytes.NewReader(result.Data))
	if err != nil {
		t.Fatalf("decoding result: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 50 || b.Dy() != 50 {
		t.Errorf("small image should not be resized: got %dx%d", b.Dx(), b.Dy())
	}
}

func TestPrepareRejectsOtherFormats(t *testing.T) {
	for _, data := range [][]byte{[]byte("not an image"), []byte("GIF89a...")} {
		if _, err := Prepare(bytes.NewReader(data)); err == nil {
			t.Errorf("expected error for %q", data)
		}
	}
}
