package loaders

import (
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"
)

// TestSavePNG writes a test image and verifies it decodes back unchanged
func TestSavePNG(t *testing.T) {
	tmpDir := t.TempDir()
	testFile := filepath.Join(tmpDir, "nested", "preview.png")

	// Create a simple 2x2 test image
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.RGBA{R: 255, G: 255, B: 255, A: 255})
	img.Set(1, 0, color.RGBA{R: 255, G: 0, B: 0, A: 255})
	img.Set(0, 1, color.RGBA{R: 0, G: 255, B: 0, A: 255})
	img.Set(1, 1, color.RGBA{R: 0, G: 0, B: 255, A: 255})

	if err := SavePNG(testFile, img); err != nil {
		t.Fatalf("SavePNG failed: %v", err)
	}

	loaded, err := LoadImage(testFile)
	if err != nil {
		t.Fatalf("LoadImage failed: %v", err)
	}

	if loaded.Bounds().Dx() != 2 || loaded.Bounds().Dy() != 2 {
		t.Fatalf("Expected 2x2 image, got %v", loaded.Bounds())
	}

	tests := []struct {
		x, y int
		want color.RGBA
	}{
		{0, 0, color.RGBA{R: 255, G: 255, B: 255, A: 255}},
		{1, 0, color.RGBA{R: 255, A: 255}},
		{0, 1, color.RGBA{G: 255, A: 255}},
		{1, 1, color.RGBA{B: 255, A: 255}},
	}
	for _, tt := range tests {
		got := color.RGBAModel.Convert(loaded.At(tt.x, tt.y)).(color.RGBA)
		if got != tt.want {
			t.Errorf("pixel (%d,%d): expected %v, got %v", tt.x, tt.y, tt.want, got)
		}
	}
}

// TestLoadImage_Invalid verifies error handling for non-image content
func TestLoadImage_Invalid(t *testing.T) {
	tmpDir := t.TempDir()
	bad := filepath.Join(tmpDir, "bad.png")
	if err := os.WriteFile(bad, []byte("not an image"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadImage(bad); err == nil {
		t.Error("Expected error decoding invalid image")
	}
	if _, err := LoadImage(filepath.Join(tmpDir, "missing.png")); err == nil {
		t.Error("Expected error for missing file")
	}
}
