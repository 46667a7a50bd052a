package imaging

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"
)

func encodePNG(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for x := 0; x < width; x++ {
		for y := 0; y < height; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func decodeDims(t *testing.T, data []byte) (int, int, string) {
	t.Helper()
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode prepared image: %v", err)
	}
	return cfg.Width, cfg.Height, format
}

func TestTargetSize(t *testing.T) {
	tests := []struct {
		name          string
		width, height int
		wantW, wantH  int
	}{
		{"within bounds untouched", 800, 600, 800, 600},
		{"oversized landscape scaled down", 2000, 1000, 1200, 600},
		{"oversized portrait scaled down", 1000, 2000, 600, 1200},
		{"undersized square scaled up", 300, 300, 512, 512},
		{"short edge below minimum", 400, 900, 512, 1152},
		{"elongated image keeps minimum short edge", 3000, 600, 2560, 512},
		{"exactly at bounds", 1200, 512, 1200, 512},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			w, h := targetSize(tc.width, tc.height)
			if w != tc.wantW || h != tc.wantH {
				t.Fatalf("targetSize(%d, %d) = %dx%d, want %dx%d",
					tc.width, tc.height, w, h, tc.wantW, tc.wantH)
			}
		})
	}
}

func TestPrepareJPEGScalesAndReencodes(t *testing.T) {
	out, err := PrepareJPEG(encodePNG(t, 2000, 1000))
	if err != nil {
		t.Fatalf("prepare: %v", err)
	}
	w, h, format := decodeDims(t, out)
	if format != "jpeg" {
		t.Fatalf("output format = %q, want jpeg", format)
	}
	if w != 1200 || h != 600 {
		t.Fatalf("output dims = %dx%d, want 1200x600", w, h)
	}
}

func TestPrepareJPEGUpscalesSmallInput(t *testing.T) {
	out, err := PrepareJPEG(encodePNG(t, 300, 300))
	if err != nil {
		t.Fatalf("prepare: %v", err)
	}
	w, h, _ := decodeDims(t, out)
	if w != 512 || h != 512 {
		t.Fatalf("output dims = %dx%d, want 512x512", w, h)
	}
}

func TestPrepareJPEGKeepsInBoundsDimensions(t *testing.T) {
	out, err := PrepareJPEG(encodePNG(t, 800, 600))
	if err != nil {
		t.Fatalf("prepare: %v", err)
	}
	w, h, format := decodeDims(t, out)
	if w != 800 || h != 600 {
		t.Fatalf("output dims = %dx%d, want 800x600", w, h)
	}
	if format != "jpeg" {
		t.Fatalf("output format = %q, want jpeg even when no rescale happens", format)
	}
}

func TestPrepareJPEGRejectsGarbage(t *testing.T) {
	for _, raw := range [][]byte{nil, {}, []byte("definitely not an image")} {
		if _, err := PrepareJPEG(raw); !errors.Is(err, ErrUnsupportedImage) {
			t.Fatalf("PrepareJPEG(%q) error = %v, want ErrUnsupportedImage", raw, err)
		}
	}
}
