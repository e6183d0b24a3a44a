package frame

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"mapwatch/internal/mapdetect"
	"mapwatch/internal/services"
)

type stubOCR struct {
	phrases []mapdetect.Phrase
	err     error
	seen    image.Rectangle
	calls   int
}

func (s *stubOCR) Recognize(_ context.Context, img image.Image) ([]mapdetect.Phrase, error) {
	s.calls++
	s.seen = img.Bounds()
	return s.phrases, s.err
}

func writePNG(t *testing.T, w, h int) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 200, A: 255})
		}
	}
	path := filepath.Join(t.TempDir(), "frame.png")
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

func TestRegionRect(t *testing.T) {
	got := ObjectiveRegion.Rect(image.Rect(0, 0, 1920, 1080))
	want := image.Rect(24, 34, 600, 100)
	if got != want {
		t.Fatalf("rect = %v, want %v", got, want)
	}
}

func TestRegionValidate(t *testing.T) {
	if err := ObjectiveRegion.Validate(); err != nil {
		t.Fatalf("default region invalid: %v", err)
	}
	bad := []Region{
		{Top: 0.5, Bottom: 0.4, Left: 0, Right: 1},
		{Top: 0, Bottom: 1.2, Left: 0, Right: 1},
		{Top: 0, Bottom: 1, Left: 0.3, Right: 0.3},
	}
	for _, r := range bad {
		if err := r.Validate(); err == nil {
			t.Fatalf("expected %+v to be rejected", r)
		}
	}
}

func TestAnalyzeCropsAndDetects(t *testing.T) {
	path := writePNG(t, 1280, 720)
	ocr := &stubOCR{phrases: []mapdetect.Phrase{
		{Text: "Capture", Confidence: 91},
		{Text: "Bifrost", Confidence: 88},
		{Text: "Garden", Confidence: 95},
		{Text: "prepare", Confidence: 84},
	}}
	analyzer, err := NewAnalyzer(ocr, nil)
	if err != nil {
		t.Fatalf("NewAnalyzer: %v", err)
	}

	got, err := analyzer.Analyze(context.Background(), path)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if ocr.seen != image.Rect(0, 0, 400-16, 66-23) {
		t.Fatalf("ocr saw %v", ocr.seen)
	}
	if got.Best != "Royale Palace Bifrost Garden" {
		t.Fatalf("best = %q", got.Best)
	}
	if got.Matches[0].Score != 130 {
		t.Fatalf("score = %d, want 130", got.Matches[0].Score)
	}
	if got.FramePath != path || got.Width != 1280 || got.Height != 720 {
		t.Fatalf("unexpected frame metadata: %+v", got)
	}
	if len(got.Phrases) != 4 {
		t.Fatalf("raw phrases = %d", len(got.Phrases))
	}
}

func TestAnalyzeGatesLowConfidence(t *testing.T) {
	path := writePNG(t, 640, 360)
	ocr := &stubOCR{phrases: []mapdetect.Phrase{
		{Text: "Capture", Confidence: 70},
		{Text: "Bifrost", Confidence: 75},
		{Text: "Garden", Confidence: 95},
	}}
	analyzer, err := NewAnalyzer(ocr, nil)
	if err != nil {
		t.Fatalf("NewAnalyzer: %v", err)
	}
	got, err := analyzer.Analyze(context.Background(), path)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if !got.Gated || got.Best != mapdetect.UnknownMap {
		t.Fatalf("expected gated unknown result, got %+v", got.Result)
	}
}

func TestAnalyzeUnreadableFrame(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.png")
	if err := os.WriteFile(path, []byte("not an image"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	ocr := &stubOCR{}
	analyzer, err := NewAnalyzer(ocr, nil)
	if err != nil {
		t.Fatalf("NewAnalyzer: %v", err)
	}

	_, err = analyzer.Analyze(context.Background(), path)
	if !errors.Is(err, ErrImageRead) {
		t.Fatalf("expected ErrImageRead, got %v", err)
	}
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation marker, got %v", err)
	}
	if ocr.calls != 0 {
		t.Fatal("ocr must not run on unreadable frames")
	}

	_, err = analyzer.Analyze(context.Background(), filepath.Join(t.TempDir(), "missing.png"))
	if !errors.Is(err, ErrImageRead) {
		t.Fatalf("expected ErrImageRead for missing file, got %v", err)
	}
}

func TestAnalyzeTinyFrameIsUnreadable(t *testing.T) {
	analyzer, err := NewAnalyzer(&stubOCR{}, nil)
	if err != nil {
		t.Fatalf("NewAnalyzer: %v", err)
	}
	_, err = analyzer.AnalyzeImage(context.Background(), image.NewGray(image.Rect(0, 0, 4, 4)))
	if !errors.Is(err, ErrImageRead) {
		t.Fatalf("expected ErrImageRead, got %v", err)
	}
}

func TestAnalyzePropagatesOCRFailure(t *testing.T) {
	path := writePNG(t, 640, 360)
	boom := services.Wrap(services.ErrExternalTool, "ocr", "tesseract", "exit 1", nil)
	analyzer, err := NewAnalyzer(&stubOCR{err: boom}, nil)
	if err != nil {
		t.Fatalf("NewAnalyzer: %v", err)
	}
	_, err = analyzer.Analyze(context.Background(), path)
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool error, got %v", err)
	}
}

func TestCropUpscaleAndGreyscale(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 1000, 1000))
	for i := range src.Pix {
		src.Pix[i] = 255
	}
	analyzer, err := NewAnalyzer(&stubOCR{}, nil, WithUpscale(2))
	if err != nil {
		t.Fatalf("NewAnalyzer: %v", err)
	}
	crop, err := analyzer.Crop(src)
	if err != nil {
		t.Fatalf("Crop: %v", err)
	}
	rect := ObjectiveRegion.Rect(src.Bounds())
	if crop.Bounds().Dx() != rect.Dx()*2 || crop.Bounds().Dy() != rect.Dy()*2 {
		t.Fatalf("upscaled bounds = %v for region %v", crop.Bounds(), rect)
	}
	if v := crop.GrayAt(10, 10).Y; v < 250 {
		t.Fatalf("white input should stay white, got %d", v)
	}
}

func TestNewAnalyzerRejectsBadRegion(t *testing.T) {
	if _, err := NewAnalyzer(nil, nil); err == nil {
		t.Fatal("expected error for nil ocr")
	}
	if _, err := NewAnalyzer(&stubOCR{}, nil, WithRegion(Region{Top: 1, Bottom: 0})); err == nil {
		t.Fatal("expected error for inverted region")
	}
}
