package frame

import (
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"golang.org/x/image/draw"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"mapwatch/internal/mapdetect"
	"mapwatch/internal/services"
)

// ErrImageRead marks a frame that is missing, corrupt or too small to crop.
var ErrImageRead = errors.New("frame image unreadable")

// OCR recognizes text in a greyscale image region.
type OCR interface {
	Recognize(ctx context.Context, img image.Image) ([]mapdetect.Phrase, error)
}

// Analysis is the outcome of analyzing one frame. Phrases holds the raw OCR
// output before confidence filtering.
type Analysis struct {
	mapdetect.Result
	FramePath string             `json:"frame_path,omitempty"`
	Phrases   []mapdetect.Phrase `json:"raw_phrases"`
	Width     int                `json:"width"`
	Height    int                `json:"height"`
}

// Option configures the analyzer.
type Option func(*Analyzer)

// WithRegion overrides the crop window.
func WithRegion(r Region) Option {
	return func(a *Analyzer) {
		a.region = r
	}
}

// WithUpscale enlarges the crop by an integer factor before OCR. Factors
// below 2 leave the crop untouched.
func WithUpscale(factor int) Option {
	return func(a *Analyzer) {
		a.upscale = factor
	}
}

// Analyzer crops frames and detects the map shown on them.
type Analyzer struct {
	ocr      OCR
	detector *mapdetect.Detector
	region   Region
	upscale  int
}

// NewAnalyzer wires an OCR engine to a detector.
func NewAnalyzer(ocr OCR, detector *mapdetect.Detector, opts ...Option) (*Analyzer, error) {
	if ocr == nil {
		return nil, errors.New("ocr engine required")
	}
	if detector == nil {
		detector = mapdetect.NewDetector(nil, mapdetect.DefaultThresholds())
	}
	a := &Analyzer{ocr: ocr, detector: detector, region: ObjectiveRegion, upscale: 1}
	for _, opt := range opts {
		opt(a)
	}
	if err := a.region.Validate(); err != nil {
		return nil, fmt.Errorf("crop region: %w", err)
	}
	return a, nil
}

// Analyze decodes the frame at path and detects the map. Unreadable frames
// fail with an error matching both ErrImageRead and services.ErrValidation.
func (a *Analyzer) Analyze(ctx context.Context, path string) (Analysis, error) {
	img, err := Load(path)
	if err != nil {
		return Analysis{FramePath: path}, err
	}
	analysis, err := a.AnalyzeImage(ctx, img)
	analysis.FramePath = path
	return analysis, err
}

// AnalyzeImage runs the crop, OCR and detection steps on a decoded frame.
func (a *Analyzer) AnalyzeImage(ctx context.Context, img image.Image) (Analysis, error) {
	bounds := img.Bounds()
	analysis := Analysis{Width: bounds.Dx(), Height: bounds.Dy()}

	crop, err := a.Crop(img)
	if err != nil {
		return analysis, err
	}
	phrases, err := a.ocr.Recognize(ctx, crop)
	if err != nil {
		return analysis, err
	}
	analysis.Phrases = phrases
	analysis.Result = a.detector.Detect(phrases)
	return analysis, nil
}

// Crop returns the greyscale objective region of img, upscaled if configured.
func (a *Analyzer) Crop(img image.Image) (*image.Gray, error) {
	rect := a.region.Rect(img.Bounds())
	if rect.Empty() {
		return nil, services.Wrap(services.ErrValidation, "frame", "crop",
			fmt.Sprintf("frame %dx%d too small for crop", img.Bounds().Dx(), img.Bounds().Dy()), ErrImageRead)
	}
	gray := image.NewGray(image.Rect(0, 0, rect.Dx(), rect.Dy()))
	draw.Draw(gray, gray.Bounds(), img, rect.Min, draw.Src)
	if a.upscale < 2 {
		return gray, nil
	}
	scaled := image.NewGray(image.Rect(0, 0, rect.Dx()*a.upscale, rect.Dy()*a.upscale))
	draw.CatmullRom.Scale(scaled, scaled.Bounds(), gray, gray.Bounds(), draw.Src, nil)
	return scaled, nil
}

// Load decodes an image file with any registered format.
func Load(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "frame", "open", path, fmt.Errorf("%w: %w", ErrImageRead, err))
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "frame", "decode", path, fmt.Errorf("%w: %w", ErrImageRead, err))
	}
	return img, nil
}
