package pictogram

import (
	"fmt"
	"image"
	"math"
	"strings"

	"golang.org/x/image/draw"
)

// Strategy names accepted by NewStrategy
const (
	StrategyDescriptor = "descriptor"
	StrategyPixel      = "pixel"
	StrategyTemplate   = "template"
)

const (
	// DefaultDescriptorThreshold is the good-match ratio a descriptor score must exceed
	DefaultDescriptorThreshold = 0.2

	// DefaultPixelThreshold is the normalised distance score a pixel score must exceed
	DefaultPixelThreshold = 0.5

	// DefaultTemplateThreshold is the correlation a template score must exceed
	DefaultTemplateThreshold = 0.8

	// PixelSize is the side both images are resized to before pixel comparison
	PixelSize = 150
)

// Strategy scores a candidate image against a reference image. Scores are in
// [0, 1], higher meaning more similar.
type Strategy interface {
	Name() string
	DefaultThreshold() float64
	Score(candidate, reference *Image) Similarity
}

// NewStrategy returns the strategy registered under name. An empty name
// selects the descriptor strategy.
func NewStrategy(name string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", StrategyDescriptor:
		return DescriptorStrategy{}, nil
	case StrategyPixel:
		return PixelStrategy{}, nil
	case StrategyTemplate:
		return TemplateStrategy{}, nil
	default:
		return nil, fmt.Errorf("unknown matching strategy %q (must be one of: %s, %s, %s)",
			name, StrategyDescriptor, StrategyPixel, StrategyTemplate)
	}
}

// DescriptorStrategy matches local oriented gradient descriptors and scores
// the fraction of candidate descriptors that pass the ratio test.
type DescriptorStrategy struct{}

func (DescriptorStrategy) Name() string { return StrategyDescriptor }

func (DescriptorStrategy) DefaultThreshold() float64 { return DefaultDescriptorThreshold }

func (DescriptorStrategy) Score(candidate, reference *Image) Similarity {
	good, total := matchFeatures(candidate.descriptors(), reference.descriptors())

	sim := Similarity{GoodMatches: good, TotalMatches: total}
	if total > 0 {
		sim.Score = float64(good) / float64(total)
	}
	return sim
}

// PixelStrategy compares both images resized to PixelSize x PixelSize RGB
type PixelStrategy struct{}

func (PixelStrategy) Name() string { return StrategyPixel }

func (PixelStrategy) DefaultThreshold() float64 { return DefaultPixelThreshold }

func (PixelStrategy) Score(candidate, reference *Image) Similarity {
	a := resizeRGBA(candidate.Source(), PixelSize)
	b := resizeRGBA(reference.Source(), PixelSize)

	var sum float64
	for i := 0; i < len(a.Pix); i += 4 {
		for c := 0; c < 3; c++ {
			d := float64(a.Pix[i+c]) - float64(b.Pix[i+c])
			sum += d * d
		}
	}

	score := 1 - math.Sqrt(sum)/float64(PixelSize*PixelSize)
	return Similarity{Score: clamp01(score)}
}

// resizeRGBA scales src to size x size over a white background
func resizeRGBA(src image.Image, size int) *image.RGBA {
	bounds := image.Rect(0, 0, size, size)

	flat := image.NewRGBA(src.Bounds())
	draw.Draw(flat, flat.Bounds(), image.White, image.Point{}, draw.Src)
	draw.Draw(flat, flat.Bounds(), src, src.Bounds().Min, draw.Over)

	dst := image.NewRGBA(bounds)
	draw.BiLinear.Scale(dst, bounds, flat, flat.Bounds(), draw.Src, nil)
	return dst
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
