package pictogram

import (
	"context"
	"image/color"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewMatcher(t *testing.T) {
	tests := []struct {
		name      string
		strategy  string
		threshold float64
		wantName  string
		wantThr   float64
		wantErr   bool
	}{
		{name: "default strategy", strategy: "", wantName: StrategyDescriptor, wantThr: DefaultDescriptorThreshold},
		{name: "descriptor custom threshold", strategy: "descriptor", threshold: 0.35, wantName: StrategyDescriptor, wantThr: 0.35},
		{name: "pixel default threshold", strategy: "PIXEL", wantName: StrategyPixel, wantThr: DefaultPixelThreshold},
		{name: "negative threshold uses default", strategy: "pixel", threshold: -1, wantName: StrategyPixel, wantThr: DefaultPixelThreshold},
		{name: "template default threshold", strategy: "template", wantName: StrategyTemplate, wantThr: DefaultTemplateThreshold},
		{name: "unknown strategy", strategy: "sift", wantErr: true},
		{name: "threshold too high", strategy: "pixel", threshold: 1, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := NewMatcher(tt.strategy, tt.threshold)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantName, m.Strategy().Name())
			assert.Equal(t, tt.wantThr, m.Threshold())
		})
	}
}

func TestPixelStrategy_IdenticalImages(t *testing.T) {
	img := FromImage("a", blockImage(7, 64))

	m, err := NewMatcher(StrategyPixel, 0)
	require.NoError(t, err)

	sim := m.Similarity(img, FromImage("b", blockImage(7, 64)))
	assert.True(t, sim.IsMatch)
	assert.InDelta(t, 1.0, sim.Score, 1e-9)
}

func TestPixelStrategy_OppositeImagesClampToZero(t *testing.T) {
	black := FromImage("black", solidImage(color.Black, 40))
	white := FromImage("white", solidImage(color.White, 90))

	sim := PixelStrategy{}.Score(black, white)
	assert.Equal(t, 0.0, sim.Score)
}

func TestDescriptorStrategy_IdenticalImages(t *testing.T) {
	a := FromImage("a", blockImage(11, 96))
	b := FromImage("b", blockImage(11, 96))

	m, err := NewMatcher(StrategyDescriptor, 0)
	require.NoError(t, err)

	sim := m.Similarity(a, b)
	require.Positive(t, sim.TotalMatches)
	assert.True(t, sim.IsMatch)
	assert.Greater(t, sim.Score, 0.5)
	assert.LessOrEqual(t, sim.GoodMatches, sim.TotalMatches)

	other := m.Similarity(a, FromImage("c", blockImage(99, 96)))
	assert.Less(t, other.Score, sim.Score)
}

func TestDescriptorStrategy_FeaturelessReference(t *testing.T) {
	candidate := FromImage("a", blockImage(5, 96))
	flat := FromImage("flat", solidImage(color.White, 96))

	sim := DescriptorStrategy{}.Score(candidate, flat)
	assert.Equal(t, 0, sim.TotalMatches)
	assert.Equal(t, 0, sim.GoodMatches)
	assert.Equal(t, 0.0, sim.Score)
}

func TestDescriptors_AreCachedPerImage(t *testing.T) {
	img := FromImage("a", blockImage(3, 64))
	first := img.descriptors()
	second := img.descriptors()
	require.NotEmpty(t, first)
	assert.Same(t, &first[0], &second[0])
}

func TestMatcher_Matches(t *testing.T) {
	refs := []*Image{
		FromImage("flame", blockImage(21, 48)),
		FromImage("skull", blockImage(22, 48)),
	}
	candidates := []*Image{
		FromImage("page_1_image_1", blockImage(22, 48)),
		FromImage("page_1_image_2", solidImage(color.Black, 48)),
	}

	m, err := NewMatcher(StrategyPixel, 0.9)
	require.NoError(t, err)

	matches, err := m.Matches(context.Background(), candidates, refs)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "page_1_image_1", matches[0].Candidate)
	assert.Equal(t, "skull", matches[0].Reference)

	results := Index(matches)
	assert.Contains(t, results, "page_1_image_1")
	assert.NotContains(t, results, "page_1_image_2")
	assert.Equal(t, []string{"skull"}, results.References())
}

func TestMatcher_MatchesCancelled(t *testing.T) {
	m, err := NewMatcher(StrategyPixel, 0)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = m.Matches(ctx, []*Image{FromImage("a", blockImage(1, 16))}, []*Image{FromImage("b", blockImage(1, 16))})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMatcher_CompareFolders(t *testing.T) {
	refDir := t.TempDir()
	candDir := t.TempDir()

	writePNG(t, filepath.Join(refDir, "GHS02.png"), blockImage(40, 48))
	writePNG(t, filepath.Join(refDir, "GHS05.png"), blockImage(41, 48))
	writePNG(t, filepath.Join(candDir, "page_1_image_1.png"), blockImage(41, 48))
	writePNG(t, filepath.Join(candDir, "page_2_image_1.png"), solidImage(color.Black, 48))

	m, err := NewMatcher(StrategyPixel, 0.9)
	require.NoError(t, err)
	m.WithLogger(discardLogger())

	results, err := m.CompareFolders(candDir, refDir)
	require.NoError(t, err)
	require.Len(t, results, 1)
	sim, ok := results["page_1_image_1"]["GHS05"]
	require.True(t, ok)
	assert.True(t, sim.IsMatch)
}

func TestMatcher_CompareFoldersMissingReferences(t *testing.T) {
	m, err := NewMatcher("", 0)
	require.NoError(t, err)

	_, err = m.CompareFolders(t.TempDir(), filepath.Join(os.TempDir(), "does-not-exist-fds"))
	assert.Error(t, err)
}
