package pictogram

import (
	"image"
	"math"
	"sort"

	"golang.org/x/image/draw"
)

const (
	// RatioTest is the nearest / second-nearest distance ratio an accepted
	// descriptor match must stay below. Fixed, not configurable.
	RatioTest = 0.7

	// Longest image side after scale normalisation
	minSide = 128
	maxSide = 1024

	pyramidLevels   = 3
	patchRadius     = 8
	sampleRadius    = 12 // patchRadius * sqrt(2), rounded up
	maxKeypoints    = 500
	harrisK         = 0.04
	harrisThreshold = 0.01
	nmsRadius       = 2

	orientationBins = 36
	descriptorCells = 4
	descriptorBins  = 8
	descriptorSize  = descriptorCells * descriptorCells * descriptorBins
	descriptorClamp = 0.2
)

type keypoint struct {
	x, y     int
	response float32
}

// feature is an oriented keypoint with its 128-d gradient histogram
type feature struct {
	level int
	x, y  int
	angle float64
	vec   [descriptorSize]float32
}

// describe computes features over a three-level pyramid of the scale
// normalised image
func describe(g *Gray) []feature {
	if g == nil || g.W < 2 || g.H < 2 {
		return nil
	}

	level := blur(normalizeScale(g), 1.2)

	var features []feature
	for l := 0; l < pyramidLevels; l++ {
		if level.W <= 2*sampleRadius || level.H <= 2*sampleRadius {
			break
		}

		gx, gy := sobel(level)
		for _, kp := range harris(gx, gy) {
			angle := dominantOrientation(gx, gy, kp)
			vec, ok := orientedHistogram(gx, gy, kp, angle)
			if !ok {
				continue
			}
			features = append(features, feature{level: l, x: kp.x, y: kp.y, angle: angle, vec: vec})
		}

		level = downsample(blur(level, 1.0))
	}

	return features
}

// matchFeatures runs the two-nearest-neighbour ratio test of every candidate
// feature against the reference set. A reference set with fewer than two
// features cannot be tested and yields no considered matches.
func matchFeatures(candidate, reference []feature) (good, total int) {
	if len(reference) < 2 {
		return 0, 0
	}

	ratio := float32(RatioTest * RatioTest)
	for i := range candidate {
		best, second := float32(math.MaxFloat32), float32(math.MaxFloat32)
		for j := range reference {
			d := distance2(&candidate[i].vec, &reference[j].vec)
			if d < best {
				second = best
				best = d
			} else if d < second {
				second = d
			}
		}

		total++
		if best < ratio*second {
			good++
		}
	}

	return good, total
}

func distance2(a, b *[descriptorSize]float32) float32 {
	var sum float32
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}

// normalizeScale resizes g so its longest side lies within [minSide, maxSide]
func normalizeScale(g *Gray) *Gray {
	longest := g.W
	if g.H > longest {
		longest = g.H
	}

	var scale float64
	switch {
	case longest < minSide:
		scale = float64(minSide) / float64(longest)
	case longest > maxSide:
		scale = float64(maxSide) / float64(longest)
	default:
		return g
	}

	w := int(math.Round(float64(g.W) * scale))
	h := int(math.Round(float64(g.H) * scale))
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}

	src := image.NewGray(image.Rect(0, 0, g.W, g.H))
	for i, v := range g.Pix {
		src.Pix[i] = uint8(v + 0.5)
	}

	dst := image.NewGray(image.Rect(0, 0, w, h))
	draw.BiLinear.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)

	out := NewGray(w, h)
	for i, v := range dst.Pix {
		out.Pix[i] = float32(v)
	}
	return out
}

// blur applies a separable Gaussian of the given sigma
func blur(g *Gray, sigma float64) *Gray {
	radius := int(math.Ceil(3 * sigma))
	kernel := make([]float32, 2*radius+1)
	var sum float32
	for i := -radius; i <= radius; i++ {
		v := float32(math.Exp(-float64(i*i) / (2 * sigma * sigma)))
		kernel[i+radius] = v
		sum += v
	}
	for i := range kernel {
		kernel[i] /= sum
	}

	tmp := NewGray(g.W, g.H)
	for y := 0; y < g.H; y++ {
		for x := 0; x < g.W; x++ {
			var acc float32
			for k := -radius; k <= radius; k++ {
				acc += kernel[k+radius] * g.At(x+k, y)
			}
			tmp.Set(x, y, acc)
		}
	}

	out := NewGray(g.W, g.H)
	for y := 0; y < g.H; y++ {
		for x := 0; x < g.W; x++ {
			var acc float32
			for k := -radius; k <= radius; k++ {
				acc += kernel[k+radius] * tmp.At(x, y+k)
			}
			out.Set(x, y, acc)
		}
	}

	return out
}

func downsample(g *Gray) *Gray {
	w, h := g.W/2, g.H/2
	if w < 1 || h < 1 {
		return NewGray(0, 0)
	}
	out := NewGray(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			out.Set(x, y, g.At(2*x, 2*y))
		}
	}
	return out
}

func sobel(g *Gray) (gx, gy *Gray) {
	gx = NewGray(g.W, g.H)
	gy = NewGray(g.W, g.H)
	for y := 0; y < g.H; y++ {
		for x := 0; x < g.W; x++ {
			dx := g.At(x+1, y-1) + 2*g.At(x+1, y) + g.At(x+1, y+1) -
				g.At(x-1, y-1) - 2*g.At(x-1, y) - g.At(x-1, y+1)
			dy := g.At(x-1, y+1) + 2*g.At(x, y+1) + g.At(x+1, y+1) -
				g.At(x-1, y-1) - 2*g.At(x, y-1) - g.At(x+1, y-1)
			gx.Set(x, y, dx/8)
			gy.Set(x, y, dy/8)
		}
	}
	return gx, gy
}

// harris returns the strongest corner responses away from the border,
// after non-maximum suppression
func harris(gx, gy *Gray) []keypoint {
	w, h := gx.W, gx.H
	ixx, iyy, ixy := NewGray(w, h), NewGray(w, h), NewGray(w, h)
	for i := range gx.Pix {
		dx, dy := gx.Pix[i], gy.Pix[i]
		ixx.Pix[i] = dx * dx
		iyy.Pix[i] = dy * dy
		ixy.Pix[i] = dx * dy
	}
	ixx, iyy, ixy = blur(ixx, 1.5), blur(iyy, 1.5), blur(ixy, 1.5)

	response := NewGray(w, h)
	var peak float32
	for i := range response.Pix {
		a, b, c := ixx.Pix[i], iyy.Pix[i], ixy.Pix[i]
		trace := a + b
		r := a*b - c*c - harrisK*trace*trace
		response.Pix[i] = r
		if r > peak {
			peak = r
		}
	}
	if peak <= 0 {
		return nil
	}

	threshold := peak * harrisThreshold
	var points []keypoint
	for y := sampleRadius; y < h-sampleRadius; y++ {
		for x := sampleRadius; x < w-sampleRadius; x++ {
			r := response.At(x, y)
			if r <= threshold || !isLocalMax(response, x, y, r) {
				continue
			}
			points = append(points, keypoint{x: x, y: y, response: r})
		}
	}

	sort.SliceStable(points, func(i, j int) bool { return points[i].response > points[j].response })
	if len(points) > maxKeypoints {
		points = points[:maxKeypoints]
	}
	return points
}

func isLocalMax(g *Gray, x, y int, v float32) bool {
	for dy := -nmsRadius; dy <= nmsRadius; dy++ {
		for dx := -nmsRadius; dx <= nmsRadius; dx++ {
			if dx == 0 && dy == 0 {
				continue
			}
			n := g.At(x+dx, y+dy)
			// ties go to the first pixel in scan order
			if n > v || (n == v && (dy < 0 || (dy == 0 && dx < 0))) {
				return false
			}
		}
	}
	return true
}

func dominantOrientation(gx, gy *Gray, kp keypoint) float64 {
	var hist [orientationBins]float64
	sigma := float64(patchRadius) / 2

	for dy := -patchRadius; dy <= patchRadius; dy++ {
		for dx := -patchRadius; dx <= patchRadius; dx++ {
			if dx*dx+dy*dy > patchRadius*patchRadius {
				continue
			}
			ax, ay := float64(gx.At(kp.x+dx, kp.y+dy)), float64(gy.At(kp.x+dx, kp.y+dy))
			mag := math.Hypot(ax, ay)
			if mag == 0 {
				continue
			}
			bin := int(normalizeAngle(math.Atan2(ay, ax))/(2*math.Pi)*orientationBins) % orientationBins
			hist[bin] += mag * math.Exp(-float64(dx*dx+dy*dy)/(2*sigma*sigma))
		}
	}

	best := 0
	for i := range hist {
		if hist[i] > hist[best] {
			best = i
		}
	}

	left := hist[(best+orientationBins-1)%orientationBins]
	right := hist[(best+1)%orientationBins]
	offset := 0.0
	if denom := left - 2*hist[best] + right; denom != 0 {
		offset = 0.5 * (left - right) / denom
	}

	return normalizeAngle((float64(best) + 0.5 + offset) * 2 * math.Pi / orientationBins)
}

// orientedHistogram samples a rotated 16x16 patch into a 4x4 grid of 8-bin
// gradient orientation histograms
func orientedHistogram(gx, gy *Gray, kp keypoint, angle float64) ([descriptorSize]float32, bool) {
	var vec [descriptorSize]float32
	cos, sin := math.Cos(angle), math.Sin(angle)
	cellSize := 2 * patchRadius / descriptorCells
	sigma := float64(patchRadius)

	for j := -patchRadius; j < patchRadius; j++ {
		for i := -patchRadius; i < patchRadius; i++ {
			u, v := float64(i)+0.5, float64(j)+0.5
			sx := int(math.Round(float64(kp.x) + cos*u - sin*v))
			sy := int(math.Round(float64(kp.y) + sin*u + cos*v))

			ax, ay := float64(gx.At(sx, sy)), float64(gy.At(sx, sy))
			mag := math.Hypot(ax, ay)
			if mag == 0 {
				continue
			}

			rel := normalizeAngle(math.Atan2(ay, ax) - angle)
			bin := int(rel/(2*math.Pi)*descriptorBins) % descriptorBins
			cell := ((j+patchRadius)/cellSize)*descriptorCells + (i+patchRadius)/cellSize
			weight := math.Exp(-(u*u + v*v) / (2 * sigma * sigma))
			vec[cell*descriptorBins+bin] += float32(mag * weight)
		}
	}

	if !normalizeVector(&vec) {
		return vec, false
	}
	for i := range vec {
		if vec[i] > descriptorClamp {
			vec[i] = descriptorClamp
		}
	}
	return vec, normalizeVector(&vec)
}

func normalizeVector(vec *[descriptorSize]float32) bool {
	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	if sum == 0 {
		return false
	}
	norm := float32(math.Sqrt(sum))
	for i := range vec {
		vec[i] /= norm
	}
	return true
}

func normalizeAngle(a float64) float64 {
	a = math.Mod(a, 2*math.Pi)
	if a < 0 {
		a += 2 * math.Pi
	}
	return a
}
