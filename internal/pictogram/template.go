package pictogram

import (
	"image"
	"math"

	"golang.org/x/image/draw"
)

// TemplateMaxSide bounds the longest side of a candidate before template
// matching. The reference is scaled by the same factor so relative sizes hold.
const TemplateMaxSide = 320

// flatVariance is the per-pixel variance below which a window carries no signal
const flatVariance = 1e-3

// TemplateStrategy slides the reference over the candidate and scores the best
// zero-mean normalised cross-correlation. It fits rendered pages, where a
// pictogram covers a small region of a large candidate. A reference larger
// than the candidate is scaled down to fit.
type TemplateStrategy struct{}

func (TemplateStrategy) Name() string { return StrategyTemplate }

func (TemplateStrategy) DefaultThreshold() float64 { return DefaultTemplateThreshold }

func (TemplateStrategy) Score(candidate, reference *Image) Similarity {
	cb, rb := candidate.Bounds(), reference.Bounds()
	if cb.Empty() || rb.Empty() {
		return Similarity{}
	}

	scale := 1.0
	if side := max(cb.Dx(), cb.Dy()); side > TemplateMaxSide {
		scale = float64(TemplateMaxSide) / float64(side)
	}
	pw, ph := scaled(cb.Dx(), scale), scaled(cb.Dy(), scale)
	tw, th := scaled(rb.Dx(), scale), scaled(rb.Dy(), scale)

	if tw > pw || th > ph {
		fit := math.Min(float64(pw)/float64(tw), float64(ph)/float64(th))
		tw, th = min(scaled(tw, fit), pw), min(scaled(th, fit), ph)
	}
	if tw < 2 || th < 2 {
		return Similarity{}
	}

	page := grid(candidate, pw, ph)
	tmpl := grid(reference, tw, th)
	return Similarity{Score: clamp01(bestCorrelation(page, tmpl))}
}

func scaled(n int, f float64) int {
	return max(1, int(float64(n)*f+0.5))
}

// grid returns the grayscale grid of img at w x h
func grid(img *Image, w, h int) *Gray {
	b := img.Bounds()
	if b.Dx() == w && b.Dy() == h {
		return img.Gray()
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img.Source(), b, draw.Src, nil)
	return toGray(dst)
}

// bestCorrelation returns the highest normalised correlation of tmpl over
// every position of page. Window sums come from integral images.
func bestCorrelation(page, tmpl *Gray) float64 {
	n := float64(tmpl.W * tmpl.H)

	var mean float64
	for _, v := range tmpl.Pix {
		mean += float64(v)
	}
	mean /= n

	t := make([]float64, len(tmpl.Pix))
	var tnorm float64
	for i, v := range tmpl.Pix {
		d := float64(v) - mean
		t[i] = d
		tnorm += d * d
	}
	if tnorm < flatVariance*n {
		return 0
	}

	sum, sq := integral(page)
	stride := page.W + 1
	window := func(table []float64, x, y int) float64 {
		x1, y1 := x+tmpl.W, y+tmpl.H
		return table[y1*stride+x1] - table[y*stride+x1] - table[y1*stride+x] + table[y*stride+x]
	}

	best := 0.0
	for y := 0; y+tmpl.H <= page.H; y++ {
		for x := 0; x+tmpl.W <= page.W; x++ {
			s := window(sum, x, y)
			variance := window(sq, x, y) - s*s/n
			if variance < flatVariance*n {
				continue
			}

			// t has zero mean, so the window mean drops out of the cross term
			var cross float64
			for ty := 0; ty < tmpl.H; ty++ {
				off := (y+ty)*page.W + x
				row := page.Pix[off : off+tmpl.W]
				trow := t[ty*tmpl.W : (ty+1)*tmpl.W]
				for i, v := range row {
					cross += float64(v) * trow[i]
				}
			}

			if c := cross / math.Sqrt(variance*tnorm); c > best {
				best = c
			}
		}
	}
	return best
}

// integral returns summed-area tables of g and of its squares, each
// (W+1) x (H+1) with a zero first row and column
func integral(g *Gray) (sum, sq []float64) {
	stride := g.W + 1
	sum = make([]float64, stride*(g.H+1))
	sq = make([]float64, stride*(g.H+1))

	for y := 0; y < g.H; y++ {
		var rowSum, rowSq float64
		for x := 0; x < g.W; x++ {
			v := float64(g.Pix[y*g.W+x])
			rowSum += v
			rowSq += v * v
			sum[(y+1)*stride+x+1] = sum[y*stride+x+1] + rowSum
			sq[(y+1)*stride+x+1] = sq[y*stride+x+1] + rowSq
		}
	}
	return sum, sq
}
