package palette

import (
	"cmp"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"
	"math/rand"
	"slices"

	"github.com/cenkalti/dominantcolor"
	"github.com/muesli/clusters"
	"github.com/muesli/kmeans"
)

// Extract returns up to k colours of img ranked by frequency.
func Extract(img image.Image, k int) (Palette, error) {
	opts := DefaultOptions()
	opts.K = k
	return ExtractWith(img, opts)
}

// ExtractWith returns up to opts.K colours of img using opts.Strategy.
// A fully transparent image yields an empty palette.
func ExtractWith(img image.Image, opts Options) (Palette, error) {
	if img == nil {
		return nil, ErrNilImage
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	switch opts.Strategy {
	case StrategyKMeans:
		return extractKMeans(img, opts), nil
	case StrategyDominant:
		return extractDominant(img, opts), nil
	case StrategyAdaptive:
		return extractAdaptive(img, opts)
	default:
		return extractFrequency(img, opts), nil
	}
}

type colorCount struct {
	color color.RGBA
	count int
}

func extractFrequency(img image.Image, opts Options) Palette {
	index := make(map[color.RGBA]int)
	var counts []colorCount

	visiblePixels(img, opts.AlphaThreshold, 1, func(c color.RGBA) {
		if i, ok := index[c]; ok {
			counts[i].count++
			return
		}
		index[c] = len(counts)
		counts = append(counts, colorCount{color: c, count: 1})
	})

	// Stable sort keeps first-seen order between equal counts.
	slices.SortStableFunc(counts, func(a, b colorCount) int {
		return cmp.Compare(b.count, a.count)
	})

	n := min(opts.K, len(counts))
	out := make(Palette, n)
	for i := 0; i < n; i++ {
		out[i] = counts[i].color
	}
	return out
}

func observations(img image.Image, opts Options, unit float64) clusters.Observations {
	var obs clusters.Observations
	visiblePixels(img, opts.AlphaThreshold, sampleStride(img, opts.MaxSamples), func(c color.RGBA) {
		obs = append(obs, clusters.Coordinates{
			float64(c.R) / unit,
			float64(c.G) / unit,
			float64(c.B) / unit,
		})
	})
	return obs
}

// extractKMeans runs exactly opts.MaxIterations rounds of Lloyd's algorithm.
// Centroids start on k distinct pixels drawn without replacement. A centroid
// left without pixels keeps its previous position.
func extractKMeans(img image.Image, opts Options) Palette {
	obs := observations(img, opts, 1)
	if len(obs) == 0 {
		return Palette{}
	}
	k := min(opts.K, len(obs))

	rng := rand.New(rand.NewSource(opts.Seed))
	picks := rng.Perm(len(obs))[:k]

	cc := make(clusters.Clusters, k)
	for i, p := range picks {
		cc[i].Center = slices.Clone(obs[p].Coordinates())
	}

	for iter := 0; iter < opts.MaxIterations; iter++ {
		cc.Reset()
		for _, o := range obs {
			n := cc.Nearest(o)
			cc[n].Append(o)
		}
		cc.Recenter()
	}

	out := make(Palette, 0, k)
	for _, c := range cc {
		out = appendDistinct(out, centerColor(c.Center, 1))
	}
	return out
}

// extractAdaptive clusters pixels until fewer than opts.Delta of them change
// cluster, then orders the clusters by population.
func extractAdaptive(img image.Image, opts Options) (Palette, error) {
	obs := observations(img, opts, 255)
	if len(obs) == 0 {
		return Palette{}, nil
	}
	k := min(opts.K, len(obs))

	km, err := kmeans.NewWithOptions(opts.Delta, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidOptions, err)
	}
	cc, err := km.Partition(obs, k)
	if err != nil {
		return nil, fmt.Errorf("partitioning %d pixels: %w", len(obs), err)
	}

	slices.SortStableFunc(cc, func(a, b clusters.Cluster) int {
		return cmp.Compare(len(b.Observations), len(a.Observations))
	})

	out := make(Palette, 0, len(cc))
	for _, c := range cc {
		if len(c.Observations) == 0 || len(c.Center) < 3 {
			continue
		}
		out = appendDistinct(out, centerColor(c.Center, 255))
	}
	return out, nil
}

// extractDominant ranks weighted dominant colours. Pixels at or below the
// alpha threshold are made fully transparent before the search.
func extractDominant(img image.Image, opts Options) Palette {
	masked, visible := maskTransparent(img, opts.AlphaThreshold)
	if visible == 0 {
		return Palette{}
	}

	found := dominantcolor.FindWeight(masked, opts.K)
	slices.SortStableFunc(found, func(a, b dominantcolor.Color) int {
		return cmp.Compare(b.Weight, a.Weight)
	})

	out := make(Palette, 0, len(found))
	for _, c := range found {
		if len(out) == opts.K {
			break
		}
		out = appendDistinct(out, color.RGBA{R: c.RGBA.R, G: c.RGBA.G, B: c.RGBA.B, A: 0xff})
	}
	return out
}

func maskTransparent(img image.Image, threshold uint8) (*image.NRGBA, int) {
	b := img.Bounds()
	out := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(out, out.Bounds(), img, b.Min, draw.Src)

	visible := 0
	for i := 3; i < len(out.Pix); i += 4 {
		if out.Pix[i] <= threshold {
			out.Pix[i-3], out.Pix[i-2], out.Pix[i-1], out.Pix[i] = 0, 0, 0, 0
			continue
		}
		visible++
	}
	return out, visible
}

func centerColor(center clusters.Coordinates, unit float64) color.RGBA {
	ch := func(v float64) uint8 {
		return uint8(math.Round(math.Max(0, math.Min(255, v*unit))))
	}
	return color.RGBA{R: ch(center[0]), G: ch(center[1]), B: ch(center[2]), A: 0xff}
}

func appendDistinct(p Palette, c color.RGBA) Palette {
	if slices.Contains(p, c) {
		return p
	}
	return append(p, c)
}
