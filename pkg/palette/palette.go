// Package palette quantizes imagery into a bounded colour palette and
// classifies pixels against it.
package palette

import (
	"fmt"
	"image"
	"image/color"
	"strings"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/Faultbox/terragen/pkg/errs"
)

// MaxColors is the largest palette a uint8 layer map can index.
const MaxColors = 256

// Palette errors.
var (
	ErrNilImage        = fmt.Errorf("%w: image is nil", errs.ErrInvalidArgument)
	ErrInvalidK        = fmt.Errorf("%w: palette size must be in [1, %d]", errs.ErrInvalidArgument, MaxColors)
	ErrEmptyPalette    = fmt.Errorf("%w: palette is empty", errs.ErrInvalidArgument)
	ErrPaletteTooLarge = fmt.Errorf("%w: palette exceeds %d colors", errs.ErrInvalidArgument, MaxColors)
	ErrUnknownStrategy = fmt.Errorf("%w: unknown palette strategy", errs.ErrInvalidArgument)
	ErrInvalidOptions  = fmt.Errorf("%w: invalid palette options", errs.ErrInvalidArgument)
)

// Palette is an ordered set of opaque colours. The position of a colour is
// its material index, so the same Palette value must be used for
// classification and material naming.
type Palette []color.RGBA

// MaterialName returns the material identifier for palette position i.
func MaterialName(i int) string {
	return fmt.Sprintf("generated_%d", i)
}

// Names returns one material name per palette entry.
func (p Palette) Names() []string {
	names := make([]string, len(p))
	for i := range p {
		names[i] = MaterialName(i)
	}
	return names
}

// Hex returns the "#rrggbb" form of entry i.
func (p Palette) Hex(i int) string {
	c, _ := colorful.MakeColor(p[i])
	return c.Hex()
}

// String lists the palette as hex colours.
func (p Palette) String() string {
	parts := make([]string, len(p))
	for i := range p {
		parts[i] = p.Hex(i)
	}
	return "[" + strings.Join(parts, " ") + "]"
}

// Luminance returns the relative luminance of entry i in [0, 1].
func (p Palette) Luminance(i int) float64 {
	c, _ := colorful.MakeColor(p[i])
	r, g, b := c.LinearRgb()
	return 0.2126*r + 0.7152*g + 0.0722*b
}

// Strategy selects how a palette is extracted.
type Strategy int

// Extraction strategies.
const (
	// StrategyFrequency ranks exact colours by pixel count. Fast and
	// deterministic, but biased toward large uniform regions.
	StrategyFrequency Strategy = iota
	// StrategyKMeans clusters pixels with a fixed iteration count and a
	// seeded random initialisation.
	StrategyKMeans
	// StrategyDominant uses weighted dominant colours.
	StrategyDominant
	// StrategyAdaptive clusters pixels until the assignment converges.
	StrategyAdaptive
)

// String returns the configuration name of the strategy.
func (s Strategy) String() string {
	switch s {
	case StrategyFrequency:
		return "frequency"
	case StrategyKMeans:
		return "kmeans"
	case StrategyDominant:
		return "dominant"
	case StrategyAdaptive:
		return "adaptive"
	default:
		return fmt.Sprintf("Unknown(%d)", int(s))
	}
}

// ParseStrategy converts a configuration name to a Strategy.
func ParseStrategy(name string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "frequency", "freq":
		return StrategyFrequency, nil
	case "kmeans", "k-means", "clustering":
		return StrategyKMeans, nil
	case "dominant", "dominantcolor":
		return StrategyDominant, nil
	case "adaptive":
		return StrategyAdaptive, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownStrategy, name)
	}
}

// Options controls palette extraction.
type Options struct {
	// K is the maximum number of colours returned.
	K        int
	Strategy Strategy
	// MaxIterations is the exact number of k-means rounds.
	MaxIterations int
	// Seed drives k-means centroid initialisation.
	Seed int64
	// Pixels with alpha <= AlphaThreshold are ignored.
	AlphaThreshold uint8
	// MaxSamples caps the pixels fed to the clustering strategies; 0 uses all.
	MaxSamples int
	// Delta is the convergence threshold of the adaptive strategy, in (0, 1).
	Delta float64
}

// DefaultOptions returns frequency extraction of 16 colours.
func DefaultOptions() Options {
	return Options{
		K:              16,
		Strategy:       StrategyFrequency,
		MaxIterations:  100,
		Seed:           1,
		AlphaThreshold: 127,
		Delta:          0.01,
	}
}

// Validate checks the options for the selected strategy.
func (o Options) Validate() error {
	if o.K <= 0 || o.K > MaxColors {
		return fmt.Errorf("%w: got %d", ErrInvalidK, o.K)
	}
	if o.MaxSamples < 0 {
		return fmt.Errorf("%w: max samples %d", ErrInvalidOptions, o.MaxSamples)
	}
	switch o.Strategy {
	case StrategyFrequency, StrategyDominant:
	case StrategyKMeans:
		if o.MaxIterations <= 0 {
			return fmt.Errorf("%w: max iterations %d", ErrInvalidOptions, o.MaxIterations)
		}
	case StrategyAdaptive:
		if o.Delta <= 0 || o.Delta >= 1 {
			return fmt.Errorf("%w: delta %g", ErrInvalidOptions, o.Delta)
		}
	default:
		return fmt.Errorf("%w: %s", ErrUnknownStrategy, o.Strategy)
	}
	return nil
}

// visiblePixels calls fn with the straight RGB of every pixel whose alpha is
// above threshold, in row-major order. stride > 1 visits every stride-th
// visible pixel.
func visiblePixels(img image.Image, threshold uint8, stride int, fn func(c color.RGBA)) {
	if stride < 1 {
		stride = 1
	}
	b := img.Bounds()
	n := 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			if c.A <= threshold {
				continue
			}
			if n%stride == 0 {
				fn(color.RGBA{R: c.R, G: c.G, B: c.B, A: 0xff})
			}
			n++
		}
	}
}

// sampleStride returns the stride that keeps roughly maxSamples of the
// image's pixels.
func sampleStride(img image.Image, maxSamples int) int {
	if maxSamples <= 0 {
		return 1
	}
	b := img.Bounds()
	total := b.Dx() * b.Dy()
	if total <= maxSamples {
		return 1
	}
	return (total + maxSamples - 1) / maxSamples
}

func straightRGB(c color.Color) color.RGBA {
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	return color.RGBA{R: n.R, G: n.G, B: n.B, A: 0xff}
}
