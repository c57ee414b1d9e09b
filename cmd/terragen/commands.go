package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Faultbox/terragen/internal/config"
	"github.com/Faultbox/terragen/internal/export"
	"github.com/Faultbox/terragen/internal/imagery"
	"github.com/Faultbox/terragen/pkg/formats"
	"github.com/Faultbox/terragen/pkg/heightmap"
	"github.com/Faultbox/terragen/pkg/palette"
)

var errUsage = errors.New("invalid arguments")

func cmdExport(args []string) error {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	cfg, err := loadConfig(fs, args)
	if err != nil {
		return err
	}
	if fs.NArg() != 2 {
		fmt.Fprintln(os.Stderr, "Usage: terragen export [flags] <dem> <imagery>")
		return errUsage
	}

	job, err := export.NewJob(cfg, "", fs.Arg(0), fs.Arg(1))
	if err != nil {
		return err
	}

	ctx, cancel := runContext(cfg)
	defer cancel()

	res, err := export.Run(ctx, job)
	if err != nil {
		return err
	}
	printResult(res)
	return nil
}

func cmdBatch(args []string) error {
	fs := flag.NewFlagSet("batch", flag.ExitOnError)
	cfg, err := loadConfig(fs, args)
	if err != nil {
		return err
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Usage: terragen batch [flags] <manifest.yaml>")
		return errUsage
	}

	manifest, err := config.LoadManifest(fs.Arg(0))
	if err != nil {
		return err
	}
	jobs, err := export.JobsFromManifest(cfg, manifest)
	if err != nil {
		return err
	}

	ctx, cancel := runContext(cfg)
	defer cancel()

	results, err := export.RunBatch(ctx, jobs, cfg.Export.Parallelism)
	for _, res := range results {
		if res != nil {
			printResult(res)
		}
	}
	return err
}

func printResult(res *export.Result) {
	fmt.Printf("Map:       %s\n", res.Name)
	fmt.Printf("Directory: %s\n", res.Dir)
	fmt.Printf("Elevation: %.1f .. %.1f (mean %.1f)\n", res.Elevation.Min, res.Elevation.Max, res.Elevation.Mean)
	if res.Flat {
		fmt.Println("           flat heightmap, all heights zero")
	}
	fmt.Printf("Materials: %d\n", len(res.Materials))
	for i, name := range res.Materials {
		fmt.Printf("  %-14s %s  %d cells\n", name, res.Palette.Hex(i), res.Coverage[i])
	}
	fmt.Printf("Elapsed:   %v\n\n", res.Duration.Round(time.Millisecond))
}

func cmdPalette(args []string) error {
	fs := flag.NewFlagSet("palette", flag.ExitOnError)
	output := fs.String("o", "", "Write a swatch strip PNG to this path")
	tile := fs.Int("tile", 64, "Swatch strip tile size in pixels")
	cfg, err := loadConfig(fs, args)
	if err != nil {
		return err
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Usage: terragen palette [flags] <imagery>")
		return errUsage
	}

	img, err := imagery.Load(fs.Arg(0))
	if err != nil {
		return err
	}
	opts, err := cfg.PaletteOptions()
	if err != nil {
		return err
	}

	pal, err := palette.ExtractWith(img, opts)
	if err != nil {
		return err
	}
	if len(pal) == 0 {
		fmt.Println("No opaque pixels.")
		return nil
	}

	layers, err := palette.Classify(img, pal)
	if err != nil {
		return err
	}
	counts := layers.Counts(len(pal))
	total := len(layers.Indices)

	b := img.Bounds()
	fmt.Printf("Image:    %s (%dx%d)\n", fs.Arg(0), b.Dx(), b.Dy())
	fmt.Printf("Strategy: %s\n", opts.Strategy)
	fmt.Printf("Colors:   %d\n\n", len(pal))
	for i := range pal {
		fmt.Printf("  %3d  %s  %-14s %5.1f%%  luminance %.3f\n",
			i, pal.Hex(i), palette.MaterialName(i), 100*float64(counts[i])/float64(total), pal.Luminance(i))
	}

	if *output != "" {
		if err := export.WritePaletteStrip(*output, pal, *tile); err != nil {
			return err
		}
		fmt.Printf("\nWrote %s\n", *output)
	}
	return nil
}

func cmdInfo(args []string) error {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: terragen info <file.ter>")
		return errUsage
	}

	ter, err := formats.ParseTERFile(args[0])
	if err != nil {
		return err
	}

	n := int(ter.Size)
	stats := heightmap.Describe16(&heightmap.Grid16{Width: n, Height: n, Values: ter.Heights})

	fmt.Printf("Terrain:      %s\n", args[0])
	fmt.Printf("Version:      %d\n", ter.Version)
	fmt.Printf("Size:         %dx%d\n", n, n)
	fmt.Printf("Terrain size: %g\n", ter.Settings.TerrainSize)
	fmt.Printf("Square size:  %g\n", ter.Settings.SquareSize)
	fmt.Printf("Height scale: %g\n", ter.Settings.HeightScale)
	fmt.Printf("Heights:      %.0f .. %.0f (mean %.1f, stddev %.1f)\n", stats.Min, stats.Max, stats.Mean, stats.StdDev)
	fmt.Println()
	fmt.Printf("Materials (%d):\n", len(ter.Materials))

	counts := ter.MaterialCounts()
	for i, name := range ter.Materials {
		fmt.Printf("  %3d  %-20s %5.1f%%\n", i, name, 100*float64(counts[i])/float64(n*n))
	}
	return nil
}

func cmdConfig(args []string) error {
	path := filepath.Join(config.ConfigDir(), config.FileName)
	if len(args) > 0 {
		path = args[0]
	}

	cfg := config.Default()
	if path == "-" {
		data, err := cfg.Marshal()
		if err != nil {
			return err
		}
		_, err = os.Stdout.Write(data)
		return err
	}

	if err := cfg.SaveTo(path); err != nil {
		return err
	}
	fmt.Printf("Wrote default config to %s\n", path)
	return nil
}
