// terragen converts elevation data and satellite imagery into BeamNG.drive
// terrain levels.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Faultbox/terragen/internal/config"
	"github.com/Faultbox/terragen/internal/logger"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	var err error
	switch command {
	case "export":
		err = cmdExport(args)
	case "batch":
		err = cmdBatch(args)
	case "palette":
		err = cmdPalette(args)
	case "info":
		err = cmdInfo(args)
	case "config":
		err = cmdConfig(args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}

	logger.Sync()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`terragen - BeamNG terrain generator

Usage:
  terragen <command> [options]

Commands:
  export [flags] <dem> <imagery>   Export one terrain level
  batch [flags] <manifest.yaml>    Export every map listed in a manifest
  palette [flags] <imagery>        Print the material palette of an image
  info <file.ter>                  Show terrain file information
  config [path]                    Write the default config file

Examples:
  terragen export -name canyon -resolution 2048 -scale 30 srtm.tif sat.jpg
  terragen batch -j 4 maps.yaml
  terragen palette -colors 8 -mode kmeans -o palette.png sat.png
  terragen info levels/canyon/canyon.ter
  terragen config ./terragen.yaml

Run "terragen <command> -h" for command flags.`)
}

// loadConfig parses fs and loads the config with those flags applied.
func loadConfig(fs *flag.FlagSet, args []string) (*config.Config, error) {
	var flags config.Flags
	flags.Register(fs)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	cfg, err := config.Load(&flags)
	if err != nil {
		return nil, err
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.LogFile); err != nil {
		return nil, fmt.Errorf("initializing logger: %w", err)
	}
	return cfg, nil
}

// runContext is canceled on SIGINT/SIGTERM and after the configured timeout.
func runContext(cfg *config.Config) (context.Context, context.CancelFunc) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	if cfg.Export.Timeout <= 0 {
		return ctx, stop
	}
	ctx, cancel := context.WithTimeout(ctx, cfg.Export.Timeout)
	return ctx, func() {
		cancel()
		stop()
	}
}
