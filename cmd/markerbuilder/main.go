// Command markerbuilder turns a reference photo into the .fset/.fset3/.iset
// marker files used for natural-feature AR tracking.
//
// Defaults come from the environment (and an optional .env file), flags win:
//
//	markerbuilder -source paint1.jpg -output markers/paint1 -preset enhanced
//	markerbuilder -inspect -output markers/paint1 -preset enhanced
//
// Marker files do not record the preset they were built with, so -inspect
// needs the same -preset (or MARKER_GRID_DIVISIONS) as the generating run for
// the grid coverage figures to be meaningful.
package main

import (
	"flag"
	"fmt"
	"image"
	"log"
	"log/slog"
	"os"
	"strings"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/setanarut/markerbuilder"
	"github.com/setanarut/markerbuilder/internal/config"
	"github.com/setanarut/markerbuilder/utils"
)

func main() {
	cfg := config.Load()

	flag.StringVar(&cfg.Source, "source", cfg.Source, "reference image (JPEG or PNG)")
	flag.StringVar(&cfg.OutputPrefix, "output", cfg.OutputPrefix, "marker path prefix, extensions are appended")
	flag.StringVar(&cfg.Preset, "preset", cfg.Preset, "parameter preset: base or enhanced")
	flag.IntVar(&cfg.MaxDimension, "max-size", cfg.MaxDimension, "resize so the longest side fits, 0 keeps the size")
	flag.IntVar(&cfg.Workers, "workers", cfg.Workers, "descriptor workers, 0 uses all CPUs")
	flag.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "debug, info, warn or error")
	flag.IntVar(&cfg.PaletteSize, "palette", cfg.PaletteSize, "palette size for the quality report, 0 disables")
	flag.StringVar(&cfg.PaletteMethod, "palette-method", cfg.PaletteMethod, "dominantcolor or kmeans")
	flag.StringVar(&cfg.EnhancedCopy, "enhanced-copy", cfg.EnhancedCopy, "also save the enhanced reference JPEG here")
	inspect := flag.Bool("inspect", false, "print the report of existing marker files instead of generating; pass the -preset they were built with")
	flag.Parse()

	markerbuilder.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: parseLevel(cfg.LogLevel),
	})))

	opt, err := cfg.Options()
	if err != nil {
		log.Fatalf("configuration: %v", err)
	}
	paths := markerbuilder.MarkerPaths(cfg.OutputPrefix)

	if *inspect {
		if err := inspectMarker(paths, opt, cfg); err != nil {
			log.Fatalf("inspect: %v", err)
		}
		return
	}

	mb, err := markerbuilder.Generate(cfg.Source, paths, opt)
	if err != nil {
		log.Fatalf("generate: %v", err)
	}
	if cfg.EnhancedCopy != "" {
		if err := mb.WriteEnhancedCopy(cfg.EnhancedCopy, opt.EnhancedCopyQuality); err != nil {
			log.Fatalf("enhanced copy: %v", err)
		}
	}

	palette := extractPalette(mb.Buffer.Image(), cfg)
	report := markerbuilder.NewReport(mb.Marker, opt, palette)
	_, _ = report.WriteTo(os.Stdout)
	fmt.Printf("written: %s %s %s\n", paths.FSet, paths.FSet3, paths.ISet)
}

func inspectMarker(paths markerbuilder.Paths, opt markerbuilder.Options, cfg *config.Config) error {
	m, err := markerbuilder.LoadMarkerSet(paths)
	if err != nil {
		return err
	}
	ref, err := m.ReferenceImage()
	if err != nil {
		return err
	}
	_, err = markerbuilder.NewReport(m, opt, extractPalette(ref.Image(), cfg)).WriteTo(os.Stdout)
	return err
}

func extractPalette(img image.Image, cfg *config.Config) []colorful.Color {
	method := utils.ParsePaletteMethod(cfg.PaletteMethod)
	palette, used := utils.ExtractPalette(img, cfg.PaletteSize, method)
	if used != method {
		markerbuilder.Logger().Warn("palette method fell back", "requested", method, "used", used)
	}
	utils.SortPaletteByBrightness(palette)
	return palette
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}
