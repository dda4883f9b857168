package config

import (
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/setanarut/markerbuilder"
)

type Config struct {
	Source        string
	OutputPrefix  string
	Preset        string
	MaxDimension  int
	Workers       int
	LogLevel      string
	PaletteSize   int
	PaletteMethod string
	EnhancedCopy  string // optional path for the contrast-enhanced reference JPEG

	// Overrides applied on top of the preset. Nil keeps the preset value, so
	// MARKER_CONTRAST=0 can switch enhancement off.
	GridDivisions     *int
	GradientThreshold *float64
	JPEGQuality       *int
	Contrast          *float64
}

// Load reads an optional .env file and then the process environment.
// Variables already set in the environment win over .env entries.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Source:            getEnv("MARKER_SOURCE", "paint1.jpg"),
		OutputPrefix:      getEnv("MARKER_OUTPUT", filepath.Join("markers", "paint1")),
		Preset:            getEnv("MARKER_PRESET", "base"),
		MaxDimension:      getEnvAsInt("MARKER_MAX_DIMENSION", 0),
		Workers:           getEnvAsInt("MARKER_WORKERS", 0),
		LogLevel:          getEnv("MARKER_LOG_LEVEL", "info"),
		PaletteSize:       getEnvAsInt("MARKER_PALETTE_SIZE", 5),
		PaletteMethod:     getEnv("MARKER_PALETTE_METHOD", "dominantcolor"),
		EnhancedCopy:      getEnv("MARKER_ENHANCED_COPY", ""),
		GridDivisions:     lookupEnvAsInt("MARKER_GRID_DIVISIONS"),
		GradientThreshold: lookupEnvAsFloat("MARKER_GRADIENT_THRESHOLD"),
		JPEGQuality:       lookupEnvAsInt("MARKER_JPEG_QUALITY"),
		Contrast:          lookupEnvAsFloat("MARKER_CONTRAST"),
	}
}

// Options resolves the preset and applies the overrides that are set.
func (c *Config) Options() (markerbuilder.Options, error) {
	opt, err := markerbuilder.PresetOptions(c.Preset)
	if err != nil {
		return opt, err
	}
	if c.GridDivisions != nil {
		opt.GridDivisions = *c.GridDivisions
	}
	if c.GradientThreshold != nil {
		opt.GradientThreshold = *c.GradientThreshold
	}
	if c.JPEGQuality != nil {
		opt.JPEGQuality = *c.JPEGQuality
	}
	if c.Contrast != nil {
		opt.Contrast = *c.Contrast
	}
	opt.MaxDimension = c.MaxDimension
	opt.Workers = c.Workers
	return opt, opt.Validate()
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// lookupEnvAsInt returns nil when key is unset or not an integer.
func lookupEnvAsInt(key string) *int {
	if value, ok := os.LookupEnv(key); ok {
		if intValue, err := strconv.Atoi(value); err == nil {
			return &intValue
		}
	}
	return nil
}

func lookupEnvAsFloat(key string) *float64 {
	if value, ok := os.LookupEnv(key); ok {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return &f
		}
	}
	return nil
}
