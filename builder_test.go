package markerbuilder

import (
	"bytes"
	"errors"
	"image"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestGenerate(t *testing.T) {
	src := writePNG(t, texturedBuffer(t, 120, 90).Image())
	paths := MarkerPaths(filepath.Join(t.TempDir(), "markers", "paint1"))

	for _, opt := range []Options{BaseOptions(), EnhancedOptions()} {
		mb, err := Generate(src, paths, opt)
		if err != nil {
			t.Fatalf("%v: Generate: %v", opt.Gradient, err)
		}
		got, err := LoadMarkerSet(paths)
		if err != nil {
			t.Fatalf("%v: LoadMarkerSet: %v", opt.Gradient, err)
		}
		if len(got.Features.Features) != len(mb.Keypoints) {
			t.Errorf("%v: written %d features, built %d", opt.Gradient, len(got.Features.Features), len(mb.Keypoints))
		}
		if got.Features.Width != 120 || got.Features.Height != 90 {
			t.Errorf("%v: size = %dx%d", opt.Gradient, got.Features.Width, got.Features.Height)
		}
	}
}

func TestGenerateMissingSource(t *testing.T) {
	dir := t.TempDir()
	paths := MarkerPaths(filepath.Join(dir, "paint1"))
	_, err := Generate(filepath.Join(dir, "nope.jpg"), paths, BaseOptions())
	if !errors.Is(err, ErrSourceImageUnreadable) {
		t.Fatalf("error = %v, want ErrSourceImageUnreadable", err)
	}
	for _, p := range []string{paths.FSet, paths.FSet3, paths.ISet} {
		if _, statErr := os.Stat(p); statErr == nil {
			t.Errorf("%s written despite unreadable source", p)
		}
	}
}

func TestGenerateUndecodableSource(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "paint1.jpg")
	if err := os.WriteFile(src, []byte("not an image"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Generate(src, MarkerPaths(filepath.Join(dir, "m")), BaseOptions()); !errors.Is(err, ErrSourceImageUnreadable) {
		t.Errorf("error = %v, want ErrSourceImageUnreadable", err)
	}
}

func TestBuildInvalidOptions(t *testing.T) {
	opt := BaseOptions()
	opt.GridDivisions = 0
	mb := NewMarkerBuilder(texturedBuffer(t, 10, 10).Image())
	if err := mb.Build(opt); !errors.Is(err, ErrInvalidOptions) {
		t.Errorf("error = %v, want ErrInvalidOptions", err)
	}
}

func TestBuildEnhancedUsesContrastBuffer(t *testing.T) {
	mb := NewMarkerBuilder(solidBuffer(t, 60, 60, 200, 200, 200).Image())
	if err := mb.Build(EnhancedOptions()); err != nil {
		t.Fatalf("Build: %v", err)
	}
	if mb.Source.Pix[0] != 200 {
		t.Errorf("source pixel = %d, want 200", mb.Source.Pix[0])
	}
	if mb.Buffer.Pix[0] != 236 {
		t.Errorf("enhanced pixel = %d, want 236", mb.Buffer.Pix[0])
	}

	mb = NewMarkerBuilder(solidBuffer(t, 60, 60, 200, 200, 200).Image())
	if err := mb.Build(BaseOptions()); err != nil {
		t.Fatalf("Build: %v", err)
	}
	if mb.Buffer != mb.Source {
		t.Error("base preset should not run the contrast pre-pass")
	}
}

func TestBuildResize(t *testing.T) {
	opt := BaseOptions()
	opt.MaxDimension = 50
	mb := NewMarkerBuilder(texturedBuffer(t, 200, 100).Image())
	if err := mb.Build(opt); err != nil {
		t.Fatalf("Build: %v", err)
	}
	if mb.Buffer.W != 50 || mb.Buffer.H != 25 {
		t.Errorf("buffer = %dx%d, want 50x25", mb.Buffer.W, mb.Buffer.H)
	}
	if mb.Marker.Features.Width != 50 {
		t.Errorf("marker width = %d, want 50", mb.Marker.Features.Width)
	}
}

func TestBuildDegenerateLogsWarning(t *testing.T) {
	var logs bytes.Buffer
	SetLogger(slog.New(slog.NewTextHandler(&logs, nil)))
	t.Cleanup(func() { SetLogger(nil) })

	mb := NewMarkerBuilder(image.NewRGBA(image.Rect(0, 0, 5, 5)))
	if err := mb.Build(BaseOptions()); err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(mb.Marker.Features.Features) != 0 {
		t.Errorf("features = %d, want 0", len(mb.Marker.Features.Features))
	}
	if !strings.Contains(logs.String(), "level=WARN") {
		t.Errorf("expected a warning, got %q", logs.String())
	}
}

func TestWriteBeforeBuild(t *testing.T) {
	mb := NewMarkerBuilder(nil)
	if err := mb.Write(MarkerPaths(filepath.Join(t.TempDir(), "x"))); err == nil {
		t.Error("Write before Build should fail")
	}
	if err := mb.Build(BaseOptions()); !errors.Is(err, ErrInvalidBuffer) {
		t.Errorf("Build without image error = %v, want ErrInvalidBuffer", err)
	}
}

func TestWriteEnhancedCopy(t *testing.T) {
	mb := NewMarkerBuilder(texturedBuffer(t, 64, 64).Image())
	opt := EnhancedOptions()
	if err := mb.Build(opt); err != nil {
		t.Fatalf("Build: %v", err)
	}
	path := filepath.Join(t.TempDir(), "out", "paint1_enhanced.jpg")
	if err := mb.WriteEnhancedCopy(path, opt.EnhancedCopyQuality); err != nil {
		t.Fatalf("WriteEnhancedCopy: %v", err)
	}
	if info, err := os.Stat(path); err != nil || info.Size() == 0 {
		t.Errorf("enhanced copy missing or empty: %v", err)
	}
}

func TestSetLoggerNil(t *testing.T) {
	SetLogger(nil)
	if Logger() == nil {
		t.Fatal("Logger() returned nil")
	}
	if Logger().Enabled(t.Context(), slog.LevelError) {
		t.Error("default logger should be disabled")
	}
}
