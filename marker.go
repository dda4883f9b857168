package markerbuilder

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/setanarut/markerbuilder/utils"
)

// FeatureSet is the .fset document: 2D keypoints of the reference image.
type FeatureSet struct {
	Width    int        `json:"width"`
	Height   int        `json:"height"`
	DPI      [2]int     `json:"dpi"`
	Features []Keypoint `json:"features"`
}

// FeatureSet3D is the .fset3 document. This pipeline never populates the
// multi-scale feature list.
type FeatureSet3D struct {
	Width      int               `json:"width"`
	Height     int               `json:"height"`
	Features3D []json.RawMessage `json:"features3d"`
}

type ImageEntry struct {
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Data   string `json:"data"` // base64 encoded image bytes
	Format string `json:"format"`
}

// ImageSet is the .iset document holding the re-encoded reference image.
type ImageSet struct {
	Images []ImageEntry `json:"images"`
}

// MarkerSet bundles the three documents a natural-feature tracker loads.
type MarkerSet struct {
	Features   FeatureSet
	Features3D FeatureSet3D
	Images     ImageSet
}

// Paths names the three marker files.
type Paths struct {
	FSet  string
	FSet3 string
	ISet  string
}

// MarkerPaths derives the marker file names from a prefix such as
// "markers/paint1".
func MarkerPaths(prefix string) Paths {
	return Paths{
		FSet:  prefix + ".fset",
		FSet3: prefix + ".fset3",
		ISet:  prefix + ".iset",
	}
}

// NewMarkerSet assembles keypoints and the reference buffer into a marker.
// The buffer is re-encoded as JPEG at opt.JPEGQuality.
func NewMarkerSet(buf *PixelBuffer, keypoints []Keypoint, opt Options) (*MarkerSet, error) {
	if !buf.Valid() {
		return nil, ErrInvalidBuffer
	}
	if keypoints == nil {
		keypoints = make([]Keypoint, 0)
	}
	jpg, err := utils.EncodeJPEG(buf.Image(), opt.JPEGQuality)
	if err != nil {
		return nil, fmt.Errorf("markerbuilder: encode reference image: %w", err)
	}
	return &MarkerSet{
		Features: FeatureSet{
			Width:    buf.W,
			Height:   buf.H,
			DPI:      [2]int{opt.DPI, opt.DPI},
			Features: keypoints,
		},
		Features3D: FeatureSet3D{
			Width:      buf.W,
			Height:     buf.H,
			Features3D: make([]json.RawMessage, 0),
		},
		Images: ImageSet{Images: []ImageEntry{{
			Width:  buf.W,
			Height: buf.H,
			Data:   base64.StdEncoding.EncodeToString(jpg),
			Format: "jpeg",
		}}},
	}, nil
}

// Encode renders the three documents as indented JSON.
func (m *MarkerSet) Encode() (fset, fset3, iset []byte, err error) {
	if fset, err = marshalDocument(m.Features); err != nil {
		return nil, nil, nil, err
	}
	if fset3, err = marshalDocument(m.Features3D); err != nil {
		return nil, nil, nil, err
	}
	if iset, err = marshalDocument(m.Images); err != nil {
		return nil, nil, nil, err
	}
	return fset, fset3, iset, nil
}

func marshalDocument(v any) ([]byte, error) {
	var b bytes.Buffer
	enc := json.NewEncoder(&b)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("markerbuilder: encode marker: %w", err)
	}
	return bytes.TrimRight(b.Bytes(), "\n"), nil
}

// Write encodes all three documents and then overwrites the files at paths.
// Nothing is written when encoding fails. A failure on a later file leaves
// earlier files in place.
func (m *MarkerSet) Write(paths Paths) error {
	fset, fset3, iset, err := m.Encode()
	if err != nil {
		return err
	}
	files := []struct {
		path string
		data []byte
	}{
		{paths.FSet, fset},
		{paths.FSet3, fset3},
		{paths.ISet, iset},
	}
	for _, f := range files {
		if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
			return fmt.Errorf("%w: %w", ErrOutputDirectoryUnwritable, err)
		}
	}
	for _, f := range files {
		if err := os.WriteFile(f.path, f.data, 0o644); err != nil {
			return fmt.Errorf("%w: %w", ErrOutputDirectoryUnwritable, err)
		}
		Logger().Debug("marker file written", "path", f.path, "bytes", len(f.data))
	}
	return nil
}

// LoadMarkerSet parses a marker file set written by Write.
func LoadMarkerSet(paths Paths) (*MarkerSet, error) {
	m := &MarkerSet{}
	docs := []struct {
		path string
		dst  any
	}{
		{paths.FSet, &m.Features},
		{paths.FSet3, &m.Features3D},
		{paths.ISet, &m.Images},
	}
	for _, d := range docs {
		data, err := os.ReadFile(filepath.Clean(d.path))
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrMarkerUnreadable, err)
		}
		if err := json.Unmarshal(data, d.dst); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrMarkerUnreadable, d.path, err)
		}
	}
	return m, nil
}

// ReferenceImage decodes the first embedded image of the .iset document.
func (m *MarkerSet) ReferenceImage() (*PixelBuffer, error) {
	if len(m.Images.Images) == 0 {
		return nil, fmt.Errorf("%w: no embedded image", ErrMarkerUnreadable)
	}
	raw, err := base64.StdEncoding.DecodeString(m.Images.Images[0].Data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMarkerUnreadable, err)
	}
	img, err := utils.DecodeImage(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMarkerUnreadable, err)
	}
	return FromImage(img)
}
