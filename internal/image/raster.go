// Package image loads the map raster an event is set on.
package image

import (
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	_ "golang.org/x/image/tiff"

	"orienteer-map/pkg/geometry"
)

// ErrEmptyImage is returned for rasters with no pixels.
var ErrEmptyImage = errors.New("image has no pixels")

// Raster is a decoded map image.
type Raster struct {
	Path  string      // Original file path
	Image image.Image // Decoded pixels
	DPI   float64     // Resolution from TIFF metadata, 0 if unknown
}

// Load decodes the map image at path.
func Load(path string) (*Raster, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer file.Close()

	r, err := Decode(file)
	if err != nil {
		return nil, err
	}
	r.Path = path

	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".tiff" || ext == ".tif" {
		if _, err := file.Seek(0, io.SeekStart); err == nil {
			if dpi, err := tiffDPI(file); err == nil {
				r.DPI = dpi
			}
		}
	}
	return r, nil
}

// Decode reads a raster in any supported format.
func Decode(rd io.Reader) (*Raster, error) {
	img, _, err := image.Decode(rd)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	if img.Bounds().Empty() {
		return nil, ErrEmptyImage
	}
	return &Raster{Image: img}, nil
}

// Width returns the image width in pixels.
func (r *Raster) Width() int {
	if r == nil || r.Image == nil {
		return 0
	}
	return r.Image.Bounds().Dx()
}

// Height returns the image height in pixels.
func (r *Raster) Height() int {
	if r == nil || r.Image == nil {
		return 0
	}
	return r.Image.Bounds().Dy()
}

// Size returns the image dimensions. It is empty until an image is loaded.
func (r *Raster) Size() geometry.Size {
	return geometry.NewSize(float64(r.Width()), float64(r.Height()))
}

// MetersPerPixel returns the ground distance one pixel covers on a printed map
// of the given scale (10000 for 1:10 000). It is 0 when the DPI is unknown.
func (r *Raster) MetersPerPixel(scale float64) float64 {
	if r == nil || r.DPI <= 0 {
		return 0
	}
	return scale * 0.0254 / r.DPI
}

// tiffDPI reads the resolution tags of the first TIFF directory.
func tiffDPI(rs io.ReadSeeker) (float64, error) {
	header := make([]byte, 8)
	if _, err := io.ReadFull(rs, header); err != nil {
		return 0, err
	}

	var order binary.ByteOrder
	switch string(header[:2]) {
	case "II":
		order = binary.LittleEndian
	case "MM":
		order = binary.BigEndian
	default:
		return 0, fmt.Errorf("not a valid TIFF file")
	}

	if _, err := rs.Seek(int64(order.Uint32(header[4:8])), io.SeekStart); err != nil {
		return 0, err
	}
	var numEntries uint16
	if err := binary.Read(rs, order, &numEntries); err != nil {
		return 0, err
	}

	entries := make([]byte, 12*int(numEntries))
	if _, err := io.ReadFull(rs, entries); err != nil {
		return 0, err
	}

	var xRes, yRes float64
	resUnit := uint16(2) // inches
	for i := 0; i < int(numEntries); i++ {
		entry := entries[12*i : 12*i+12]
		tag := order.Uint16(entry[0:2])
		fieldType := order.Uint16(entry[2:4])

		switch {
		case tag == 282 && fieldType == 5: // XResolution, RATIONAL
			xRes = readRational(rs, int64(order.Uint32(entry[8:12])), order)
		case tag == 283 && fieldType == 5: // YResolution, RATIONAL
			yRes = readRational(rs, int64(order.Uint32(entry[8:12])), order)
		case tag == 296 && fieldType == 3: // ResolutionUnit, SHORT
			resUnit = order.Uint16(entry[8:10])
		}
	}

	dpi := xRes
	if dpi == 0 {
		dpi = yRes
	}
	if dpi == 0 {
		return 0, fmt.Errorf("no resolution tags found")
	}
	if resUnit == 3 { // centimeters
		dpi *= 2.54
	}
	return dpi, nil
}

func readRational(rs io.ReadSeeker, offset int64, order binary.ByteOrder) float64 {
	if _, err := rs.Seek(offset, io.SeekStart); err != nil {
		return 0
	}
	var v [2]uint32
	if err := binary.Read(rs, order, &v); err != nil || v[1] == 0 {
		return 0
	}
	return float64(v[0]) / float64(v[1])
}

// SupportedFormats returns the list of supported image extensions.
func SupportedFormats() []string {
	return []string{".tiff", ".tif", ".png", ".jpg", ".jpeg"}
}

// IsSupportedFormat checks if the given path has a supported image format.
func IsSupportedFormat(path string) bool {
	return slices.Contains(SupportedFormats(), strings.ToLower(filepath.Ext(path)))
}
