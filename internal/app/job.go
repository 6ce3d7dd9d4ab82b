package app

import (
	"errors"
	"fmt"

	"github.com/goccy/go-json"

	"orienteer-map/internal/annotation"
	"orienteer-map/pkg/geometry"
)

var (
	// ErrNoMap is returned when an operation needs a loaded map.
	ErrNoMap = errors.New("no map loaded")

	// ErrInvalidROI is returned for a region of interest with fewer than
	// three vertices.
	ErrInvalidROI = errors.New("region of interest needs at least 3 points")
)

// ProcessingParameters tune the route-choice processor. Zero values let the
// processor apply its own defaults.
type ProcessingParameters struct {
	NumAlternateRoutes int       `json:"num_alternate_routes,omitempty"`
	OverlapTiers       []float64 `json:"overlap_tiers,omitempty"`
	MinSeparation      int       `json:"min_separation,omitempty"`
	MaxLengthRatio     float64   `json:"max_length_ratio,omitempty"`
	NumRandomPoints    int       `json:"num_random_points,omitempty"`
	CandidateMinDist   int       `json:"candidate_min_dist,omitempty"`
	CandidateMaxDist   int       `json:"candidate_max_dist,omitempty"`
	NumOutputRoutes    int       `json:"num_output_routes,omitempty"`
	ZoomMargin         int       `json:"zoom_margin,omitempty"`
	MarkerRadius       int       `json:"marker_radius,omitempty"`
}

// DefaultProcessingParameters returns the processor's documented defaults.
func DefaultProcessingParameters() ProcessingParameters {
	return ProcessingParameters{
		NumAlternateRoutes: 3,
		OverlapTiers:       []float64{0.30, 0.70, 0.85, 0.90},
		MinSeparation:      60,
		MaxLengthRatio:     1.25,
		NumRandomPoints:    1000,
		CandidateMinDist:   300,
		CandidateMaxDist:   1500,
		NumOutputRoutes:    50,
		ZoomMargin:         50,
		MarkerRadius:       50,
	}
}

// JobLine is an impassable segment in raster pixels.
type JobLine struct {
	Start geometry.ImagePoint `json:"start"`
	End   geometry.ImagePoint `json:"end"`
}

// Job is the body submitted to the route-choice processor. All shapes are in
// raster pixels of the submitted map. An empty ROI means the whole image.
// The impassable_* keys carry the editor's annotations for processors that
// mask them out; processors that do not know them ignore them.
type Job struct {
	MapID          string                  `json:"map_id"`
	ImageWidth     int                     `json:"image_width"`
	ImageHeight    int                     `json:"image_height"`
	RoiCoordinates []geometry.ImagePoint   `json:"roi_coordinates,omitempty"`
	Areas          [][]geometry.ImagePoint `json:"impassable_areas"`
	Lines          []JobLine               `json:"impassable_lines"`
	WKT            string                  `json:"impassable_wkt"`
	AreaPixels     float64                 `json:"impassable_area_px"`
	Parameters     ProcessingParameters    `json:"processing_parameters"`
}

// NewJob builds a processor job from committed shapes. roi may be empty.
func NewJob(mapID string, size geometry.Size, roi []geometry.ImagePoint, areas []annotation.ImpassableArea, lines []annotation.ImpassableLine) (Job, error) {
	if len(roi) > 0 && len(roi) < 3 {
		return Job{}, fmt.Errorf("%w: got %d", ErrInvalidROI, len(roi))
	}
	job := Job{
		MapID:          mapID,
		ImageWidth:     int(size.Width),
		ImageHeight:    int(size.Height),
		RoiCoordinates: append([]geometry.ImagePoint(nil), roi...),
		Areas:          make([][]geometry.ImagePoint, 0, len(areas)),
		Lines:          make([]JobLine, 0, len(lines)),
		WKT:            annotation.WKT(areas, lines),
		AreaPixels:     annotation.TotalArea(areas),
		Parameters:     DefaultProcessingParameters(),
	}
	for _, a := range areas {
		job.Areas = append(job.Areas, a.Clone().Points)
	}
	for _, l := range lines {
		job.Lines = append(job.Lines, JobLine{Start: l.Start, End: l.End})
	}
	return job, nil
}

// Encode returns the job as JSON.
func (j Job) Encode() ([]byte, error) {
	return json.Marshal(j)
}

// JobPayload builds the processor job for the loaded map and the committed
// shapes, limited to roi when it is given. Partial input is not included.
func (s *State) JobPayload(mapID string, roi []geometry.ImagePoint) (Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.raster == nil {
		return Job{}, ErrNoMap
	}
	sess := s.editor.Session()
	return NewJob(mapID, s.raster.Size(), roi, sess.Areas(), sess.Lines())
}
