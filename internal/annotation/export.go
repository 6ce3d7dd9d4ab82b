package annotation

import (
	"github.com/peterstace/simplefeatures/geom"

	"orienteer-map/pkg/geometry"
)

func lineString(points []geometry.ImagePoint, closed bool) geom.LineString {
	coords := make([]float64, 0, 2*len(points)+2)
	for _, p := range points {
		coords = append(coords, p.X, p.Y)
	}
	if closed && len(points) > 0 {
		coords = append(coords, points[0].X, points[0].Y)
	}
	return geom.NewLineString(geom.NewSequence(coords, geom.DimXY))
}

// AreasGeometry converts areas to a multipolygon in raster pixel coordinates.
// Rings are closed by repeating the first vertex.
func AreasGeometry(areas []ImpassableArea) geom.MultiPolygon {
	polys := make([]geom.Polygon, 0, len(areas))
	for _, a := range areas {
		polys = append(polys, geom.NewPolygon([]geom.LineString{lineString(a.Points, true)}))
	}
	return geom.NewMultiPolygon(polys)
}

// LinesGeometry converts lines to a multilinestring in raster pixel coordinates.
func LinesGeometry(lines []ImpassableLine) geom.MultiLineString {
	lss := make([]geom.LineString, 0, len(lines))
	for _, l := range lines {
		lss = append(lss, lineString([]geometry.ImagePoint{l.Start, l.End}, false))
	}
	return geom.NewMultiLineString(lss)
}

// WKT renders all shapes as a single geometry collection.
func WKT(areas []ImpassableArea, lines []ImpassableLine) string {
	gc := geom.NewGeometryCollection([]geom.Geometry{
		AreasGeometry(areas).AsGeometry(),
		LinesGeometry(lines).AsGeometry(),
	})
	return gc.AsText()
}

// TotalArea returns the summed area of all polygons in square raster pixels.
func TotalArea(areas []ImpassableArea) float64 {
	return AreasGeometry(areas).Area()
}
