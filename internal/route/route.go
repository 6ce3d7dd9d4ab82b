// Package route derives the all-controls course of an event from its regular
// courses.
package route

import (
	"math"

	"orienteer-map/internal/course"
)

// DedupThreshold is the per-axis distance in percent below which two controls
// of the same type are the same control. It is finer than the snap radius so
// visually distinct controls never merge.
const DedupThreshold = 0.5

func sameSpot(a, b course.Control) bool {
	return a.Type == b.Type &&
		math.Abs(a.X-b.X) < DedupThreshold &&
		math.Abs(a.Y-b.Y) < DedupThreshold
}

// CollectUniqueControls returns the first control at each (x, y, type) from
// every course except the one with aggregateID. Course order and control order
// decide which duplicate is kept.
func CollectUniqueControls(courses []course.Course, aggregateID string) []course.Control {
	var unique []course.Control
	for _, c := range courses {
		if c.ID == aggregateID || c.Aggregate {
			continue
		}
	next:
		for _, ctrl := range c.Controls {
			for _, seen := range unique {
				if sameSpot(seen, ctrl) {
					continue next
				}
			}
			unique = append(unique, ctrl)
		}
	}
	return unique
}

// NearestNeighborOrder orders controls greedily: start at the control with the
// smallest x+y, then repeatedly visit the closest unvisited control. Ties go to
// the earlier control. The result is a permutation of the input.
func NearestNeighborOrder(controls []course.Control) []course.Control {
	if len(controls) <= 1 {
		return append([]course.Control(nil), controls...)
	}

	seed := 0
	for i, c := range controls {
		if c.X+c.Y < controls[seed].X+controls[seed].Y {
			seed = i
		}
	}

	visited := make([]bool, len(controls))
	order := make([]course.Control, 0, len(controls))
	cur := seed
	for {
		visited[cur] = true
		order = append(order, controls[cur])
		if len(order) == len(controls) {
			return order
		}

		best, bestDist := -1, math.Inf(1)
		from := controls[cur].Position()
		for i, c := range controls {
			if visited[i] {
				continue
			}
			// NaN positions never compare closer; fall back to the first unvisited.
			if d := from.Distance(c.Position()); best < 0 || d < bestDist {
				best, bestDist = i, d
			}
		}
		cur = best
	}
}

// BuildAggregateCourse recomputes the all-controls course of an event. The
// result replaces any previous aggregate course wholesale.
func BuildAggregateCourse(eventID string, courses []course.Course) course.Course {
	id := course.AggregateCourseID(eventID)
	ordered := NearestNeighborOrder(CollectUniqueControls(courses, id))
	return course.Course{
		ID:        id,
		EventID:   eventID,
		Name:      course.AggregateName,
		Controls:  course.Renumber(ordered),
		Aggregate: true,
	}
}
