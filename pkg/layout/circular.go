package layout

import (
	"math"

	"github.com/dd0wney/cluso-lessongraph/pkg/graph"
)

// Circular arranges ids clockwise on a circle starting at the top.
// Coordinates are rounded to hundredths so results compare exactly.
func Circular(ids []string, center graph.Position, radius float64) map[string]graph.Position {
	positions := make(map[string]graph.Position, len(ids))

	if len(ids) == 0 {
		return positions
	}

	angleStep := 2 * math.Pi / float64(len(ids))

	for i, id := range ids {
		angle := float64(i)*angleStep - math.Pi/2
		positions[id] = graph.Position{
			X: round2(center.X + radius*math.Cos(angle)),
			Y: round2(center.Y + radius*math.Sin(angle)),
		}
	}

	return positions
}

func round2(v float64) float64 {
	r := math.Round(v*100) / 100
	if r == 0 {
		return 0 // normalize -0
	}
	return r
}
