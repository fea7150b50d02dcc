package detect

import (
	"sort"

	"github.com/sweeney/counterwatch/internal/geometry"
)

// iou calculates Intersection over Union for two boxes.
func iou(a, b geometry.Box) float64 {
	x1 := max(a.X1, b.X1)
	y1 := max(a.Y1, b.Y1)
	x2 := min(a.X2, b.X2)
	y2 := min(a.Y2, b.Y2)

	if x2 <= x1 || y2 <= y1 {
		return 0
	}

	inter := float64((x2 - x1) * (y2 - y1))
	area1 := float64(a.Width() * a.Height())
	area2 := float64(b.Width() * b.Height())
	union := area1 + area2 - inter
	if union <= 0 {
		return 0
	}
	return inter / union
}

// nonMaxSuppression keeps the highest scoring box of each overlapping group.
// Boxes of different classes never suppress each other.
func nonMaxSuppression(dets []Detection, threshold float32) []Detection {
	if len(dets) == 0 {
		return nil
	}

	order := make([]int, len(dets))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		return dets[order[i]].Score > dets[order[j]].Score
	})

	suppressed := make([]bool, len(dets))
	var keep []Detection
	for _, i := range order {
		if suppressed[i] {
			continue
		}
		keep = append(keep, dets[i])
		for _, j := range order {
			if suppressed[j] || i == j || dets[i].Class != dets[j].Class {
				continue
			}
			if iou(dets[i].Box, dets[j].Box) > float64(threshold) {
				suppressed[j] = true
			}
		}
	}
	return keep
}
