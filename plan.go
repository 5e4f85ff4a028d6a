package loader

import (
	"fmt"

	"github.com/gracefulearth/tileloader/geom"
	"github.com/gracefulearth/tileloader/halo"
)

// tilePlan groups every Window to be copied out of one source tile, per
// the plan-merge step: "two records targeting the same source_tile_index
// have their window lists concatenated ... deduplicate exact-duplicate
// windows".
type tilePlan struct {
	SourceTile geom.Index
	Level      int
	Windows    []geom.Window
}

// buildPlan computes the full set of copy work for one view: the
// in-bounds records from the plan generator (C4) plus whatever the halo
// policy (C5) contributes, grouped by source tile.
func buildPlan(g geom.ViewGeometry, policy halo.Policy) []tilePlan {
	records := geom.GenerateMainPlan(g)
	if policy != nil {
		records = append(records, policy.TileRequestsForHalo(g)...)
	}

	order := make([]string, 0, len(records))
	byTile := make(map[string]*tilePlan, len(records))
	seen := make(map[string]map[string]bool, len(records))
	for _, r := range records {
		key := r.SourceTile.String()
		p, ok := byTile[key]
		if !ok {
			p = &tilePlan{SourceTile: r.SourceTile, Level: r.Level}
			byTile[key] = p
			seen[key] = make(map[string]bool)
			order = append(order, key)
		}
		wkey := windowKey(r.Window)
		if seen[key][wkey] {
			continue
		}
		seen[key][wkey] = true
		p.Windows = append(p.Windows, r.Window)
	}

	plans := make([]tilePlan, len(order))
	for i, key := range order {
		plans[i] = *byTile[key]
	}
	return plans
}

func windowKey(w geom.Window) string {
	return fmt.Sprintf("%v|%v|%v|%v", w.SrcOffset, w.DstOffset, w.Length, w.Reverse)
}

// totalWindows returns the number of individual copy operations a plan
// requires, i.e. the view's nb_outstanding_copies.
func totalWindows(plans []tilePlan) int {
	n := 0
	for _, p := range plans {
		n += len(p.Windows)
	}
	return n
}
