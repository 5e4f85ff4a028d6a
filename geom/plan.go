package geom

// GenerateMainPlan computes the copy records that fill a view's in-bounds
// region from the file's tile grid (spec §4.4 C4): the central tile
// expanded by Radii per dimension, clipped to the file's extent, split at
// tile boundaries, one CopyRecord per tile touched. Halo (out-of-bounds)
// cells are left for a halo.Policy's TileRequestsForHalo/FillExisting.
func GenerateMainPlan(g ViewGeometry) []CopyRecord {
	d := len(g.FullShape)
	clipped := g.ClippedWindow()
	unclipped := g.UnclippedWindow()
	splitShape := g.SplitTileShape()

	perAxis := make([][]axisRun, d)
	counts := make([]int, d)
	for axis := 0; axis < d; axis++ {
		destLo := clipped[axis].Lo - unclipped[axis].Lo
		destHi := clipped[axis].Hi - unclipped[axis].Lo
		identity := func(destLocal int) int { return unclipped[axis].Lo + destLocal }
		perAxis[axis] = splitPiece(destLo, destHi, splitShape[axis], identity, false, false)
		counts[axis] = len(perAxis[axis])
		if counts[axis] == 0 {
			return nil
		}
	}
	return combineRuns(g, perAxis, counts, false)
}

// combineRuns takes the cartesian product of each axis's runs and emits one
// CopyRecord per combination; when onlyGhost is true, combinations with no
// ghost axis are skipped (used by GenerateFoldedHalo).
func combineRuns(g ViewGeometry, perAxis [][]axisRun, counts []int, onlyGhost bool) []CopyRecord {
	d := len(counts)
	var records []CopyRecord
	combo := make([]int, d)
	for {
		anyGhost := false
		srcTile := make(Index, d)
		win := NewWindow(d)
		for axis := 0; axis < d; axis++ {
			r := perAxis[axis][combo[axis]]
			if r.ghost {
				anyGhost = true
			}
			srcTile[axis] = r.srcTileIdx
			win.DstOffset[axis] = r.destLo
			win.SrcOffset[axis] = r.srcLocalAtLo
			win.Length[axis] = r.destHi - r.destLo
			win.Reverse[axis] = r.reversed
		}
		if !onlyGhost || anyGhost {
			records = append(records, CopyRecord{SourceTile: srcTile, Level: g.Level, Window: win})
		}

		axis := d - 1
		for axis >= 0 {
			combo[axis]++
			if combo[axis] < counts[axis] {
				break
			}
			combo[axis] = 0
			axis--
		}
		if axis < 0 {
			break
		}
	}
	return records
}
