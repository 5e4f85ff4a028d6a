// Package halo implements the ghost-region synthesis strategies
// (component C5): Constant, Replicate, Reflect, Reflect101 and Wrap,
// plus the Custom extension point. A Policy contributes extra
// CopyRecords read from the file (for policies that source halo pixels from
// elsewhere in the dataset) and/or an in-view duplication pass run once all
// of a view's outstanding copies have completed.
package halo

import "github.com/gracefulearth/tileloader/geom"

// Policy is the interface both the built-in strategies and a user's Custom
// strategy implement.
type Policy interface {
	// TileRequestsForHalo returns extra (tile, window) pairs to fetch from
	// the file to fill halo cells that can be sourced from elsewhere in the
	// dataset (Reflect, Reflect101, Wrap). Constant and Replicate need none.
	TileRequestsForHalo(g geom.ViewGeometry) []geom.CopyRecord

	// FillExisting performs any in-view duplication this policy needs
	// (Constant, Replicate), given the view's fully-populated in-bounds
	// region. It runs only after every copy record for the view - both the
	// plan generator's and this policy's own - has completed.
	FillExisting(data []byte, g geom.ViewGeometry)
}
