package halo

// Custom halo behavior needs no separate type or registration step: any
// type implementing Policy can be plugged into loader.Config.HaloPolicy,
// including one whose TileRequestsForHalo reads from a second, unrelated
// dataset or synthesizes values with arbitrary logic. Policy itself is
// the extension point.
