package loader

import (
	"sync"
	"time"

	"github.com/gracefulearth/tileloader/geom"
	"github.com/gracefulearth/tileloader/halo"
	"github.com/gracefulearth/tileloader/internal/cache"
	"github.com/gracefulearth/tileloader/internal/dispatch"
	"github.com/gracefulearth/tileloader/internal/pool"
)

// levelPipeline is one pyramid level's instance of C2-C8: its own file
// cache, (in adaptive mode) logical-tile cache, view pool, dispatcher and
// halo policy. Levels share nothing - no cache, pool, or dispatcher
// crosses a level boundary.
type levelPipeline struct {
	level   int
	reader  *readerAdapter
	metrics Metrics

	fullShape    geom.Shape
	physTileShape geom.Shape
	viewTileShape geom.Shape // == physTileShape, or logicalTileShape in adaptive mode
	viewShape    geom.Shape
	radii        []int
	dtype        geom.DataType

	haloPolicy halo.Policy

	cache    *cache.Cache
	pool     *pool.Pool
	dispatch *dispatch.Pool
	order    *orderFront

	releaseTarget int
	reqWG         sync.WaitGroup

	adaptive         bool
	logicalTileShape geom.Shape
	logicalCache     *cache.Cache
}

func newLevelPipeline(level int, cfg *Config, out chan Result) (*levelPipeline, error) {
	reader := cfg.Reader
	full := reader.FullShape(level)
	phys := reader.TileShape(level)
	d := len(full)
	dtype := reader.DataType(level)
	elemSize := dtype.Size()

	radii := cfg.radii(d)

	lp := &levelPipeline{
		level:         level,
		reader:        newReaderAdapter(reader, cfg.Metrics),
		metrics:       normalizeMetrics(cfg.Metrics),
		fullShape:     full,
		physTileShape: phys,
		radii:         radii,
		dtype:         dtype,
		haloPolicy:    cfg.HaloPolicy,
		releaseTarget: cfg.perLevel(cfg.ReleaseCountPerLevel, level, 1),
	}

	if level < len(cfg.LogicalTileShapePerLevel) && cfg.LogicalTileShapePerLevel[level] != nil {
		lp.adaptive = true
		lp.logicalTileShape = cfg.LogicalTileShapePerLevel[level]
		lp.viewTileShape = lp.logicalTileShape
		logicalGrid := full.NumTiles(lp.logicalTileShape)
		logicalCap := cfg.perLevel(cfg.LogicalCacheCapacityPerLevel, level, 1)
		logicalCap = normalizeCapacity(logicalCap, logicalGrid.Volume())
		lp.logicalCache = cache.New(logicalCap, lp.logicalTileShape.Volume()*elemSize)
	} else {
		lp.viewTileShape = phys
	}

	lp.viewShape = make(geom.Shape, d)
	for i := 0; i < d; i++ {
		lp.viewShape[i] = lp.viewTileShape[i] + 2*radii[i]
	}

	physGrid := full.NumTiles(phys)
	// A missing entry defaults to 1; an explicit zero is left for
	// normalizeCapacity's min(18, grid volume) rule.
	fileCap := 1
	if level < len(cfg.CacheCapacityPerLevel) {
		fileCap = cfg.CacheCapacityPerLevel[level]
	}
	fileCap = normalizeCapacity(fileCap, physGrid.Volume())
	lp.cache = cache.New(fileCap, phys.Volume()*elemSize)

	viewCount := cfg.perLevel(cfg.ViewAvailablePerLevel, level, 1)
	lp.pool = pool.New(viewCount, lp.viewShape.Volume()*elemSize)

	copyThreads := cfg.NbCopyThreads
	if copyThreads <= 0 {
		copyThreads = 2
	}
	lp.dispatch = dispatch.New(copyThreads)
	lp.order = newOrderFront(cfg.OrderedOutput, out)

	return lp, nil
}

// normalizeCapacity applies the "capacity=0 means at least min(18, grid
// volume)" rule and clamps to the grid volume: capacity is always
// min(user_capacity, grid volume).
func normalizeCapacity(capacity, gridVolume int) int {
	if capacity <= 0 {
		capacity = 18
		if gridVolume < capacity {
			capacity = gridVolume
		}
	}
	if gridVolume > 0 && capacity > gridVolume {
		capacity = gridVolume
	}
	if capacity < 1 {
		capacity = 1
	}
	return capacity
}

// directFetchByIndex acquires the file-tile cache entry for index, filling
// it from the reader on a miss, and returns its buffer plus a release
// function . Every acquisition reports a CacheHit or CacheMiss to this
// level's Metrics.
func (lp *levelPipeline) directFetchByIndex(index geom.Index) ([]byte, error, func()) {
	entry, hit := lp.cache.Acquire(index)
	if hit {
		lp.metrics.CacheHit(lp.level)
	} else {
		lp.metrics.CacheMiss(lp.level)
	}
	if entry.Status == cache.Empty {
		if err := lp.reader.fill(entry.Buffer, index, lp.level); err != nil {
			lp.cache.Release(entry)
			return nil, err, func() {}
		}
		entry.Status = cache.Filled
	}
	return entry.Buffer, nil, func() { lp.cache.Release(entry) }
}

// fetchTile dispatches to the direct file cache or, in adaptive mode, the
// logical-tile remapper (C8), depending on this level's mode. Either way
// it returns a buffer laid out per lp.viewTileShape (physical tile shape
// normally, logical tile shape in adaptive mode) - the shape the view's own
// plan generator assumes of its source tiles.
func (lp *levelPipeline) fetchTile(index geom.Index) ([]byte, error, func()) {
	if lp.adaptive {
		return lp.adaptiveFetch(index)
	}
	return lp.directFetchByIndex(index)
}

// gridShape returns the tile grid this level's views are indexed over
// (physical grid normally, logical grid in adaptive mode).
func (lp *levelPipeline) gridShape() geom.Shape {
	return lp.fullShape.NumTiles(lp.viewTileShape)
}

func (lp *levelPipeline) geometryFor(idx geom.Index) geom.ViewGeometry {
	return geom.ViewGeometry{
		Level:        lp.level,
		CentralIndex: idx,
		TileShape:    lp.viewTileShape,
		FullShape:    lp.fullShape,
		Radii:        lp.radii,
		ViewShape:    lp.viewShape,
		DType:        lp.dtype,
	}
}

// processRequest runs the full view-assembly pipeline for one request: C4
// plan generation + C5 halo records, C1/C2/C8 tile fetch and C6 copy
// execution fanned out on one goroutine per source tile and joined with a
// WaitGroup (the Go idiom for C7's outstanding-copy counter), then C5's
// fill_existing pass, then delivery through the ordering front-end. Reports
// Metrics.ViewEmitted with the wall-clock time from the moment a dispatch
// worker starts this request to a completed, halo-filled view - not
// counting time spent queued for a dispatch worker, nor any further delay the
// ordering front-end introduces while waiting for an earlier request to
// finish, since that queueing time is not part of this request's own work.
func (lp *levelPipeline) processRequest(idx geom.Index) {
	defer lp.reqWG.Done()
	start := time.Now()

	g := lp.geometryFor(idx)
	req := Request{Index: idx.Clone(), Level: lp.level}
	elemSize := lp.dtype.Size()

	buf := lp.pool.Acquire()
	data := buf[:g.ViewShape.Volume()*elemSize]

	plans := buildPlan(g, lp.haloPolicy)

	var wg sync.WaitGroup
	var mu sync.Mutex
	var firstErr error
	// Each tile this view touches is fetched on its own goroutine rather
	// than resubmitted to lp.dispatch: lp.dispatch's workers are already
	// occupied running processRequest itself (and, in adaptive mode, a
	// nested fan-out over physical tiles), so routing this fan-out through
	// the same bounded pool could deadlock it with jobs queued behind
	// busy, blocked workers. The tile count per view is small and bounded
	// by the halo footprint, so plain goroutines joined by a WaitGroup
	// give real concurrency here without that risk.
	for _, p := range plans {
		p := p
		wg.Add(1)
		go func() {
			defer wg.Done()
			srcBuf, err, release := lp.fetchTile(p.SourceTile)
			if err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				mu.Unlock()
				return
			}
			defer release()
			for _, w := range p.Windows {
				executeCopy(data, g.ViewShape, srcBuf, lp.viewTileShape, w, elemSize)
			}
		}()
	}
	wg.Wait()

	if firstErr != nil {
		lp.pool.Release(buf)
		lp.order.complete(req, Result{Request: req, Err: firstErr})
		return
	}

	lp.haloPolicy.FillExisting(data, g)
	lp.metrics.ViewEmitted(lp.level, time.Since(start))

	v := &View{
		Level:         lp.level,
		Index:         idx.Clone(),
		TileShape:     lp.viewTileShape,
		FullShape:     lp.fullShape,
		Radii:         lp.radii,
		ViewShape:     g.ViewShape,
		DType:         lp.dtype,
		Data:          data,
		state:         StateReady,
		releaseTarget: lp.releaseTarget,
		lp:            lp,
	}
	lp.order.complete(req, Result{Request: req, View: v})
}

// System is the public entry point: the per-level pipelines plus the
// request submission / ordered-output surface of the design (C9).
type System struct {
	cfg    *Config
	levels []*levelPipeline
	out    chan Result

	mu        sync.Mutex
	finished  bool
	closeOnce sync.Once
}

// New validates cfg and constructs one levelPipeline per pyramid level.
func New(cfg *Config) (*System, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.TraversalPolicy == nil {
		cfg.TraversalPolicy = defaultTraversal{}
	}

	levels := cfg.Reader.NumLevels()
	out := make(chan Result, totalBuffer(cfg, levels))
	sys := &System{cfg: cfg, out: out, levels: make([]*levelPipeline, levels)}
	for l := 0; l < levels; l++ {
		lp, err := newLevelPipeline(l, cfg, out)
		if err != nil {
			return nil, err
		}
		sys.levels[l] = lp
	}
	return sys, nil
}

func totalBuffer(cfg *Config, levels int) int {
	n := 0
	for l := 0; l < levels; l++ {
		n += cfg.perLevel(cfg.ViewAvailablePerLevel, l, 1)
	}
	if n < 1 {
		n = 1
	}
	return n
}

// RequestView submits a single view request; it fails synchronously if the
// index is out of range for the level's tile grid, or if the system has
// been finalized .
func (s *System) RequestView(index Index, level int) error {
	if level < 0 || level >= len(s.levels) {
		return ErrInvalidIndex{Index: index, Level: level}
	}
	lp := s.levels[level]
	grid := lp.gridShape()
	if !index.InBounds(grid) {
		return ErrInvalidIndex{Index: index.Clone(), Level: level}
	}

	s.mu.Lock()
	if s.finished {
		s.mu.Unlock()
		return ErrFinalized{}
	}
	lp.reqWG.Add(1)
	s.mu.Unlock()

	req := Request{Index: index.Clone(), Level: level}
	lp.order.recordSubmit(req)
	lp.dispatch.Submit(func() { lp.processRequest(req.Index) })
	return nil
}

// RequestAllViews submits one request per cell of level's tile grid, in
// the configured traversal order.
func (s *System) RequestAllViews(level int) error {
	if level < 0 || level >= len(s.levels) {
		return ErrInvalidIndex{Level: level}
	}
	lp := s.levels[level]
	grid := lp.gridShape()
	var firstErr error
	s.cfg.TraversalPolicy.Traverse(grid, func(idx geom.Index) bool {
		if err := s.RequestView(idx, level); err != nil {
			firstErr = err
			return false
		}
		return true
	})
	return firstErr
}

// FinishRequesting marks the system finalized: no further RequestView
// calls are accepted. It spawns the goroutine that closes the output
// channel once every in-flight request has been processed.
func (s *System) FinishRequesting() {
	s.mu.Lock()
	if s.finished {
		s.mu.Unlock()
		return
	}
	s.finished = true
	s.mu.Unlock()

	go func() {
		for _, lp := range s.levels {
			lp.reqWG.Wait()
		}
		s.closeOnce.Do(func() { close(s.out) })
		for _, lp := range s.levels {
			lp.dispatch.Stop()
		}
	}()
}

// NextView blocks until a view is ready (or failed) or the system has
// finished and drained, in which case it returns (Result{}, false).
func (s *System) NextView() (Result, bool) {
	res, ok := <-s.out
	return res, ok
}

// WaitForTermination blocks until every view across every level has been
// consumed (via NextView) and released exactly releaseTarget times.
func (s *System) WaitForTermination() {
	for _, lp := range s.levels {
		lp.pool.WaitDrained()
	}
}

// Release increments v's release counter; on the releaseTarget-th call its
// buffer returns to the level's pool.
func (s *System) Release(v *View) {
	lp := v.lp
	lp.releaseOne(v)
}

func (lp *levelPipeline) releaseOne(v *View) {
	v.releaseCount++
	if v.releaseCount >= v.releaseTarget {
		v.state = StateReleased
		lp.pool.Release(v.Data)
	}
}

// EstimatedMaxMemoryMB sums, over every level, file cache capacity bytes
// plus the view pool's capacity in bytes. Logical caches in adaptive mode
// are included as well, since they are real allocated memory.
func (s *System) EstimatedMaxMemoryMB() int {
	total := 0
	for _, lp := range s.levels {
		total += lp.cache.CapacityBytes()
		total += lp.pool.Capacity() * lp.pool.SlotSize()
		if lp.adaptive {
			total += lp.logicalCache.CapacityBytes()
		}
	}
	return total / (1024 * 1024)
}

// defaultTraversal avoids importing the traversal package from config.go's
// zero-value path (Config.TraversalPolicy left nil) without forcing every
// caller to import traversal just to get the default.
type defaultTraversal struct{}

func (defaultTraversal) Traverse(grid geom.Shape, yield func(idx geom.Index) bool) {
	grid.Iterate(func(idx []int) bool {
		return yield(geom.Index(idx).Clone())
	})
}
