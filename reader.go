package loader

import "time"

// Reader is the user-supplied collaborator that knows how to decode one
// on-disk tile at one pyramid level. It is the only way the core touches
// the backing file; concrete file-format parsing is out of scope here.
//
// Fill must write exactly the tile's payload into out (len(out) is at least
// the tile's volume in elements times its DataType size for the given
// level) and must be safe to call concurrently for different (index, level)
// pairs; the core itself guarantees at most one concurrent Fill per
// (index, level) pair while that tile's cache entry is resident.
type Reader interface {
	Fill(out []byte, index Index, level int) error

	TileShape(level int) Shape
	FullShape(level int) Shape
	DataType(level int) DataType
	NumLevels() int
	NumDims() int
	DimNames() []string

	// DownScaleFactor reports the resolution ratio of level relative to
	// level 0. Implementations with a single level, or that do not model a
	// pyramid, should return 1.
	DownScaleFactor(level int) float64
}

// MetadataReader is an optional extension a Reader may also implement to
// expose free-form key/value metadata (e.g. acquisition parameters, a color
// model tag consumed by halo.Constant's color-aware fill).
type MetadataReader interface {
	Metadata() map[string]string
}

// Metrics is the optional observability collaborator; when a caller does
// not supply one, noopMetrics is used instead so the hot path never
// branches on nil. CacheHit/CacheMiss fire once per cache.Cache.Acquire (the
// level's file cache, and in adaptive mode its logical-tile cache too);
// ViewEmitted fires once per completed view, timed from when a dispatch
// worker starts the request to its halo-filled, pre-ordering completion; ReaderFillTime fires once
// per Reader.Fill call.
type Metrics interface {
	CacheHit(level int)
	CacheMiss(level int)
	ViewEmitted(level int, d time.Duration)
	ReaderFillTime(level int, d time.Duration)
}

type noopMetrics struct{}

func (noopMetrics) CacheHit(level int)                        {}
func (noopMetrics) CacheMiss(level int)                       {}
func (noopMetrics) ViewEmitted(level int, d time.Duration)    {}
func (noopMetrics) ReaderFillTime(level int, d time.Duration) {}

// readerAdapter wraps a user Reader, timing Fill calls for Metrics and
// translating a reader failure into ErrReader. Exactly one Fill is invoked
// per cache miss per (index, level); the cache entry's per-entry lock is
// held by the caller across the call, giving the "at most one concurrent
// fill per fingerprint" guarantee this module requires.
type readerAdapter struct {
	reader  Reader
	metrics Metrics
}

func newReaderAdapter(r Reader, m Metrics) *readerAdapter {
	return &readerAdapter{reader: r, metrics: normalizeMetrics(m)}
}

// normalizeMetrics substitutes noopMetrics for a nil Metrics so every call
// site - the reader adapter, the cache fetch path, view emission - can
// invoke it unconditionally.
func normalizeMetrics(m Metrics) Metrics {
	if m == nil {
		return noopMetrics{}
	}
	return m
}

func (a *readerAdapter) fill(out []byte, index Index, level int) error {
	start := time.Now()
	err := a.reader.Fill(out, index, level)
	a.metrics.ReaderFillTime(level, time.Since(start))
	if err != nil {
		return ErrReader{Index: index, Level: level, Err: err}
	}
	return nil
}
