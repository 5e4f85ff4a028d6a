package loader

import "github.com/gracefulearth/tileloader/geom"

// The core geometry and element-type vocabulary lives in package geom so
// that halo.Policy implementations can depend on it without importing this
// package (which itself depends on halo). Consumers of package loader use
// these names directly; there is no need to import geom separately.
type (
	Shape        = geom.Shape
	Index        = geom.Index
	Interval     = geom.Interval
	Box          = geom.Box
	Window       = geom.Window
	CopyRecord   = geom.CopyRecord
	ViewGeometry = geom.ViewGeometry
	DataType     = geom.DataType
)

const (
	Uint8    = geom.Uint8
	Int8     = geom.Int8
	Uint16   = geom.Uint16
	Int16    = geom.Int16
	Uint32   = geom.Uint32
	Int32    = geom.Int32
	Uint64   = geom.Uint64
	Int64    = geom.Int64
	Float32  = geom.Float32
	Float64  = geom.Float64
	Float16  = geom.Float16
	Float8   = geom.Float8
	BFloat16 = geom.BFloat16
	Int128   = geom.Int128
	Uint128  = geom.Uint128
	Float128 = geom.Float128
)

var NewWindow = geom.NewWindow

// ColorConstant converts a color.Color into the per-element constant values
// a DataType's PutConstant expects. See geom.ColorConstant.
var ColorConstant = geom.ColorConstant
