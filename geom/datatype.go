package geom

import (
	"encoding/binary"
	"image/color"
	"math"

	"github.com/chenxingqiang/go-floatx"
	"github.com/gracefulearth/go-colorext"
	"github.com/kshard/float8"
	"github.com/shogo82148/float128"
	"github.com/shogo82148/int128"
	"github.com/x448/float16"
)

// DataType identifies the element encoding stored in a tile/view buffer.
// The reader and the core agree on one DataType per dataset (or per level,
// for pyramids whose levels downsample into a different precision); the
// core never inspects element values except to synthesize a Constant halo.
type DataType int

const (
	Uint8 DataType = iota
	Int8
	Uint16
	Int16
	Uint32
	Int32
	Uint64
	Int64
	Float32
	Float64
	Float16  // github.com/x448/float16
	Float8   // github.com/kshard/float8
	BFloat16 // github.com/chenxingqiang/go-floatx
	Int128   // github.com/shogo82148/int128
	Uint128  // github.com/shogo82148/int128
	Float128 // github.com/shogo82148/float128
)

// Size returns the number of bytes one element of this DataType occupies.
func (t DataType) Size() int {
	switch t {
	case Uint8, Int8, Float8:
		return 1
	case Uint16, Int16, Float16, BFloat16:
		return 2
	case Uint32, Int32, Float32:
		return 4
	case Uint64, Int64, Float64:
		return 8
	case Int128, Uint128, Float128:
		return 16
	default:
		panic("loader: unknown DataType")
	}
}

func (t DataType) String() string {
	switch t {
	case Uint8:
		return "uint8"
	case Int8:
		return "int8"
	case Uint16:
		return "uint16"
	case Int16:
		return "int16"
	case Uint32:
		return "uint32"
	case Int32:
		return "int32"
	case Uint64:
		return "uint64"
	case Int64:
		return "int64"
	case Float32:
		return "float32"
	case Float64:
		return "float64"
	case Float16:
		return "float16"
	case Float8:
		return "float8"
	case BFloat16:
		return "bfloat16"
	case Int128:
		return "int128"
	case Uint128:
		return "uint128"
	case Float128:
		return "float128"
	default:
		return "unknown"
	}
}

// PutConstant encodes val (expected to be the Go value naturally associated
// with t, e.g. float16.Float16 for Float16) into raw using byte order o,
// writing exactly t.Size() bytes. It panics if val's dynamic type does not
// match t.
func (t DataType) PutConstant(raw []byte, o binary.ByteOrder, val any) {
	switch t {
	case Uint8:
		raw[0] = val.(uint8)
	case Int8:
		raw[0] = byte(val.(int8))
	case Uint16:
		o.PutUint16(raw, val.(uint16))
	case Int16:
		o.PutUint16(raw, uint16(val.(int16)))
	case Uint32:
		o.PutUint32(raw, val.(uint32))
	case Int32:
		o.PutUint32(raw, uint32(val.(int32)))
	case Uint64:
		o.PutUint64(raw, val.(uint64))
	case Int64:
		o.PutUint64(raw, uint64(val.(int64)))
	case Float32:
		o.PutUint32(raw, math.Float32bits(val.(float32)))
	case Float64:
		o.PutUint64(raw, math.Float64bits(val.(float64)))
	case Float16:
		o.PutUint16(raw, val.(float16.Float16).Bits())
	case Float8:
		raw[0] = byte(val.(float8.Float8))
	case BFloat16:
		o.PutUint16(raw, uint16(val.(floatx.BFloat16)))
	case Int128:
		v := val.(int128.Int128)
		if o == binary.BigEndian {
			o.PutUint64(raw[:8], uint64(v.H))
			o.PutUint64(raw[8:], v.L)
		} else {
			o.PutUint64(raw[:8], v.L)
			o.PutUint64(raw[8:], uint64(v.H))
		}
	case Uint128:
		v := val.(int128.Uint128)
		if o == binary.BigEndian {
			o.PutUint64(raw[:8], v.H)
			o.PutUint64(raw[8:], v.L)
		} else {
			o.PutUint64(raw[:8], v.L)
			o.PutUint64(raw[8:], v.H)
		}
	case Float128:
		v := val.(float128.Float128)
		h, l := v.Bits()
		if o == binary.BigEndian {
			o.PutUint64(raw[:8], h)
			o.PutUint64(raw[8:], l)
		} else {
			o.PutUint64(raw[:8], l)
			o.PutUint64(raw[8:], h)
		}
	default:
		panic("loader: unknown DataType")
	}
}

// ColorConstant converts a color.Color (including
// github.com/gracefulearth/go-colorext's extra models) into the per-channel
// constant values PutConstant expects, one per field of t, for use as a
// halo.Constant fill value on datasets the reader reports as color imagery.
// Only Uint8 (a uint8), Int16 (an int16) and Uint16 (a uint16) get a value of
// their own type; for every other DataType the result is the 16-bit gray
// value as a uint16, which PutConstant does not accept for that type.
func ColorConstant(t DataType, c color.Color) []any {
	switch t {
	case Uint8:
		switch v := c.(type) {
		case colorext.GrayS16:
			clamped := v.Y
			if clamped < 0 {
				clamped = 0
			}
			return []any{uint8(clamped >> 8)}
		default:
			g := color.GrayModel.Convert(c).(color.Gray)
			return []any{g.Y}
		}
	case Int16:
		v := colorext.GrayS16Model.Convert(c).(colorext.GrayS16)
		return []any{v.Y}
	case Uint16:
		g := color.Gray16Model.Convert(c).(color.Gray16)
		return []any{g.Y}
	default:
		g := color.Gray16Model.Convert(c).(color.Gray16)
		return []any{g.Y}
	}
}
