// Package readers ships one concrete loader.Reader, ImageReader, built on
// github.com/gracefulearth/image's BMP/TIFF decoders. It treats a decoded
// image as pyramid level 0 of a single-level, three-dimensional dataset
// (row, column, channel) and fills tile buffers by cropping the decoded
// image, giving the Reader contract something concrete to satisfy without
// pulling image decoding into the loader core.
package readers

import (
	"image"
	"image/color"
	"io"

	"github.com/gracefulearth/image/bmp"
	"github.com/gracefulearth/image/tiff"

	tileloader "github.com/gracefulearth/tileloader"
)

// ImageReader wraps a decoded image.Image as a single-level dataset with
// dimensions (row, column, channel), channel always size 4 (R, G, B, A),
// DataType Uint8.
type ImageReader struct {
	img      image.Image
	bounds   image.Rectangle
	tileRows int
	tileCols int
}

// DecodeBMP opens and decodes a BMP file as an ImageReader tiled into
// tileRows x tileCols pixel tiles.
func DecodeBMP(r io.Reader, tileRows, tileCols int) (*ImageReader, error) {
	img, err := bmp.Decode(r)
	if err != nil {
		return nil, err
	}
	return NewImageReader(img, tileRows, tileCols), nil
}

// DecodeTIFF opens and decodes a TIFF file as an ImageReader tiled into
// tileRows x tileCols pixel tiles.
func DecodeTIFF(r io.Reader, tileRows, tileCols int) (*ImageReader, error) {
	img, err := tiff.Decode(r)
	if err != nil {
		return nil, err
	}
	return NewImageReader(img, tileRows, tileCols), nil
}

// NewImageReader wraps an already-decoded image.Image directly. If
// tileRows or tileCols is <= 0, the whole image becomes a single tile
// along that dimension.
func NewImageReader(img image.Image, tileRows, tileCols int) *ImageReader {
	b := img.Bounds()
	if tileRows <= 0 {
		tileRows = b.Dy()
	}
	if tileCols <= 0 {
		tileCols = b.Dx()
	}
	return &ImageReader{img: img, bounds: b, tileRows: tileRows, tileCols: tileCols}
}

const imageChannels = 4

func (r *ImageReader) Fill(out []byte, index tileloader.Index, level int) error {
	rowStart := index[0] * r.tileRows
	colStart := index[1] * r.tileCols
	h := r.bounds.Dy()
	w := r.bounds.Dx()

	for dr := 0; dr < r.tileRows; dr++ {
		row := rowStart + dr
		if row >= h {
			break
		}
		for dc := 0; dc < r.tileCols; dc++ {
			col := colStart + dc
			if col >= w {
				continue
			}
			px := color.RGBAModel.Convert(r.img.At(r.bounds.Min.X+col, r.bounds.Min.Y+row)).(color.RGBA)
			off := (dr*r.tileCols + dc) * imageChannels
			out[off+0] = px.R
			out[off+1] = px.G
			out[off+2] = px.B
			out[off+3] = px.A
		}
	}
	return nil
}

func (r *ImageReader) TileShape(level int) tileloader.Shape {
	return tileloader.Shape{r.tileRows, r.tileCols, imageChannels}
}

func (r *ImageReader) FullShape(level int) tileloader.Shape {
	return tileloader.Shape{r.bounds.Dy(), r.bounds.Dx(), imageChannels}
}

func (r *ImageReader) DataType(level int) tileloader.DataType { return tileloader.Uint8 }

func (r *ImageReader) NumLevels() int { return 1 }
func (r *ImageReader) NumDims() int   { return 3 }

func (r *ImageReader) DimNames() []string { return []string{"row", "column", "channel"} }

func (r *ImageReader) DownScaleFactor(level int) float64 { return 1 }
