package main

import (
	"encoding/binary"
	"flag"
	"log"
	"os"
	"path"
	"strings"

	tileloader "github.com/gracefulearth/tileloader"
	"github.com/gracefulearth/tileloader/halo"
	"github.com/gracefulearth/tileloader/readers"
)

// This application loads an image through the tile loader pipeline and
// reports every emitted view, exercising readers.ImageReader end to end.
func main() {
	src := flag.String("src", "", "image file to load (.bmp or .tif/.tiff)")
	tileRows := flag.Int("tileRows", 64, "tile height in pixels")
	tileCols := flag.Int("tileCols", 64, "tile width in pixels")
	radius := flag.Int("radius", 0, "halo radius (pixels), applied to row and column only")
	ordered := flag.Bool("ordered", true, "emit views in request order")
	flag.Parse()

	if *src == "" {
		log.Fatal("-src is required")
	}

	f, err := os.Open(*src)
	if err != nil {
		log.Fatal(err)
	}
	defer f.Close()

	var reader *readers.ImageReader
	switch strings.ToLower(path.Ext(*src)) {
	case ".bmp":
		reader, err = readers.DecodeBMP(f, *tileRows, *tileCols)
	case ".tif", ".tiff":
		reader, err = readers.DecodeTIFF(f, *tileRows, *tileCols)
	default:
		log.Fatalf("unsupported image extension: %s", *src)
	}
	if err != nil {
		log.Fatal(err)
	}

	cfg := &tileloader.Config{
		Reader:        reader,
		Radii:         tileloader.UniformRadius(reader.NumDims(), 0),
		HaloPolicy:    halo.NewConstant(tileloader.Uint8, binary.BigEndian, uint8(0)),
		OrderedOutput: *ordered,
	}
	cfg.Radii[0] = *radius
	cfg.Radii[1] = *radius

	sys, err := tileloader.New(cfg)
	if err != nil {
		log.Fatal(err)
	}

	if err := sys.RequestAllViews(0); err != nil {
		log.Fatal(err)
	}
	sys.FinishRequesting()

	count := 0
	for {
		res, ok := sys.NextView()
		if !ok {
			break
		}
		if res.Err != nil {
			log.Printf("request %v failed: %v", res.Request, res.Err)
			continue
		}
		count++
		log.Printf("view %v: %d bytes", res.View.Index, len(res.View.Data))
		sys.Release(res.View)
	}
	sys.WaitForTermination()
	log.Printf("loaded %d views, estimated memory %d MB", count, sys.EstimatedMaxMemoryMB())
}
