package loader

import "github.com/gracefulearth/tileloader/geom"

// executeCopy applies one Window, copying elements of size elemSize bytes
// from src (laid out row-major per srcShape) into dst (laid out row-major
// per dstShape). For any dimension whose Reverse flag is set, the
// destination iterates that dimension backwards relative to the source:
// the element at destination-local coordinate i along that axis reads
// from source-local coordinate SrcOffset-i, instead of SrcOffset+i.
func executeCopy(dst []byte, dstShape geom.Shape, src []byte, srcShape geom.Shape, w geom.Window, elemSize int) {
	d := len(w.Length)
	if d == 0 {
		return
	}
	for _, l := range w.Length {
		if l <= 0 {
			return
		}
	}

	if fullVolumeShortcut(dstShape, srcShape, w) {
		n := w.Volume() * elemSize
		copy(dst[:n], src[:n])
		return
	}

	dstStrides := dstShape.Strides()
	srcStrides := srcShape.Strides()
	innermost := d - 1

	outerIdx := make([]int, d)
	for {
		dstOff := 0
		srcOff := 0
		for axis := 0; axis < innermost; axis++ {
			dstLocal := outerIdx[axis]
			if w.Reverse[axis] {
				dstOff += (w.DstOffset[axis] + dstLocal) * dstStrides[axis]
				srcOff += (w.SrcOffset[axis] - dstLocal) * srcStrides[axis]
			} else {
				dstOff += (w.DstOffset[axis] + dstLocal) * dstStrides[axis]
				srcOff += (w.SrcOffset[axis] + dstLocal) * srcStrides[axis]
			}
		}

		n := w.Length[innermost]
		dstBase := (dstOff + w.DstOffset[innermost]) * elemSize
		if w.Reverse[innermost] {
			for k := 0; k < n; k++ {
				srcLocal := w.SrcOffset[innermost] - k
				srcOffFull := (srcOff + srcLocal) * elemSize
				dstOffFull := dstBase + k*elemSize
				copy(dst[dstOffFull:dstOffFull+elemSize], src[srcOffFull:srcOffFull+elemSize])
			}
		} else {
			srcBase := (srcOff + w.SrcOffset[innermost]) * elemSize
			n2 := n * elemSize
			copy(dst[dstBase:dstBase+n2], src[srcBase:srcBase+n2])
		}

		if d == 1 {
			return
		}
		axis := innermost - 1
		for axis >= 0 {
			outerIdx[axis]++
			if outerIdx[axis] < w.Length[axis] {
				break
			}
			outerIdx[axis] = 0
			axis--
		}
		if axis < 0 {
			return
		}
	}
}

// fullVolumeShortcut reports whether w covers the entirety of both src and
// dst with no reversal, permitting a single contiguous copy.
func fullVolumeShortcut(dstShape, srcShape geom.Shape, w geom.Window) bool {
	for _, r := range w.Reverse {
		if r {
			return false
		}
	}
	if len(dstShape) != len(w.Length) || len(srcShape) != len(w.Length) {
		return false
	}
	for d := range w.Length {
		if w.DstOffset[d] != 0 || w.SrcOffset[d] != 0 {
			return false
		}
		if dstShape[d] != w.Length[d] || srcShape[d] != w.Length[d] {
			return false
		}
	}
	return true
}
