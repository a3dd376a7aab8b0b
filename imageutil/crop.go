package imageutil

import (
	"image"

	"github.com/disintegration/imaging"
)

// Crop copies the size×size block whose top-left pixel is (x, y) into a
// new image. The block must lie inside img.
func Crop(img *RGBAImage, x, y, size int) *RGBAImage {
	tile := imaging.Crop(img.RGBA, image.Rect(x, y, x+size, y+size))

	// Every pixel is opaque, so the straight and premultiplied
	// layouts are identical.
	return &RGBAImage{
		RGBA: &image.RGBA{Pix: tile.Pix, Stride: tile.Stride, Rect: tile.Rect},
	}
}

// TileOrigins returns the offsets 0, stride, 2*stride, ... at which a
// window of the given size still fits inside length.
func TileOrigins(length, size, stride int) []int {
	var origins []int
	for o := 0; o+size <= length; o += stride {
		origins = append(origins, o)
	}
	return origins
}

// TileCount returns how many size×size tiles TileOrigins yields for a
// width×height image.
func TileCount(width, height, size, stride int) int {
	if size > width || size > height {
		return 0
	}
	return ((height-size)/stride + 1) * ((width-size)/stride + 1)
}
