// Package imageutil provides the pure Go image layer used to build
// super-resolution datasets. Filtering and resizing reproduce the 8-bit
// fixed-point arithmetic of OpenCV's GaussianBlur and resize so that
// datasets generated here match ones generated with cv2.
package imageutil

import (
	"image"
	"image/color"
)

// RGB represents a color in the RGB color space with 8-bit channels.
type RGB struct {
	R, G, B uint8
}

// ToColor converts RGB to an opaque color.RGBA.
func (rgb RGB) ToColor() color.RGBA {
	return color.RGBA{R: rgb.R, G: rgb.G, B: rgb.B, A: 255}
}

// RGBAImage is a three channel image stored in an image.RGBA whose alpha
// is always 255.
type RGBAImage struct {
	*image.RGBA
}

// NewRGBAImage creates a new opaque black RGBAImage with the specified
// dimensions.
func NewRGBAImage(width, height int) *RGBAImage {
	img := &RGBAImage{
		RGBA: image.NewRGBA(image.Rect(0, 0, width, height)),
	}
	for i := 3; i < len(img.Pix); i += 4 {
		img.Pix[i] = 255
	}
	return img
}

// RGBAImageFromImage converts any image.Image to an RGBAImage anchored at
// the origin.
//
// Alpha is discarded without premultiplying the color channels, and 16-bit
// samples keep their high byte. This is what a color read with OpenCV's
// IMREAD_COLOR produces.
func RGBAImageFromImage(img image.Image) *RGBAImage {
	bounds := img.Bounds()
	dst := NewRGBAImage(bounds.Dx(), bounds.Dy())

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		row := dst.Pix[(y-bounds.Min.Y)*dst.Stride:]
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			i := (x - bounds.Min.X) * 4
			row[i+0], row[i+1], row[i+2] = straightRGB(img.At(x, y))
		}
	}
	return dst
}

// straightRGB returns the non-premultiplied 8-bit channels of c.
func straightRGB(c color.Color) (r, g, b uint8) {
	switch v := c.(type) {
	case color.NRGBA:
		return v.R, v.G, v.B
	case color.NRGBA64:
		return uint8(v.R >> 8), uint8(v.G >> 8), uint8(v.B >> 8)
	}
	n := color.NRGBA64Model.Convert(c).(color.NRGBA64)
	return uint8(n.R >> 8), uint8(n.G >> 8), uint8(n.B >> 8)
}

// Width returns the image width.
func (img *RGBAImage) Width() int {
	return img.Bounds().Dx()
}

// Height returns the image height.
func (img *RGBAImage) Height() int {
	return img.Bounds().Dy()
}

// GetRGB returns the RGB value at (x, y).
func (img *RGBAImage) GetRGB(x, y int) RGB {
	c := img.RGBAAt(x, y)
	return RGB{R: c.R, G: c.G, B: c.B}
}

// SetRGB sets the RGB value at (x, y).
func (img *RGBAImage) SetRGB(x, y int, c RGB) {
	img.SetRGBA(x, y, c.ToColor())
}

// Clone creates a deep copy of the image.
func (img *RGBAImage) Clone() *RGBAImage {
	clone := &RGBAImage{
		RGBA: image.NewRGBA(image.Rect(0, 0, img.Width(), img.Height())),
	}
	copy(clone.Pix, img.Pix)
	return clone
}
