package imageutil

// ToLuma returns the BT.601 studio-swing luma (Y of YCbCr, in [16, 235])
// of every pixel in row-major order:
// Y = 16 + (65.481*R + 128.553*G + 24.966*B) / 255.
// This is the channel super-resolution results are conventionally scored
// on.
func ToLuma(img *RGBAImage) []float64 {
	width, height := img.Width(), img.Height()
	luma := make([]float64, 0, width*height)

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			c := img.RGBAAt(x, y)
			luma = append(luma, 16+(65.481*float64(c.R)+128.553*float64(c.G)+24.966*float64(c.B))/255)
		}
	}
	return luma
}
